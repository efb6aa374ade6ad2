package openapi

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Info carries the values that vary between deployments.
type Info struct {
	Title      string // site name
	Version    string
	BaseURL    string
	CookieName string // session cookie name, documented as the auth scheme
}

var adminInputFields = []Field{
	{Name: "email", GoType: "string", Format: "email", Required: true},
	{Name: "password", GoType: "string", Format: "password", Required: true, Description: "At least 8 characters."},
	{Name: "name", GoType: "string"},
}

// Generate builds the OpenAPI 3.1 document for the site's JSON API: the
// public content endpoints, session endpoints and the cookie-protected admin
// API.
func Generate(info Info) *openapi3.T {
	if info.Title == "" {
		info.Title = "Showcase"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}

	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       fmt.Sprintf("%s API", info.Title),
			Description: fmt.Sprintf("Content and session API for %s. Admin endpoints require the session cookie set by sign-in.", info.Title),
			Version:     info.Version,
		},
	}
	if info.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: info.BaseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	cookie := info.CookieName
	if cookie == "" {
		cookie = "showcase.session-token"
	}
	doc.Components.SecuritySchemes["sessionCookie"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:        "apiKey",
			In:          "cookie",
			Name:        cookie,
			Description: "Signed session token. Large tokens are split across numbered cookies (name.0, name.1, ...).",
		},
	}

	addComponentSchemas(doc)
	doc.Paths = openapi3.NewPaths()
	addSystemPaths(doc)
	addAuthPaths(doc)
	addPublicPaths(doc)
	addAdminPaths(doc)

	return doc
}

// ─── Components ─────────────────────────────────────────────────────────────

func addComponentSchemas(doc *openapi3.T) {
	s := doc.Components.Schemas

	s["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
							"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
							"context": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
						},
					},
				},
			},
		},
	}

	s["PricingTier"] = fieldsToSchema(pricingTierFields)
	s["PricingTierInput"] = fieldsToInputSchema(pricingTierFields)
	s["Project"] = fieldsToSchema(projectFields)
	s["ProjectInput"] = fieldsToInputSchema(projectFields)
	s["ContactInfo"] = fieldsToSchema(contactFields)
	s["ContactInfoInput"] = fieldsToInputSchema(contactFields)
	s["Review"] = fieldsToSchema(reviewFields)
	s["UserIdentity"] = fieldsToSchema(identityFields)
	s["AdminInput"] = fieldsToInputSchema(adminInputFields)
	s["LoginRequest"] = fieldsToInputSchema(loginFields)
	s["Preferences"] = fieldsToInputSchema(preferencesFields)

	session := fieldsToSchema(sessionFields)
	session.Value.Properties["user"] = openapi3.NewSchemaRef(ref("UserIdentity"), nil)
	s["Session"] = session
}

// fieldsToSchema converts fields to an object schema with every field as a
// property.
func fieldsToSchema(fields []Field) *openapi3.SchemaRef {
	props := openapi3.Schemas{}
	var required []string
	for _, f := range fields {
		sch := fieldSchema(f)
		sch.ReadOnly = f.ReadOnly
		props[f.Name] = &openapi3.SchemaRef{Value: sch}
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: props,
			Required:   required,
		},
	}
}

// fieldsToInputSchema generates a request body schema. Read-only fields are
// excluded since the server assigns them.
func fieldsToInputSchema(fields []Field) *openapi3.SchemaRef {
	props := openapi3.Schemas{}
	var required []string
	for _, f := range fields {
		if f.ReadOnly {
			continue
		}
		props[f.Name] = &openapi3.SchemaRef{Value: fieldSchema(f)}
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: props,
			Required:   required,
		},
	}
}

func fieldSchema(f Field) *openapi3.Schema {
	m := MapGoType(f.GoType)
	s := &openapi3.Schema{
		Type:        &openapi3.Types{m.Type},
		Format:      m.Format,
		Description: f.Description,
	}
	if f.Format != "" {
		s.Format = f.Format
	}
	if m.Type == "array" {
		s.Items = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{m.Items}}}
	}
	return s
}

// ─── Paths ──────────────────────────────────────────────────────────────────

func addSystemPaths(doc *openapi3.T) {
	probe := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"status": &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"checks": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
			},
		},
	}
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Liveness probe",
			OperationID: "healthz",
			Responses:   newResponses("200", "Process is running", probe),
		},
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Readiness probe",
			Description: "Returns 503 when the content store is unreachable.",
			OperationID: "readyz",
			Responses:   newResponses("200", "Ready to serve", probe),
		},
	})
}

func addAuthPaths(doc *openapi3.T) {
	login := &openapi3.Operation{
		Tags:        []string{"auth"},
		Summary:     "Sign in",
		Description: "Verifies credentials and sets the session cookie. Form posts are answered with 303 redirects: to the admin area on success, to the login page with ?error=CredentialsSignin on failure.",
		OperationID: "login",
		RequestBody: &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content: openapi3.Content{
					"application/json":                  &openapi3.MediaType{Schema: openapi3.NewSchemaRef(ref("LoginRequest"), nil)},
					"application/x-www-form-urlencoded": &openapi3.MediaType{Schema: openapi3.NewSchemaRef(ref("LoginRequest"), nil)},
				},
			},
		},
		Responses: newResponses("200", "Signed in", openapi3.NewSchemaRef(ref("Session"), nil)),
	}
	addRedirect(login.Responses, "303", "Form post redirect")
	addError(login.Responses, "429", "Too many sign-in attempts")
	doc.Paths.Set("/api/auth/login", &openapi3.PathItem{Post: login})

	logout := &openapi3.Operation{
		Tags:        []string{"auth"},
		Summary:     "Sign out",
		Description: "Expires every session cookie and redirects to the login page. Idempotent.",
		OperationID: "logout",
		Responses:   openapi3.NewResponses(),
	}
	addRedirect(logout.Responses, "303", "Redirect to the login page")
	doc.Paths.Set("/api/auth/logout", &openapi3.PathItem{Post: logout})

	doc.Paths.Set("/api/auth/session", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Current session",
			OperationID: "getSession",
			Security:    cookieSecurity(),
			Responses:   newResponses("200", "The caller's session", openapi3.NewSchemaRef(ref("Session"), nil)),
		},
	})

	prefs := &openapi3.Operation{
		Tags:        []string{"site"},
		Summary:     "Store display preferences",
		Description: "Sets the theme and language cookies.",
		OperationID: "setPreferences",
		RequestBody: &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(ref("Preferences"), nil)),
			},
		},
		Responses: newResponses("200", "Stored preferences", openapi3.NewSchemaRef(ref("Preferences"), nil)),
	}
	doc.Paths.Set("/api/preferences", &openapi3.PathItem{Post: prefs})
}

func addPublicPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/pricing", &openapi3.PathItem{Get: listOperation("pricing", "PricingTier", "listPricing", false)})
	doc.Paths.Set("/api/projects", &openapi3.PathItem{Get: listOperation("projects", "Project", "listProjects", false)})
	doc.Paths.Set("/api/contact", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"contact"},
			Summary:     "Get contact info",
			OperationID: "getContact",
			Responses:   newResponses("200", "Contact block", openapi3.NewSchemaRef(ref("ContactInfo"), nil)),
		},
	})

	reviews := listOperation("reviews", "Review", "listReviews", false)
	reviews.Description = "Relays the external reviews feed. Responses are cached server-side."
	addError(reviews.Responses, "502", "Reviews feed unavailable")
	doc.Paths.Set("/api/reviews", &openapi3.PathItem{Get: reviews})
}

func addAdminPaths(doc *openapi3.T) {
	addCollection(doc, "/admin/api/pricing", "pricing", "PricingTier")
	addCollection(doc, "/admin/api/projects", "projects", "Project")

	doc.Paths.Set("/admin/api/contact", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"contact"},
			Summary:     "Get contact info",
			OperationID: "adminGetContact",
			Security:    cookieSecurity(),
			Responses:   newResponses("200", "Contact block", openapi3.NewSchemaRef(ref("ContactInfo"), nil)),
		},
		Put: replaceOperation("contact", "ContactInfo", "updateContact"),
	})

	admins := listOperation("admins", "UserIdentity", "listAdmins", true)
	create := createOperation("admins", "UserIdentity", "createAdmin")
	create.RequestBody = jsonBody("AdminInput")
	addError(create.Responses, "409", "Email already registered")
	doc.Paths.Set("/admin/api/admins", &openapi3.PathItem{Get: admins, Post: create})
}

// addCollection adds list/create and get/replace/delete paths for a content
// resource.
func addCollection(doc *openapi3.T, base, tag, schema string) {
	name := strings.ToLower(schema[:1]) + schema[1:]

	create := createOperation(tag, schema, "create"+schema)
	addError(create.Responses, "409", "Slug already in use")
	doc.Paths.Set(base, &openapi3.PathItem{
		Get:  listOperation(tag, schema, "adminList"+schema, true),
		Post: create,
	})

	item := &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			&openapi3.ParameterRef{
				Value: openapi3.NewPathParameter("id").
					WithDescription(fmt.Sprintf("%s ID", schema)).
					WithSchema(openapi3.NewStringSchema()),
			},
		},
		Get: &openapi3.Operation{
			Tags:        []string{tag},
			Summary:     fmt.Sprintf("Get a %s", name),
			OperationID: "get" + schema,
			Security:    cookieSecurity(),
			Responses:   newResponses("200", schema, openapi3.NewSchemaRef(ref(schema), nil)),
		},
		Put:    replaceOperation(tag, schema, "update"+schema),
		Delete: deleteOperation(tag, schema, "delete"+schema),
	}
	doc.Paths.Set(base+"/{id}", item)
}

// ─── Operation Builders ─────────────────────────────────────────────────────

func listOperation(tag, schema, operationID string, secured bool) *openapi3.Operation {
	listSchema := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"resource": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:  &openapi3.Types{"array"},
						Items: openapi3.NewSchemaRef(ref(schema), nil),
					},
				},
				"meta": metaSchema(),
			},
		},
	}
	op := &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     fmt.Sprintf("List %s", tag),
		OperationID: operationID,
		Responses:   newResponses("200", fmt.Sprintf("List of %s", schema), listSchema),
	}
	if secured {
		op.Security = cookieSecurity()
	}
	return op
}

func createOperation(tag, schema, operationID string) *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     fmt.Sprintf("Create %s", schema),
		OperationID: operationID,
		Security:    cookieSecurity(),
		RequestBody: jsonBody(schema + "Input"),
		Responses:   newResponses("201", fmt.Sprintf("Created %s", schema), openapi3.NewSchemaRef(ref(schema), nil)),
	}
}

func replaceOperation(tag, schema, operationID string) *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     fmt.Sprintf("Replace %s", schema),
		Description: "Full replacement; server-assigned fields are kept.",
		OperationID: operationID,
		Security:    cookieSecurity(),
		RequestBody: jsonBody(schema + "Input"),
		Responses:   newResponses("200", fmt.Sprintf("Updated %s", schema), openapi3.NewSchemaRef(ref(schema), nil)),
	}
}

func deleteOperation(tag, schema, operationID string) *openapi3.Operation {
	responses := openapi3.NewResponses()
	desc := fmt.Sprintf("%s deleted", schema)
	responses.Set("204", &openapi3.ResponseRef{Value: &openapi3.Response{Description: &desc}})
	addError(responses, "404", "Not found")
	addError(responses, "500", "Internal server error")
	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     fmt.Sprintf("Delete %s", schema),
		OperationID: operationID,
		Security:    cookieSecurity(),
		Responses:   responses,
	}
}

func jsonBody(schema string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(ref(schema), nil)),
		},
	}
}

func cookieSecurity() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{{"sessionCookie": {}}}
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// newResponses builds a Responses map with a success response and standard error responses.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	addError(responses, "400", "Bad request")
	addError(responses, "401", "Unauthorized")
	addError(responses, "404", "Not found")
	addError(responses, "500", "Internal server error")
	return responses
}

func addError(responses *openapi3.Responses, code, description string) {
	desc := description
	responses.Set(code, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content:     openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(ref("ErrorResponse"), nil)),
		},
	})
}

func addRedirect(responses *openapi3.Responses, code, description string) {
	desc := description
	responses.Set(code, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Headers: openapi3.Headers{
				"Location": &openapi3.HeaderRef{
					Value: &openapi3.Header{
						Parameter: openapi3.Parameter{Schema: &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}},
					},
				},
			},
		},
	})
}

// metaSchema returns the schema for the "meta" field in list responses.
func metaSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"count": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:        &openapi3.Types{"integer"},
						Format:      "int64",
						Description: "Number of items in resource.",
					},
				},
			},
		},
	}
}

func ref(schema string) string {
	return "#/components/schemas/" + schema
}
