package openapi

import "strings"

// TypeMapping maps a Go field type to an OpenAPI type/format pair.
type TypeMapping struct {
	Type   string // OpenAPI type: string, integer, number, boolean, object, array
	Format string // OpenAPI format: int32, int64, date-time, email, uri, etc.
	Items  string // element type for arrays
}

// goTypeToOpenAPI maps the Go types used by the content models.
var goTypeToOpenAPI = map[string]TypeMapping{
	"string":    {Type: "string"},
	"int":       {Type: "integer", Format: "int32"},
	"int32":     {Type: "integer", Format: "int32"},
	"int64":     {Type: "integer", Format: "int64"},
	"float64":   {Type: "number", Format: "double"},
	"bool":      {Type: "boolean"},
	"time.time": {Type: "string", Format: "date-time"},
	"[]string":  {Type: "array", Items: "string"},
	"map":       {Type: "object"},
}

// MapGoType returns the OpenAPI mapping for a Go type name such as "int64"
// or "time.Time". Pointers are dereferenced; unknown types map to string.
func MapGoType(goType string) TypeMapping {
	t := strings.ToLower(strings.TrimSpace(goType))
	t = strings.TrimPrefix(t, "*")
	if strings.HasPrefix(t, "map[") {
		t = "map"
	}
	if m, ok := goTypeToOpenAPI[t]; ok {
		return m
	}
	return TypeMapping{Type: "string"}
}

// Field describes one JSON property of a component schema.
type Field struct {
	Name        string
	GoType      string
	Format      string // overrides the mapped format, e.g. "email"
	Description string
	Required    bool
	ReadOnly    bool // server-assigned; excluded from request bodies
}

var pricingTierFields = []Field{
	{Name: "id", GoType: "string", Format: "uuid", ReadOnly: true},
	{Name: "slug", GoType: "string", Description: "URL-safe identifier; derived from the name when empty."},
	{Name: "name", GoType: "string", Required: true},
	{Name: "description", GoType: "string"},
	{Name: "price_cents", GoType: "int64", Description: "Price in the smallest currency unit."},
	{Name: "currency", GoType: "string", Description: "ISO 4217 code, defaults to USD."},
	{Name: "interval", GoType: "string", Description: "Billing interval: month, year or once."},
	{Name: "features", GoType: "[]string"},
	{Name: "highlighted", GoType: "bool"},
	{Name: "sort_order", GoType: "int"},
	{Name: "created_at", GoType: "time.Time", ReadOnly: true},
	{Name: "updated_at", GoType: "time.Time", ReadOnly: true},
}

var projectFields = []Field{
	{Name: "id", GoType: "string", Format: "uuid", ReadOnly: true},
	{Name: "slug", GoType: "string", Description: "URL-safe identifier; derived from the title when empty."},
	{Name: "title", GoType: "string", Required: true},
	{Name: "summary", GoType: "string"},
	{Name: "image_url", GoType: "string", Format: "uri"},
	{Name: "link_url", GoType: "string", Format: "uri"},
	{Name: "tags", GoType: "[]string"},
	{Name: "featured", GoType: "bool"},
	{Name: "sort_order", GoType: "int"},
	{Name: "created_at", GoType: "time.Time", ReadOnly: true},
	{Name: "updated_at", GoType: "time.Time", ReadOnly: true},
}

var contactFields = []Field{
	{Name: "email", GoType: "string", Format: "email"},
	{Name: "phone", GoType: "string"},
	{Name: "address", GoType: "string"},
	{Name: "updated_at", GoType: "time.Time", ReadOnly: true},
}

var reviewFields = []Field{
	{Name: "author", GoType: "string"},
	{Name: "rating", GoType: "int", Description: "1 to 5."},
	{Name: "text", GoType: "string"},
	{Name: "published_at", GoType: "time.Time"},
}

var identityFields = []Field{
	{Name: "id", GoType: "string", ReadOnly: true},
	{Name: "email", GoType: "string", Format: "email", Required: true},
	{Name: "name", GoType: "string"},
}

var sessionFields = []Field{
	{Name: "user_id", GoType: "string", Required: true},
	{Name: "issued_at", GoType: "time.Time", Required: true},
	{Name: "expires_at", GoType: "time.Time", Required: true},
}

var loginFields = []Field{
	{Name: "email", GoType: "string", Format: "email", Required: true},
	{Name: "password", GoType: "string", Format: "password", Required: true},
	{Name: "callback_url", GoType: "string", Description: "Local path under the admin area to continue to."},
}

var preferencesFields = []Field{
	{Name: "theme", GoType: "string", Description: "light, dark or system."},
	{Name: "language", GoType: "string", Description: "One of the configured site languages."},
	{Name: "redirect", GoType: "string", Description: "Local path to return to after a form post."},
}
