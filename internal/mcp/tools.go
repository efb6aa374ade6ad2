package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/model"
)

const (
	defaultProjectLimit = 25
	maxProjectLimit     = 200
)

// registerTools registers all content tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("showcase_list_pricing",
			mcp.WithDescription(
				"List the published pricing tiers in display order. Prices are in minor "+
					"units (price_cents) with an ISO 4217 currency and a billing interval.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListPricing,
	)

	srv.AddTool(
		mcp.NewTool("showcase_list_projects",
			mcp.WithDescription(
				"List portfolio projects in display order. Optionally restrict to "+
					"featured projects or to projects carrying a tag.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithBoolean("featured",
				mcp.Description("Only return featured projects"),
			),
			mcp.WithString("tag",
				mcp.Description("Only return projects with this tag (case-insensitive)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of projects to return (default 25, max 200)"),
			),
		),
		s.handleListProjects,
	)

	srv.AddTool(
		mcp.NewTool("showcase_get_project",
			mcp.WithDescription("Get a single portfolio project by slug or ID."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("project",
				mcp.Required(),
				mcp.Description("Project slug (e.g. \"launch-site\") or ID"),
			),
		),
		s.handleGetProject,
	)

	srv.AddTool(
		mcp.NewTool("showcase_get_contact",
			mcp.WithDescription("Get the site's public contact details (email, phone, address)."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleGetContact,
	)

	srv.AddTool(
		mcp.NewTool("showcase_list_reviews",
			mcp.WithDescription(
				"List customer reviews relayed from the external reviews feed. Returns an "+
					"empty list when no feed is configured.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("min_rating",
				mcp.Description("Only return reviews rated at least this many stars (1-5)"),
			),
		),
		s.handleListReviews,
	)
}

func (s *MCPServer) handleListPricing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tiers, err := s.store.ListPricingTiers(ctx)
	if err != nil {
		return toolError("failed to list pricing tiers: %v", err)
	}
	return successJSON(map[string]interface{}{
		"tiers": nonNil(tiers),
		"count": len(tiers),
	})
}

func (s *MCPServer) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	featured := optionalBool(request, "featured")
	tag := strings.ToLower(strings.TrimSpace(optionalString(request, "tag")))
	limit := clamp(optionalInt(request, "limit", defaultProjectLimit), 1, maxProjectLimit)

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return toolError("failed to list projects: %v", err)
	}

	out := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if featured && !p.Featured {
			continue
		}
		if tag != "" && !hasTag(p.Tags, tag) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return successJSON(map[string]interface{}{
		"projects": out,
		"count":    len(out),
	})
}

func (s *MCPServer) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("project")
	if err != nil || strings.TrimSpace(key) == "" {
		return toolError("missing required parameter %q", "project")
	}

	p, err := s.findProject(ctx, key)
	if err != nil {
		return toolError("%v", err)
	}
	return successJSON(p)
}

func (s *MCPServer) handleGetContact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.store.GetContactInfo(ctx)
	if err != nil {
		return toolError("failed to load contact details: %v", err)
	}
	return successJSON(info)
}

func (s *MCPServer) handleListReviews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.reviews == nil || !s.reviews.Enabled() {
		return successJSON(map[string]interface{}{"reviews": []model.Review{}, "count": 0})
	}

	list, err := s.reviews.Fetch(ctx)
	if err != nil {
		s.logger.Warn("mcp: reviews feed unavailable", "error", err)
		return toolError("reviews feed unavailable: %v", err)
	}

	minRating := clamp(optionalInt(request, "min_rating", 0), 0, 5)
	out := make([]model.Review, 0, len(list))
	for _, r := range list {
		if r.Rating >= minRating {
			out = append(out, r)
		}
	}
	return successJSON(map[string]interface{}{
		"reviews": out,
		"count":   len(out),
	})
}

// findProject looks a project up by slug first, then by ID.
func (s *MCPServer) findProject(ctx context.Context, key string) (*model.Project, error) {
	key = strings.TrimSpace(key)
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	for i := range projects {
		if projects[i].Slug == strings.ToLower(key) || projects[i].ID == key {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("project %q: %w", key, config.ErrNotFound)
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.ToLower(t) == want {
			return true
		}
	}
	return false
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
