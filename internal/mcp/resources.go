package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	pricingURI        = "showcase://pricing"
	contactURI        = "showcase://contact"
	projectURIPrefix  = "showcase://project/"
	projectURIPattern = projectURIPrefix + "{slug}"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			pricingURI,
			"Pricing Tiers",
			mcp.WithResourceDescription("All published pricing tiers in display order."),
			mcp.WithMIMEType("application/json"),
		),
		s.handlePricingResource,
	)

	srv.AddResource(
		mcp.NewResource(
			contactURI,
			"Contact Details",
			mcp.WithResourceDescription("The contact block shown in the site footer."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleContactResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			projectURIPattern,
			"Portfolio Project",
			mcp.WithTemplateDescription("A single portfolio project addressed by its slug."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleProjectResource,
	)
}

func (s *MCPServer) handlePricingResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tiers, err := s.store.ListPricingTiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing tiers: %w", err)
	}
	return jsonContents(pricingURI, tiers)
}

func (s *MCPServer) handleContactResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	info, err := s.store.GetContactInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact details: %w", err)
	}
	return jsonContents(contactURI, info)
}

// handleProjectResource resolves "showcase://project/{slug}".
func (s *MCPServer) handleProjectResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	slug := strings.TrimPrefix(uri, projectURIPrefix)
	if slug == "" || slug == uri {
		return nil, fmt.Errorf("invalid project URI %q: expected %s", uri, projectURIPattern)
	}

	p, err := s.findProject(ctx, slug)
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, p)
}
