// Package prompts implements MCP prompt handlers for docmesh.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ExplorePrompt handles the docmesh-explore MCP prompt.
// It guides the AI through a document, its references and its backlinks.
type ExplorePrompt struct{}

// NewExplorePrompt creates an ExplorePrompt.
func NewExplorePrompt() *ExplorePrompt {
	return &ExplorePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ExplorePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("docmesh-explore",
		mcp.WithPromptDescription(
			"Explore a documentation page together with everything it references "+
				"and everything that references it.",
		),
		mcp.WithArgument("address",
			mcp.ArgumentDescription("Document or section to start from, e.g. /guides/setup.md#install"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("depth",
			mcp.ArgumentDescription("How many levels of references to follow. Default: 2"),
		),
	)
}

// Handle processes the docmesh-explore prompt request.
func (p *ExplorePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	address := ""
	depth := "2"
	if args := req.Params.Arguments; args != nil {
		address = strings.TrimSpace(args["address"])
		if d := strings.TrimSpace(args["depth"]); d != "" {
			depth = d
		}
	}
	if address == "" {
		return nil, fmt.Errorf("argument 'address' is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Explore %s", address),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to understand the documentation at %s.\n\n"+
						"Please:\n"+
						"1. Run `view_document` with address='%s' and reference_depth=%s\n"+
						"2. Run `find_backlinks` with address='%s' to see which pages depend on it\n"+
						"3. Summarize the page, then explain how the referenced material fits in\n"+
						"4. Point out any broken references you noticed",
					address, address, depth, address,
				)),
			},
		},
	}, nil
}
