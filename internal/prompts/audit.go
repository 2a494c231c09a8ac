package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// AuditPrompt handles the docmesh-audit MCP prompt.
// It instructs the AI to review reference health across the docs tree.
type AuditPrompt struct{}

// NewAuditPrompt creates an AuditPrompt.
func NewAuditPrompt() *AuditPrompt {
	return &AuditPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *AuditPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("docmesh-audit",
		mcp.WithPromptDescription(
			"Audit the documentation tree for broken references and orphaned pages.",
		),
	)
}

// Handle processes the docmesh-audit prompt request.
func (p *AuditPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "docmesh reference audit",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `docmesh_stats` to check the reference index.\n\n" +
						"Then:\n" +
						"1. Read the `docmesh://index/broken` resource and group broken references by source document\n" +
						"2. For each broken target, use `search_documents` to suggest the page it most likely meant\n" +
						"3. Run `list_documents` and flag pages with no backlinks using `find_backlinks`\n" +
						"4. Give me a short prioritized fix list",
				),
			},
		},
	}, nil
}
