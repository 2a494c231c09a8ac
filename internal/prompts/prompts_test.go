package prompts

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptReq(args map[string]string) mcp.GetPromptRequest {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = args
	return req
}

func messageText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok, "content is %T, want TextContent", res.Messages[0].Content)
	return tc.Text
}

func TestExplorePrompt(t *testing.T) {
	p := NewExplorePrompt()
	assert.Equal(t, "docmesh-explore", p.Definition().Name)

	res, err := p.Handle(context.Background(), promptReq(map[string]string{"address": "/api.md#auth"}))
	require.NoError(t, err)
	text := messageText(t, res)
	for _, want := range []string{"view_document", "address='/api.md#auth'", "reference_depth=2", "find_backlinks"} {
		assert.Contains(t, text, want)
	}

	res, err = p.Handle(context.Background(), promptReq(map[string]string{"address": "/a.md", "depth": "4"}))
	require.NoError(t, err)
	assert.Contains(t, messageText(t, res), "reference_depth=4", "depth argument not applied")
}

func TestExplorePrompt_RequiresAddress(t *testing.T) {
	_, err := NewExplorePrompt().Handle(context.Background(), promptReq(nil))
	assert.Error(t, err)
}

func TestAuditPrompt(t *testing.T) {
	res, err := NewAuditPrompt().Handle(context.Background(), promptReq(nil))
	require.NoError(t, err)
	assert.Contains(t, messageText(t, res), "docmesh://index/broken")
}
