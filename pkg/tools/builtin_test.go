package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillworks/autoedit/pkg/types"
)

func TestDefaultRegistryHasAllTools(t *testing.T) {
	registry := NewDefaultRegistry()
	assert.Equal(t, []string{"overwrite", "patch", "read", "search"}, registry.Names())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(NewReadTool()))
	assert.Error(t, registry.Register(NewReadTool()))
	assert.Error(t, registry.Register(nil))
}

func TestReadToolReturnsContent(t *testing.T) {
	tool := NewReadTool()

	result, err := tool.Execute(context.Background(), &types.ToolCall{Name: types.ToolRead}, doc("line one\nline two"))

	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Contains(t, result.Message, "line one")
	assert.Equal(t, 2, result.Data["lines"])
	assert.Nil(t, result.NewContent, "read never mutates")
}

func TestSearchToolFindsMatchesWithContext(t *testing.T) {
	tool := NewSearchTool()
	state := doc("first\nsecond target line\nthird\nfourth")

	call := &types.ToolCall{Name: types.ToolSearch, Search: &types.SearchParams{Query: "TARGET"}}
	result, err := tool.Execute(context.Background(), call, state)

	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Data["matches"])
	assert.Contains(t, result.Message, ">    2 | second target line")
	assert.Contains(t, result.Message, "first")
	assert.Contains(t, result.Message, "fourth")
}

func TestSearchToolNoMatches(t *testing.T) {
	tool := NewSearchTool()

	call := &types.ToolCall{Name: types.ToolSearch, Search: &types.SearchParams{Query: "absent"}}
	result, err := tool.Execute(context.Background(), call, doc("nothing here"))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "no matches")
}

func TestSearchToolValidation(t *testing.T) {
	tool := NewSearchTool()
	assert.Error(t, tool.Validate(&types.ToolCall{Name: types.ToolSearch}))
	assert.Error(t, tool.Validate(&types.ToolCall{Name: types.ToolSearch, Search: &types.SearchParams{Query: "  "}}))
}

func TestOverwriteToolReplacesContent(t *testing.T) {
	tool := NewOverwriteTool()

	call := &types.ToolCall{Name: types.ToolOverwrite, Overwrite: &types.OverwriteParams{Content: "brand new"}}
	result, err := tool.Execute(context.Background(), call, doc("old"))

	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.NewContent)
	assert.Equal(t, "brand new", *result.NewContent)
}

func TestOverwriteToolValidation(t *testing.T) {
	tool := NewOverwriteTool()
	assert.Error(t, tool.Validate(&types.ToolCall{Name: types.ToolOverwrite}))
	assert.Error(t, tool.Validate(&types.ToolCall{Name: types.ToolOverwrite, Overwrite: &types.OverwriteParams{Content: " \n"}}))
}
