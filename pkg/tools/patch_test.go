package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillworks/autoedit/pkg/types"
)

func patchCall(hunks ...types.PatchHunk) *types.ToolCall {
	return &types.ToolCall{
		Name:  types.ToolPatch,
		Patch: &types.PatchParams{Hunks: hunks},
	}
}

func TestPatchReplacesFirstOccurrenceOnly(t *testing.T) {
	tool := NewPatchTool()
	state := doc("alpha beta alpha")

	result, err := tool.Execute(context.Background(), patchCall(types.PatchHunk{Search: "alpha", Replace: "gamma"}), state)

	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.NewContent)
	assert.Equal(t, "gamma beta alpha", *result.NewContent)
}

func TestPatchAppliesHunksInOrder(t *testing.T) {
	tool := NewPatchTool()
	state := doc("one\ntwo\nthree")

	result, err := tool.Execute(context.Background(), patchCall(
		types.PatchHunk{Search: "one", Replace: "ONE"},
		types.PatchHunk{Search: "three", Replace: "THREE"},
	), state)

	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "ONE\ntwo\nTHREE", *result.NewContent)
}

func TestPatchSearchTextNotFoundIsStructural(t *testing.T) {
	tool := NewPatchTool()
	state := doc("function f(x){return x}")

	result, err := tool.Execute(context.Background(), patchCall(types.PatchHunk{Search: "no such text", Replace: "y"}), state)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.Structural)
	assert.Contains(t, result.Message, "search text not found")
	// The real content is shown so the oracle can self-correct.
	assert.Contains(t, result.Message, "function f(x){return x}")
	assert.Nil(t, result.NewContent)
}

func TestPatchLooseWhitespaceMatch(t *testing.T) {
	tool := NewPatchTool()
	state := doc("if (x  ==  null) {\n\treturn\n}")

	result, err := tool.Execute(context.Background(), patchCall(
		types.PatchHunk{Search: "if (x == null) { return }", Replace: "guard(x)"},
	), state)

	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "guard(x)", *result.NewContent)
	assert.Equal(t, 1, result.Data["fuzzy_matches"])
}

func TestPatchValidation(t *testing.T) {
	tool := NewPatchTool()

	assert.Error(t, tool.Validate(&types.ToolCall{Name: types.ToolPatch}))
	assert.Error(t, tool.Validate(patchCall()))
	assert.Error(t, tool.Validate(patchCall(types.PatchHunk{Search: "   "})))
	assert.NoError(t, tool.Validate(patchCall(types.PatchHunk{Search: "x", Replace: ""})))
}

func TestPatchDeletionViaEmptyReplacement(t *testing.T) {
	tool := NewPatchTool()
	state := doc("keep\ndrop me\nkeep too")

	result, err := tool.Execute(context.Background(), patchCall(types.PatchHunk{Search: "drop me\n", Replace: ""}), state)

	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "keep\nkeep too", *result.NewContent)
}
