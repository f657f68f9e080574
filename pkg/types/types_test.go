package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseComplexity(t *testing.T) {
	assert.Equal(t, ComplexityTrivial, ParseComplexity("trivial"))
	assert.Equal(t, ComplexityComplex, ParseComplexity(" Complex "))
	assert.Equal(t, ComplexitySimple, ParseComplexity("unknown"))
	assert.Equal(t, ComplexitySimple, ParseComplexity(""))
}

func TestToolCallDescribe(t *testing.T) {
	patch := &ToolCall{Name: ToolPatch, Patch: &PatchParams{Hunks: []PatchHunk{{}, {}}}}
	assert.Equal(t, "patch (2 hunks)", patch.Describe())

	search := &ToolCall{Name: ToolSearch, Search: &SearchParams{Query: "foo"}}
	assert.Equal(t, `search "foo"`, search.Describe())

	read := &ToolCall{Name: ToolRead}
	assert.Equal(t, ToolRead, read.Describe())
}

func TestToolNamesCoversBuiltins(t *testing.T) {
	names := ToolNames()
	assert.Contains(t, names, ToolRead)
	assert.Contains(t, names, ToolOverwrite)
	assert.Contains(t, names, ToolPatch)
	assert.Contains(t, names, ToolSearch)
}
