package parser

import (
	"fmt"
	"strings"

	"github.com/quillworks/autoedit/pkg/types"
)

// Format reconstructs the canonical wire form of a tool call. The internal
// representation is a tagged union; the wire encoding exists only at this
// boundary and in Parse.
func Format(call *types.ToolCall) string {
	if call == nil {
		return ""
	}
	switch call.Name {
	case types.ToolRead:
		return "[" + TagRead + "]"
	case types.ToolSearch:
		query := ""
		if call.Search != nil {
			query = call.Search.Query
		}
		return fmt.Sprintf("[%s: %s]", TagSearch, query)
	case types.ToolOverwrite:
		content := ""
		if call.Overwrite != nil {
			content = call.Overwrite.Content
		}
		return fmt.Sprintf("[%s]\n%s\n[/%s]", TagOverwrite, content, TagOverwrite)
	case types.ToolPatch:
		var b strings.Builder
		b.WriteString("[" + TagPatch + "]\n")
		if call.Patch != nil {
			for _, hunk := range call.Patch.Hunks {
				b.WriteString(strings.Repeat("<", canonicalMarkerWidth) + " SEARCH\n")
				b.WriteString(hunk.Search + "\n")
				b.WriteString(strings.Repeat("=", canonicalMarkerWidth) + "\n")
				b.WriteString(hunk.Replace + "\n")
				b.WriteString(strings.Repeat(">", canonicalMarkerWidth) + " REPLACE\n")
			}
		}
		b.WriteString("[/" + TagPatch + "]")
		return b.String()
	}
	return ""
}
