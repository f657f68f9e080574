// Package parser turns raw oracle output into structured, validated tool
// calls. It tolerates formatting drift (relaxed delimiter repetition, stray
// whitespace, case slips) and reports every applied correction alongside a
// reduced confidence score. All failure modes are returned as values; the
// parser never panics on malformed input.
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/quillworks/autoedit/pkg/types"
)

// Tool tags form the wire vocabulary the oracle is prompted with.
const (
	TagRead      = "READ_DOCUMENT"
	TagSearch    = "SEARCH_DOCUMENT"
	TagOverwrite = "OVERWRITE_DOCUMENT"
	TagPatch     = "PATCH_DOCUMENT"
)

var tagToTool = map[string]string{
	TagRead:      types.ToolRead,
	TagSearch:    types.ToolSearch,
	TagOverwrite: types.ToolOverwrite,
	TagPatch:     types.ToolPatch,
}

// tagRegex matches a bracketed tag with an optional colon-separated argument,
// e.g. [SEARCH_DOCUMENT: validation] or [ PATCH_DOCUMENT ].
var tagRegex = regexp.MustCompile(`\[\s*(/?)\s*([A-Za-z_]+)\s*(?::\s*([^\]\n]*))?\s*\]`)

// ReasonNoToolCall marks a response that contained prose but no tool
// invocation attempt at all. Callers distinguish it from malformed
// invocations, which carry their own reasons.
const ReasonNoToolCall = "no tool invocation found in response"

// Failure describes why oracle output could not be parsed into a tool call.
type Failure struct {
	Reason      string   `json:"reason"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Result is the parser's outcome for one oracle turn. Exactly one of Call
// and Failure is set; Rationale carries the prose outside any tool block.
type Result struct {
	Call      *types.ToolCall `json:"call,omitempty"`
	Rationale string          `json:"rationale,omitempty"`
	Failure   *Failure        `json:"failure,omitempty"`
}

// HasToolCall reports whether a tool invocation was recovered.
func (r Result) HasToolCall() bool {
	return r.Call != nil
}

// Parser recognizes the closed tool-tag vocabulary and the patch hunk
// delimiter grammar.
type Parser struct{}

// New creates a parser.
func New() *Parser {
	return &Parser{}
}

// Parse extracts at most one tool call from raw oracle text.
func (p *Parser) Parse(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{Failure: &Failure{Reason: "empty oracle response"}}
	}

	loc := tagRegex.FindStringSubmatchIndex(raw)
	for loc != nil {
		match := raw[loc[0]:loc[1]]
		sub := tagRegex.FindStringSubmatch(match)
		closing := sub[1] == "/"
		name := strings.ToUpper(strings.TrimSpace(sub[2]))
		arg := strings.TrimSpace(sub[3])

		if _, known := tagToTool[name]; known && !closing {
			var corrections []string
			if sub[2] != name {
				corrections = append(corrections, fmt.Sprintf("normalized tag case for [%s]", name))
			}
			rationale := strings.TrimSpace(raw[:loc[0]])
			return p.parseTagged(name, arg, raw[loc[1]:], rationale, corrections)
		}

		// An unknown tag that looks like an attempted tool invocation is a
		// parse failure, not a silent no-op.
		if !closing && looksLikeToolTag(name) {
			return Result{
				Rationale: strings.TrimSpace(raw[:loc[0]]),
				Failure: &Failure{
					Reason:      fmt.Sprintf("unknown tool tag [%s]", name),
					Suggestions: suggestTags(name),
				},
			}
		}

		// Skip over incidental bracketed text and keep scanning.
		next := tagRegex.FindStringSubmatchIndex(raw[loc[1]:])
		if next == nil {
			loc = nil
			break
		}
		for i := range next {
			next[i] += loc[1]
		}
		loc = next
	}

	return Result{
		Rationale: strings.TrimSpace(raw),
		Failure:   &Failure{Reason: ReasonNoToolCall},
	}
}

// parseTagged builds the tool call for a recognized opening tag.
func (p *Parser) parseTagged(tag, arg, rest, rationale string, corrections []string) Result {
	switch tag {
	case TagRead:
		return Result{
			Rationale: rationale,
			Call:      finishCall(&types.ToolCall{Name: types.ToolRead}, corrections),
		}

	case TagSearch:
		if arg == "" {
			return Result{
				Rationale: rationale,
				Failure: &Failure{
					Reason:      "search tag is missing a query",
					Suggestions: []string{"use [SEARCH_DOCUMENT: <query>]"},
				},
			}
		}
		call := &types.ToolCall{
			Name:   types.ToolSearch,
			Search: &types.SearchParams{Query: arg},
		}
		return Result{Rationale: rationale, Call: finishCall(call, corrections)}

	case TagOverwrite:
		body, bodyCorr, ok := extractBody(rest, TagOverwrite)
		corrections = append(corrections, bodyCorr...)
		if !ok || strings.TrimSpace(body) == "" {
			return Result{
				Rationale: rationale,
				Failure: &Failure{
					Reason:      "overwrite block contains no content",
					Suggestions: []string{"wrap the full replacement text between [OVERWRITE_DOCUMENT] and [/OVERWRITE_DOCUMENT]"},
				},
			}
		}
		call := &types.ToolCall{
			Name:      types.ToolOverwrite,
			Overwrite: &types.OverwriteParams{Content: trimSingleEdgeNewlines(body)},
		}
		return Result{Rationale: rationale, Call: finishCall(call, corrections)}

	case TagPatch:
		body, bodyCorr, _ := extractBody(rest, TagPatch)
		corrections = append(corrections, bodyCorr...)
		hunks, hunkCorr, failure := parseHunks(body)
		corrections = append(corrections, hunkCorr...)
		if failure != nil {
			return Result{Rationale: rationale, Failure: failure}
		}
		call := &types.ToolCall{
			Name:  types.ToolPatch,
			Patch: &types.PatchParams{Hunks: hunks},
		}
		return Result{Rationale: rationale, Call: finishCall(call, corrections)}
	}

	return Result{Failure: &Failure{Reason: fmt.Sprintf("unhandled tag [%s]", tag)}}
}

// extractBody returns the text between the opening tag and its closing tag.
// A missing closing tag is tolerated: the remainder of the response is taken
// as the body and a correction is recorded.
func extractBody(rest, tag string) (string, []string, bool) {
	for _, loc := range tagRegex.FindAllStringSubmatchIndex(rest, -1) {
		sub := tagRegex.FindStringSubmatch(rest[loc[0]:loc[1]])
		if sub[1] == "/" && strings.EqualFold(strings.TrimSpace(sub[2]), tag) {
			return rest[:loc[0]], nil, true
		}
	}
	if strings.TrimSpace(rest) == "" {
		return "", nil, false
	}
	return rest, []string{fmt.Sprintf("missing closing tag [/%s], took remainder of response", tag)}, true
}

// finishCall assigns the confidence score from the accumulated corrections.
// Every recovery lowers confidence; a clean parse scores 1.0.
func finishCall(call *types.ToolCall, corrections []string) *types.ToolCall {
	call.Corrections = corrections
	conf := 1.0 - 0.05*float64(len(corrections))
	if conf < 0.3 {
		conf = 0.3
	}
	call.Confidence = conf
	return call
}

// looksLikeToolTag filters incidental bracketed text (citations, markdown)
// from genuine-looking tool tag attempts.
func looksLikeToolTag(name string) bool {
	if len(name) < 4 {
		return false
	}
	return strings.Contains(name, "_") || strings.Contains(name, "DOC")
}

// suggestTags offers the closest known tags for an unknown one, nearest
// first.
func suggestTags(name string) []string {
	known := []string{TagRead, TagSearch, TagOverwrite, TagPatch}
	sort.SliceStable(known, func(i, j int) bool {
		return levenshtein.ComputeDistance(name, known[i]) < levenshtein.ComputeDistance(name, known[j])
	})
	var best []string
	for _, tag := range known {
		if levenshtein.ComputeDistance(name, tag) <= 4 {
			best = append(best, fmt.Sprintf("did you mean [%s]?", tag))
		}
	}
	if len(best) == 0 {
		best = append(best, fmt.Sprintf("known tags: [%s], [%s], [%s], [%s]", TagRead, TagSearch, TagOverwrite, TagPatch))
	}
	return best
}

// trimSingleEdgeNewlines removes at most one leading and one trailing
// newline so block content round-trips without growing.
func trimSingleEdgeNewlines(s string) string {
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")
	return s
}
