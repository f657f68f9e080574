package parser

import (
	"fmt"
	"strings"

	"github.com/quillworks/autoedit/pkg/types"
)

// The patch grammar uses conflict-style markers:
//
//	<<<<<<< SEARCH
//	(literal search text)
//	=======
//	(literal replacement text)
//	>>>>>>> REPLACE
//
// Oracles drift on the exact marker width and labels, so classification
// accepts any run of three or more marker characters and records what it
// had to forgive.

const canonicalMarkerWidth = 7

type markerKind int

const (
	markerNone markerKind = iota
	markerSearch
	markerSeparator
	markerReplace
)

// classifyMarker decides whether a line is one of the three patch markers
// and returns the corrections needed to read it as one.
func classifyMarker(line string) (markerKind, []string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return markerNone, nil
	}

	ch := trimmed[0]
	var kind markerKind
	var wantLabel string
	switch ch {
	case '<':
		kind, wantLabel = markerSearch, "SEARCH"
	case '=':
		kind, wantLabel = markerSeparator, ""
	case '>':
		kind, wantLabel = markerReplace, "REPLACE"
	default:
		return markerNone, nil
	}

	run := 0
	for run < len(trimmed) && trimmed[run] == ch {
		run++
	}
	if run < 3 {
		return markerNone, nil
	}

	label := strings.TrimSpace(trimmed[run:])
	if kind == markerSeparator {
		if label != "" {
			return markerNone, nil
		}
	} else {
		// Labels must be a single bare word or absent; anything else is
		// ordinary content that merely starts with marker characters.
		if label != "" && (strings.ContainsAny(label, " \t") || !isWordLike(label)) {
			return markerNone, nil
		}
	}

	var corrections []string
	if run != canonicalMarkerWidth {
		corrections = append(corrections, fmt.Sprintf("relaxed marker repetition (%d %q characters)", run, ch))
	}
	if line != trimmed {
		corrections = append(corrections, "trimmed whitespace around patch marker")
	}
	if kind != markerSeparator {
		switch {
		case label == "":
			corrections = append(corrections, fmt.Sprintf("missing %s label on patch marker", wantLabel))
		case !strings.EqualFold(label, wantLabel):
			corrections = append(corrections, fmt.Sprintf("unexpected marker label %q, expected %s", label, wantLabel))
		case label != wantLabel:
			corrections = append(corrections, fmt.Sprintf("normalized %s label case", wantLabel))
		}
	}
	return kind, corrections
}

func isWordLike(s string) bool {
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r == '_') {
			return false
		}
	}
	return true
}

// parseHunks walks the patch body line by line, building ordered
// search/replace pairs. Text between hunks (oracle narration) is ignored.
func parseHunks(body string) ([]types.PatchHunk, []string, *Failure) {
	const (
		stateOutside = iota
		stateSearch
		stateReplace
	)

	var (
		hunks       []types.PatchHunk
		search      []string
		replace     []string
		corrections []string
		state       = stateOutside
	)

	addCorrections := func(cs []string) {
		for _, c := range cs {
			duplicate := false
			for _, have := range corrections {
				if have == c {
					duplicate = true
					break
				}
			}
			if !duplicate {
				corrections = append(corrections, c)
			}
		}
	}

	finishHunk := func() *Failure {
		searchText := strings.Join(search, "\n")
		if strings.TrimSpace(searchText) == "" {
			return &Failure{
				Reason:      "patch hunk has empty search text",
				Suggestions: []string{"the SEARCH section must contain the exact text to replace"},
			}
		}
		hunks = append(hunks, types.PatchHunk{
			Search:  searchText,
			Replace: strings.Join(replace, "\n"),
		})
		search, replace = nil, nil
		return nil
	}

	for _, line := range strings.Split(body, "\n") {
		kind, cs := classifyMarker(line)

		switch state {
		case stateOutside:
			switch kind {
			case markerSearch:
				addCorrections(cs)
				state = stateSearch
			case markerSeparator, markerReplace:
				return nil, corrections, &Failure{
					Reason:      "patch marker appears before a SEARCH marker",
					Suggestions: []string{"each hunk starts with <<<<<<< SEARCH"},
				}
			}

		case stateSearch:
			switch kind {
			case markerSeparator:
				addCorrections(cs)
				state = stateReplace
			case markerSearch, markerReplace:
				return nil, corrections, &Failure{
					Reason: "patch hunk is missing its ======= separator",
				}
			default:
				search = append(search, line)
			}

		case stateReplace:
			switch kind {
			case markerReplace:
				addCorrections(cs)
				if failure := finishHunk(); failure != nil {
					return nil, corrections, failure
				}
				state = stateOutside
			case markerSearch, markerSeparator:
				return nil, corrections, &Failure{
					Reason: "patch hunk is missing its closing REPLACE marker",
				}
			default:
				replace = append(replace, line)
			}
		}
	}

	switch state {
	case stateSearch:
		return nil, corrections, &Failure{
			Reason: "patch block ended inside a SEARCH section",
		}
	case stateReplace:
		// Tolerate a dropped closing marker at end of response.
		addCorrections([]string{"missing closing REPLACE marker at end of patch block"})
		if failure := finishHunk(); failure != nil {
			return nil, corrections, failure
		}
	}

	if len(hunks) == 0 {
		return nil, corrections, &Failure{
			Reason:      "patch block contains no search/replace hunks",
			Suggestions: []string{"wrap each change in <<<<<<< SEARCH / ======= / >>>>>>> REPLACE markers"},
		}
	}
	return hunks, corrections, nil
}
