// Package action implements the Action Parser (spec.md §4.5): a two-phase
// parse of raw LLM text into domain.Action values — a regexp-based tag
// extractor, followed by a YAML-grammar body decoder per tag. The
// indent/quote/block-scalar rules in spec.md §6 are YAML's own except for
// the "\$" escape, which YAML lacks; unescapeDollar rewrites it before
// gopkg.in/yaml.v3 decodes the body, so no hand-rolled grammar is needed.
package action

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/manishiitg/agentctl/internal/domain"
)

var knownTags = map[string]domain.Tag{
	"task_create":      domain.TagTaskCreate,
	"launch_subagent":  domain.TagLaunchSubagent,
	"add_context":      domain.TagAddContext,
	"finish":           domain.TagFinish,
	"reasoning":        domain.TagReasoning,
	"file":             domain.TagFile,
	"search":           domain.TagSearch,
	"bash":             domain.TagBash,
	"todo":             domain.TagTodo,
	"scratchpad":       domain.TagScratchpad,
	"report":           domain.TagReport,
	"write_temp_script": domain.TagWriteTempScript,
}

// elementPattern extracts a top-level <tag>...</tag> block. Tags never
// nest in this action language, so a non-greedy body is sufficient; the
// backreference on the closing tag name is checked manually because RE2
// (Go's regexp engine) does not support backreferences.
var elementPattern = regexp.MustCompile(`(?s)<([a-zA-Z_][a-zA-Z0-9_]*)\s*>(.*?)</([a-zA-Z_][a-zA-Z0-9_]*)>`)

// ParseError is a non-fatal parse failure surfaced back into the emitting
// agent's next prompt (spec.md §4.5 point 4, §7).
type ParseError struct {
	Tag     string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in <%s>: %s", e.Tag, e.Message)
}

// ParsedItem is either a successfully validated Action or a ParseError,
// preserved in document order so the dispatcher and the prompt renderer
// see exactly what the model produced.
type ParsedItem struct {
	Action Action
	Err    *ParseError
}

// Action re-exports domain.Action so callers only need this package.
type Action = domain.Action

// Parse extracts every top-level XML element from text and validates each
// one against its tag's schema, in document order.
func Parse(text string) []ParsedItem {
	matches := elementPattern.FindAllStringSubmatch(text, -1)
	items := make([]ParsedItem, 0, len(matches))

	for _, m := range matches {
		openTag, body, closeTag := m[1], m[2], m[3]
		if openTag != closeTag {
			items = append(items, ParsedItem{Err: &ParseError{Tag: openTag, Message: "mismatched closing tag"}})
			continue
		}

		tag, known := knownTags[openTag]
		if !known {
			items = append(items, ParsedItem{Err: &ParseError{Tag: openTag, Message: "unknown action tag"}})
			continue
		}

		payload, err := decodeBody(body)
		if err != nil {
			items = append(items, ParsedItem{Err: &ParseError{Tag: openTag, Message: fmt.Sprintf("malformed payload: %v", err)}})
			continue
		}

		act, err := validate(tag, payload)
		if err != nil {
			items = append(items, ParsedItem{Err: &ParseError{Tag: openTag, Message: err.Error()}})
			continue
		}
		items = append(items, ParsedItem{Action: act})
	}

	return items
}

// decodeBody decodes the element body as a YAML mapping: the spec's
// single/double-quoted strings, "|" block scalars and "- " list items are
// exactly YAML scalar and sequence syntax.
func decodeBody(body string) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return map[string]interface{}{}, nil
	}
	var out map[string]interface{}
	if err := yaml.Unmarshal([]byte(unescapeDollar(body)), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

// dollarEscapeRun matches a run of backslashes immediately followed by a
// dollar sign, so unescapeDollar can tell an escaped "\$" apart from a
// literal backslash that merely precedes an unescaped "$".
var dollarEscapeRun = regexp.MustCompile(`\\+\$`)

// unescapeDollar rewrites the spec-mandated "\$" escape (spec.md §6:
// double-quoted strings process "\$" alongside \n/\t/\\) into a literal
// "$" before the body reaches yaml.Unmarshal, since YAML's own escape
// table has no entry for "\$" and rejects it outright.
func unescapeDollar(body string) string {
	return dollarEscapeRun.ReplaceAllStringFunc(body, func(run string) string {
		backslashes := len(run) - 1
		if backslashes%2 == 0 {
			// The backslashes pair off on their own; "$" is unescaped.
			return run
		}
		return strings.Repeat(`\`, backslashes-1) + "$"
	})
}
