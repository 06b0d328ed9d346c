// Package frontmatter parses and rewrites YAML frontmatter on note pages.
//
// Rewriting is stable: newline style and trailing-newline shape are captured
// on parse and reproduced on render, and YAML keys serialize sorted so that
// repeated runs over identical input emit identical bytes.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline shape and does not attempt to preserve
// original YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Doc is a parsed note page: frontmatter fields plus untouched body bytes.
type Doc struct {
	Fields map[string]any
	Body   []byte
	Had    bool // document carried a frontmatter block
	Style  Style
}

// Parse splits a markdown document into frontmatter fields and body.
//
// If the input does not start with a `---` delimiter, Had is false and Body
// is the full input. If the opening delimiter has no closing counterpart,
// ErrMissingClosingDelimiter is returned.
func Parse(content []byte) (*Doc, error) {
	raw, body, had, style, err := split(content)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}

	return &Doc{Fields: fields, Body: body, Had: had, Style: style}, nil
}

// Render reassembles the document. Body bytes are emitted exactly as parsed;
// only the frontmatter block is re-serialized.
func (d *Doc) Render() ([]byte, error) {
	if !d.Had {
		return d.Body, nil
	}

	raw, err := SerializeYAML(d.Fields, d.Style)
	if err != nil {
		return nil, err
	}

	nl := d.Style.Newline
	if nl == "" {
		nl = "\n"
	}

	delim := []byte("---" + nl)
	out := make([]byte, 0, 2*len(delim)+len(raw)+len(d.Body))
	out = append(out, delim...)
	out = append(out, raw...)
	out = append(out, delim...)
	out = append(out, d.Body...)
	return out, nil
}

func split(content []byte) (raw, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) { // empty frontmatter block
		return []byte{}, content[start+len(open):], true, style, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}

	rawEnd := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	return content[start:rawEnd], content[bodyStart:], true, style, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
