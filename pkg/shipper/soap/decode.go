package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tournevent/kargo/pkg/shipper"
)

// node is a parsed XML element. Attributes other than xsi:nil are dropped.
type node struct {
	name     string
	text     strings.Builder
	children []*node
	nilled   bool
}

func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var stack []*node
	var root *node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Local == "nil" && a.Value == "true" {
					n.nilled = true
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("empty XML document")
	}
	return root, nil
}

// value converts an element into a scalar string, or a map of its children
// where repeated child names collect into a []any.
func (n *node) value() any {
	if n.nilled {
		return nil
	}
	if len(n.children) == 0 {
		return strings.TrimSpace(n.text.String())
	}
	out := make(map[string]any, len(n.children))
	for _, c := range n.children {
		v := c.value()
		existing, seen := out[c.name]
		if !seen {
			out[c.name] = v
			continue
		}
		if list, ok := existing.([]any); ok {
			out[c.name] = append(list, v)
		} else {
			out[c.name] = []any{existing, v}
		}
	}
	return out
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// ParseDocument converts an XML document into a Result keyed by its root
// element name.
func ParseDocument(data []byte) (shipper.Result, error) {
	root, err := parseTree(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return shipper.Result{root.name: root.value()}, nil
}

// AsList returns v as a list: a []any as-is, a single value wrapped, nil as
// an empty list. XML cannot tell a one-element list from a single value.
func AsList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}
