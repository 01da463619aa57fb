// Package xmltree builds a small navigable element tree from XML text.
//
// The tree keeps element order, attributes and concatenated character data.
// Whitespace-only text between elements is dropped, so a container's Text is
// empty. A leaf keeps its text as written, whitespace included.
package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrMissing is returned by accessors when a required child is absent.
var ErrMissing = errors.New("xmltree: missing element")

// ErrEmpty is returned by Parse when the input holds no root element.
var ErrEmpty = errors.New("xmltree: no root element")

// Node is one XML element.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Parse reads a whole document and returns its root element.
// Declared non-UTF-8 encodings are decoded via x/net/html/charset.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
		text  []*strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: parse: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			if len(t.Attr) > 0 {
				n.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					n.Attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("xmltree: parse: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			text = append(text, &strings.Builder{})

		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}

		case xml.EndElement:
			n := stack[len(stack)-1]
			s := text[len(text)-1].String()
			if len(n.Children) == 0 || strings.TrimSpace(s) != "" {
				n.Text = s
			}
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		}
	}
	if root == nil {
		return nil, ErrEmpty
	}
	return root, nil
}

// Child returns the first child element with the given name.
func (n *Node) Child(name string) (*Node, error) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrMissing, n.Name, name)
}

// ChildrenNamed returns every child element with the given name, in order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Path follows first-match children from n. The error names the full path
// up to the first missing element.
func (n *Node) Path(names ...string) (*Node, error) {
	cur := n
	for i, name := range names {
		next, err := cur.Child(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s", ErrMissing, n.Name, strings.Join(names[:i+1], "/"))
		}
		cur = next
	}
	return cur, nil
}

// ChildText returns the text of the first child with the given name.
func (n *Node) ChildText(name string) (string, error) {
	c, err := n.Child(name)
	if err != nil {
		return "", err
	}
	return c.Text, nil
}
