// File: internal/dom/snapshot/codec.go
package snapshot

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonNode struct {
	Tag           string            `json:"tag,omitempty"`
	Attributes    []Attr            `json:"attributes,omitempty"`
	Text          string            `json:"text,omitempty"`
	Rect          geometry.DOMRect  `json:"rect"`
	Styles        map[string]string `json:"styles,omitempty"`
	ContentOffset *geometry.Point   `json:"contentOffset,omitempty"`
	ShadowRoot    []*jsonNode       `json:"shadowRoot,omitempty"`
	Children      []*jsonNode       `json:"children,omitempty"`
}

type jsonDocument struct {
	URL  string    `json:"url"`
	Root *jsonNode `json:"root"`
}

// Encode writes the document as JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDocument{URL: d.URL, Root: toJSON(d.root)})
}

// Decode reads a document written by Encode.
func Decode(r io.Reader) (*Document, error) {
	var doc jsonDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("snapshot has no root element")
	}
	return NewDocument(doc.URL, fromJSON(doc.Root)), nil
}

func toJSON(n *Node) *jsonNode {
	if n == nil {
		return nil
	}
	j := &jsonNode{
		Tag:        n.tag,
		Attributes: n.attrs,
		Text:       n.text,
		Rect:       n.rect,
		Styles:     n.styles,
	}
	if n.contentOffset != (geometry.Point{}) {
		off := n.contentOffset
		j.ContentOffset = &off
	}
	if n.shadow != nil {
		// An empty, non-nil slice keeps an empty shadow root distinguishable from none.
		j.ShadowRoot = make([]*jsonNode, 0, len(n.shadow.children))
		for _, c := range n.shadow.children {
			j.ShadowRoot = append(j.ShadowRoot, toJSON(c))
		}
	}
	for _, c := range n.children {
		j.Children = append(j.Children, toJSON(c))
	}
	return j
}

func fromJSON(j *jsonNode) *Node {
	n := NewElement(j.Tag)
	for _, a := range j.Attributes {
		n.SetAttr(a.Name, a.Value)
	}
	n.text = j.Text
	n.rect = j.Rect
	for k, v := range j.Styles {
		n.styles[k] = v
	}
	if j.ContentOffset != nil {
		n.contentOffset = *j.ContentOffset
	}
	if j.ShadowRoot != nil {
		sr := n.AttachShadow()
		for _, c := range j.ShadowRoot {
			sr.Append(fromJSON(c))
		}
	}
	for _, c := range j.Children {
		n.Append(fromJSON(c))
	}
	return n
}
