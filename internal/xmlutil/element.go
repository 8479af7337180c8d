// Package xmlutil is the minimal DOM adapter the engine builds SOAP
// envelopes, GENA property-sets, and device/service descriptions with:
// element creation, child append, attribute set, named-child lookup, and
// serialization. It generalizes the any-element capture idiom of decoding
// into a generic tree (xml:",any"-style) into a small reusable type instead
// of one-off structs per call site.
package xmlutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Attr is a single ordered XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a generic, mutable XML element: a name, ordered attributes,
// ordered children, and (for leaf elements) text content.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// NewElement returns an empty element with the given tag name.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// SetAttr sets attribute name to value, appending it if not already
// present, updating in place (preserving position) otherwise.
func (e *Element) SetAttr(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Attr returns the value of attribute name and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AddChild appends child to e's children and returns child, so construction
// can be chained: parent.AddChild(xmlutil.NewElement("foo")).SetText("bar").
func (e *Element) AddChild(child *Element) *Element {
	e.Children = append(e.Children, child)
	return child
}

// AddTextChild is a shorthand for creating a leaf element with text content
// and appending it.
func (e *Element) AddTextChild(name, text string) *Element {
	child := NewElement(name)
	child.Text = text
	e.Children = append(e.Children, child)
	return child
}

// SetText sets e's text content and returns e, for chaining.
func (e *Element) SetText(text string) *Element {
	e.Text = text
	return e
}

// FindChild returns the first direct child named name.
func (e *Element) FindChild(name string) (*Element, bool) {
	for _, c := range e.Children {
		if c.Name == name || localName(c.Name) == name {
			return c, true
		}
	}
	return nil, false
}

// FindAllChildren returns every direct child named name, in document order.
func (e *Element) FindAllChildren(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name || localName(c.Name) == name {
			out = append(out, c)
		}
	}
	return out
}

// FindDescendant performs a depth-first search for the first descendant
// (at any depth) named name.
func (e *Element) FindDescendant(name string) (*Element, bool) {
	for _, c := range e.Children {
		if c.Name == name || localName(c.Name) == name {
			return c, true
		}
		if found, ok := c.FindDescendant(name); ok {
			return found, true
		}
	}
	return nil, false
}

func localName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ':' {
			return name[i+1:]
		}
	}
	return name
}

// Serialize writes e (and its subtree) as XML to w, without an XML
// declaration; callers that need one prepend it themselves (e.g. SCPD
// documents).
func (e *Element) Serialize(w io.Writer) error {
	enc := xml.NewEncoder(w)
	return e.encode(enc)
}

// String renders e via Serialize and returns the result, ignoring encode
// errors (an Element tree built from Go code cannot fail to encode its own
// well-formed names/text).
func (e *Element) String() string {
	var buf bytes.Buffer
	_ = e.Serialize(&buf)
	return buf.String()
}

func (e *Element) encode(enc *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}}
	for _, a := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData([]byte(e.Text))); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		if err := c.encode(enc); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(xml.EndElement{Name: start.Name}); err != nil {
		return err
	}
	return enc.Flush()
}

// Parse decodes arbitrary well-formed XML into a generic Element tree,
// rooted at the document's single top-level element.
func Parse(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *Element
	var stack []*Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmlutil: parse: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := NewElement(qualifiedName(t.Name))
			for _, a := range t.Attr {
				el.SetAttr(qualifiedName(a.Name), a.Value)
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				text := string(t)
				stack[len(stack)-1].Text += text
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("xmlutil: parse: empty document")
	}
	return root, nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Local
}
