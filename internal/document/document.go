// Package document holds a parsed HTML document as an arena of nodes.
//
// Nodes are addressed by NodeID and linked through explicit parent and children
// tables, so discovery and rewriting are plain indexed edits. The tree is parsed
// with golang.org/x/net/html and rendered back with html.Render.
package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeID addresses a node inside a Document.
type NodeID int

// NoNode is the parent of the root and of detached nodes.
const NoNode NodeID = -1

type node struct {
	typ       html.NodeType
	data      string
	namespace string
	attrs     []html.Attribute
	parent    NodeID
	children  []NodeID
}

// Document is a mutable HTML document owned by a single conversion.
// It is not safe for concurrent use.
type Document struct {
	nodes []node
	root  NodeID
	body  NodeID
}

// Parse reads an HTML document or fragment. Fragments are placed inside a body element.
func Parse(r io.Reader) (*Document, error) {
	tree, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	d := &Document{root: NoNode, body: NoNode}
	d.root = d.load(tree, NoNode)
	for _, id := range d.Elements() {
		if d.nodes[id].data == "body" && d.nodes[id].namespace == "" {
			d.body = id
			break
		}
	}
	if d.body == NoNode {
		return nil, fmt.Errorf("parse html: document has no body")
	}
	return d, nil
}

// ParseString is Parse for an in-memory string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (d *Document) load(n *html.Node, parent NodeID) NodeID {
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, node{
		typ:       n.Type,
		data:      n.Data,
		namespace: n.Namespace,
		attrs:     append([]html.Attribute(nil), n.Attr...),
		parent:    parent,
	})
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child := d.load(c, id)
		d.nodes[id].children = append(d.nodes[id].children, child)
	}
	return id
}

// Body returns the body element.
func (d *Document) Body() NodeID { return d.body }

// Len returns the number of nodes ever allocated, attached or not.
func (d *Document) Len() int { return len(d.nodes) }

func (d *Document) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(d.nodes)
}

// IsElement reports whether id is an HTML element node.
func (d *Document) IsElement(id NodeID) bool {
	return d.valid(id) && d.nodes[id].typ == html.ElementNode
}

// Tag returns the element name of id, or "" for non-element nodes.
func (d *Document) Tag(id NodeID) string {
	if !d.IsElement(id) {
		return ""
	}
	return d.nodes[id].data
}

// Parent returns the parent of id, or NoNode when id is the root or detached.
func (d *Document) Parent(id NodeID) NodeID {
	if !d.valid(id) {
		return NoNode
	}
	return d.nodes[id].parent
}

// Children returns a copy of the children of id in document order.
func (d *Document) Children(id NodeID) []NodeID {
	if !d.valid(id) {
		return nil
	}
	return append([]NodeID(nil), d.nodes[id].children...)
}

// Attached reports whether id is reachable from the document root.
func (d *Document) Attached(id NodeID) bool {
	for cur := id; d.valid(cur); cur = d.nodes[cur].parent {
		if cur == d.root {
			return true
		}
	}
	return false
}

// Attr returns the value of attribute key on id.
func (d *Document) Attr(id NodeID, key string) (string, bool) {
	if !d.valid(id) {
		return "", false
	}
	for _, a := range d.nodes[id].attrs {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key on id, appending it when absent.
func (d *Document) SetAttr(id NodeID, key, val string) {
	if !d.valid(id) {
		return
	}
	attrs := d.nodes[id].attrs
	for i := range attrs {
		if attrs[i].Namespace == "" && attrs[i].Key == key {
			attrs[i].Val = val
			return
		}
	}
	d.nodes[id].attrs = append(attrs, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether the class attribute of id contains class.
func (d *Document) HasClass(id NodeID, class string) bool {
	v, ok := d.Attr(id, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Elements returns every attached element in document order.
func (d *Document) Elements() []NodeID {
	var out []NodeID
	d.walk(d.root, func(id NodeID) {
		if d.nodes[id].typ == html.ElementNode {
			out = append(out, id)
		}
	})
	return out
}

// ElementsByTag returns attached HTML elements named tag in document order.
func (d *Document) ElementsByTag(tag string) []NodeID {
	var out []NodeID
	for _, id := range d.Elements() {
		if d.nodes[id].data == tag && d.nodes[id].namespace == "" {
			out = append(out, id)
		}
	}
	return out
}

func (d *Document) walk(id NodeID, fn func(NodeID)) {
	if !d.valid(id) {
		return
	}
	fn(id)
	for _, c := range d.nodes[id].children {
		d.walk(c, fn)
	}
}

// NewElement allocates a detached element.
func (d *Document) NewElement(tag string, attrs ...html.Attribute) NodeID {
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, node{
		typ:    html.ElementNode,
		data:   tag,
		attrs:  append([]html.Attribute(nil), attrs...),
		parent: NoNode,
	})
	return id
}

// AppendChild attaches a detached child as the last child of parent.
func (d *Document) AppendChild(parent, child NodeID) error {
	if !d.valid(parent) || !d.valid(child) {
		return fmt.Errorf("append child: invalid node")
	}
	if d.nodes[child].parent != NoNode || child == d.root {
		return fmt.Errorf("append child: node %d is already attached", child)
	}
	d.nodes[child].parent = parent
	d.nodes[parent].children = append(d.nodes[parent].children, child)
	return nil
}

// Replace puts the detached node repl at the position of old and detaches old.
func (d *Document) Replace(old, repl NodeID) error {
	if !d.valid(old) || !d.valid(repl) {
		return fmt.Errorf("replace: invalid node")
	}
	if d.nodes[repl].parent != NoNode || repl == d.root {
		return fmt.Errorf("replace: node %d is already attached", repl)
	}
	parent := d.nodes[old].parent
	if parent == NoNode {
		return fmt.Errorf("replace: node %d is detached", old)
	}
	siblings := d.nodes[parent].children
	for i, c := range siblings {
		if c == old {
			siblings[i] = repl
			d.nodes[repl].parent = parent
			d.nodes[old].parent = NoNode
			return nil
		}
	}
	return fmt.Errorf("replace: node %d missing from parent %d", old, parent)
}

// Remove detaches id and its subtree from the document.
func (d *Document) Remove(id NodeID) {
	if !d.valid(id) {
		return
	}
	parent := d.nodes[id].parent
	if parent == NoNode {
		return
	}
	siblings := d.nodes[parent].children
	for i, c := range siblings {
		if c == id {
			d.nodes[parent].children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	d.nodes[id].parent = NoNode
}

// InnerHTML renders the children of id.
func (d *Document) InnerHTML(id NodeID) (string, error) {
	if !d.valid(id) {
		return "", fmt.Errorf("inner html: invalid node")
	}
	var buf bytes.Buffer
	for _, c := range d.nodes[id].children {
		if err := html.Render(&buf, d.build(c)); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

// BodyHTML renders the inner HTML of the body element.
func (d *Document) BodyHTML() (string, error) {
	return d.InnerHTML(d.body)
}

func (d *Document) build(id NodeID) *html.Node {
	n := d.nodes[id]
	out := &html.Node{
		Type:      n.typ,
		Data:      n.data,
		Namespace: n.namespace,
		Attr:      append([]html.Attribute(nil), n.attrs...),
	}
	if n.typ == html.ElementNode {
		out.DataAtom = atom.Lookup([]byte(n.data))
	}
	for _, c := range n.children {
		out.AppendChild(d.build(c))
	}
	return out
}
