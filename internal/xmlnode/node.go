// Package xmlnode is a schema-agnostic, in-memory model of an XML element
// tree. Each Node keeps its children in document order together with a
// tag index, so a repeated element (FGDC "0..n") and a single element
// ("0..1") can be reached through the same accessor.
package xmlnode

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Node is one XML element: a tag, its character data and its ordered
// child elements. A Node owns its children; nothing points back up.
type Node struct {
	tag      string
	Text     string
	children []*Node
	byTag    map[string][]*Node
}

// ChildRef is the result of looking a tag up on a Node. It holds exactly
// one node when the tag occurs once and the ordered list otherwise.
type ChildRef struct {
	nodes []*Node
}

// Single returns the node when the tag occurs exactly once.
func (r ChildRef) Single() (*Node, bool) {
	if len(r.nodes) == 1 {
		return r.nodes[0], true
	}
	return nil, false
}

// Many returns every node for the tag in document order.
func (r ChildRef) Many() []*Node {
	return slices.Clone(r.nodes)
}

// IsList reports whether the tag is repeated.
func (r ChildRef) IsList() bool {
	return len(r.nodes) > 1
}

// Len returns the number of children sharing the tag.
func (r ChildRef) Len() int {
	return len(r.nodes)
}

// First returns the first node for the tag, or nil.
func (r ChildRef) First() *Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// New creates a detached node.
func New(tag string) *Node {
	return &Node{tag: tag, byTag: make(map[string][]*Node)}
}

// NewText creates a detached node holding text.
func NewText(tag, text string) *Node {
	n := New(tag)
	n.Text = text
	return n
}

// Tag returns the element name.
func (n *Node) Tag() string {
	return n.tag
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	return len(n.children)
}

// IsLeaf reports whether the node has no child elements.
func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

// Tags returns the distinct child tags in first-occurrence order.
func (n *Node) Tags() []string {
	var tags []string
	for _, c := range n.children {
		if !slices.Contains(tags, c.tag) {
			tags = append(tags, c.tag)
		}
	}
	return tags
}

// Child looks up the children carrying tag.
func (n *Node) Child(tag string) (ChildRef, bool) {
	nodes, ok := n.byTag[tag]
	if !ok {
		return ChildRef{}, false
	}
	return ChildRef{nodes: nodes}, true
}

// Add creates a node and appends it to n.
func (n *Node) Add(tag, text string) *Node {
	return n.Insert(tag, text, -1)
}

// Insert creates a node and places it among n's children at index.
func (n *Node) Insert(tag, text string, index int) *Node {
	return n.AddChild(NewText(tag, text), index, false)
}

// AddChild inserts child at index and returns the inserted node. Negative
// indices count from the end: -1 appends, -2 places the child before the
// current last child. Out of range indices are clamped. With clone set the
// child is cloned first so the two trees share nothing.
func (n *Node) AddChild(child *Node, index int, clone bool) *Node {
	if clone {
		child = child.Clone()
	}
	pos := insertPos(len(n.children), index)
	n.children = slices.Insert(n.children, pos, child)
	n.reindex(child.tag)
	return child
}

// ReplaceChild swaps the first child whose tag matches (tag, or
// newChild's own tag when empty) for newChild. When nothing matches the
// child is appended and false is returned.
func (n *Node) ReplaceChild(newChild *Node, tag string, clone bool) bool {
	if tag == "" {
		tag = newChild.tag
	}
	if clone {
		newChild = newChild.Clone()
	}
	for i, c := range n.children {
		if c.tag != tag {
			continue
		}
		n.children[i] = newChild
		n.reindex(tag)
		n.reindex(newChild.tag)
		return true
	}
	n.AddChild(newChild, -1, false)
	return false
}

// RemoveChild unlinks child (by identity).
func (n *Node) RemoveChild(child *Node) bool {
	i := slices.Index(n.children, child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	n.reindex(child.tag)
	return true
}

// ClearChildren removes the children carrying tag, or every child when
// tag is empty.
func (n *Node) ClearChildren(tag string) {
	if tag == "" {
		n.children = nil
		n.byTag = make(map[string][]*Node)
		return
	}
	n.children = slices.DeleteFunc(n.children, func(c *Node) bool {
		return c.tag == tag
	})
	delete(n.byTag, tag)
}

// Clone returns a deep copy of the subtree.
func (n *Node) Clone() *Node {
	out := NewText(n.tag, n.Text)
	out.children = make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		cc := c.Clone()
		out.children = append(out.children, cc)
		out.byTag[cc.tag] = append(out.byTag[cc.tag], cc)
	}
	return out
}

// Equal compares the serialized forms of two subtrees.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.String() == other.String()
}

// Walk visits the subtree depth-first, pre-order. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Dict is the nested map form of a subtree. Values are strings for
// leaves, Dict for elements with children, and []any for repeated tags.
type Dict map[string]any

// ToDict flattens the subtree into a Dict keyed by prefix+tag. A leaf
// node yields a single entry for itself.
func (n *Node) ToDict(prefix string) Dict {
	if len(n.children) == 0 {
		return Dict{prefix + n.tag: n.Text}
	}
	d := make(Dict, len(n.byTag))
	for _, c := range n.children {
		var v any = c.Text
		if len(c.children) > 0 {
			v = c.ToDict(prefix)
		}
		key := prefix + c.tag
		if len(n.byTag[c.tag]) > 1 {
			list, _ := d[key].([]any)
			d[key] = append(list, v)
			continue
		}
		d[key] = v
	}
	return d
}

// FindString returns the nodes whose text contains term, n first and then
// (when deep) its descendants in document order.
func (n *Node) FindString(term string, ignoreCase, deep bool) []*Node {
	match := strings.Contains
	if ignoreCase {
		fold := cases.Fold()
		t := fold.String(term)
		match = func(s, _ string) bool {
			return strings.Contains(fold.String(s), t)
		}
	}

	var found []*Node
	visit := func(x *Node) bool {
		if x.Text != "" && match(x.Text, term) {
			found = append(found, x)
		}
		return deep
	}
	n.Walk(visit)
	return found
}

// ReplaceString replaces old with repl in the text of n and, when deep, of
// every descendant. limit caps the total number of replacements across the
// subtree; limit <= 0 means no cap. It returns the number of replacements.
func (n *Node) ReplaceString(old, repl string, limit int, deep bool) int {
	if old == "" {
		return 0
	}
	replaced := 0
	n.Walk(func(x *Node) bool {
		budget := -1
		if limit > 0 {
			budget = limit - replaced
			if budget <= 0 {
				return false
			}
		}
		count := strings.Count(x.Text, old)
		if budget >= 0 && count > budget {
			count = budget
		}
		if count > 0 {
			x.Text = strings.Replace(x.Text, old, repl, count)
			replaced += count
		}
		return deep
	})
	return replaced
}

func (n *Node) reindex(tag string) {
	var matches []*Node
	for _, c := range n.children {
		if c.tag == tag {
			matches = append(matches, c)
		}
	}
	if n.byTag == nil {
		n.byTag = make(map[string][]*Node)
	}
	if len(matches) == 0 {
		delete(n.byTag, tag)
		return
	}
	n.byTag[tag] = matches
}

func insertPos(length, index int) int {
	if index < 0 {
		index = length + 1 + index
	}
	return max(0, min(index, length))
}
