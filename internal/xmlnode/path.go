package xmlnode

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Path: a child tag and an optional 1-based
// position among the children carrying that tag. Index 0 means no
// position was given.
type Segment struct {
	Tag   string
	Index int
}

func (s Segment) String() string {
	if s.Index == 0 {
		return s.Tag
	}
	return s.Tag + "[" + strconv.Itoa(s.Index) + "]"
}

// Path is a parsed slash separated expression such as "citeinfo/origin[2]".
type Path []Segment

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, "/")
}

// ParsePath parses expr. The empty expression is the empty path, which
// resolves to the node it is applied to.
func ParsePath(expr string) (Path, error) {
	if expr == "" {
		return Path{}, nil
	}
	frags := strings.Split(expr, "/")
	path := make(Path, 0, len(frags))
	for _, frag := range frags {
		seg, err := parseSegment(frag)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", expr, err)
		}
		path = append(path, seg)
	}
	return path, nil
}

func parseSegment(frag string) (Segment, error) {
	if frag == "" {
		return Segment{}, fmt.Errorf("empty segment")
	}
	open := strings.IndexByte(frag, '[')
	if open == -1 {
		if strings.ContainsRune(frag, ']') {
			return Segment{}, fmt.Errorf("unexpected ']' in %q", frag)
		}
		return Segment{Tag: frag}, nil
	}
	if open == 0 {
		return Segment{}, fmt.Errorf("expected tag before '[' in %q", frag)
	}
	if frag[len(frag)-1] != ']' {
		return Segment{}, fmt.Errorf("expected '[' <index> ']' in %q", frag)
	}
	u64, err := strconv.ParseUint(frag[open+1:len(frag)-1], 10, 32)
	if err != nil {
		return Segment{}, fmt.Errorf("index in %q: %w", frag, err)
	}
	if u64 == 0 {
		return Segment{}, fmt.Errorf("index in %q is 1-based", frag)
	}
	return Segment{Tag: frag[:open], Index: int(u64)}, nil
}

// Search resolves expr against n. An unindexed segment matching a repeated
// tag fans out over every match and the results are concatenated; an
// indexed segment picks one. A path that does not resolve, or does not
// parse, yields an empty result.
func (n *Node) Search(expr string) []*Node {
	path, err := ParsePath(expr)
	if err != nil {
		return nil
	}
	return n.Resolve(path)
}

// Resolve is Search for an already parsed path.
func (n *Node) Resolve(path Path) []*Node {
	return n.resolve(nil, path)
}

// SearchOne returns the first node Search finds, or nil.
func (n *Node) SearchOne(expr string) *Node {
	found := n.Search(expr)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// SearchText returns the text of every node Search finds.
func (n *Node) SearchText(expr string) []string {
	found := n.Search(expr)
	out := make([]string, len(found))
	for i, x := range found {
		out[i] = x.Text
	}
	return out
}

func (n *Node) resolve(dst []*Node, path Path) []*Node {
	if len(path) == 0 {
		return append(dst, n)
	}
	seg, rest := path[0], path[1:]
	matches := n.byTag[seg.Tag]
	if seg.Index > 0 {
		if seg.Index > len(matches) {
			return dst
		}
		return matches[seg.Index-1].resolve(dst, rest)
	}
	for _, m := range matches {
		dst = m.resolve(dst, rest)
	}
	return dst
}
