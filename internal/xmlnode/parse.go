package xmlnode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// ErrMalformedXML is returned when the input cannot be turned into a tree.
var ErrMalformedXML = errors.New("malformed xml")

// ParseOptions controls how input is read.
type ParseOptions struct {
	// Strict rejects input the decoder would otherwise repair (missing end
	// tags, bad entities, truncated documents).
	Strict bool
}

// Parse reads source, which is either raw XML (anything starting with '<'
// once leading whitespace is dropped) or the path of a file holding it.
// Parsing is best-effort: recoverable errors are repaired and a truncated
// document yields the elements read so far.
func Parse(source string) (*Node, error) {
	return ParseWith(source, ParseOptions{})
}

// ParseWith is Parse with explicit options.
func ParseWith(source string, opts ParseOptions) (*Node, error) {
	if strings.HasPrefix(strings.TrimSpace(source), "<") {
		return ParseReader(strings.NewReader(source), opts)
	}
	return ParseFile(source, opts)
}

// ParseFile reads the XML document at path.
func ParseFile(path string, opts ParseOptions) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	n, err := ParseReader(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// ParseBytes reads an XML document held in memory.
func ParseBytes(data []byte, opts ParseOptions) (*Node, error) {
	return ParseReader(bytes.NewReader(data), opts)
}

// ParseReader reads an XML document from r.
func ParseReader(r io.Reader, opts ParseOptions) (*Node, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = !opts.Strict
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel

	_, err := doc.ReadFrom(r)
	root := doc.Root()
	if err != nil && (opts.Strict || root == nil) {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedXML)
	}
	return FromElement(root), nil
}

// FromElement converts an etree element into a Node. The namespace prefix
// is dropped from every tag, comments and processing instructions are
// ignored, and the text of an element with child elements is trimmed.
func FromElement(el *etree.Element) *Node {
	n := New(el.Tag)
	var text strings.Builder
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			c := FromElement(t)
			n.children = append(n.children, c)
			n.byTag[c.tag] = append(n.byTag[c.tag], c)
		case *etree.CharData:
			text.WriteString(t.Data)
		}
	}
	if len(n.children) > 0 {
		n.Text = strings.TrimSpace(text.String())
	} else {
		n.Text = text.String()
	}
	return n
}
