package xmlnode

import (
	"io"
	"strings"
)

const indentUnit = "  "

// CR is written as a character reference; a raw one would come back as
// LF after end-of-line normalization.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")

// escapeText escapes text for element content. Characters XML 1.0 cannot
// hold (C0 controls other than tab, LF and CR, lone surrogates, U+FFFE and
// U+FFFF) are dropped.
func escapeText(text string) string {
	return textEscaper.Replace(strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, text))
}

func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

// String renders the subtree as pretty printed XML without a declaration.
// Leaves with text stay on one line, empty leaves self-close, and nested
// elements are indented two spaces per level. Characters XML cannot
// represent are dropped from text.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, 0)
	return b.String()
}

// WriteTo writes the String form of n to w.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	written, err := io.WriteString(w, n.String())
	return int64(written), err
}

func (n *Node) write(b *strings.Builder, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(n.tag)

	if len(n.children) == 0 {
		if n.Text == "" {
			b.WriteString("/>\n")
			return
		}
		b.WriteByte('>')
		b.WriteString(escapeText(n.Text))
		b.WriteString("</" + n.tag + ">\n")
		return
	}

	b.WriteByte('>')
	// Mixed content is reduced to its trimmed text; parsing does the same.
	b.WriteString(escapeText(strings.TrimSpace(n.Text)))
	b.WriteByte('\n')
	for _, c := range n.children {
		c.write(b, depth+1)
	}
	b.WriteString(indent + "</" + n.tag + ">\n")
}
