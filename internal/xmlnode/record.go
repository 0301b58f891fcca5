package xmlnode

import (
	"fmt"
	"os"
)

// Declaration heads every document written to disk.
const Declaration = "<?xml version='1.0' encoding='UTF-8'?>\n"

// Record is a complete metadata document: a root node plus the file it
// came from.
type Record struct {
	Path string
	root *Node
}

// NewRecord wraps root in a Record that has not been saved yet.
func NewRecord(root *Node) *Record {
	return &Record{root: root}
}

// LoadRecord parses the document at path.
func LoadRecord(path string) (*Record, error) {
	root, err := ParseFile(path, ParseOptions{})
	if err != nil {
		return nil, err
	}
	return &Record{Path: path, root: root}, nil
}

// Metadata returns the root element.
func (r *Record) Metadata() *Node {
	return r.root
}

// String renders the whole document including the declaration.
func (r *Record) String() string {
	return Declaration + r.root.String()
}

// Save writes the document to path, or back to the file it was loaded
// from when path is empty.
func (r *Record) Save(path string) error {
	if path == "" {
		path = r.Path
	}
	if path == "" {
		return fmt.Errorf("save record: no path")
	}
	if err := os.WriteFile(path, []byte(r.String()), 0644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	r.Path = path
	return nil
}
