package skel

import (
	"fmt"

	"github.com/hpungsan/textwipe/internal/errors"
)

// NodeKind is the kind tag in a node header.
type NodeKind string

const (
	KindFile NodeKind = "file"
	KindDir  NodeKind = "dir"
)

// Node is the typed view of a node-revision record:
//
//	(HEADER PROP-KEY DATA-KEY [EDIT-DATA-KEY [DATA-KEY-UNIQID]])
//	HEADER = (KIND CREATED-PATH [PRED-ID [PRED-COUNT ...]])
//
// For a file DATA-KEY is the content representation key; for a directory it
// is the entries representation key. Fields the tool does not interpret are
// kept in the underlying skeleton and written back unchanged by Encode.
type Node struct {
	Kind        NodeKind
	CreatedPath string
	PropKey     string
	DataKey     string

	raw *Skel
}

// NewNode builds a node record with the minimal header.
func NewNode(kind NodeKind, createdPath, propKey, dataKey string) *Node {
	return &Node{
		Kind:        kind,
		CreatedPath: createdPath,
		PropKey:     propKey,
		DataKey:     dataKey,
		raw: List(
			List(String(string(kind)), String(createdPath)),
			String(propKey),
			String(dataKey),
		),
	}
}

// DecodeNode parses a node record. Shapes other than the one above, and
// kinds other than file or dir, fail with ErrMalformedRecord.
func DecodeNode(data []byte) (*Node, error) {
	s, err := Parse(data)
	if err != nil {
		return nil, errors.NewMalformedRecord("node", err)
	}
	n, err := nodeFromSkel(s)
	if err != nil {
		return nil, errors.NewMalformedRecord("node", err)
	}
	return n, nil
}

func nodeFromSkel(s *Skel) (*Node, error) {
	if s.IsAtom() {
		return nil, fmt.Errorf("expected list, got atom")
	}
	if s.Len() < 3 || s.Len() > 5 {
		return nil, fmt.Errorf("expected 3 to 5 fields, got %d", s.Len())
	}
	header := s.At(0)
	if header.IsAtom() || header.Len() < 2 {
		return nil, fmt.Errorf("header must be a list of at least 2 fields")
	}
	if !header.At(0).IsAtom() || !header.At(1).IsAtom() {
		return nil, fmt.Errorf("header kind and created-path must be atoms")
	}
	for i := 1; i < s.Len(); i++ {
		if !s.At(i).IsAtom() {
			return nil, fmt.Errorf("field %d must be an atom", i)
		}
	}

	kind := NodeKind(header.At(0).Text())
	switch kind {
	case KindFile, KindDir:
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}

	return &Node{
		Kind:        kind,
		CreatedPath: header.At(1).Text(),
		PropKey:     s.At(1).Text(),
		DataKey:     s.At(2).Text(),
		raw:         s,
	}, nil
}

// IsFile reports whether n is a file node.
func (n *Node) IsFile() bool { return n.Kind == KindFile }

// Encode writes n back out. Header fields past CREATED-PATH and record
// fields past DATA-KEY are copied from the decoded record byte for byte.
func (n *Node) Encode() []byte {
	header := []*Skel{String(string(n.Kind)), String(n.CreatedPath)}
	fields := []*Skel{nil, String(n.PropKey), String(n.DataKey)}
	if n.raw != nil {
		h := n.raw.At(0)
		for i := 2; i < h.Len(); i++ {
			header = append(header, h.At(i))
		}
		for i := 3; i < n.raw.Len(); i++ {
			fields = append(fields, n.raw.At(i))
		}
	}
	fields[0] = List(header...)
	return List(fields...).Unparse()
}
