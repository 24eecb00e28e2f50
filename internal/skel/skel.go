// Package skel reads and writes the skeleton record format used by the
// node store, and projects it into typed Node and Representation views.
//
// A skeleton is either an atom (a byte string) or a list of skeletons.
// Atoms are written in implicit form (`fulltext`) when they look like a
// name and in explicit form (`5 hello`) otherwise; lists are parenthesised
// and space separated.
package skel

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// maxImplicitLen is the longest atom written in implicit form.
const maxImplicitLen = 100

// maxLengthDigits bounds the decimal length prefix of an explicit atom.
const maxLengthDigits = 10

// Skel is one node of a parsed skeleton.
type Skel struct {
	data     []byte
	children []*Skel
	list     bool
}

// Atom returns an atom skeleton holding b.
func Atom(b []byte) *Skel {
	return &Skel{data: b}
}

// String returns an atom skeleton holding s.
func String(s string) *Skel {
	return &Skel{data: []byte(s)}
}

// List returns a list skeleton with the given children.
func List(children ...*Skel) *Skel {
	return &Skel{list: true, children: children}
}

// IsAtom reports whether s is an atom.
func (s *Skel) IsAtom() bool { return !s.list }

// Len returns the number of children of a list, or 0 for an atom.
func (s *Skel) Len() int { return len(s.children) }

// At returns the i'th child of a list.
func (s *Skel) At(i int) *Skel { return s.children[i] }

// Data returns the bytes of an atom.
func (s *Skel) Data() []byte { return s.data }

// Text returns the bytes of an atom as a string.
func (s *Skel) Text() string { return string(s.data) }

// Matches reports whether s is an atom equal to name.
func (s *Skel) Matches(name string) bool {
	return !s.list && string(s.data) == name
}

// Unparse encodes s.
func (s *Skel) Unparse() []byte {
	var buf bytes.Buffer
	s.write(&buf)
	return buf.Bytes()
}

func (s *Skel) write(buf *bytes.Buffer) {
	if s.list {
		buf.WriteByte('(')
		for i, c := range s.children {
			if i > 0 {
				buf.WriteByte(' ')
			}
			c.write(buf)
		}
		buf.WriteByte(')')
		return
	}
	if useImplicit(s.data) {
		buf.Write(s.data)
		return
	}
	buf.WriteString(strconv.Itoa(len(s.data)))
	buf.WriteByte(' ')
	buf.Write(s.data)
}

func useImplicit(b []byte) bool {
	if len(b) == 0 || len(b) >= maxImplicitLen || !isNameStart(b[0]) {
		return false
	}
	for _, c := range b {
		if isSpace(c) || isParen(c) {
			return false
		}
	}
	return true
}

// Parse decodes a complete skeleton from data. Leading and trailing
// whitespace is allowed; any other trailing bytes are an error.
func Parse(data []byte) (*Skel, error) {
	p := &parser{buf: data}
	p.skipSpace()
	s, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.buf) {
		return nil, errors.Errorf("trailing data at offset %d", p.pos)
	}
	return s, nil
}

type parser struct {
	buf []byte
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.buf) && isSpace(p.buf[p.pos]) {
		p.pos++
	}
}

func (p *parser) parse() (*Skel, error) {
	if p.pos >= len(p.buf) {
		return nil, errors.Errorf("unexpected end of input at offset %d", p.pos)
	}
	c := p.buf[p.pos]
	switch {
	case c == '(':
		return p.parseList()
	case isDigit(c):
		return p.parseExplicit()
	case isNameStart(c):
		return p.parseImplicit(), nil
	default:
		return nil, errors.Errorf("unexpected byte %q at offset %d", c, p.pos)
	}
}

func (p *parser) parseList() (*Skel, error) {
	start := p.pos
	p.pos++ // '('
	list := List()
	for {
		p.skipSpace()
		if p.pos >= len(p.buf) {
			return nil, errors.Errorf("unterminated list starting at offset %d", start)
		}
		if p.buf[p.pos] == ')' {
			p.pos++
			return list, nil
		}
		child, err := p.parse()
		if err != nil {
			return nil, errors.Wrapf(err, "in list at offset %d", start)
		}
		list.children = append(list.children, child)
	}
}

func (p *parser) parseExplicit() (*Skel, error) {
	start := p.pos
	for p.pos < len(p.buf) && isDigit(p.buf[p.pos]) {
		p.pos++
	}
	digits := p.buf[start:p.pos]
	if len(digits) > maxLengthDigits {
		return nil, errors.Errorf("atom length too long at offset %d", start)
	}
	size, err := strconv.Atoi(string(digits))
	if err != nil {
		return nil, errors.Wrapf(err, "atom length at offset %d", start)
	}
	if p.pos >= len(p.buf) || !isSpace(p.buf[p.pos]) {
		return nil, errors.Errorf("missing separator after atom length at offset %d", p.pos)
	}
	p.pos++
	if size > len(p.buf)-p.pos {
		return nil, errors.Errorf("atom at offset %d claims %d bytes, %d remain", start, size, len(p.buf)-p.pos)
	}
	data := make([]byte, size)
	copy(data, p.buf[p.pos:p.pos+size])
	p.pos += size
	return Atom(data), nil
}

func (p *parser) parseImplicit() *Skel {
	start := p.pos
	for p.pos < len(p.buf) && !isSpace(p.buf[p.pos]) && !isParen(p.buf[p.pos]) {
		p.pos++
	}
	data := make([]byte, p.pos-start)
	copy(data, p.buf[start:p.pos])
	return Atom(data)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isParen(c byte) bool { return c == '(' || c == ')' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
