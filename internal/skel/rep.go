package skel

import (
	"fmt"
	"strconv"

	"github.com/hpungsan/textwipe/internal/errors"
)

// RepKind is the kind tag in a representation header.
type RepKind string

const (
	RepFulltext RepKind = "fulltext"
	RepDelta    RepKind = "delta"
)

// Representation is a decoded representation record. The set of
// implementations is closed: *Fulltext and *Delta.
type Representation interface {
	Kind() RepKind
	// StringKeys lists every strings-table key the representation reads.
	StringKeys() []string
	skel() *Skel
}

// Checksum is one checksum entry of a representation header. Bare is set
// when the record stored the digest as a lone atom rather than (KIND DIGEST).
type Checksum struct {
	Kind   string
	Digest []byte
	Bare   bool
}

// Fulltext is a representation stored as a single string:
//
//	(("fulltext" TXN [CHECKSUM ...]) STRING-KEY)
type Fulltext struct {
	Txn       string
	Checksums []Checksum
	StringKey string
}

func (*Fulltext) Kind() RepKind { return RepFulltext }

func (r *Fulltext) StringKeys() []string { return []string{r.StringKey} }

func (r *Fulltext) skel() *Skel {
	return List(header(RepFulltext, r.Txn, r.Checksums), String(r.StringKey))
}

// Window is one chunk of a delta representation:
//
//	CHUNK  = (OFFSET WINDOW)
//	WINDOW = (DIFF SIZE REP-KEY [RANGE-KEY])
//	DIFF   = ("svndiff" VERSION STRING-KEY)
type Window struct {
	Offset    uint64
	Version   int
	StringKey string
	Size      uint64
	RepKey    string
	RangeKey  string
}

// Delta is a representation stored as svndiff windows against a base:
//
//	(("delta" TXN [CHECKSUM ...]) CHUNK ...)
type Delta struct {
	Txn       string
	Checksums []Checksum
	Windows   []Window
}

func (*Delta) Kind() RepKind { return RepDelta }

func (r *Delta) StringKeys() []string {
	keys := make([]string, 0, len(r.Windows))
	for _, w := range r.Windows {
		keys = append(keys, w.StringKey)
	}
	return keys
}

func (r *Delta) skel() *Skel {
	fields := []*Skel{header(RepDelta, r.Txn, r.Checksums)}
	for _, w := range r.Windows {
		window := []*Skel{
			List(String("svndiff"), String(strconv.Itoa(w.Version)), String(w.StringKey)),
			String(strconv.FormatUint(w.Size, 10)),
			String(w.RepKey),
		}
		if w.RangeKey != "" {
			window = append(window, String(w.RangeKey))
		}
		fields = append(fields, List(String(strconv.FormatUint(w.Offset, 10)), List(window...)))
	}
	return List(fields...)
}

func header(kind RepKind, txn string, sums []Checksum) *Skel {
	h := []*Skel{String(string(kind)), String(txn)}
	for _, c := range sums {
		if c.Bare {
			h = append(h, Atom(c.Digest))
			continue
		}
		h = append(h, List(String(c.Kind), Atom(c.Digest)))
	}
	return List(h...)
}

// EncodeRepresentation writes rep in skeleton form.
func EncodeRepresentation(rep Representation) []byte {
	return rep.skel().Unparse()
}

// DecodeRepresentation parses a representation record. Unknown kind tags
// and wrong shapes fail with ErrMalformedRecord.
func DecodeRepresentation(data []byte) (Representation, error) {
	s, err := Parse(data)
	if err != nil {
		return nil, errors.NewMalformedRecord("representation", err)
	}
	rep, err := repFromSkel(s)
	if err != nil {
		return nil, errors.NewMalformedRecord("representation", err)
	}
	return rep, nil
}

func repFromSkel(s *Skel) (Representation, error) {
	if s.IsAtom() || s.Len() < 1 {
		return nil, fmt.Errorf("expected non-empty list")
	}
	h := s.At(0)
	if h.IsAtom() || h.Len() < 2 || !h.At(0).IsAtom() || !h.At(1).IsAtom() {
		return nil, fmt.Errorf("header must be (KIND TXN ...)")
	}
	txn := h.At(1).Text()
	var sums []Checksum
	for i := 2; i < h.Len(); i++ {
		c, err := checksumFromSkel(h.At(i))
		if err != nil {
			return nil, err
		}
		sums = append(sums, c)
	}

	switch kind := RepKind(h.At(0).Text()); kind {
	case RepFulltext:
		if s.Len() != 2 || !s.At(1).IsAtom() {
			return nil, fmt.Errorf("fulltext must be (HEADER STRING-KEY), got %d fields", s.Len())
		}
		return &Fulltext{Txn: txn, Checksums: sums, StringKey: s.At(1).Text()}, nil
	case RepDelta:
		rep := &Delta{Txn: txn, Checksums: sums}
		for i := 1; i < s.Len(); i++ {
			w, err := windowFromSkel(s.At(i))
			if err != nil {
				return nil, fmt.Errorf("chunk %d: %w", i-1, err)
			}
			rep.Windows = append(rep.Windows, w)
		}
		return rep, nil
	default:
		return nil, fmt.Errorf("unknown representation kind %q", kind)
	}
}

func checksumFromSkel(s *Skel) (Checksum, error) {
	if s.IsAtom() {
		return Checksum{Kind: "md5", Digest: s.Data(), Bare: true}, nil
	}
	if s.Len() != 2 || !s.At(0).IsAtom() || !s.At(1).IsAtom() {
		return Checksum{}, fmt.Errorf("checksum must be (KIND DIGEST)")
	}
	return Checksum{Kind: s.At(0).Text(), Digest: s.At(1).Data()}, nil
}

func windowFromSkel(chunk *Skel) (Window, error) {
	var w Window
	if chunk.IsAtom() || chunk.Len() != 2 || !chunk.At(0).IsAtom() {
		return w, fmt.Errorf("chunk must be (OFFSET WINDOW)")
	}
	offset, err := strconv.ParseUint(chunk.At(0).Text(), 10, 64)
	if err != nil {
		return w, fmt.Errorf("offset: %w", err)
	}
	w.Offset = offset

	win := chunk.At(1)
	if win.IsAtom() || win.Len() < 3 || win.Len() > 4 {
		return w, fmt.Errorf("window must be (DIFF SIZE REP-KEY [RANGE-KEY])")
	}
	for i := 1; i < win.Len(); i++ {
		if !win.At(i).IsAtom() {
			return w, fmt.Errorf("window field %d must be an atom", i)
		}
	}

	diff := win.At(0)
	if diff.IsAtom() || diff.Len() != 3 || !diff.At(0).Matches("svndiff") ||
		!diff.At(1).IsAtom() || !diff.At(2).IsAtom() {
		return w, fmt.Errorf("diff must be (svndiff VERSION STRING-KEY)")
	}
	version, err := strconv.Atoi(diff.At(1).Text())
	if err != nil {
		return w, fmt.Errorf("svndiff version: %w", err)
	}
	w.Version = version
	w.StringKey = diff.At(2).Text()

	size, err := strconv.ParseUint(win.At(1).Text(), 10, 64)
	if err != nil {
		return w, fmt.Errorf("size: %w", err)
	}
	w.Size = size
	w.RepKey = win.At(2).Text()
	if win.Len() == 4 {
		w.RangeKey = win.At(3).Text()
	}
	return w, nil
}
