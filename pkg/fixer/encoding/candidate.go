// Package encoding resolves candidate byte encodings and decodes raw file
// content into UTF-8 text, either strictly (undefined byte sequences reject
// the candidate) or lossily (undefined byte sequences are dropped).
package encoding

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	// ErrUnknownEncoding is returned by Lookup for labels that no registry knows.
	ErrUnknownEncoding = errors.New("unknown encoding")

	// ErrInvalidSequence indicates the content holds bytes that are undefined
	// under the candidate encoding.
	ErrInvalidSequence = errors.New("invalid byte sequence for encoding")
)

// canonicalUTF8 is the WHATWG name returned by charset.Lookup for UTF-8.
const canonicalUTF8 = "utf-8"

// aliases covers labels the WHATWG index either lacks (cp1256) or maps
// differently from what a byte-transparent Latin-1 decode needs.
var aliases = map[string]xencoding.Encoding{
	"cp1256":  charmap.Windows1256,
	"latin-1": charmap.ISO8859_1,
	"latin1":  charmap.ISO8859_1,
	"l1":      charmap.ISO8859_1,
}

// Candidate is a resolved encoding. Name keeps the label as configured so
// reports show what the operator asked for.
type Candidate struct {
	Name      string
	Canonical string
	enc       xencoding.Encoding
}

// IsUTF8 reports whether the candidate decodes UTF-8.
func (c Candidate) IsUTF8() bool {
	return c.Canonical == canonicalUTF8
}

// UTF8 returns the UTF-8 candidate used for fallback decoding.
func UTF8() Candidate {
	c, _ := Lookup(canonicalUTF8)
	return c
}

// Lookup resolves a single encoding label.
func Lookup(name string) (Candidate, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "" {
		return Candidate{}, fmt.Errorf("%w: empty label", ErrUnknownEncoding)
	}
	if enc, ok := aliases[label]; ok {
		canonical := "iso-8859-1"
		if enc == charmap.Windows1256 {
			canonical = "windows-1256"
		}
		return Candidate{Name: name, Canonical: canonical, enc: enc}, nil
	}
	enc, canonical := charset.Lookup(label)
	if enc == nil {
		return Candidate{}, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return Candidate{Name: name, Canonical: canonical, enc: enc}, nil
}

// LookupAll resolves labels in order, failing on the first unknown one.
func LookupAll(names []string) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(names))
	for _, name := range names {
		c, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// DecodeStrict decodes raw under c and rejects content containing byte
// sequences the encoding does not define.
func DecodeStrict(c Candidate, raw []byte) (string, error) {
	if c.IsUTF8() {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w %s", ErrInvalidSequence, c.Name)
		}
		return string(raw), nil
	}
	text, _, err := transform.Bytes(c.enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrInvalidSequence, c.Name, err)
	}
	// Single and multi-byte decoders emit U+FFFD for undefined input; a
	// legacy encoding cannot carry U+FFFD itself.
	if strings.ContainsRune(string(text), utf8.RuneError) {
		return "", fmt.Errorf("%w %s", ErrInvalidSequence, c.Name)
	}
	return string(text), nil
}

// DecodeLossy decodes raw under c, dropping undecodable bytes.
func DecodeLossy(c Candidate, raw []byte) string {
	if c.IsUTF8() {
		return strings.ToValidUTF8(string(raw), "")
	}
	text, _, err := transform.Bytes(c.enc.NewDecoder(), raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "")
	}
	return strings.ReplaceAll(string(text), string(utf8.RuneError), "")
}
