// Package encoding resolves character set tags to converters and transcodes
// file content between bytes and text.
//
// Tags are resolved in this order: encodings registered on the Registry,
// the built-in aliases (UTF-8, X-UTF-8-BOM, US-ASCII, EBCDIC), the IANA
// index and finally the WHATWG index. Every conversion reports its outcome as
// a filestate.Result so the pipelines can dispatch on it directly.
package encoding

import (
	"strings"

	gdenc "github.com/gdamore/encoding"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

const (
	// UTF8 is the default tag.
	UTF8 = "UTF-8"

	// UTF8BOM is UTF-8 written with a leading byte-order mark.
	UTF8BOM = "X-UTF-8-BOM"

	// ASCII is 7-bit US-ASCII.
	ASCII = "US-ASCII"

	// EBCDIC is IBM EBCDIC (code page 037).
	EBCDIC = "EBCDIC"

	// UTF16LEBOM is little-endian UTF-16 written with a leading byte-order
	// mark, the usual layout of UTF-16 files on Windows.
	UTF16LEBOM = "X-UTF-16LE-BOM"

	utf16 = "UTF-16"
)

type builtin struct {
	canonical string
	enc       xenc.Encoding
}

var builtins = map[string]builtin{
	"UTF-8":          {UTF8, unicode.UTF8},
	"UTF8":           {UTF8, unicode.UTF8},
	"X-UTF-8-BOM":    {UTF8BOM, unicode.UTF8},
	"US-ASCII":       {ASCII, gdenc.ASCII},
	"ASCII":          {ASCII, gdenc.ASCII},
	"ANSI_X3.4-1968": {ASCII, gdenc.ASCII},
	"EBCDIC":         {EBCDIC, gdenc.EBCDIC},
	"X-UTF-16LE-BOM": {UTF16LEBOM, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
}

// Registry resolves encoding tags.
// A Registry is used from the main control thread only and needs no locking.
type Registry struct {
	extra map[string]xenc.Encoding
}

// NewRegistry creates a registry that knows the built-in and indexed encodings.
func NewRegistry() *Registry {
	return &Registry{extra: make(map[string]xenc.Encoding)}
}

// Register adds or replaces an encoding under tag.
func (r *Registry) Register(tag string, enc xenc.Encoding) {
	r.extra[normalize(tag)] = enc
}

// Probe reports whether a converter is available for tag.
func (r *Registry) Probe(tag string) bool {
	_, _, err := r.resolve(tag)
	return err == nil
}

// Equivalent reports whether two tags name the same encoding.
func (r *Registry) Equivalent(a, b string) bool {
	return r.Canonical(a) == r.Canonical(b)
}

// Canonical returns the preferred name for tag. Unknown tags are returned
// normalized.
func (r *Registry) Canonical(tag string) string {
	name, _, err := r.resolve(tag)
	if err != nil {
		return normalize(tag)
	}
	return name
}

// Open returns a converter for tag, or a *ConvError.
func (r *Registry) Open(tag string) (*Converter, error) {
	name, enc, err := r.resolve(tag)
	if err != nil {
		return nil, err
	}
	return &Converter{
		tag:     name,
		enc:     enc,
		utf8:    name == UTF8,
		utf16:   name == utf16,
		withBOM: name == UTF8BOM,
	}, nil
}

func (r *Registry) resolve(tag string) (string, xenc.Encoding, error) {
	key := normalize(tag)
	if key == "" {
		return "", nil, &ConvError{Code: ErrCodeUnknownEncoding, Tag: tag, Err: ErrUnknownEncoding}
	}
	if enc, ok := r.extra[key]; ok {
		return key, enc, nil
	}
	if b, ok := builtins[key]; ok {
		return b.canonical, b.enc, nil
	}

	enc, err := ianaindex.MIME.Encoding(key)
	if err == nil {
		if enc == nil {
			return "", nil, &ConvError{Code: ErrCodeUnsupported, Tag: tag}
		}
		if name, err := ianaindex.MIME.Name(enc); err == nil {
			return normalize(name), enc, nil
		}
		return key, enc, nil
	}

	enc, err = htmlindex.Get(key)
	if err == nil {
		if name, err := htmlindex.Name(enc); err == nil {
			return normalize(name), enc, nil
		}
		return key, enc, nil
	}

	return "", nil, &ConvError{Code: ErrCodeUnknownEncoding, Tag: tag, Err: ErrUnknownEncoding}
}

func normalize(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}
