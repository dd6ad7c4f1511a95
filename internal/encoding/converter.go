package encoding

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/dshills/quill/internal/filestate"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// BOMPolicy decides what happens to a UTF-8 byte-order mark on load.
type BOMPolicy int

const (
	// BOMAsk stops the decode with filestate.BOMFound.
	BOMAsk BOMPolicy = iota

	// BOMPreserve strips the mark from the text and remembers it.
	BOMPreserve

	// BOMRemove strips the mark from the text and forgets it.
	BOMRemove
)

// BOM (Byte Order Mark) constants
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// HasBOM reports whether content starts with a UTF-8 byte-order mark.
func HasBOM(content []byte) bool {
	return bytes.HasPrefix(content, bomUTF8)
}

// DecodeOptions controls a decode.
type DecodeOptions struct {
	// BOM is the byte-order mark policy for UTF-8 input.
	BOM BOMPolicy

	// AcceptLossy accepts illegal or irreversible input instead of
	// reporting it.
	AcceptLossy bool
}

// Decoded is the text produced by a decode.
type Decoded struct {
	Text string

	// BOM is true when a byte-order mark was stripped and should be written
	// back on save.
	BOM bool
}

// Converter transcodes between one encoding and UTF-8 text.
type Converter struct {
	tag     string
	enc     xenc.Encoding
	utf8    bool
	utf16   bool
	withBOM bool
}

// Tag returns the canonical tag of the converter. Decoding UTF-16 content
// that starts with a little-endian byte-order mark changes it to UTF16LEBOM.
func (c *Converter) Tag() string {
	return c.tag
}

// Decode converts file content to text.
//
// The result code is one of Success, BOMFound, ConversionTruncated (with the
// text decoded up to the incomplete character), ConversionIllegal,
// ConversionImprecise or ConversionError.
func (c *Converter) Decode(src []byte, opts DecodeOptions) (Decoded, filestate.Result) {
	var out Decoded

	switch {
	case c.withBOM:
		if HasBOM(src) {
			src = src[len(bomUTF8):]
		}
		out.BOM = true
	case c.utf8 && HasBOM(src):
		if opts.BOM == BOMAsk {
			return out, filestate.New(filestate.BOMFound)
		}
		src = src[len(bomUTF8):]
		out.BOM = opts.BOM == BOMPreserve
	case c.utf16 && bytes.HasPrefix(src, bomUTF16LE):
		c.tag, c.enc, c.utf16 = UTF16LEBOM, builtins[UTF16LEBOM].enc, false
	}

	text, consumed, err := transformAll(c.enc.NewDecoder(), src, false)
	if err != nil && !errors.Is(err, transform.ErrShortSrc) {
		return out, c.failure(filestate.ConversionError, ErrCodeInternal, err)
	}
	out.Text = string(text)
	if consumed < len(src) {
		return out, c.failure(filestate.ConversionTruncated, ErrCodeTruncated, nil)
	}

	if !opts.AcceptLossy {
		back, _, err := transformAll(c.enc.NewEncoder(), text, true)
		if err != nil || !bytes.Equal(back, src) {
			if strings.ContainsRune(out.Text, utf8.RuneError) {
				return out, c.failure(filestate.ConversionIllegal, ErrCodeIllegal, nil)
			}
			return out, c.failure(filestate.ConversionImprecise, ErrCodeImprecise, nil)
		}
	}

	return out, filestate.OK()
}

// Encode converts text to file content. When bom is true, or the converter
// is X-UTF-8-BOM, the content starts with a byte-order mark.
//
// The result code is one of Success, ConversionImprecise or ConversionError.
// With acceptLossy set, characters the encoding cannot represent are
// replaced and the result is Success.
func (c *Converter) Encode(text string, bom, acceptLossy bool) ([]byte, filestate.Result) {
	enc := xenc.ReplaceUnsupported(c.enc.NewEncoder())
	data, _, err := transformAll(enc, []byte(text), true)
	if err != nil {
		return nil, c.failure(filestate.ConversionError, ErrCodeInternal, err)
	}

	if !acceptLossy {
		back, _, err := transformAll(c.enc.NewDecoder(), data, true)
		if err != nil || string(back) != text {
			return nil, c.failure(filestate.ConversionImprecise, ErrCodeImprecise, nil)
		}
	}

	if c.withBOM || (bom && c.utf8) {
		data = append(append(make([]byte, 0, len(bomUTF8)+len(data)), bomUTF8...), data...)
	}
	return data, filestate.OK()
}

func (c *Converter) failure(code filestate.Code, conv ErrorCode, err error) filestate.Result {
	return filestate.WithErr(code, &ConvError{Code: conv, Tag: c.tag, Err: err})
}

// transformAll runs t over src. It returns the output, the number of source
// bytes consumed and the error that stopped the transformation. With atEOF
// false an incomplete trailing sequence stops it with transform.ErrShortSrc.
func transformAll(t transform.Transformer, src []byte, atEOF bool) ([]byte, int, error) {
	t.Reset()

	out := make([]byte, 0, len(src))
	buf := make([]byte, 4096)
	consumed := 0
	for {
		nDst, nSrc, err := t.Transform(buf, src[consumed:], atEOF)
		out = append(out, buf[:nDst]...)
		consumed += nSrc

		switch {
		case err == nil:
			if consumed < len(src) && (nDst > 0 || nSrc > 0) {
				continue
			}
			return out, consumed, nil
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				buf = make([]byte, 2*len(buf))
			}
		case errors.Is(err, transform.ErrShortSrc) && (nDst > 0 || nSrc > 0):
			// progress was made; retry with the remainder
		default:
			return out, consumed, err
		}
	}
}
