package encoding

import (
	"bytes"
	"errors"
	"sort"
	"testing"

	"github.com/dshills/quill/internal/filestate"
	xenc "golang.org/x/text/encoding"
)

func TestRegistry_Probe(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		tag      string
		expected bool
	}{
		{"UTF-8", true},
		{"utf8", true},
		{" us-ascii ", true},
		{"EBCDIC", true},
		{"ISO-8859-1", true},
		{"X-UTF-8-BOM", true},
		{"", false},
		{"NO-SUCH-CHARSET", false},
	}

	for _, tt := range tests {
		if got := r.Probe(tt.tag); got != tt.expected {
			t.Errorf("Probe(%q) = %v, expected %v", tt.tag, got, tt.expected)
		}
	}
}

func TestRegistry_Equivalent(t *testing.T) {
	r := NewRegistry()

	if !r.Equivalent("utf8", "UTF-8") {
		t.Error("utf8 and UTF-8 should be equivalent")
	}
	if !r.Equivalent("ascii", "ANSI_X3.4-1968") {
		t.Error("ascii aliases should be equivalent")
	}
	if r.Equivalent("UTF-8", "X-UTF-8-BOM") {
		t.Error("UTF-8 with and without BOM should differ")
	}
	if got := r.Canonical("iso-8859-1"); got != "ISO-8859-1" {
		t.Errorf("Canonical(iso-8859-1) = %q", got)
	}
}

func TestRegistry_OpenUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Open("NO-SUCH-CHARSET")
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
	if !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("expected ErrUnknownEncoding, got %v", err)
	}
	if code, ok := CodeOf(err); !ok || code != ErrCodeUnknownEncoding {
		t.Errorf("CodeOf() = %v, %v", code, ok)
	}
}

func TestConverter_Decode(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name  string
		tag   string
		input []byte
		opts  DecodeOptions
		code  filestate.Code
		text  string
		bom   bool
	}{
		{"utf8", UTF8, []byte("héllo"), DecodeOptions{}, filestate.Success, "héllo", false},
		{"empty", UTF8, nil, DecodeOptions{}, filestate.Success, "", false},
		{"illegal", UTF8, []byte("a\xffb"), DecodeOptions{}, filestate.ConversionIllegal, "a�b", false},
		{"illegal accepted", UTF8, []byte("a\xffb"), DecodeOptions{AcceptLossy: true}, filestate.Success, "a�b", false},
		{"truncated", UTF8, []byte("abc\xe2\x82"), DecodeOptions{}, filestate.ConversionTruncated, "abc", false},
		{"bom ask", UTF8, []byte("\xEF\xBB\xBFhi"), DecodeOptions{BOM: BOMAsk}, filestate.BOMFound, "", false},
		{"bom preserve", UTF8, []byte("\xEF\xBB\xBFhi"), DecodeOptions{BOM: BOMPreserve}, filestate.Success, "hi", true},
		{"bom remove", UTF8, []byte("\xEF\xBB\xBFhi"), DecodeOptions{BOM: BOMRemove}, filestate.Success, "hi", false},
		{"bom encoding", UTF8BOM, []byte("\xEF\xBB\xBFhi"), DecodeOptions{}, filestate.Success, "hi", true},
		{"latin1", "ISO-8859-1", []byte{'c', 'a', 'f', 0xE9}, DecodeOptions{}, filestate.Success, "café", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := r.Open(tt.tag)
			if err != nil {
				t.Fatalf("Open(%q) failed: %v", tt.tag, err)
			}

			got, res := conv.Decode(tt.input, tt.opts)
			if res.Code != tt.code {
				t.Fatalf("Decode() code = %s, expected %s", res.Code, tt.code)
			}
			if got.Text != tt.text {
				t.Errorf("Decode() text = %q, expected %q", got.Text, tt.text)
			}
			if got.BOM != tt.bom {
				t.Errorf("Decode() BOM = %v, expected %v", got.BOM, tt.bom)
			}
		})
	}
}

func TestConverter_EncodeRoundTrip(t *testing.T) {
	r := NewRegistry()

	inputs := map[string][]byte{
		UTF8:         []byte("line one\nline two ✓\n"),
		UTF8BOM:      []byte("\xEF\xBB\xBFmarked\n"),
		"ISO-8859-1": {'c', 'a', 'f', 0xE9, '\n'},
		ASCII:        []byte("plain\n"),
		"UTF-16":     {0xFE, 0xFF, 0, 'h', 0, 'i'},
		UTF16LEBOM:   {0xFF, 0xFE, 'h', 0, 'i', 0},
	}

	for tag, input := range inputs {
		conv, err := r.Open(tag)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", tag, err)
		}

		dec, res := conv.Decode(input, DecodeOptions{})
		if !res.OK() {
			t.Fatalf("%s: Decode() = %s", tag, res)
		}
		out, res := conv.Encode(dec.Text, dec.BOM, false)
		if !res.OK() {
			t.Fatalf("%s: Encode() = %s", tag, res)
		}
		if !bytes.Equal(out, input) {
			t.Errorf("%s: round trip = %q, expected %q", tag, out, input)
		}
	}
}

func TestConverter_UTF16ByteOrder(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		tag   string
	}{
		{"big endian", []byte{0xFE, 0xFF, 0, 'o', 0, 'k'}, "UTF-16"},
		{"little endian", []byte{0xFF, 0xFE, 'o', 0, 'k', 0}, UTF16LEBOM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := NewRegistry().Open("utf-16")
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			dec, res := conv.Decode(tt.input, DecodeOptions{})
			if !res.OK() || dec.Text != "ok" {
				t.Fatalf("Decode() = %q, %s", dec.Text, res)
			}
			if conv.Tag() != tt.tag {
				t.Errorf("Tag() = %q, expected %q", conv.Tag(), tt.tag)
			}
			out, res := conv.Encode(dec.Text, dec.BOM, false)
			if !res.OK() || !bytes.Equal(out, tt.input) {
				t.Errorf("Encode() = %q, %s; expected %q", out, res, tt.input)
			}
		})
	}
}

func TestConverter_EncodeImprecise(t *testing.T) {
	conv, err := NewRegistry().Open(ASCII)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	_, res := conv.Encode("naïve", false, false)
	if res.Code != filestate.ConversionImprecise {
		t.Fatalf("Encode() code = %s, expected CONVERSION_IMPRECISE", res.Code)
	}
	if code, ok := CodeOf(res.Err); !ok || code != ErrCodeImprecise {
		t.Errorf("payload = %v", res.Err)
	}

	out, res := conv.Encode("naïve", false, true)
	if !res.OK() {
		t.Fatalf("lossy Encode() = %s", res)
	}
	if len(out) != 5 {
		t.Errorf("lossy Encode() = %q, expected 5 bytes", out)
	}
}

func TestConverter_EncodeBOM(t *testing.T) {
	conv, _ := NewRegistry().Open(UTF8)

	out, _ := conv.Encode("x", true, false)
	if !HasBOM(out) {
		t.Error("expected BOM when requested")
	}
	out, _ = conv.Encode("x", false, false)
	if HasBOM(out) {
		t.Error("unexpected BOM")
	}

	latin, _ := NewRegistry().Open("ISO-8859-1")
	out, _ = latin.Encode("x", true, false)
	if HasBOM(out) {
		t.Error("BOM must only be written for UTF-8")
	}
}

var errBroken = errors.New("broken converter")

type brokenTransformer struct{}

func (brokenTransformer) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	return 0, 0, errBroken
}

func (brokenTransformer) Reset() {}

type brokenEncoding struct{}

func (brokenEncoding) NewDecoder() *xenc.Decoder {
	return &xenc.Decoder{Transformer: brokenTransformer{}}
}

func (brokenEncoding) NewEncoder() *xenc.Encoder {
	return &xenc.Encoder{Transformer: brokenTransformer{}}
}

func TestConverter_Failure(t *testing.T) {
	r := NewRegistry()
	r.Register("x-broken", brokenEncoding{})

	conv, err := r.Open("X-BROKEN")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	_, res := conv.Decode([]byte("abc"), DecodeOptions{})
	if res.Code != filestate.ConversionError {
		t.Errorf("Decode() code = %s, expected CONVERSION_ERROR", res.Code)
	}
	if !errors.Is(res.Err, errBroken) {
		t.Errorf("Decode() payload = %v", res.Err)
	}

	_, res = conv.Encode("abc", false, false)
	if res.Code != filestate.ConversionError {
		t.Errorf("Encode() code = %s, expected CONVERSION_ERROR", res.Code)
	}
}

func TestRegistry_Available(t *testing.T) {
	r := NewRegistry()
	list := r.Available()

	if !sort.SliceIsSorted(list, func(i, j int) bool { return list[i].Name < list[j].Name }) {
		t.Error("Available() should be sorted by name")
	}
	for _, cs := range list {
		if !r.Probe(cs.Tag) {
			t.Errorf("Available() lists unprobeable %q", cs.Tag)
		}
	}

	cs, ok := r.Lookup("utf8")
	if !ok || cs.Name != "Unicode (UTF-8)" {
		t.Errorf("Lookup(utf8) = %+v, %v", cs, ok)
	}
	if _, ok := r.Lookup("NO-SUCH-CHARSET"); ok {
		t.Error("Lookup should fail for unknown tags")
	}
}

func TestDescribe(t *testing.T) {
	if Describe(ErrCodeIllegal) != "illegal character sequence" {
		t.Errorf("Describe(ErrCodeIllegal) = %q", Describe(ErrCodeIllegal))
	}
	if Describe(ErrorCode(99)) != "converter error 99" {
		t.Errorf("Describe(99) = %q", Describe(ErrorCode(99)))
	}
}
