package pipeline

import (
	"testing"

	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/encoding"
	"github.com/dshills/quill/internal/filestate"
	"github.com/dshills/quill/internal/process"
	"github.com/stretchr/testify/require"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

func TestLoad_File(t *testing.T) {
	h := newHarness(t)
	path := h.write("hello.txt", []byte("hello\nworld\n"), 0o644)

	p := h.load(path, "")
	file := p.Buffer()
	require.Equal(t, "hello\nworld\n", file.Text())
	require.Equal(t, encoding.UTF8, file.Encoding())
	require.True(t, file.Populated())
	require.False(t, file.Modified())
	require.True(t, h.env.Open.Contains(file))
	require.True(t, p.Result().OK())
}

func TestLoad_AlreadyOpenIgnoresEncoding(t *testing.T) {
	h := newHarness(t)
	path := h.write("a.txt", []byte("a"), 0o644)

	first := h.load(path, "")
	h.env.FS = untouchableFS{}
	second := h.load(path, "NO-SUCH-CHARSET")

	require.True(t, second.Reused())
	require.Same(t, first.Buffer(), second.Buffer())
	require.Equal(t, encoding.UTF8, second.Buffer().Encoding())
	require.Empty(t, h.reports)
}

func TestLoad_Supersede(t *testing.T) {
	tests := []struct {
		name     string
		old      func(h *harness) *buffer.FileBuffer
		replaced bool
	}{
		{"pristine untitled", func(*harness) *buffer.FileBuffer { return buffer.New("", encoding.UTF8) }, true},
		{"edited untitled", func(*harness) *buffer.FileBuffer {
			b := buffer.New("", encoding.UTF8)
			b.Edit("draft")
			return b
		}, false},
		{"named", func(h *harness) *buffer.FileBuffer { return buffer.New(h.path("new.txt"), encoding.UTF8) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			path := h.write("a.txt", []byte("a"), 0o644)
			old := tt.old(h)
			h.env.Open.Add(old)
			h.env.Open.Add(buffer.New(h.path("other.txt"), encoding.UTF8))

			p := NewLoadFile(h.env, path, "", false).Supersede(old)
			h.run(p)
			h.idle()
			require.True(t, p.Succeeded())

			if tt.replaced {
				require.Equal(t, 2, h.env.Open.Len())
				require.Same(t, p.Buffer(), h.env.Open.At(0))
				require.False(t, h.env.Open.Contains(old))
			} else {
				require.Equal(t, 3, h.env.Open.Len())
				require.Same(t, p.Buffer(), h.env.Open.At(2))
			}
		})
	}
}

func TestLoad_AlreadyOpen(t *testing.T) {
	h := newHarness(t)
	path := h.write("a.txt", []byte("a"), 0o644)

	first := h.load(path, "")
	second := h.load(path, "")

	require.True(t, second.Reused())
	require.Same(t, first.Buffer(), second.Buffer())
	require.Equal(t, 1, h.env.Open.Len())
}

func TestLoad_SelectFile(t *testing.T) {
	h := newHarness(t)
	path := h.write("latin.txt", []byte("caf\xe9"), 0o644)

	p := NewLoad(h.env)
	h.run(p)
	require.Equal(t, process.ModeOpen, h.sched.Pending().Mode)
	require.Equal(t, encoding.UTF8, h.sched.Pending().Encoding)

	h.answerPath(path, "ISO-8859-1")
	h.idle()
	require.True(t, p.Succeeded())
	require.Equal(t, "café", p.Buffer().Text())
	require.Equal(t, "ISO-8859-1", p.Buffer().Encoding())
}

func TestLoad_SelectEncoding(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		prompt   bool
		want     string
	}{
		{"default", "", true, encoding.UTF8},
		{"chosen with the file", "latin1", false, "ISO-8859-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			path := h.write("latin.txt", []byte("caf\xe9 ok"), 0o644)

			p := NewLoad(h.env)
			h.run(p)
			h.answerPath(path, tt.encoding)
			require.Equal(t, path, p.Path())
			if tt.prompt {
				h.choose("encoding "+encoding.UTF8+" encountered illegal characters", optionContinue)
			}
			h.idle()

			require.True(t, p.Succeeded())
			require.Equal(t, tt.want, p.Buffer().Encoding())
		})
	}
}

func TestLoad_SelectDismissed(t *testing.T) {
	h := newHarness(t)
	p := NewLoad(h.env)
	h.run(p)

	require.NoError(t, h.sched.Resume(process.Closed))
	h.idle()
	require.False(t, p.Succeeded())
	require.Zero(t, h.env.Open.Len())
}

func TestLoad_Missing(t *testing.T) {
	h := newHarness(t)
	path := h.path("new.txt")

	p := NewLoadFile(h.env, path, "", true)
	h.run(p)
	h.idle()
	require.True(t, p.Succeeded())
	require.False(t, p.Buffer().Populated())
	require.Empty(t, p.Buffer().Text())
	require.True(t, h.env.Open.Contains(p.Buffer()))

	strict := NewLoadFile(h.env, h.path("other.txt"), "", false)
	h.run(strict)
	h.idle()
	require.False(t, strict.Succeeded())
	require.True(t, strict.Result().Is(filestate.ErrnoError))
	require.NotZero(t, strict.Result().Errno())
	require.Nil(t, strict.Buffer())
	require.Equal(t, 1, h.env.Open.Len())
	require.Contains(t, h.reports[len(h.reports)-1], "Could not load file")
}

func TestLoad_UnknownEncoding(t *testing.T) {
	h := newHarness(t)
	h.env.FS = untouchableFS{}

	p := NewLoadFile(h.env, h.path("any.txt"), "KLINGON", true)
	h.run(p)
	h.idle()

	require.False(t, p.Succeeded())
	require.True(t, p.Result().Is(filestate.ConversionOpenError))
	code, ok := encoding.CodeOf(p.Result().Err)
	require.True(t, ok)
	require.Equal(t, encoding.ErrCodeUnknownEncoding, code)
	require.Contains(t, h.reports[0], "Could not find a converter")
}

func TestLoad_BOM(t *testing.T) {
	content := []byte("\xef\xbb\xbfhello")

	tests := []struct {
		name     string
		answer   process.Answer
		encoding string
		bom      bool
	}{
		{"preserve", process.Answer{Choice: optionPreserveBOM}, encoding.UTF8BOM, true},
		{"remove", process.Answer{Choice: 1}, encoding.UTF8, false},
		{"dismissed", process.Closed, encoding.UTF8BOM, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			path := h.write("bom.txt", content, 0o644)

			p := NewLoadFile(h.env, path, "", false)
			h.run(p)
			pending := h.sched.Pending()
			require.NotNil(t, pending)
			require.Equal(t, bomOptions, pending.Options)

			require.NoError(t, h.sched.Resume(tt.answer))
			h.idle()
			require.True(t, p.Succeeded())
			require.Equal(t, "hello", p.Buffer().Text())
			require.Equal(t, tt.encoding, p.Buffer().Encoding())
			require.Equal(t, tt.bom, p.Buffer().BOM())
		})
	}
}

func TestLoad_Illegal(t *testing.T) {
	h := newHarness(t)
	path := h.write("bad.txt", []byte("a\xffb"), 0o644)

	aborted := NewLoadFile(h.env, path, "", false)
	h.run(aborted)
	h.choose("illegal characters", 1)
	h.idle()
	require.False(t, aborted.Succeeded())
	require.Zero(t, h.env.Open.Len())

	p := NewLoadFile(h.env, path, "", false)
	h.run(p)
	h.choose("illegal characters", optionContinue)
	h.idle()
	require.True(t, p.Succeeded())
	require.Equal(t, "a\uFFFDb", p.Buffer().Text())
}

// lossyEncoding reads ISO-8859-1 and writes ISO-8859-15, which has no
// currency sign.
type lossyEncoding struct{}

func (lossyEncoding) NewDecoder() *xenc.Decoder { return charmap.ISO8859_1.NewDecoder() }
func (lossyEncoding) NewEncoder() *xenc.Encoder { return charmap.ISO8859_15.NewEncoder() }

func TestLoad_Imprecise(t *testing.T) {
	h := newHarness(t)
	h.env.Encodings.Register("X-LOSSY", lossyEncoding{})
	path := h.write("price.txt", []byte("5\xa4"), 0o644)

	declined := NewLoadFile(h.env, path, "x-lossy", false)
	h.run(declined)
	h.choose("is irreversible", 1)
	h.idle()
	require.False(t, declined.Succeeded())
	require.Zero(t, h.env.Open.Len())

	p := NewLoadFile(h.env, path, "x-lossy", false)
	h.run(p)
	h.choose("is irreversible", optionContinue)
	h.idle()
	require.True(t, p.Succeeded())
	require.Equal(t, "5\u00a4", p.Buffer().Text())
	require.Equal(t, "X-LOSSY", p.Buffer().Encoding())
}

func TestLoad_Truncated(t *testing.T) {
	h := newHarness(t)
	path := h.write("cut.txt", []byte("abc\xe2\x82"), 0o644)

	p := NewLoadFile(h.env, path, "", false)
	h.run(p)
	h.idle()

	require.True(t, p.Succeeded())
	require.True(t, p.Result().Is(filestate.ConversionTruncated))
	require.Equal(t, "abc", p.Buffer().Text())
	require.Equal(t, []string{"File appears to be truncated"}, h.reports)
}

func TestOpenRecent(t *testing.T) {
	h := newHarness(t)
	path := h.write("latin.txt", []byte("caf\xe9"), 0o644)

	file := h.load(path, "ISO-8859-1").Buffer()
	h.run(NewClose(h.env, file))
	h.idle()
	require.Equal(t, 1, h.env.Recent.Len())

	p := NewOpenRecent(h.env)
	h.run(p)
	pending := h.sched.Pending()
	require.NotNil(t, pending)
	require.Equal(t, []string{path}, pending.Options)

	require.NoError(t, h.sched.Resume(process.Answer{Choice: 0}))
	h.idle()
	require.True(t, p.Succeeded())
	require.Equal(t, "café", p.Buffer().Text())
	require.Equal(t, "ISO-8859-1", p.Buffer().Encoding())
	require.Zero(t, h.env.Recent.Len())
}

func TestOpenRecent_Empty(t *testing.T) {
	h := newHarness(t)

	p := NewOpenRecent(h.env)
	h.run(p)
	h.idle()
	require.False(t, p.Succeeded())
	require.Equal(t, []string{"No recently closed files"}, h.reports)
}

func TestOpenRecent_FailedKeepsEntry(t *testing.T) {
	h := newHarness(t)
	h.env.Recent.PushFront(buffer.RecentFile{Name: h.path("gone.txt"), Encoding: encoding.UTF8})

	p := NewOpenRecent(h.env)
	h.run(p)
	require.NoError(t, h.sched.Resume(process.Answer{Choice: 0}))
	h.idle()

	require.False(t, p.Succeeded())
	require.True(t, p.Result().Is(filestate.ErrnoError))
	require.Equal(t, 1, h.env.Recent.Len())
}
