package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dshills/quill/internal/encoding"
	"github.com/dshills/quill/internal/process"
	"golang.org/x/term"
)

// Terminal asks the questions of suspended pipelines on a line-oriented
// console.
//
// Lines are read by a single goroutine so that a read can be abandoned when
// the context is cancelled. End of input dismisses a prompt. So does an
// empty answer, except that it accepts the initial value of a path prompt.
type Terminal struct {
	in        io.Reader
	out       io.Writer
	encodings *encoding.Registry

	// echo repeats input lines that did not come from a terminal, so
	// transcripts of scripted sessions read like interactive ones.
	echo bool

	lines chan string
}

// NewTerminal creates a terminal reading answers from in.
func NewTerminal(in io.Reader, out io.Writer, encodings *encoding.Registry) *Terminal {
	return &Terminal{
		in:        in,
		out:       out,
		encodings: encodings,
		echo:      !isTerminal(in),
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// Printf writes a formatted line.
func (t *Terminal) Printf(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

func (t *Terminal) start() {
	if t.lines != nil {
		return
	}
	lines := make(chan string)
	t.lines = lines
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
}

// ReadLine shows prompt and returns the next input line. It returns io.EOF
// at the end of input and the context error when ctx is done first.
func (t *Terminal) ReadLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	t.start()

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return "", ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			fmt.Fprintln(t.out)
			return "", io.EOF
		}
		if t.echo {
			fmt.Fprintln(t.out, line)
		}
		return strings.TrimRight(line, "\r"), nil
	}
}

// readAnswer reads a trimmed line. It returns io.EOF at the end of input.
func (t *Terminal) readAnswer(ctx context.Context, prompt string) (string, error) {
	line, err := t.ReadLine(ctx, prompt)
	return strings.TrimSpace(line), err
}

// dismissed answers a prompt whose read failed with err. End of input
// closes the prompt; other errors are returned.
func dismissed(err error) (process.Answer, error) {
	if errors.Is(err, io.EOF) {
		return process.Closed, nil
	}
	return process.Closed, err
}

// Ask shows p and reads an answer for it.
func (t *Terminal) Ask(ctx context.Context, p *process.Prompt) (process.Answer, error) {
	switch p.Kind {
	case process.Choice:
		return t.askChoice(ctx, p)
	case process.Path:
		return t.askPath(ctx, p)
	case process.Encoding:
		return t.askEncoding(ctx, p)
	default:
		return process.Closed, fmt.Errorf("unsupported prompt kind %s", p.Kind)
	}
}

func (t *Terminal) askChoice(ctx context.Context, p *process.Prompt) (process.Answer, error) {
	t.Printf("%s", p.Message)
	for i, opt := range p.Options {
		t.Printf("  %d) %s", i+1, opt)
	}

	for {
		line, err := t.readAnswer(ctx, "> ")
		if err != nil {
			return dismissed(err)
		}
		if line == "" {
			return process.Closed, nil
		}
		if i, found := pickOption(line, p.Options); found {
			return process.Answer{Choice: i}, nil
		}
		t.Printf("Enter a number from 1 to %d, or nothing to cancel", len(p.Options))
	}
}

// pickOption accepts a 1-based option number or the option text.
func pickOption(line string, options []string) (int, bool) {
	if n, err := strconv.Atoi(line); err == nil {
		return n - 1, n >= 1 && n <= len(options)
	}
	for i, opt := range options {
		if strings.EqualFold(line, opt) {
			return i, true
		}
	}
	return 0, false
}

func (t *Terminal) askPath(ctx context.Context, p *process.Prompt) (process.Answer, error) {
	prompt := fmt.Sprintf("%s (%s)", p.Message, p.Encoding)
	if p.Initial != "" {
		prompt += fmt.Sprintf(" [%s]", p.Initial)
	}

	line, err := t.readAnswer(ctx, prompt+": ")
	switch {
	case err != nil:
		return dismissed(err)
	case line != "":
		return process.Answer{Value: line}, nil
	case p.Initial != "":
		return process.Answer{Value: p.Initial}, nil
	default:
		return process.Closed, nil
	}
}

// askEncoding lists the available character sets followed by an "Other"
// entry for a manually typed tag. Tags without a converter are refused.
func (t *Terminal) askEncoding(ctx context.Context, p *process.Prompt) (process.Answer, error) {
	charsets := t.encodings.Available()
	other := len(charsets) + 1

	t.Printf("%s", p.Message)
	for i, cs := range charsets {
		mark := ""
		if p.Initial != "" && t.encodings.Equivalent(cs.Tag, p.Initial) {
			mark = " (default)"
		}
		t.Printf("  %d) %s%s", i+1, cs.Name, mark)
	}
	t.Printf("  %d) Other", other)

	for {
		line, err := t.readAnswer(ctx, "> ")
		if err != nil {
			return dismissed(err)
		}
		if line == "" {
			return process.Closed, nil
		}

		if n, convErr := strconv.Atoi(line); convErr == nil {
			switch {
			case n >= 1 && n < other:
				return process.Answer{Value: charsets[n-1].Tag}, nil
			case n == other:
				line, err = t.readAnswer(ctx, "Encoding name: ")
				if err != nil {
					return dismissed(err)
				}
				if line == "" {
					continue
				}
			default:
				t.Printf("Enter a number from 1 to %d, or nothing to cancel", other)
				continue
			}
		}

		if t.encodings.Probe(line) {
			return process.Answer{Value: line}, nil
		}
		t.Printf("No converter available for '%s'", line)
	}
}
