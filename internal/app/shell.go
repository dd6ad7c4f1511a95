package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/pipeline"
	"github.com/dshills/quill/internal/process"
	"github.com/spf13/pflag"
)

// ErrUnsavedChanges indicates input ended while buffers still had unsaved
// changes the user did not decide on.
var ErrUnsavedChanges = errors.New("unsaved changes")

type command struct {
	name  string
	usage string
	help  string
	run   func(app *Application, ctx context.Context, args string) error
}

var commands = []command{
	{"ls", "", "List open buffers", (*Application).cmdList},
	{"recent", "", "List recently closed files", (*Application).cmdRecent},
	{"new", "", "Create an untitled buffer", (*Application).cmdNew},
	{"open", "[-e encoding] [path]", "Open a file", (*Application).cmdOpen},
	{"reopen", "", "Open a recently closed file", (*Application).cmdReopen},
	{"switch", "n", "Make buffer n current", (*Application).cmdSwitch},
	{"save", "", "Save the current buffer", (*Application).cmdSave},
	{"saveas", "[-e encoding] [path]", "Save the current buffer under a new name", (*Application).cmdSaveAs},
	{"close", "", "Close the current buffer", (*Application).cmdClose},
	{"edit", "text", "Replace the content of the current buffer", (*Application).cmdEdit},
	{"append", "text", "Append a line to the current buffer", (*Application).cmdAppend},
	{"goto", "line [column]", "Move the cursor", (*Application).cmdGoto},
	{"show", "", "Print the current buffer", (*Application).cmdShow},
	{"quit", "", "Close every buffer and exit", (*Application).cmdQuit},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (app *Application) shell(ctx context.Context) error {
	app.ui.Printf("Type 'help' for a list of commands")

	for {
		line, err := app.ui.ReadLine(ctx, app.promptLine())
		if errors.Is(err, io.EOF) {
			if err := app.cmdQuit(ctx, ""); err != nil {
				return err
			}
			return app.unsavedError()
		}
		if err != nil {
			return err
		}

		err = app.Dispatch(ctx, line)
		switch {
		case errors.Is(err, ErrQuit):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			app.log.Debug("command failed: %v", err)
			app.ui.Printf("Error: %v", err)
		}
	}
}

// unsavedError names the buffers an exit left open with unsaved changes.
func (app *Application) unsavedError() error {
	var names []string
	for _, file := range app.env.Open.Modified() {
		names = append(names, file.DisplayName())
	}
	return fmt.Errorf("%w: %s", ErrUnsavedChanges, strings.Join(names, ", "))
}

func (app *Application) promptLine() string {
	if app.current == nil {
		return "quill> "
	}
	name := app.current.DisplayName()
	if app.current.Modified() {
		name += "*"
	}
	return name + "> "
}

// Dispatch runs one shell command line.
func (app *Application) Dispatch(ctx context.Context, line string) error {
	name, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	args = strings.TrimSpace(args)

	switch name {
	case "":
		return nil
	case "help", "?":
		app.printHelp()
		return nil
	case "exit", "q":
		name = "quit"
	}

	cmd, ok := lookupCommand(name)
	if !ok {
		return &CommandError{Command: name, Err: ErrUnknownCommand}
	}

	app.log.Debug("command %s", name)
	if err := cmd.run(app, ctx, args); err != nil {
		if errors.Is(err, ErrQuit) {
			return err
		}
		return &CommandError{Command: name, Target: args, Err: err}
	}
	return nil
}

func (app *Application) printHelp() {
	for _, c := range commands {
		app.ui.Printf("  %-28s %s", strings.TrimSpace(c.name+" "+c.usage), c.help)
	}
	app.ui.Printf("  %-28s %s", "help", "Show this list")
}

// fileArgs parses "[-e encoding] [path]". A path answers the pipeline's file
// prompt instead of asking for it.
func fileArgs(name, args string) (*process.Answer, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	enc := flags.StringP("encoding", "e", "", "character set of the file")

	if err := flags.Parse(strings.Fields(args)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	switch flags.NArg() {
	case 0:
		if *enc != "" {
			return nil, fmt.Errorf("%w: --encoding needs a path", ErrUsage)
		}
		return nil, nil
	case 1:
		return &process.Answer{Value: flags.Arg(0), Encoding: *enc}, nil
	default:
		return nil, fmt.Errorf("%w: expected one path", ErrUsage)
	}
}

func (app *Application) requireCurrent() (*buffer.FileBuffer, error) {
	if app.current == nil {
		return nil, ErrNoBuffer
	}
	return app.current, nil
}

func (app *Application) cmdList(context.Context, string) error {
	for i, name := range app.openView.Names() {
		mark := " "
		if app.env.Open.At(i) == app.current {
			mark = ">"
		}
		app.ui.Printf("%s%2d %s", mark, i+1, name)
	}
	return nil
}

func (app *Application) cmdRecent(context.Context, string) error {
	names := app.recentView.Names()
	if len(names) == 0 {
		app.ui.Printf("No recently closed files")
	}
	for i, name := range names {
		app.ui.Printf(" %2d %s", i+1, name)
	}
	return nil
}

func (app *Application) cmdNew(context.Context, string) error {
	app.newBuffer()
	return nil
}

func (app *Application) cmdOpen(ctx context.Context, args string) error {
	preset, err := fileArgs("open", args)
	if err != nil {
		return err
	}

	p := pipeline.NewLoad(app.env).Supersede(app.current)
	if err := app.execute(ctx, p, preset); err != nil {
		return err
	}
	app.logOutcome("load", p.Path(), p.Succeeded(), p.Result())
	if p.Succeeded() {
		app.show(p.Buffer())
		if p.Reused() {
			app.ui.Printf("Switched to %s", p.Buffer().DisplayName())
		} else {
			app.ui.Printf("Opened %s (%s)", p.Buffer().DisplayName(), app.charsetName(p.Buffer().Encoding()))
		}
	}
	return nil
}

func (app *Application) cmdReopen(ctx context.Context, _ string) error {
	p := pipeline.NewOpenRecent(app.env)
	if err := app.execute(ctx, p, nil); err != nil {
		return err
	}
	app.logOutcome("load", p.Path(), p.Succeeded(), p.Result())
	if p.Succeeded() {
		app.show(p.Buffer())
		app.ui.Printf("Opened %s (%s)", p.Buffer().DisplayName(), app.charsetName(p.Buffer().Encoding()))
	}
	return nil
}

func (app *Application) cmdSwitch(_ context.Context, args string) error {
	n, err := strconv.Atoi(args)
	if err != nil || n < 1 || n > app.env.Open.Len() {
		return fmt.Errorf("%w: expected a buffer number from 1 to %d", ErrUsage, app.env.Open.Len())
	}
	app.show(app.env.Open.At(n - 1))
	return nil
}

func (app *Application) cmdSave(ctx context.Context, _ string) error {
	file, err := app.requireCurrent()
	if err != nil {
		return err
	}
	return app.runSave(ctx, pipeline.NewSave(app.env, file), nil)
}

func (app *Application) cmdSaveAs(ctx context.Context, args string) error {
	file, err := app.requireCurrent()
	if err != nil {
		return err
	}
	preset, err := fileArgs("saveas", args)
	if err != nil {
		return err
	}
	return app.runSave(ctx, pipeline.NewSaveAs(app.env, file), preset)
}

func (app *Application) runSave(ctx context.Context, p *pipeline.SaveAsProcess, preset *process.Answer) error {
	if err := app.execute(ctx, p, preset); err != nil {
		return err
	}
	file := p.Buffer()
	app.logOutcome("save", file.DisplayName(), p.Succeeded(), p.Result())
	if !p.Succeeded() {
		return nil
	}

	app.ui.Printf("Saved %s (%s)", file.DisplayName(), file.Encoding())
	if p.HighlightChanged() {
		app.ui.Printf("Highlighting: %s", file.Highlight())
	}
	return nil
}

func (app *Application) cmdClose(ctx context.Context, _ string) error {
	file, err := app.requireCurrent()
	if err != nil {
		return err
	}

	p := pipeline.NewClose(app.env, file)
	if err := app.execute(ctx, p, nil); err != nil {
		return err
	}
	app.logOutcome("close", file.DisplayName(), p.Succeeded(), p.Result())
	if p.Succeeded() {
		app.ui.Printf("Closed %s", file.DisplayName())
		app.current = nil
		app.showLast()
	}
	return nil
}

// charsetName returns the display name of an encoding tag, or the tag
// itself when the catalogue does not list it.
func (app *Application) charsetName(tag string) string {
	if cs, ok := app.env.Encodings.Lookup(tag); ok {
		return cs.Name
	}
	return tag
}

// unescape interprets Go string escapes such as \n and \t, returning s
// unchanged when it is not a valid quoted string body.
func unescape(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}

func (app *Application) cmdEdit(_ context.Context, args string) error {
	file, err := app.requireCurrent()
	if err != nil {
		return err
	}
	file.Edit(unescape(args))
	app.openView.Invalidate()
	return nil
}

func (app *Application) cmdAppend(_ context.Context, args string) error {
	file, err := app.requireCurrent()
	if err != nil {
		return err
	}
	file.Edit(file.Text() + unescape(args) + "\n")
	app.openView.Invalidate()
	return nil
}

func (app *Application) cmdGoto(_ context.Context, args string) error {
	file, err := app.requireCurrent()
	if err != nil {
		return err
	}

	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return fmt.Errorf("%w: expected line [column]", ErrUsage)
	}
	nums := []int{pipeline.Unset, pipeline.Unset}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrUsage, f)
		}
		nums[i] = n
	}

	file.GotoPos(nums[0], nums[1])
	pos := file.Cursor()
	app.ui.Printf("%d:%d", pos.Line, pos.Column)
	return nil
}

func (app *Application) cmdShow(context.Context, string) error {
	file, err := app.requireCurrent()
	if err != nil {
		return err
	}

	attrs := []string{app.charsetName(file.Encoding())}
	if file.BOM() {
		attrs = append(attrs, "BOM")
	}
	if file.Highlight() != "" {
		attrs = append(attrs, file.Highlight())
	}
	if file.Modified() {
		attrs = append(attrs, "modified")
	}
	pos := file.Cursor()

	app.ui.Printf("%s (%s) %d:%d", file.DisplayName(), strings.Join(attrs, ", "), pos.Line, pos.Column)
	app.ui.Printf("%s", strings.TrimSuffix(file.Text(), "\n"))
	return nil
}

func (app *Application) cmdQuit(ctx context.Context, _ string) error {
	p := pipeline.NewExit(app.env)
	if err := app.execute(ctx, p, nil); err != nil {
		return err
	}
	if !p.Succeeded() {
		if !app.env.Open.Contains(app.current) {
			app.current = nil
			app.showLast()
		}
		return nil
	}
	return ErrQuit
}
