package process

// Kind is what a suspended process is waiting for.
type Kind int

const (
	// Choice waits for one of a fixed set of options.
	Choice Kind = iota

	// Path waits for a file name.
	Path

	// Encoding waits for a character set tag.
	Encoding
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case Choice:
		return "choice"
	case Path:
		return "path"
	case Encoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Mode tells a path prompt whether the file is read or written.
type Mode int

const (
	ModeOpen Mode = iota
	ModeSave
)

// Prompt is the pending continuation of a suspended process: what to ask
// and how to resume with the answer.
type Prompt struct {
	Kind    Kind
	Mode    Mode     // Path prompts only
	Message string   // Question shown to the user
	Options []string // Choice prompts only

	// Initial is the suggested path or encoding.
	Initial string

	// Encoding is the encoding a path prompt starts with.
	Encoding string

	onAnswer func(Answer)
	onClose  func()
}

// Answer resumes a suspended process.
type Answer struct {
	// Choice is the index of the selected option.
	Choice int

	// Value is the path or encoding entered.
	Value string

	// Encoding optionally changes the encoding along with a path.
	Encoding string

	// Closed means the prompt was dismissed without an answer.
	Closed bool
}

// Closed is the answer for a dismissed prompt.
var Closed = Answer{Closed: true}

// Choose asks for one of options. Dismissing the prompt aborts the process
// unless OnClose is set.
func Choose(message string, options []string, onChoice func(int)) Prompt {
	return Prompt{
		Kind:     Choice,
		Message:  message,
		Options:  options,
		onAnswer: func(a Answer) { onChoice(a.Choice) },
	}
}

// AskPath asks for a file name. onPath receives the path and the encoding
// chosen with it, or enc when none was chosen.
func AskPath(mode Mode, message, initial, enc string, onPath func(path, enc string)) Prompt {
	return Prompt{
		Kind:     Path,
		Mode:     mode,
		Message:  message,
		Initial:  initial,
		Encoding: enc,
		onAnswer: func(a Answer) {
			chosen := enc
			if a.Encoding != "" {
				chosen = a.Encoding
			}
			onPath(a.Value, chosen)
		},
	}
}

// AskEncoding asks for a character set tag.
func AskEncoding(message, initial string, onTag func(tag string)) Prompt {
	return Prompt{
		Kind:     Encoding,
		Message:  message,
		Initial:  initial,
		onAnswer: func(a Answer) { onTag(a.Value) },
	}
}

// OnClose sets what happens when the prompt is dismissed.
func (p Prompt) OnClose(fn func()) Prompt {
	p.onClose = fn
	return p
}

func (p *Prompt) valid(a Answer) bool {
	if a.Closed {
		return true
	}
	switch p.Kind {
	case Choice:
		return a.Choice >= 0 && a.Choice < len(p.Options)
	case Path, Encoding:
		return a.Value != ""
	default:
		return false
	}
}
