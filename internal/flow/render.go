package flow

// Button is one inline button: a label and the action token it fires.
type Button struct {
	Label string
	Token string
}

// RenderInstruction describes what the transport should show next. It is
// deliberately opaque to the flows: actual message sending and editing happen
// outside this package.
type RenderInstruction struct {
	Text    string
	Buttons [][]Button
	// Edit asks the transport to edit the triggering message in place
	// instead of sending a new one (used for question-by-question flows).
	Edit bool
}

// Render builds a plain text instruction.
func Render(text string) *RenderInstruction {
	return &RenderInstruction{Text: text}
}

// RenderEdit builds a text instruction that replaces the triggering message.
func RenderEdit(text string) *RenderInstruction {
	return &RenderInstruction{Text: text, Edit: true}
}

// Row appends a row of buttons and returns the instruction for chaining.
func (r *RenderInstruction) Row(buttons ...Button) *RenderInstruction {
	r.Buttons = append(r.Buttons, buttons)
	return r
}
