package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// StepSpinner prints one line per startup step. On a terminal the running
// step animates; otherwise the label is printed plainly and the mark is
// appended when the step ends.
type StepSpinner struct {
	out     io.Writer
	plain   bool
	label   string
	spin    *spinner.Spinner
	running bool
}

// NewStepSpinner writes steps to out. plain disables the animation.
func NewStepSpinner(out io.Writer, plain bool) *StepSpinner {
	return &StepSpinner{out: out, plain: plain}
}

// Step runs fn as a labeled step and marks it done or failed by its error.
func (ss *StepSpinner) Step(label string, fn func() error) error {
	ss.Start(label)
	if err := fn(); err != nil {
		ss.Fail()
		return err
	}
	ss.Done()
	return nil
}

// Start begins a step labeled label.
func (ss *StepSpinner) Start(label string) {
	ss.label = label
	if ss.plain {
		fmt.Fprintf(ss.out, "  %s", label)
		return
	}
	ss.spin = spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(ss.out))
	ss.spin.Prefix = "  "
	ss.spin.Suffix = " " + label
	ss.spin.Start()
	ss.running = true
}

// Done ends the current step with a check mark.
func (ss *StepSpinner) Done() { ss.end(StyleSuccess.Render(SymbolCheck)) }

// Fail ends the current step with a cross.
func (ss *StepSpinner) Fail() { ss.end(StyleError.Render(SymbolCross)) }

// Stop halts the animation without a mark.
func (ss *StepSpinner) Stop() {
	if ss.running {
		ss.spin.Stop()
		ss.running = false
	}
}

func (ss *StepSpinner) end(mark string) {
	if ss.plain {
		fmt.Fprintf(ss.out, " %s\n", mark)
		return
	}
	ss.Stop()
	fmt.Fprintf(ss.out, "\r  %s %s\n", ss.label, mark)
}
