package cli

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress shows a spinner on stderr while a long operation runs. A quiet
// progress does nothing.
type Progress struct {
	s *spinner.Spinner
}

// StartProgress starts a spinner with message unless quiet is set.
func StartProgress(message string, quiet bool) *Progress {
	return startProgress(os.Stderr, message, quiet)
}

func startProgress(w io.Writer, message string, quiet bool) *Progress {
	if quiet {
		return &Progress{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	return &Progress{s: s}
}

// Stop stops the spinner, printing a red failure line when err is set.
func (p *Progress) Stop(err error) {
	if p == nil || p.s == nil {
		return
	}
	if err != nil {
		p.s.FinalMSG = text.FgRed.Sprint("✗"+p.s.Suffix) + "\n"
	}
	p.s.Stop()
}
