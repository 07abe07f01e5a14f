package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// separatorWidth is the width of the "=" separator lines
const separatorWidth = 80

// Instructions holds the values referenced by the manual steps
type Instructions struct {
	File       string
	Bucket     string
	Project    string
	ConsoleURL string
}

// GsutilCommand returns the command that applies the file to the bucket
func (i Instructions) GsutilCommand() string {
	return fmt.Sprintf("gsutil cors set %s gs://%s", i.File, i.Bucket)
}

// Reporter prints the generated configuration and the manual apply steps
type Reporter struct {
	out    io.Writer
	notice *color.Color
}

// NewReporter creates a reporter writing to out
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		out:    out,
		notice: color.New(color.FgYellow, color.Bold),
	}
}

// Print writes the report. serialized must be the exact bytes written to the file.
func (r *Reporter) Print(in Instructions, serialized []byte) error {
	separator := strings.Repeat("=", separatorWidth)
	w := &errWriter{w: r.out}

	w.printf("Created %s\n", in.File)
	w.printf("Contents: %s\n", serialized)
	w.printf("\n%s\n", separator)
	w.printf("%s\n", r.notice.Sprint("NOTE: You need to apply this manually using Firebase Console or gsutil."))
	w.printf("%s\n", separator)
	w.printf("\nTo apply CORS using gsutil, run:\n")
	w.printf("  %s\n", in.GsutilCommand())
	w.printf("\nOR configure it via Firebase Console:\n")
	for n, step := range consoleSteps(in) {
		w.printf("%d. %s\n", n+1, step)
	}
	w.printf("\n%s\n", separator)
	w.printf("Configuration ready in: %s\n", in.File)

	if w.err != nil {
		return fmt.Errorf("failed to print report: %w", w.err)
	}
	return nil
}

func consoleSteps(in Instructions) []string {
	return []string{
		fmt.Sprintf("Go to %s", in.ConsoleURL),
		fmt.Sprintf("Select '%s' project", in.Project),
		"Go to Storage > Files",
		"Click the bucket menu (...) > Edit CORS configuration",
		"Paste the JSON configuration above",
	}
}

// errWriter stops writing after the first error
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
