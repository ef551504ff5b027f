// Package output provides adapters for writing operator-facing output.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// Writer reports release progress and failures to the operator.
// Remediation messages and raw failure detail go to stderr; the
// success summary goes to stdout.
type Writer struct {
	out    io.Writer
	errOut io.Writer
}

// NewWriter creates a Writer on the process's stdout and stderr.
func NewWriter() *Writer {
	return &Writer{out: os.Stdout, errOut: os.Stderr}
}

// NewWriterWithStreams creates a Writer with custom destinations.
// This is useful for testing.
func NewWriterWithStreams(out, errOut io.Writer) *Writer {
	return &Writer{out: out, errOut: errOut}
}

// Blocked reports a failed precondition or sync step. Raw detail (the
// dirty status listing) is printed before the remediation message so
// the operator sees exactly what blocked the release.
func (w *Writer) Blocked(err *domain.BlockedError) {
	if err.Detail != "" {
		fmt.Fprint(w.errOut, err.Detail)
	}
	fmt.Fprintf(w.errOut, "release blocked: %s\n", err.Message)
}

// Failed reports a non-precondition failure.
func (w *Writer) Failed(err error) {
	fmt.Fprintf(w.errOut, "error: %v\n", err)
}

// Ready reports that every precondition holds.
func (w *Writer) Ready(rc domain.ReleaseContext) {
	fmt.Fprintf(w.out, "%s is ready to release (tag %s on %s)\n",
		rc.Version.String(), rc.Tag, rc.Commit)
}

// Released reports a completed release.
func (w *Writer) Released(rc domain.ReleaseContext) {
	fmt.Fprintf(w.out, "released %s %s (tag %s, commit %s)\n",
		rc.Library, rc.Version.String(), rc.Tag, rc.Commit)
}

// Version reports the resolved version and the version the next
// commit would carry.
func (w *Writer) Version(v domain.Version) {
	fmt.Fprintf(w.out, "version: %s\ntag:     %s\nnext:    %s\n",
		v.String(), v.Tag(), v.Next().String())
}
