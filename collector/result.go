package collector

import (
	"fmt"
	"io"

	"github.com/kbukum/previewkit/manifest"
	"github.com/kbukum/previewkit/pipeline"
)

// Result is the outcome of one collector run.
type Result struct {
	Report   *pipeline.Report
	Manifest *manifest.Manifest
	// ManifestKey is where the manifest was stored, empty when it was not.
	ManifestKey string
}

// OK reports whether every input produced a thumbnail.
func (r *Result) OK() bool {
	return r.Report != nil && !r.Report.Canceled && r.Report.Errors == 0
}

// WriteSummary prints the end-of-run summary.
func (r *Result) WriteSummary(w io.Writer) error {
	rep := r.Report
	noun := "errors"
	if rep.Errors == 1 {
		noun = "error"
	}
	_, err := fmt.Fprintf(w,
		"From %d urls downloaded %d files\nDownloaded %d bytes.\nCreated %d files.\n%d %s occurred.\nWorking time: %.2f s.\n",
		rep.Inputs, rep.Produced, rep.Units, rep.Created, rep.Errors, noun, rep.Elapsed.Seconds())
	if err != nil {
		return err
	}
	if rep.Canceled {
		_, err = fmt.Fprintln(w, "Run was interrupted before all urls were processed.")
	}
	return err
}
