package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"CharsetFinder/internal/scanner"
)

// reporter prints result rows and drives the progress bar.
type reporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
	max int64
}

func newReporter(out, barOut io.Writer, showBar bool) *reporter {
	r := &reporter{out: out}
	if showBar {
		r.bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(barOut),
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	return r
}

// consume drains events until the run completes and returns its outcome.
func (r *reporter) consume(events <-chan scanner.Event) scanner.Outcome {
	var outcome scanner.Outcome
	for ev := range events {
		switch e := ev.(type) {
		case scanner.ProgressEvent:
			r.progress(e.Progress)
		case scanner.CompletedEvent:
			outcome = e.Outcome
		}
	}
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	return outcome
}

func (r *reporter) progress(p scanner.ScanProgress) {
	if res := p.Result; res != nil {
		fmt.Fprintln(r.out, row(res))
	}
	if r.bar == nil {
		return
	}
	if p.Total != r.max {
		r.max = p.Total
		r.bar.ChangeMax64(p.Total)
	}
	_ = r.bar.Set64(p.Completed)
}

// row formats one result as "charset<TAB>path".
func row(res *scanner.FileResult) string {
	return res.Charset + "\t" + filepath.Join(res.Dir, res.Name)
}
