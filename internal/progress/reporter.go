package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter shows that a blocking step, such as a session check, is running.
type Reporter interface {
	Start(message string)
	Finish()
}

// NewReporter returns a TerminalReporter writing to w, or a CIReporter if
// the CI environment variable is set.
func NewReporter(w io.Writer) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{w: w}
	}
	return &TerminalReporter{w: w}
}

// TerminalReporter displays a spinner until Finish.
type TerminalReporter struct {
	w    io.Writer
	bar  *progressbar.ProgressBar
	stop chan struct{}
	done sync.WaitGroup
}

func (r *TerminalReporter) Start(message string) {
	r.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(message),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	r.stop = make(chan struct{})
	r.done.Add(1)
	go func() {
		defer r.done.Done()
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-t.C:
				_ = r.bar.Add(1)
			}
		}
	}()
}

func (r *TerminalReporter) Finish() {
	if r.bar == nil {
		return
	}
	close(r.stop)
	r.done.Wait()
	_ = r.bar.Finish()
	r.bar = nil
}

// CIReporter prints one line per step, suitable for CI logs.
type CIReporter struct {
	w io.Writer
}

func (r *CIReporter) Start(message string) {
	fmt.Fprintf(r.w, "%s...\n", message)
}

func (r *CIReporter) Finish() {}
