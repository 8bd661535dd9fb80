// Package progress renders a single batch progress bar for an upload run.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/dart-platform/dart-cli/internal/constants"
	"github.com/dart-platform/dart-cli/internal/models"
)

// isTerminal is swapped in tests.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// BatchUI tracks completed tasks against the run total. The bar is drawn on
// the log stream itself, and only when that stream is a terminal; otherwise
// every method is a cheap no-op and LogWriter returns the log writer
// unchanged.
type BatchUI struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	fallback io.Writer
	active   bool

	// mu guards finished. Writes hold it for reading so that none reach
	// the container after Wait.
	mu       sync.RWMutex
	finished bool

	succeeded int32
	failed    int32
	cancelled int32

	finishOnce sync.Once
}

// NewBatchUI creates the UI for total tasks. logOut is where log lines go;
// the bar shares it. enabled=false forces the non-terminal behavior.
func NewBatchUI(total int, enabled bool, logOut io.Writer) *BatchUI {
	if logOut == nil {
		logOut = os.Stdout
	}
	u := &BatchUI{fallback: logOut}

	out, ok := terminalOf(logOut)
	if !enabled || total <= 0 || !ok {
		return u
	}
	enableANSI(out)

	u.active = true
	u.progress = mpb.New(
		mpb.WithOutput(out),
		mpb.WithAutoRefresh(),
		mpb.WithRefreshRate(constants.ProgressUpdateInterval),
		mpb.WithWidth(60),
	)
	u.bar = u.progress.New(int64(total),
		mpb.BarStyle().
			Lbound("[").
			Filler("█").
			Tip("█").
			Padding("░").
			Rbound("]"),
		mpb.PrependDecorators(
			decor.Name("Posting ", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.Name("  "),
			decor.Any(func(decor.Statistics) string {
				return u.counts()
			}, decor.WCSyncSpace),
			decor.Name("  "),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
		),
	)
	return u
}

// terminalOf returns w as a file when it is an interactive terminal.
func terminalOf(w io.Writer) (*os.File, bool) {
	f, ok := w.(*os.File)
	if !ok || f == nil || !isTerminal(f) {
		return nil, false
	}
	return f, true
}

// Increment records one finished task.
func (u *BatchUI) Increment(kind models.OutcomeKind) {
	switch kind {
	case models.Succeeded:
		atomic.AddInt32(&u.succeeded, 1)
	case models.Failed:
		atomic.AddInt32(&u.failed, 1)
	case models.Cancelled:
		atomic.AddInt32(&u.cancelled, 1)
	}
	if u.bar != nil {
		u.bar.Increment()
	}
}

func (u *BatchUI) counts() string {
	s := fmt.Sprintf("ok %d  failed %d",
		atomic.LoadInt32(&u.succeeded),
		atomic.LoadInt32(&u.failed))
	if c := atomic.LoadInt32(&u.cancelled); c > 0 {
		s += fmt.Sprintf("  cancelled %d", c)
	}
	return s
}

// Finish stops rendering. A bar that did not reach its total (cancelled
// run) is aborted but left visible. Lines written through LogWriter
// afterwards go straight to the log stream.
func (u *BatchUI) Finish() {
	u.finishOnce.Do(func() {
		if u.progress == nil {
			return
		}
		u.mu.Lock()
		defer u.mu.Unlock()
		if !u.bar.Completed() {
			u.bar.Abort(false)
		}
		u.progress.Wait()
		u.finished = true
	})
}

// LogWriter returns a writer that prints above the bar while it is active.
func (u *BatchUI) LogWriter() io.Writer {
	if u.active {
		return barWriter{u}
	}
	return u.fallback
}

// barWriter routes writes through the container until Finish.
type barWriter struct{ u *BatchUI }

func (w barWriter) Write(p []byte) (int, error) {
	w.u.mu.RLock()
	defer w.u.mu.RUnlock()
	if w.u.finished {
		return w.u.fallback.Write(p)
	}
	return w.u.progress.Write(p)
}

// IsTerminal reports whether the bar is being rendered.
func (u *BatchUI) IsTerminal() bool {
	return u.active
}

// Elapsed formats d as minutes with two decimals, as used in run summaries.
func Elapsed(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Minutes())
}
