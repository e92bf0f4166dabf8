package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/view"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is a progress indicator that stops when its context is cancelled.
type Spinner struct {
	w       io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	manual  atomic.Bool

	mu      sync.Mutex
	message string
	width   int
}

// newSpinner creates a spinner writing to w.
func newSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{w: w, ctx: ctx, cancel: cancel, stopped: make(chan struct{}), message: message}
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.mu.Lock()
				line := styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]) + " " + StyleDim.Render(s.message)
				s.width = max(s.width, len(s.message)+4)
				fmt.Fprintf(s.w, "\r%s", line)
				s.mu.Unlock()
			}
		}
	}()
}

// SetMessage replaces the text next to the animation.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

// Stop stops the animation and clears the line. It is idempotent.
func (s *Spinner) Stop() {
	if s.ctx.Err() == nil {
		s.manual.Store(true)
	}
	s.cancel()
	<-s.stopped
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// Cancelled reports whether the parent context ended the spinner.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil && !s.manual.Load()
}

// termUI is the view.UI of the one-shot commands: a spinner while busy,
// the result panel and status lines on stdout.
type termUI struct {
	ctx context.Context
	w   io.Writer

	mu      sync.Mutex
	spinner *Spinner
}

var _ view.UI = (*termUI)(nil)

func newTermUI(ctx context.Context, w io.Writer) *termUI {
	return &termUI{ctx: ctx, w: w}
}

func (u *termUI) ShowView(m view.Mode, title string) {
	printInfo("%s", StyleTitle.Render(title))
}

func (u *termUI) SetBusy(busy bool, msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch {
	case busy && u.spinner == nil:
		u.spinner = newSpinner(u.ctx, u.w, msg)
		u.spinner.Start()
	case busy:
		u.spinner.SetMessage(msg)
	case u.spinner != nil:
		u.spinner.Stop()
		u.spinner = nil
	}
}

func (u *termUI) ShowResult(r *route.Result) {
	fmt.Println()
	printResult(r, r.Start(), r.End())
	fmt.Println()
}

func (u *termUI) Notify(n view.Notice, msg string) {
	if n == view.NoticeFailure {
		printError("%s", msg)
		return
	}
	printWarning("%s", msg)
}
