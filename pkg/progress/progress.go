// Package progress wraps terminal progress bars with nested contexts and a
// completion line.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 📊 Bar is one visible progress bar
type Bar interface {
	Add(n int)
	SetTitle(title string)
	Stop()
}

// BarFactory starts a bar with a title and total, drawing to w.
type BarFactory func(title string, total int, w io.Writer) (Bar, error)

// ptermBar adapts pterm's progress bar printer to Bar
type ptermBar struct {
	p *pterm.ProgressbarPrinter
}

func (b *ptermBar) Add(n int)             { b.p.Add(n) }
func (b *ptermBar) SetTitle(title string) { b.p.UpdateTitle(title) }
func (b *ptermBar) Stop()                 { _, _ = b.p.Stop() }

// 🏭 PtermBar is the default BarFactory
func PtermBar(title string, total int, w io.Writer) (Bar, error) {
	p, err := pterm.DefaultProgressbar.
		WithTotal(max(total, 1)).
		WithTitle(title).
		WithWriter(w).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return nil, errors.Errorf("starting progress bar: %w", err)
	}
	return &ptermBar{p: p}, nil
}

// frame is a suspended parent context
type frame struct {
	description string
	total       int
	current     int
}

// 🎯 Tracker follows one operation, optionally through nested steps
type Tracker struct {
	description string
	total       int
	current     int

	out    io.Writer
	newBar BarFactory
	now    func() time.Time

	start time.Time
	bar   Bar
	stack []frame
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithWriter sets where bars and the completion line go.
func WithWriter(w io.Writer) Option {
	return func(t *Tracker) { t.out = w }
}

// WithBarFactory replaces the pterm bar.
func WithBarFactory(f BarFactory) Option {
	return func(t *Tracker) { t.newBar = f }
}

// 🏭 New creates a tracker; nothing is drawn until Start
func New(description string, total int, opts ...Option) *Tracker {
	t := &Tracker{
		description: description,
		total:       total,
		out:         os.Stderr,
		newBar:      PtermBar,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ForPointCloud titles a tracker "op (1,234 points)" with count as the total.
func ForPointCloud(op string, count int, opts ...Option) *Tracker {
	p := message.NewPrinter(language.English)
	return New(p.Sprintf("%s (%d points)", op, count), count, opts...)
}

// Description is the tracker's title.
func (t *Tracker) Description() string { return t.description }

// Current is the progress within the active context.
func (t *Tracker) Current() int { return t.current }

// Depth is the number of suspended parent contexts.
func (t *Tracker) Depth() int { return len(t.stack) }

// ▶️ Start begins timing and draws the bar
func (t *Tracker) Start() error {
	t.start = t.now()
	return t.openBar(t.description, t.total, 0)
}

func (t *Tracker) openBar(title string, total, done int) error {
	bar, err := t.newBar(title, total, t.out)
	if err != nil {
		return err
	}
	if done > 0 {
		bar.Add(done)
	}
	t.bar = bar
	return nil
}

func (t *Tracker) closeBar() {
	if t.bar != nil {
		t.bar.Stop()
		t.bar = nil
	}
}

// Update advances by amount; a non-empty desc retitles the bar.
func (t *Tracker) Update(amount int, desc string) {
	t.current += amount
	if t.bar == nil {
		return
	}
	if amount > 0 {
		t.bar.Add(amount)
	}
	if desc != "" {
		t.bar.SetTitle(desc)
	}
}

// SetProgress moves to an absolute position.
func (t *Tracker) SetProgress(current int, desc string) {
	t.Update(current-t.current, desc)
}

// ⤵️ PushContext suspends the current bar and starts a nested one
func (t *Tracker) PushContext(desc string, total int) error {
	t.stack = append(t.stack, frame{description: t.description, total: t.total, current: t.current})
	t.closeBar()

	t.description = desc
	t.total = total
	t.current = 0
	return t.openBar(desc, total, 0)
}

// ⤴️ PopContext closes the nested bar and resumes its parent.
// It does nothing without a pushed context.
func (t *Tracker) PopContext() error {
	if len(t.stack) == 0 {
		return nil
	}
	t.closeBar()

	parent := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	t.description = parent.description
	t.total = parent.total
	t.current = parent.current
	return t.openBar(parent.description, parent.total, parent.current)
}

// ⏹️ Stop closes every bar and prints the outcome with the elapsed time
func (t *Tracker) Stop(err error) {
	for len(t.stack) > 0 {
		parent := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.description = parent.description
	}
	t.closeBar()

	elapsed := t.now().Sub(t.start).Seconds()
	if err == nil {
		fmt.Fprintf(t.out, "%s %s completed in %.2fs\n", color.New(color.FgGreen).Sprint("✓"), t.description, elapsed)
		return
	}
	fmt.Fprintf(t.out, "%s %s failed after %.2fs\n", color.New(color.FgRed).Sprint("✗"), t.description, elapsed)
}

// Run starts t, calls fn and stops with fn's error.
func (t *Tracker) Run(fn func(t *Tracker) error) error {
	if err := t.Start(); err != nil {
		return err
	}
	err := fn(t)
	t.Stop(err)
	return err
}
