package render

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"goalchase/internal/scape"
)

var (
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleAgent  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleGoal   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// Terminal draws episode frames on a tcell screen. Esc, q or Ctrl-C mark it
// stopped, which the episode picks up as an external cancel.
type Terminal struct {
	screen tcell.Screen
	delay  time.Duration

	stopped   atomic.Bool
	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewTerminal takes ownership of screen, or opens the real terminal when
// screen is nil. delay paces frames so a person can follow the agent.
func NewTerminal(screen tcell.Screen, delay time.Duration) (*Terminal, error) {
	if screen == nil {
		var err error
		if screen, err = tcell.NewScreen(); err != nil {
			return nil, fmt.Errorf("open terminal: %w", err)
		}
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.HideCursor()
	screen.Clear()

	t := &Terminal{screen: screen, delay: delay, done: make(chan struct{})}
	go t.pollKeys()
	return t, nil
}

func (t *Terminal) pollKeys() {
	defer close(t.done)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if quitKey(ev) {
				t.stopped.Store(true)
			}
		case *tcell.EventResize:
			t.mu.Lock()
			t.screen.Sync()
			t.mu.Unlock()
		}
	}
}

func quitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

func (t *Terminal) Stopped() bool {
	return t.stopped.Load()
}

func (t *Terminal) Observe(frame scape.Frame) {
	t.mu.Lock()
	t.draw(frame)
	t.mu.Unlock()
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
}

// draw scales the grid into the screen below a one-line status bar.
func (t *Terminal) draw(frame scape.Frame) {
	t.screen.Clear()
	w, h := t.screen.Size()

	status := fmt.Sprintf("tick %d  goals %d  fitness %.4f  [q/esc quits]", frame.Tick, frame.GoalsFound, frame.Fitness)
	drawText(t.screen, 0, 0, status, styleStatus)

	cols, rows := w-2, h-3
	if cols <= 0 || rows <= 0 || frame.Bounds.Width <= 0 || frame.Bounds.Height <= 0 {
		t.screen.Show()
		return
	}
	for x := 0; x < cols+2; x++ {
		t.screen.SetContent(x, 1, '-', nil, styleBorder)
		t.screen.SetContent(x, rows+2, '-', nil, styleBorder)
	}
	for y := 2; y < rows+2; y++ {
		t.screen.SetContent(0, y, '|', nil, styleBorder)
		t.screen.SetContent(cols+1, y, '|', nil, styleBorder)
	}

	gx, gy := Cell(frame.Goal, frame.Bounds, cols, rows)
	t.screen.SetContent(gx+1, gy+2, '*', nil, styleGoal)
	ax, ay := Cell(frame.Agent, frame.Bounds, cols, rows)
	t.screen.SetContent(ax+1, ay+2, '@', nil, styleAgent)
	t.screen.Show()
}

// Cell maps a grid position onto a cols x rows drawing area.
func Cell(p scape.Position, bounds scape.Bounds, cols, rows int) (int, int) {
	return p.X * cols / bounds.Width, p.Y * rows / bounds.Height
}

// Close restores the terminal. It is safe to call more than once.
func (t *Terminal) Close() {
	t.closeOnce.Do(func() {
		t.screen.Fini()
		<-t.done
	})
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
