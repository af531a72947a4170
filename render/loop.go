// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/loop.go
// Summary: The consumer-side frame loop: acquire, replay, show.

package render

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/sketchwire/canvas"
	"github.com/framegrace/sketchwire/protocol"
)

// Loop drives the render side. Once per tick it polls the shared state for a
// freshly committed batch and replays the display buffer — every frame,
// whether or not a new batch arrived, so the last picture persists while the
// producer is idle or gone.
type Loop struct {
	screen tcell.Screen
	state  *canvas.SharedState
	sink   *ScreenSink
	bar    *StatusBar
	fps    int

	quit chan struct{}
}

// NewLoop wires the loop over an initialised screen.
func NewLoop(screen tcell.Screen, state *canvas.SharedState, reader *protocol.Reader, fps int) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{
		screen: screen,
		state:  state,
		sink:   NewScreenSink(screen),
		bar:    NewStatusBar(screen, reader),
		fps:    fps,
		quit:   make(chan struct{}),
	}
}

// Run blocks until the user quits (Ctrl-C, Esc or q) or Stop is called.
// The reader goroutine keeps running independently; a closed input leaves the
// last batch on screen until the loop exits.
func (l *Loop) Run() error {
	eventChan := make(chan tcell.Event, 10)
	go func() {
		for {
			select {
			case <-l.quit:
				return
			default:
				eventChan <- l.screen.PollEvent()
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(l.fps))
	defer ticker.Stop()

	l.frame()
	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					l.Stop()
					return nil
				}
			case *tcell.EventResize:
				l.screen.Sync()
			}
		case <-ticker.C:
			l.frame()
		case <-l.quit:
			return nil
		}
	}
}

// Stop terminates Run. Safe to call more than once.
func (l *Loop) Stop() {
	select {
	case <-l.quit:
	default:
		close(l.quit)
	}
}

// frame renders one frame. Acquire never blocks; when no new batch is ready
// the previous display buffer is replayed unchanged.
func (l *Loop) frame() {
	width, height := l.screen.Size()
	canvasHeight := height - 1
	if canvasHeight < 0 {
		canvasHeight = 0
	}

	buf, _ := l.state.Acquire()
	l.sink.BeginFrame(width, canvasHeight)
	buf.Replay(l.sink)
	l.bar.Draw(canvasHeight, width, l.sink.bg)
	l.screen.Show()
}
