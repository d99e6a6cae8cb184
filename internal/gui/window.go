// Package gui shows scored frames in a desktop window.
package gui

import (
	"context"
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"github.com/keagan/highlightview/internal/logging"
	"github.com/keagan/highlightview/internal/playback"
	"github.com/rs/zerolog"
)

// Window displays frames one at a time and turns q, Escape or closing the
// window into a stop request
type Window struct {
	logger zerolog.Logger
	app    fyne.App
	win    fyne.Window
	img    *canvas.Image

	quit      chan struct{}
	quitOnce  sync.Once
	closeOnce sync.Once
}

// NewWindow creates the application window sized for width x height frames
func NewWindow(logger zerolog.Logger, title string, width, height int) *Window {
	return newWindow(logger, app.NewWithID("highlightview"), title, width, height)
}

func newWindow(logger zerolog.Logger, a fyne.App, title string, width, height int) *Window {
	w := &Window{
		logger: logger.With().Str("component", logging.ComponentDisplay).Logger(),
		app:    a,
		win:    a.NewWindow(title),
		quit:   make(chan struct{}),
	}

	w.img = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, width, height)))
	w.img.FillMode = canvas.ImageFillContain
	w.img.ScaleMode = canvas.ImageScaleFastest
	w.img.SetMinSize(fyne.NewSize(float32(width), float32(height)))

	w.win.SetContent(container.NewStack(w.img))
	w.win.SetPadded(false)
	w.win.Resize(fyne.NewSize(float32(width), float32(height)))

	w.win.Canvas().SetOnTypedRune(func(r rune) {
		if r == 'q' || r == 'Q' {
			w.requestStop("q")
		}
	})
	w.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			w.requestStop("escape")
		}
	})
	w.win.SetCloseIntercept(func() {
		w.requestStop("window closed")
	})

	return w
}

func (w *Window) requestStop(reason string) {
	w.quitOnce.Do(func() {
		w.logger.Info().Str("reason", reason).Msg("stop requested")
		close(w.quit)
	})
}

// Stop asks playback to end as if the viewer pressed q
func (w *Window) Stop() {
	w.requestStop("shutdown")
}

// Run shows the window and runs the UI event loop until Close.
// It must be called from the main goroutine.
func (w *Window) Run() {
	w.win.ShowAndRun()
}

// Show presents frame and holds it for delay. It returns
// playback.ErrStopRequested if the viewer asks to stop, or ctx.Err() if ctx
// ends first. frame must not be modified after the call.
func (w *Window) Show(ctx context.Context, frame *image.RGBA, delay time.Duration) error {
	select {
	case <-w.quit:
		return playback.ErrStopRequested
	default:
	}

	fyne.Do(func() {
		w.img.Image = frame
		w.img.Refresh()
	})

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.quit:
		return playback.ErrStopRequested
	case <-timer.C:
		return nil
	}
}

// Close ends the UI event loop, which makes Run return
func (w *Window) Close() error {
	w.closeOnce.Do(func() {
		w.logger.Debug().Msg("closing window")
		fyne.Do(func() {
			w.app.Quit()
		})
	})
	return nil
}
