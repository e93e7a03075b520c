package app

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.medviz.dev/overlay/compositor"
)

// DefaultFrameRate is the display tick rate when none is configured.
const DefaultFrameRate = 30.0

// OverlayApp owns an overlay window and a frame source and drives them from
// a periodic timer: each tick pulls a frame, imports it, and renders. The
// loop is best-effort; a slow render just makes the next tick late, and tick
// errors are logged rather than fatal.
type OverlayApp struct {
	logger golog.Logger
	window *compositor.OverlayWindow
	source FrameSource
	clock  clock.Clock

	interval   time.Duration
	postRender func(*compositor.OverlayWindow) error

	mu                      sync.Mutex
	cancel                  context.CancelFunc
	activeBackgroundWorkers sync.WaitGroup
}

// NewOverlayApp builds an app ticking at frameRate Hz (DefaultFrameRate when
// zero) on the given clock.
func NewOverlayApp(
	window *compositor.OverlayWindow,
	source FrameSource,
	clk clock.Clock,
	frameRate float64,
	logger golog.Logger,
) (*OverlayApp, error) {
	if window == nil {
		return nil, errors.New("window is nil")
	}
	if source == nil {
		return nil, errors.New("frame source is nil")
	}
	if clk == nil {
		clk = clock.New()
	}
	if frameRate == 0 {
		frameRate = DefaultFrameRate
	}
	if frameRate < 0 {
		return nil, errors.Errorf("frame rate should be positive, got %v", frameRate)
	}
	return &OverlayApp{
		logger:   logger,
		window:   window,
		source:   source,
		clock:    clk,
		interval: time.Duration(float64(time.Second) / frameRate),
	}, nil
}

// Window returns the app's overlay window.
func (a *OverlayApp) Window() *compositor.OverlayWindow { return a.window }

// SetPostRenderHook installs a callback run after each successful render,
// before the next tick. Must be set before Start.
func (a *OverlayApp) SetPostRenderHook(hook func(*compositor.OverlayWindow) error) {
	a.postRender = hook
}

// Start spawns the render loop. It returns an error if the loop is already
// running.
func (a *OverlayApp) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return errors.New("overlay app already started")
	}
	cancelCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.activeBackgroundWorkers.Add(1)
	utils.PanicCapturingGo(func() {
		defer a.activeBackgroundWorkers.Done()
		ticker := a.clock.Ticker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-cancelCtx.Done():
				return
			case <-ticker.C:
			}
			a.tick(cancelCtx)
		}
	})
	return nil
}

func (a *OverlayApp) tick(ctx context.Context) {
	frame, err := a.source.Next(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.Warnw("error getting next frame", "error", err)
		}
		return
	}
	if err := a.window.SetVideoImage(frame); err != nil {
		a.logger.Warnw("error importing frame", "error", err)
		return
	}
	if err := a.window.Render(); err != nil {
		a.logger.Warnw("render failed", "error", err)
		return
	}
	if a.postRender != nil {
		if err := a.postRender(a.window); err != nil {
			a.logger.Warnw("post-render hook failed", "error", err)
		}
	}
}

// Stop halts the render loop and waits for the worker to exit. It does not
// close the window; Stop must complete before the window is torn down so no
// tick lands on a dead surface.
func (a *OverlayApp) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	a.activeBackgroundWorkers.Wait()
}

// Close stops the loop, then closes the window and the frame source.
func (a *OverlayApp) Close() error {
	a.Stop()
	return multierr.Combine(a.window.Close(), a.source.Close())
}
