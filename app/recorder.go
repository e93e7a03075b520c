package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.medviz.dev/overlay/compositor"
	"go.medviz.dev/overlay/vimage"
)

// Recorder saves composited frames as numbered PNG files. Attach it to an
// app with SetPostRenderHook to record the live overlay.
type Recorder struct {
	logger golog.Logger
	dir    string
	index  int
}

// NewRecorder creates the output directory if needed.
func NewRecorder(dir string, logger golog.Logger) (*Recorder, error) {
	if dir == "" {
		return nil, errors.New("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "error creating output directory %q", dir)
	}
	return &Recorder{logger: logger, dir: dir}, nil
}

// RecordFrame captures the window's composite and writes the next numbered
// file.
func (r *Recorder) RecordFrame(w *compositor.OverlayWindow) error {
	img, err := w.CaptureColor()
	if err != nil {
		return err
	}
	path := filepath.Join(r.dir, fmt.Sprintf("frame_%05d.png", r.index))
	if err := vimage.WriteImageToFile(path, img); err != nil {
		return err
	}
	r.index++
	return nil
}

// FramesWritten returns how many frames have been recorded.
func (r *Recorder) FramesWritten() int { return r.index }
