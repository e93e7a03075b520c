// Package app runs timer-driven overlay applications: a frame source feeding
// an overlay window at a fixed rate, with optional frame recording. This is
// the only package that spawns goroutines; the compositor itself stays
// single-threaded and is touched only from the app's worker.
package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"go.medviz.dev/overlay/vimage"
)

// FrameSource produces the video frames an overlay app displays.
type FrameSource interface {
	// Next returns the next frame to display. Sources with a fixed set of
	// frames may cycle.
	Next(ctx context.Context) (*vimage.Frame, error)
	Close() error
}

// StaticSource always returns the same frame, for still-image overlays and
// tests.
type StaticSource struct {
	frame *vimage.Frame
}

// NewStaticSource returns a source stuck on one frame.
func NewStaticSource(frame *vimage.Frame) (*StaticSource, error) {
	if frame == nil {
		return nil, errors.New("frame is nil")
	}
	return &StaticSource{frame: frame}, nil
}

// Next implements FrameSource.
func (s *StaticSource) Next(ctx context.Context) (*vimage.Frame, error) {
	return s.frame, nil
}

// Close implements FrameSource.
func (s *StaticSource) Close() error { return nil }

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// DirectorySource cycles through the image files of a directory in sorted
// filename order, decoding each into a frame. It stands in for a recorded
// video feed.
type DirectorySource struct {
	paths []string
	next  int
}

// NewDirectorySource lists a directory's image files. An empty directory is
// an error.
func NewDirectorySource(dir string) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading frame directory %q", dir)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no image files found in %q", dir)
	}
	sort.Strings(paths)
	return &DirectorySource{paths: paths}, nil
}

// Next implements FrameSource, wrapping around at the end of the directory.
func (s *DirectorySource) Next(ctx context.Context) (*vimage.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.paths[s.next%len(s.paths)]
	s.next++
	img, err := vimage.ReadImageFromFile(path)
	if err != nil {
		return nil, err
	}
	return vimage.FrameFromImage(img)
}

// Close implements FrameSource.
func (s *DirectorySource) Close() error { return nil }
