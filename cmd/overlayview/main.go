// overlayview renders a calibrated model overlay offscreen: it loads pinhole
// intrinsics and a directory of PLY surface models, replays video frames
// from a directory (or a flat gray stand-in), and writes the composited
// frames as numbered PNGs. It exercises the whole toolkit without a GUI.
package main

import (
	"context"
	"os"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"

	"go.medviz.dev/overlay/app"
	"go.medviz.dev/overlay/calib"
	"go.medviz.dev/overlay/compositor"
	"go.medviz.dev/overlay/render/soft"
	"go.medviz.dev/overlay/scene"
	"go.medviz.dev/overlay/vimage"
)

func main() {
	logger := golog.NewDevelopmentLogger("overlayview")
	if err := newApp(logger).Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func newApp(logger golog.Logger) *cli.App {
	return &cli.App{
		Name:  "overlayview",
		Usage: "render calibrated model overlays offscreen",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "intrinsics",
				Usage:    "JSON file with fx, fy, cx, cy",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "models",
				Usage:    "directory of PLY surface models",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "frames",
				Usage: "directory of video frame images (gray frames when omitted)",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "output directory for composited frames",
				Value: "out",
			},
			&cli.IntFlag{Name: "width", Usage: "window width", Value: 640},
			&cli.IntFlag{Name: "height", Usage: "window height", Value: 480},
			&cli.IntFlag{Name: "count", Usage: "number of frames to render", Value: 1},
		},
		Action: func(c *cli.Context) error {
			return runOverlay(c, logger)
		},
	}
}

func runOverlay(c *cli.Context, logger golog.Logger) error {
	width := c.Int("width")
	height := c.Int("height")

	intrinsics, err := calib.IntrinsicsFromJSONFile(c.String("intrinsics"))
	if err != nil {
		return err
	}

	opts := compositor.DefaultOptions()
	opts.Offscreen = true
	window, err := compositor.NewOverlayWindow(soft.NewEngine(logger), width, height, opts, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := window.Close(); err != nil {
			logger.Errorw("error closing window", "error", err)
		}
	}()

	actors, err := scene.LoadSurfaceModelsFromDirectory(c.String("models"))
	if err != nil {
		return err
	}
	if err := window.AddActors(1, actors...); err != nil {
		return err
	}
	logger.Infow("loaded models", "count", len(actors))

	source, err := newFrameSource(c.String("frames"), width, height)
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Errorw("error closing frame source", "error", err)
		}
	}()

	recorder, err := app.NewRecorder(c.String("out"), logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for i := 0; i < c.Int("count"); i++ {
		frame, err := source.Next(ctx)
		if err != nil {
			return err
		}
		if err := window.SetVideoImage(frame); err != nil {
			return err
		}
		if i == 0 {
			if err := window.SetIntrinsics(intrinsics); err != nil {
				return err
			}
		}
		if err := recorder.RecordFrame(window); err != nil {
			return err
		}
	}
	logger.Infow("done", "frames", recorder.FramesWritten(), "out", c.String("out"))
	return nil
}

func newFrameSource(dir string, width, height int) (app.FrameSource, error) {
	if dir != "" {
		return app.NewDirectorySource(dir)
	}
	data := make([]uint8, width*height*3)
	for i := range data {
		data[i] = 128
	}
	frame, err := vimage.NewFrameRGB(data, width, height)
	if err != nil {
		return nil, err
	}
	return app.NewStaticSource(frame)
}
