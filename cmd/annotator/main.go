// Package main is the annotator command line tool. It resolves point cloud file sets, computes
// camera framing, fits models into boxes and renders wireframe snapshots of a scene.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/annotator/logging"
)

const appName = "annotator"

const (
	flagConfig     = "config"
	flagDebug      = "debug"
	flagMaxDim     = "max-dim"
	flagFov        = "fov"
	flagZoom       = "zoom"
	flagBox        = "box"
	flagModel      = "model"
	flagMesh       = "mesh"
	flagPointCloud = "point-cloud"
	flagOut        = "out"
	flagWidth      = "width"
	flagHeight     = "height"
	flagFrames     = "frames"
	flagTimeout    = "timeout"
)

func main() {
	logger := logging.NewBlankLogger(appName)
	logger.AddAppender(logging.NewWriterAppender(os.Stderr))
	if err := newApp(logger).Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func newApp(logger logging.Logger) *cli.App {
	return &cli.App{
		Name:  appName,
		Usage: "inspect and render annotation scenes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load viewer configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
				c.Context = logging.EnableDebugMode(c.Context, "")
			} else {
				logger.SetLevel(logging.INFO)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "resolve",
				Usage:     "show which files of a list make up a point cloud",
				ArgsUsage: "<file> [<file>...]",
				Action:    resolveAction,
			},
			{
				Name:  "frame",
				Usage: "print the camera distance and clip planes that frame a target",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: flagMaxDim, Required: true, Usage: "largest dimension of the target"},
					&cli.Float64Flag{Name: flagFov, Value: 60, Usage: "vertical field of view in degrees"},
					&cli.Float64Flag{Name: flagZoom, Value: 1, Usage: "distance multiplier"},
				},
				Action: frameAction,
			},
			{
				Name:  "align",
				Usage: "fit an OBJ model into a box and print the applied scale",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagBox, Required: true, Usage: "box size as `X,Y,Z`"},
					&cli.StringFlag{Name: flagModel, Required: true, Usage: "OBJ model `PATH` or URL"},
				},
				Action: func(c *cli.Context) error {
					return alignAction(c, logger)
				},
			},
			{
				Name:  "snapshot",
				Usage: "load reference meshes or a point cloud and render a PNG",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: flagMesh, Usage: "reference OBJ mesh or LAS cloud `PATH` or URL, repeatable"},
					&cli.StringSliceFlag{Name: flagPointCloud, Usage: "point cloud file `PATH` or URL, repeatable"},
					&cli.StringFlag{Name: flagOut, Value: "snapshot.png", Usage: "output `FILE`"},
					&cli.IntFlag{Name: flagWidth, Value: 800},
					&cli.IntFlag{Name: flagHeight, Value: 600},
					&cli.IntFlag{Name: flagFrames, Value: 30, Usage: "frames to page point cloud detail before rendering"},
					&cli.DurationFlag{Name: flagTimeout, Value: defaultSnapshotTimeout},
				},
				Action: func(c *cli.Context) error {
					return snapshotAction(c, logger)
				},
			},
		},
	}
}
