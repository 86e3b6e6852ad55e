package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/annotator/align"
	"go.viam.com/annotator/config"
	"go.viam.com/annotator/fetch"
	"go.viam.com/annotator/framing"
	"go.viam.com/annotator/gizmo"
	"go.viam.com/annotator/logging"
	"go.viam.com/annotator/model"
	"go.viam.com/annotator/potree"
	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/spatialmath"
	"go.viam.com/annotator/utils"
	"go.viam.com/annotator/viewer"
	"go.viam.com/annotator/viewport"
)

const (
	defaultSnapshotTimeout = 30 * time.Second
	snapshotPollInterval   = 10 * time.Millisecond
)

func printf(c *cli.Context, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(c.App.Writer, format+"\n", a...)
}

// printTable writes rows under header to the app's output as a bordered table.
func printTable(c *cli.Context, header table.Row, rows ...table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("%.6g,%.6g,%.6g", v.X, v.Y, v.Z)
}

func resolveAction(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return errors.New("need at least one file")
	}
	src := potree.ResolveSource(files)
	printTable(c, table.Row{"Resource", "Location"},
		table.Row{potree.HierarchyName, src.Hierarchy},
		table.Row{potree.OctreeName, src.Octree},
		table.Row{potree.MetadataName, src.Metadata},
	)
	if !src.Complete() {
		return errors.Errorf("incomplete point cloud: need %s, %s and %s",
			potree.HierarchyName, potree.OctreeName, potree.MetadataName)
	}
	return nil
}

func frameAction(c *cli.Context) error {
	maxDim := c.Float64(flagMaxDim)
	fov := c.Float64(flagFov)
	if maxDim <= 0 {
		return errors.Errorf("--%s must be positive, got %v", flagMaxDim, maxDim)
	}
	if fov <= 0 || fov >= 180 {
		return errors.Errorf("--%s must be in (0, 180), got %v", flagFov, fov)
	}
	near, far := framing.ClipPlanes(maxDim)
	printTable(c, table.Row{"Quantity", "Value"},
		table.Row{"distance", fmt.Sprintf("%.4f", framing.Distance(maxDim, fov, c.Float64(flagZoom)))},
		table.Row{"near", fmt.Sprintf("%.4f", near)},
		table.Row{"far", fmt.Sprintf("%.4f", far)},
	)
	return nil
}

func parseVector(s string) (r3.Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vector{}, errors.Errorf("expected X,Y,Z, got %q", s)
	}
	var xyz [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vector{}, errors.Wrapf(err, "bad component %d of %q", i, s)
		}
		xyz[i] = f
	}
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func newFetcher(logger logging.Logger) fetch.Fetcher {
	return &fetch.Default{
		HTTP: fetch.NewHTTPFetcher(nil, logger.Sublogger("fetch")),
		File: &fetch.FileFetcher{},
	}
}

// loadConfig reads --config when given and applies its log settings. --debug wins over the file.
// The returned func closes the configured log file, if any.
func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, func() error, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(c.Context, path, logger); err != nil {
			return nil, nil, err
		}
	}
	registry := logging.NewRegistry()
	if err := registry.Register(appName, logger); err != nil {
		return nil, nil, err
	}
	if err := cfg.ApplyLogConfig(registry, logger); err != nil {
		return nil, nil, err
	}
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	closeLog := func() error { return nil }
	if appender := cfg.AddLogFile(logger); appender != nil {
		closeLog = appender.Close
	}
	return cfg, closeLog, nil
}

func alignAction(c *cli.Context, logger logging.Logger) (err error) {
	dims, err := parseVector(c.String(flagBox))
	if err != nil {
		return errors.Wrapf(err, "--%s", flagBox)
	}
	cfg, closeLog, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, closeLog())
	}()
	mesh, err := model.NewLoader(newFetcher(logger), logger.Sublogger("model")).LoadOBJ(c.Context, c.String(flagModel))
	if err != nil {
		return err
	}

	graph := scene.NewGraph()
	box, err := graph.NewBoxAnnotation(graph.Root(), scene.AnnotationName(1), r3.Vector{}, dims, cfg.Annotation.EdgeColor())
	if err != nil {
		return err
	}
	id, err := model.AddMeshes(graph, graph.Root(), "model", scene.KindModel, []*spatialmath.Mesh{mesh}, model.DefaultModelColor)
	if err != nil {
		return err
	}
	res, err := align.AlignModelIntoBox(graph, id, box)
	if err != nil {
		return err
	}
	size := graph.WorldAABB(id, true).Size()
	printTable(c, table.Row{"Quantity", "Value"},
		table.Row{"scale", fmt.Sprintf("%.6g", res.Scale)},
		table.Row{"offset", formatVector(res.Offset)},
		table.Row{"size", formatVector(size)},
	)
	return nil
}

// failureCollector records load failures. It is only called from the goroutine stepping the
// viewer.
type failureCollector struct {
	failures []error
}

func (fc *failureCollector) SelectionChanged(bool, scene.NodeID) {}

func (fc *failureCollector) TransformModeChanged(gizmo.Mode) {}

func (fc *failureCollector) LoadFailed(reason utils.LoadFailureReason, err error) {
	fc.failures = append(fc.failures, errors.Wrapf(err, "%s", reason))
}

func snapshotAction(c *cli.Context, logger logging.Logger) (err error) {
	meshes := c.StringSlice(flagMesh)
	clouds := c.StringSlice(flagPointCloud)
	if len(meshes) == 0 && len(clouds) == 0 {
		return errors.Errorf("need --%s or --%s", flagMesh, flagPointCloud)
	}
	cfg, closeLog, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, closeLog())
	}()
	width, height := c.Int(flagWidth), c.Int(flagHeight)
	renderer, err := viewport.NewSnapshotRenderer(width, height, cfg.Viewport.Background)
	if err != nil {
		return err
	}
	guard := utils.NewGuard(func() { goutils.UncheckedError(renderer.Close()) })
	defer guard.OnFail()
	listener := &failureCollector{}
	v, err := viewer.New(viewer.Options{
		Config:         cfg,
		Renderer:       renderer,
		Fetcher:        newFetcher(logger),
		Listener:       listener,
		ResizeDebounce: -1,
		Width:          width,
		Height:         height,
	}, logger.Sublogger("viewer"))
	if err != nil {
		return err
	}
	guard.Success()

	defer func() {
		err = multierr.Combine(err, v.Close())
	}()
	var expected int
	if len(meshes) > 0 {
		v.LoadReference(meshes)
		expected += viewer.ReferenceGroups(meshes)
	}
	if len(clouds) > 0 {
		if err := v.LoadPointCloud(clouds); err != nil {
			return err
		}
		expected++
	}

	deadline := time.Now().Add(c.Duration(flagTimeout))
	for len(v.Graph().Children(v.Reference())) < expected && len(listener.failures) == 0 {
		if time.Now().After(deadline) {
			return errors.Errorf("timed out after %s waiting for loads", c.Duration(flagTimeout))
		}
		v.Step()
		time.Sleep(snapshotPollInterval)
	}
	if len(listener.failures) > 0 {
		return multierr.Combine(listener.failures...)
	}
	for i := 0; i <= c.Int(flagFrames); i++ {
		v.Step()
		time.Sleep(snapshotPollInterval)
	}
	stats := v.FrameStats()
	logger.CDebugw(c.Context, "rendered snapshot frames", "frames", stats.Frames, "mean_ms", stats.Mean, "p95_ms", stats.P95)
	if len(listener.failures) > 0 {
		return multierr.Combine(listener.failures...)
	}
	if err := renderer.SavePNG(c.String(flagOut)); err != nil {
		return err
	}
	printf(c, "wrote %s", c.String(flagOut))
	return nil
}
