// Package viewer ties the scene, camera, gizmos and loaders together behind a single interaction
// goroutine. Background loads never touch the scene directly; they hand their results back
// through Submit and the work runs at the start of the next frame.
package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bep/debounce"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/annotator/config"
	"go.viam.com/annotator/fetch"
	"go.viam.com/annotator/gizmo"
	"go.viam.com/annotator/logging"
	"go.viam.com/annotator/model"
	"go.viam.com/annotator/picking"
	"go.viam.com/annotator/potree"
	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/utils"
	"go.viam.com/annotator/viewport"
)

// Defaults for the frame loop.
const (
	DefaultFrameInterval  = time.Second / 60
	DefaultResizeDebounce = 100 * time.Millisecond
	// ReferenceName names the group that holds the reference meshes and point clouds.
	ReferenceName = "reference"
)

// ErrClosed is returned by Run once the viewer has been closed.
var ErrClosed = errors.New("viewer closed")

// Listener receives the events a UI shell displays. Calls happen on the interaction goroutine.
type Listener interface {
	SelectionChanged(selected bool, target scene.NodeID)
	TransformModeChanged(mode gizmo.Mode)
	LoadFailed(reason utils.LoadFailureReason, err error)
}

type nopListener struct{}

func (nopListener) SelectionChanged(bool, scene.NodeID)       {}
func (nopListener) TransformModeChanged(gizmo.Mode)           {}
func (nopListener) LoadFailed(utils.LoadFailureReason, error) {}

// Options are the collaborators of a viewer. Only Config is required.
type Options struct {
	Config   *config.Config
	Renderer viewport.Renderer
	// Fetcher reads models and point clouds; nil means fetch.Default with an HTTP and a file
	// fetcher.
	Fetcher  fetch.Fetcher
	Listener Listener
	Clock    clock.Clock
	// FrameInterval is the period of Run; 0 means DefaultFrameInterval.
	FrameInterval time.Duration
	// ResizeDebounce delays resizes until the size settles; negative disables debouncing.
	ResizeDebounce time.Duration
	Width, Height  int
}

// FrameStats summarizes how long frames took, in milliseconds.
type FrameStats struct {
	Frames int
	Mean   float64
	P95    float64
	Max    float64
}

// Viewer owns a scene and everything that mutates it. Methods other than Submit, Resize and Close
// must be called from the interaction goroutine, which is the goroutine running Run or Step.
type Viewer struct {
	cfg      *config.Config
	logger   logging.Logger
	clock    clock.Clock
	listener Listener
	interval time.Duration

	manager *viewport.Manager
	gizmos  *gizmo.Controller
	picker  *picking.Service
	loader  *model.Loader
	adapter *potree.Adapter
	workers utils.StoppableWorkers

	debounced func(func())

	mu      sync.Mutex
	tasks   []func()
	closing bool
	handles []*potree.Handle
	runWG   sync.WaitGroup
	stopRun context.CancelFunc
	runCtx  context.Context

	reference   scene.NodeID
	clouds      []*potree.Handle
	placement   Placement
	pending     *model.Entry
	annotations int
	pointer     pointerState
	frameTimes  []float64
	closed      bool
}

// New builds a viewer with an initialized viewport and an empty reference group.
func New(opts Options, logger logging.Logger) (*Viewer, error) {
	if opts.Config == nil {
		return nil, errors.New("viewer requires a config")
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = &fetch.Default{
			HTTP: fetch.NewHTTPFetcher(nil, logger.Sublogger("fetch")),
			File: &fetch.FileFetcher{},
		}
	}
	v := &Viewer{
		cfg:      cfg,
		logger:   logger,
		clock:    opts.Clock,
		listener: opts.Listener,
		interval: opts.FrameInterval,
		picker:   picking.NewService(cfg.Picking),
		loader:   model.NewLoader(fetcher, logger.Sublogger("model")),
		adapter:  potree.NewAdapter(cfg.PointCloud, fetcher, logger.Sublogger("potree")),
		workers:  utils.NewStoppableWorkers(),
	}
	if v.clock == nil {
		v.clock = clock.New()
	}
	if v.listener == nil {
		v.listener = nopListener{}
	}
	if v.interval <= 0 {
		v.interval = DefaultFrameInterval
	}
	switch {
	case opts.ResizeDebounce == 0:
		v.debounced = debounce.New(DefaultResizeDebounce)
	case opts.ResizeDebounce > 0:
		v.debounced = debounce.New(opts.ResizeDebounce)
	default:
		v.debounced = func(f func()) { f() }
	}
	v.runCtx, v.stopRun = context.WithCancel(context.Background())

	v.manager = viewport.NewManager(cfg.Viewport, opts.Renderer, logger.Sublogger("viewport"))
	_, root := v.manager.Initialize(opts.Width, opts.Height)
	v.gizmos = gizmo.NewController(v.manager.Graph(), v.manager.Orbit(), logger.Sublogger("gizmo"))

	reference, err := v.manager.Graph().Add(root, ReferenceName, scene.KindGroup, nil)
	if err != nil {
		v.workers.Stop()
		return nil, err
	}
	v.reference = reference
	return v, nil
}

// Manager returns the viewport manager.
func (v *Viewer) Manager() *viewport.Manager {
	return v.manager
}

// Graph returns the scene graph.
func (v *Viewer) Graph() *scene.Graph {
	return v.manager.Graph()
}

// Gizmos returns the gizmo controller.
func (v *Viewer) Gizmos() *gizmo.Controller {
	return v.gizmos
}

// Reference returns the group holding reference meshes and point clouds.
func (v *Viewer) Reference() scene.NodeID {
	return v.reference
}

// PointClouds returns the attached point clouds.
func (v *Viewer) PointClouds() []*potree.Handle {
	return v.clouds
}

// Submit queues task to run on the interaction goroutine before the next frame. It reports
// false, and drops the task, once the viewer is closing.
func (v *Viewer) Submit(task func()) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closing {
		return false
	}
	v.tasks = append(v.tasks, task)
	return true
}

func (v *Viewer) runTasks() {
	v.mu.Lock()
	tasks := v.tasks
	v.tasks = nil
	v.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

// Step runs one frame: queued tasks, point cloud paging, gizmo helpers, then rendering. It
// reports whether a frame was drawn.
func (v *Viewer) Step() bool {
	if v.closed {
		return false
	}
	start := v.clock.Now()
	v.runTasks()

	if !v.manager.Degenerate() {
		width, height := v.manager.Size()
		for _, h := range v.clouds {
			st := h.Update(v.manager.Camera(), width, height)
			for _, err := range st.Errors {
				v.reportFailure(err)
			}
		}
	}
	v.gizmos.SyncHelpers()
	drawn := v.manager.RenderFrame()
	v.frameTimes = append(v.frameTimes, float64(v.clock.Since(start))/float64(time.Millisecond))
	return drawn
}

// Run steps the viewer on every tick of its clock until ctx is done or the viewer is closed. The
// calling goroutine becomes the interaction goroutine.
func (v *Viewer) Run(ctx context.Context) error {
	v.mu.Lock()
	if v.closing {
		v.mu.Unlock()
		return ErrClosed
	}
	v.runWG.Add(1)
	v.mu.Unlock()
	defer v.runWG.Done()

	ticker := v.clock.Ticker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-v.runCtx.Done():
			return nil
		case <-ticker.C:
			v.Step()
		}
	}
}

// Resize changes the viewport size once the size has stopped changing for the debounce period.
// It may be called from any goroutine.
func (v *Viewer) Resize(width, height int) {
	v.debounced(func() {
		v.Submit(func() {
			if err := v.manager.Resize(width, height); err != nil {
				v.logger.Warnw("skipping frames for degenerate viewport", "error", err)
			}
		})
	})
}

// FrameStats summarizes the frames stepped so far.
func (v *Viewer) FrameStats() FrameStats {
	fs := FrameStats{Frames: len(v.frameTimes)}
	if fs.Frames == 0 {
		return fs
	}
	fs.Mean, _ = stats.Mean(v.frameTimes)
	fs.P95, _ = stats.Percentile(v.frameTimes, 95)
	fs.Max, _ = stats.Max(v.frameTimes)
	return fs
}

// Close stops the frame loop, cancels in-flight loads, releases every gizmo and the orbit
// controls, and closes point clouds and the renderer. Late load results are dropped. It must not
// be called from a submitted task. Calling it again does nothing.
func (v *Viewer) Close() error {
	v.mu.Lock()
	if v.closing {
		v.mu.Unlock()
		return nil
	}
	v.closing = true
	dropped := len(v.tasks)
	v.tasks = nil
	v.mu.Unlock()

	v.stopRun()
	v.runWG.Wait()
	v.closed = true

	v.workers.Stop()

	err := v.gizmos.DisposeAll()
	for _, h := range v.handles {
		err = multierr.Combine(err, h.Close())
	}
	v.handles, v.clouds = nil, nil
	err = multierr.Combine(err, v.manager.Close())

	fs := v.FrameStats()
	v.logger.Infow("viewer closed",
		"frames", fs.Frames, "mean_ms", fs.Mean, "p95_ms", fs.P95, "max_ms", fs.Max, "dropped_tasks", dropped)
	return err
}
