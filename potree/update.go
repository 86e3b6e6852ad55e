package potree

import (
	"context"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/annotator/fetch"
	"go.viam.com/annotator/octree"
	"go.viam.com/annotator/utils"
	"go.viam.com/annotator/viewport"
)

type loadKind int

const (
	loadPoints loadKind = iota
	loadHierarchy
)

// loadResult is a finished fetch waiting to be applied on the scene goroutine.
type loadResult struct {
	node       *octree.Node
	generation uint64
	kind       loadKind
	hierarchy  []byte
	positions  []r3.Vector
	colors     []color.NRGBA
	err        error
}

// Stats describes the state of the last Update.
type Stats struct {
	Frame         uint64
	VisibleNodes  int
	VisiblePoints int
	CachedNodes   int
	CachedPoints  int
	Requested     int
	Applied       int
	Evicted       int
	Failures      int
	// Errors are the node loads that failed since the previous Update.
	Errors []error
}

// Update pages the octree for one frame of the given camera and viewport size: it applies
// finished fetches, selects the nodes to show within the point budget, requests missing ones and
// unloads the least recently visible nodes beyond the cache budget. Skipping frames only leaves
// the detail stale.
func (h *Handle) Update(cam *viewport.Camera, width, height int) Stats {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return Stats{}
	}

	stats := Stats{Applied: h.drain()}
	stats.Errors, h.errs = h.errs, nil
	h.frame++
	stats.Frame = h.frame

	world := mgl64.Ident4()
	if h.graph != nil && h.graph.Contains(h.content) {
		world = h.graph.WorldMatrix(h.content)
	}
	sel := selectNodes(h.root, newView(cam, world, height, h.material), h.cfg)
	h.visible = sel.visible
	h.visiblePoints = 0
	for _, n := range sel.visible {
		n.LastVisible = h.frame
		h.visiblePoints += len(n.Positions)
		if n != h.root {
			h.cache.Touch(n)
		}
	}
	for _, n := range sel.toLoad {
		if !h.request(n) {
			break
		}
		stats.Requested++
	}
	stats.Evicted = h.cache.Evict()

	stats.VisibleNodes = len(h.visible)
	stats.VisiblePoints = h.visiblePoints
	stats.CachedNodes = h.cache.Len()
	stats.CachedPoints = h.cache.NumPoints()
	stats.Failures = h.failures
	return stats
}

// request starts a fetch for n if a load slot is free. Proxy nodes fetch their hierarchy chunk
// first; their points are requested on a later frame.
func (h *Handle) request(n *octree.Node) bool {
	if !h.sem.TryAcquire(1) {
		return false
	}
	n.State = octree.Loading
	n.Generation++

	res := loadResult{node: n, generation: n.Generation, kind: loadPoints}
	name := OctreeName
	if n.Type == octree.NodeProxy {
		res.kind = loadHierarchy
		name = HierarchyName
	}
	rng := &fetch.ByteRange{Offset: n.ByteOffset, Length: n.ByteSize}
	numPoints := int(n.NumPoints)
	nodeName := n.Name

	h.workers.AddWorkers(func(ctx context.Context) {
		defer h.sem.Release(1)
		data, err := h.fetcher.Fetch(ctx, name, rng)
		switch {
		case err != nil:
			res.err = err
		case res.kind == loadHierarchy:
			res.hierarchy = data
		default:
			res.positions, res.colors, err = decodePoints(h.metadata, data, numPoints)
			if err != nil {
				res.err = utils.NewResourceLoadError(h.fetcher.ResolveLocation(name), utils.LoadFailureParse,
					errors.Wrapf(err, "node %s", nodeName))
			}
		}
		h.push(res)
	})
	return true
}

func (h *Handle) push(res loadResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.results = append(h.results, res)
}

// drain applies every queued result and returns how many took effect.
func (h *Handle) drain() int {
	h.mu.Lock()
	results := h.results
	h.results = nil
	h.mu.Unlock()

	applied := 0
	for _, res := range results {
		if h.apply(res) {
			applied++
		}
	}
	return applied
}

// apply stores one result in its node. Results for nodes that are no longer waiting on that
// exact request are ignored, so duplicate and out of order completions are harmless.
func (h *Handle) apply(res loadResult) bool {
	n := res.node
	if n.State != octree.Loading || n.Generation != res.generation {
		h.logger.Debugw("dropping stale load result", "node", n.Name)
		return false
	}
	if res.err != nil {
		var rle *utils.ResourceLoadError
		if errors.As(res.err, &rle) && rle.Reason == utils.LoadFailureCanceled {
			n.State = octree.Unloaded
			return false
		}
		n.State = octree.Failed
		h.failures++
		h.errs = append(h.errs, res.err)
		h.logger.Warnw("failed to load point cloud node", "node", n.Name, "error", res.err)
		return false
	}

	switch res.kind {
	case loadHierarchy:
		if err := parseHierarchy(n, res.hierarchy); err != nil {
			n.State = octree.Failed
			h.failures++
			h.errs = append(h.errs, utils.NewResourceLoadError(h.fetcher.ResolveLocation(HierarchyName), utils.LoadFailureParse, err))
			h.logger.Warnw("invalid hierarchy chunk", "node", n.Name, "error", err)
			return false
		}
		n.State = octree.Unloaded
	case loadPoints:
		n.SetData(res.positions, res.colors)
	}
	return true
}

// Visible returns the nodes shown by the last Update.
func (h *Handle) Visible() []*octree.Node {
	return h.visible
}

// Close stops all fetches. Results that arrive afterwards are dropped and the handle's points are
// released. It is safe to call more than once.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.workers.Stop()

	h.mu.Lock()
	dropped := len(h.results)
	h.results = nil
	h.mu.Unlock()

	h.cache.Clear()
	h.root.Unload()
	h.visible = nil
	h.logger.Debugw("closed point cloud", "dropped_results", dropped)
	return nil
}
