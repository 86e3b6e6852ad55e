package potree

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"go.viam.com/annotator/fetch"
	"go.viam.com/annotator/logging"
	"go.viam.com/annotator/octree"
	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/utils"
)

// Adapter starts point cloud loads.
type Adapter struct {
	cfg     Config
	fetcher fetch.Fetcher
	logger  logging.Logger
}

// NewAdapter returns an adapter reading resources through fetcher. cfg should already be
// validated.
func NewAdapter(cfg Config, fetcher fetch.Fetcher, logger logging.Logger) *Adapter {
	return &Adapter{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Load reads the metadata and the root hierarchy chunk of src and returns a handle ready to be
// attached to a scene and updated every frame. Only the three logical resources of src are
// redirected; every other request goes to the underlying fetcher unchanged.
func (a *Adapter) Load(ctx context.Context, src Source) (*Handle, error) {
	material := NewMaterial(a.cfg)
	if src.Material != nil {
		if err := src.Material.Validate(); err != nil {
			return nil, err
		}
		material = *src.Material
		material.Size = max(material.Size, a.cfg.MinimumPointSize)
	}
	id := uuid.New()
	logger := a.logger.Sublogger(id.String()[:8])
	rf := fetch.NewResolvingFetcher(a.fetcher, src.Resolver())

	logger.Debugw("loading point cloud", "metadata", rf.ResolveLocation(MetadataName))
	raw, err := rf.Fetch(ctx, MetadataName, nil)
	if err != nil {
		return nil, err
	}
	md, err := ParseMetadata(raw)
	if err != nil {
		return nil, utils.NewResourceLoadError(rf.ResolveLocation(MetadataName), utils.LoadFailureParse, err)
	}

	root := octree.NewRoot(md.Bounds())
	root.Type = octree.NodeProxy
	root.ByteSize = md.Hierarchy.FirstChunkSize
	chunk, err := rf.Fetch(ctx, HierarchyName, &fetch.ByteRange{Offset: 0, Length: md.Hierarchy.FirstChunkSize})
	if err != nil {
		return nil, err
	}
	if err := parseHierarchy(root, chunk); err != nil {
		return nil, utils.NewResourceLoadError(rf.ResolveLocation(HierarchyName), utils.LoadFailureParse, err)
	}
	logger.Infow("point cloud loaded", "name", md.Name, "points", md.Points, "bounds", md.Bounds().String())

	h := &Handle{
		ID:       id,
		cfg:      a.cfg,
		logger:   logger,
		fetcher:  rf,
		metadata: md,
		root:     root,
		sem:      semaphore.NewWeighted(int64(a.cfg.MaxConcurrentLoads)),
		workers:  utils.NewStoppableWorkers(),
		material: material,
		wrapper:  scene.NoNode,
		content:  scene.NoNode,
	}
	h.cache = octree.NewCache(a.cfg.CacheBudget, func(n *octree.Node) {
		logger.Debugw("evicted node", "node", n.Name)
	})
	h.geometry = &cloudGeometry{handle: h}
	return h, nil
}

// Handle is a loaded point cloud. Everything except Close must be called from the goroutine that
// owns the scene graph.
type Handle struct {
	ID uuid.UUID

	cfg      Config
	logger   logging.Logger
	fetcher  *fetch.ResolvingFetcher
	metadata *Metadata
	root     *octree.Node
	cache    *octree.Cache
	sem      *semaphore.Weighted
	workers  utils.StoppableWorkers

	mu      sync.Mutex
	results []loadResult
	closed  bool

	material      Material
	visible       []*octree.Node
	visiblePoints int
	frame         uint64
	failures      int
	errs          []error

	graph    *scene.Graph
	wrapper  scene.NodeID
	content  scene.NodeID
	geometry *cloudGeometry
}

// Metadata returns the dataset description.
func (h *Handle) Metadata() *Metadata {
	return h.metadata
}

// Root returns the octree root.
func (h *Handle) Root() *octree.Node {
	return h.root
}

// Attach creates the point cloud's scene nodes under parent: a wrapper and a single child holding
// the streamed geometry. It returns the wrapper.
func (h *Handle) Attach(graph *scene.Graph, parent scene.NodeID) (scene.NodeID, error) {
	if h.graph != nil {
		return scene.NoNode, errors.New("point cloud is already attached")
	}
	name := h.metadata.Name
	if name == "" {
		name = "pointcloud"
	}
	wrapper, err := graph.Add(parent, name, scene.KindPointCloud, nil)
	if err != nil {
		return scene.NoNode, err
	}
	content, err := graph.Add(wrapper, name+"_points", scene.KindPointCloud, h.geometry)
	if err != nil {
		//nolint:errcheck
		graph.Remove(wrapper)
		return scene.NoNode, err
	}
	h.graph, h.wrapper, h.content = graph, wrapper, content
	return wrapper, nil
}

// Node returns the wrapper node, or scene.NoNode before Attach.
func (h *Handle) Node() scene.NodeID {
	return h.wrapper
}

// Material returns the current render parameters.
func (h *Handle) Material() Material {
	return h.material
}

// SetPointSize sets the point size, clamped to the configured minimum.
func (h *Handle) SetPointSize(size float64) {
	if size < h.cfg.MinimumPointSize {
		size = h.cfg.MinimumPointSize
	}
	h.material.Size = size
}

// IncrementPointSize grows points by one step.
func (h *Handle) IncrementPointSize() {
	h.SetPointSize(h.material.Size + h.cfg.PointSizeStep)
}

// DecrementPointSize shrinks points by one step, never below the minimum.
func (h *Handle) DecrementPointSize() {
	h.SetPointSize(h.material.Size - h.cfg.PointSizeStep)
}

// SetSizeType changes how point size is computed.
func (h *Handle) SetSizeType(st SizeType) {
	h.material.SizeType = st
}

// SetClip changes the clip mode and extent.
func (h *Handle) SetClip(mode ClipMode, extent ClipExtent) error {
	if err := extent.Validate(); err != nil {
		return err
	}
	h.material.Clip = mode
	h.material.ClipExtent = extent
	return nil
}
