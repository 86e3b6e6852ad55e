package viewer

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/annotator/align"
	"go.viam.com/annotator/framing"
	"go.viam.com/annotator/model"
	"go.viam.com/annotator/potree"
	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/spatialmath"
	"go.viam.com/annotator/utils"
)

// MeshesName names the group created for each reference mesh load.
const MeshesName = "meshes"

// CloudsName names the group holding the LAS clouds of a reference load.
const CloudsName = "clouds"

// LoadReference loads the meshes and LAS clouds at locations in the background and adds them
// under the reference group, then frames the group. Meshes are re-centered on the origin while
// clouds keep their file coordinates. Failures are reported to the listener and leave the scene
// unchanged.
func (v *Viewer) LoadReference(locations []string) {
	var meshLocs, cloudLocs []string
	for _, loc := range locations {
		if isLAS(loc) {
			cloudLocs = append(cloudLocs, loc)
		} else {
			meshLocs = append(meshLocs, loc)
		}
	}
	v.workers.AddWorkers(func(ctx context.Context) {
		var meshes []*spatialmath.Mesh
		var clouds []*scene.Points
		var err error
		if len(meshLocs) > 0 {
			meshes, err = v.loader.LoadMeshes(ctx, meshLocs)
		}
		for _, loc := range cloudLocs {
			if err != nil {
				break
			}
			var pts *scene.Points
			if pts, err = v.loader.LoadLAS(ctx, loc); err == nil {
				clouds = append(clouds, pts)
			}
		}
		v.Submit(func() {
			if err != nil {
				v.reportFailure(err)
				return
			}
			if err := v.addReference(meshes, clouds); err != nil {
				v.reportFailure(err)
				return
			}
			v.frame(v.reference, false)
		})
	})
}

// addReference adds loaded meshes and clouds under the reference group. Nothing is added when
// any part fails.
func (v *Viewer) addReference(meshes []*spatialmath.Mesh, clouds []*scene.Points) error {
	graph := v.Graph()
	var added []scene.NodeID
	undo := func(err error) error {
		for _, id := range added {
			err = multierr.Combine(err, graph.Remove(id))
		}
		return err
	}
	if len(meshes) > 0 {
		id, err := model.AddMeshes(graph, v.reference, MeshesName, scene.KindGroup, meshes, model.DefaultModelColor)
		if err != nil {
			return err
		}
		added = append(added, id)
	}
	if len(clouds) == 0 {
		return nil
	}
	group, err := graph.Add(v.reference, CloudsName, scene.KindGroup, nil)
	if err != nil {
		return undo(err)
	}
	added = append(added, group)
	for i, pts := range clouds {
		pts.Size = v.cfg.PointCloud.DefaultPointSize
		if _, err := graph.Add(group, CloudsName+"_"+strconv.Itoa(i), scene.KindPointCloud, pts); err != nil {
			return undo(err)
		}
	}
	return nil
}

// ReferenceGroups is the number of groups a LoadReference of locations adds under the
// reference group once it succeeds.
func ReferenceGroups(locations []string) int {
	var meshes, clouds int
	for _, loc := range locations {
		if isLAS(loc) {
			clouds = 1
		} else {
			meshes = 1
		}
	}
	return meshes + clouds
}

func isLAS(location string) bool {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	return strings.EqualFold(path.Ext(location), ".las")
}

// LoadPointCloud starts streaming the point cloud described by files, a list of locations of
// which three must end in hierarchy.bin, octree.bin and metadata.json. Once the metadata is read
// the cloud is attached under the reference group and framed. An incomplete list is reported
// immediately and returned.
func (v *Viewer) LoadPointCloud(files []string) error {
	src := potree.ResolveSource(files)
	if !src.Complete() {
		err := utils.NewResourceLoadError(strings.Join(files, ","), utils.LoadFailureBadSource,
			errors.Errorf("need %s, %s and %s", potree.HierarchyName, potree.OctreeName, potree.MetadataName))
		v.reportFailure(err)
		return err
	}
	v.workers.AddWorkers(func(ctx context.Context) {
		h, err := v.adapter.Load(ctx, src)
		if err != nil {
			v.Submit(func() { v.reportFailure(err) })
			return
		}
		if !v.track(h) {
			goutils.UncheckedErrorFunc(h.Close)
			return
		}
		v.Submit(func() { v.attachCloud(h) })
	})
	return nil
}

// track records h so that Close releases it even if it is never attached.
func (v *Viewer) track(h *potree.Handle) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closing {
		return false
	}
	v.handles = append(v.handles, h)
	return true
}

func (v *Viewer) attachCloud(h *potree.Handle) {
	wrapper, err := h.Attach(v.Graph(), v.reference)
	if err != nil {
		v.reportFailure(err)
		return
	}
	v.clouds = append(v.clouds, h)
	v.frame(wrapper, true)
}

func (v *Viewer) frame(target scene.NodeID, firstChildOnly bool) {
	err := framing.Frame(v.Graph(), target, v.manager.Camera(), framing.Options{
		ZoomFactor:     v.cfg.Framing.ZoomFactor,
		FirstChildOnly: firstChildOnly,
		MinDimension:   v.cfg.Framing.MinDimension,
	})
	if err != nil {
		v.logger.Warnw("cannot frame loaded reference", "target", target, "error", err)
	}
}

// loadModelInto loads entry in the background and fits it into box. The fit is skipped when the
// box is gone by the time the model arrives.
func (v *Viewer) loadModelInto(entry model.Entry, box scene.NodeID) {
	v.workers.AddWorkers(func(ctx context.Context) {
		mesh, err := v.loader.LoadOBJ(ctx, entry.Path)
		v.Submit(func() {
			if err != nil {
				v.reportFailure(err)
				return
			}
			if !v.Graph().Contains(box) {
				v.logger.Debugw("annotation removed before its model loaded", "model", entry.Name, "box", box)
				return
			}
			if _, err := v.fitModel(entry.Name, mesh, box); err != nil {
				v.reportFailure(err)
			}
		})
	})
}

// fitModel adds mesh as a model node and aligns it into box. On failure no model node remains.
func (v *Viewer) fitModel(name string, mesh *spatialmath.Mesh, box scene.NodeID) (scene.NodeID, error) {
	graph := v.Graph()
	if !graph.Contains(box) {
		return scene.NoNode, scene.NewNodeNotFoundError(box)
	}
	id, err := model.AddMeshes(graph, graph.Root(), name, scene.KindModel, []*spatialmath.Mesh{mesh}, model.DefaultModelColor)
	if err != nil {
		return scene.NoNode, err
	}
	res, err := align.AlignModelIntoBox(graph, id, box)
	if err != nil {
		return scene.NoNode, multierr.Combine(err, graph.Remove(id))
	}
	v.logger.Debugw("aligned model", "model", name, "box", box, "scale", res.Scale)
	return id, nil
}

// reportFailure logs err and passes it to the listener with its reason.
func (v *Viewer) reportFailure(err error) {
	reason := utils.LoadFailureNetwork
	var rle *utils.ResourceLoadError
	var dge *utils.DegenerateGeometryError
	switch {
	case errors.As(err, &rle):
		reason = rle.Reason
	case errors.As(err, &dge), errors.Is(err, scene.ErrShear):
		reason = utils.LoadFailureGeometry
	case errors.Is(err, context.Canceled):
		reason = utils.LoadFailureCanceled
	}
	v.logger.Warnw("load failed", "reason", reason, "error", err)
	v.listener.LoadFailed(reason, err)
}
