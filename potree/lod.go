package potree

import (
	"container/heap"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"go.viam.com/annotator/octree"
	"go.viam.com/annotator/spatialmath"
	"go.viam.com/annotator/utils"
	"go.viam.com/annotator/viewport"
)

type queueItem struct {
	node   *octree.Node
	weight float64
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].weight > pq[j].weight }
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	item := old[len(old)-1]
	*pq = old[:len(old)-1]
	return item
}

// view is everything the traversal needs from the camera for one frame, in world space.
type view struct {
	viewProj   mgl64.Mat4
	world      mgl64.Mat4
	camera     r3.Vector
	halfHeight float64
	slope      float64
	material   Material
}

func newView(cam *viewport.Camera, world mgl64.Mat4, height int, material Material) view {
	return view{
		viewProj:   cam.ViewProjection(),
		world:      world,
		camera:     cam.Position,
		halfHeight: 0.5 * float64(height),
		slope:      math.Tan(utils.DegToRad(cam.Fov) / 2),
		material:   material,
	}
}

// culled reports whether a world space box is entirely outside the frustum or the clip extent.
func (v view) culled(b spatialmath.AABB) bool {
	var outside [6]int
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	behind := false
	for _, c := range b.Corners() {
		clip := v.viewProj.Mul4x1(mgl64.Vec4{c.X, c.Y, c.Z, 1})
		x, y, z, w := clip[0], clip[1], clip[2], clip[3]
		if x < -w {
			outside[0]++
		}
		if x > w {
			outside[1]++
		}
		if y < -w {
			outside[2]++
		}
		if y > w {
			outside[3]++
		}
		if z < -w {
			outside[4]++
		}
		if z > w {
			outside[5]++
		}
		if w <= 0 {
			behind = true
			continue
		}
		sx, sy := (x/w+1)/2, (y/w+1)/2
		minX, maxX = math.Min(minX, sx), math.Max(maxX, sx)
		minY, maxY = math.Min(minY, sy), math.Max(maxY, sy)
	}
	for _, n := range outside {
		if n == 8 {
			return true
		}
	}
	if behind {
		return false
	}
	ext := v.material.ClipExtent
	switch v.material.Clip {
	case ClipHorizontally:
		return maxX < ext[0] || minX > ext[2]
	case ClipVertically:
		return maxY < ext[1] || minY > ext[3]
	case ClipDisabled:
	}
	return false
}

// weight ranks a node by its projected size; nodes the camera is inside of come first.
func (v view) weight(b spatialmath.AABB) (weight, pixelRadius float64) {
	center := b.Center()
	radius := b.Size().Norm() / 2
	distance := center.Sub(v.camera).Norm()
	if distance < radius {
		return math.MaxFloat64, math.MaxFloat64
	}
	pixelRadius = radius * v.halfHeight / (v.slope * distance)
	return pixelRadius + 1/distance, pixelRadius
}

// selection is the outcome of one traversal.
type selection struct {
	visible       []*octree.Node
	toLoad        []*octree.Node
	visiblePoints int
}

// selectNodes walks the octree from the largest on-screen nodes down, stopping once the point
// budget is spent. Unloaded nodes are queued for loading and their subtrees are not visited.
func selectNodes(root *octree.Node, v view, cfg Config) selection {
	var sel selection
	pq := priorityQueue{{node: root, weight: math.MaxFloat64}}
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(queueItem)
		node := item.node
		if sel.visiblePoints+int(node.NumPoints) > cfg.PointBudget {
			break
		}
		bounds := node.Bounds.ApplyMatrix(v.world)
		if v.culled(bounds) {
			continue
		}
		sel.visiblePoints += int(node.NumPoints)

		if node.State != octree.Loaded {
			if node.State == octree.Unloaded {
				sel.toLoad = append(sel.toLoad, node)
			}
			continue
		}
		sel.visible = append(sel.visible, node)

		for _, child := range node.Children {
			if child == nil {
				continue
			}
			cb := child.Bounds.ApplyMatrix(v.world)
			w, px := v.weight(cb)
			if px < cfg.MinNodePixelSize {
				continue
			}
			heap.Push(&pq, queueItem{node: child, weight: w})
		}
	}
	return sel
}
