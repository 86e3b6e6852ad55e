package pointcloud

import (
	"github.com/golang/geo/r3"
)

// PointAndData is a point with its data.
type PointAndData struct {
	P r3.Vector
	D Data
}

type storage interface {
	Size() int
	Set(p r3.Vector, d Data) error
	At(x, y, z float64) (Data, bool)
	Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool)
}

// matrixStorage keeps points in insertion order with a position index for lookups.
type matrixStorage struct {
	points   []PointAndData
	indexMap map[r3.Vector]uint
}

func (ms *matrixStorage) Size() int {
	return len(ms.points)
}

func (ms *matrixStorage) Set(p r3.Vector, d Data) error {
	if i, ok := ms.indexMap[p]; ok {
		ms.points[i].D = d
		return nil
	}
	ms.points = append(ms.points, PointAndData{P: p, D: d})
	ms.indexMap[p] = uint(len(ms.points) - 1)
	return nil
}

func (ms *matrixStorage) At(x, y, z float64) (Data, bool) {
	i, ok := ms.indexMap[r3.Vector{X: x, Y: y, Z: z}]
	if !ok {
		return Data{}, false
	}
	return ms.points[i].D, true
}

func (ms *matrixStorage) Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool) {
	lo, hi := 0, len(ms.points)
	if numBatches > 0 {
		batchSize := (len(ms.points) + numBatches - 1) / numBatches
		lo = myBatch * batchSize
		hi = min(lo+batchSize, len(ms.points))
	}
	for i := lo; i < hi; i++ {
		if !fn(ms.points[i].P, ms.points[i].D) {
			return
		}
	}
}
