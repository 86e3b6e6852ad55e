package potree

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"go.viam.com/annotator/octree"
)

// parseHierarchy applies a hierarchy chunk to the proxy node it was fetched for. Records are in
// breadth first order starting with the node itself; proxy records end a branch of the chunk and
// point at the chunk holding the rest of it.
func parseHierarchy(node *octree.Node, data []byte) error {
	if len(data) == 0 || len(data)%hierarchyRecordSize != 0 {
		return errors.Errorf("hierarchy chunk of %d bytes is not a whole number of records", len(data))
	}
	numRecords := len(data) / hierarchyRecordSize
	queue := make([]*octree.Node, 0, numRecords)
	queue = append(queue, node)

	for i := 0; i < numRecords; i++ {
		if i >= len(queue) {
			return errors.Errorf("hierarchy chunk has %d records but only %d nodes are referenced", numRecords, len(queue))
		}
		current := queue[i]
		rec := data[i*hierarchyRecordSize:]

		typ := octree.NodeType(rec[0])
		if typ > octree.NodeProxy {
			return errors.Errorf("node %s has unknown type %d", current.Name, rec[0])
		}
		current.Type = typ
		current.ChildMask = rec[1]
		current.NumPoints = binary.LittleEndian.Uint32(rec[2:6])
		current.ByteOffset = binary.LittleEndian.Uint64(rec[6:14])
		current.ByteSize = binary.LittleEndian.Uint64(rec[14:22])

		if typ == octree.NodeProxy {
			continue
		}
		for idx := 0; idx < 8; idx++ {
			if current.ChildMask&(1<<idx) == 0 {
				continue
			}
			child, err := current.AddChild(idx)
			if err != nil {
				return err
			}
			queue = append(queue, child)
		}
	}
	return nil
}
