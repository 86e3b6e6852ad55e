package testutils

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

// PotreeScale is the position quantization of the generated datasets.
const PotreeScale = 0.001

// PotreeNode describes one node of a generated dataset. Proxy nodes have their own record moved
// into a second hierarchy chunk.
type PotreeNode struct {
	Name   string
	Points []r3.Vector
	Proxy  bool
}

// PotreeDataset is an in-memory Potree 2.0 dataset.
type PotreeDataset struct {
	Metadata  []byte
	Hierarchy []byte
	Octree    []byte
}

// NewPotreeDataset returns a dataset covering [0, 8]^3 with the root holding (4, 4, 4), child
// r0 holding two points in the low octant and child r7 holding two points in the high octant.
// r7 is a proxy whose record lives in a second hierarchy chunk.
func NewPotreeDataset() PotreeDataset {
	return BuildPotreeDataset(r3.Vector{}, r3.Vector{X: 8, Y: 8, Z: 8}, []PotreeNode{
		{Name: "r", Points: []r3.Vector{{X: 4, Y: 4, Z: 4}}},
		{Name: "r0", Points: []r3.Vector{{X: 1, Y: 1, Z: 1}, {X: 3, Y: 3, Z: 3}}},
		{Name: "r7", Points: []r3.Vector{{X: 5, Y: 5, Z: 5}, {X: 7, Y: 7, Z: 7}}, Proxy: true},
	})
}

// BuildPotreeDataset encodes nodes, which must be listed in breadth first order with their
// parents present. Proxy nodes must be leaves.
func BuildPotreeDataset(lo, hi r3.Vector, nodes []PotreeNode) PotreeDataset {
	const stride = 18
	var octree []byte
	offsets := map[string][2]uint64{}
	for _, n := range nodes {
		start := uint64(len(octree))
		for i, p := range n.Points {
			var rec [stride]byte
			binary.LittleEndian.PutUint32(rec[0:], uint32(int32(math.Round(p.X/PotreeScale))))
			binary.LittleEndian.PutUint32(rec[4:], uint32(int32(math.Round(p.Y/PotreeScale))))
			binary.LittleEndian.PutUint32(rec[8:], uint32(int32(math.Round(p.Z/PotreeScale))))
			binary.LittleEndian.PutUint16(rec[12:], uint16(65535))
			binary.LittleEndian.PutUint16(rec[14:], uint16(i*100))
			binary.LittleEndian.PutUint16(rec[16:], uint16(0))
			octree = append(octree, rec[:]...)
		}
		offsets[n.Name] = [2]uint64{start, uint64(len(octree)) - start}
	}

	mask := func(name string) uint8 {
		var m uint8
		for _, n := range nodes {
			if len(n.Name) == len(name)+1 && strings.HasPrefix(n.Name, name) {
				m |= 1 << (n.Name[len(name)] - '0')
			}
		}
		return m
	}
	record := func(typ, childMask uint8, numPoints int, offset, size uint64) []byte {
		var rec [22]byte
		rec[0] = typ
		rec[1] = childMask
		binary.LittleEndian.PutUint32(rec[2:], uint32(numPoints))
		binary.LittleEndian.PutUint64(rec[6:], offset)
		binary.LittleEndian.PutUint64(rec[14:], size)
		return rec[:]
	}

	var first, rest []byte
	firstChunkSize := uint64(22 * len(nodes))
	for _, n := range nodes {
		off := offsets[n.Name]
		if n.Proxy {
			chunkOffset := firstChunkSize + uint64(len(rest))
			first = append(first, record(2, 0, len(n.Points), chunkOffset, 22)...)
			rest = append(rest, record(1, 0, len(n.Points), off[0], off[1])...)
			continue
		}
		typ := uint8(0)
		if mask(n.Name) == 0 {
			typ = 1
		}
		first = append(first, record(typ, mask(n.Name), len(n.Points), off[0], off[1])...)
	}

	total := 0
	for _, n := range nodes {
		total += len(n.Points)
	}
	md := map[string]interface{}{
		"version":     "2.0",
		"name":        "synthetic",
		"description": "",
		"points":      total,
		"projection":  "",
		"hierarchy": map[string]interface{}{
			"firstChunkSize": firstChunkSize,
			"stepSize":       4,
			"depth":          2,
		},
		"offset":      []float64{0, 0, 0},
		"scale":       []float64{PotreeScale, PotreeScale, PotreeScale},
		"spacing":     1,
		"boundingBox": map[string]interface{}{"min": []float64{lo.X, lo.Y, lo.Z}, "max": []float64{hi.X, hi.Y, hi.Z}},
		"encoding":    "DEFAULT",
		"attributes": []map[string]interface{}{
			{"name": "position", "size": 12, "numElements": 3, "elementSize": 4, "type": "int32"},
			{"name": "rgb", "size": 6, "numElements": 3, "elementSize": 2, "type": "uint16"},
		},
	}
	raw, err := json.Marshal(md)
	if err != nil {
		panic(err)
	}
	return PotreeDataset{Metadata: raw, Hierarchy: append(first, rest...), Octree: octree}
}

// Files maps the dataset's logical file names to their contents.
func (d PotreeDataset) Files() map[string][]byte {
	return map[string][]byte{
		"metadata.json": d.Metadata,
		"hierarchy.bin": d.Hierarchy,
		"octree.bin":    d.Octree,
	}
}

// WriteTo writes the dataset into dir.
func (d PotreeDataset) WriteTo(t *testing.T, dir string) {
	t.Helper()
	for name, data := range d.Files() {
		test.That(t, os.WriteFile(filepath.Join(dir, name), data, 0o600), test.ShouldBeNil)
	}
}

// PotreeServer serves datasets over HTTP with range support and records every path requested.
type PotreeServer struct {
	*httptest.Server

	mu    sync.Mutex
	paths []string
}

// NewPotreeServer serves each dataset under /<prefix>/<logical name>. Anything else is a 404.
func NewPotreeServer(t *testing.T, datasets map[string]PotreeDataset) *PotreeServer {
	t.Helper()
	ps := &PotreeServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.paths = append(ps.paths, r.URL.Path)
		ps.mu.Unlock()
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
		if len(parts) == 2 {
			if d, ok := datasets[parts[0]]; ok {
				if data, ok := d.Files()[parts[1]]; ok {
					http.ServeContent(w, r, parts[1], time.Time{}, strings.NewReader(string(data)))
					return
				}
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(ps.Close)
	return ps
}

// Paths returns the paths requested so far.
func (ps *PotreeServer) Paths() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]string(nil), ps.paths...)
}

// URLs returns the three locations of a served dataset, plus an unrelated file.
func (ps *PotreeServer) URLs(prefix string) []string {
	return []string{
		ps.URL + "/" + prefix + "/hierarchy.bin",
		ps.URL + "/" + prefix + "/octree.bin",
		ps.URL + "/" + prefix + "/metadata.json",
		ps.URL + "/" + prefix + "/readme.txt",
	}
}
