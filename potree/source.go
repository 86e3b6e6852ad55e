// Package potree streams Potree 2.0 point clouds into a scene graph, paging octree nodes in and
// out every frame according to what the camera can see.
package potree

import (
	"strings"

	"go.viam.com/annotator/fetch"
)

// The logical resource names a Potree 2.0 dataset is made of.
const (
	HierarchyName = "hierarchy.bin"
	OctreeName    = "octree.bin"
	MetadataName  = "metadata.json"
)

// Source is where one point cloud's three resources actually live, typically pre-signed URLs.
// An empty location leaves that resource unresolved, so it is read by its logical name.
type Source struct {
	Hierarchy string
	Octree    string
	Metadata  string
	// Material is the cloud's initial render parameters. Nil means the configured defaults.
	Material *Material
}

// ResolveSource picks the hierarchy, octree and metadata locations out of a file list by name.
// Anything else in the list is ignored. When several entries match the same resource, the last
// one wins.
func ResolveSource(files []string) Source {
	var src Source
	for _, f := range files {
		switch {
		case strings.Contains(f, HierarchyName):
			src.Hierarchy = f
		case strings.Contains(f, OctreeName):
			src.Octree = f
		case strings.Contains(f, MetadataName):
			src.Metadata = f
		}
	}
	return src
}

// Complete reports whether all three locations are set.
func (s Source) Complete() bool {
	return s.Hierarchy != "" && s.Octree != "" && s.Metadata != ""
}

// Resolver returns a resolver redirecting the three logical resources of this source and nothing
// else. It is scoped to one load; two loads never see each other's locations.
func (s Source) Resolver() fetch.Resolver {
	return fetch.ResolverFunc(func(location string) (string, bool) {
		var resolved string
		switch {
		case strings.Contains(location, HierarchyName):
			resolved = s.Hierarchy
		case strings.Contains(location, OctreeName):
			resolved = s.Octree
		case strings.Contains(location, MetadataName):
			resolved = s.Metadata
		}
		return resolved, resolved != ""
	})
}
