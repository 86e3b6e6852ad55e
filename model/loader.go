package model

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/annotator/fetch"
	"go.viam.com/annotator/logging"
	"go.viam.com/annotator/pointcloud"
	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/spatialmath"
	"go.viam.com/annotator/utils"
)

// DefaultModelColor is used for meshes without a configured color.
var DefaultModelColor = color.RGBA{R: 0xa0, G: 0xa0, B: 0xa0, A: 0xff}

// Loader reads model files through a fetcher.
type Loader struct {
	fetcher fetch.Fetcher
	logger  logging.Logger
}

// NewLoader returns a loader.
func NewLoader(fetcher fetch.Fetcher, logger logging.Logger) *Loader {
	return &Loader{fetcher: fetcher, logger: logger}
}

// LoadOBJ fetches and decodes one OBJ file into a single mesh.
func (l *Loader) LoadOBJ(ctx context.Context, location string) (*spatialmath.Mesh, error) {
	data, err := l.fetcher.Fetch(ctx, location, nil)
	if err != nil {
		return nil, err
	}
	obj, err := DecodeOBJ(bytes.NewReader(data))
	if err != nil {
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureParse, err)
	}
	for _, w := range obj.Warnings {
		l.logger.Debugw("obj warning", "location", location, "warning", w)
	}
	mesh := obj.Mesh()
	if size := mesh.Bounds().Size(); size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureGeometry, utils.NewDegenerateGeometryError("model", size))
	}
	l.logger.Debugw("loaded obj", "location", location, "objects", len(obj.Objects), "triangles", len(mesh.Triangles()))
	return mesh, nil
}

// LoadMeshes loads several files concurrently and re-centers each one on the origin. The result
// is in input order. The first failure cancels the remaining loads.
func (l *Loader) LoadMeshes(ctx context.Context, locations []string) ([]*spatialmath.Mesh, error) {
	meshes := make([]*spatialmath.Mesh, len(locations))
	g, gctx := errgroup.WithContext(ctx)
	for i, loc := range locations {
		g.Go(func() error {
			mesh, err := l.LoadOBJ(gctx, loc)
			if err != nil {
				return err
			}
			meshes[i] = mesh.Translated(mesh.Bounds().Center().Mul(-1))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}

// LoadLAS reads a LAS point cloud. Remote files are downloaded to a temporary file first.
func (l *Loader) LoadLAS(ctx context.Context, location string) (pts *scene.Points, err error) {
	path := strings.TrimPrefix(location, "file://")
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		data, err := l.fetcher.Fetch(ctx, location, nil)
		if err != nil {
			return nil, err
		}
		f, err := os.CreateTemp("", "reference-*.las")
		if err != nil {
			return nil, err
		}
		path = f.Name()
		defer func() {
			err = multierr.Combine(err, os.Remove(path))
		}()
		_, werr := f.Write(data)
		if err := multierr.Combine(werr, f.Close()); err != nil {
			return nil, err
		}
	}
	if filepath.Ext(path) != ".las" {
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureBadSource, errors.New("reference clouds must be .las files"))
	}
	if _, serr := os.Stat(path); serr != nil {
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureNotFound, serr)
	}
	cloud, err := pointcloud.NewFromFile(path, l.logger)
	if err != nil {
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureParse, err)
	}
	positions, colors := pointcloud.Flatten(cloud)
	return &scene.Points{Positions: positions, Colors: colors, Size: 1}, nil
}

// AddMeshes adds a node of the given kind under parent with one mesh child per mesh, and returns
// it.
func AddMeshes(graph *scene.Graph, parent scene.NodeID, name string, kind scene.Kind,
	meshes []*spatialmath.Mesh, c color.RGBA,
) (scene.NodeID, error) {
	group, err := graph.Add(parent, name, kind, nil)
	if err != nil {
		return scene.NoNode, err
	}
	for i, m := range meshes {
		if _, err := graph.Add(group, name+"_"+strconv.Itoa(i), scene.KindMesh, scene.NewMeshGeometry(m, c)); err != nil {
			return scene.NoNode, multierr.Combine(err, graph.Remove(group))
		}
	}
	return group, nil
}
