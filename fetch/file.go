package fetch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/annotator/utils"
)

// FileFetcher reads resources from the local file system. Relative locations are resolved
// against Root.
type FileFetcher struct {
	Root string
}

// Fetch reads the requested range of a file. file:// prefixes are accepted.
func (ff *FileFetcher) Fetch(ctx context.Context, location string, r *ByteRange) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureCanceled, err)
	}
	path := strings.TrimPrefix(location, "file://")
	if !filepath.IsAbs(path) && ff.Root != "" {
		path = filepath.Join(ff.Root, path)
	}
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, utils.NewResourceLoadError(location, utils.LoadFailureNotFound, err)
		}
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureNetwork, err)
	}
	defer goutils.UncheckedErrorFunc(f.Close)

	if r == nil {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, utils.NewResourceLoadError(location, utils.LoadFailureNetwork, err)
		}
		return data, nil
	}
	buf := make([]byte, r.Length)
	if _, err := f.ReadAt(buf, int64(r.Offset)); err != nil {
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureParse, errors.Wrapf(err, "reading range %s", r))
	}
	return buf, nil
}
