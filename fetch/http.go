package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/annotator/logging"
	"go.viam.com/annotator/utils"
)

// DefaultHTTPTimeout bounds a single request.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPFetcher reads resources over HTTP using Range requests.
type HTTPFetcher struct {
	client *http.Client
	logger logging.Logger
}

// NewHTTPFetcher returns a fetcher using client, or a client with DefaultHTTPTimeout when nil.
func NewHTTPFetcher(client *http.Client, logger logging.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTPFetcher{client: client, logger: logger}
}

// Fetch issues a GET for location. Servers that ignore the Range header are handled by slicing
// the full body.
func (hf *HTTPFetcher) Fetch(ctx context.Context, location string, r *ByteRange) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureBadSource, err)
	}
	if r != nil {
		if r.Length == 0 {
			return []byte{}, nil
		}
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", r.Offset, r.Offset+r.Length-1))
	}
	hf.logger.Debugw("fetching", "location", location, "range", r.String())

	resp, err := hf.client.Do(req)
	if err != nil {
		return nil, classify(ctx, location, err)
	}
	defer func() {
		//nolint:errcheck
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureNotFound, errors.New(resp.Status))
	case resp.StatusCode >= 400:
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureNetwork, errors.New(resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, location, err)
	}
	if resp.StatusCode == http.StatusPartialContent || r == nil {
		if r != nil && uint64(len(body)) != r.Length {
			return nil, utils.NewResourceLoadError(location, utils.LoadFailureNetwork,
				errors.Errorf("short range read: wanted %d bytes, got %d", r.Length, len(body)))
		}
		return body, nil
	}
	out, err := sliceRange(body, r)
	if err != nil {
		return nil, utils.NewResourceLoadError(location, utils.LoadFailureParse, err)
	}
	return out, nil
}
