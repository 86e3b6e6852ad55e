// Package fetch reads byte ranges of remote or local resources, optionally through a per-load
// resolver that redirects logical resource names to concrete locations.
package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/annotator/utils"
)

// ByteRange is a half-open range [Offset, Offset+Length) of a resource. A nil range means the
// whole resource.
type ByteRange struct {
	Offset uint64
	Length uint64
}

func (r *ByteRange) String() string {
	if r == nil {
		return "all"
	}
	return fmt.Sprintf("%d+%d", r.Offset, r.Length)
}

// Fetcher reads resources.
type Fetcher interface {
	Fetch(ctx context.Context, location string, r *ByteRange) ([]byte, error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context, location string, r *ByteRange) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, location string, r *ByteRange) ([]byte, error) {
	return f(ctx, location, r)
}

// Resolver maps the location a loader asks for to the location that should actually be read.
// ok is false for locations the resolver does not handle; those pass through unchanged.
type Resolver interface {
	Resolve(location string) (resolved string, ok bool)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(location string) (string, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(location string) (string, bool) {
	return f(location)
}

// ResolvingFetcher redirects locations through a Resolver before fetching.
type ResolvingFetcher struct {
	Base     Fetcher
	Resolver Resolver
}

// NewResolvingFetcher returns a fetcher that resolves through resolver, which may be nil.
func NewResolvingFetcher(base Fetcher, resolver Resolver) *ResolvingFetcher {
	return &ResolvingFetcher{Base: base, Resolver: resolver}
}

// Fetch resolves location and reads it from the base fetcher.
func (rf *ResolvingFetcher) Fetch(ctx context.Context, location string, r *ByteRange) ([]byte, error) {
	return rf.Base.Fetch(ctx, rf.ResolveLocation(location), r)
}

// ResolveLocation returns where location will actually be read from.
func (rf *ResolvingFetcher) ResolveLocation(location string) string {
	if rf.Resolver == nil {
		return location
	}
	if resolved, ok := rf.Resolver.Resolve(location); ok {
		return resolved
	}
	return location
}

// Default fetches http and https locations over HTTP and everything else from the local file
// system.
type Default struct {
	HTTP *HTTPFetcher
	File *FileFetcher
}

// Fetch dispatches on the location's scheme.
func (d *Default) Fetch(ctx context.Context, location string, r *ByteRange) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return d.HTTP.Fetch(ctx, location, r)
	}
	return d.File.Fetch(ctx, location, r)
}

func classify(ctx context.Context, location string, err error) error {
	var rle *utils.ResourceLoadError
	if errors.As(err, &rle) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return utils.NewResourceLoadError(location, utils.LoadFailureCanceled, err)
	}
	return utils.NewResourceLoadError(location, utils.LoadFailureNetwork, err)
}

func sliceRange(data []byte, r *ByteRange) ([]byte, error) {
	if r == nil {
		return data, nil
	}
	end := r.Offset + r.Length
	if end > uint64(len(data)) {
		return nil, errors.Errorf("range %s exceeds resource size %d", r, len(data))
	}
	return data[r.Offset:end], nil
}
