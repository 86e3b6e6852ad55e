package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/annotator/logging"
	"go.viam.com/annotator/utils"
)

const payload = "0123456789abcdef"

func newServer(t *testing.T, honorRange bool) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		if honorRange {
			http.ServeContent(w, r, "data.bin", time.Time{}, strings.NewReader(payload))
			return
		}
		//nolint:errcheck
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func reason(t *testing.T, err error) utils.LoadFailureReason {
	t.Helper()
	var rle *utils.ResourceLoadError
	test.That(t, errors.As(err, &rle), test.ShouldBeTrue)
	return rle.Reason
}

func TestHTTPFetcher(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	t.Run("range honored", func(t *testing.T) {
		srv, _ := newServer(t, true)
		hf := NewHTTPFetcher(srv.Client(), logger)
		data, err := hf.Fetch(ctx, srv.URL+"/octree.bin", &ByteRange{Offset: 4, Length: 3})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, string(data), test.ShouldEqual, "456")

		data, err = hf.Fetch(ctx, srv.URL+"/octree.bin", nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, string(data), test.ShouldEqual, payload)
	})

	t.Run("range ignored", func(t *testing.T) {
		srv, _ := newServer(t, false)
		hf := NewHTTPFetcher(srv.Client(), logger)
		data, err := hf.Fetch(ctx, srv.URL+"/octree.bin", &ByteRange{Offset: 10, Length: 6})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, string(data), test.ShouldEqual, "abcdef")

		_, err = hf.Fetch(ctx, srv.URL+"/octree.bin", &ByteRange{Offset: 10, Length: 7})
		test.That(t, reason(t, err), test.ShouldEqual, utils.LoadFailureParse)
	})

	t.Run("not found", func(t *testing.T) {
		srv, _ := newServer(t, true)
		hf := NewHTTPFetcher(srv.Client(), logger)
		_, err := hf.Fetch(ctx, srv.URL+"/missing", nil)
		test.That(t, reason(t, err), test.ShouldEqual, utils.LoadFailureNotFound)
	})

	t.Run("canceled", func(t *testing.T) {
		srv, _ := newServer(t, true)
		hf := NewHTTPFetcher(srv.Client(), logger)
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := hf.Fetch(cancelCtx, srv.URL+"/octree.bin", nil)
		test.That(t, reason(t, err), test.ShouldEqual, utils.LoadFailureCanceled)
	})
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	test.That(t, os.WriteFile(filepath.Join(dir, "hierarchy.bin"), []byte(payload), 0o600), test.ShouldBeNil)
	ff := &FileFetcher{Root: dir}
	ctx := context.Background()

	data, err := ff.Fetch(ctx, "hierarchy.bin", &ByteRange{Offset: 1, Length: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "12")

	data, err = ff.Fetch(ctx, "file://"+filepath.Join(dir, "hierarchy.bin"), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, payload)

	_, err = ff.Fetch(ctx, "nope.bin", nil)
	test.That(t, reason(t, err), test.ShouldEqual, utils.LoadFailureNotFound)

	_, err = ff.Fetch(ctx, "hierarchy.bin", &ByteRange{Offset: 10, Length: 10})
	test.That(t, reason(t, err), test.ShouldEqual, utils.LoadFailureParse)
}

func TestResolvingFetcher(t *testing.T) {
	srv, seen := newServer(t, true)
	base := &Default{HTTP: NewHTTPFetcher(srv.Client(), logging.NewTestLogger(t)), File: &FileFetcher{}}
	resolver := ResolverFunc(func(location string) (string, bool) {
		if strings.Contains(location, "octree.bin") {
			return srv.URL + "/signed/octree", true
		}
		return "", false
	})
	rf := NewResolvingFetcher(base, resolver)

	test.That(t, rf.ResolveLocation("pc/octree.bin"), test.ShouldEqual, srv.URL+"/signed/octree")
	test.That(t, rf.ResolveLocation(srv.URL+"/textures/a.png"), test.ShouldEqual, srv.URL+"/textures/a.png")

	_, err := rf.Fetch(context.Background(), "octree.bin", &ByteRange{Offset: 0, Length: 1})
	test.That(t, err, test.ShouldBeNil)
	_, err = rf.Fetch(context.Background(), srv.URL+"/textures/a.png", nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *seen, test.ShouldResemble, []string{"/signed/octree", "/textures/a.png"})

	passthrough := NewResolvingFetcher(base, nil)
	test.That(t, passthrough.ResolveLocation("octree.bin"), test.ShouldEqual, "octree.bin")
}
