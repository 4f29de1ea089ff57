package transport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbocchi/tubeup/config"
	"github.com/beanbocchi/tubeup/internal/client/objectstore/local"
	"github.com/beanbocchi/tubeup/internal/service"
	"github.com/beanbocchi/tubeup/internal/utils/blake3"
	"github.com/beanbocchi/tubeup/pkg/sdk"
	"github.com/beanbocchi/tubeup/pkg/uploader"
)

const mib = 1024 * 1024

type testServer struct {
	*httptest.Server
	client *sdk.Client
}

// newTestServer serves a local-store backend. The handler is swapped in after
// the listener exists so part addresses can point back at it.
func newTestServer(t *testing.T, partSize int64) *testServer {
	t.Helper()
	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	store, err := local.NewClient(local.LocalConfig{Root: t.TempDir()})
	require.NoError(t, err)
	svc, err := service.New(store, srv.URL, config.Upload{
		PartSize:  partSize,
		MaxParts:  10000,
		KeyPrefix: "videos/video",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	e, err := NewEcho(svc, 5*time.Second)
	require.NoError(t, err)
	handler = e

	return &testServer{
		Server: srv,
		client: sdk.NewClientWithHTTPClient(srv.URL+"/api/v1", srv.Client()),
	}
}

func payload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte((i * 7) % 253)
	}
	return data
}

func TestUploadEndToEnd(t *testing.T) {
	ts := newTestServer(t, 5*mib)
	data := payload(12 * mib)

	var snapshots []uploader.Snapshot
	up, err := uploader.New(ts.client, bytes.NewReader(data),
		uploader.FileMetadata{Name: "clip.mp4", ContentType: "video/mp4"},
		uploader.WithHTTPClient(ts.Client()),
		uploader.WithConcurrency(2),
	)
	require.NoError(t, err)
	up.OnProgress(func(s uploader.Snapshot) { snapshots = append(snapshots, s) })

	url, err := up.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uploader.StateCompleted, up.State())
	assert.Equal(t, 3, up.Session().PartCount)
	assert.True(t, strings.HasPrefix(url, ts.URL+"/files/videos/video/"))

	require.NotEmpty(t, snapshots)
	last := snapshots[len(snapshots)-1]
	assert.Equal(t, float64(100), last.PercentComplete)
	assert.Equal(t, int64(len(data)), last.BytesTransferred)

	resp, err := ts.Client().Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, data, body)

	checksum, err := blake3.Compute(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, `"`+checksum+`"`, resp.Header.Get("ETag"))

	page, err := ts.client.ListUploads(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Uploads, "completed sessions are not listed")
}

func TestUploadSequential(t *testing.T) {
	ts := newTestServer(t, 5*mib)
	data := payload(5*mib + 1)

	up, err := uploader.New(ts.client, bytes.NewReader(data),
		uploader.FileMetadata{Name: "clip.mov"},
		uploader.WithHTTPClient(ts.Client()),
		uploader.WithSequential(),
	)
	require.NoError(t, err)

	url, err := up.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".mov"))
}

func TestFinalizeRejectsForeignTags(t *testing.T) {
	ts := newTestServer(t, 5*mib)
	ctx := context.Background()
	data := payload(6 * mib)

	sess, err := ts.client.Open(ctx, uploader.FileMetadata{Name: "a.mp4", Size: int64(len(data))})
	require.NoError(t, err)
	require.Len(t, sess.Parts, 2)

	transferer := uploader.NewHTTPTransferer(ts.Client())
	for _, p := range sess.Parts {
		start := int64(p.PartNumber-1) * sess.PartSize
		end := min(start+sess.PartSize, int64(len(data)))
		_, err := transferer.Transfer(ctx, p.URL, bytes.NewReader(data[start:end]), end-start)
		require.NoError(t, err)
	}

	_, err = ts.client.Finalize(ctx, sess.SessionID, sess.ObjectKey, []uploader.PartTag{
		{PartNumber: 1, Tag: "0000"},
		{PartNumber: 2, Tag: "1111"},
	})
	var integrity *uploader.IntegrityError
	require.ErrorAs(t, err, &integrity)

	page, err := ts.client.ListUploads(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Uploads, 1)
	assert.Equal(t, 2, page.Uploads[0].PartsReceived)

	require.NoError(t, ts.client.Abort(ctx, sess.SessionID, sess.ObjectKey))
	require.NoError(t, ts.client.Abort(ctx, sess.SessionID, sess.ObjectKey))

	page, err = ts.client.ListUploads(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Uploads)
}

func TestUploadPartErrors(t *testing.T) {
	ts := newTestServer(t, 5*mib)
	ctx := context.Background()

	sess, err := ts.client.Open(ctx, uploader.FileMetadata{Name: "a.mp4", Size: 6 * mib})
	require.NoError(t, err)

	put := func(url string, body []byte) *http.Response {
		req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
		require.NoError(t, err)
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	tests := []struct {
		name   string
		url    string
		body   []byte
		status int
		code   string
	}{
		{"short part", sess.Parts[0].URL, payload(10), http.StatusBadRequest, "upload.part_size"},
		{"part past the end", ts.URL + "/api/v1/parts/" + sess.SessionID + "/3", payload(10), http.StatusBadRequest, "upload.part_out_of_range"},
		{"unknown session", ts.URL + "/api/v1/parts/nope/1", payload(10), http.StatusNotFound, "upload.not_found"},
		{"non numeric part", ts.URL + "/api/v1/parts/" + sess.SessionID + "/x", payload(10), http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := put(tt.url, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.code == "" {
				return
			}
			var env struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.NoError(t, sonic.Unmarshal(raw, &env))
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestInitiateValidation(t *testing.T) {
	ts := newTestServer(t, 5*mib)

	resp, err := ts.Client().Post(ts.URL+"/api/v1/uploads/initiate", "application/json", strings.NewReader(`{"fileName":"","fileSize":0}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetFileMissing(t *testing.T) {
	ts := newTestServer(t, 5*mib)

	resp, err := ts.Client().Get(ts.URL + "/files/videos/video/missing.mp4")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 5*mib)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
