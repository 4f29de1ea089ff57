package sync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbocchi/tubeup/internal/client/objectstore"
)

// mockStore is an in-memory objectstore.Client that tracks overlapping writers.
type mockStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	deletes     []string
	uploadDelay time.Duration
	downloadErr error

	writers    atomic.Int32
	maxWriters atomic.Int32
}

func newMockStore() *mockStore {
	return &mockStore{objects: make(map[string][]byte)}
}

func (m *mockStore) Upload(ctx context.Context, key string, content io.Reader) error {
	n := m.writers.Add(1)
	defer m.writers.Add(-1)
	for {
		cur := m.maxWriters.Load()
		if n <= cur || m.maxWriters.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(m.uploadDelay)

	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *mockStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, key)
	delete(m.objects, key)
	return nil
}

func newClient(t *testing.T, store *mockStore) *SyncClient {
	t.Helper()
	client, err := NewSyncClient(SyncConfig{Client: store})
	require.NoError(t, err)
	return client
}

func TestNewSyncClientRequiresClient(t *testing.T) {
	_, err := NewSyncClient(SyncConfig{})
	assert.ErrorContains(t, err, "client is required")
}

func TestSyncUploadSameKeyIsSerialized(t *testing.T) {
	store := newMockStore()
	store.uploadDelay = 10 * time.Millisecond
	client := newClient(t, store)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.Upload(context.Background(), "uploads/s1/part_00001", strings.NewReader("body")))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), store.maxWriters.Load())
	assert.Zero(t, client.lockCount())
}

func TestSyncUploadDifferentKeysRunInParallel(t *testing.T) {
	store := newMockStore()
	store.uploadDelay = 30 * time.Millisecond
	client := newClient(t, store)

	var wg sync.WaitGroup
	for _, key := range []string{"uploads/s1/part_00001", "uploads/s1/part_00002", "uploads/s1/part_00003"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.Upload(context.Background(), key, strings.NewReader("body")))
		}()
	}
	wg.Wait()

	assert.Greater(t, store.maxWriters.Load(), int32(1))
}

func TestSyncDownloadHoldsReadLockUntilClose(t *testing.T) {
	store := newMockStore()
	client := newClient(t, store)
	ctx := context.Background()
	key := "videos/video/clip.mp4"
	require.NoError(t, client.Upload(ctx, key, strings.NewReader("v1")))

	rc, err := client.Download(ctx, key)
	require.NoError(t, err)

	written := make(chan struct{})
	go func() {
		assert.NoError(t, client.Upload(ctx, key, strings.NewReader("v2")))
		close(written)
	}()

	select {
	case <-written:
		t.Fatal("upload finished while a reader was open")
	case <-time.After(30 * time.Millisecond):
	}

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
	require.NoError(t, rc.Close())
	require.NoError(t, rc.Close(), "second close does not unlock twice")

	select {
	case <-written:
	case <-time.After(time.Second):
		t.Fatal("upload still blocked after the reader was closed")
	}
	assert.Zero(t, client.lockCount())
}

func TestSyncDownloadErrorReleasesLock(t *testing.T) {
	store := newMockStore()
	store.downloadErr = errors.New("backend down")
	client := newClient(t, store)

	_, err := client.Download(context.Background(), "missing")
	require.ErrorContains(t, err, "backend down")
	assert.Zero(t, client.lockCount())

	done := make(chan struct{})
	go func() {
		assert.NoError(t, client.Delete(context.Background(), "missing"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delete blocked by a leaked read lock")
	}
}

func TestSyncDelete(t *testing.T) {
	store := newMockStore()
	client := newClient(t, store)
	ctx := context.Background()

	require.NoError(t, client.Upload(ctx, "uploads/s1/part_00001", strings.NewReader("x")))
	require.NoError(t, client.Delete(ctx, "uploads/s1/part_00001"))

	_, err := client.Download(ctx, "uploads/s1/part_00001")
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
	assert.Equal(t, []string{"uploads/s1/part_00001"}, store.deletes)
}
