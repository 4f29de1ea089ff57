package sync

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/beanbocchi/tubeup/internal/client/objectstore"
	"github.com/beanbocchi/tubeup/internal/utils/ioutil"
)

// SyncConfig configures the synchronized objectstore wrapper.
type SyncConfig struct {
	// Client is the underlying objectstore client to wrap with locking.
	Client objectstore.Client
}

// SyncClient serializes writers of one key against its readers. A part that is
// re-sent while the session is being assembled waits for the assembly read.
type SyncClient struct {
	client objectstore.Client

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.RWMutex
	refs int
}

// NewSyncClient creates a new synchronized objectstore client wrapper.
func NewSyncClient(cfg SyncConfig) (*SyncClient, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client is required")
	}

	return &SyncClient{
		client: cfg.Client,
		locks:  make(map[string]*keyLock),
	}, nil
}

// acquire returns the lock of key with a reference held. Locks are dropped
// once nobody references them, so finished sessions do not leak entries.
func (c *SyncClient) acquire(key string) *keyLock {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[key]
	if !ok {
		l = &keyLock{}
		c.locks[key] = l
	}
	l.refs++
	return l
}

func (c *SyncClient) release(key string, l *keyLock) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(c.locks, key)
	}
}

// Upload uploads an object with write locking.
func (c *SyncClient) Upload(ctx context.Context, key string, content io.Reader) error {
	l := c.acquire(key)
	defer c.release(key, l)

	l.Lock()
	defer l.Unlock()
	return c.client.Upload(ctx, key, content)
}

// Download holds a read lock on key until the returned reader is closed.
func (c *SyncClient) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	l := c.acquire(key)
	l.RLock()

	file, err := c.client.Download(ctx, key)
	if err != nil {
		l.RUnlock()
		c.release(key, l)
		return nil, fmt.Errorf("download: %w", err)
	}

	return ioutil.NewLockedReadCloser(file, &l.RWMutex, func() { c.release(key, l) }), nil
}

// Delete deletes an object with write locking.
func (c *SyncClient) Delete(ctx context.Context, key string) error {
	l := c.acquire(key)
	defer c.release(key, l)

	l.Lock()
	defer l.Unlock()
	return c.client.Delete(ctx, key)
}

// lockCount is the number of keys currently holding a lock entry.
func (c *SyncClient) lockCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
