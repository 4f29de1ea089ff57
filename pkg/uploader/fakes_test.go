package uploader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

const addressPrefix = "http://storage.test/part/"

func partNumberOf(address string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(address, addressPrefix))
	return n
}

// fakeTransferer records every part upload. fn, when set, decides the outcome.
type fakeTransferer struct {
	mu          sync.Mutex
	fn          func(ctx context.Context, part int, body []byte) (string, error)
	calls       []int
	bodies      map[int][]byte
	inFlight    int
	maxInFlight int
}

func (f *fakeTransferer) Transfer(ctx context.Context, address string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("body is %d bytes, want %d", len(data), size)
	}
	part := partNumberOf(address)

	f.mu.Lock()
	f.calls = append(f.calls, part)
	if f.bodies == nil {
		f.bodies = make(map[int][]byte)
	}
	f.bodies[part] = data
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.fn != nil {
		return f.fn(ctx, part, data)
	}
	return fmt.Sprintf("etag-%d", part), nil
}

func (f *fakeTransferer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransferer) called(part int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.calls {
		if p == part {
			return true
		}
	}
	return false
}

// fakeNegotiator hands out a session with partSize parts and records calls.
type fakeNegotiator struct {
	mu        sync.Mutex
	partSize  int64
	openFn    func(ctx context.Context, meta FileMetadata) (*Session, error)
	finalFn   func(ctx context.Context, tags []PartTag) (string, error)
	abortErr  error
	opened    []FileMetadata
	finalized [][]PartTag
	aborts    int
}

func (n *fakeNegotiator) Open(ctx context.Context, meta FileMetadata) (*Session, error) {
	n.mu.Lock()
	n.opened = append(n.opened, meta)
	n.mu.Unlock()

	if n.openFn != nil {
		return n.openFn(ctx, meta)
	}
	return testSession(meta.Size, n.partSize), nil
}

func (n *fakeNegotiator) Finalize(ctx context.Context, sessionID, objectKey string, tags []PartTag) (string, error) {
	n.mu.Lock()
	n.finalized = append(n.finalized, tags)
	n.mu.Unlock()

	if n.finalFn != nil {
		return n.finalFn(ctx, tags)
	}
	return "https://cdn.test/" + objectKey, nil
}

func (n *fakeNegotiator) Abort(ctx context.Context, sessionID, objectKey string) error {
	n.mu.Lock()
	n.aborts++
	n.mu.Unlock()
	return n.abortErr
}

func (n *fakeNegotiator) abortCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.aborts
}

func (n *fakeNegotiator) finalizeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.finalized)
}

func testSession(totalSize, partSize int64) *Session {
	count := PartCount(totalSize, partSize)
	parts := make([]PartAddress, count)
	for i := range parts {
		parts[i] = PartAddress{PartNumber: i + 1, URL: addressPrefix + strconv.Itoa(i+1)}
	}
	return &Session{
		SessionID: "session-1",
		ObjectKey: "videos/video/clip.mp4",
		PartSize:  partSize,
		Parts:     parts,
	}
}

func testJobs(totalSize, partSize int64) []*PartJob {
	ranges, err := Plan(totalSize, partSize)
	if err != nil {
		panic(err)
	}
	jobs, err := buildJobs(ranges, testSession(totalSize, partSize).Parts)
	if err != nil {
		panic(err)
	}
	return jobs
}
