package ioutil

import (
	"io"
	"sync"
)

// CountingReader counts the bytes read through it.
type CountingReader struct {
	io.Reader
	N int64
}

func NewCountingReader(reader io.Reader) *CountingReader {
	return &CountingReader{Reader: reader}
}

func (c *CountingReader) Read(p []byte) (n int, err error) {
	n, err = c.Reader.Read(p)
	c.N += int64(n)
	return n, err
}

// LockedReadCloser releases a read lock when the wrapped reader is closed.
// Close is safe to call more than once.
type LockedReadCloser struct {
	io.ReadCloser
	lock      *sync.RWMutex
	onRelease func()
	once      sync.Once
}

func NewLockedReadCloser(r io.ReadCloser, lock *sync.RWMutex, onRelease func()) *LockedReadCloser {
	return &LockedReadCloser{ReadCloser: r, lock: lock, onRelease: onRelease}
}

func (l *LockedReadCloser) Close() error {
	err := l.ReadCloser.Close()
	l.once.Do(func() {
		l.lock.RUnlock()
		if l.onRelease != nil {
			l.onRelease()
		}
	})
	return err
}
