package blake3

import (
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"
)

func Compute(data io.Reader) (string, error) {
	hash := blake3.New()
	if _, err := io.Copy(hash, data); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Reader hashes everything that is read through it.
type Reader struct {
	r    io.Reader
	hash *blake3.Hasher
}

func NewReader(r io.Reader) *Reader {
	hash := blake3.New()
	return &Reader{r: io.TeeReader(r, hash), hash: hash}
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

// Sum is the hex digest of the bytes read so far.
func (r *Reader) Sum() string {
	return hex.EncodeToString(r.hash.Sum(nil))
}
