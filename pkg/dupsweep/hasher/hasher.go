// Package hasher computes content digests for regular files.
// Files are streamed in fixed-size blocks so memory use does not grow
// with file size.
package hasher

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultBlockSize is the read block size used when none is configured.
const DefaultBlockSize = 64 * 1024

// AccessError reports a file that could not be opened or read.
// Callers treat it as a per-file failure and continue scanning.
type AccessError struct {
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// IsAccessError reports whether err is or wraps an AccessError.
func IsAccessError(err error) bool {
	var accessErr *AccessError
	return errors.As(err, &accessErr)
}

// Options configures a Hasher.
type Options struct {
	// BlockSize is the number of bytes read per step. Zero uses DefaultBlockSize.
	BlockSize int
}

// Hasher produces MD5 hex digests of file contents.
type Hasher struct {
	blockSize int
}

// New creates a Hasher with the given options.
func New(opts Options) *Hasher {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	return &Hasher{blockSize: opts.BlockSize}
}

// BlockSize returns the configured read block size.
func (h *Hasher) BlockSize() int {
	return h.blockSize
}

// Sum returns the hex digest of the file at path.
func (h *Hasher) Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &AccessError{Path: path, Err: err}
	}
	defer f.Close()

	adviseSequential(f)

	digest, err := h.sumReader(f)
	if err != nil {
		return "", &AccessError{Path: path, Err: err}
	}
	return digest, nil
}

// sumReader feeds r into the digest one block at a time.
func (h *Hasher) sumReader(r io.Reader) (string, error) {
	sum := md5.New() //nolint:gosec // see import
	buf := make([]byte, h.blockSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			sum.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(sum.Sum(nil)), nil
}
