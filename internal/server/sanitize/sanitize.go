// Package sanitize hides size and time metadata of stored artifacts: files are
// padded with zero bytes to coarse size buckets and their timestamps are
// reset to the Unix epoch.
package sanitize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	MiB = 1 << 20

	smallLimit  = 1 * MiB
	mediumLimit = 10 * MiB
	largeStep   = 5 * MiB

	// KeyMaterialSize is the fixed size of every key-material artifact.
	KeyMaterialSize = 4096
)

// Epoch is what SanitizeTimestamps sets atime and mtime to.
var Epoch = time.Unix(0, 0)

// BucketSize returns the padded size for an artifact of size bytes:
// under 1 MiB pads to 1 MiB, under 10 MiB to the next MiB boundary, and
// anything larger to the next 5 MiB boundary. A size that already sits on a
// boundary moves up to the next one.
func BucketSize(size int64) int64 {
	switch {
	case size < smallLimit:
		return smallLimit
	case size < mediumLimit:
		return (size/MiB + 1) * MiB
	default:
		return (size/largeStep + 1) * largeStep
	}
}

var zeros = make([]byte, 64*1024)

// PadToExact appends zero bytes to the file at path until it is n bytes
// long. Files already at or above n are left alone. Zeros are written out,
// not punched as holes, so allocated blocks match the apparent size.
func PadToExact(path string, n int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	if err := writeZeros(f, n-info.Size()); err != nil {
		_ = f.Close()
		return fmt.Errorf("pad %s: %w", path, err)
	}
	return f.Close()
}

// PadToBucket pads the file at path to BucketSize of its current size and
// returns the new size.
func PadToBucket(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	target := BucketSize(info.Size())
	if err := PadToExact(path, target); err != nil {
		return 0, err
	}
	return target, nil
}

func writeZeros(w io.Writer, n int64) error {
	for n > 0 {
		chunk := int64(len(zeros))
		if n < chunk {
			chunk = n
		}
		if _, err := w.Write(zeros[:chunk]); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// PadBytes returns b extended with zeros to n bytes. b is returned as is if
// it is already at least n long.
func PadBytes(b []byte, n int64) []byte {
	if int64(len(b)) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// PadBytesToBucket is PadBytes with BucketSize(len(b)).
func PadBytesToBucket(b []byte) []byte {
	return PadBytes(b, BucketSize(int64(len(b))))
}

// SanitizeTimestamps sets access and modification times of every path to
// the epoch. It tries all paths and returns the joined failures.
func SanitizeTimestamps(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Chtimes(p, Epoch, Epoch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
