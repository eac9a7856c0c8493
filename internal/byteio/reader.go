// Package byteio provides bounded, allocation-light byte-slice helpers used
// by the format parsers and analyzers: head/tail/full reads capped at a
// maximum size, pattern search, and hex/ASCII decoding. Not every read goes
// through here: zipfmt.ParseFile and tarfmt.ParseFile load the whole file
// with os.ReadFile, and arfmt and gitfmt open their files themselves.
package byteio

import (
	"errors"
	"io"
	"os"
)

// ErrCapExceeded is returned by the bounded read helpers when the requested
// window would require reading past the configured cap. Callers treat this
// as a truncation signal, not a fatal error.
var ErrCapExceeded = errors.New("byteio: read capped")

// ReadHead reads up to n bytes from the start of the file at path. It never
// reads more than n bytes from disk. A file shorter than n returns its full
// contents with no error.
func ReadHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadHeadFrom(f, n)
}

// ReadHeadFrom is ReadHead over an already-open reader.
func ReadHeadFrom(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:read], nil
}

// ReadTail reads up to n bytes from the end of the file at path. A file
// shorter than n returns its full contents with no error.
func ReadTail(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := info.Size()
	start := size - int64(n)
	if start < 0 {
		start = 0
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}

	buf := make([]byte, size-start)
	if _, err := io.ReadFull(f, buf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf, nil
}

// ReadFullCapped reads the entire file at path, up to maxBytes. It reports
// truncated=true when the file exceeds maxBytes; in that case only the first
// maxBytes are returned.
func ReadFullCapped(path string, maxBytes int) (data []byte, truncated bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false, err
	}

	readLen := info.Size()
	if readLen > int64(maxBytes) {
		readLen = int64(maxBytes)
		truncated = true
	}

	buf := make([]byte, readLen)
	if _, err := io.ReadFull(f, buf); err != nil && !errors.Is(err, io.EOF) {
		return nil, false, err
	}
	return buf, truncated, nil
}

// FileSize stats path and returns its size in bytes.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ReadAt reads exactly len(buf) bytes from path at the given offset. A short
// read at end-of-file is reported via the returned int and a nil error, up to
// the caller to treat as partial.
func ReadAt(path string, offset int64, buf []byte) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := f.ReadAt(buf, offset)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}
