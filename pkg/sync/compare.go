package sync

import (
	"bytes"
	"io"

	"github.com/sidkik/mirror/pkg/errors"
)

// chunkSize is how many bytes FilesEqual compares at a time.
const chunkSize = 4096

// FilesEqual returns whether the files at paths a and b have byte-identical
// contents. Both files must exist and be readable.
func FilesEqual(a, b string) (bool, error) {
	fa, err := fs.Open(a)
	if err != nil {
		return false, errors.WithContext(err, "open")
	}
	defer fa.Close()

	fb, err := fs.Open(b)
	if err != nil {
		return false, errors.WithContext(err, "open")
	}
	defer fb.Close()

	equal, err := readersEqual(fa, fb)
	if err != nil {
		return false, errors.WithContext(err, "compare")
	}
	return equal, nil
}

func readersEqual(a, b io.Reader) (bool, error) {
	bufA := make([]byte, chunkSize)
	bufB := make([]byte, chunkSize)
	for {
		nA, err := readChunk(a, bufA)
		if err != nil {
			return false, err
		}

		nB, err := readChunk(b, bufB)
		if err != nil {
			return false, err
		}

		if nA != nB {
			return false, nil
		}

		if nA == 0 {
			return true, nil
		}

		if !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false, nil
		}
	}
}

// readChunk fills buf unless the reader runs out first. Reaching the end is
// not an error; it's reported as a short (or empty) chunk.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, nil
	}
	return n, err
}
