package organize

import (
	"bytes"
	"fmt"
	"hash/crc64"
	"io"
	"os"

	"dirtidy/internal/errors"
)

const chunkSize = 64 * 1024

var crcTable = crc64.MakeTable(crc64.ECMA)

// Checksum streams the file through CRC-64 and returns the digest as 16
// lowercase hex digits. It depends only on the bytes of the file.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.FileOp("failed to open file for checksum", path, errors.FileOperationFailed, err)
	}
	defer f.Close()

	h := crc64.New(crcTable)
	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		h.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.FileOp("failed to read file for checksum", path, errors.FileOperationFailed, err)
		}
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// sameContent compares two files byte for byte.
func sameContent(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, errors.FileOp("failed to open file for comparison", a, errors.FileOperationFailed, err)
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, errors.FileOp("failed to open file for comparison", b, errors.FileOperationFailed, err)
	}
	defer fb.Close()

	ia, err := fa.Stat()
	if err != nil {
		return false, errors.FileOp("cannot stat file", a, errors.FileOperationFailed, err)
	}
	ib, err := fb.Stat()
	if err != nil {
		return false, errors.FileOp("cannot stat file", b, errors.FileOperationFailed, err)
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}

	bufA := make([]byte, chunkSize)
	bufB := make([]byte, chunkSize)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return false, errors.FileOp("failed to read file for comparison", a, errors.FileOperationFailed, errA)
		}
		if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
			return false, errors.FileOp("failed to read file for comparison", b, errors.FileOperationFailed, errB)
		}
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if errA != nil || errB != nil {
			return errA != nil && errB != nil, nil
		}
	}
}
