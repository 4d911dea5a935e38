package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// copyVerified copies src to dst and confirms the bytes that landed on disk
// match the source by size and SHA256. dst is removed on any mismatch so a
// corrupt final video never reaches the output directory.
func copyVerified(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	sourceHash := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, sourceHash))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copy: %w", err)
	}

	// Hash the destination from disk rather than trusting the writer path.
	writtenHash, writtenSize, err := hashFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if writtenSize != written {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: wrote %d bytes, destination holds %d", written, writtenSize)
	}
	if !bytes.Equal(sourceHash.Sum(nil), writtenHash) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: destination does not match source")
	}
	return nil
}

func hashFile(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open for verification: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, fmt.Errorf("hash for verification: %w", err)
	}
	return h.Sum(nil), n, nil
}
