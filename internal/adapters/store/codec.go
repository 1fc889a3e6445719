package store

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/zerr"
)

// Checksum returns the xxhash64 digest of the compact form of payload.
func Checksum(payload []byte) string {
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err == nil {
		payload = compact.Bytes()
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(payload))
}

// HeaderChecksum returns the digest recorded in a file header for entries.
func HeaderChecksum(entries []domain.PersistedEntry) string {
	h := xxhash.New()
	for _, e := range entries {
		_, _ = h.WriteString(e.Checksum)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// FormatVersion returns the format version declared by a cache file, from
// the metadata header or the legacy top-level field. It returns "" when the
// file declares none or is not JSON.
func FormatVersion(raw []byte) string {
	var header struct {
		Version  string `json:"version"`
		Metadata struct {
			FormatVersion string `json:"formatVersion"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return ""
	}
	if header.Metadata.FormatVersion != "" {
		return header.Metadata.FormatVersion
	}
	return header.Version
}

// Compress gzips data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCompressFailed.Error())
	}
	if err := zw.Close(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCompressFailed.Error())
	}
	return buf.Bytes(), nil
}

// Decompress gunzips data.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrDecompressFailed.Error())
	}
	defer func() {
		_ = zr.Close()
	}()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrDecompressFailed.Error())
	}
	return out, nil
}

// IsCompressed reports whether path names a gzip cache file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, domain.GzipSuffix)
}

// ReadCacheFile reads path and returns its JSON content, decompressing .gz files.
func ReadCacheFile(path string) ([]byte, error) {
	//nolint:gosec // path is built from the configured cache directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(path) {
		return data, nil
	}
	return Decompress(data)
}

// WriteCacheFile encodes content for path, compressing .gz files, and writes it atomically.
func WriteCacheFile(path string, content []byte) error {
	data := content
	if IsCompressed(path) {
		var err error
		if data, err = Compress(content); err != nil {
			return err
		}
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a file atomically by writing to a temp file and renaming it.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	tmpName := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	if err := tmpFile.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	if err := os.Rename(tmpName, path); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}
