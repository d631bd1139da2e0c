package persistence

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/go-archive-search/index"
	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/internal/logging"
)

const dataDirPerm = 0750

// SaveIndex encodes idx and writes it to filePath, creating parent
// directories. The blob is written to a temporary file in the same directory
// and renamed into place, so readers never observe a partial file.
func SaveIndex(filePath string, idx *index.Index, compression Compression) error {
	blob, err := Marshal(idx, compression)
	if err != nil {
		return err
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, dataDirPerm); err != nil {
		return internalErrors.NewIOError("create directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return internalErrors.NewIOError("create", filePath, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return internalErrors.NewIOError("write", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return internalErrors.NewIOError("sync", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return internalErrors.NewIOError("close", tmpPath, err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return internalErrors.NewIOError("rename", filePath, err)
	}

	logging.WithComponent("persistence").WithFields(logrus.Fields{
		"path":        filePath,
		"bytes":       len(blob),
		"compression": string(compression),
	}).Debug("index saved")
	return nil
}

// LoadIndex reads and decodes the blob at filePath.
// Open/read failures are IOErrors; anything wrong with the bytes is a CodecError.
func LoadIndex(filePath string) (*index.Index, error) {
	blob, err := os.ReadFile(filePath) // #nosec G304 -- filePath is controlled by the operator, not user input
	if err != nil {
		return nil, internalErrors.NewIOError("read", filePath, err)
	}
	return Unmarshal(blob)
}
