// Package archive lists the entries of uploaded zip-format archives
// (jar, war, zip) so they can be used as queries.
package archive

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zip"

	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
)

// EntryNames returns the names of all entries in the central directory of a
// zip archive, in directory order. Directory entries keep their trailing
// slash. Entry contents are never read.
func EntryNames(r io.ReaderAt, size int64) ([]string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, internalErrors.NewValidationError("file", "not a readable zip archive: "+err.Error())
	}

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// EntryNamesFromBytes is EntryNames over an in-memory archive.
func EntryNamesFromBytes(data []byte) ([]string, error) {
	return EntryNames(bytes.NewReader(data), int64(len(data)))
}
