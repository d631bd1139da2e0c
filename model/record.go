package model

import (
	"encoding/json"
	"fmt"
)

// Record is one line of the build input: an archive and its file listing.
type Record struct {
	Name  string   `json:"name"`  // Stable archive identifier, e.g. its md5
	Files []string `json:"files"` // Paths of the entries inside the archive
}

// rawRecord mirrors Record with pointer fields so absent keys can be told
// apart from zero values.
type rawRecord struct {
	Name  *string   `json:"name"`
	Files *[]string `json:"files"`
}

// ParseRecord decodes and validates a single JSON line. Both "name" and
// "files" must be present; "files" may be empty.
func ParseRecord(line []byte) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, err
	}
	if raw.Name == nil {
		return Record{}, fmt.Errorf("missing field %q", "name")
	}
	if raw.Files == nil {
		return Record{}, fmt.Errorf("missing field %q", "files")
	}
	return Record{Name: *raw.Name, Files: *raw.Files}, nil
}
