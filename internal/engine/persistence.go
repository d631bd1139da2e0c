package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/go-archive-search/internal/persistence"
)

// LoadFromFile decodes a saved index and makes it the serving one.
// On failure the current index, if any, keeps serving.
func (e *Engine) LoadFromFile(path string) error {
	startTime := time.Now()
	idx, err := persistence.LoadIndex(path)
	if err != nil {
		e.logger.WithError(err).WithField("path", path).Error("failed to load index")
		return err
	}

	generation := e.Swap(idx)
	e.logger.WithFields(logrus.Fields{
		"path":       path,
		"generation": generation,
		"elapsed":    time.Since(startTime),
	}).Info("index loaded from disk")
	return nil
}

// SaveToFile writes the serving index to path.
func (e *Engine) SaveToFile(path string) error {
	snapshot, err := e.Read()
	if err != nil {
		return err
	}
	return persistence.SaveIndex(path, snapshot.Index, e.compression)
}
