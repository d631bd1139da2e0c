package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/gcbaptista/go-archive-search/index"
	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/internal/persistence"
	"github.com/gcbaptista/go-archive-search/internal/search"
)

func saveCommand() cli.Command {
	return cli.Command{
		Name:      "save",
		Usage:     "Build an index from line-delimited JSON records and write it to disk",
		ArgsUsage: "<records.jsonl> <index.blob>",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "compression",
				Value: string(persistence.CompressionZstd),
				Usage: "Payload compression (zstd or none)",
			},
			cli.StringFlag{
				Name:  "probe",
				Usage: "Comma-separated terms to query against the new index before saving",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("usage: %s save <records.jsonl> <index.blob>", appName)
			}
			compression, err := persistence.ParseCompression(c.String("compression"))
			if err != nil {
				return err
			}
			var probe []string
			if p := c.String("probe"); p != "" {
				probe = strings.Split(p, ",")
			}
			return runSave(context.Background(), c.Args().Get(0), c.Args().Get(1), compression, probe)
		},
	}
}

// runSave builds, optionally probes, and atomically writes an index.
func runSave(ctx context.Context, recordsPath, blobPath string, compression persistence.Compression, probe []string) error {
	log := logger.WithFields(hostFields()).WithField("records_path", recordsPath)

	start := time.Now()
	f, err := os.Open(recordsPath)
	if err != nil {
		return internalErrors.NewIOError("open", recordsPath, err)
	}
	defer f.Close()

	idx, err := index.Build(ctx, f, func(records int) {
		if records%100000 == 0 {
			log.WithField("records", records).Info("indexing")
		}
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"documents": idx.NumDocuments(),
		"terms":     idx.NumTerms(),
		"pairs":     idx.PairCount(),
		"elapsed":   time.Since(start),
	}).Info("index built")

	if len(probe) > 0 {
		probeStart := time.Now()
		ranked := search.Score(idx, probe)
		log.WithFields(logrus.Fields{
			"terms":   probe,
			"matches": len(ranked),
			"elapsed": time.Since(probeStart),
		}).Info("probe query")
	}

	saveStart := time.Now()
	if err := persistence.SaveIndex(blobPath, idx, compression); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"path":        blobPath,
		"compression": compression,
		"elapsed":     time.Since(saveStart),
	}).Info("index saved")
	return nil
}
