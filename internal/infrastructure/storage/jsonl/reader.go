// Package jsonl reads and writes the newline-delimited JSON streams the
// pipeline exchanges with the upstream replay parser and downstream
// consumers. Malformed lines are skipped and counted, never fatal; a
// stream that yields zero records is.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/skirmishlabs/buildsight/internal/domain/telemetry"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

// Input lines are small JSON objects, but build records can carry long
// step lists; 4 MiB leaves generous headroom.
const maxLineBytes = 4 << 20

// SpawnReader loads spawn records from a JSONL file.
type SpawnReader struct {
	path string
	log  logging.Logger
}

// NewSpawnReader constructs a SpawnReader over the given file path.
func NewSpawnReader(path string, log logging.Logger) *SpawnReader {
	return &SpawnReader{path: path, log: log.Named("jsonl")}
}

// ReadSpawns implements telemetry.SpawnReader.
func (r *SpawnReader) ReadSpawns(ctx context.Context) ([]telemetry.SpawnRecord, telemetry.ReadStats, error) {
	var records []telemetry.SpawnRecord
	stats, err := readLines(ctx, r.path, r.log, func(line []byte) bool {
		var rec telemetry.SpawnRecord
		if json.Unmarshal(line, &rec) != nil || rec.MatchID == "" || rec.PlayerID == "" {
			return false
		}
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, stats, err
	}
	if len(records) == 0 {
		return nil, stats, errors.New(errors.ErrCodeEmptyInput, "no spawn records decoded from "+r.path)
	}
	return records, stats, nil
}

// BuildReader loads build-order records from a JSONL file.
type BuildReader struct {
	path string
	log  logging.Logger
}

// NewBuildReader constructs a BuildReader over the given file path.
func NewBuildReader(path string, log logging.Logger) *BuildReader {
	return &BuildReader{path: path, log: log.Named("jsonl")}
}

// ReadBuilds implements telemetry.BuildReader. Records without steps
// are structurally valid and kept; the encoder simply produces an empty
// token sequence for them.
func (r *BuildReader) ReadBuilds(ctx context.Context) ([]telemetry.BuildRecord, telemetry.ReadStats, error) {
	var records []telemetry.BuildRecord
	stats, err := readLines(ctx, r.path, r.log, func(line []byte) bool {
		var rec telemetry.BuildRecord
		if json.Unmarshal(line, &rec) != nil || rec.MatchID == "" || rec.PlayerID == "" {
			return false
		}
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, stats, err
	}
	if len(records) == 0 {
		return nil, stats, errors.New(errors.ErrCodeEmptyInput, "no build records decoded from "+r.path)
	}
	return records, stats, nil
}

// readLines streams the file line by line, passing each non-blank line
// to decode. decode reports whether the line was usable.
func readLines(ctx context.Context, path string, log logging.Logger, decode func([]byte) bool) (telemetry.ReadStats, error) {
	var stats telemetry.ReadStats

	f, err := os.Open(path)
	if err != nil {
		return stats, errors.Wrap(err, errors.ErrCodeInputUnavailable, "open input stream "+path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return stats, errors.Wrap(err, errors.ErrCodeInternal, "read cancelled")
			}
		}
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if decode(line) {
			stats.Loaded++
		} else {
			stats.Malformed++
			log.Debug("skipping malformed record",
				logging.String("path", path),
				logging.Int("line", lineNo))
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, errors.Wrap(err, errors.ErrCodeInputUnavailable, "read input stream "+path)
	}
	return stats, nil
}
