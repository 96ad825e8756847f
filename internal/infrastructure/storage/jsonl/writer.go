package jsonl

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/skirmishlabs/buildsight/internal/domain/position"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

// Writer persists run outputs under a single directory. Files are
// replaced whole; a run's outputs fully supersede the previous run's.
type Writer struct {
	dir string
}

// NewWriter constructs a Writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeOutputWrite, "create output directory "+dir)
	}
	return &Writer{dir: dir}, nil
}

// WriteAssignments writes position assignments as one JSON object per
// line, preserving input order.
func (w *Writer) WriteAssignments(name string, assignments []position.Assignment) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeOutputWrite, "create "+path)
	}

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, a := range assignments {
		if err := enc.Encode(a); err != nil {
			f.Close()
			return errors.Wrap(err, errors.ErrCodeSerialization, "encode assignment "+a.MatchID+"_"+a.PlayerID)
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrCodeOutputWrite, "flush "+path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeOutputWrite, "close "+path)
	}
	return nil
}

// WriteReport writes an arbitrary report document as indented JSON.
func (w *Writer) WriteReport(name string, v interface{}) error {
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal report "+name)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeOutputWrite, "write "+path)
	}
	return nil
}
