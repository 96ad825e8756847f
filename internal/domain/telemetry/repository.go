package telemetry

import "context"

// ReadStats reports how a batch load went. Malformed lines never abort
// a load; they are skipped and surfaced here so callers can judge
// coverage.
type ReadStats struct {
	Loaded    int
	Malformed int
}

// SpawnReader loads the full spawn/position stream into memory.
// Implementations return ErrCodeEmptyInput when zero records decode
// and ErrCodeInputUnavailable when the stream cannot be opened.
type SpawnReader interface {
	ReadSpawns(ctx context.Context) ([]SpawnRecord, ReadStats, error)
}

// BuildReader loads the full build-order stream into memory, with the
// same error contract as SpawnReader.
type BuildReader interface {
	ReadBuilds(ctx context.Context) ([]BuildRecord, ReadStats, error)
}
