// Package buildorder models the sequence side of the analysis: encoded
// build-order token sequences, the position-weighted similarity metric
// used to compare them, and the archetypes extracted from sequence
// clusters.
package buildorder

import "github.com/skirmishlabs/buildsight/internal/domain/telemetry"

// Sequence is one player's encoded build order joined to its labeled
// spawn position.
type Sequence struct {
	MatchID      string
	PlayerID     string
	PositionName string
	Skill        float64
	WonGame      bool
	Tokens       []string
	Steps        []telemetry.BuildStep
}

// Cluster groups the sequences of one position that the dendrogram cut
// placed together. Label is the opaque 1-based integer from the cut.
type Cluster struct {
	PositionName string
	Label        int
	Members      []Sequence
}

// ExampleMember is a high-skill member surfaced on an archetype for
// display.
type ExampleMember struct {
	MatchID  string   `json:"matchId"`
	PlayerID string   `json:"playerId"`
	Skill    float64  `json:"skill"`
	WonGame  bool     `json:"wonGame"`
	Opening  []string `json:"opening"` // first tokens, display bound
}

// Archetype is the representative summary of one retained build
// cluster. Immutable once computed.
type Archetype struct {
	Name                   string          `json:"name"`
	PositionName           string          `json:"positionName"`
	Label                  int             `json:"clusterLabel"`
	RepresentativeSequence []string        `json:"representativeSequence"`
	Frequency              int             `json:"frequency"`
	WinRate                float64         `json:"winRate"`
	AvgSkill               float64         `json:"avgSkill"`
	Examples               []ExampleMember `json:"examples"`
}

// Significance carries the outcome of testing an archetype's win rate
// against its position baseline. PValue is nil when the archetype's
// sample size is below the testing threshold.
type Significance struct {
	ArchetypeName   string   `json:"archetypeName"`
	BaselineWinRate float64  `json:"baselineWinRate"`
	WinRateDelta    float64  `json:"winRateDelta"`
	PValue          *float64 `json:"pValue"`
	IsSignificant   bool     `json:"isSignificant"`
}
