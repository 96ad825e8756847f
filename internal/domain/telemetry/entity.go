// Package telemetry defines the raw per-match input records consumed
// by the analysis pipeline. Records are produced upstream by the
// replay parser and are read-only here; one SpawnRecord and at most
// one BuildRecord exist per player per match, joined on
// (MatchID, PlayerID).
package telemetry

import "fmt"

// SpawnRecord is one player's starting state in one match.
type SpawnRecord struct {
	MatchID    string  `json:"matchId"`
	PlayerID   string  `json:"playerId"`
	AllyTeamID int     `json:"allyTeamId"` // 0 | 1
	Skill      float64 `json:"skill"`
	WonGame    bool    `json:"wonGame"`
	RawX       float64 `json:"rawX"`
	RawZ       float64 `json:"rawZ"`
}

// Key returns the durable join key between spatial and build-order
// analysis.
func (r SpawnRecord) Key() string {
	return fmt.Sprintf("%s_%s", r.MatchID, r.PlayerID)
}

// BuildStep is a single timestamped build action. StepIndex is 0-based
// and strictly increasing within a player's sequence.
type BuildStep struct {
	UnitToken    string `json:"unitToken"`
	TimeOffsetMs int64  `json:"timeMs"`
	StepIndex    int    `json:"stepIndex"`
}

// BuildRecord is one player's ordered build actions in one match,
// together with the outcome metadata needed downstream.
type BuildRecord struct {
	MatchID  string      `json:"matchId"`
	PlayerID string      `json:"playerId"`
	Skill    float64     `json:"skill"`
	WonGame  bool        `json:"wonGame"`
	Faction  string      `json:"faction"`
	Steps    []BuildStep `json:"orderedSteps"`
}

// Key returns the join key matching SpawnRecord.Key.
func (r BuildRecord) Key() string {
	return fmt.Sprintf("%s_%s", r.MatchID, r.PlayerID)
}
