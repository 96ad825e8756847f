package buildorder

import (
	"fmt"
	"sort"
)

// Representative-sequence and example-display bounds.
const (
	RepresentativeLength = 10
	MaxExampleMembers    = 3
)

// ExtractArchetype derives the representative summary of one retained
// cluster:
//
//   - representative sequence: independently at each of the first
//     RepresentativeLength indices, the most frequent token across all
//     members at that index, ties broken by first-encountered token in
//     member order; indices where every member sequence has ended are
//     skipped, so the result may be shorter than the bound
//   - frequency: member count
//   - win rate: fraction of members with WonGame
//   - avg skill: arithmetic mean of member skill
//   - examples: up to MaxExampleMembers highest-skill members with
//     their first RepresentativeLength tokens
func ExtractArchetype(c Cluster) Archetype {
	rep := representativeSequence(c.Members)

	wins := 0
	skillSum := 0.0
	for _, m := range c.Members {
		if m.WonGame {
			wins++
		}
		skillSum += m.Skill
	}

	winRate := 0.0
	avgSkill := 0.0
	if len(c.Members) > 0 {
		winRate = float64(wins) / float64(len(c.Members))
		avgSkill = skillSum / float64(len(c.Members))
	}

	return Archetype{
		Name:                   fmt.Sprintf("%s_archetype_%d", c.PositionName, c.Label),
		PositionName:           c.PositionName,
		Label:                  c.Label,
		RepresentativeSequence: rep,
		Frequency:              len(c.Members),
		WinRate:                winRate,
		AvgSkill:               avgSkill,
		Examples:               topSkillExamples(c.Members),
	}
}

// ExtractArchetypes summarizes every cluster and sorts the result by
// frequency descending, ties by ascending cluster label for stability.
func ExtractArchetypes(clusters []Cluster) []Archetype {
	out := make([]Archetype, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, ExtractArchetype(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func representativeSequence(members []Sequence) []string {
	rep := make([]string, 0, RepresentativeLength)
	for i := 0; i < RepresentativeLength; i++ {
		counts := make(map[string]int)
		var order []string
		for _, m := range members {
			if i >= len(m.Tokens) || m.Tokens[i] == "" {
				continue
			}
			tok := m.Tokens[i]
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
		if len(order) == 0 {
			continue
		}
		best := order[0]
		for _, tok := range order[1:] {
			if counts[tok] > counts[best] {
				best = tok
			}
		}
		rep = append(rep, best)
	}
	return rep
}

func topSkillExamples(members []Sequence) []ExampleMember {
	ranked := make([]Sequence, len(members))
	copy(ranked, members)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Skill > ranked[j].Skill
	})

	limit := MaxExampleMembers
	if len(ranked) < limit {
		limit = len(ranked)
	}

	out := make([]ExampleMember, 0, limit)
	for _, m := range ranked[:limit] {
		opening := m.Tokens
		if len(opening) > RepresentativeLength {
			opening = opening[:RepresentativeLength]
		}
		out = append(out, ExampleMember{
			MatchID:  m.MatchID,
			PlayerID: m.PlayerID,
			Skill:    m.Skill,
			WonGame:  m.WonGame,
			Opening:  append([]string(nil), opening...),
		})
	}
	return out
}
