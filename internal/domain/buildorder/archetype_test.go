package buildorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(match string, skill float64, won bool, tokens ...string) Sequence {
	return Sequence{
		MatchID:  match,
		PlayerID: "p-" + match,
		Skill:    skill,
		WonGame:  won,
		Tokens:   tokens,
	}
}

func TestExtractArchetype_MajorityPerIndex(t *testing.T) {
	c := Cluster{
		PositionName: "front-1",
		Label:        2,
		Members: []Sequence{
			member("m1", 30, true, "Mex", "Solar", "Factory Bot"),
			member("m2", 25, false, "Mex", "Solar", "Factory Vehicle"),
			member("m3", 20, true, "Mex", "Wind", "Factory Bot"),
		},
	}

	a := ExtractArchetype(c)

	assert.Equal(t, "front-1_archetype_2", a.Name)
	assert.Equal(t, "front-1", a.PositionName)
	assert.Equal(t, 2, a.Label)
	assert.Equal(t, []string{"Mex", "Solar", "Factory Bot"}, a.RepresentativeSequence)
	assert.Equal(t, 3, a.Frequency)
	assert.InDelta(t, 2.0/3.0, a.WinRate, 1e-12)
	assert.InDelta(t, 25.0, a.AvgSkill, 1e-12)
}

func TestExtractArchetype_TieBrokenByFirstEncounter(t *testing.T) {
	c := Cluster{
		PositionName: "eco",
		Label:        1,
		Members: []Sequence{
			member("m1", 10, false, "Wind"),
			member("m2", 10, false, "Solar"),
		},
	}
	a := ExtractArchetype(c)
	assert.Equal(t, []string{"Wind"}, a.RepresentativeSequence)
}

func TestExtractArchetype_SkipsExhaustedIndices(t *testing.T) {
	// Members shorter than the representative bound simply stop
	// contributing; the representative sequence ends where every
	// member has ended, with no padding tokens.
	c := Cluster{
		PositionName: "air",
		Label:        1,
		Members: []Sequence{
			member("m1", 10, true, "Mex", "Solar"),
			member("m2", 10, false, "Mex"),
		},
	}
	a := ExtractArchetype(c)
	assert.Equal(t, []string{"Mex", "Solar"}, a.RepresentativeSequence)
}

func TestExtractArchetype_RepresentativeBoundedAtTen(t *testing.T) {
	long := make([]string, 15)
	for i := range long {
		long[i] = "tok"
	}
	c := Cluster{
		PositionName: "pond",
		Label:        1,
		Members:      []Sequence{{MatchID: "m1", Tokens: long}},
	}
	a := ExtractArchetype(c)
	assert.Len(t, a.RepresentativeSequence, RepresentativeLength)
	assert.Len(t, a.Examples, 1)
	assert.Len(t, a.Examples[0].Opening, RepresentativeLength)
}

func TestExtractArchetype_TopSkillExamples(t *testing.T) {
	c := Cluster{
		PositionName: "geo",
		Label:        3,
		Members: []Sequence{
			member("m1", 18, false, "Mex"),
			member("m2", 42, true, "Mex"),
			member("m3", 30, true, "Mex"),
			member("m4", 36, false, "Mex"),
		},
	}
	a := ExtractArchetype(c)

	require.Len(t, a.Examples, MaxExampleMembers)
	assert.Equal(t, "m2", a.Examples[0].MatchID)
	assert.Equal(t, "m4", a.Examples[1].MatchID)
	assert.Equal(t, "m3", a.Examples[2].MatchID)
	assert.True(t, a.Examples[0].WonGame)
	assert.InDelta(t, 42.0, a.Examples[0].Skill, 1e-12)
}

func TestExtractArchetype_FewerMembersThanExampleLimit(t *testing.T) {
	c := Cluster{
		PositionName: "eco",
		Label:        1,
		Members:      []Sequence{member("m1", 10, true, "Mex")},
	}
	a := ExtractArchetype(c)
	assert.Len(t, a.Examples, 1)
}

func TestExtractArchetypes_SortedByFrequencyDesc(t *testing.T) {
	clusters := []Cluster{
		{PositionName: "front-1", Label: 1, Members: []Sequence{
			member("a", 10, true, "Mex"),
		}},
		{PositionName: "front-1", Label: 2, Members: []Sequence{
			member("b", 10, true, "Mex"),
			member("c", 10, false, "Mex"),
			member("d", 10, false, "Mex"),
		}},
		{PositionName: "front-1", Label: 3, Members: []Sequence{
			member("e", 10, true, "Mex"),
			member("f", 10, true, "Mex"),
		}},
	}

	out := ExtractArchetypes(clusters)

	require.Len(t, out, 3)
	assert.Equal(t, []int{2, 3, 1}, []int{out[0].Label, out[1].Label, out[2].Label})
	assert.Equal(t, []int{3, 2, 1}, []int{out[0].Frequency, out[1].Frequency, out[2].Frequency})
}
