// Package success implements the outcome-analysis stage: per-position
// win-rate baselines stratified by skill, exact binomial significance
// testing of archetype win rates against their position baseline, and
// an opening/timing comparison between high-skill and mid-skill play.
package success

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/skirmishlabs/buildsight/internal/analytics/stats"
	"github.com/skirmishlabs/buildsight/internal/config"
	"github.com/skirmishlabs/buildsight/internal/domain/buildorder"
	"github.com/skirmishlabs/buildsight/internal/domain/position"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/metrics"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

const stageName = "success"

// Testing and reporting thresholds.
const (
	// MinTestFrequency is the smallest archetype sample size the exact
	// binomial test is applied to; below it pValue stays null.
	MinTestFrequency = 10

	// SignificanceAlpha is the two-sided rejection threshold.
	SignificanceAlpha = 0.05

	// OpeningLength is the token prefix length compared across skill
	// strata.
	OpeningLength = 5

	// TopOpenings bounds the per-stratum opening frequency list.
	TopOpenings = 10

	// MinTimingSamples is the per-stratum sample floor for a unit to
	// enter the timing comparison.
	MinTimingSamples = 10

	// TimingGapThresholdMs is the smallest mean first-build gap worth
	// reporting.
	TimingGapThresholdMs = 5000

	// TopTimingGaps bounds the timing report, ordered by absolute gap.
	TopTimingGaps = 20
)

// Baseline is the per-position outcome summary all archetype win rates
// are tested against.
type Baseline struct {
	PositionName     string  `json:"positionName"`
	TotalGames       int     `json:"totalGames"`
	WinRate          float64 `json:"winRate"`
	AvgSkill         float64 `json:"avgSkill"`
	HighSkillGames   int     `json:"highSkillGames"`
	HighSkillWinRate float64 `json:"highSkillWinRate"`
	MidSkillGames    int     `json:"midSkillGames"`
	MidSkillWinRate  float64 `json:"midSkillWinRate"`
}

// OpeningCount is one opening's frequency within a skill stratum.
type OpeningCount struct {
	Opening []string `json:"opening"`
	Count   int      `json:"count"`
	Percent float64  `json:"percent"`
}

// TimingGap reports a unit whose mean first-build time differs between
// the skill strata by more than the threshold. GapMs is high minus mid:
// negative means high-skill players build the unit earlier.
type TimingGap struct {
	UnitToken   string  `json:"unitToken"`
	HighMeanMs  float64 `json:"highMeanMs"`
	MidMeanMs   float64 `json:"midMeanMs"`
	GapMs       float64 `json:"gapMs"`
	HighSamples int     `json:"highSamples"`
	MidSamples  int     `json:"midSamples"`
}

// SkillComparison contrasts high-skill and mid-skill play.
type SkillComparison struct {
	HighSequences int            `json:"highSequences"`
	MidSequences  int            `json:"midSequences"`
	HighOpenings  []OpeningCount `json:"highOpenings"`
	MidOpenings   []OpeningCount `json:"midOpenings"`
	TimingGaps    []TimingGap    `json:"timingGaps"`
}

// Summary is the coverage accounting for the outcome stage.
type Summary struct {
	ArchetypesTested  int `json:"archetypesTested"`
	ArchetypesSkipped int `json:"archetypesSkipped"`
	SignificantCount  int `json:"significantCount"`
}

// Result carries everything the outcome stage produces. Baselines are
// sorted by position name; Findings parallel the input archetypes.
type Result struct {
	Baselines []Baseline                `json:"baselines"`
	Findings  []buildorder.Significance `json:"findings"`
	Skill     SkillComparison           `json:"skillComparison"`
	Summary   Summary                   `json:"summary"`
}

// Service runs the outcome-analysis stage. Pure computation, no I/O.
type Service struct {
	cfg config.SkillConfig
	log logging.Logger
	met *metrics.RunMetrics
}

// NewService constructs the success service. met may be nil.
func NewService(cfg config.SkillConfig, log logging.Logger, met *metrics.RunMetrics) *Service {
	return &Service{cfg: cfg, log: log.Named("success"), met: met}
}

// Analyze computes baselines from the position assignments, tests each
// archetype's win rate against its position baseline, and builds the
// skill comparison from the joined sequences.
func (s *Service) Analyze(assignments []position.Assignment, archetypes []buildorder.Archetype, sequences []buildorder.Sequence) (*Result, error) {
	start := time.Now()

	baselines := s.computeBaselines(assignments)
	byName := make(map[string]Baseline, len(baselines))
	for _, b := range baselines {
		byName[b.PositionName] = b
	}

	result := &Result{
		Baselines: baselines,
		Skill:     s.compareSkill(sequences),
	}

	for _, a := range archetypes {
		finding, tested, err := s.testArchetype(a, byName)
		if err != nil {
			return nil, err
		}
		result.Findings = append(result.Findings, finding)
		if tested {
			result.Summary.ArchetypesTested++
		} else {
			result.Summary.ArchetypesSkipped++
		}
		if finding.IsSignificant {
			result.Summary.SignificantCount++
		}
	}

	if s.met != nil {
		s.met.SignificantFinds.Add(float64(result.Summary.SignificantCount))
		s.met.RunDuration.WithLabelValues(stageName).Observe(time.Since(start).Seconds())
	}
	s.log.Info("outcome analysis complete",
		logging.Int("baselines", len(baselines)),
		logging.Int("tested", result.Summary.ArchetypesTested),
		logging.Int("significant", result.Summary.SignificantCount))
	return result, nil
}

func (s *Service) computeBaselines(assignments []position.Assignment) []Baseline {
	type agg struct {
		games, wins         int
		skillSum            float64
		highGames, highWins int
		midGames, midWins   int
	}
	aggs := make(map[string]*agg)
	for _, a := range assignments {
		g := aggs[a.Name]
		if g == nil {
			g = &agg{}
			aggs[a.Name] = g
		}
		g.games++
		g.skillSum += a.Skill
		if a.WonGame {
			g.wins++
		}
		switch {
		case a.Skill >= s.cfg.HighThreshold:
			g.highGames++
			if a.WonGame {
				g.highWins++
			}
		case a.Skill >= s.cfg.MidThreshold:
			g.midGames++
			if a.WonGame {
				g.midWins++
			}
		}
	}

	names := make([]string, 0, len(aggs))
	for name := range aggs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Baseline, 0, len(names))
	for _, name := range names {
		g := aggs[name]
		out = append(out, Baseline{
			PositionName:     name,
			TotalGames:       g.games,
			WinRate:          ratio(g.wins, g.games),
			AvgSkill:         g.skillSum / float64(g.games),
			HighSkillGames:   g.highGames,
			HighSkillWinRate: ratio(g.highWins, g.highGames),
			MidSkillGames:    g.midGames,
			MidSkillWinRate:  ratio(g.midWins, g.midGames),
		})
	}
	return out
}

// testArchetype applies the exact two-sided binomial test when the
// archetype's sample size reaches MinTestFrequency; smaller samples get
// a null p-value and are never flagged significant.
func (s *Service) testArchetype(a buildorder.Archetype, baselines map[string]Baseline) (buildorder.Significance, bool, error) {
	base, ok := baselines[a.PositionName]
	if !ok {
		return buildorder.Significance{}, false, errors.Newf(errors.ErrCodeSignificanceInput,
			"success: archetype %s references position %q with no baseline", a.Name, a.PositionName)
	}

	finding := buildorder.Significance{
		ArchetypeName:   a.Name,
		BaselineWinRate: base.WinRate,
		WinRateDelta:    a.WinRate - base.WinRate,
	}
	if a.Frequency < MinTestFrequency {
		return finding, false, nil
	}

	successes := int(math.Round(a.WinRate * float64(a.Frequency)))
	p, err := stats.BinomialTestTwoSided(successes, a.Frequency, base.WinRate)
	if err != nil {
		return finding, false, errors.Wrap(err, errors.ErrCodeSignificanceInput, "success: test archetype "+a.Name)
	}
	finding.PValue = &p
	finding.IsSignificant = p < SignificanceAlpha
	return finding, true, nil
}

func (s *Service) compareSkill(sequences []buildorder.Sequence) SkillComparison {
	var high, mid []buildorder.Sequence
	for _, seq := range sequences {
		switch {
		case seq.Skill >= s.cfg.HighThreshold:
			high = append(high, seq)
		case seq.Skill >= s.cfg.MidThreshold:
			mid = append(mid, seq)
		}
	}

	highTimings := firstBuildTimes(high)
	midTimings := firstBuildTimes(mid)

	var gaps []TimingGap
	for unit, highTimes := range highTimings {
		midTimes, ok := midTimings[unit]
		if !ok || len(highTimes) < MinTimingSamples || len(midTimes) < MinTimingSamples {
			continue
		}
		highMean := stats.Mean(highTimes)
		midMean := stats.Mean(midTimes)
		gap := highMean - midMean
		if math.Abs(gap) <= TimingGapThresholdMs {
			continue
		}
		gaps = append(gaps, TimingGap{
			UnitToken:   unit,
			HighMeanMs:  highMean,
			MidMeanMs:   midMean,
			GapMs:       gap,
			HighSamples: len(highTimes),
			MidSamples:  len(midTimes),
		})
	}
	sort.Slice(gaps, func(i, j int) bool {
		gi, gj := math.Abs(gaps[i].GapMs), math.Abs(gaps[j].GapMs)
		if gi != gj {
			return gi > gj
		}
		return gaps[i].UnitToken < gaps[j].UnitToken
	})
	if len(gaps) > TopTimingGaps {
		gaps = gaps[:TopTimingGaps]
	}

	return SkillComparison{
		HighSequences: len(high),
		MidSequences:  len(mid),
		HighOpenings:  topOpenings(high),
		MidOpenings:   topOpenings(mid),
		TimingGaps:    gaps,
	}
}

// firstBuildTimes collects, per unit token, the first-occurrence build
// time of that unit in each sequence.
func firstBuildTimes(sequences []buildorder.Sequence) map[string][]float64 {
	out := make(map[string][]float64)
	for _, seq := range sequences {
		seen := make(map[string]bool)
		for _, step := range seq.Steps {
			if seen[step.UnitToken] {
				continue
			}
			seen[step.UnitToken] = true
			out[step.UnitToken] = append(out[step.UnitToken], float64(step.TimeOffsetMs))
		}
	}
	return out
}

// topOpenings tallies the first OpeningLength tokens of each non-empty
// sequence and returns the most common openings, ties broken
// lexicographically for reproducible reports.
func topOpenings(sequences []buildorder.Sequence) []OpeningCount {
	counts := make(map[string]int)
	tokens := make(map[string][]string)
	total := 0
	for _, seq := range sequences {
		if len(seq.Tokens) == 0 {
			continue
		}
		opening := seq.Tokens
		if len(opening) > OpeningLength {
			opening = opening[:OpeningLength]
		}
		key := strings.Join(opening, "|")
		if _, seen := counts[key]; !seen {
			tokens[key] = append([]string(nil), opening...)
		}
		counts[key]++
		total++
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > TopOpenings {
		keys = keys[:TopOpenings]
	}

	out := make([]OpeningCount, 0, len(keys))
	for _, key := range keys {
		out = append(out, OpeningCount{
			Opening: tokens[key],
			Count:   counts[key],
			Percent: 100 * ratio(counts[key], total),
		})
	}
	return out
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
