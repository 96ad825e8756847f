package buildorder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skirmishlabs/buildsight/internal/domain/telemetry"
)

func steps(tokens ...string) []telemetry.BuildStep {
	out := make([]telemetry.BuildStep, 0, len(tokens))
	for i, tok := range tokens {
		out = append(out, telemetry.BuildStep{
			UnitToken:    tok,
			TimeOffsetMs: int64(i) * 1000,
			StepIndex:    i,
		})
	}
	return out
}

func TestEncodeSequence_PreservesOrder(t *testing.T) {
	got := EncodeSequence(steps("Mex", "Solar", "Factory Bot"), 20)
	assert.Equal(t, []string{"Mex", "Solar", "Factory Bot"}, got)
}

func TestEncodeSequence_TruncatesToMaxLen(t *testing.T) {
	got := EncodeSequence(steps("a", "b", "c", "d", "e"), 3)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestEncodeSequence_NeverPads(t *testing.T) {
	got := EncodeSequence(steps("a", "b"), 10)
	assert.Len(t, got, 2)
}

func TestEncodeSequence_EmptyAndNegative(t *testing.T) {
	assert.Empty(t, EncodeSequence(nil, 20))
	assert.Empty(t, EncodeSequence(steps("a"), 0))
	assert.Empty(t, EncodeSequence(steps("a"), -1))
}
