package learn_test

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/substratehq/substrate/internal/learn"
	"github.com/substratehq/substrate/internal/model"
)

func newLearner() *learn.Learner {
	return learn.New(0.3, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBoostZeroWithoutHistory(t *testing.T) {
	l := newLearner()
	assert.Zero(t, l.Boost(model.TypeSkill, model.TypeSkill),
		"unseen pairs must be neither favored nor penalized")
}

func TestFirstOutcomeSetsValueDirectly(t *testing.T) {
	l := newLearner()
	l.Record(model.TypeSkill, model.TypeSkill, true, 0.8)

	p, ok := l.PatternFor(model.TypeSkill, model.TypeSkill)
	assert.True(t, ok)
	assert.Equal(t, 0.8, p.Value)
	assert.Equal(t, 1, p.Outcomes)

	// boost = (0.8 - 0.5) * 0.2 = 0.06
	assert.InDelta(t, 0.06, l.Boost(model.TypeSkill, model.TypeSkill), 1e-9)
}

func TestFailureContributesZero(t *testing.T) {
	l := newLearner()
	l.Record(model.TypeSkill, model.TypeResource, true, 0.8)  // value = 0.8
	l.Record(model.TypeSkill, model.TypeResource, false, 0.9) // value = 0.3*0 + 0.7*0.8 = 0.56

	p, _ := l.PatternFor(model.TypeSkill, model.TypeResource)
	assert.InDelta(t, 0.56, p.Value, 1e-9)
	assert.Equal(t, 2, p.Outcomes)

	// boost = (0.56 - 0.5) * 0.2 = 0.012
	assert.InDelta(t, 0.012, l.Boost(model.TypeSkill, model.TypeResource), 1e-9)
}

func TestBoostBounds(t *testing.T) {
	l := newLearner()
	for i := 0; i < 50; i++ {
		l.Record(model.TypeSkill, model.TypeSkill, true, 1.0)
		l.Record(model.TypeResource, model.TypeResource, false, 1.0)
	}
	assert.InDelta(t, 0.1, l.Boost(model.TypeSkill, model.TypeSkill), 1e-9, "boost capped at +0.1")
	assert.InDelta(t, -0.1, l.Boost(model.TypeResource, model.TypeResource), 1e-9, "boost floored at -0.1")
}

func TestPairsAreDirectional(t *testing.T) {
	l := newLearner()
	l.Record(model.TypeSkill, model.TypeFunding, false, 0.7)

	assert.Negative(t, l.Boost(model.TypeSkill, model.TypeFunding))
	assert.Zero(t, l.Boost(model.TypeFunding, model.TypeSkill),
		"the reverse pairing carries no history")
}

func TestSnapshotRestore(t *testing.T) {
	l := newLearner()
	l.Record(model.TypeSkill, model.TypeSkill, true, 0.9)

	snap := l.Snapshot()
	assert.Len(t, snap, 1)

	fresh := newLearner()
	fresh.Restore(snap)
	assert.Equal(t, l.Boost(model.TypeSkill, model.TypeSkill), fresh.Boost(model.TypeSkill, model.TypeSkill))
}

func TestConcurrentRecordAndBoost(t *testing.T) {
	l := newLearner()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Record(model.TypeSkill, model.TypeSkill, n%2 == 0, 0.8)
				_ = l.Boost(model.TypeSkill, model.TypeSkill)
			}
		}(i)
	}
	wg.Wait()

	p, ok := l.PatternFor(model.TypeSkill, model.TypeSkill)
	assert.True(t, ok)
	assert.Equal(t, 800, p.Outcomes)
	assert.GreaterOrEqual(t, p.Value, 0.0)
	assert.LessOrEqual(t, p.Value, 1.0)
}
