// Package learn tracks collaboration outcomes and turns them into scoring
// adjustments. Outcomes are folded per (need type, capability type) pair
// into an exponential moving average, so recent outcomes weigh more than
// old ones without storing full history in memory.
package learn

import (
	"log/slog"
	"sync"

	"github.com/substratehq/substrate/internal/model"
)

// maxBoost bounds the historical adjustment so learned patterns nudge
// rankings rather than dominate them.
const maxBoost = 0.1

// Pattern is the learned state for one (need type, capability type) pair.
// Value is an EMA of success-weighted match scores: a successful outcome
// contributes the match's score, a failed one contributes zero.
type Pattern struct {
	Value    float64 // in [0,1]
	Outcomes int     // total outcomes recorded for this pair
}

// Learner accumulates outcomes and answers boost queries. Safe for
// concurrent use.
type Learner struct {
	alpha  float64
	logger *slog.Logger

	mu       sync.RWMutex
	patterns map[string]Pattern
}

// New creates a learner with the given EMA smoothing factor in (0,1].
func New(alpha float64, logger *slog.Logger) *Learner {
	return &Learner{
		alpha:    alpha,
		logger:   logger,
		patterns: make(map[string]Pattern),
	}
}

func patternKey(needType, capType model.CapabilityType) string {
	return string(needType) + ":" + string(capType)
}

// Record folds an outcome into the pattern for the pair. The first outcome
// sets the value directly; later outcomes are smoothed.
func (l *Learner) Record(needType, capType model.CapabilityType, success bool, matchScore float64) {
	observed := 0.0
	if success {
		observed = matchScore
	}

	key := patternKey(needType, capType)

	l.mu.Lock()
	p := l.patterns[key]
	if p.Outcomes == 0 {
		p.Value = observed
	} else {
		p.Value = l.alpha*observed + (1-l.alpha)*p.Value
	}
	p.Outcomes++
	l.patterns[key] = p
	l.mu.Unlock()

	l.logger.Debug("learn: outcome recorded",
		"pattern", key,
		"success", success,
		"value", p.Value,
		"outcomes", p.Outcomes,
	)
}

// Boost returns the score adjustment for the pair, in [-maxBoost, +maxBoost].
// Pairs with no recorded history get exactly zero so new pairings are
// neither favored nor penalized.
func (l *Learner) Boost(needType, capType model.CapabilityType) float64 {
	l.mu.RLock()
	p, ok := l.patterns[patternKey(needType, capType)]
	l.mu.RUnlock()

	if !ok || p.Outcomes == 0 {
		return 0
	}

	boost := (p.Value - 0.5) * 0.2
	if boost > maxBoost {
		boost = maxBoost
	}
	if boost < -maxBoost {
		boost = -maxBoost
	}
	return boost
}

// PatternFor returns the learned pattern for the pair and whether any
// history exists. Used by explanations to cite historical evidence.
func (l *Learner) PatternFor(needType, capType model.CapabilityType) (Pattern, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.patterns[patternKey(needType, capType)]
	return p, ok && p.Outcomes > 0
}

// Snapshot returns a copy of all learned patterns keyed by
// "needType:capType". Used for persistence and introspection.
func (l *Learner) Snapshot() map[string]Pattern {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]Pattern, len(l.patterns))
	for k, v := range l.patterns {
		out[k] = v
	}
	return out
}

// Restore replaces the learner's state, e.g. from persisted patterns at
// startup.
func (l *Learner) Restore(patterns map[string]Pattern) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.patterns = make(map[string]Pattern, len(patterns))
	for k, v := range patterns {
		l.patterns[k] = v
	}
}
