// Package quiz builds multiple-choice answer sets for a presented word.
package quiz

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/example/wordcards/pkg/models"
)

const (
	// DistractorCount is how many wrong options accompany the correct one
	DistractorCount = 3
	// MaxOptions is the size of a full answer set
	MaxOptions = DistractorCount + 1
)

// DistractorSource supplies wrong translations
type DistractorSource interface {
	SampleDistractors(ctx context.Context, excludeTerm string, n int) ([]string, error)
}

// Selector combines the correct translation with sampled distractors
type Selector struct {
	source DistractorSource

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector creates a selector. A nil rnd is seeded from the clock.
func NewSelector(source DistractorSource, rnd *rand.Rand) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{source: source, rnd: rnd}
}

// AnswerSet returns the shuffled options for word: its translation plus up
// to DistractorCount distractors. A tiny catalog yields a shorter set.
func (s *Selector) AnswerSet(ctx context.Context, word models.Word) ([]string, error) {
	distractors, err := s.source.SampleDistractors(ctx, word.TargetTerm, DistractorCount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Compose(word.TargetTerm, distractors, s.rnd), nil
}

// Compose builds an answer set containing correct exactly once, distinct
// distractors, at most MaxOptions entries, in random order
func Compose(correct string, distractors []string, rnd *rand.Rand) []string {
	options := make([]string, 0, MaxOptions)
	options = append(options, correct)

	seen := map[string]bool{correct: true}
	for _, d := range distractors {
		if len(options) == MaxOptions {
			break
		}
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		options = append(options, d)
	}

	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
