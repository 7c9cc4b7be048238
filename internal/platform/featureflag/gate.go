// Package featureflag answers runtime capability checks for the onboarding
// pipeline. Reads are treated as eventually-consistent snapshots.
package featureflag

import (
	"context"
	"strings"
	"sync"
)

const (
	FlagPipeline   = "creator_onboarding_pipeline"
	FlagAssessment = "creator_onboarding_assessment"
	FlagEconomics  = "creator_onboarding_economics"
)

// Gate reports whether a flag is on. Unknown flags are off.
type Gate interface {
	IsEnabled(ctx context.Context, flag string) bool
}

// Defaults used when no flag source says otherwise.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagPipeline:   true,
		FlagAssessment: true,
		FlagEconomics:  false,
	}
}

// Static is an in-memory Gate. It is safe for concurrent use and can be
// flipped at runtime (tests, admin overrides).
type Static struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewStatic(flags map[string]bool) *Static {
	s := &Static{flags: map[string]bool{}}
	for k, v := range flags {
		s.flags[normalize(k)] = v
	}
	return s
}

func (s *Static) IsEnabled(_ context.Context, flag string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[normalize(flag)]
}

func (s *Static) Set(flag string, enabled bool) {
	s.mu.Lock()
	s.flags[normalize(flag)] = enabled
	s.mu.Unlock()
}

func normalize(flag string) string {
	return strings.ToLower(strings.TrimSpace(flag))
}
