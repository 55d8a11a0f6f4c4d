// Package strategy rewrites traversal pipelines into semantically
// equivalent but cheaper ones.
//
// File organization:
//   - strategy.go: Strategy interface and error types
//   - registry.go: process-wide closed catalog of strategies
//   - ordering.go: topological ordering over before/after edges
//   - apply.go: Apply() entry point and application discipline
//   - range_by_is_count.go and peers: the concrete rewrite rules
//
// Start with Apply() in apply.go to understand the rewriting flow.
package strategy

import (
	"fmt"

	"github.com/wbrown/janus-traversal/traversal/annotations"
	"github.com/wbrown/janus-traversal/traversal/pipeline"
)

// Strategy is a deterministic in-place rewrite of a pipeline. Each rule
// must be idempotent: applying it to an already-optimized pipeline is a
// no-op. The framework runs each strategy exactly once per pipeline and
// relies on ordering, not fixed-point iteration, for convergence.
type Strategy interface {
	// ID is the stable strategy identifier.
	ID() string

	// Before lists strategies this one must run before.
	Before() []string

	// After lists strategies this one must run after.
	After() []string

	// Engines restricts the strategy to specific engine tags. A strategy
	// that is incorrect on one backend declares the restriction and is
	// skipped when the tag does not match.
	Engines() pipeline.EngineSet

	// ApplyTo rewrites the pipeline in place. Rules return "no match" by
	// doing nothing; an error means a structural invariant was violated
	// and the whole apply is abandoned.
	ApplyTo(p *pipeline.Pipeline, trace *annotations.Collector) error
}

// ConfigurationError reports cyclic or contradictory strategy ordering, an
// unknown strategy identifier, or a missing engine tag. It is reported
// before any rewrite runs.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("strategy configuration error: %s", e.Reason)
}

func configErrorf(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
