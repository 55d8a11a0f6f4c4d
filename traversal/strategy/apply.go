package strategy

import (
	"fmt"
	"time"

	"github.com/wbrown/janus-traversal/traversal/annotations"
	"github.com/wbrown/janus-traversal/traversal/pipeline"
)

// Options configures an apply invocation.
type Options struct {
	// Collector receives diagnostic tracing events. Nil disables tracing.
	Collector *annotations.Collector
}

// Apply rewrites the pipeline in place with the given strategy set, then
// freezes it. The strategy order is computed once; the same order is
// applied to the top level and, depth-first after each parent, to every
// nested child pipeline.
//
// Apply either succeeds or returns one of the documented error kinds; on
// error the pipeline must be discarded, never executed half-rewritten.
func Apply(p *pipeline.Pipeline, engine pipeline.Engine, strategies []Strategy, opts Options) error {
	start := time.Now()
	trace := opts.Collector

	if p == nil {
		return configErrorf("nil pipeline")
	}
	if p.Frozen() {
		return pipeline.ErrFrozen
	}
	if engine != pipeline.EngineStandard && engine != pipeline.EngineComputer {
		return configErrorf("unknown engine tag %d", int(engine))
	}

	ordered, err := orderStrategies(strategies)
	if err != nil {
		trace.Annotate(annotations.ErrorConfiguration, map[string]interface{}{"error": err.Error()})
		return err
	}

	if trace.Enabled() {
		ids := make([]string, len(ordered))
		for i, s := range ordered {
			ids[i] = s.ID()
		}
		trace.Annotate(annotations.ApplyInvoked, map[string]interface{}{
			"pipeline":       p.InstanceID().String(),
			"engine":         engine.String(),
			"strategy.count": len(ordered),
		})
		trace.Annotate(annotations.StrategyOrder, map[string]interface{}{"order": ids})
	}

	if err := p.SetEngine(engine); err != nil {
		return err
	}

	if err := applyOrdered(p, engine, ordered, trace); err != nil {
		trace.AddTiming(annotations.ApplyComplete, start, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return err
	}

	if err := p.Validate(); err != nil {
		trace.Annotate(annotations.ErrorInvariant, map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("pipeline invalid after strategy application: %w", err)
	}

	p.Freeze()
	trace.Annotate(annotations.PipelineFrozen, map[string]interface{}{
		"pipeline": p.InstanceID().String(),
	})
	trace.AddTiming(annotations.ApplyComplete, start, map[string]interface{}{
		"success":    true,
		"step.count": p.Len(),
	})
	return nil
}

// applyOrdered runs the ordered strategies against one pipeline, then
// recurses into child pipelines. Children are visited after the parent so
// parent rewrites may add or remove them first.
func applyOrdered(p *pipeline.Pipeline, engine pipeline.Engine, ordered []Strategy, trace *annotations.Collector) error {
	for _, s := range ordered {
		if !s.Engines().Allows(engine) {
			trace.Annotate(annotations.StrategySkipped, map[string]interface{}{
				"strategy": s.ID(),
				"reason":   fmt.Sprintf("restricted away from %s", engine),
			})
			continue
		}
		t0 := time.Now()
		if err := s.ApplyTo(p, trace); err != nil {
			return fmt.Errorf("strategy %s: %w", s.ID(), err)
		}
		trace.AddTiming(annotations.StrategyApplied, t0, map[string]interface{}{
			"strategy": s.ID(),
			"pipeline": p.InstanceID().String(),
		})
	}
	for _, step := range p.Steps() {
		for _, child := range step.Children() {
			if err := applyOrdered(child, engine, ordered, trace); err != nil {
				return err
			}
		}
	}
	return nil
}
