package strategy

import (
	"sort"

	"github.com/wbrown/janus-traversal/traversal/annotations"
	"github.com/wbrown/janus-traversal/traversal/pipeline"
)

// FilterReordering sorts contiguous runs of pure filter steps by their
// selectivity hint, most selective first, so cheap discards happen early.
// The sort is stable: ties keep their original order.
//
// Only order-insensitive filters move. Range steps are positional and
// labeled or side-effecting steps pin their place, so any of those ends
// the run.
type FilterReordering struct{}

func (FilterReordering) ID() string                  { return "FilterReordering" }
func (FilterReordering) Before() []string            { return nil }
func (FilterReordering) After() []string             { return []string{"RangeMerge"} }
func (FilterReordering) Engines() pipeline.EngineSet { return pipeline.EngineSetAll }

func (FilterReordering) ApplyTo(p *pipeline.Pipeline, _ *annotations.Collector) error {
	i := 0
	for i < p.Len() {
		if !reorderable(p.StepAt(i)) {
			i++
			continue
		}
		start := i
		for i < p.Len() && reorderable(p.StepAt(i)) {
			i++
		}
		if i-start < 2 {
			continue
		}
		run := make([]*pipeline.Step, i-start)
		for j := range run {
			run[j] = p.StepAt(start + j)
		}
		sort.SliceStable(run, func(a, b int) bool {
			return run[a].Selectivity() < run[b].Selectivity()
		})
		if err := pipeline.ReorderRun(p, start, run); err != nil {
			return err
		}
	}
	return nil
}

func reorderable(s *pipeline.Step) bool {
	switch s.Kind() {
	case pipeline.KindHas, pipeline.KindIs, pipeline.KindFilter, pipeline.KindHasTraversal:
	default:
		return false
	}
	return !s.HasLabels() && !s.HasSideEffects()
}
