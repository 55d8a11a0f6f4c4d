package strategy

import (
	"github.com/wbrown/janus-traversal/traversal/annotations"
	"github.com/wbrown/janus-traversal/traversal/pipeline"
)

// RangeMerge collapses adjacent range steps into one. Feeding range(a, b)
// into range(c, d) keeps elements [a+c, min(b, a+d)) of the original
// stream, with Unbounded acting as infinity.
type RangeMerge struct{}

func (RangeMerge) ID() string                  { return "RangeMerge" }
func (RangeMerge) Before() []string            { return []string{"FilterReordering"} }
func (RangeMerge) After() []string             { return []string{"RangeByIsCount"} }
func (RangeMerge) Engines() pipeline.EngineSet { return pipeline.EngineSetAll }

func (RangeMerge) ApplyTo(p *pipeline.Pipeline, _ *annotations.Collector) error {
	for i := 1; i < p.Len(); {
		first, second := p.StepAt(i-1), p.StepAt(i)
		if first.Kind() != pipeline.KindRange || second.Kind() != pipeline.KindRange {
			i++
			continue
		}
		a, b := first.Low, first.High
		c, d := second.Low, second.High
		first.Low = a + c
		first.High = mergedHigh(a, b, d)
		if err := pipeline.Remove(p, second); err != nil {
			return err
		}
		// Stay at the same position: the merged step may now be adjacent
		// to yet another range.
	}
	return nil
}

func mergedHigh(a, b, d int64) int64 {
	switch {
	case b == pipeline.Unbounded && d == pipeline.Unbounded:
		return pipeline.Unbounded
	case b == pipeline.Unbounded:
		return a + d
	case d == pipeline.Unbounded:
		return b
	}
	if b < a+d {
		return b
	}
	return a + d
}
