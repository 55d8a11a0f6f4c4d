package strategy

import (
	"github.com/wbrown/janus-traversal/traversal"
	"github.com/wbrown/janus-traversal/traversal/annotations"
	"github.com/wbrown/janus-traversal/traversal/pipeline"
)

// RangeByIsCount recognizes `... count is(P, V)` and inserts a
// range(0, highRange) immediately before the count, where highRange is the
// smallest number of upstream elements sufficient to decide the predicate
// for the exact count of the full stream. The count and is steps stay in
// place; they remain correct on the truncated stream.
type RangeByIsCount struct{}

func (RangeByIsCount) ID() string                  { return "RangeByIsCount" }
func (RangeByIsCount) Before() []string            { return []string{"RangeMerge"} }
func (RangeByIsCount) After() []string             { return []string{"IdentityRemoval"} }
func (RangeByIsCount) Engines() pipeline.EngineSet { return pipeline.EngineSetAll }

func (r RangeByIsCount) ApplyTo(p *pipeline.Pipeline, trace *annotations.Collector) error {
	engine, _ := p.Engine()

	for _, count := range pipeline.StepsOfKind(p, pipeline.KindCount) {
		isSteps := consecutiveIsSteps(p, count)
		if len(isSteps) == 0 {
			continue
		}

		// With several is steps in conjunction, the largest bound decides
		// them all. Every one must be derivable, or nothing fires.
		var high int64
		derivable := true
		for _, is := range isSteps {
			k, ok := highRangeFor(*is.Predicate)
			if !ok {
				derivable = false
				break
			}
			if k > high {
				high = k
			}
		}
		if !derivable || high <= 0 {
			// highRange 0 would insert an empty range; the is step already
			// produces the right boolean on the empty stream.
			continue
		}

		if engine == pipeline.EngineComputer && !computerSafe(p, count) {
			trace.Annotate(annotations.RuleUnsupported, map[string]interface{}{
				"strategy": r.ID(),
				"step":     count.ID(),
				"reason":   "labels or side effects between last barrier and count",
			})
			continue
		}

		if prev, ok := pipeline.Predecessor(p, count); ok && prev.Kind() == pipeline.KindRange && prev.Low == 0 {
			// Merge into the pre-existing truncation; re-running the rule
			// lands here with an equal bound and changes nothing.
			if prev.High == pipeline.Unbounded || high < prev.High {
				prev.High = high
			}
			continue
		}

		if err := pipeline.InsertBefore(p, pipeline.Range(0, high), count); err != nil {
			return err
		}
	}
	return nil
}

// consecutiveIsSteps collects the uninterrupted run of is steps directly
// after the count step.
func consecutiveIsSteps(p *pipeline.Pipeline, count *pipeline.Step) []*pipeline.Step {
	var out []*pipeline.Step
	cur := count
	for {
		next, ok := pipeline.Successor(p, cur)
		if !ok || next.Kind() != pipeline.KindIs || next.Predicate == nil {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out
}

// highRangeFor derives the truncation bound from a count predicate.
// Returns false when the predicate gives no finite bound: opaque
// predicates, non-integer operands, negative thresholds, empty sets.
func highRangeFor(p traversal.Predicate) (int64, bool) {
	switch p.Kind {
	case traversal.PredEQ, traversal.PredNEQ, traversal.PredLTE:
		// One past n distinguishes "count == n" from "count > n".
		n, ok := traversal.AsInt(p.Value)
		if !ok || n < 0 {
			return 0, false
		}
		return n + 1, true
	case traversal.PredLT, traversal.PredGTE:
		// Seeing n elements already witnesses count >= n.
		n, ok := traversal.AsInt(p.Value)
		if !ok || n < 0 {
			return 0, false
		}
		return n, true
	case traversal.PredGT:
		n, ok := traversal.AsInt(p.Value)
		if !ok || n < 0 {
			return 0, false
		}
		return n + 1, true
	case traversal.PredInside:
		// The strict upper bound decides; the lower is implied by then.
		b, ok := traversal.AsInt(p.Hi)
		if !ok || b < 0 {
			return 0, false
		}
		return b, true
	case traversal.PredOutside:
		b, ok := traversal.AsInt(p.Hi)
		if !ok || b < 0 {
			return 0, false
		}
		return b + 1, true
	case traversal.PredWithin, traversal.PredWithout:
		if len(p.Set) == 0 {
			return 0, false
		}
		var max int64
		for _, m := range p.Set {
			n, ok := traversal.AsInt(m)
			if !ok || n < 0 {
				return 0, false
			}
			if n > max {
				max = n
			}
		}
		if p.Kind == traversal.PredWithin {
			// Distinguish the largest admissible count from any larger.
			return max + 1, true
		}
		// Once count reaches max(S), membership in S is impossible beyond.
		return max, true
	}
	return 0, false
}

// computerSafe checks the COMPUTER-engine legality of truncating before
// count: the segment between the last barrier and the count must carry no
// label a downstream step could consume and no side-effecting step, since
// partitioned execution would observe the truncation.
func computerSafe(p *pipeline.Pipeline, count *pipeline.Step) bool {
	pos, ok := pipeline.PositionOf(p, count)
	if !ok {
		return false
	}
	for i := pos - 1; i >= 0; i-- {
		s := p.StepAt(i)
		if s.Kind().IsBarrier() {
			break
		}
		if s.HasLabels() || s.HasSideEffects() {
			return false
		}
	}
	return true
}
