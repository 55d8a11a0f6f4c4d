package pipeline

import (
	"github.com/wbrown/janus-traversal/traversal"
)

// Step constructors. Each returns a detached step ready to Append; kinds
// that need a payload take it here so a constructed step is always whole.

// VertexSource starts a pipeline from graph vertices, optionally from a
// direct id lookup.
func VertexSource(ids ...traversal.Value) *Step {
	s := NewStep(KindVertexSource)
	s.IDs = ids
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// EdgeSource starts a pipeline from graph edges.
func EdgeSource() *Step {
	s := NewStep(KindEdgeSource)
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// Out traverses to adjacent vertices along outgoing edges.
func Out(edgeLabels ...string) *Step {
	s := NewStep(KindOut)
	s.EdgeLabels = edgeLabels
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// In traverses to adjacent vertices along incoming edges.
func In(edgeLabels ...string) *Step {
	s := NewStep(KindIn)
	s.EdgeLabels = edgeLabels
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// Both traverses to adjacent vertices in both directions.
func Both(edgeLabels ...string) *Step {
	s := NewStep(KindBoth)
	s.EdgeLabels = edgeLabels
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// OutEdges traverses to outgoing edges.
func OutEdges(edgeLabels ...string) *Step {
	s := NewStep(KindOutEdges)
	s.EdgeLabels = edgeLabels
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// InEdges traverses to incoming edges.
func InEdges(edgeLabels ...string) *Step {
	s := NewStep(KindInEdges)
	s.EdgeLabels = edgeLabels
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// Has filters elements by a (key, predicate) container.
func Has(key string, pred traversal.Predicate) *Step {
	s := NewStep(KindHas)
	s.Container = &HasContainer{Key: key, Predicate: pred}
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// HasTraversal filters elements by whether a nested pipeline yields any
// result (or none, when negate is set). The child must still be attached
// with AttachChild once the step is appended.
func HasTraversal(negate bool) *Step {
	s := NewStep(KindHasTraversal)
	s.Negate = negate
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// Count reduces the stream to its element count. A barrier.
func Count() *Step {
	s := NewStep(KindCount)
	s.requirements = s.requirements.Add(ReqObject).Add(ReqBulk)
	return s
}

// Is filters by applying a predicate to the element itself.
func Is(pred traversal.Predicate) *Step {
	s := NewStep(KindIs)
	p := pred
	s.Predicate = &p
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// Range keeps elements with positions in [low, high); Unbounded leaves the
// high end open.
func Range(low, high int64) *Step {
	s := NewStep(KindRange)
	s.Low = low
	s.High = high
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// Identity passes every element through unchanged.
func Identity() *Step {
	s := NewStep(KindIdentity)
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// Filter is a generic pure filter with an optional selectivity hint.
func Filter(selectivityHint float64) *Step {
	s := NewStep(KindFilter)
	s.SelectHint = selectivityHint
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// GroupCount counts elements per group into the side-effect store.
func GroupCount() *Step {
	s := NewStep(KindGroupCount)
	s.SideEffects = true
	s.requirements = s.requirements.Add(ReqObject).Add(ReqBulk).Add(ReqSideEffects)
	return s
}

// Fold collects the stream into a single list. A barrier.
func Fold() *Step {
	s := NewStep(KindFold)
	s.requirements = s.requirements.Add(ReqObject).Add(ReqBulk)
	return s
}

// Order sorts the stream. A barrier.
func Order() *Step {
	s := NewStep(KindOrder)
	s.requirements = s.requirements.Add(ReqObject).Add(ReqBulk)
	return s
}

// Profile marks the pipeline for timing instrumentation; ProfileInjection
// expands it into per-step probes.
func Profile() *Step {
	s := NewStep(KindProfile)
	s.requirements = s.requirements.Add(ReqObject)
	return s
}

// ProfileProbe is the internal instrumentation step inserted before each
// profiled step.
func ProfileProbe() *Step {
	s := NewStep(KindProfileProbe)
	s.requirements = s.requirements.Add(ReqObject).Add(ReqBulk)
	return s
}

// SideEffect runs an executor-visible effect for each element.
func SideEffect() *Step {
	s := NewStep(KindSideEffect)
	s.SideEffects = true
	s.requirements = s.requirements.Add(ReqObject).Add(ReqSideEffects)
	return s
}
