package pipeline

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-traversal/traversal"
)

// Kind tags a step variant. The catalog is closed: rewrite rules switch on
// kinds and treat anything they do not name as opaque.
type Kind string

const (
	KindVertexSource Kind = "vertex-source"
	KindEdgeSource   Kind = "edge-source"
	KindOut          Kind = "out"
	KindIn           Kind = "in"
	KindBoth         Kind = "both"
	KindOutEdges     Kind = "out-edges"
	KindInEdges      Kind = "in-edges"
	KindHas          Kind = "has"
	KindHasTraversal Kind = "has-traversal"
	KindCount        Kind = "count"
	KindIs           Kind = "is"
	KindRange        Kind = "range"
	KindIdentity     Kind = "identity"
	KindFilter       Kind = "filter"
	KindGroupCount   Kind = "group-count"
	KindFold         Kind = "fold"
	KindOrder        Kind = "order"
	KindProfile      Kind = "profile"
	KindProfileProbe Kind = "profile-probe"
	KindSideEffect   Kind = "side-effect"
)

// IsBarrier reports whether the step materializes all upstream elements
// before emitting anything downstream.
func (k Kind) IsBarrier() bool {
	switch k {
	case KindCount, KindFold, KindOrder, KindGroupCount:
		return true
	}
	return false
}

// IsFilter reports whether the step only drops elements, never maps or
// emits new ones.
func (k Kind) IsFilter() bool {
	switch k {
	case KindHas, KindHasTraversal, KindIs, KindFilter, KindRange:
		return true
	}
	return false
}

// HasContainer is the (key, predicate) pair carried by has-family steps.
// The predicate owns its operand values.
type HasContainer struct {
	Key       string
	Predicate traversal.Predicate
}

func (h HasContainer) String() string {
	return fmt.Sprintf("has(%s, %s)", h.Key, h.Predicate)
}

// Unbounded marks the open end of a range step.
const Unbounded int64 = -1

// Step is one stage of a pipeline. The owning pipeline assigns its
// identifier and position; predecessor/successor are always derived from
// position, never stored.
type Step struct {
	id     string
	kind   Kind
	labels []string

	// Kind-specific payloads. Only the fields relevant to the kind are
	// meaningful; the codec serializes them as tagged args.
	Predicate   *traversal.Predicate // is
	Container   *HasContainer        // has
	Low, High   int64                // range; Unbounded marks an open end
	EdgeLabels  []string             // out/in/both/out-edges/in-edges
	IDs         []traversal.Value    // vertex-source/edge-source direct lookups
	Negate      bool                 // has-traversal
	SideEffects bool                 // side-effect steps and side-effecting filters
	SelectHint  float64              // filter selectivity hint, 0 means unset

	children     []*Pipeline
	requirements Requirements

	owner *Pipeline
}

// NewStep creates a detached step of the given kind. It belongs to no
// pipeline until appended; Append assigns its identifier.
func NewStep(kind Kind) *Step {
	return &Step{kind: kind}
}

// ID returns the step identifier, unique across the pipeline tree.
func (s *Step) ID() string { return s.id }

// Kind returns the step's tagged variant.
func (s *Step) Kind() Kind { return s.kind }

// Labels returns the user-given names bound to this step, in insertion
// order. The returned slice is a copy.
func (s *Step) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// HasLabels reports whether any label is bound to this step.
func (s *Step) HasLabels() bool { return len(s.labels) > 0 }

// Children returns the nested child pipelines, e.g. the predicate body of
// a has-traversal step.
func (s *Step) Children() []*Pipeline {
	out := make([]*Pipeline, len(s.children))
	copy(out, s.children)
	return out
}

// Requirements returns the step's own requirement set unioned with the
// requirements of every nested child pipeline.
func (s *Step) Requirements() Requirements {
	req := s.requirements
	for _, child := range s.children {
		req = req.Union(child.Requirements())
	}
	return req
}

// AddRequirement declares an executor capability this step depends on.
func (s *Step) AddRequirement(req Requirement) error {
	if s.owner != nil && s.owner.Frozen() {
		return ErrFrozen
	}
	s.requirements = s.requirements.Add(req)
	return nil
}

// HasSideEffects reports whether the step, or any nested pipeline of it,
// writes to the side-effect store.
func (s *Step) HasSideEffects() bool {
	if s.kind == KindSideEffect || s.SideEffects {
		return true
	}
	for _, child := range s.children {
		for _, cs := range child.steps {
			if cs.HasSideEffects() {
				return true
			}
		}
	}
	return false
}

// Selectivity returns the step's reordering hint: the explicit hint when
// set, the predicate's estimate otherwise.
func (s *Step) Selectivity() float64 {
	if s.SelectHint > 0 {
		return s.SelectHint
	}
	if s.Predicate != nil {
		return s.Predicate.Selectivity()
	}
	if s.Container != nil {
		return s.Container.Predicate.Selectivity()
	}
	return 0.5
}

func (s *Step) String() string {
	var sb strings.Builder
	sb.WriteString(string(s.kind))
	switch s.kind {
	case KindRange:
		sb.WriteString(fmt.Sprintf("(%d, %d)", s.Low, s.High))
	case KindIs:
		if s.Predicate != nil {
			sb.WriteString(fmt.Sprintf("(%s)", s.Predicate))
		}
	case KindHas:
		if s.Container != nil {
			sb.WriteString(fmt.Sprintf("(%s, %s)", s.Container.Key, s.Container.Predicate))
		}
	case KindOut, KindIn, KindBoth, KindOutEdges, KindInEdges:
		if len(s.EdgeLabels) > 0 {
			sb.WriteString(fmt.Sprintf("(%s)", strings.Join(s.EdgeLabels, ", ")))
		}
	case KindVertexSource, KindEdgeSource:
		if len(s.IDs) > 0 {
			parts := make([]string, len(s.IDs))
			for i, id := range s.IDs {
				parts[i] = fmt.Sprintf("%v", id)
			}
			sb.WriteString(fmt.Sprintf("(%s)", strings.Join(parts, ", ")))
		}
	}
	if len(s.labels) > 0 {
		sb.WriteString("@" + strings.Join(s.labels, ","))
	}
	return sb.String()
}
