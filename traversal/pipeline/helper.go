package pipeline

// Structural queries and edits over pipelines, used by every rewrite rule.
// Queries are pure functions of the current pipeline; edits mutate in place
// and either preserve the invariants or fail with *InvariantError.

// PositionOf returns the zero-based index of s in p, or false if s is not
// a member.
func PositionOf(p *Pipeline, s *Step) (int, bool) {
	for i, other := range p.steps {
		if other == s {
			return i, true
		}
	}
	return 0, false
}

// StepsOfKind returns all steps of kind k in order, without recursing into
// child pipelines.
func StepsOfKind(p *Pipeline, k Kind) []*Step {
	var out []*Step
	for _, s := range p.steps {
		if s.kind == k {
			out = append(out, s)
		}
	}
	return out
}

// StepsOfKindDeep returns all steps of kind k across the whole tree in
// pre-order.
func StepsOfKindDeep(p *Pipeline, k Kind) []*Step {
	var out []*Step
	Walk(p, func(s *Step, _ *Pipeline) {
		if s.kind == k {
			out = append(out, s)
		}
	})
	return out
}

// Predecessor returns the step immediately before s in its pipeline, or
// false at the left boundary.
func Predecessor(p *Pipeline, s *Step) (*Step, bool) {
	i, ok := PositionOf(p, s)
	if !ok || i == 0 {
		return nil, false
	}
	return p.steps[i-1], true
}

// Successor returns the step immediately after s in its pipeline, or false
// at the right boundary.
func Successor(p *Pipeline, s *Step) (*Step, bool) {
	i, ok := PositionOf(p, s)
	if !ok || i == len(p.steps)-1 {
		return nil, false
	}
	return p.steps[i+1], true
}

// InsertBefore places a detached step immediately before existing.
func InsertBefore(p *Pipeline, insert, existing *Step) error {
	i, err := insertionPoint(p, insert, existing)
	if err != nil {
		return err
	}
	p.insertAt(i, insert)
	return nil
}

// InsertAfter places a detached step immediately after existing.
func InsertAfter(p *Pipeline, insert, existing *Step) error {
	i, err := insertionPoint(p, insert, existing)
	if err != nil {
		return err
	}
	p.insertAt(i+1, insert)
	return nil
}

func insertionPoint(p *Pipeline, insert, existing *Step) (int, error) {
	if p.frozen {
		return 0, ErrFrozen
	}
	if insert.owner != nil {
		return 0, invariantf(insert.id, "step already belongs to a pipeline")
	}
	i, ok := PositionOf(p, existing)
	if !ok {
		return 0, invariantf(existing.id, "anchor step not in pipeline")
	}
	return i, nil
}

// Replace swaps old for a detached replacement in place. Labels move to
// the replacement; the old step's children move with it out of the tree.
func Replace(p *Pipeline, old, replacement *Step) error {
	if p.frozen {
		return ErrFrozen
	}
	if replacement.owner != nil {
		return invariantf(replacement.id, "step already belongs to a pipeline")
	}
	i, ok := PositionOf(p, old)
	if !ok {
		return invariantf(old.id, "step not in pipeline")
	}
	p.adoptStep(replacement)
	replacement.labels = append(replacement.labels, old.labels...)
	old.labels = nil
	old.owner = nil
	p.steps[i] = replacement
	return nil
}

// Remove deletes s from its pipeline. Labels are rewired to the
// predecessor, or to the successor at the left boundary; a labeled sole
// step cannot be removed.
func Remove(p *Pipeline, s *Step) error {
	if p.frozen {
		return ErrFrozen
	}
	i, ok := PositionOf(p, s)
	if !ok {
		return invariantf(s.id, "step not in pipeline")
	}
	if len(s.labels) > 0 {
		switch {
		case i > 0:
			p.steps[i-1].labels = append(p.steps[i-1].labels, s.labels...)
		case len(p.steps) > 1:
			p.steps[i+1].labels = append(p.steps[i+1].labels, s.labels...)
		default:
			return invariantf(s.id, "cannot remove labeled sole step")
		}
		s.labels = nil
	}
	s.owner = nil
	p.steps = append(p.steps[:i], p.steps[i+1:]...)
	return nil
}

// Lift splices a child pipeline's steps into parent at the given position.
// The child is emptied and left detached from the tree.
func Lift(child, parent *Pipeline, at int) error {
	if parent.frozen || child.frozen {
		return ErrFrozen
	}
	if at < 0 || at > len(parent.steps) {
		return invariantf("", "lift position %d out of range", at)
	}
	moved := child.steps
	child.steps = nil
	if child.parentStep != nil {
		owner := child.parentStep
		kept := owner.children[:0]
		for _, c := range owner.children {
			if c != child {
				kept = append(kept, c)
			}
		}
		owner.children = kept
		child.parentStep = nil
	}
	for _, s := range moved {
		s.owner = parent
	}
	rest := append([]*Step{}, parent.steps[at:]...)
	parent.steps = append(parent.steps[:at], moved...)
	parent.steps = append(parent.steps, rest...)
	return nil
}

// ReorderRun rewrites the order of a contiguous run of steps starting at
// position start. The replacement must be a permutation of the steps
// currently occupying [start, start+len(run)).
func ReorderRun(p *Pipeline, start int, run []*Step) error {
	if p.frozen {
		return ErrFrozen
	}
	if start < 0 || start+len(run) > len(p.steps) {
		return invariantf("", "reorder run [%d, %d) out of range", start, start+len(run))
	}
	current := make(map[*Step]bool, len(run))
	for _, s := range p.steps[start : start+len(run)] {
		current[s] = true
	}
	for _, s := range run {
		if !current[s] {
			return invariantf(s.id, "step not part of the reordered run")
		}
		delete(current, s)
	}
	copy(p.steps[start:], run)
	return nil
}

func (p *Pipeline) insertAt(i int, s *Step) {
	p.adoptStep(s)
	p.steps = append(p.steps, nil)
	copy(p.steps[i+1:], p.steps[i:])
	p.steps[i] = s
}
