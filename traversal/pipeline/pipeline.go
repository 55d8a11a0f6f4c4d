package pipeline

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Pipeline is an ordered, mutable sequence of steps. It exclusively owns
// its steps; nested child pipelines are owned by their parent step. The
// whole tree shares one identifier counter so step IDs stay unique across
// nesting.
//
// A pipeline starts mutable, is rewritten in place by strategies, and is
// then frozen. After freezing, every mutation fails with ErrFrozen.
type Pipeline struct {
	instanceID uuid.UUID
	steps      []*Step

	engine    Engine
	hasEngine bool
	frozen    bool

	parentStep *Step
	counter    *int64
}

// New creates an empty, mutable root pipeline.
func New() *Pipeline {
	var counter int64
	return &Pipeline{
		instanceID: uuid.New(),
		counter:    &counter,
	}
}

// InstanceID identifies this pipeline in tracing events. Child pipelines
// have their own instance IDs.
func (p *Pipeline) InstanceID() uuid.UUID { return p.instanceID }

// Frozen reports whether strategies have been applied and the pipeline
// locked against further edits.
func (p *Pipeline) Frozen() bool { return p.frozen }

// Freeze locks the pipeline tree. Idempotent.
func (p *Pipeline) Freeze() {
	p.frozen = true
	for _, s := range p.steps {
		for _, child := range s.children {
			child.Freeze()
		}
	}
}

// SetEngine tags the pipeline with its execution backend. Child pipelines
// inherit the tag through Root at apply time; only the root carries it.
func (p *Pipeline) SetEngine(e Engine) error {
	if p.frozen {
		return ErrFrozen
	}
	p.engine = e
	p.hasEngine = true
	return nil
}

// Engine returns the engine tag and whether one has been set.
func (p *Pipeline) Engine() (Engine, bool) {
	root := p.Root()
	return root.engine, root.hasEngine
}

// Root walks up through owning steps to the top-level pipeline.
func (p *Pipeline) Root() *Pipeline {
	cur := p
	for cur.parentStep != nil && cur.parentStep.owner != nil {
		cur = cur.parentStep.owner
	}
	return cur
}

// ParentStep returns the has-traversal (or other nesting) step that owns
// this pipeline, or nil at the root.
func (p *Pipeline) ParentStep() *Step { return p.parentStep }

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// StepAt returns the step at position i.
func (p *Pipeline) StepAt(i int) *Step { return p.steps[i] }

// Steps returns the steps in order. The slice is a copy; the steps are not.
func (p *Pipeline) Steps() []*Step {
	out := make([]*Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Append adds a detached step to the end of the pipeline and assigns it a
// fresh identifier.
func (p *Pipeline) Append(s *Step) (*Step, error) {
	if p.frozen {
		return nil, ErrFrozen
	}
	if s.owner != nil {
		return nil, invariantf(s.id, "step already belongs to a pipeline")
	}
	p.adoptStep(s)
	p.steps = append(p.steps, s)
	return s, nil
}

// MustAppend is Append for construction paths that cannot fail; it panics
// on a frozen or foreign-owned step.
func (p *Pipeline) MustAppend(s *Step) *Step {
	step, err := p.Append(s)
	if err != nil {
		panic(err)
	}
	return step
}

// AttachChild nests a pipeline under a step. The child's steps are
// re-identified from the root counter so IDs remain unique tree-wide.
func (p *Pipeline) AttachChild(parent *Step, child *Pipeline) error {
	if p.frozen {
		return ErrFrozen
	}
	if parent.owner != p {
		return invariantf(parent.id, "parent step not owned by this pipeline")
	}
	if child.parentStep != nil {
		return invariantf("", "child pipeline already attached")
	}
	existing := make(map[string]bool)
	Walk(p.Root(), func(s *Step, _ *Pipeline) {
		for _, l := range s.labels {
			existing[l] = true
		}
	})
	var clash string
	Walk(child, func(s *Step, _ *Pipeline) {
		for _, l := range s.labels {
			if existing[l] {
				clash = l
			}
		}
	})
	if clash != "" {
		return invariantf(parent.id, "label %q already bound in the target tree", clash)
	}
	child.parentStep = parent
	child.reidentify(p.Root().counter)
	parent.children = append(parent.children, child)
	return nil
}

// Label binds a user-given name to a step. Labels are unique across the
// whole pipeline tree.
func (p *Pipeline) Label(s *Step, name string) error {
	if p.frozen {
		return ErrFrozen
	}
	if s.owner != p {
		return invariantf(s.id, "step not owned by this pipeline")
	}
	if name == "" {
		return invariantf(s.id, "empty label")
	}
	root := p.Root()
	var clash bool
	Walk(root, func(step *Step, _ *Pipeline) {
		for _, l := range step.labels {
			if l == name {
				clash = true
			}
		}
	})
	if clash {
		return invariantf(s.id, "label %q already bound", name)
	}
	s.labels = append(s.labels, name)
	return nil
}

// Requirements returns the union of requirement sets over all steps and
// their nested child pipelines.
func (p *Pipeline) Requirements() Requirements {
	var req Requirements
	for _, s := range p.steps {
		req = req.Union(s.Requirements())
	}
	return req
}

// Validate checks the structural invariants and returns every violation
// found, aggregated. A nil result means the tree is sound.
func (p *Pipeline) Validate() error {
	var result *multierror.Error

	seenIDs := make(map[string]string)
	seenLabels := make(map[string]string)
	Walk(p, func(s *Step, owner *Pipeline) {
		if s.id == "" {
			result = multierror.Append(result, invariantf("", "step of kind %s has no identifier", s.kind))
		}
		if prev, dup := seenIDs[s.id]; dup {
			result = multierror.Append(result, invariantf(s.id, "identifier also used by step of kind %s", prev))
		} else {
			seenIDs[s.id] = string(s.kind)
		}
		for _, l := range s.labels {
			if prev, dup := seenLabels[l]; dup {
				result = multierror.Append(result, invariantf(s.id, "label %q also bound to step %s", l, prev))
			} else {
				seenLabels[l] = s.id
			}
		}
		if s.owner != owner {
			result = multierror.Append(result, invariantf(s.id, "step owner does not match containing pipeline"))
		}
	})

	// Positions: owner slice membership is positional by construction, but
	// a step must appear exactly once in its owner.
	Walk(p, func(s *Step, owner *Pipeline) {
		count := 0
		for _, other := range owner.steps {
			if other == s {
				count++
			}
		}
		if count != 1 {
			result = multierror.Append(result, invariantf(s.id, "step appears %d times in its pipeline", count))
		}
	})

	// Child pipeline requirements must be covered by the parent step.
	Walk(p, func(s *Step, _ *Pipeline) {
		for _, child := range s.children {
			if !child.Requirements().SubsetOf(s.Requirements()) {
				result = multierror.Append(result, invariantf(s.id, "child pipeline requirements exceed parent step"))
			}
		}
	})

	return result.ErrorOrNil()
}

// String renders the pipeline tree, one step per line, children indented.
func (p *Pipeline) String() string {
	var sb strings.Builder
	p.render(&sb, 0)
	return sb.String()
}

func (p *Pipeline) render(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, s := range p.steps {
		sb.WriteString(fmt.Sprintf("%s%d: [%s] %s\n", indent, i, s.id, s))
		for _, child := range s.children {
			child.render(sb, depth+1)
		}
	}
}

// adoptStep assigns ownership and a fresh identifier.
func (p *Pipeline) adoptStep(s *Step) {
	s.owner = p
	if s.id == "" {
		s.id = p.nextID()
	}
}

func (p *Pipeline) nextID() string {
	c := p.Root().counter
	*c++
	return fmt.Sprintf("s%d", *c)
}

// reidentify renumbers an adopted subtree from the root counter and shares
// the counter so later inserts stay unique.
func (p *Pipeline) reidentify(counter *int64) {
	p.counter = counter
	for _, s := range p.steps {
		*counter++
		s.id = fmt.Sprintf("s%d", *counter)
		for _, child := range s.children {
			child.reidentify(counter)
		}
	}
}

// Walk visits every step in the tree in pre-order, including nested child
// pipelines. The visitor receives each step with its owning pipeline.
func Walk(p *Pipeline, visit func(s *Step, owner *Pipeline)) {
	for _, s := range p.steps {
		visit(s, p)
		for _, child := range s.children {
			Walk(child, visit)
		}
	}
}
