package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-traversal/traversal"
)

func TestPipeline_AppendAssignsUniqueIDs(t *testing.T) {
	p := New()
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		s := p.MustAppend(Out())
		require.NotEmpty(t, s.ID())
		require.False(t, seen[s.ID()], "duplicate id %s", s.ID())
		seen[s.ID()] = true
	}
	assert.Equal(t, 5, p.Len())
}

func TestPipeline_AppendRejectsOwnedStep(t *testing.T) {
	p := New()
	s := p.MustAppend(Out())

	other := New()
	_, err := other.Append(s)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
}

func TestPipeline_AttachChildKeepsIDsUniqueTreeWide(t *testing.T) {
	p := New()
	p.MustAppend(Out())
	has := p.MustAppend(HasTraversal(false))

	child := New()
	child.MustAppend(OutEdges("created"))
	child.MustAppend(Count())
	require.NoError(t, p.AttachChild(has, child))

	seen := make(map[string]bool)
	Walk(p, func(s *Step, _ *Pipeline) {
		assert.False(t, seen[s.ID()], "duplicate id %s across tree", s.ID())
		seen[s.ID()] = true
	})
	assert.Len(t, seen, 4)

	// Fresh ids after attachment must not collide either.
	fresh := child.MustAppend(Is(traversal.Eq(traversal.Int(0))))
	assert.False(t, seen[fresh.ID()])
}

func TestPipeline_LabelsUniqueAcrossTree(t *testing.T) {
	p := New()
	out := p.MustAppend(Out())
	require.NoError(t, p.Label(out, "a"))

	has := p.MustAppend(HasTraversal(false))
	child := New()
	inner := child.MustAppend(OutEdges())
	require.NoError(t, p.AttachChild(has, child))

	err := child.Label(inner, "a")
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)

	require.NoError(t, child.Label(inner, "b"))
}

func TestPipeline_FreezeBlocksMutation(t *testing.T) {
	p := New()
	out := p.MustAppend(Out())
	has := p.MustAppend(HasTraversal(false))
	child := New()
	child.MustAppend(Count())
	require.NoError(t, p.AttachChild(has, child))

	p.Freeze()
	assert.True(t, p.Frozen())
	assert.True(t, child.Frozen(), "freeze reaches nested pipelines")

	_, err := p.Append(Out())
	assert.ErrorIs(t, err, ErrFrozen)
	assert.ErrorIs(t, p.Label(out, "late"), ErrFrozen)
	assert.ErrorIs(t, p.SetEngine(EngineStandard), ErrFrozen)
	assert.ErrorIs(t, InsertBefore(p, Out(), out), ErrFrozen)
	assert.ErrorIs(t, Remove(p, out), ErrFrozen)
	_, err = child.Append(Out())
	assert.ErrorIs(t, err, ErrFrozen)
	assert.ErrorIs(t, out.AddRequirement(ReqPath), ErrFrozen)
}

func TestPipeline_RequirementsAggregateOverTree(t *testing.T) {
	p := New()
	p.MustAppend(Out())
	has := p.MustAppend(HasTraversal(false))
	child := New()
	child.MustAppend(GroupCount())
	require.NoError(t, p.AttachChild(has, child))

	req := p.Requirements()
	assert.True(t, req.Contains(ReqObject))
	assert.True(t, req.Contains(ReqBulk))
	assert.True(t, req.Contains(ReqSideEffects))
}

func TestPipeline_EngineReadFromRoot(t *testing.T) {
	p := New()
	has := p.MustAppend(HasTraversal(false))
	child := New()
	child.MustAppend(Count())
	require.NoError(t, p.AttachChild(has, child))

	_, ok := child.Engine()
	assert.False(t, ok)

	require.NoError(t, p.SetEngine(EngineComputer))
	engine, ok := child.Engine()
	require.True(t, ok)
	assert.Equal(t, EngineComputer, engine)
}

func TestPipeline_Validate(t *testing.T) {
	t.Run("sound tree", func(t *testing.T) {
		p := New()
		p.MustAppend(Out())
		p.MustAppend(Count())
		assert.NoError(t, p.Validate())
	})

	t.Run("duplicate ids reported", func(t *testing.T) {
		p := New()
		a := p.MustAppend(Out())
		b := p.MustAppend(Out())
		b.id = a.id
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "identifier")
	})

	t.Run("duplicate labels reported", func(t *testing.T) {
		p := New()
		a := p.MustAppend(Out())
		b := p.MustAppend(Out())
		a.labels = append(a.labels, "x")
		b.labels = append(b.labels, "x")
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "label")
	})

	t.Run("multiple violations aggregate", func(t *testing.T) {
		p := New()
		a := p.MustAppend(Out())
		b := p.MustAppend(Out())
		b.id = a.id
		a.labels = append(a.labels, "x")
		b.labels = append(b.labels, "x")
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "identifier")
		assert.Contains(t, err.Error(), "label")
	})
}

func TestRequirements_SetOperations(t *testing.T) {
	var r Requirements
	r = r.Add(ReqObject).Add(ReqBulk)
	assert.True(t, r.Contains(ReqObject))
	assert.False(t, r.Contains(ReqPath))
	assert.True(t, r.SubsetOf(r.Add(ReqPath)))
	assert.False(t, r.Add(ReqSack).SubsetOf(r))
	assert.Equal(t, "{OBJECT, BULK}", r.String())
	assert.Equal(t, "{}", Requirements(0).String())

	req, ok := RequirementByName("SIDE_EFFECTS")
	require.True(t, ok)
	assert.Equal(t, ReqSideEffects, req)
	_, ok = RequirementByName("NOPE")
	assert.False(t, ok)
}

func TestEngine_ParseAndString(t *testing.T) {
	e, ok := ParseEngine("STANDARD")
	require.True(t, ok)
	assert.Equal(t, EngineStandard, e)
	e, ok = ParseEngine("COMPUTER")
	require.True(t, ok)
	assert.Equal(t, EngineComputer, e)
	_, ok = ParseEngine("standard")
	assert.False(t, ok)

	assert.True(t, EngineSetAll.Allows(EngineStandard))
	assert.True(t, EngineSetAll.Allows(EngineComputer))
	assert.False(t, EngineSetComputer.Allows(EngineStandard))
}

func TestStep_StringRendering(t *testing.T) {
	p := New()
	r := p.MustAppend(Range(0, 5))
	assert.Equal(t, "range(0, 5)", r.String())

	is := p.MustAppend(Is(traversal.Eq(traversal.Int(0))))
	assert.Equal(t, "is(eq(0))", is.String())

	out := p.MustAppend(Out("knows", "created"))
	require.NoError(t, p.Label(out, "friends"))
	assert.Equal(t, "out(knows, created)@friends", out.String())
}
