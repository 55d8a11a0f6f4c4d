package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-traversal/traversal"
	"github.com/wbrown/janus-traversal/traversal/pipeline"
)

func kinds(p *pipeline.Pipeline) []pipeline.Kind {
	var out []pipeline.Kind
	for _, s := range p.Steps() {
		out = append(out, s.Kind())
	}
	return out
}

func TestIdentityRemoval(t *testing.T) {
	t.Run("unlabeled identities go", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.Out())
		p.MustAppend(pipeline.Identity())
		p.MustAppend(pipeline.Identity())
		p.MustAppend(pipeline.Count())
		require.NoError(t, IdentityRemoval{}.ApplyTo(p, nil))
		assert.Equal(t, []pipeline.Kind{pipeline.KindOut, pipeline.KindCount}, kinds(p))
	})

	t.Run("labeled identity stays", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.Out())
		ident := p.MustAppend(pipeline.Identity())
		require.NoError(t, p.Label(ident, "a"))
		require.NoError(t, IdentityRemoval{}.ApplyTo(p, nil))
		assert.Equal(t, []pipeline.Kind{pipeline.KindOut, pipeline.KindIdentity}, kinds(p))
	})

	t.Run("sole identity stays", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.Identity())
		require.NoError(t, IdentityRemoval{}.ApplyTo(p, nil))
		assert.Equal(t, []pipeline.Kind{pipeline.KindIdentity}, kinds(p))
	})
}

func TestRangeMerge(t *testing.T) {
	tests := []struct {
		name                      string
		a, b, c, d                int64
		expectedLow, expectedHigh int64
	}{
		{"bounded pair", 2, 10, 1, 3, 3, 5},
		{"first unbounded", 2, pipeline.Unbounded, 1, 3, 3, 5},
		{"second unbounded", 2, 10, 1, pipeline.Unbounded, 3, 10},
		{"both unbounded", 2, pipeline.Unbounded, 1, pipeline.Unbounded, 3, pipeline.Unbounded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pipeline.New()
			p.MustAppend(pipeline.Out())
			p.MustAppend(pipeline.Range(tt.a, tt.b))
			p.MustAppend(pipeline.Range(tt.c, tt.d))
			require.NoError(t, RangeMerge{}.ApplyTo(p, nil))

			ranges := pipeline.StepsOfKind(p, pipeline.KindRange)
			require.Len(t, ranges, 1)
			assert.Equal(t, tt.expectedLow, ranges[0].Low)
			assert.Equal(t, tt.expectedHigh, ranges[0].High)
		})
	}

	t.Run("three in a row collapse to one", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.Range(0, 10))
		p.MustAppend(pipeline.Range(0, 8))
		p.MustAppend(pipeline.Range(0, 5))
		require.NoError(t, RangeMerge{}.ApplyTo(p, nil))
		ranges := pipeline.StepsOfKind(p, pipeline.KindRange)
		require.Len(t, ranges, 1)
		assert.Equal(t, int64(5), ranges[0].High)
	})

	t.Run("non-adjacent ranges untouched", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.Range(0, 10))
		p.MustAppend(pipeline.Out())
		p.MustAppend(pipeline.Range(0, 5))
		require.NoError(t, RangeMerge{}.ApplyTo(p, nil))
		assert.Len(t, pipeline.StepsOfKind(p, pipeline.KindRange), 2)
	})
}

func TestFilterReordering(t *testing.T) {
	t.Run("sorts by selectivity ascending", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.Out())
		loose := p.MustAppend(pipeline.Filter(0.9))
		tight := p.MustAppend(pipeline.Filter(0.1))
		mid := p.MustAppend(pipeline.Filter(0.5))
		require.NoError(t, FilterReordering{}.ApplyTo(p, nil))

		steps := p.Steps()
		assert.Same(t, tight, steps[1])
		assert.Same(t, mid, steps[2])
		assert.Same(t, loose, steps[3])
	})

	t.Run("stable on ties", func(t *testing.T) {
		p := pipeline.New()
		first := p.MustAppend(pipeline.Filter(0.5))
		second := p.MustAppend(pipeline.Filter(0.5))
		require.NoError(t, FilterReordering{}.ApplyTo(p, nil))
		steps := p.Steps()
		assert.Same(t, first, steps[0])
		assert.Same(t, second, steps[1])
	})

	t.Run("labels and ranges pin the run", func(t *testing.T) {
		p := pipeline.New()
		loose := p.MustAppend(pipeline.Filter(0.9))
		pinned := p.MustAppend(pipeline.Filter(0.8))
		require.NoError(t, p.Label(pinned, "keep"))
		p.MustAppend(pipeline.Range(0, 10))
		tight := p.MustAppend(pipeline.Filter(0.1))
		require.NoError(t, FilterReordering{}.ApplyTo(p, nil))

		// Nothing may cross the labeled step or the range.
		steps := p.Steps()
		assert.Same(t, loose, steps[0])
		assert.Same(t, pinned, steps[1])
		assert.Equal(t, pipeline.KindRange, steps[2].Kind())
		assert.Same(t, tight, steps[3])
	})

	t.Run("predicate selectivity orders has before neq", func(t *testing.T) {
		p := pipeline.New()
		neq := p.MustAppend(pipeline.Has("age", traversal.Neq(traversal.Int(30))))
		eq := p.MustAppend(pipeline.Has("name", traversal.Eq(traversal.String("marko"))))
		require.NoError(t, FilterReordering{}.ApplyTo(p, nil))
		steps := p.Steps()
		assert.Same(t, eq, steps[0])
		assert.Same(t, neq, steps[1])
	})
}

func TestProfileInjection(t *testing.T) {
	t.Run("no profile step, no probes", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.Out())
		p.MustAppend(pipeline.Count())
		require.NoError(t, ProfileInjection{}.ApplyTo(p, nil))
		assert.Empty(t, pipeline.StepsOfKind(p, pipeline.KindProfileProbe))
	})

	t.Run("probes precede every step", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.Out())
		p.MustAppend(pipeline.Count())
		p.MustAppend(pipeline.Profile())
		require.NoError(t, ProfileInjection{}.ApplyTo(p, nil))

		assert.Equal(t, []pipeline.Kind{
			pipeline.KindProfileProbe, pipeline.KindOut,
			pipeline.KindProfileProbe, pipeline.KindCount,
			pipeline.KindProfile,
		}, kinds(p))

		// Probes carry the one requirement injection may add.
		for _, probe := range pipeline.StepsOfKind(p, pipeline.KindProfileProbe) {
			assert.True(t, probe.Requirements().Contains(pipeline.ReqBulk))
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.Out())
		p.MustAppend(pipeline.Profile())
		require.NoError(t, ProfileInjection{}.ApplyTo(p, nil))
		first := p.String()
		require.NoError(t, ProfileInjection{}.ApplyTo(p, nil))
		assert.Equal(t, first, p.String())
	})
}

func TestVerticesByIdFolding(t *testing.T) {
	t.Run("eq folds a single id", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.VertexSource())
		p.MustAppend(pipeline.Has("id", traversal.Eq(traversal.Ref(traversal.NewElementID("v1")))))
		p.MustAppend(pipeline.Out())
		require.NoError(t, VerticesByIdFolding{}.ApplyTo(p, nil))

		assert.Equal(t, []pipeline.Kind{pipeline.KindVertexSource, pipeline.KindOut}, kinds(p))
		source := p.StepAt(0)
		require.Len(t, source.IDs, 1)
		assert.Equal(t, traversal.NewElementID("v1"), source.IDs[0])
	})

	t.Run("within folds the whole set", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.VertexSource())
		p.MustAppend(pipeline.Has("id", traversal.Within(
			traversal.Ref(traversal.NewElementID("v1")),
			traversal.Ref(traversal.NewElementID("v2")),
		)))
		require.NoError(t, VerticesByIdFolding{}.ApplyTo(p, nil))
		assert.Len(t, p.StepAt(0).IDs, 2)
	})

	t.Run("other keys and predicates stay", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.VertexSource())
		p.MustAppend(pipeline.Has("name", traversal.Eq(traversal.String("marko"))))
		require.NoError(t, VerticesByIdFolding{}.ApplyTo(p, nil))
		assert.Len(t, p.Steps(), 2)

		p2 := pipeline.New()
		p2.MustAppend(pipeline.VertexSource())
		p2.MustAppend(pipeline.Has("id", traversal.Gt(traversal.Int(5))))
		require.NoError(t, VerticesByIdFolding{}.ApplyTo(p2, nil))
		assert.Len(t, p2.Steps(), 2)
	})

	t.Run("source with ids already is left alone", func(t *testing.T) {
		p := pipeline.New()
		p.MustAppend(pipeline.VertexSource(traversal.Ref(traversal.NewElementID("v9"))))
		p.MustAppend(pipeline.Has("id", traversal.Eq(traversal.Ref(traversal.NewElementID("v1")))))
		require.NoError(t, VerticesByIdFolding{}.ApplyTo(p, nil))
		assert.Len(t, p.Steps(), 2)
	})
}
