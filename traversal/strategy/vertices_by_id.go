package strategy

import (
	"github.com/wbrown/janus-traversal/traversal"
	"github.com/wbrown/janus-traversal/traversal/annotations"
	"github.com/wbrown/janus-traversal/traversal/pipeline"
)

// VerticesByIdFolding folds `vertex-source has(id, eq|within, ...)` into a
// direct id lookup on the source, letting the graph layer skip the full
// vertex scan.
type VerticesByIdFolding struct{}

func (VerticesByIdFolding) ID() string                  { return "VerticesByIdFolding" }
func (VerticesByIdFolding) Before() []string            { return []string{"FilterReordering"} }
func (VerticesByIdFolding) After() []string             { return nil }
func (VerticesByIdFolding) Engines() pipeline.EngineSet { return pipeline.EngineSetAll }

func (VerticesByIdFolding) ApplyTo(p *pipeline.Pipeline, _ *annotations.Collector) error {
	for _, source := range pipeline.StepsOfKind(p, pipeline.KindVertexSource) {
		if len(source.IDs) > 0 {
			// Already a direct lookup; folding another constraint in would
			// need set intersection the graph layer does cheaper itself.
			continue
		}
		next, ok := pipeline.Successor(p, source)
		if !ok || next.Kind() != pipeline.KindHas || next.Container == nil {
			continue
		}
		if next.Container.Key != "id" {
			continue
		}
		pred := next.Container.Predicate
		var ids []traversal.Value
		switch pred.Kind {
		case traversal.PredEQ:
			ids = []traversal.Value{pred.Value}
		case traversal.PredWithin:
			if len(pred.Set) == 0 {
				continue
			}
			ids = append(ids, pred.Set...)
		default:
			continue
		}
		source.IDs = ids
		if err := pipeline.Remove(p, next); err != nil {
			return err
		}
	}
	return nil
}
