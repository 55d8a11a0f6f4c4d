package strategy

import (
	"github.com/wbrown/janus-traversal/traversal/annotations"
	"github.com/wbrown/janus-traversal/traversal/pipeline"
)

// IdentityRemoval drops identity steps that carry no label. A labeled
// identity anchors a name other steps may reference; the sole step of a
// pipeline stays so the pipeline still emits.
type IdentityRemoval struct{}

func (IdentityRemoval) ID() string                  { return "IdentityRemoval" }
func (IdentityRemoval) Before() []string            { return []string{"RangeByIsCount", "RangeMerge"} }
func (IdentityRemoval) After() []string             { return nil }
func (IdentityRemoval) Engines() pipeline.EngineSet { return pipeline.EngineSetAll }

func (IdentityRemoval) ApplyTo(p *pipeline.Pipeline, _ *annotations.Collector) error {
	for _, s := range pipeline.StepsOfKind(p, pipeline.KindIdentity) {
		if s.HasLabels() || p.Len() <= 1 {
			continue
		}
		if err := pipeline.Remove(p, s); err != nil {
			return err
		}
	}
	return nil
}
