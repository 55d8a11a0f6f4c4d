package strategy

import (
	"github.com/wbrown/janus-traversal/traversal/annotations"
	"github.com/wbrown/janus-traversal/traversal/pipeline"
)

// ProfileInjection expands a profile step into per-step instrumentation:
// when the pipeline tree contains a profile step anywhere, every other
// step gets a profile-probe inserted directly before it. Probes require
// BULK, the one requirement optimization is allowed to add.
type ProfileInjection struct{}

func (ProfileInjection) ID() string       { return "ProfileInjection" }
func (ProfileInjection) Before() []string { return nil }
func (ProfileInjection) After() []string {
	return []string{"FilterReordering", "IdentityRemoval", "RangeByIsCount", "RangeMerge", "VerticesByIdFolding"}
}
func (ProfileInjection) Engines() pipeline.EngineSet { return pipeline.EngineSetAll }

func (ProfileInjection) ApplyTo(p *pipeline.Pipeline, _ *annotations.Collector) error {
	if len(pipeline.StepsOfKindDeep(p.Root(), pipeline.KindProfile)) == 0 {
		return nil
	}
	for _, s := range p.Steps() {
		switch s.Kind() {
		case pipeline.KindProfile, pipeline.KindProfileProbe:
			continue
		}
		if prev, ok := pipeline.Predecessor(p, s); ok && prev.Kind() == pipeline.KindProfileProbe {
			continue
		}
		if err := pipeline.InsertBefore(p, pipeline.ProfileProbe(), s); err != nil {
			return err
		}
	}
	return nil
}
