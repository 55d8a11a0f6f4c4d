package annotations

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/janus-traversal/traversal/pipeline"
)

// PipelineRenderer formats pipelines as step tables for plan inspection.
type PipelineRenderer struct {
	// MaxWidth is the maximum width for the step column
	MaxWidth int
}

// NewPipelineRenderer creates a renderer with default settings
func NewPipelineRenderer() *PipelineRenderer {
	return &PipelineRenderer{MaxWidth: 60}
}

// Render formats a pipeline tree as markdown tables, one per pipeline,
// nested pipelines labeled by their owning step.
func (r *PipelineRenderer) Render(p *pipeline.Pipeline) string {
	var sb strings.Builder
	r.renderOne(&sb, p, "pipeline")
	return sb.String()
}

func (r *PipelineRenderer) renderOne(sb *strings.Builder, p *pipeline.Pipeline, title string) {
	sb.WriteString(fmt.Sprintf("**%s**", title))
	if engine, ok := p.Engine(); ok {
		sb.WriteString(fmt.Sprintf(" (%s", engine))
		if p.Frozen() {
			sb.WriteString(", frozen")
		}
		sb.WriteString(")")
	}
	sb.WriteString("\n\n")

	if p.Len() == 0 {
		sb.WriteString("_Empty pipeline_\n")
		return
	}

	alignment := make([]tw.Align, 5)
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	tableString := &strings.Builder{}
	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"#", "id", "step", "labels", "requirements"})

	var nested []*pipeline.Step
	for i, s := range p.Steps() {
		table.Append([]string{
			fmt.Sprintf("%d", i),
			s.ID(),
			r.truncate(s.String()),
			strings.Join(s.Labels(), ", "),
			s.Requirements().String(),
		})
		if len(s.Children()) > 0 {
			nested = append(nested, s)
		}
	}
	table.Render()
	sb.WriteString(tableString.String())

	for _, s := range nested {
		for i, child := range s.Children() {
			sb.WriteString("\n")
			r.renderOne(sb, child, fmt.Sprintf("child %d of step %s", i, s.ID()))
		}
	}
}

func (r *PipelineRenderer) truncate(s string) string {
	if r.MaxWidth <= 0 || len(s) <= r.MaxWidth {
		return s
	}
	return s[:r.MaxWidth-3] + "..."
}
