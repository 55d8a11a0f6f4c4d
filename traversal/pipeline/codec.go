package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wbrown/janus-traversal/traversal"
)

// Serialized form for cross-process engines. Each step is a tagged record
// {id, kind, args, labels, children}; values are self-describing so the
// executor can decode them without the step catalog. Round-trips preserve
// identifiers, ordering, labels, and requirement sets exactly.

type pipelineRecord struct {
	Engine string       `json:"engine,omitempty"`
	Frozen bool         `json:"frozen,omitempty"`
	Steps  []stepRecord `json:"steps"`
}

type stepRecord struct {
	ID           string           `json:"id"`
	Kind         string           `json:"kind"`
	Labels       []string         `json:"labels,omitempty"`
	Requirements []string         `json:"requirements,omitempty"`
	Low          *int64           `json:"low,omitempty"`
	High         *int64           `json:"high,omitempty"`
	Predicate    *predicateRecord `json:"predicate,omitempty"`
	Container    *containerRecord `json:"container,omitempty"`
	EdgeLabels   []string         `json:"edgeLabels,omitempty"`
	IDs          []valueRecord    `json:"ids,omitempty"`
	Negate       bool             `json:"negate,omitempty"`
	SideEffects  bool             `json:"sideEffects,omitempty"`
	SelectHint   float64          `json:"selectHint,omitempty"`
	Children     []pipelineRecord `json:"children,omitempty"`
}

type containerRecord struct {
	Key       string          `json:"key"`
	Predicate predicateRecord `json:"predicate"`
}

type predicateRecord struct {
	Kind   string        `json:"kind"`
	Value  *valueRecord  `json:"value,omitempty"`
	Lo     *valueRecord  `json:"lo,omitempty"`
	Hi     *valueRecord  `json:"hi,omitempty"`
	Set    []valueRecord `json:"set,omitempty"`
	Opaque string        `json:"opaque,omitempty"`
}

// valueRecord is the self-describing value encoding. Exactly one payload
// field is meaningful, selected by Type.
type valueRecord struct {
	Type  string        `json:"type"`
	Str   string        `json:"str,omitempty"`
	Int   int64         `json:"int,omitempty"`
	Float float64       `json:"float,omitempty"`
	Bool  bool          `json:"bool,omitempty"`
	Ref   string        `json:"ref,omitempty"`
	List  []valueRecord `json:"list,omitempty"`
}

// Encode serializes a pipeline tree to its wire form.
func Encode(p *Pipeline) ([]byte, error) {
	rec, err := encodePipeline(p)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(rec, "", "  ")
}

// Decode reconstructs a pipeline tree from its wire form.
func Decode(data []byte) (*Pipeline, error) {
	var rec pipelineRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding pipeline: %w", err)
	}
	p := New()
	if err := decodeInto(p, rec); err != nil {
		return nil, err
	}
	// Advance the counter past every decoded ID so fresh IDs stay unique.
	var max int64
	Walk(p, func(s *Step, _ *Pipeline) {
		if n, err := strconv.ParseInt(strings.TrimPrefix(s.id, "s"), 10, 64); err == nil && n > max {
			max = n
		}
	})
	*p.counter = max
	if rec.Frozen {
		p.Freeze()
	}
	return p, nil
}

func encodePipeline(p *Pipeline) (pipelineRecord, error) {
	rec := pipelineRecord{Frozen: p.frozen}
	if p.hasEngine {
		rec.Engine = p.engine.String()
	}
	for _, s := range p.steps {
		sr, err := encodeStep(s)
		if err != nil {
			return pipelineRecord{}, err
		}
		rec.Steps = append(rec.Steps, sr)
	}
	return rec, nil
}

func encodeStep(s *Step) (stepRecord, error) {
	rec := stepRecord{
		ID:           s.id,
		Kind:         string(s.kind),
		Labels:       s.labels,
		Requirements: s.requirements.Names(),
		EdgeLabels:   s.EdgeLabels,
		Negate:       s.Negate,
		SideEffects:  s.SideEffects,
		SelectHint:   s.SelectHint,
	}
	if s.kind == KindRange {
		low, high := s.Low, s.High
		rec.Low, rec.High = &low, &high
	}
	if s.Predicate != nil {
		pr, err := encodePredicate(*s.Predicate)
		if err != nil {
			return stepRecord{}, err
		}
		rec.Predicate = &pr
	}
	if s.Container != nil {
		pr, err := encodePredicate(s.Container.Predicate)
		if err != nil {
			return stepRecord{}, err
		}
		rec.Container = &containerRecord{Key: s.Container.Key, Predicate: pr}
	}
	for _, id := range s.IDs {
		vr, err := encodeValue(id)
		if err != nil {
			return stepRecord{}, err
		}
		rec.IDs = append(rec.IDs, vr)
	}
	for _, child := range s.children {
		cr, err := encodePipeline(child)
		if err != nil {
			return stepRecord{}, err
		}
		rec.Children = append(rec.Children, cr)
	}
	return rec, nil
}

func encodePredicate(p traversal.Predicate) (predicateRecord, error) {
	rec := predicateRecord{Kind: string(p.Kind)}
	if p.Kind == traversal.PredOpaque {
		if p.Opaque != nil {
			rec.Opaque = p.Opaque.Name
		}
		return rec, nil
	}
	encode := func(v traversal.Value) (*valueRecord, error) {
		if v == nil {
			return nil, nil
		}
		vr, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		return &vr, nil
	}
	var err error
	if rec.Value, err = encode(p.Value); err != nil {
		return predicateRecord{}, err
	}
	if rec.Lo, err = encode(p.Lo); err != nil {
		return predicateRecord{}, err
	}
	if rec.Hi, err = encode(p.Hi); err != nil {
		return predicateRecord{}, err
	}
	for _, m := range p.Set {
		vr, err := encodeValue(m)
		if err != nil {
			return predicateRecord{}, err
		}
		rec.Set = append(rec.Set, vr)
	}
	return rec, nil
}

func encodeValue(v traversal.Value) (valueRecord, error) {
	switch val := v.(type) {
	case string:
		return valueRecord{Type: "string", Str: val}, nil
	case int:
		return valueRecord{Type: "int", Int: int64(val)}, nil
	case int64:
		return valueRecord{Type: "int", Int: val}, nil
	case float64:
		return valueRecord{Type: "float", Float: val}, nil
	case bool:
		return valueRecord{Type: "bool", Bool: val}, nil
	case traversal.ElementID:
		return valueRecord{Type: "ref", Ref: val.String()}, nil
	case []traversal.Value:
		rec := valueRecord{Type: "list"}
		for _, item := range val {
			ir, err := encodeValue(item)
			if err != nil {
				return valueRecord{}, err
			}
			rec.List = append(rec.List, ir)
		}
		return rec, nil
	}
	return valueRecord{}, fmt.Errorf("cannot encode value of type %T", v)
}

func decodeInto(p *Pipeline, rec pipelineRecord) error {
	if rec.Engine != "" {
		engine, ok := ParseEngine(rec.Engine)
		if !ok {
			return fmt.Errorf("unknown engine tag %q", rec.Engine)
		}
		if err := p.SetEngine(engine); err != nil {
			return err
		}
	}
	for _, sr := range rec.Steps {
		s, err := decodeStep(sr)
		if err != nil {
			return err
		}
		if _, err := p.Append(s); err != nil {
			return err
		}
		for _, cr := range sr.Children {
			child := New()
			if err := decodeInto(child, cr); err != nil {
				return err
			}
			child.parentStep = s
			s.children = append(s.children, child)
		}
	}
	return nil
}

func decodeStep(rec stepRecord) (*Step, error) {
	s := NewStep(Kind(rec.Kind))
	s.id = rec.ID
	s.labels = rec.Labels
	s.EdgeLabels = rec.EdgeLabels
	s.Negate = rec.Negate
	s.SideEffects = rec.SideEffects
	s.SelectHint = rec.SelectHint
	if rec.Low != nil {
		s.Low = *rec.Low
	}
	if rec.High != nil {
		s.High = *rec.High
	}
	for _, name := range rec.Requirements {
		req, ok := RequirementByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown requirement %q on step %s", name, rec.ID)
		}
		s.requirements = s.requirements.Add(req)
	}
	if rec.Predicate != nil {
		pred, err := decodePredicate(*rec.Predicate)
		if err != nil {
			return nil, err
		}
		s.Predicate = &pred
	}
	if rec.Container != nil {
		pred, err := decodePredicate(rec.Container.Predicate)
		if err != nil {
			return nil, err
		}
		s.Container = &HasContainer{Key: rec.Container.Key, Predicate: pred}
	}
	for _, vr := range rec.IDs {
		v, err := decodeValue(vr)
		if err != nil {
			return nil, err
		}
		s.IDs = append(s.IDs, v)
	}
	return s, nil
}

func decodePredicate(rec predicateRecord) (traversal.Predicate, error) {
	p := traversal.Predicate{Kind: traversal.PredicateKind(rec.Kind)}
	if p.Kind == traversal.PredOpaque {
		p.Opaque = &traversal.OpaqueHandle{Name: rec.Opaque}
		return p, nil
	}
	decode := func(vr *valueRecord) (traversal.Value, error) {
		if vr == nil {
			return nil, nil
		}
		return decodeValue(*vr)
	}
	var err error
	if p.Value, err = decode(rec.Value); err != nil {
		return traversal.Predicate{}, err
	}
	if p.Lo, err = decode(rec.Lo); err != nil {
		return traversal.Predicate{}, err
	}
	if p.Hi, err = decode(rec.Hi); err != nil {
		return traversal.Predicate{}, err
	}
	for _, vr := range rec.Set {
		v, err := decodeValue(vr)
		if err != nil {
			return traversal.Predicate{}, err
		}
		p.Set = append(p.Set, v)
	}
	return p, nil
}

func decodeValue(rec valueRecord) (traversal.Value, error) {
	switch rec.Type {
	case "string":
		return rec.Str, nil
	case "int":
		return rec.Int, nil
	case "float":
		return rec.Float, nil
	case "bool":
		return rec.Bool, nil
	case "ref":
		return traversal.NewElementID(rec.Ref), nil
	case "list":
		var list []traversal.Value
		for _, ir := range rec.List {
			v, err := decodeValue(ir)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	}
	return nil, fmt.Errorf("unknown value type %q", rec.Type)
}
