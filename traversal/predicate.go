package traversal

import (
	"fmt"
	"strings"
)

// PredicateKind enumerates the closed set of predicates the optimizer
// understands. Anything else travels as an opaque handle.
type PredicateKind string

const (
	PredEQ      PredicateKind = "eq"
	PredNEQ     PredicateKind = "neq"
	PredLT      PredicateKind = "lt"
	PredLTE     PredicateKind = "lte"
	PredGT      PredicateKind = "gt"
	PredGTE     PredicateKind = "gte"
	PredInside  PredicateKind = "inside"
	PredOutside PredicateKind = "outside"
	PredWithin  PredicateKind = "within"
	PredWithout PredicateKind = "without"
	PredOpaque  PredicateKind = "opaque"
)

// Predicate is a tagged variant rather than an open interface: rewrite
// rules pattern-match on Kind, and an unknown kind can never appear.
// Predicates are immutable and may be shared across pipelines and threads.
type Predicate struct {
	Kind PredicateKind

	// Value is the single operand of eq/neq/lt/lte/gt/gte.
	Value Value
	// Lo and Hi are the bounds of inside/outside, strict on both sides.
	Lo, Hi Value
	// Set holds the finite membership set of within/without.
	Set []Value

	// Opaque identifies a user-supplied predicate. The optimizer only
	// compares opaque handles for identity; it never evaluates them.
	Opaque *OpaqueHandle
}

// OpaqueHandle carries a user predicate the optimizer cannot see into.
type OpaqueHandle struct {
	Name string
}

// Constructors

func Eq(v Value) Predicate  { return Predicate{Kind: PredEQ, Value: v} }
func Neq(v Value) Predicate { return Predicate{Kind: PredNEQ, Value: v} }
func Lt(v Value) Predicate  { return Predicate{Kind: PredLT, Value: v} }
func Lte(v Value) Predicate { return Predicate{Kind: PredLTE, Value: v} }
func Gt(v Value) Predicate  { return Predicate{Kind: PredGT, Value: v} }
func Gte(v Value) Predicate { return Predicate{Kind: PredGTE, Value: v} }

func Inside(lo, hi Value) Predicate  { return Predicate{Kind: PredInside, Lo: lo, Hi: hi} }
func Outside(lo, hi Value) Predicate { return Predicate{Kind: PredOutside, Lo: lo, Hi: hi} }

func Within(vs ...Value) Predicate {
	set := make([]Value, len(vs))
	copy(set, vs)
	return Predicate{Kind: PredWithin, Set: set}
}

func Without(vs ...Value) Predicate {
	set := make([]Value, len(vs))
	copy(set, vs)
	return Predicate{Kind: PredWithout, Set: set}
}

// Opaque wraps a user predicate the rewrite rules must treat as a black box.
func Opaque(name string) Predicate {
	return Predicate{Kind: PredOpaque, Opaque: &OpaqueHandle{Name: name}}
}

// IsOpaque reports whether this predicate is a user-supplied black box.
func (p Predicate) IsOpaque() bool {
	return p.Kind == PredOpaque
}

// Test evaluates the predicate against a value. Opaque predicates always
// fail here; they are only evaluated by the executor.
func (p Predicate) Test(v Value) bool {
	switch p.Kind {
	case PredEQ:
		return CompareValues(v, p.Value) == 0
	case PredNEQ:
		return CompareValues(v, p.Value) != 0
	case PredLT:
		return CompareValues(v, p.Value) < 0
	case PredLTE:
		return CompareValues(v, p.Value) <= 0
	case PredGT:
		return CompareValues(v, p.Value) > 0
	case PredGTE:
		return CompareValues(v, p.Value) >= 0
	case PredInside:
		return CompareValues(v, p.Lo) > 0 && CompareValues(v, p.Hi) < 0
	case PredOutside:
		return CompareValues(v, p.Lo) < 0 || CompareValues(v, p.Hi) > 0
	case PredWithin:
		for _, m := range p.Set {
			if CompareValues(v, m) == 0 {
				return true
			}
		}
		return false
	case PredWithout:
		for _, m := range p.Set {
			if CompareValues(v, m) == 0 {
				return false
			}
		}
		return true
	}
	return false
}

// Selectivity estimates the fraction of values that pass, 0.0 to 1.0.
// These are the usual planner heuristics; rules only use them to order
// filters relative to each other.
func (p Predicate) Selectivity() float64 {
	switch p.Kind {
	case PredEQ, PredWithin:
		return 0.1
	case PredLT, PredGT:
		return 0.3
	case PredLTE, PredGTE:
		return 0.33
	case PredInside:
		return 0.25
	case PredOutside, PredNEQ, PredWithout:
		return 0.9
	}
	return 0.5
}

func (p Predicate) String() string {
	switch p.Kind {
	case PredInside, PredOutside:
		return fmt.Sprintf("%s(%v, %v)", p.Kind, p.Lo, p.Hi)
	case PredWithin, PredWithout:
		parts := make([]string, len(p.Set))
		for i, m := range p.Set {
			parts[i] = fmt.Sprintf("%v", m)
		}
		return fmt.Sprintf("%s(%s)", p.Kind, strings.Join(parts, ", "))
	case PredOpaque:
		if p.Opaque != nil {
			return fmt.Sprintf("opaque(%s)", p.Opaque.Name)
		}
		return "opaque"
	}
	return fmt.Sprintf("%s(%v)", p.Kind, p.Value)
}

// Equal reports structural equality; opaque predicates compare by handle
// identity only.
func (p Predicate) Equal(other Predicate) bool {
	if p.Kind != other.Kind {
		return false
	}
	if p.Kind == PredOpaque {
		return p.Opaque == other.Opaque
	}
	if !ValuesEqual(p.Value, other.Value) {
		return false
	}
	if !ValuesEqual(p.Lo, other.Lo) || !ValuesEqual(p.Hi, other.Hi) {
		return false
	}
	if len(p.Set) != len(other.Set) {
		return false
	}
	for i := range p.Set {
		if !ValuesEqual(p.Set[i], other.Set[i]) {
			return false
		}
	}
	return true
}
