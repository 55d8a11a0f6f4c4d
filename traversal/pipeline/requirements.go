package pipeline

import "strings"

// Requirement is a capability the executor must maintain for elements
// flowing through a step: path history, bulking, a side-effect store, etc.
type Requirement uint16

const (
	ReqObject Requirement = 1 << iota
	ReqBulk
	ReqSideEffects
	ReqPath
	ReqSack
	ReqLabeledPath
	ReqSingleLoop
	ReqNestedLoop
)

var requirementNames = []struct {
	req  Requirement
	name string
}{
	{ReqObject, "OBJECT"},
	{ReqBulk, "BULK"},
	{ReqSideEffects, "SIDE_EFFECTS"},
	{ReqPath, "PATH"},
	{ReqSack, "SACK"},
	{ReqLabeledPath, "LABELED_PATH"},
	{ReqSingleLoop, "SINGLE_LOOP"},
	{ReqNestedLoop, "NESTED_LOOP"},
}

// Requirements is a set of Requirement flags.
type Requirements uint16

// Add returns the set with req included.
func (r Requirements) Add(req Requirement) Requirements {
	return r | Requirements(req)
}

// Union merges two requirement sets.
func (r Requirements) Union(other Requirements) Requirements {
	return r | other
}

// Contains reports whether req is in the set.
func (r Requirements) Contains(req Requirement) bool {
	return r&Requirements(req) != 0
}

// SubsetOf reports whether every requirement in r is also in other.
func (r Requirements) SubsetOf(other Requirements) bool {
	return r&other == r
}

// Names returns the requirement names in declaration order.
func (r Requirements) Names() []string {
	var names []string
	for _, entry := range requirementNames {
		if r.Contains(entry.req) {
			names = append(names, entry.name)
		}
	}
	return names
}

func (r Requirements) String() string {
	names := r.Names()
	if len(names) == 0 {
		return "{}"
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// RequirementByName resolves a requirement name as produced by Names.
// Used by the codec to round-trip requirement sets.
func RequirementByName(name string) (Requirement, bool) {
	for _, entry := range requirementNames {
		if entry.name == name {
			return entry.req, true
		}
	}
	return 0, false
}
