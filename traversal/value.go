package traversal

// Value represents any value that can appear as a step argument or a
// predicate operand. We use interface{} with direct Go types rather than
// a wrapper struct, so values stay cheap to construct and to share.
type Value interface{}

// Valid value types:
// - string
// - int64
// - float64
// - bool
// - ElementID (reference to a vertex or edge in the graph layer)
// - []Value (finite list)

// Helper functions for creating typed values
func String(s string) Value  { return s }
func Int(i int64) Value      { return i }
func Float(f float64) Value  { return f }
func Bool(b bool) Value      { return b }
func Ref(id ElementID) Value { return id }
func List(vs ...Value) Value { return vs }
