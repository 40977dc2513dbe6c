package descriptor

import "sort"

// Field paths used in missing-field reports and resolved-field sets. The
// dotted form matches the portable document layout so a caller can map a
// report entry straight back to its input.
const (
	FieldJobName         = "job_name"
	FieldDescription     = "description"
	FieldSourceKind      = "source.kind"
	FieldSourceHost      = "source.connection.host"
	FieldSourcePort      = "source.connection.port"
	FieldSourceDatabase  = "source.connection.database"
	FieldSourceTable     = "source.table"
	FieldSourceUsername  = "source.credentials.username"
	FieldSourcePassword  = "source.credentials.password"
	FieldSourceIncrement = "source.increment_field"
	FieldSourceFrequency = "source.frequency"
	FieldSourceSchedule  = "source.schedule"
	FieldTransformations = "transformations"
	FieldSinkKind        = "sink.kind"
	FieldSinkCatalog     = "sink.catalog"
	FieldSinkDatabase    = "sink.database"
	FieldSinkTable       = "sink.table"
	FieldSinkLayer       = "sink.layer"
	FieldSinkMode        = "sink.mode"
	FieldSinkPath        = "sink.path"
)

// FieldSet tracks which descriptor fields a component has resolved. The
// zero value is not usable; construct with NewFieldSet.
type FieldSet map[string]struct{}

// NewFieldSet builds a set from the given paths.
func NewFieldSet(paths ...string) FieldSet {
	s := make(FieldSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Add marks a field path as resolved.
func (s FieldSet) Add(path string) { s[path] = struct{}{} }

// Has reports whether a field path is resolved.
func (s FieldSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Paths returns the resolved paths in sorted order.
func (s FieldSet) Paths() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}
