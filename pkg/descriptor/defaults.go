package descriptor

import (
	"strings"

	"github.com/user/ratatosk"
)

// ApplyDefaults fills fields the explicit default policy covers and marks
// them resolved. It is the only place defaults come from: extraction never
// guesses, and validation reports whatever policy could not fill.
//
// Policy, in order:
//   - sink kind defaults to delta, layer to bronze, mode to append
//   - source port defaults per kind once kind and host are resolved
//   - a one-segment source table is qualified with the per-kind schema
//     (public/dbo), or with the connection database for mysql
//   - job name derives from the sink table (ingest_<database>_<table>)
func ApplyDefaults(d *JobDescriptor, resolved FieldSet) {
	if !resolved.Has(FieldSinkKind) {
		d.Sink.Kind = ratatosk.SinkDelta
		resolved.Add(FieldSinkKind)
	}
	if !resolved.Has(FieldSinkLayer) {
		d.Sink.Layer = ratatosk.Bronze
		resolved.Add(FieldSinkLayer)
	}
	if !resolved.Has(FieldSinkMode) {
		d.Sink.Mode = ratatosk.Append
		resolved.Add(FieldSinkMode)
	}

	if !resolved.Has(FieldSourcePort) && resolved.Has(FieldSourceKind) && resolved.Has(FieldSourceHost) {
		if port, ok := DefaultPorts[d.Source.Kind]; ok {
			d.Source.Connection.Port = port
			resolved.Add(FieldSourcePort)
		}
	}

	if resolved.Has(FieldSourceTable) && !strings.Contains(d.Source.Table, ".") {
		if schema, ok := DefaultSchemas[d.Source.Kind]; ok {
			d.Source.Table = schema + "." + d.Source.Table
		} else if d.Source.Kind == ratatosk.SourceMySQL && resolved.Has(FieldSourceDatabase) {
			d.Source.Table = d.Source.Connection.Database + "." + d.Source.Table
		}
	}

	if !resolved.Has(FieldJobName) && resolved.Has(FieldSinkTable) {
		name := "ingest_" + d.Sink.Table
		if resolved.Has(FieldSinkDatabase) {
			name = "ingest_" + d.Sink.Database + "_" + d.Sink.Table
		}
		d.JobName = name
		resolved.Add(FieldJobName)
	}
}
