// Package nlu extracts candidate descriptor fields from free-form request
// text in Chinese and English using deterministic pattern matching.
// Extraction is best-effort and partial: a field the text does not mention
// stays unresolved for the validator to report, and nothing here ever
// applies a default. Extraction is a pure function of the text, so
// calling it twice yields identical results.
package nlu

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/user/ratatosk"
	"github.com/user/ratatosk/pkg/descriptor"
)

// Ambiguity records two conflicting candidate values found for one field.
// The first occurrence in reading order wins; the conflict is a warning,
// never an error.
type Ambiguity struct {
	Field   string
	Kept    string
	Ignored string
}

// Result is the outcome of one extraction pass: a partial descriptor, the
// set of field paths the text resolved, and any ambiguity warnings.
type Result struct {
	Descriptor *descriptor.JobDescriptor
	Resolved   descriptor.FieldSet
	Warnings   []Ambiguity
}

// Extract runs the full deterministic extraction over the request text.
func Extract(text string) *Result {
	r := &Result{
		Descriptor: &descriptor.JobDescriptor{},
		Resolved:   descriptor.NewFieldSet(),
	}
	srcSeg, sinkSeg := splitSegments(text)

	r.extractKind(text)
	r.extractConnection(srcSeg)
	r.extractCredentials(srcSeg)
	r.extractSourceTable(srcSeg)
	r.extractSinkTarget(sinkSeg)
	r.extractKeywords(text)
	r.extractExtras(text)

	return r
}

// splitSegments cuts the text at the first write/target keyword so that
// source tokens are looked for before it and sink tokens from it on. Text
// without a boundary serves as both segments.
func splitSegments(text string) (source, sink string) {
	loc := sinkBoundary.FindStringIndex(text)
	if loc == nil {
		return text, text
	}
	return text[:loc[0]], text[loc[0]:]
}

func (r *Result) extractKind(text string) {
	value, ok := r.pickAlias(descriptor.FieldSourceKind, text, kindPattern, kindAliases)
	if !ok {
		return
	}
	r.Descriptor.Source.Kind = ratatosk.SourceKind(value)
	r.Resolved.Add(descriptor.FieldSourceKind)
}

func (r *Result) extractConnection(srcSeg string) {
	if host, ok := r.pick(descriptor.FieldSourceHost, srcSeg, hostPatterns, nil); ok {
		if h, p, found := strings.Cut(host, ":"); found {
			if port, err := strconv.Atoi(p); err == nil {
				host = h
				r.Descriptor.Source.Connection.Port = port
				r.Resolved.Add(descriptor.FieldSourcePort)
			}
		}
		r.Descriptor.Source.Connection.Host = host
		r.Resolved.Add(descriptor.FieldSourceHost)
	}
	if !r.Resolved.Has(descriptor.FieldSourcePort) {
		if p, ok := r.pick(descriptor.FieldSourcePort, srcSeg, portPatterns, nil); ok {
			if port, err := strconv.Atoi(p); err == nil {
				r.Descriptor.Source.Connection.Port = port
				r.Resolved.Add(descriptor.FieldSourcePort)
			}
		}
	}
	if db, ok := r.pick(descriptor.FieldSourceDatabase, srcSeg, databasePatterns, nil); ok {
		r.Descriptor.Source.Connection.Database = db
		r.Resolved.Add(descriptor.FieldSourceDatabase)
	}
}

func (r *Result) extractCredentials(srcSeg string) {
	if user, ok := r.pick(descriptor.FieldSourceUsername, srcSeg, usernamePatterns, nil); ok {
		r.Descriptor.Source.Credentials.Username = user
		r.Resolved.Add(descriptor.FieldSourceUsername)
	}
	if pass, ok := r.pick(descriptor.FieldSourcePassword, srcSeg, passwordPatterns, nil); ok {
		r.Descriptor.Source.Credentials.Password = pass
		r.Resolved.Add(descriptor.FieldSourcePassword)
	}
}

func (r *Result) extractSourceTable(srcSeg string) {
	strong := sourceTablePatterns[:3]
	weak := sourceTablePatterns[3:]
	table, ok := r.pick(descriptor.FieldSourceTable, srcSeg, strong, weak)
	if !ok {
		return
	}
	if !strings.Contains(table, ".") {
		if schema, ok := r.pick("source.schema", srcSeg, schemaPatterns, nil); ok {
			table = schema + "." + table
		}
	}
	r.Descriptor.Source.Table = table
	r.Resolved.Add(descriptor.FieldSourceTable)
}

func (r *Result) extractSinkTarget(sinkSeg string) {
	strong := sinkTablePatterns[:2]
	weak := sinkTablePatterns[2:]
	if target, ok := r.pick(descriptor.FieldSinkTable, sinkSeg, strong, weak); ok {
		parts := strings.Split(target, ".")
		switch len(parts) {
		case 3:
			r.Descriptor.Sink.Catalog = parts[0]
			r.Descriptor.Sink.Database = parts[1]
			r.Descriptor.Sink.Table = parts[2]
			r.Resolved.Add(descriptor.FieldSinkCatalog)
			r.Resolved.Add(descriptor.FieldSinkDatabase)
			r.Resolved.Add(descriptor.FieldSinkTable)
		case 2:
			r.Descriptor.Sink.Database = parts[0]
			r.Descriptor.Sink.Table = parts[1]
			r.Resolved.Add(descriptor.FieldSinkDatabase)
			r.Resolved.Add(descriptor.FieldSinkTable)
		default:
			r.Descriptor.Sink.Table = target
			r.Resolved.Add(descriptor.FieldSinkTable)
		}
	}
	if !r.Resolved.Has(descriptor.FieldSinkCatalog) {
		if catalog, ok := r.pick(descriptor.FieldSinkCatalog, sinkSeg, catalogPatterns, nil); ok {
			r.Descriptor.Sink.Catalog = catalog
			r.Resolved.Add(descriptor.FieldSinkCatalog)
		}
	}
	if !r.Resolved.Has(descriptor.FieldSinkDatabase) {
		if schema, ok := r.pick(descriptor.FieldSinkDatabase, sinkSeg, schemaPatterns, nil); ok {
			r.Descriptor.Sink.Database = schema
			r.Resolved.Add(descriptor.FieldSinkDatabase)
		}
	}
	if path, ok := r.pick(descriptor.FieldSinkPath, sinkSeg, pathPatterns, nil); ok {
		r.Descriptor.Sink.Path = strings.TrimRight(path, "/")
		r.Resolved.Add(descriptor.FieldSinkPath)
	}
}

func (r *Result) extractKeywords(text string) {
	if mode, ok := r.pickAlias(descriptor.FieldSinkMode, text, modePattern, modeAliases); ok {
		r.Descriptor.Sink.Mode = ratatosk.WriteMode(mode)
		r.Resolved.Add(descriptor.FieldSinkMode)
	}
	if freq, ok := r.pickAlias(descriptor.FieldSourceFrequency, text, frequencyPattern, frequencyAliases); ok {
		r.Descriptor.Source.Frequency = ratatosk.Frequency(freq)
		r.Resolved.Add(descriptor.FieldSourceFrequency)
	}
	if layer, ok := r.pickAlias(descriptor.FieldSinkLayer, text, layerPattern, layerAliases); ok {
		r.Descriptor.Sink.Layer = ratatosk.Layer(layer)
		r.Resolved.Add(descriptor.FieldSinkLayer)
	}
}

func (r *Result) extractExtras(text string) {
	if field, ok := r.pick(descriptor.FieldSourceIncrement, text, incrementPatterns, nil); ok {
		r.Descriptor.Source.IncrementField = field
		r.Resolved.Add(descriptor.FieldSourceIncrement)
	}
	if sched, ok := r.pick(descriptor.FieldSourceSchedule, text, schedulePatterns, nil); ok {
		r.Descriptor.Source.Schedule = sched
		r.Resolved.Add(descriptor.FieldSourceSchedule)
	}
	if name, ok := r.pick(descriptor.FieldJobName, text, jobNamePatterns, nil); ok {
		r.Descriptor.JobName = name
		r.Resolved.Add(descriptor.FieldJobName)
	}
}

type candidate struct {
	value string
	pos   int
}

// pick matches the strong patterns first and falls back to the weak ones
// only when no strong pattern hits. The earliest match in reading order
// wins; every later distinct value from the same tier becomes an Ambiguity
// warning.
func (r *Result) pick(field, text string, strong, weak []*regexp.Regexp) (string, bool) {
	cands := matchAll(text, strong)
	if len(cands) == 0 {
		cands = matchAll(text, weak)
	}
	if len(cands) == 0 {
		return "", false
	}

	kept := cands[0].value
	warned := map[string]bool{}
	for _, c := range cands[1:] {
		if c.value == kept || warned[c.value] {
			continue
		}
		warned[c.value] = true
		r.Warnings = append(r.Warnings, Ambiguity{Field: field, Kept: kept, Ignored: c.value})
	}
	return kept, true
}

// pickAlias matches a keyword alternation and normalizes each hit through
// the alias table before conflict detection, so "pgsql" and "postgresql"
// never conflict with each other.
func (r *Result) pickAlias(field, text string, re *regexp.Regexp, aliases map[string]string) (string, bool) {
	var cands []candidate
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		raw := strings.ToLower(text[m[2]:m[3]])
		raw = strings.Join(strings.Fields(raw), " ")
		if norm, ok := aliases[raw]; ok {
			cands = append(cands, candidate{value: norm, pos: m[0]})
		}
	}
	if len(cands) == 0 {
		return "", false
	}
	kept := cands[0].value
	warned := map[string]bool{}
	for _, c := range cands[1:] {
		if c.value == kept || warned[c.value] {
			continue
		}
		warned[c.value] = true
		r.Warnings = append(r.Warnings, Ambiguity{Field: field, Kept: kept, Ignored: c.value})
	}
	return kept, true
}

func matchAll(text string, res []*regexp.Regexp) []candidate {
	var out []candidate
	for _, re := range res {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			out = append(out, candidate{value: text[m[2]:m[3]], pos: m[0]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}
