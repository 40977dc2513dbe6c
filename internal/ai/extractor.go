// Package ai asks the external text-completion collaborator for a
// best-effort structured completion of fields deterministic extraction left
// unresolved. The collaborator is optional: when it is unconfigured or
// unreachable the pipeline proceeds with whatever was already resolved.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/user/ratatosk"
	"github.com/user/ratatosk/pkg/descriptor"
)

// ErrServiceUnavailable marks a completion call that never produced a
// response. The orchestrator catches it and degrades to the Incomplete
// outcome instead of propagating.
var ErrServiceUnavailable = errors.New("text-completion service unavailable")

const systemPrompt = "You are a data engineering assistant for batch JDBC-to-Delta ingestion. " +
	"The user request below was already parsed deterministically; only the listed fields are still unresolved. " +
	"Return a single JSON object whose keys are exactly the unresolved field paths you can infer from the request, " +
	"with string values. Omit any field the request does not answer. " +
	"Recognize database kinds from keywords (pgsql/postgresql -> postgres, sql server/azure sql -> sqlserver). " +
	"Return valid JSON only. No markdown, no explanations."

// Extractor merges LLM completions into a partial descriptor without ever
// overwriting a field deterministic extraction already resolved.
type Extractor struct {
	completer ratatosk.Completer
	logger    ratatosk.Logger
}

// NewExtractor creates an Extractor around the given collaborator.
func NewExtractor(completer ratatosk.Completer, logger ratatosk.Logger) *Extractor {
	return &Extractor{completer: completer, logger: logger}
}

// Augment sends the original text plus the JSON shape of the missing fields
// to the collaborator and merges whatever comes back. A field present in
// resolved is never overwritten regardless of the completion: deterministic
// extraction outranks generative completion. Malformed or non-JSON
// responses count as "no additional resolution", not as an error.
func (e *Extractor) Augment(ctx context.Context, text string, partial *descriptor.JobDescriptor, resolved descriptor.FieldSet, missing descriptor.Report) (descriptor.FieldSet, error) {
	paths := make([]string, 0, len(missing))
	for p := range missing {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	shape, err := json.Marshal(paths)
	if err != nil {
		return resolved, err
	}
	userPrompt := fmt.Sprintf("Request:\n%s\n\nUnresolved field paths:\n%s", text, shape)

	content, err := e.completer.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return resolved, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	completion := decodeCompletion(content)
	if completion == nil {
		e.logger.Warn("completion was not valid JSON, keeping deterministic resolution", "content_length", len(content))
		return resolved, nil
	}

	overlay := &descriptor.JobDescriptor{}
	overlayResolved := descriptor.NewFieldSet()
	for _, path := range sortedCompletionKeys(completion) {
		value, ok := completion[path].(string)
		if !ok || value == "" {
			continue
		}
		if descriptor.SetField(overlay, path, value) {
			overlayResolved.Add(path)
		}
	}

	before := len(resolved)
	resolved = descriptor.Merge(partial, resolved, overlay, overlayResolved)
	e.logger.Info("merged completion into partial descriptor",
		"suggested", len(overlayResolved), "accepted", len(resolved)-before)
	return resolved, nil
}

// decodeCompletion parses the assistant content leniently: plain JSON first,
// then the outermost {...} slice for responses wrapped in markdown fences.
func decodeCompletion(content string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return out
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil
	}
	return out
}

func sortedCompletionKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
