package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/user/ratatosk"
	"github.com/user/ratatosk/pkg/descriptor"
)

type fakeCompleter struct {
	content string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	return f.content, f.err
}

func nopLogger() ratatosk.Logger { return ratatosk.NewDefaultLogger() }

func TestAugmentFillsOnlyMissingFields(t *testing.T) {
	partial := &descriptor.JobDescriptor{}
	partial.Source.Connection.Host = "trusted.internal"
	resolved := descriptor.NewFieldSet()
	resolved.Add(descriptor.FieldSourceHost)
	missing := descriptor.Report{
		descriptor.FieldSourceDatabase: "the source database name is required",
		descriptor.FieldSinkCatalog:    "the target catalog is required",
	}

	completer := &fakeCompleter{content: `{
		"source.connection.host": "untrusted.example",
		"source.connection.database": "production",
		"sink.catalog": "uc_tarhone"
	}`}
	ext := NewExtractor(completer, nopLogger())

	resolved, err := ext.Augment(context.Background(), "some request", partial, resolved, missing)
	if err != nil {
		t.Fatalf("Augment() error = %v", err)
	}

	if partial.Source.Connection.Host != "trusted.internal" {
		t.Errorf("host was overwritten to %q", partial.Source.Connection.Host)
	}
	if partial.Source.Connection.Database != "production" {
		t.Errorf("database = %q, want the completion value", partial.Source.Connection.Database)
	}
	if partial.Sink.Catalog != "uc_tarhone" {
		t.Errorf("catalog = %q, want the completion value", partial.Sink.Catalog)
	}
	if !resolved.Has(descriptor.FieldSinkCatalog) {
		t.Error("accepted completion field was not marked resolved")
	}
}

func TestAugmentToleratesMarkdownWrappedJSON(t *testing.T) {
	completer := &fakeCompleter{content: "```json\n{\"sink.catalog\": \"uc_tarhone\"}\n```"}
	ext := NewExtractor(completer, nopLogger())

	partial := &descriptor.JobDescriptor{}
	resolved, err := ext.Augment(context.Background(), "req", partial, descriptor.NewFieldSet(), descriptor.Report{})
	if err != nil {
		t.Fatalf("Augment() error = %v", err)
	}
	if partial.Sink.Catalog != "uc_tarhone" || !resolved.Has(descriptor.FieldSinkCatalog) {
		t.Errorf("fenced JSON was not merged: catalog = %q", partial.Sink.Catalog)
	}
}

func TestAugmentTreatsGarbageAsNoResolution(t *testing.T) {
	completer := &fakeCompleter{content: "I could not determine the fields, sorry."}
	ext := NewExtractor(completer, nopLogger())

	partial := &descriptor.JobDescriptor{}
	resolved, err := ext.Augment(context.Background(), "req", partial, descriptor.NewFieldSet(), descriptor.Report{})
	if err != nil {
		t.Fatalf("Augment() error = %v, want nil for a malformed completion", err)
	}
	if len(resolved) != 0 {
		t.Errorf("resolved = %v, want nothing from a malformed completion", resolved.Paths())
	}
}

func TestAugmentIgnoresUnknownPathsAndBadValues(t *testing.T) {
	completer := &fakeCompleter{content: `{
		"source.connection.port": "not-a-number",
		"made.up.path": "x",
		"sink.table": ""
	}`}
	ext := NewExtractor(completer, nopLogger())

	partial := &descriptor.JobDescriptor{}
	resolved, err := ext.Augment(context.Background(), "req", partial, descriptor.NewFieldSet(), descriptor.Report{})
	if err != nil {
		t.Fatalf("Augment() error = %v", err)
	}
	if len(resolved) != 0 {
		t.Errorf("resolved = %v, want every suggestion rejected", resolved.Paths())
	}
}

func TestAugmentWrapsTransportFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("connection refused")}
	ext := NewExtractor(completer, nopLogger())

	resolved := descriptor.NewFieldSet()
	resolved.Add(descriptor.FieldSourceHost)
	got, err := ext.Augment(context.Background(), "req", &descriptor.JobDescriptor{}, resolved, descriptor.Report{})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("Augment() error = %v, want ErrServiceUnavailable", err)
	}
	if len(got) != 1 {
		t.Errorf("resolved set changed on failure: %v", got.Paths())
	}
}

func TestAugmentPromptNamesMissingPaths(t *testing.T) {
	completer := &fakeCompleter{content: `{}`}
	ext := NewExtractor(completer, nopLogger())

	missing := descriptor.Report{
		descriptor.FieldSinkCatalog: "the target catalog is required",
	}
	_, err := ext.Augment(context.Background(), "my request text", &descriptor.JobDescriptor{}, descriptor.NewFieldSet(), missing)
	if err != nil {
		t.Fatalf("Augment() error = %v", err)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("Complete was called %d times, want 1", len(completer.prompts))
	}
	prompt := completer.prompts[0]
	for _, want := range []string{"my request text", descriptor.FieldSinkCatalog} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt is missing %q", want)
		}
	}
}
