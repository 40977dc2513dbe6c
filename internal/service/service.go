// Package service orchestrates resolution: it routes raw input through the
// structured loader or the natural-language normalizer, optionally the
// LLM-assisted extractor, and the validator, ending in exactly one of the
// terminal Complete or Incomplete states.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/ratatosk"
	"github.com/user/ratatosk/internal/ai"
	"github.com/user/ratatosk/pkg/descriptor"
	"github.com/user/ratatosk/pkg/generator"
	"github.com/user/ratatosk/pkg/loader"
	"github.com/user/ratatosk/pkg/nlu"
)

// State is one step of the resolution state machine. Complete and
// Incomplete are terminal: a caller that receives Incomplete must re-submit
// with supplemented input, there are no retries within one call.
type State string

const (
	StateReceived    State = "received"
	StateLoaded      State = "loaded"
	StateValidating  State = "validating"
	StateAwaitingLLM State = "awaiting_llm"
	StateComplete    State = "complete"
	StateIncomplete  State = "incomplete"
)

// Request is one resolution request: free text, a structured YAML/JSON
// document, or both. When both are present the document is loaded first and
// the text may only fill fields the document left unresolved.
type Request struct {
	NaturalLanguage string
	Document        []byte
}

// Outcome is the terminal result of one resolution call.
type Outcome struct {
	RequestID  string
	State      State
	Descriptor *descriptor.JobDescriptor
	Missing    descriptor.Report
	Warnings   []nlu.Ambiguity
	Script     string
	ScriptPath string
	RunID      string
}

// Config carries the orchestrator's policy knobs.
type Config struct {
	// DefaultCatalog, when set, fills sink.catalog for requests that do not
	// name one. Empty means the catalog is reported as missing instead.
	DefaultCatalog string
	// LLMTimeout bounds the completion call. Zero means 30s.
	LLMTimeout time.Duration
	// DefaultClusterID is used for submissions that do not name a cluster.
	DefaultClusterID string
}

// Service composes the resolution pipeline. It is stateless across calls:
// every request gets a fresh descriptor and nothing survives the call.
type Service struct {
	config    Config
	extractor *ai.Extractor
	submitter ratatosk.Submitter
	logger    ratatosk.Logger
}

// New creates a Service. extractor may be nil (LLM stage disabled) and
// submitter may be nil (submission boundary not wired).
func New(config Config, extractor *ai.Extractor, submitter ratatosk.Submitter, logger ratatosk.Logger) *Service {
	if config.LLMTimeout == 0 {
		config.LLMTimeout = 30 * time.Second
	}
	return &Service{config: config, extractor: extractor, submitter: submitter, logger: logger}
}

// Resolve turns raw input into a complete descriptor or a missing-field
// report. Fatal conditions (parse errors, validation errors, reserved
// kinds) return an error instead of an Outcome.
func (s *Service) Resolve(ctx context.Context, req Request) (*Outcome, error) {
	out := &Outcome{RequestID: uuid.NewString(), State: StateReceived}

	d := &descriptor.JobDescriptor{}
	resolved := descriptor.NewFieldSet()

	switch {
	case len(req.Document) > 0:
		loaded, loadedFields, err := loader.Load(req.Document)
		if err != nil {
			return nil, err
		}
		d, resolved = loaded, loadedFields
		out.State = StateLoaded
		s.logger.Debug("document loaded", "request_id", out.RequestID, "resolved_fields", len(resolved))

		if req.NaturalLanguage != "" {
			// Structured input outranks text: extraction only fills gaps.
			extracted := nlu.Extract(req.NaturalLanguage)
			resolved = descriptor.Merge(d, resolved, extracted.Descriptor, extracted.Resolved)
			out.Warnings = extracted.Warnings
		}

	case req.NaturalLanguage != "":
		extracted := nlu.Extract(req.NaturalLanguage)
		d, resolved = extracted.Descriptor, extracted.Resolved
		out.Warnings = extracted.Warnings
		s.logger.Debug("text extracted", "request_id", out.RequestID,
			"resolved_fields", len(resolved), "warnings", len(out.Warnings))

	default:
		return nil, fmt.Errorf("a resolution request needs natural-language text or a config document")
	}

	s.applyPolicy(d, resolved)

	out.State = StateValidating
	report, err := descriptor.Validate(d)
	if err != nil {
		return nil, err
	}
	if report.Complete() {
		out.State = StateComplete
		out.Descriptor = d
		return out, nil
	}

	if s.extractor == nil || req.NaturalLanguage == "" {
		out.State = StateIncomplete
		out.Missing = report
		return out, nil
	}

	out.State = StateAwaitingLLM
	llmCtx, cancel := context.WithTimeout(ctx, s.config.LLMTimeout)
	defer cancel()
	resolved, err = s.extractor.Augment(llmCtx, req.NaturalLanguage, d, resolved, report)
	if err != nil {
		if !errors.Is(err, ai.ErrServiceUnavailable) {
			return nil, err
		}
		// Degrade: surface the report deterministic extraction produced.
		s.logger.Warn("completion service unavailable, degrading to incomplete",
			"request_id", out.RequestID, "error", err)
		out.State = StateIncomplete
		out.Missing = report
		return out, nil
	}

	s.applyPolicy(d, resolved)
	report, err = descriptor.Validate(d)
	if err != nil {
		return nil, err
	}
	if report.Complete() {
		out.State = StateComplete
		out.Descriptor = d
		return out, nil
	}
	out.State = StateIncomplete
	out.Missing = report
	return out, nil
}

// applyPolicy runs the explicit default policy, including the configured
// default catalog. Re-run after the LLM stage since a newly resolved kind
// unlocks the per-kind defaults.
func (s *Service) applyPolicy(d *descriptor.JobDescriptor, resolved descriptor.FieldSet) {
	if s.config.DefaultCatalog != "" && !resolved.Has(descriptor.FieldSinkCatalog) {
		d.Sink.Catalog = s.config.DefaultCatalog
		resolved.Add(descriptor.FieldSinkCatalog)
	}
	descriptor.ApplyDefaults(d, resolved)
}

// Plan resolves the request and, when resolution completes, renders the
// script. Incomplete outcomes pass through unchanged for re-prompting.
func (s *Service) Plan(ctx context.Context, req Request) (*Outcome, error) {
	out, err := s.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if out.State != StateComplete {
		return out, nil
	}
	script, err := generator.Render(out.Descriptor)
	if err != nil {
		return nil, err
	}
	out.Script = script
	s.logger.Info("script rendered", "request_id", out.RequestID,
		"job", out.Descriptor.JobName, "bytes", len(script))
	return out, nil
}

// Submit plans the request and hands the rendered script to the submission
// collaborator. The core never inspects execution results.
func (s *Service) Submit(ctx context.Context, req Request, clusterID string) (*Outcome, error) {
	out, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	if out.State != StateComplete {
		return out, nil
	}
	if s.submitter == nil {
		return nil, fmt.Errorf("no submission collaborator is configured")
	}
	if clusterID == "" {
		clusterID = s.config.DefaultClusterID
	}

	path, err := s.submitter.UploadScript(ctx, out.Descriptor.JobName, out.Script)
	if err != nil {
		return nil, fmt.Errorf("uploading script: %w", err)
	}
	runID, err := s.submitter.SubmitRun(ctx, out.Descriptor.JobName, path, clusterID)
	if err != nil {
		return nil, fmt.Errorf("submitting run: %w", err)
	}
	out.ScriptPath = path
	out.RunID = runID
	s.logger.Info("run submitted", "request_id", out.RequestID,
		"job", out.Descriptor.JobName, "run_id", runID)
	return out, nil
}
