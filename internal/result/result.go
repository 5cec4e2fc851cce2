// Package result builds, serializes and queries the analysis document
// consumed by the runtime persistence layer.
package result

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lenslabs/fieldlens/internal/model"
)

// Version is the document format version.
const Version = "1.0"

// AnalysisResult is the versioned snapshot of a full analysis run. It is
// immutable once produced and consumed read-only by the query layer.
//
// The nesting is aggregate root → repository method (name+descriptor) →
// call site key → entry. encoding/json sorts map keys, so re-encoding an
// unchanged result is byte-identical.
type AnalysisResult struct {
	Version   string                    `json:"version"`
	Timestamp string                    `json:"timestamp"`
	CallGraph map[string]AggregateEntry `json:"callGraph"`
}

// AggregateEntry groups call sites by repository method for one aggregate
// root.
type AggregateEntry struct {
	Methods map[string]RepositoryMethodEntry `json:"methods"`
}

// RepositoryMethodEntry groups the call sites of one repository method,
// keyed by "{callerClass}.{callerMethod}+{startLine}-{endLine}".
type RepositoryMethodEntry struct {
	Calls map[string]CallSiteEntry `json:"calls"`
}

// CallSiteEntry is one repository call site and the fields it requires.
type CallSiteEntry struct {
	MethodClass                string                `json:"methodClass"`
	Method                     string                `json:"method"`
	MethodDescriptor           string                `json:"methodDescriptor"`
	Repository                 string                `json:"repository"`
	RepositoryMethod           string                `json:"repositoryMethod"`
	RepositoryMethodDescriptor string                `json:"repositoryMethodDescriptor"`
	AggregateRoot              string                `json:"aggregateRoot"`
	CalledAggregateRootMethod  []AggregateMethodCall `json:"calledAggregateRootMethod"`
	RequiredFields             []string              `json:"requiredFields"`
}

// AggregateMethodCall is one aggregate-root method reached from a call site
// and the fields it contributed.
type AggregateMethodCall struct {
	AggregateRootMethod           string   `json:"aggregateRootMethod"`
	AggregateRootMethodDescriptor string   `json:"aggregateRootMethodDescriptor"`
	RequiredFields                []string `json:"requiredFields"`
}

// CallSiteKey builds the composite key that disambiguates multiple call
// sites of the same method pair.
func CallSiteKey(caller model.MethodID, span model.Span) string {
	return fmt.Sprintf("%s.%s+%d-%d", caller.Owner, caller.Name, span.Start, span.End)
}

// Build assembles the document from propagation results. now stamps the
// document; everything else is derived from the requirements.
func Build(reqs []model.FieldRequirement, now time.Time) *AnalysisResult {
	r := &AnalysisResult{
		Version:   Version,
		Timestamp: now.UTC().Format(time.RFC3339),
		CallGraph: make(map[string]AggregateEntry),
	}

	for i := range reqs {
		req := &reqs[i]

		agg, ok := r.CallGraph[req.AggregateRoot]
		if !ok {
			agg = AggregateEntry{Methods: make(map[string]RepositoryMethodEntry)}
			r.CallGraph[req.AggregateRoot] = agg
		}

		methodKey := req.RepositoryMethod.Key()
		entry, ok := agg.Methods[methodKey]
		if !ok {
			entry = RepositoryMethodEntry{Calls: make(map[string]CallSiteEntry)}
			agg.Methods[methodKey] = entry
		}

		calls := make([]AggregateMethodCall, 0, len(req.Contributions))
		for _, c := range req.Contributions {
			calls = append(calls, AggregateMethodCall{
				AggregateRootMethod:           c.Method.Name,
				AggregateRootMethodDescriptor: c.Method.Descriptor,
				RequiredFields:                copyFields(c.Fields),
			})
		}

		entry.Calls[CallSiteKey(req.Caller, req.Span)] = CallSiteEntry{
			MethodClass:                req.Caller.Owner,
			Method:                     req.Caller.Name,
			MethodDescriptor:           req.Caller.Descriptor,
			Repository:                 req.Repository,
			RepositoryMethod:           req.RepositoryMethod.Name,
			RepositoryMethodDescriptor: req.RepositoryMethod.Descriptor,
			AggregateRoot:              req.AggregateRoot,
			CalledAggregateRootMethod:  calls,
			RequiredFields:             copyFields(req.Fields),
		}
	}

	return r
}

func copyFields(fields []string) []string {
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Encode serializes the document.
func (r *AnalysisResult) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding analysis result: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a serialized document.
func Decode(data []byte) (*AnalysisResult, error) {
	var r AnalysisResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding analysis result: %w", err)
	}
	return &r, nil
}

// Write serializes the document to path. A failure here is fatal to the
// output step only; the in-memory result stays valid.
func Write(path string, r *AnalysisResult) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing analysis result: %w", err)
	}
	return nil
}

// Load reads and parses a document from path.
func Load(path string) (*AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading analysis result: %w", err)
	}
	return Decode(data)
}
