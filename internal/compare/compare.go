// Package compare defines the comparison backend contract and the in-process
// engine backend built from the structural differ and the classifier.
package compare

import (
	"github.com/sirupsen/logrus"

	"github.com/specwatch/specwatch/internal/classifier"
	"github.com/specwatch/specwatch/internal/diff"
)

// Finding is one structured breaking-change record from the external
// compatibility tool.
type Finding struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Level     string `json:"level"`
	Operation string `json:"operation,omitempty"`
	Path      string `json:"path,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Result is the unified outcome of one comparison. The engine backend fills
// Changes; the external-tool backend fills BreakingChanges and Changelog. The
// two channels are never mixed in one result.
type Result struct {
	Changes            *classifier.Report `json:"changes,omitempty"`
	BreakingChanges    []Finding          `json:"breaking_changes,omitempty"`
	Changelog          string             `json:"changelog,omitempty"`
	HasBreakingChanges bool               `json:"has_breaking_changes"`
	Summary            string             `json:"summary"`
}

// Backend compares a previous and a current specification document. A nil
// result with a nil error means no meaningful change was found. The backend
// is chosen at construction time and never switched per call.
type Backend interface {
	Compare(previous, current map[string]any) (*Result, error)
}

// Engine is the in-process backend: structural diff, semantic
// classification, breaking-change policy.
type Engine struct {
	logger     *logrus.Logger
	classifier *classifier.Classifier
	evaluator  *classifier.Evaluator
}

// NewEngine creates a new Engine instance.
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		logger:     logger,
		classifier: classifier.New(logger),
		evaluator:  classifier.NewEvaluator(logger),
	}
}

// Compare diffs the two documents and classifies the result. A missing
// previous document triggers bootstrap mode, where the whole current
// document is reported as new. Internal failures are logged and converted to
// a no-result outcome, never propagated as a panic.
func (e *Engine) Compare(previous, current map[string]any) (result *Result, err error) {
	if len(current) == 0 {
		e.logger.Warn("Current specification is not available for comparison")
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("Error comparing API specifications: %v", r)
			result = nil
			err = nil
		}
	}()

	if len(previous) == 0 {
		e.logger.Info("No previous specification available, treating as initial version")
		report := e.classifier.Bootstrap(current)
		verdict := e.evaluator.Evaluate(report)
		return &Result{
			Changes:            report,
			HasBreakingChanges: verdict.HasBreakingChanges,
			Summary:            verdict.Summary,
		}, nil
	}

	set := diff.Compare(previous, current)
	report := e.classifier.Classify(set, previous, current)
	if report.Empty() {
		e.logger.Info("No significant changes detected in API specification")
		return nil, nil
	}

	verdict := e.evaluator.Evaluate(report)
	e.logger.WithFields(logrus.Fields{
		"added":   report.Added.Len(),
		"changed": report.Changed.Len(),
		"removed": report.Removed.Len(),
	}).Info("Changes detected in API specification")

	return &Result{
		Changes:            report,
		HasBreakingChanges: verdict.HasBreakingChanges,
		Summary:            verdict.Summary,
	}, nil
}
