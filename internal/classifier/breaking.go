package classifier

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Verdict is the breaking-change judgment derived from a change report.
type Verdict struct {
	HasBreakingChanges bool   `json:"has_breaking_changes"`
	Summary            string `json:"summary"`
}

// Evaluator derives a breaking/non-breaking verdict from a change report.
//
// Policy: removed paths, removed operations and newly required parameters
// mark the comparison breaking. Everything else (new endpoints, optional
// parameters, schema edits) is reported but not breaking.
type Evaluator struct {
	logger *logrus.Logger
}

// NewEvaluator creates a new Evaluator instance.
func NewEvaluator(logger *logrus.Logger) *Evaluator {
	return &Evaluator{logger: logger}
}

// Evaluate judges the report and builds a short human-readable summary.
func (e *Evaluator) Evaluate(report *Report) Verdict {
	breaking := len(report.Removed["paths"]) +
		len(report.Removed["operations"]) +
		len(report.Added["required_parameters"])
	total := report.Total()

	verdict := Verdict{HasBreakingChanges: breaking > 0}
	if verdict.HasBreakingChanges {
		verdict.Summary = fmt.Sprintf("%d breaking change(s) detected | %d total changes", breaking, total)
		e.logger.WithFields(logrus.Fields{
			"breaking": breaking,
			"total":    total,
		}).Warn("Breaking changes detected in API specification")
	} else {
		verdict.Summary = fmt.Sprintf("No breaking changes | %d total changes", total)
	}
	return verdict
}
