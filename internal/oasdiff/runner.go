// Package oasdiff is the external comparison backend: it delegates diffing
// and breaking-change judgment to the oasdiff tool, invoked as a subprocess
// over two serialized documents.
package oasdiff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specwatch/specwatch/internal/compare"
)

// DefaultTimeout bounds each subprocess invocation when the caller does not
// supply one.
const DefaultTimeout = 30 * time.Second

// Runner invokes oasdiff in its two modes: breaking-change findings (JSON)
// and free-text changelog. Each mode fails independently; the comparison as a
// whole fails closed only when the tool is missing or both modes fail.
type Runner struct {
	logger  *logrus.Logger
	binary  string
	timeout time.Duration
}

// New creates a new Runner instance. binary may be a bare name resolved via
// PATH or an absolute path.
func New(logger *logrus.Logger, binary string, timeout time.Duration) *Runner {
	if binary == "" {
		binary = "oasdiff"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{logger: logger, binary: binary, timeout: timeout}
}

// Available checks that the oasdiff binary can be executed.
func (r *Runner) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := exec.CommandContext(ctx, r.binary, "--version").Run(); err != nil {
		r.logger.Debugf("oasdiff not available: %v", err)
		return false
	}
	return true
}

// Compare serializes both documents to temp files and runs oasdiff over
// them. Exit code 0 with empty output means "nothing to report" on that
// channel; a non-zero exit is a channel failure. A result is returned as
// long as at least one channel produced signal.
func (r *Runner) Compare(previous, current map[string]any) (*compare.Result, error) {
	if len(current) == 0 {
		r.logger.Warn("Current specification is not available for comparison")
		return nil, nil
	}
	if !r.Available() {
		return nil, fmt.Errorf("oasdiff binary %q is not available", r.binary)
	}

	dir, err := os.MkdirTemp("", "specwatch-oasdiff-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prevPath := filepath.Join(dir, "previous.json")
	curPath := filepath.Join(dir, "current.json")
	if err := writeDocument(prevPath, previous); err != nil {
		return nil, err
	}
	if err := writeDocument(curPath, current); err != nil {
		return nil, err
	}

	findings, breakingErr := r.breaking(prevPath, curPath)
	changelog, changelogErr := r.changelog(prevPath, curPath)

	if breakingErr != nil && changelogErr != nil {
		return nil, fmt.Errorf("oasdiff comparison failed: %v; %v", breakingErr, changelogErr)
	}
	if breakingErr != nil {
		r.logger.Warnf("Breaking-change check failed, reporting changelog only: %v", breakingErr)
	}
	if changelogErr != nil {
		r.logger.Warnf("Changelog generation failed, reporting findings only: %v", changelogErr)
	}

	if len(findings) == 0 && changelog == "" {
		r.logger.Info("No significant changes detected in API specification")
		return nil, nil
	}

	result := &compare.Result{
		BreakingChanges:    findings,
		Changelog:          changelog,
		HasBreakingChanges: len(findings) > 0,
	}
	if result.HasBreakingChanges {
		result.Summary = fmt.Sprintf("%d breaking change(s) detected", len(findings))
	} else {
		result.Summary = "No breaking changes detected"
	}
	return result, nil
}

// breaking runs the findings mode and parses its JSON output. Malformed
// output is wrapped into a single synthetic finding carrying the raw text so
// the information is not lost.
func (r *Runner) breaking(prevPath, curPath string) ([]compare.Finding, error) {
	out, err := r.run("breaking", prevPath, curPath, "-f", "json")
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return nil, nil
	}
	findings, ok := parseFindings([]byte(text))
	if !ok {
		r.logger.Warn("oasdiff produced non-JSON breaking output, wrapping raw text")
		return []compare.Finding{{
			ID:    "oasdiff-raw-output",
			Text:  text,
			Level: "warning",
		}}, nil
	}
	return findings, nil
}

func (r *Runner) changelog(prevPath, curPath string) (string, error) {
	out, err := r.run("changelog", prevPath, curPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *Runner) run(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debugf("Running %s %s", r.binary, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("oasdiff %s timed out after %s", args[0], r.timeout)
		}
		return nil, fmt.Errorf("oasdiff %s failed: %w (stderr: %s)",
			args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// parseFindings accepts either a bare JSON array of findings or an object
// holding them under a breakingChanges key.
func parseFindings(data []byte) ([]compare.Finding, bool) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err == nil {
		return convertFindings(records), true
	}

	var wrapper struct {
		BreakingChanges []map[string]any `json:"breakingChanges"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.BreakingChanges != nil {
		return convertFindings(wrapper.BreakingChanges), true
	}
	return nil, false
}

// convertFindings tolerates field-type drift in oasdiff's output (level may
// be a string or a number depending on version).
func convertFindings(records []map[string]any) []compare.Finding {
	findings := make([]compare.Finding, 0, len(records))
	for _, rec := range records {
		findings = append(findings, compare.Finding{
			ID:        stringField(rec, "id"),
			Text:      stringField(rec, "text"),
			Level:     stringField(rec, "level"),
			Operation: stringField(rec, "operation"),
			Path:      stringField(rec, "path"),
			Source:    stringField(rec, "source"),
		})
	}
	return findings
}

func stringField(rec map[string]any, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func writeDocument(path string, doc map[string]any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create spec file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to serialize spec: %w", err)
	}
	return nil
}
