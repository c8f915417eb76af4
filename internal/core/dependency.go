package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DependencyErrorType tags the variant of a DependencyError
type DependencyErrorType string

const (
	DepNotInstalled       DependencyErrorType = "not-installed"
	DepIncorrectVersion   DependencyErrorType = "incorrect-version"
	DepConfigUnsatisfied  DependencyErrorType = "config-unsatisfied"
	DepNotRunning         DependencyErrorType = "not-running"
	DepHealthChecksFailed DependencyErrorType = "health-checks-failed"
)

// DependencyError explains why a dependency is not satisfied.
// Only the fields belonging to Type are set.
type DependencyError struct {
	Type     DependencyErrorType          `json:"type" yaml:"type"`
	Expected string                       `json:"expected,omitempty" yaml:"expected,omitempty"`
	Received string                       `json:"received,omitempty" yaml:"received,omitempty"`
	Error    string                       `json:"error,omitempty" yaml:"error,omitempty"`
	Failures map[string]HealthCheckResult `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// NotInstalled returns a not-installed dependency error
func NotInstalled() *DependencyError {
	return &DependencyError{Type: DepNotInstalled}
}

// IncorrectVersion returns an incorrect-version dependency error
func IncorrectVersion(expected, received string) *DependencyError {
	return &DependencyError{Type: DepIncorrectVersion, Expected: expected, Received: received}
}

// ConfigUnsatisfied returns a config-unsatisfied dependency error
func ConfigUnsatisfied(msg string) *DependencyError {
	return &DependencyError{Type: DepConfigUnsatisfied, Error: msg}
}

// NotRunning returns a not-running dependency error
func NotRunning() *DependencyError {
	return &DependencyError{Type: DepNotRunning}
}

// HealthChecksFailed returns a health-checks-failed dependency error
func HealthChecksFailed(failures map[string]HealthCheckResult) *DependencyError {
	return &DependencyError{Type: DepHealthChecksFailed, Failures: failures}
}

// mergeRank orders variants; the lower rank wins a merge.
var mergeRank = map[DependencyErrorType]int{
	DepNotInstalled:       0,
	DepIncorrectVersion:   1,
	DepConfigUnsatisfied:  2,
	DepNotRunning:         3,
	DepHealthChecksFailed: 4,
}

// Merge combines two errors for the same dependency. The more severe
// variant wins; config messages are joined and health failures unioned.
// Neither input is modified.
func (e *DependencyError) Merge(other *DependencyError) *DependencyError {
	if e == nil {
		return other
	}
	if other == nil {
		return e
	}

	if e.Type == other.Type {
		switch e.Type {
		case DepConfigUnsatisfied:
			return ConfigUnsatisfied(e.Error + "\n" + other.Error)
		case DepHealthChecksFailed:
			failures := make(map[string]HealthCheckResult, len(e.Failures)+len(other.Failures))
			for id, res := range e.Failures {
				failures[id] = res
			}
			for id, res := range other.Failures {
				failures[id] = res
			}
			return HealthChecksFailed(failures)
		default:
			return e
		}
	}

	if mergeRank[other.Type] < mergeRank[e.Type] {
		return other
	}
	return e
}

// String renders the error the way it is shown to users
func (e *DependencyError) String() string {
	if e == nil {
		return ""
	}

	switch e.Type {
	case DepNotInstalled:
		return "Not Installed"
	case DepIncorrectVersion:
		return fmt.Sprintf("Incorrect Version: Expected %s, Received %s", e.Expected, e.Received)
	case DepConfigUnsatisfied:
		return fmt.Sprintf("Configuration Requirements Not Satisfied: %s", e.Error)
	case DepNotRunning:
		return "Not Running"
	case DepHealthChecksFailed:
		ids := make([]string, 0, len(e.Failures))
		for id := range e.Failures {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			res := e.Failures[id]
			parts = append(parts, fmt.Sprintf("%s @ %s %s", id, res.Time.UTC().Format(time.RFC3339), res.Result))
		}
		return "Failed Health Check(s): " + strings.Join(parts, ", ")
	default:
		return string(e.Type)
	}
}
