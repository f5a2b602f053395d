package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the captured state to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	State    State  // Final state for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFinal state:\n")
	for _, v := range e.State.Versions {
		fmt.Fprintf(&buf, "  version %s\n", v.Version)
	}
	for _, j := range e.State.Jobs {
		fmt.Fprintf(&buf, "  job %d %s %s %s\n", j.Batch, j.Status, j.Version, j.BlobURL)
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against state and returns the
// failure messages.
func EvaluateAssertions(state State, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(state, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(state State, a Assertion) error {
	switch a.Type {
	case AssertVersionCount:
		return assertCount(state, a, len(state.Versions))
	case AssertJobCount:
		return assertCount(state, a, len(state.Jobs))
	case AssertLatestVersion:
		return assertLatestVersion(state, a)
	case AssertJob:
		return assertJob(state, a)
	case AssertBlob:
		return assertBlob(state, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertCount(state State, a Assertion, actual int) error {
	if a.Count == nil || *a.Count == actual {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d rows", *a.Count),
		Actual:   fmt.Sprintf("%d rows", actual),
		State:    state,
	}
}

// assertLatestVersion checks the most recently created version row.
// Versions are captured oldest first.
func assertLatestVersion(state State, a Assertion) error {
	actual := "no versions"
	if n := len(state.Versions); n > 0 {
		actual = state.Versions[n-1].Version
		if actual == a.Version {
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: a.Version,
		Actual:   actual,
		State:    state,
	}
}

// assertJob checks the listed fields of one job (subset match).
func assertJob(state State, a Assertion) error {
	idx := slices.IndexFunc(state.Jobs, func(j JobRow) bool { return j.Batch == a.Batch })
	if idx < 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("job for batch %d", a.Batch),
			Actual:   "not found",
			State:    state,
		}
	}
	job := state.Jobs[idx]
	fields := map[string]string{
		"status":   job.Status,
		"blob_url": job.BlobURL,
		"version":  job.Version,
	}

	var mismatches []string
	for _, k := range sortedKeys(a.Expect) {
		if fields[k] != a.Expect[k] {
			mismatches = append(mismatches, fmt.Sprintf("%s=%s (want %s)", k, fields[k], a.Expect[k]))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("batch %d with %v", a.Batch, a.Expect),
		Actual:   strings.Join(mismatches, ", "),
		State:    state,
	}
}

func assertBlob(state State, a Assertion) error {
	if slices.Contains(state.Blobs, a.BlobURL) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("blob %s", a.BlobURL),
		Actual:   fmt.Sprintf("blobs %v", state.Blobs),
		State:    state,
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
