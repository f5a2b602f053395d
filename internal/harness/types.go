package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/provermarket/internal/protocol"
)

// RunRecord is the outcome of one run.
type RunRecord struct {
	Index          int    `json:"index"`
	Batch          uint64 `json:"batch,omitempty"`
	BlobURL        string `json:"blob_url,omitempty"`
	Version        string `json:"version,omitempty"`
	VersionCreated bool   `json:"version_created"`
	JobInserted    bool   `json:"job_inserted"`
	ErrorStage     string `json:"error_stage,omitempty"`
	ErrorKind      string `json:"error_kind,omitempty"`
}

// VersionRow is a protocol_versions row as captured after the runs.
type VersionRow struct {
	Version   string `json:"version"`
	Scheduler string `json:"recursion_scheduler_vk_hash"`
}

// JobRow is a witness_input_jobs row as captured after the runs.
type JobRow struct {
	Batch   uint64 `json:"batch"`
	BlobURL string `json:"blob_url"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// State is the database and blob directory after the last run.
type State struct {
	Versions []VersionRow `json:"versions"`
	Jobs     []JobRow     `json:"jobs"`
	Blobs    []string     `json:"blobs"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	Runs  []RunRecord `json:"runs"`
	State State       `json:"state"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Runs:   []RunRecord{},
		Errors: []string{},
		State: State{
			Versions: []VersionRow{},
			Jobs:     []JobRow{},
			Blobs:    []string{},
		},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// parseSemver parses "0.<id>.<patch>".
func parseSemver(s string) (protocol.SemanticVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[0] != "0" {
		return protocol.SemanticVersion{}, fmt.Errorf("invalid version %q: want 0.<id>.<patch>", s)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return protocol.SemanticVersion{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	patch, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return protocol.SemanticVersion{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	vid, err := protocol.ParseVersionID(id)
	if err != nil {
		return protocol.SemanticVersion{}, err
	}
	vp, err := protocol.ParseVersionPatch(patch)
	if err != nil {
		return protocol.SemanticVersion{}, err
	}
	return protocol.SemanticVersion{ID: vid, Patch: vp}, nil
}
