package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/provermarket/internal/config"
)

// Scenario defines an ingestion scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup seeds the prover database before the first run.
	Setup Setup `yaml:"setup,omitempty"`

	// Runs are executed in order against the same database.
	Runs []RunStep `yaml:"runs"`

	// Assertions validate the final database and blob directory.
	Assertions []Assertion `yaml:"assertions"`
}

// Setup holds rows written before any run.
type Setup struct {
	Versions []SeedVersion `yaml:"versions,omitempty"`
	Jobs     []SeedJob     `yaml:"jobs,omitempty"`
}

// SeedVersion is a protocol_versions row. Its four hashes are filled with
// Seed, Seed+1, Seed+2 and Seed+3.
type SeedVersion struct {
	ID    int64 `yaml:"id"`
	Patch int64 `yaml:"patch"`
	Seed  uint8 `yaml:"seed"`
}

// SeedJob is a witness_input_jobs row.
type SeedJob struct {
	Batch   uint64 `yaml:"batch"`
	BlobURL string `yaml:"blob_url"`
	// Version is "0.<id>.<patch>".
	Version string `yaml:"version"`
}

// RunStep is one ingestion run.
type RunStep struct {
	// Participant defaults to "harness".
	Participant string `yaml:"participant,omitempty"`

	// Artifact is what the marketplace serves for this run.
	Artifact ArtifactSpec `yaml:"artifact"`

	// Candidate overrides the default candidate version. Unset hashes keep
	// their defaults.
	Candidate *config.VersionConfig `yaml:"candidate,omitempty"`

	// Expect validates the run outcome. If nil, the run must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ArtifactSpec describes the served artifact.
type ArtifactSpec struct {
	Batch           uint64 `yaml:"batch"`
	ProtocolVersion uint16 `yaml:"protocol_version"`
	// Raw, when set, is served verbatim instead of an encoded witness input.
	Raw string `yaml:"raw,omitempty"`
}

// ExpectClause specifies the expected outcome of a run.
type ExpectClause struct {
	Version        string       `yaml:"version,omitempty"`
	VersionCreated *bool        `yaml:"version_created,omitempty"`
	JobInserted    *bool        `yaml:"job_inserted,omitempty"`
	Error          *ExpectError `yaml:"error,omitempty"`
}

// ExpectError is the expected failure of a run.
type ExpectError struct {
	Stage string `yaml:"stage"`
	Kind  string `yaml:"kind"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "version_count": number of protocol_versions rows
	// - "latest_version": version of the most recently created row
	// - "job_count": number of witness_input_jobs rows
	// - "job": fields of one job row (status, blob_url, version)
	// - "blob": a file named BlobURL exists in the blob directory
	Type string `yaml:"type"`

	Count   *int              `yaml:"count,omitempty"`
	Version string            `yaml:"version,omitempty"`
	Batch   uint64            `yaml:"batch,omitempty"`
	BlobURL string            `yaml:"blob_url,omitempty"`
	Expect  map[string]string `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertVersionCount  = "version_count"
	AssertLatestVersion = "latest_version"
	AssertJobCount      = "job_count"
	AssertJob           = "job"
	AssertBlob          = "blob"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Runs) == 0 {
		return fmt.Errorf("runs list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, job := range s.Setup.Jobs {
		if job.BlobURL == "" {
			return fmt.Errorf("setup.jobs[%d]: blob_url is required", i)
		}
		if _, err := parseSemver(job.Version); err != nil {
			return fmt.Errorf("setup.jobs[%d]: %w", i, err)
		}
	}

	for i, run := range s.Runs {
		if run.Expect == nil || run.Expect.Error == nil {
			continue
		}
		if run.Expect.Error.Stage == "" || run.Expect.Error.Kind == "" {
			return fmt.Errorf("runs[%d].expect.error: stage and kind are required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertVersionCount, AssertJobCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertLatestVersion:
		if _, err := parseSemver(a.Version); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertJob:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for job", index)
		}
		for k := range a.Expect {
			switch k {
			case "status", "blob_url", "version":
			default:
				return fmt.Errorf("assertions[%d]: unknown job field %q", index, k)
			}
		}
	case AssertBlob:
		if a.BlobURL == "" {
			return fmt.Errorf("assertions[%d]: blob_url is required for blob", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
