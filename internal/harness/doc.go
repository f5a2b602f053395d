// Package harness runs ingestion scenarios end to end.
//
// A scenario is a YAML file that seeds a fresh SQLite prover database, drives
// one or more ingestion runs against an in-process marketplace server and then
// asserts on the run outcomes and the final database state.
//
// Scenario format:
//
//	name: fresh_database
//	description: First run against an empty database creates the version row
//	setup:
//	  versions:
//	    - {id: 23, patch: 0, seed: 1}
//	  jobs:
//	    - {batch: 7, blob_url: witness_inputs_7.bin, version: 0.23.0}
//	runs:
//	  - artifact: {batch: 12345, protocol_version: 24}
//	    candidate: {id: 24, patch: 2}
//	    expect: {version: 0.24.2, version_created: true, job_inserted: true}
//	assertions:
//	  - {type: version_count, count: 1}
//	  - {type: job, batch: 12345, expect: {status: queued, version: 0.24.2}}
//
// Every run is deterministic: database timestamps come from a step clock and
// run ids are fixed, so a Snapshot of the Result can be compared against a
// golden file with RunWithGolden.
package harness
