package store

import "github.com/roach88/provermarket/internal/fault"

// WitnessJobStatus is the status column of witness_input_jobs.
type WitnessJobStatus string

const (
	WitnessJobQueued           WitnessJobStatus = "queued"
	WitnessJobInProgress       WitnessJobStatus = "in_progress"
	WitnessJobSuccessful       WitnessJobStatus = "successful"
	WitnessJobFailed           WitnessJobStatus = "failed"
	WitnessJobSkipped          WitnessJobStatus = "skipped"
	WitnessJobWaitingForProofs WitnessJobStatus = "waiting_for_proofs"
)

// ParseWitnessJobStatus validates a status read from the database.
func ParseWitnessJobStatus(s string) (WitnessJobStatus, error) {
	switch st := WitnessJobStatus(s); st {
	case WitnessJobQueued, WitnessJobInProgress, WitnessJobSuccessful,
		WitnessJobFailed, WitnessJobSkipped, WitnessJobWaitingForProofs:
		return st, nil
	}
	return "", fault.Newf(fault.KindValidation, "unknown witness job status %q", s)
}

// CompressionJobStatus is the status column of proof_compression_jobs.
type CompressionJobStatus string

const (
	CompressionJobQueued       CompressionJobStatus = "queued"
	CompressionJobInProgress   CompressionJobStatus = "in_progress"
	CompressionJobSuccessful   CompressionJobStatus = "successful"
	CompressionJobFailed       CompressionJobStatus = "failed"
	CompressionJobSentToServer CompressionJobStatus = "sent_to_server"
	CompressionJobSkipped      CompressionJobStatus = "skipped"
)

// ParseCompressionJobStatus validates a status read from the database.
func ParseCompressionJobStatus(s string) (CompressionJobStatus, error) {
	switch st := CompressionJobStatus(s); st {
	case CompressionJobQueued, CompressionJobInProgress, CompressionJobSuccessful,
		CompressionJobFailed, CompressionJobSentToServer, CompressionJobSkipped:
		return st, nil
	}
	return "", fault.Newf(fault.KindValidation, "unknown compression job status %q", s)
}
