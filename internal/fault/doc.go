// Package fault defines the structured error shared by every ingestion stage.
//
// Each error carries a Kind (what class of failure) and, once the workflow has
// seen it, a Stage (which step of the run failed). Callers branch on Kind via
// IsKind and report Stage to the operator; Error() strings are for humans.
package fault
