package models

import "time"

// Lineage records where one input series came from.
type Lineage struct {
	Ref      string    `json:"ref"`
	SourceID string    `json:"source_id"`
	AsOf     time.Time `json:"as_of"`
}

// StabilitySummary is what survives of the loop state after it ends.
type StabilitySummary struct {
	IterationsRun        int  `json:"iterations_run"`
	FinalHammingDistance int  `json:"final_hamming_distance"`
	Converged            bool `json:"converged"`
}

// ProvenanceReceipt is the auditable record of one run. Immutable once
// emitted; the field set is fixed and additive-only across versions. A receipt
// is never emitted for a run that raised an unrecovered error.
type ProvenanceReceipt struct {
	LibraryVersionHash   string         `json:"library_version_hash"`
	DataLineage          []Lineage      `json:"data_lineage"`
	ExecutionPlan        ExecutionPlan  `json:"execution_plan"`
	CompositionOperator  Operator       `json:"composition_operator_used"`
	IterationsRun        int            `json:"iterations_run"`
	FinalHammingDistance int            `json:"final_hamming_distance"`
	Converged            bool           `json:"converged"`
	OperationRetries     map[string]int `json:"operation_retries,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}
