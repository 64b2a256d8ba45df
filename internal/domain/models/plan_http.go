package models

// Requests for plan execution HTTP endpoints. Defined in domain for
// consistency and reuse.

type OperationRequest struct {
	Function string `json:"function" validate:"required,min=1,max=64"`
	Input    string `json:"input" validate:"required,min=1,max=64"`
}

type CompositionRequest struct {
	Operator string `json:"operator" default:"none" validate:"oneof=mean_round consensus directional_difference divergence none"`
}

type StabilityRequestBody struct {
	MaxIterations     int     `json:"max_iterations" default:"10" validate:"gte=1,lte=100"`
	ThresholdFraction float64 `json:"threshold_fraction" default:"0.01" validate:"gt=0,lt=1"`
	Stabilizer        string  `json:"stabilizer" default:"majority_smooth" validate:"min=1,max=64"`
}

type ExecutePlanRequest struct {
	Operations  []OperationRequest    `json:"operations" validate:"required,min=1,max=16,dive"`
	Composition CompositionRequest    `json:"composition"`
	Stability   *StabilityRequestBody `json:"stability,omitempty"`
	AsOf        string                `json:"as_of,omitempty"`
}

// ExecutePlanResponse carries the plan result plus its receipt. Exactly one of
// Vector and Scalar is set, depending on the operator kind.
type ExecutePlanResponse struct {
	Status  string            `json:"status"` // converged, unstable, direct
	Vector  []int             `json:"vector,omitempty"`
	Scalar  *float64          `json:"scalar,omitempty"`
	Receipt ProvenanceReceipt `json:"receipt"`
}

// FunctionInfo describes one registered signal function.
type FunctionInfo struct {
	Identifier string `json:"identifier"`
}

// FunctionsResponse lists the frozen library surface.
type FunctionsResponse struct {
	LibraryVersion string         `json:"library_version"`
	Functions      []FunctionInfo `json:"functions"`
}
