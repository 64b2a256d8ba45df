package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"RegimeCast/internal/domain/models"
)

// LibraryVersionHash pins the frozen library to the run: a content hash of the
// library's declared version token plus the sorted identifiers actually
// invoked. The functions are externally supplied, so the hash pins the version
// identifier, not the code.
func LibraryVersionHash(version string, invoked []string) string {
	ids := make([]string, len(invoked))
	copy(ids, invoked)
	sort.Strings(ids)

	h := sha256.New()
	h.Write([]byte(version))
	h.Write([]byte{'\n'})
	h.Write([]byte(strings.Join(ids, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// BuildReceipt assembles the immutable provenance receipt for a completed run.
func BuildReceipt(
	libraryVersion string,
	invoked []string,
	lineage []models.Lineage,
	plan models.ExecutionPlan,
	loop *LoopResult,
	retries map[string]int,
) models.ProvenanceReceipt {
	r := models.ProvenanceReceipt{
		LibraryVersionHash:  LibraryVersionHash(libraryVersion, invoked),
		DataLineage:         lineage,
		ExecutionPlan:       plan,
		CompositionOperator: plan.Composition.Operator,
		CreatedAt:           time.Now().UTC(),
	}
	if len(retries) > 0 {
		r.OperationRetries = retries
	}
	if loop != nil {
		r.IterationsRun = loop.Iterations
		r.FinalHammingDistance = loop.Hamming
		r.Converged = loop.Converged
	} else {
		// No stability request: a direct result is trivially converged.
		r.Converged = true
	}
	return r
}
