package plan

import "fmt"

// AdjustmentKind separates corrections that rewrote a value from
// warning-only findings that left the content untouched.
type AdjustmentKind string

const (
	AdjustmentCorrection AdjustmentKind = "correction"
	AdjustmentWarning    AdjustmentKind = "warning"
)

// Adjustment is an append-only audit record of a single deterministic
// change (or warning) produced by a validation rule. Records are never
// mutated after creation.
type Adjustment struct {
	FieldPath string         `json:"field_path"`
	Original  string         `json:"original"`
	Corrected string         `json:"corrected"`
	Rule      string         `json:"rule"`
	Kind      AdjustmentKind `json:"kind"`
	Reason    string         `json:"reason"`
}

// Corrected builds a correction record. Values are formatted with %v so
// numeric originals read naturally in the audit trail.
func CorrectedAdjustment(rule, fieldPath string, original, corrected any, reason string) Adjustment {
	return Adjustment{
		FieldPath: fieldPath,
		Original:  fmt.Sprintf("%v", original),
		Corrected: fmt.Sprintf("%v", corrected),
		Rule:      rule,
		Kind:      AdjustmentCorrection,
		Reason:    reason,
	}
}

// WarningAdjustment builds a warning-only record; content was not rewritten.
func WarningAdjustment(rule, fieldPath, reason string) Adjustment {
	return Adjustment{
		FieldPath: fieldPath,
		Rule:      rule,
		Kind:      AdjustmentWarning,
		Reason:    reason,
	}
}
