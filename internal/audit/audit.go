// Package audit records state-changing requests on the development server.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"

	"github.com/synergysphere/sphere/internal/store"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

// Writer persists audit entries. store.Store implements it.
type Writer interface {
	WriteAudit(ctx context.Context, e store.AuditEntry) (*store.AuditEntry, error)
}

// Recorder writes audit entries for state-mutating actions.
type Recorder struct {
	w      Writer
	logger *slog.Logger
}

// NewRecorder creates a recorder over w. A nil logger uses slog.Default.
func NewRecorder(w Writer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{w: w, logger: logger}
}

// Record writes one entry. inputs is hashed, never stored, so it may hold
// request fields but must not hold secrets. A failed write is logged and
// does not fail the action being audited.
func (r *Recorder) Record(ctx context.Context, action string, inputs interface{}, outcome, userID, resourceID, details string) {
	_, err := r.w.WriteAudit(ctx, store.AuditEntry{
		Action:     action,
		InputsHash: HashInputs(inputs),
		Outcome:    outcome,
		UserID:     userID,
		ResourceID: resourceID,
		Details:    details,
	})
	if err != nil {
		r.logger.Error("audit write failed", "action", action, "error", err)
	}
}

// HashInputs returns the hex SHA-256 of the JSON encoding of inputs.
func HashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Outcome classifies an action's error.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
