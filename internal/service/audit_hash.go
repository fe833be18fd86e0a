package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"tipsettle/internal/domain"
)

// canonicalJSON marshals v with object keys sorted and no insignificant whitespace,
// so a value read back from jsonb hashes the same as the value that was written.
func canonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

func sha256Hex(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type sealedEvent struct {
	Sequence   int64           `json:"sequence"`
	EventType  string          `json:"event_type"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	ActorEmail *string         `json:"actor_email"`
	Timestamp  string          `json:"timestamp"`
	Changes    json.RawMessage `json:"changes"`
}

// EventHash computes immutable_hash = SHA-256(prev_hash || canonical_json(event)).
func EventHash(prevHash string, ev *domain.AuditEvent) (string, error) {
	changes := ev.Changes
	if len(changes) == 0 {
		changes = json.RawMessage("null")
	}
	payload, err := canonicalJSON(sealedEvent{
		Sequence:   ev.Sequence,
		EventType:  ev.EventType,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID.String(),
		ActorEmail: ev.ActorEmail,
		Timestamp:  ev.OccurredAt.UTC().Format(time.RFC3339Nano),
		Changes:    changes,
	})
	if err != nil {
		return "", err
	}
	return sha256Hex([]byte(prevHash), payload), nil
}

type sealedLine struct {
	PaymentID        *string `json:"payment_id"`
	EmployeeID       string  `json:"employee_id"`
	GrossAmount      int64   `json:"gross_amount"`
	AllocationMethod string  `json:"allocation_method"`
	Timestamp        string  `json:"timestamp"`
}

// LineHash computes the audit_hash stamped on an allocation line at finalisation.
func LineHash(l *domain.AllocationLine, finalisedAt time.Time) (string, error) {
	var pid *string
	if l.PaymentID != nil {
		s := l.PaymentID.String()
		pid = &s
	}
	payload, err := canonicalJSON(sealedLine{
		PaymentID:        pid,
		EmployeeID:       l.EmployeeID.String(),
		GrossAmount:      l.GrossAmount,
		AllocationMethod: string(l.AllocationMethod),
		Timestamp:        finalisedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", err
	}
	return sha256Hex(payload), nil
}
