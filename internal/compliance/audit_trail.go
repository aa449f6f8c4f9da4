package compliance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Event types
const (
	EventCreate = "CREATE"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// invoices and their audit records are kept for ten years
const retentionYears = 10

// ErrChainConflict means another writer appended to the chain first
var ErrChainConflict = errors.New("audit chain was extended concurrently")

// AuditEvent is one link in the invoice audit chain. Every event stores the hash of its
// predecessor, so rewriting or removing a stored event breaks every later hash.
type AuditEvent struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	EventType     string    `json:"event_type" gorm:"size:16;not null;index"`
	InvoiceNumber string    `json:"invoice_number" gorm:"size:64;not null;index"`
	Action        string    `json:"action" gorm:"not null"`
	OldValues     string    `json:"old_values" gorm:"type:text"`
	NewValues     string    `json:"new_values" gorm:"type:text"`
	EventHash     string    `json:"event_hash" gorm:"size:64;not null;uniqueIndex"`
	PreviousHash  string    `json:"previous_hash" gorm:"size:64;uniqueIndex"` // one successor per link
	RetentionDate time.Time `json:"retention_date" gorm:"not null;index"`
	Timestamp     time.Time `json:"timestamp" gorm:"not null;index"`
}

func (AuditEvent) TableName() string {
	return "invoice_audit_events"
}

// ChainStatus is the outcome of a full chain verification
type ChainStatus struct {
	Intact     bool      `json:"intact"`
	Events     int       `json:"events"`
	BrokenAt   uint      `json:"broken_at,omitempty"`
	Problem    string    `json:"problem,omitempty"`
	VerifiedAt time.Time `json:"verified_at"`
}

// AuditTrail appends invoice changes to a hash chain. Events are written through the
// caller's transaction so a rolled back change leaves no audit record behind.
type AuditTrail struct {
	mu  sync.Mutex
	now func() time.Time
}

func NewAuditTrail() *AuditTrail {
	return &AuditTrail{now: time.Now}
}

// Record appends an event inside tx. Old and new values are stored as JSON.
func (at *AuditTrail) Record(tx *gorm.DB, eventType, invoiceNumber, action string, oldValues, newValues interface{}) error {
	at.mu.Lock()
	defer at.mu.Unlock()

	oldJSON, err := marshalValues(oldValues)
	if err != nil {
		return err
	}
	newJSON, err := marshalValues(newValues)
	if err != nil {
		return err
	}

	var last AuditEvent
	previousHash := ""
	err = tx.Order("id DESC").Limit(1).Find(&last).Error
	if err != nil {
		return fmt.Errorf("failed to read audit chain head: %w", err)
	}
	if last.ID != 0 {
		previousHash = last.EventHash
	}

	now := at.now().UTC().Truncate(time.Millisecond)
	event := &AuditEvent{
		EventType:     eventType,
		InvoiceNumber: invoiceNumber,
		Action:        action,
		OldValues:     oldJSON,
		NewValues:     newJSON,
		PreviousHash:  previousHash,
		RetentionDate: now.AddDate(retentionYears, 0, 0),
		Timestamp:     now,
	}
	event.EventHash = eventHash(event)

	if err := tx.Create(event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// not wrapped: callers retry on duplicated invoice numbers
			return fmt.Errorf("%w: %v", ErrChainConflict, err)
		}
		return fmt.Errorf("failed to create audit event: %w", err)
	}
	return nil
}

// Trail returns the events of one invoice, oldest first
func (at *AuditTrail) Trail(ctx context.Context, db *gorm.DB, invoiceNumber string) ([]AuditEvent, error) {
	var events []AuditEvent
	if err := db.WithContext(ctx).
		Where("invoice_number = ?", invoiceNumber).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}
	return events, nil
}

// Verify walks the whole chain and recomputes every hash
func (at *AuditTrail) Verify(ctx context.Context, db *gorm.DB) (*ChainStatus, error) {
	var events []AuditEvent
	if err := db.WithContext(ctx).Order("id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve audit events: %w", err)
	}

	status := &ChainStatus{Intact: true, Events: len(events), VerifiedAt: at.now()}
	previous := ""
	for i := range events {
		event := &events[i]
		switch {
		case event.PreviousHash != previous:
			status.Problem = "previous hash mismatch"
		case event.EventHash != eventHash(event):
			status.Problem = "event hash mismatch"
		default:
			previous = event.EventHash
			continue
		}
		status.Intact = false
		status.BrokenAt = event.ID
		return status, nil
	}
	return status, nil
}

func marshalValues(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode audit values: %w", err)
	}
	return string(data), nil
}

// eventHash covers everything but the ID and the hash itself. The timestamp enters as
// unix millis so the hash survives the database returning it in another zone.
func eventHash(event *AuditEvent) string {
	hashData := fmt.Sprintf("%s:%s:%s:%s:%d:%s:%s",
		event.EventType,
		event.InvoiceNumber,
		event.Action,
		event.PreviousHash,
		event.Timestamp.UnixMilli(),
		event.OldValues,
		event.NewValues,
	)

	hash := sha256.Sum256([]byte(hashData))
	return hex.EncodeToString(hash[:])
}
