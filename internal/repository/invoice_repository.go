package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-invoice-service/internal/compliance"
	"go-invoice-service/internal/models"
	"go-invoice-service/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxNumberAttempts bounds the regeneration of colliding invoice numbers
const maxNumberAttempts = 10

var ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")

// ErrUnknownLayout is returned when a template names a layout the renderers do not know
var ErrUnknownLayout = errors.New("unknown layout")

// ValidationError carries every problem found with a submitted invoice
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invoice validation failed: " + strings.Join(e.Messages, "; ")
}

// InvoiceRepository stores invoices and templates with gorm and serves them as a services.InvoiceProvider
type InvoiceRepository struct {
	db      *Database
	audit   *compliance.AuditTrail
	prefix  string
	numbers func(prefix string) string
	now     func() time.Time
}

func NewInvoiceRepository(db *Database, numberPrefix string) *InvoiceRepository {
	return &InvoiceRepository{
		db:      db,
		audit:   compliance.NewAuditTrail(),
		prefix:  numberPrefix,
		numbers: services.GenerateInvoiceNumber,
		now:     time.Now,
	}
}

// auditSnapshot is the part of an invoice recorded in the audit chain
type auditSnapshot struct {
	Status      models.InvoiceStatus `json:"status"`
	Customer    string               `json:"customer"`
	Total       string               `json:"total"`
	Currency    string               `json:"currency"`
	DueDate     string               `json:"due_date"`
	PaymentDate *time.Time           `json:"payment_date,omitempty"`
}

func snapshotOf(invoice *models.Invoice) auditSnapshot {
	return auditSnapshot{
		Status:      invoice.Status,
		Customer:    invoice.Customer.Email,
		Total:       invoice.Total.StringFixed(2),
		Currency:    invoice.Currency,
		DueDate:     invoice.DueDate.Format("2006-01-02"),
		PaymentDate: invoice.PaymentDate,
	}
}

// GetDB returns the database instance for direct queries
func (r *InvoiceRepository) GetDB() *gorm.DB {
	return r.db.DB
}

// ================================================================
// CORE INVOICE OPERATIONS
// ================================================================

// CreateInvoice validates, recalculates and stores a new invoice with its items.
// Without an invoice number one is generated, retrying on collisions.
func (r *InvoiceRepository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if msgs := services.ValidateInvoiceData(invoice); len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}

	now := r.now()
	services.RecalculateInvoice(invoice)
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	if invoice.Status == "" {
		invoice.Status = models.StatusDraft
	}
	if invoice.Currency == "" {
		invoice.Currency = "USD"
	}
	if invoice.IssueDate.IsZero() {
		invoice.IssueDate = now
	}
	for i := range invoice.Items {
		item := &invoice.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.InvoiceID = invoice.ID
		item.SortOrder = i
	}

	explicit := invoice.InvoiceNumber != ""
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		if !explicit {
			invoice.InvoiceNumber = r.numbers(r.prefix)
		}

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(invoice).Error; err != nil {
				return err
			}
			return r.audit.Record(tx, compliance.EventCreate, invoice.InvoiceNumber, "invoice created", nil, snapshotOf(invoice))
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		if explicit {
			return fmt.Errorf("%w: %s", ErrDuplicateInvoiceNumber, invoice.InvoiceNumber)
		}
	}

	return fmt.Errorf("%w: no free number after %d attempts", ErrDuplicateInvoiceNumber, maxNumberAttempts)
}

// GetInvoiceByNumber loads an invoice with its items in print order
func (r *InvoiceRepository) GetInvoiceByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	var invoice models.Invoice

	if err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("invoice_number = ?", number).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", services.ErrInvoiceNotFound, number)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return &invoice, nil
}

// ListInvoices returns the invoices matching filter, newest first
func (r *InvoiceRepository) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Invoice{}), filter)

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	invoices := []models.Invoice{}
	if err := query.
		Preload("Items", orderItems).
		Order("issue_date DESC, invoice_number ASC").
		Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	return invoices, nil
}

// UpdateStatus moves an invoice to status; the first transition to paid stamps the payment date
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, number string, status models.InvoiceStatus) (*models.Invoice, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid invoice status %q", status)
	}

	invoice, err := r.GetInvoiceByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	now := r.now()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	before := snapshotOf(invoice)
	invoice.Status = status
	if status == models.StatusPaid && invoice.PaymentDate == nil {
		updates["payment_date"] = now
		invoice.PaymentDate = &now
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update invoice status: %w", err)
		}
		action := fmt.Sprintf("status %s -> %s", before.Status, status)
		return r.audit.Record(tx, compliance.EventUpdate, number, action, before, snapshotOf(invoice))
	})
	if err != nil {
		return nil, err
	}

	return r.GetInvoiceByNumber(ctx, number)
}

// DeleteInvoice removes an invoice and its items
func (r *InvoiceRepository) DeleteInvoice(ctx context.Context, number string) error {
	invoice, err := r.GetInvoiceByNumber(ctx, number)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete invoice items: %w", err)
		}
		if err := tx.Delete(&models.Invoice{}, "id = ?", invoice.ID).Error; err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		return r.audit.Record(tx, compliance.EventDelete, number, "invoice deleted", snapshotOf(invoice), nil)
	})
}

// AuditTrail returns the recorded changes of an invoice, oldest first.
// Deleted invoices keep their trail.
func (r *InvoiceRepository) AuditTrail(ctx context.Context, number string) ([]compliance.AuditEvent, error) {
	return r.audit.Trail(ctx, r.db.DB, number)
}

// VerifyAuditChain recomputes the audit hash chain
func (r *InvoiceRepository) VerifyAuditChain(ctx context.Context) (*compliance.ChainStatus, error) {
	return r.audit.Verify(ctx, r.db.DB)
}

// ================================================================
// FILTERING
// ================================================================

func (r *InvoiceRepository) applyFilter(query *gorm.DB, filter models.InvoiceFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if key := strings.ToLower(strings.TrimSpace(filter.CustomerKey)); key != "" {
		query = query.Where("LOWER(customer_email) = ? OR (customer_email = '' AND LOWER(customer_name) = ?)", key, key)
	}

	if filter.StartDate != nil {
		query = query.Where("issue_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("issue_date <= ?", *filter.EndDate)
	}

	if filter.OverdueOnly {
		query = query.Where("status NOT IN ? AND due_date < ?",
			[]models.InvoiceStatus{models.StatusPaid, models.StatusCancelled}, r.now())
	}

	if term := strings.ToLower(strings.TrimSpace(filter.SearchTerm)); term != "" {
		like := "%" + term + "%"
		query = query.Where("LOWER(invoice_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ?", like, like, like)
	}

	return query
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}
