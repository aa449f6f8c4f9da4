package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-invoice-service/internal/models"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrTemplateNotFound = errors.New("invoice template not found")
)

// InvoiceProvider supplies invoices and templates to the renderers and aggregators.
// Implementations must return ErrInvoiceNotFound / ErrTemplateNotFound (possibly wrapped) for misses.
type InvoiceProvider interface {
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error)
	GetInvoiceByNumber(ctx context.Context, number string) (*models.Invoice, error)
	ListTemplates(ctx context.Context) ([]models.InvoiceTemplate, error)
	// GetTemplate resolves a template by ID or layout name; an empty key selects the default template
	GetTemplate(ctx context.Context, key string) (*models.InvoiceTemplate, error)
}

// MatchesFilter reports whether invoice passes every set criterion of filter at now
func MatchesFilter(invoice *models.Invoice, filter models.InvoiceFilter, now time.Time) bool {
	if filter.Status != "" && invoice.Status != filter.Status {
		return false
	}
	if filter.CustomerKey != "" && customerKey(invoice.Customer) != strings.ToLower(strings.TrimSpace(filter.CustomerKey)) {
		return false
	}
	if filter.StartDate != nil && invoice.IssueDate.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && invoice.IssueDate.After(*filter.EndDate) {
		return false
	}
	if filter.OverdueOnly && !IsInvoiceOverdueAt(invoice, now) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(filter.SearchTerm)); term != "" {
		haystack := strings.ToLower(invoice.InvoiceNumber + " " + invoice.Customer.Name + " " + invoice.Customer.Email)
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// Paginate applies filter.Page and filter.PageSize; a zero page size returns everything
func Paginate(invoices []models.Invoice, filter models.InvoiceFilter) []models.Invoice {
	if filter.PageSize <= 0 {
		return invoices
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.PageSize
	if start >= len(invoices) {
		return []models.Invoice{}
	}
	end := start + filter.PageSize
	if end > len(invoices) {
		end = len(invoices)
	}
	return invoices[start:end]
}
