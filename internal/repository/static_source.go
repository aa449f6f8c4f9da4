package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go-invoice-service/internal/models"
	"go-invoice-service/internal/services"
)

// staticFile is the document form of a static source; a bare invoice array is accepted too
type staticFile struct {
	Invoices  []models.Invoice         `json:"invoices"`
	Templates []models.InvoiceTemplate `json:"templates"`
}

// StaticSource is an in-memory services.InvoiceProvider used by the CLI and file-backed deployments
type StaticSource struct {
	mu        sync.RWMutex
	invoices  []models.Invoice
	templates []models.InvoiceTemplate
	now       func() time.Time
}

// NewStaticSource serves the given invoices; without templates the built-in ones are used.
// Invoices carrying items get their totals recalculated.
func NewStaticSource(invoices []models.Invoice, templates []models.InvoiceTemplate) *StaticSource {
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}

	stored := make([]models.Invoice, len(invoices))
	copy(stored, invoices)
	for i := range stored {
		if len(stored[i].Items) > 0 {
			services.RecalculateInvoice(&stored[i])
		}
	}
	sort.SliceStable(stored, func(i, j int) bool {
		if !stored[i].IssueDate.Equal(stored[j].IssueDate) {
			return stored[i].IssueDate.After(stored[j].IssueDate)
		}
		return stored[i].InvoiceNumber < stored[j].InvoiceNumber
	})

	return &StaticSource{
		invoices:  stored,
		templates: templates,
		now:       time.Now,
	}
}

// LoadStaticSource reads a JSON file holding either an invoice array or {"invoices": [...], "templates": [...]}
func LoadStaticSource(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var file staticFile
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &file.Invoices)
	} else {
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse data file %s: %w", path, err)
	}

	return NewStaticSource(file.Invoices, file.Templates), nil
}

func (s *StaticSource) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	matched := []models.Invoice{}
	for i := range s.invoices {
		if services.MatchesFilter(&s.invoices[i], filter, now) {
			matched = append(matched, s.invoices[i])
		}
	}
	return services.Paginate(matched, filter), nil
}

func (s *StaticSource) GetInvoiceByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.invoices {
		if s.invoices[i].InvoiceNumber == number {
			invoice := s.invoices[i]
			return &invoice, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", services.ErrInvoiceNotFound, number)
}

func (s *StaticSource) ListTemplates(ctx context.Context) ([]models.InvoiceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	templates := make([]models.InvoiceTemplate, len(s.templates))
	copy(templates, s.templates)
	return templates, nil
}

func (s *StaticSource) GetTemplate(ctx context.Context, key string) (*models.InvoiceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fallback *models.InvoiceTemplate
	for i := range s.templates {
		tmpl := s.templates[i]
		if key == "" {
			if tmpl.IsDefault {
				return &tmpl, nil
			}
			if fallback == nil {
				fallback = &tmpl
			}
			continue
		}
		if tmpl.ID == key || string(tmpl.Layout) == key {
			return &tmpl, nil
		}
	}

	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("%w: %q", services.ErrTemplateNotFound, key)
}
