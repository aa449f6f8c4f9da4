package repository

import (
	"context"
	"errors"
	"fmt"

	"go-invoice-service/internal/models"
	"go-invoice-service/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTemplates returns one built-in template per layout, modern being the default
func DefaultTemplates() []models.InvoiceTemplate {
	return []models.InvoiceTemplate{
		{
			ID:                  "modern",
			Name:                "Modern",
			Description:         "Colored header band with a filled item table",
			IsDefault:           true,
			Layout:              models.LayoutModern,
			Colors:              models.TemplateColors{Primary: "#2563eb", Secondary: "#64748b", Accent: "#f59e0b"},
			IncludeCompanyLogo:  true,
			IncludePaymentTerms: true,
			IncludeNotes:        true,
			IncludePaymentCode:  true,
		},
		{
			ID:                  "classic",
			Name:                "Classic",
			Description:         "Serif type with a centered title and ruled table",
			Layout:              models.LayoutClassic,
			Colors:              models.TemplateColors{Primary: "#1f2937", Secondary: "#4b5563", Accent: "#92400e"},
			IncludeCompanyLogo:  true,
			IncludePaymentTerms: true,
			IncludeNotes:        true,
		},
		{
			ID:                  "minimal",
			Name:                "Minimal",
			Description:         "Plain layout with hairline separators",
			Layout:              models.LayoutMinimal,
			Colors:              models.TemplateColors{Primary: "#111827", Secondary: "#6b7280", Accent: "#9ca3af"},
			IncludePaymentTerms: true,
			IncludeNotes:        true,
		},
		{
			ID:                  "professional",
			Name:                "Professional",
			Description:         "Right aligned header with a striped item table",
			Layout:              models.LayoutProfessional,
			Colors:              models.TemplateColors{Primary: "#0f172a", Secondary: "#334155", Accent: "#0ea5e9"},
			IncludeCompanyLogo:  true,
			IncludePaymentTerms: true,
			IncludeNotes:        true,
			IncludePaymentCode:  true,
		},
	}
}

// ListTemplates returns all templates, default first
func (r *InvoiceRepository) ListTemplates(ctx context.Context) ([]models.InvoiceTemplate, error) {
	templates := []models.InvoiceTemplate{}
	if err := r.db.WithContext(ctx).Order("is_default DESC, name ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// GetTemplate resolves a template by ID or layout name; an empty key selects the default
func (r *InvoiceRepository) GetTemplate(ctx context.Context, key string) (*models.InvoiceTemplate, error) {
	var tmpl models.InvoiceTemplate

	query := r.db.WithContext(ctx).Order("is_default DESC, name ASC")
	if key != "" {
		query = query.Where("id = ? OR layout = ?", key, key)
	}

	if err := query.First(&tmpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", services.ErrTemplateNotFound, key)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &tmpl, nil
}

// SaveTemplate creates or updates a template. Saving a default clears the flag on every other template.
func (r *InvoiceRepository) SaveTemplate(ctx context.Context, tmpl *models.InvoiceTemplate) error {
	if !isKnownLayout(tmpl.Layout) {
		return fmt.Errorf("%w: %q", ErrUnknownLayout, tmpl.Layout)
	}
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tmpl.IsDefault {
			if err := tx.Model(&models.InvoiceTemplate{}).
				Where("id <> ?", tmpl.ID).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("failed to clear default template: %w", err)
			}
		}
		if err := tx.Save(tmpl).Error; err != nil {
			return fmt.Errorf("failed to save template: %w", err)
		}
		return nil
	})
}

// SeedDefaultTemplates stores the built-in templates when none exist yet
func (r *InvoiceRepository) SeedDefaultTemplates(ctx context.Context) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceTemplate{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count templates: %w", err)
	}
	if count > 0 {
		return nil
	}

	templates := DefaultTemplates()
	if err := r.db.WithContext(ctx).Create(&templates).Error; err != nil {
		return fmt.Errorf("failed to seed templates: %w", err)
	}
	return nil
}

func isKnownLayout(layout models.Layout) bool {
	for _, l := range models.AllLayouts {
		if l == layout {
			return true
		}
	}
	return false
}
