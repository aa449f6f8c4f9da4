package services

import (
	"time"

	"go-invoice-service/internal/models"

	"github.com/shopspring/decimal"
)

var (
	testIssueDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testDueDate   = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
)

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// sampleInvoice is one item {3 x 19.99} at 8.5% tax: subtotal 59.97, tax 5.10, total 65.07
func sampleInvoice() *models.Invoice {
	inv := &models.Invoice{
		ID:            "inv-1",
		InvoiceNumber: "INV-123456-001",
		Status:        models.StatusSent,
		Customer: models.Party{
			Name:  "Acme Corp",
			Email: "billing@acme.test",
			Address: models.Address{
				Street:  "1 Main St",
				City:    "Springfield",
				State:   "IL",
				ZipCode: "62701",
				Country: "USA",
			},
		},
		Company: models.Party{
			Name:  "Northwind Studio",
			Email: "hello@northwind.test",
			Phone: strPtr("+1 555 0100"),
			TaxID: strPtr("US-99-1234567"),
		},
		Items: []models.InvoiceItem{
			{ID: "item-1", Description: "Design work", Quantity: 3, UnitPrice: dec("19.99")},
		},
		TaxRate:   dec("8.5"),
		Currency:  "USD",
		IssueDate: testIssueDate,
		DueDate:   testDueDate,
		Notes:     strPtr("Thanks for the quick turnaround."),
		Terms:     strPtr("Payment due within 30 days."),
	}
	RecalculateInvoice(inv)
	return inv
}

func sampleTemplate(layout models.Layout) *models.InvoiceTemplate {
	return &models.InvoiceTemplate{
		ID:                  "tmpl-" + string(layout),
		Name:                string(layout),
		Layout:              layout,
		Colors:              models.TemplateColors{Primary: "#2563eb", Secondary: "#64748b", Accent: "#f59e0b"},
		IncludeCompanyLogo:  true,
		IncludePaymentTerms: true,
		IncludeNotes:        true,
	}
}

func paidInvoice(number, customer, email string, total string, issue time.Time, paidAfterDays int) models.Invoice {
	paid := issue.AddDate(0, 0, paidAfterDays)
	return models.Invoice{
		InvoiceNumber: number,
		Status:        models.StatusPaid,
		Customer:      models.Party{Name: customer, Email: email},
		Total:         dec(total),
		Currency:      "USD",
		IssueDate:     issue,
		DueDate:       issue.AddDate(0, 0, 30),
		PaymentDate:   &paid,
	}
}
