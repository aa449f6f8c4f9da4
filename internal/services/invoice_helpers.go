package services

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"go-invoice-service/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// moneyPlaces is the number of decimal places kept for every monetary amount
const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// ================================================================
// ARITHMETIC
// ================================================================

// CalculateItemTotal returns quantity × unitPrice rounded half-up to 2 places.
// Non-positive inputs pass through; ValidateInvoiceData rejects them.
func CalculateItemTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).Mul(unitPrice).Round(moneyPlaces)
}

// CalculateSubtotal sums the Total already carried by each item
func CalculateSubtotal(items []models.InvoiceItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total)
	}
	return subtotal
}

// CalculateTaxAmount returns subtotal × rate / 100 rounded to 2 places
func CalculateTaxAmount(subtotal, taxRatePercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRatePercent).Div(hundred).Round(moneyPlaces)
}

// CalculateInvoiceTotal returns subtotal + taxAmount rounded to 2 places
func CalculateInvoiceTotal(subtotal, taxAmount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(taxAmount).Round(moneyPlaces)
}

// RecalculateInvoice refreshes every derived amount of the invoice in place:
// item totals first, then subtotal, tax and grand total.
func RecalculateInvoice(invoice *models.Invoice) {
	if invoice == nil {
		return
	}
	for i := range invoice.Items {
		invoice.Items[i].Total = CalculateItemTotal(invoice.Items[i].Quantity, invoice.Items[i].UnitPrice)
	}
	invoice.Subtotal = CalculateSubtotal(invoice.Items)
	invoice.TaxAmount = CalculateTaxAmount(invoice.Subtotal, invoice.TaxRate)
	invoice.Total = CalculateInvoiceTotal(invoice.Subtotal, invoice.TaxAmount)
}

// ================================================================
// VALIDATION
// ================================================================

// ValidateInvoiceData collects every problem with the invoice as a readable message.
// An empty result means the invoice may be submitted.
func ValidateInvoiceData(invoice *models.Invoice) []string {
	errs := []string{}
	if invoice == nil {
		return append(errs, "Invoice data is required")
	}

	if strings.TrimSpace(invoice.Customer.Name) == "" {
		errs = append(errs, "Customer name is required")
	}
	if strings.TrimSpace(invoice.Customer.Email) == "" {
		errs = append(errs, "Customer email is required")
	}

	if len(invoice.Items) == 0 {
		errs = append(errs, "At least one item is required")
	}
	for i, item := range invoice.Items {
		if strings.TrimSpace(item.Description) == "" {
			errs = append(errs, fmt.Sprintf("Item %d: Description is required", i+1))
		}
		if item.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("Item %d: Quantity must be greater than 0", i+1))
		}
		if !item.UnitPrice.IsPositive() {
			errs = append(errs, fmt.Sprintf("Item %d: Unit price must be greater than 0", i+1))
		}
	}

	if invoice.DueDate.IsZero() {
		errs = append(errs, "Due date is required")
	}

	return errs
}

// ================================================================
// DUE DATES
// ================================================================

// IsInvoiceOverdue reports whether the invoice is past due right now
func IsInvoiceOverdue(invoice *models.Invoice) bool {
	return IsInvoiceOverdueAt(invoice, time.Now())
}

// IsInvoiceOverdueAt reports whether the invoice is past due at now.
// Paid and cancelled invoices are never overdue.
func IsInvoiceOverdueAt(invoice *models.Invoice, now time.Time) bool {
	if invoice == nil {
		return false
	}
	if invoice.Status == models.StatusPaid || invoice.Status == models.StatusCancelled {
		return false
	}
	return now.After(invoice.DueDate)
}

// GetDaysUntilDue returns the whole days left until dueDate; negative when overdue
func GetDaysUntilDue(dueDate time.Time) int {
	return GetDaysUntilDueAt(dueDate, time.Now())
}

// GetDaysUntilDueAt is GetDaysUntilDue evaluated at now
func GetDaysUntilDueAt(dueDate, now time.Time) int {
	days := dueDate.Sub(now).Hours() / 24
	return int(math.Ceil(days))
}

// ================================================================
// INVOICE NUMBERS
// ================================================================

// GenerateInvoiceNumber builds {prefix}-{last 6 digits of epoch ms}-{3-digit random}.
// Numbers are not globally unique; the repository enforces uniqueness on insert.
func GenerateInvoiceNumber(prefix string) string {
	return generateInvoiceNumberAt(prefix, time.Now(), rand.IntN(1000))
}

func generateInvoiceNumberAt(prefix string, now time.Time, random int) string {
	millis := now.UnixMilli() % 1_000_000
	if prefix == "" {
		prefix = "INV"
	}
	return fmt.Sprintf("%s-%06d-%03d", prefix, millis, random%1000)
}

// ================================================================
// STATUS PRESENTATION
// ================================================================

// StatusStyle is the display label and colors of a status badge
type StatusStyle struct {
	Label      string
	Color      string
	Background string
}

var statusStyles = map[models.InvoiceStatus]StatusStyle{
	models.StatusDraft:     {Label: "Draft", Color: "#374151", Background: "#f3f4f6"},
	models.StatusSent:      {Label: "Sent", Color: "#1d4ed8", Background: "#dbeafe"},
	models.StatusViewed:    {Label: "Viewed", Color: "#7c3aed", Background: "#ede9fe"},
	models.StatusPaid:      {Label: "Paid", Color: "#15803d", Background: "#dcfce7"},
	models.StatusOverdue:   {Label: "Overdue", Color: "#b91c1c", Background: "#fee2e2"},
	models.StatusCancelled: {Label: "Cancelled", Color: "#6b7280", Background: "#f3f4f6"},
	models.StatusRefunded:  {Label: "Refunded", Color: "#c2410c", Background: "#ffedd5"},
}

// GetStatusStyle returns the badge style of a status, falling back to draft styling
func GetStatusStyle(status models.InvoiceStatus) StatusStyle {
	if style, ok := statusStyles[status]; ok {
		return style
	}
	style := statusStyles[models.StatusDraft]
	style.Label = cases.Title(language.English).String(string(status))
	return style
}

// StatusLabel returns the human readable label of a status
func StatusLabel(status models.InvoiceStatus) string {
	return GetStatusStyle(status).Label
}

// StatusColor returns the foreground color of a status badge
func StatusColor(status models.InvoiceStatus) string {
	return GetStatusStyle(status).Color
}
