package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go-invoice-service/internal/models"
)

var (
	ErrNilInvoice  = errors.New("invoice cannot be nil")
	ErrNilTemplate = errors.New("invoice template cannot be nil")
	ErrEmptyItems  = errors.New("invoice has no items")
)

// PartyBlock is a printed name-and-address block
type PartyBlock struct {
	Heading string
	Name    string
	Lines   []string
}

// DocumentLine is one printed row of the item table
type DocumentLine struct {
	Description string
	Quantity    string
	UnitPrice   string
	Total       string
}

// Document is the layout-independent printed content of an invoice.
// Every layout draws exactly these strings; only styling differs.
type Document struct {
	Layout models.Layout
	Colors models.TemplateColors

	Title         string
	InvoiceNumber string
	LogoPath      string
	LogoInitials  string
	ShowLogo      bool

	Company  PartyBlock
	Customer PartyBlock

	IssueDate   string
	DueDate     string
	Status      string
	StatusColor string

	Lines []DocumentLine

	Subtotal string
	TaxLabel string
	Tax      string
	Total    string
	Currency string

	Notes string
	Terms string

	PaymentPayload string
	Footer         string
}

// BuildDocument assembles the printed content of invoice as styled by tmpl
func BuildDocument(invoice *models.Invoice, tmpl *models.InvoiceTemplate) (*Document, error) {
	return buildDocument(invoice, tmpl, FormatCurrency)
}

func buildDocument(invoice *models.Invoice, tmpl *models.InvoiceTemplate, money MoneyFormatter) (*Document, error) {
	if invoice == nil {
		return nil, ErrNilInvoice
	}
	if tmpl == nil {
		return nil, ErrNilTemplate
	}
	if len(invoice.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyItems, invoice.InvoiceNumber)
	}

	currency := invoice.Currency
	if currency == "" {
		currency = "USD"
	}

	style := GetStatusStyle(invoice.Status)
	doc := &Document{
		Layout:        tmpl.Layout,
		Colors:        tmpl.Colors,
		Title:         "INVOICE",
		InvoiceNumber: invoice.InvoiceNumber,
		ShowLogo:      tmpl.IncludeCompanyLogo,
		LogoInitials:  initials(invoice.Company.Name),
		Company:       partyBlock("From", invoice.Company),
		Customer:      partyBlock("Bill To", invoice.Customer),
		IssueDate:     FormatDate(invoice.IssueDate),
		DueDate:       FormatDate(invoice.DueDate),
		Status:        style.Label,
		StatusColor:   style.Color,
		Subtotal:      money(invoice.Subtotal, currency),
		TaxLabel:      fmt.Sprintf("Tax (%s)", FormatPercent(invoice.TaxRate)),
		Tax:           money(invoice.TaxAmount, currency),
		Total:         money(invoice.Total, currency),
		Currency:      currency,
		Footer:        footerText(invoice.Company),
	}

	if tmpl.IncludeCompanyLogo && invoice.Company.LogoPath != nil {
		doc.LogoPath = strings.TrimSpace(*invoice.Company.LogoPath)
	}

	for _, item := range invoice.Items {
		doc.Lines = append(doc.Lines, DocumentLine{
			Description: item.Description,
			Quantity:    strconv.Itoa(item.Quantity),
			UnitPrice:   money(item.UnitPrice, currency),
			Total:       money(item.Total, currency),
		})
	}

	if tmpl.IncludeNotes {
		doc.Notes = invoice.NotesText()
	}
	if tmpl.IncludePaymentTerms {
		doc.Terms = invoice.TermsText()
	}
	if tmpl.IncludePaymentCode {
		doc.PaymentPayload = PaymentPayload(invoice)
	}

	return doc, nil
}

// TextContent returns every printed string of the document in reading order
func (d *Document) TextContent() []string {
	content := []string{d.Title, d.InvoiceNumber}
	for _, block := range []PartyBlock{d.Company, d.Customer} {
		content = append(content, block.Heading, block.Name)
		content = append(content, block.Lines...)
	}
	content = append(content, d.IssueDate, d.DueDate, d.Status)
	for _, line := range d.Lines {
		content = append(content, line.Description, line.Quantity, line.UnitPrice, line.Total)
	}
	content = append(content, d.Subtotal, d.TaxLabel, d.Tax, d.Total)
	if d.Notes != "" {
		content = append(content, d.Notes)
	}
	if d.Terms != "" {
		content = append(content, d.Terms)
	}
	if d.Footer != "" {
		content = append(content, d.Footer)
	}
	return content
}

func partyBlock(heading string, party models.Party) PartyBlock {
	block := PartyBlock{Heading: heading, Name: party.Name}
	if party.Email != "" {
		block.Lines = append(block.Lines, party.Email)
	}
	if party.Phone != nil && *party.Phone != "" {
		block.Lines = append(block.Lines, *party.Phone)
	}
	block.Lines = append(block.Lines, party.Address.Lines()...)
	if party.TaxID != nil && *party.TaxID != "" {
		block.Lines = append(block.Lines, "Tax ID: "+*party.TaxID)
	}
	return block
}

func footerText(company models.Party) string {
	parts := []string{"Thank you for your business!"}
	if company.Email != "" {
		parts = append(parts, company.Email)
	}
	if company.TaxID != nil && *company.TaxID != "" {
		parts = append(parts, "Tax ID: "+*company.TaxID)
	}
	return strings.Join(parts, " | ")
}

// initials builds the monogram drawn when no logo image is available
func initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			b.WriteRune(r)
			break
		}
		if b.Len() >= 2 {
			break
		}
	}
	return strings.ToUpper(b.String())
}

// InvoiceFileName is the download name of a single invoice PDF
func InvoiceFileName(invoiceNumber string) string {
	return fmt.Sprintf("invoice-%s.pdf", invoiceNumber)
}
