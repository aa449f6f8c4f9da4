package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the caller-driven lifecycle label of an invoice
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusViewed    InvoiceStatus = "viewed"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
	StatusRefunded  InvoiceStatus = "refunded"
)

// AllStatuses lists every known status in display order
var AllStatuses = []InvoiceStatus{
	StatusDraft,
	StatusSent,
	StatusViewed,
	StatusPaid,
	StatusOverdue,
	StatusCancelled,
	StatusRefunded,
}

// IsValid reports whether s is one of the known statuses
func (s InvoiceStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Address is the postal address of a party
type Address struct {
	Street  string `gorm:"column:street" json:"street"`
	City    string `gorm:"column:city" json:"city"`
	State   string `gorm:"column:state" json:"state"`
	ZipCode string `gorm:"column:zip_code" json:"zipCode"`
	Country string `gorm:"column:country" json:"country"`
}

// Lines returns the non-empty address lines in print order
func (a Address) Lines() []string {
	var lines []string
	if strings.TrimSpace(a.Street) != "" {
		lines = append(lines, a.Street)
	}

	cityLine := a.City
	if a.State != "" {
		if cityLine != "" {
			cityLine += ", "
		}
		cityLine += a.State
	}
	if a.ZipCode != "" {
		if cityLine != "" {
			cityLine += " "
		}
		cityLine += a.ZipCode
	}
	if strings.TrimSpace(cityLine) != "" {
		lines = append(lines, cityLine)
	}

	if strings.TrimSpace(a.Country) != "" {
		lines = append(lines, a.Country)
	}
	return lines
}

// Party is a customer or company snapshot copied into the invoice at creation time.
// Later changes to the customer record never alter an issued invoice.
type Party struct {
	Name     string  `gorm:"column:name" json:"name"`
	Email    string  `gorm:"column:email" json:"email"`
	Phone    *string `gorm:"column:phone" json:"phone,omitempty"`
	Address  Address `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	TaxID    *string `gorm:"column:tax_id" json:"taxId,omitempty"`
	LogoPath *string `gorm:"column:logo_path" json:"logoPath,omitempty"`
}

// InvoiceItem is a single line on an invoice, owned by its parent invoice
type InvoiceItem struct {
	ID          string           `gorm:"primaryKey;column:id" json:"id"`
	InvoiceID   string           `gorm:"index;not null;column:invoice_id" json:"-"`
	Description string           `gorm:"type:text;not null;column:description" json:"description"`
	Quantity    int              `gorm:"not null;default:1;column:quantity" json:"quantity"`
	UnitPrice   decimal.Decimal  `gorm:"type:decimal(12,2);not null;column:unit_price" json:"unitPrice"`
	Total       decimal.Decimal  `gorm:"type:decimal(12,2);not null;column:total" json:"total"`
	TaxRate     *decimal.Decimal `gorm:"type:decimal(5,2);column:tax_rate" json:"taxRate,omitempty"`
	SortOrder   int              `gorm:"column:sort_order" json:"-"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// Invoice represents an invoice document
type Invoice struct {
	ID            string        `gorm:"primaryKey;column:id" json:"id"`
	InvoiceNumber string        `gorm:"uniqueIndex;size:64;not null;column:invoice_number" json:"invoiceNumber"`
	Status        InvoiceStatus `gorm:"size:16;not null;default:'draft';column:status" json:"status"`
	Customer      Party         `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Company       Party         `gorm:"embedded;embeddedPrefix:company_" json:"company"`
	Items         []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`

	// Financial Details
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null;column:subtotal" json:"subtotal"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;column:tax_rate" json:"taxRate"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;column:tax_amount" json:"taxAmount"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null;column:total" json:"total"`
	Currency  string          `gorm:"size:3;not null;default:'USD';column:currency" json:"currency"`

	DueDate     time.Time  `gorm:"not null;column:due_date" json:"dueDate"`
	IssueDate   time.Time  `gorm:"not null;column:issue_date" json:"issueDate"`
	PaymentDate *time.Time `gorm:"column:payment_date" json:"paymentDate,omitempty"`

	Notes *string `gorm:"type:text;column:notes" json:"notes,omitempty"`
	Terms *string `gorm:"type:text;column:terms" json:"terms,omitempty"`

	ProjectID   *string `gorm:"column:project_id" json:"projectId,omitempty"`
	MilestoneID *string `gorm:"column:milestone_id" json:"milestoneId,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// NotesText returns the notes or an empty string
func (i *Invoice) NotesText() string {
	if i.Notes == nil {
		return ""
	}
	return strings.TrimSpace(*i.Notes)
}

// TermsText returns the payment terms or an empty string
func (i *Invoice) TermsText() string {
	if i.Terms == nil {
		return ""
	}
	return strings.TrimSpace(*i.Terms)
}

// Layout selects one of the visual variants of the invoice document
type Layout string

const (
	LayoutModern       Layout = "modern"
	LayoutClassic      Layout = "classic"
	LayoutMinimal      Layout = "minimal"
	LayoutProfessional Layout = "professional"
)

// AllLayouts lists the supported layouts
var AllLayouts = []Layout{LayoutModern, LayoutClassic, LayoutMinimal, LayoutProfessional}

// TemplateColors holds the hex colors of a template
type TemplateColors struct {
	Primary   string `gorm:"column:primary" json:"primary"`
	Secondary string `gorm:"column:secondary" json:"secondary"`
	Accent    string `gorm:"column:accent" json:"accent"`
}

// InvoiceTemplate is pure presentation configuration, selected per render
type InvoiceTemplate struct {
	ID                  string         `gorm:"primaryKey;column:id" json:"id"`
	Name                string         `gorm:"not null;column:name" json:"name"`
	Description         string         `gorm:"column:description" json:"description"`
	IsDefault           bool           `gorm:"not null;default:false;column:is_default" json:"isDefault"`
	Colors              TemplateColors `gorm:"embedded;embeddedPrefix:color_" json:"colors"`
	Layout              Layout         `gorm:"size:16;not null;column:layout" json:"layout"`
	IncludeCompanyLogo  bool           `gorm:"column:include_company_logo" json:"includeCompanyLogo"`
	IncludePaymentTerms bool           `gorm:"column:include_payment_terms" json:"includePaymentTerms"`
	IncludeNotes        bool           `gorm:"column:include_notes" json:"includeNotes"`
	IncludePaymentCode  bool           `gorm:"column:include_payment_code" json:"includePaymentCode"`
	CreatedAt           time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt           time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

func (InvoiceTemplate) TableName() string {
	return "invoice_templates"
}

// ================================================================
// ANALYTICS
// ================================================================

// MonthlyRevenue is one calendar-month bucket of paid revenue
type MonthlyRevenue struct {
	Month    string          `json:"month"` // YYYY-MM
	Revenue  decimal.Decimal `json:"revenue"`
	Invoices int             `json:"invoices"`
}

// CustomerRevenue is the paid revenue attributed to one customer
type CustomerRevenue struct {
	CustomerName string          `json:"customerName"`
	Email        string          `json:"email"`
	Revenue      decimal.Decimal `json:"revenue"`
	Invoices     int             `json:"invoices"`
}

// StatusCount is the number of invoices and their summed totals per status
type StatusCount struct {
	Status InvoiceStatus   `json:"status"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// InvoiceAnalytics is derived on demand from an invoice collection and never persisted
type InvoiceAnalytics struct {
	TotalInvoices      int               `json:"totalInvoices"`
	TotalRevenue       decimal.Decimal   `json:"totalRevenue"`
	PaidInvoices       int               `json:"paidInvoices"`
	PendingInvoices    int               `json:"pendingInvoices"`
	OverdueInvoices    int               `json:"overdueInvoices"`
	AveragePaymentTime float64           `json:"averagePaymentTime"` // days
	PaymentRate        float64           `json:"paymentRate"`        // percent
	MonthlyRevenue     []MonthlyRevenue  `json:"monthlyRevenue"`
	TopCustomers       []CustomerRevenue `json:"topCustomers"`
	StatusDistribution []StatusCount     `json:"statusDistribution"`
	RangeStart         *time.Time        `json:"rangeStart,omitempty"`
	RangeEnd           *time.Time        `json:"rangeEnd,omitempty"`
}

// InvoiceFilter represents filters for listing invoices
type InvoiceFilter struct {
	Status      InvoiceStatus `form:"status" json:"status"`
	CustomerKey string        `form:"customer" json:"customer"`
	StartDate   *time.Time    `form:"start_date" time_format:"2006-01-02" json:"startDate"`
	EndDate     *time.Time    `form:"end_date" time_format:"2006-01-02" json:"endDate"`
	OverdueOnly bool          `form:"overdue_only" json:"overdueOnly"`
	SearchTerm  string        `form:"search" json:"searchTerm"`
	Page        int           `form:"page" json:"page"`
	PageSize    int           `form:"page_size" json:"pageSize"`
}
