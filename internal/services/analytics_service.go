package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"go-invoice-service/internal/models"

	"github.com/shopspring/decimal"
)

// topCustomerLimit caps the top customers view
const topCustomerLimit = 5

// TimeRange bounds invoices by issue date; a zero bound is open
type TimeRange struct {
	Period string
	Start  time.Time
	End    time.Time
}

// AllTime is the unbounded range
func AllTime() TimeRange {
	return TimeRange{Period: "all"}
}

// Contains reports whether t falls inside the range, bounds inclusive
func (r TimeRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Label is the human readable name of the range
func (r TimeRange) Label() string {
	switch r.Period {
	case "7days":
		return "Last 7 days"
	case "30days":
		return "Last 30 days"
	case "90days":
		return "Last 90 days"
	case "1year":
		return "Last 12 months"
	case "all":
		return "All time"
	}
	if !r.Start.IsZero() && !r.End.IsZero() {
		return FormatDate(r.Start) + " - " + FormatDate(r.End)
	}
	return "Custom range"
}

// ParseTimeRange resolves an analytics period ending at now.
// Unknown periods fall back to the last 30 days.
func ParseTimeRange(period string, now time.Time) TimeRange {
	r := TimeRange{Period: strings.ToLower(strings.TrimSpace(period)), End: now}
	switch r.Period {
	case "7days":
		r.Start = now.AddDate(0, 0, -7)
	case "30days":
		r.Start = now.AddDate(0, 0, -30)
	case "90days":
		r.Start = now.AddDate(0, 0, -90)
	case "1year":
		r.Start = now.AddDate(-1, 0, 0)
	case "all":
		return AllTime()
	default:
		r.Period = "30days"
		r.Start = now.AddDate(0, 0, -30)
	}
	return r
}

// GetInvoiceAnalytics aggregates the invoices issued inside r
func GetInvoiceAnalytics(invoices []models.Invoice, r TimeRange) models.InvoiceAnalytics {
	return GetInvoiceAnalyticsAt(invoices, r, time.Now())
}

// GetInvoiceAnalyticsAt is GetInvoiceAnalytics with overdue status derived at now
func GetInvoiceAnalyticsAt(invoices []models.Invoice, r TimeRange, now time.Time) models.InvoiceAnalytics {
	analytics := models.InvoiceAnalytics{
		TotalRevenue:       decimal.Zero,
		MonthlyRevenue:     []models.MonthlyRevenue{},
		TopCustomers:       []models.CustomerRevenue{},
		StatusDistribution: []models.StatusCount{},
	}
	if !r.Start.IsZero() {
		start := r.Start
		analytics.RangeStart = &start
	}
	if !r.End.IsZero() {
		end := r.End
		analytics.RangeEnd = &end
	}

	months := map[string]*models.MonthlyRevenue{}
	customers := map[string]*models.CustomerRevenue{}
	statuses := map[models.InvoiceStatus]*models.StatusCount{}

	var paymentDays float64
	var timedPayments int

	for i := range invoices {
		inv := &invoices[i]
		if !r.Contains(inv.IssueDate) {
			continue
		}
		analytics.TotalInvoices++

		sc, ok := statuses[inv.Status]
		if !ok {
			sc = &models.StatusCount{Status: inv.Status, Amount: decimal.Zero}
			statuses[inv.Status] = sc
		}
		sc.Count++
		sc.Amount = sc.Amount.Add(inv.Total)

		overdue := inv.Status == models.StatusOverdue || IsInvoiceOverdueAt(inv, now)
		switch {
		case inv.Status == models.StatusPaid:
			analytics.PaidInvoices++
		case overdue:
			analytics.OverdueInvoices++
		case inv.Status == models.StatusSent || inv.Status == models.StatusViewed:
			analytics.PendingInvoices++
		}

		if inv.Status != models.StatusPaid {
			continue
		}

		analytics.TotalRevenue = analytics.TotalRevenue.Add(inv.Total)

		if inv.PaymentDate != nil {
			paymentDays += inv.PaymentDate.Sub(inv.IssueDate).Hours() / 24
			timedPayments++
		}

		monthKey := inv.IssueDate.Format("2006-01")
		m, ok := months[monthKey]
		if !ok {
			m = &models.MonthlyRevenue{Month: monthKey, Revenue: decimal.Zero}
			months[monthKey] = m
		}
		m.Revenue = m.Revenue.Add(inv.Total)
		m.Invoices++

		key := customerKey(inv.Customer)
		c, ok := customers[key]
		if !ok {
			c = &models.CustomerRevenue{CustomerName: inv.Customer.Name, Email: inv.Customer.Email, Revenue: decimal.Zero}
			customers[key] = c
		}
		c.Revenue = c.Revenue.Add(inv.Total)
		c.Invoices++
	}

	if analytics.TotalInvoices > 0 {
		analytics.PaymentRate = round2(float64(analytics.PaidInvoices) / float64(analytics.TotalInvoices) * 100)
	}
	if timedPayments > 0 {
		analytics.AveragePaymentTime = round2(paymentDays / float64(timedPayments))
	}

	for _, m := range months {
		analytics.MonthlyRevenue = append(analytics.MonthlyRevenue, *m)
	}
	sort.Slice(analytics.MonthlyRevenue, func(i, j int) bool {
		return analytics.MonthlyRevenue[i].Month < analytics.MonthlyRevenue[j].Month
	})

	for _, c := range customers {
		analytics.TopCustomers = append(analytics.TopCustomers, *c)
	}
	sort.Slice(analytics.TopCustomers, func(i, j int) bool {
		a, b := analytics.TopCustomers[i], analytics.TopCustomers[j]
		if cmp := a.Revenue.Cmp(b.Revenue); cmp != 0 {
			return cmp > 0
		}
		return a.CustomerName < b.CustomerName
	})
	if len(analytics.TopCustomers) > topCustomerLimit {
		analytics.TopCustomers = analytics.TopCustomers[:topCustomerLimit]
	}

	for _, status := range statusOrder(statuses) {
		analytics.StatusDistribution = append(analytics.StatusDistribution, *statuses[status])
	}
	sort.SliceStable(analytics.StatusDistribution, func(i, j int) bool {
		return analytics.StatusDistribution[i].Count > analytics.StatusDistribution[j].Count
	})

	return analytics
}

// customerKey groups a customer by email, falling back to name
func customerKey(p models.Party) string {
	if email := strings.ToLower(strings.TrimSpace(p.Email)); email != "" {
		return email
	}
	return strings.ToLower(strings.TrimSpace(p.Name))
}

// statusOrder lists the seen statuses in display order, unknown ones last
func statusOrder(seen map[models.InvoiceStatus]*models.StatusCount) []models.InvoiceStatus {
	order := make([]models.InvoiceStatus, 0, len(seen))
	for _, status := range models.AllStatuses {
		if _, ok := seen[status]; ok {
			order = append(order, status)
		}
	}
	var unknown []models.InvoiceStatus
	for status := range seen {
		if !status.IsValid() {
			unknown = append(unknown, status)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return append(order, unknown...)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
