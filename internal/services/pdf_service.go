package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-invoice-service/internal/config"
	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// the core PDF fonts are cp1252 encoded
var pdfMoney = FormatCurrencyIn(charmap.Windows1252)

// ErrInvalidPDF is returned when the engine produced bytes that are not a PDF
var ErrInvalidPDF = errors.New("generated output is not a valid PDF")

// RenderError reports which stage of document generation failed
type RenderError struct {
	Document string
	Stage    string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s (%s): %v", e.Document, e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

type PDFService struct {
	pdfConfig config.PDFConfig
	barcodes  *BarcodeService
	logger    *logger.StructuredLogger
	now       func() time.Time
}

func NewPDFService(pdfConfig config.PDFConfig, barcodes *BarcodeService, log *logger.StructuredLogger) *PDFService {
	if pdfConfig.PaperSize == "" {
		pdfConfig.PaperSize = "A4"
	}
	if pdfConfig.Orientation == "" {
		pdfConfig.Orientation = "P"
	}
	if pdfConfig.MarginMM <= 0 {
		pdfConfig.MarginMM = 20
	}
	if barcodes == nil {
		barcodes = NewBarcodeService()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PDFService{
		pdfConfig: pdfConfig,
		barcodes:  barcodes,
		logger:    log,
		now:       time.Now,
	}
}

// Assets is the directory company logos are read from
func (s *PDFService) Assets() AssetDir {
	return AssetDir(s.pdfConfig.AssetDir)
}

// GenerateInvoicePDF renders a single invoice with the given template.
// Failures are returned as *RenderError; no partial document is ever returned.
func (s *PDFService) GenerateInvoicePDF(ctx context.Context, invoice *models.Invoice, tmpl *models.InvoiceTemplate) ([]byte, error) {
	name := "invoice"
	if invoice != nil {
		name = "invoice " + invoice.InvoiceNumber
	}

	doc, err := buildDocument(invoice, tmpl, pdfMoney)
	if err != nil {
		return nil, &RenderError{Document: name, Stage: "content", Err: err}
	}

	pdfBytes, err := s.render(ctx, name, doc.Title+" "+doc.InvoiceNumber, func(w *pdfWriter) error {
		w.style = styleFor(doc.Layout)
		w.setColors(w.style.resolvedColors(doc.Colors))
		return s.drawInvoice(ctx, w, doc)
	})
	if err != nil {
		s.logger.Error("Invoice PDF generation failed", err, map[string]interface{}{
			"invoice_number": doc.InvoiceNumber,
			"layout":         string(doc.Layout),
		})
		return nil, err
	}

	s.logger.Debug("Invoice PDF generated", map[string]interface{}{
		"invoice_number": doc.InvoiceNumber,
		"layout":         string(doc.Layout),
		"bytes":          len(pdfBytes),
	})
	return pdfBytes, nil
}

// GenerateReportPDF renders a tabular report over a batch of invoices
func (s *PDFService) GenerateReportPDF(ctx context.Context, invoices []models.Invoice) ([]byte, error) {
	generatedAt := s.now()
	return s.render(ctx, "invoice report", "Invoice Report", func(w *pdfWriter) error {
		w.style = styleFor(models.LayoutProfessional)
		w.setColors(w.style.defaultColors)
		return s.drawReport(ctx, w, invoices, generatedAt)
	})
}

// GenerateAnalyticsPDF renders an analytics summary for a period label such as "Last 30 days"
func (s *PDFService) GenerateAnalyticsPDF(ctx context.Context, analytics models.InvoiceAnalytics, period, currency string) ([]byte, error) {
	generatedAt := s.now()
	return s.render(ctx, "analytics report", "Invoice Analytics", func(w *pdfWriter) error {
		w.style = styleFor(models.LayoutModern)
		w.setColors(w.style.defaultColors)
		return s.drawAnalytics(w, analytics, period, currency, generatedAt)
	})
}

// ReportFileName is the download name of a batch report
func ReportFileName(now time.Time) string {
	return fmt.Sprintf("invoice-report-%s.pdf", now.Format("2006-01-02"))
}

// AnalyticsFileName is the download name of an analytics report
func AnalyticsFileName(now time.Time) string {
	return fmt.Sprintf("invoice-analytics-%s.pdf", now.Format("2006-01-02"))
}

// render runs draw on a fresh document and validates the produced bytes
func (s *PDFService) render(ctx context.Context, name, title string, draw func(*pdfWriter) error) (out []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Document: name, Stage: "start", Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &RenderError{Document: name, Stage: "draw", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	pdf := gofpdf.New(s.pdfConfig.Orientation, "mm", s.pdfConfig.PaperSize, "")
	pdf.SetCompression(s.pdfConfig.Compress)
	pdf.SetMargins(s.pdfConfig.MarginMM, s.pdfConfig.MarginMM, s.pdfConfig.MarginMM)
	pdf.SetAutoPageBreak(true, s.pdfConfig.MarginMM)
	pdf.SetTitle(title, true)
	pdf.SetCreator("go-invoice-service", true)
	pdf.AliasNbPages("")

	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), margin: s.pdfConfig.MarginMM}
	if err := draw(w); err != nil {
		return nil, &RenderError{Document: name, Stage: "draw", Err: err}
	}
	if pdf.Err() {
		return nil, &RenderError{Document: name, Stage: "draw", Err: pdf.Error()}
	}

	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Document: name, Stage: "output", Err: err}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Document: name, Stage: "output", Err: err}
	}

	pdfBytes := buf.Bytes()
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, &RenderError{Document: name, Stage: "validate", Err: ErrInvalidPDF}
	}
	return pdfBytes, nil
}

// ================================================================
// DRAWING PRIMITIVES
// ================================================================

type pdfWriter struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	margin float64
	style  layoutStyle

	primary   rgb
	secondary rgb
	accent    rgb
}

func (w *pdfWriter) setColors(colors models.TemplateColors) {
	w.primary = mustColor(colors.Primary, rgb{37, 99, 235})
	w.secondary = mustColor(colors.Secondary, midGrey)
	w.accent = mustColor(colors.Accent, rgb{245, 158, 11})
}

func (w *pdfWriter) font(style string, size float64) {
	w.pdf.SetFont(w.style.FontFamily, style, size)
}

func (w *pdfWriter) text(c rgb) {
	w.pdf.SetTextColor(c.R, c.G, c.B)
}

func (w *pdfWriter) fill(c rgb) {
	w.pdf.SetFillColor(c.R, c.G, c.B)
}

func (w *pdfWriter) draw(c rgb) {
	w.pdf.SetDrawColor(c.R, c.G, c.B)
}

func (w *pdfWriter) cell(width, height float64, txt, border string, ln int, align string, fill bool) {
	w.pdf.CellFormat(width, height, w.tr(txt), border, ln, align, fill, 0, "")
}

func (w *pdfWriter) contentWidth() float64 {
	pageW, _ := w.pdf.GetPageSize()
	return pageW - 2*w.margin
}

// ensureSpace starts a new page when fewer than height mm remain
func (w *pdfWriter) ensureSpace(height float64) bool {
	_, pageH := w.pdf.GetPageSize()
	if w.pdf.GetY()+height > pageH-w.margin {
		w.pdf.AddPage()
		return true
	}
	return false
}

func (w *pdfWriter) heading(label string) string {
	if w.style.UppercaseHead {
		return strings.ToUpper(label)
	}
	return label
}

func (w *pdfWriter) footer(text string) {
	w.pdf.SetFooterFunc(func() {
		w.pdf.SetY(-15)
		w.font("I", 8)
		w.text(midGrey)
		w.cell(0, 5, text, "", 1, "C", false)
		w.cell(0, 5, fmt.Sprintf("Page %d/{nb}", w.pdf.PageNo()), "", 0, "C", false)
	})
}

// ================================================================
// INVOICE
// ================================================================

var itemColumns = []struct {
	label string
	width float64
	align string
}{
	{"Description", 90, "L"},
	{"Qty", 20, "C"},
	{"Unit Price", 30, "R"},
	{"Total", 30, "R"},
}

func (s *PDFService) drawInvoice(ctx context.Context, w *pdfWriter, doc *Document) error {
	w.footer(doc.Footer)
	w.pdf.AddPage()

	s.drawHeader(w, doc)
	s.drawParties(w, doc)
	s.drawMeta(w, doc)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.drawItems(ctx, w, doc); err != nil {
		return err
	}

	s.drawTotals(w, doc)
	s.drawTextSection(w, "Notes", doc.Notes)
	s.drawTextSection(w, "Payment Terms", doc.Terms)

	if doc.PaymentPayload != "" {
		if err := s.drawPaymentCode(w, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *PDFService) drawHeader(w *pdfWriter, doc *Document) {
	pdf := w.pdf
	pageW, _ := pdf.GetPageSize()
	top := pdf.GetY()

	titleColor := w.primary
	if w.style.HeaderBand {
		w.fill(w.primary)
		pdf.Rect(0, 0, pageW, top+28, "F")
		titleColor = white
	}

	w.font("B", w.style.TitleSize)
	w.text(titleColor)
	w.cell(0, 12, doc.Title, "", 1, w.style.TitleAlign, false)

	w.font("", w.style.BodySize+2)
	w.cell(0, 7, "# "+doc.InvoiceNumber, "", 1, w.style.TitleAlign, false)

	if doc.ShowLogo {
		logoX := pageW - w.margin - 22
		if w.style.TitleAlign == "R" {
			logoX = w.margin
		}
		s.drawLogo(w, doc, logoX, top)
	}

	if w.style.HeaderBand {
		pdf.SetY(top + 28)
	}
	pdf.Ln(4)

	if w.style.HeaderRule {
		w.draw(w.primary)
		pdf.SetLineWidth(0.6)
		pdf.Line(w.margin, pdf.GetY(), pageW-w.margin, pdf.GetY())
		pdf.SetLineWidth(0.2)
		pdf.Ln(4)
	}
}

// drawLogo places the company logo image, or a monogram when no readable image exists
func (s *PDFService) drawLogo(w *pdfWriter, doc *Document, x, y float64) {
	const size = 22.0

	if doc.LogoPath != "" {
		if path, ok := s.Assets().Resolve(doc.LogoPath); ok {
			opts := gofpdf.ImageOptions{ImageType: "", ReadDpi: false}
			w.pdf.ImageOptions(path, x, y, size, 0, false, opts, 0, "")
			if !w.pdf.Err() {
				return
			}
			// an unreadable image must not fail the invoice
			w.pdf.ClearError()
		} else {
			s.logger.Warn("Company logo not available, drawing monogram", map[string]interface{}{"logo": doc.LogoPath})
		}
	}

	if doc.LogoInitials == "" {
		return
	}
	circleColor := w.accent
	if w.style.HeaderBand {
		circleColor = white
	}
	w.fill(circleColor)
	w.pdf.Circle(x+size/2, y+size/2, size/2, "F")

	w.font("B", 14)
	if w.style.HeaderBand {
		w.text(w.primary)
	} else {
		w.text(white)
	}
	w.pdf.SetXY(x, y+size/2-4)
	w.cell(size, 8, doc.LogoInitials, "", 0, "C", false)
	w.pdf.SetXY(w.margin, y)
}

func (s *PDFService) drawParties(w *pdfWriter, doc *Document) {
	pdf := w.pdf
	if !w.style.PartiesSplit {
		s.drawPartyBlock(w, doc.Company, w.margin, w.contentWidth())
		pdf.Ln(4)
		s.drawPartyBlock(w, doc.Customer, w.margin, w.contentWidth())
		pdf.Ln(6)
		return
	}

	half := w.contentWidth() / 2
	top := pdf.GetY()
	leftBottom := s.drawPartyBlock(w, doc.Company, w.margin, half-5)
	pdf.SetY(top)
	rightBottom := s.drawPartyBlock(w, doc.Customer, w.margin+half+5, half-5)

	if leftBottom > rightBottom {
		pdf.SetY(leftBottom)
	} else {
		pdf.SetY(rightBottom)
	}
	pdf.Ln(6)
}

// drawPartyBlock draws a heading, name and address lines at column x and returns the bottom y
func (s *PDFService) drawPartyBlock(w *pdfWriter, block PartyBlock, x, width float64) float64 {
	pdf := w.pdf

	pdf.SetX(x)
	w.font("B", w.style.BodySize+1)
	w.text(w.secondary)
	w.cell(width, 7, w.heading(block.Heading), "", 2, "L", false)

	w.font("B", w.style.BodySize)
	w.text(black)
	w.cell(width, 6, block.Name, "", 2, "L", false)

	w.font("", w.style.BodySize)
	for _, line := range block.Lines {
		w.cell(width, 5, line, "", 2, "L", false)
	}
	return pdf.GetY()
}

func (s *PDFService) drawMeta(w *pdfWriter, doc *Document) {
	const labelWidth, valueWidth = 35.0, 55.0

	border := "1"
	if w.style.TableBorder == "" || w.style.TableBorder == "B" {
		border = "B"
	}
	w.draw(rgb{221, 221, 221})

	rows := []struct{ label, value string }{
		{"Issue Date:", doc.IssueDate},
		{"Due Date:", doc.DueDate},
		{"Status:", doc.Status},
	}
	for _, row := range rows {
		w.pdf.SetX(w.margin)
		w.font("B", w.style.BodySize)
		w.text(black)
		w.fill(lightGrey)
		w.cell(labelWidth, 7, row.label, border, 0, "L", w.style.HeaderFill)

		w.font("", w.style.BodySize)
		if row.label == "Status:" {
			w.font("B", w.style.BodySize)
			w.text(mustColor(doc.StatusColor, black))
		}
		w.cell(valueWidth, 7, row.value, border, 1, "L", false)
	}
	w.pdf.Ln(8)
}

func (s *PDFService) drawItemHeader(w *pdfWriter) {
	w.pdf.SetX(w.margin)
	w.font("B", w.style.BodySize)
	border := w.style.TableBorder
	if w.style.HeaderFill {
		w.fill(w.primary)
		w.text(white)
	} else {
		w.text(w.primary)
		border = "B"
	}
	w.draw(w.primary)
	for i, col := range itemColumns {
		ln := 0
		if i == len(itemColumns)-1 {
			ln = 1
		}
		w.cell(col.width, 9, w.heading(col.label), border, ln, col.align, w.style.HeaderFill)
	}
}

func (s *PDFService) drawItems(ctx context.Context, w *pdfWriter, doc *Document) error {
	const lineHeight = 6.0
	pdf := w.pdf

	s.drawItemHeader(w)
	w.draw(rgb{221, 221, 221})

	for i, line := range doc.Lines {
		if err := ctx.Err(); err != nil {
			return err
		}

		w.font("", w.style.BodySize)
		descLines := pdf.SplitLines([]byte(w.tr(line.Description)), itemColumns[0].width-2)
		if len(descLines) == 0 {
			descLines = [][]byte{{}}
		}
		rowHeight := float64(len(descLines))*lineHeight + 2

		if w.ensureSpace(rowHeight) {
			s.drawItemHeader(w)
			w.draw(rgb{221, 221, 221})
			w.font("", w.style.BodySize)
		}

		x, y := w.margin, pdf.GetY()
		if w.style.ZebraRows && i%2 == 1 {
			w.fill(lightGrey)
			pdf.Rect(x, y, w.contentWidth(), rowHeight, "F")
		}

		w.text(black)
		for j, part := range descLines {
			pdf.SetXY(x, y+1+float64(j)*lineHeight)
			pdf.CellFormat(itemColumns[0].width, lineHeight, string(part), "", 0, "L", false, 0, "")
		}

		values := []string{line.Quantity, line.UnitPrice, line.Total}
		colX := x + itemColumns[0].width
		for j, value := range values {
			col := itemColumns[j+1]
			pdf.SetXY(colX, y+1)
			w.cell(col.width, lineHeight, value, "", 0, col.align, false)
			colX += col.width
		}

		switch w.style.TableBorder {
		case "1":
			colX = x
			for _, col := range itemColumns {
				pdf.Rect(colX, y, col.width, rowHeight, "D")
				colX += col.width
			}
		case "B":
			pdf.Line(x, y+rowHeight, x+w.contentWidth(), y+rowHeight)
		}

		pdf.SetXY(w.margin, y+rowHeight)
	}

	pdf.Ln(6)
	return nil
}

func (s *PDFService) drawTotals(w *pdfWriter, doc *Document) {
	const labelWidth, valueWidth = 40.0, 30.0
	pdf := w.pdf
	pageW, _ := pdf.GetPageSize()
	totalsX := pageW - w.margin - labelWidth - valueWidth

	w.ensureSpace(30)

	rows := []struct{ label, value string }{
		{"Subtotal:", doc.Subtotal},
		{doc.TaxLabel + ":", doc.Tax},
	}
	w.font("", w.style.BodySize)
	w.text(black)
	for _, row := range rows {
		pdf.SetX(totalsX)
		w.cell(labelWidth, 7, row.label, "", 0, "R", false)
		w.cell(valueWidth, 7, row.value, "", 1, "R", false)
	}

	pdf.SetX(totalsX)
	w.font("B", w.style.BodySize+2)
	if w.style.TotalFill {
		w.fill(w.primary)
		w.text(white)
		w.cell(labelWidth, 10, "TOTAL:", "", 0, "R", true)
		w.cell(valueWidth, 10, doc.Total, "", 1, "R", true)
	} else {
		w.draw(w.primary)
		w.text(w.primary)
		w.cell(labelWidth, 10, "TOTAL:", "T", 0, "R", false)
		w.cell(valueWidth, 10, doc.Total, "T", 1, "R", false)
	}
	pdf.Ln(8)
}

func (s *PDFService) drawTextSection(w *pdfWriter, title, body string) {
	if body == "" {
		return
	}
	w.ensureSpace(20)

	w.pdf.SetX(w.margin)
	w.font("B", w.style.BodySize+1)
	w.text(w.primary)
	w.cell(0, 8, w.heading(title), "", 1, "L", false)

	w.font("", w.style.BodySize-1)
	w.text(black)
	w.fill(lightGrey)
	w.pdf.MultiCell(0, 5, w.tr(body), "", "L", w.style.ZebraRows)
	w.pdf.Ln(4)
}

func (s *PDFService) drawPaymentCode(w *pdfWriter, doc *Document) error {
	const size = 30.0

	qr, err := s.barcodes.GenerateQRCode(doc.PaymentPayload, qrSize)
	if err != nil {
		return fmt.Errorf("payment code: %w", err)
	}

	w.ensureSpace(size + 10)
	x, y := w.margin, w.pdf.GetY()

	name := "payment-qr-" + doc.InvoiceNumber
	w.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qr))
	w.pdf.ImageOptions(name, x, y, size, size, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	w.pdf.SetXY(x+size+4, y+size/2-3)
	w.font("", w.style.BodySize-1)
	w.text(w.secondary)
	w.cell(0, 6, "Scan to pay "+doc.Total, "", 1, "L", false)
	w.pdf.SetY(y + size + 4)
	return nil
}

// ================================================================
// REPORTS
// ================================================================

func (s *PDFService) drawReportTitle(w *pdfWriter, title, subtitle string) {
	w.pdf.AddPage()
	w.font("B", 20)
	w.text(w.primary)
	w.cell(0, 12, title, "", 1, "L", false)

	w.font("", 11)
	w.text(rgb{75, 85, 99})
	w.cell(0, 7, subtitle, "", 1, "L", false)
	w.pdf.Ln(6)
}

func (s *PDFService) drawReport(ctx context.Context, w *pdfWriter, invoices []models.Invoice, generatedAt time.Time) error {
	w.footer("Generated on " + FormatDate(generatedAt))
	s.drawReportTitle(w, "Invoice Report", fmt.Sprintf("%d invoices, generated %s", len(invoices), FormatDate(generatedAt)))

	columns := []struct {
		label string
		width float64
		align string
	}{
		{"Invoice #", 32, "L"},
		{"Customer", 44, "L"},
		{"Status", 20, "C"},
		{"Issue Date", 24, "C"},
		{"Due Date", 24, "C"},
		{"Total", 26, "R"},
	}

	header := func() {
		w.pdf.SetX(w.margin)
		w.font("B", 9)
		w.fill(w.primary)
		w.text(white)
		for i, col := range columns {
			ln := 0
			if i == len(columns)-1 {
				ln = 1
			}
			w.cell(col.width, 8, col.label, "", ln, col.align, true)
		}
	}
	header()

	totals := map[string]decimal.Decimal{}
	for i, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.ensureSpace(7) {
			header()
		}

		w.pdf.SetX(w.margin)
		w.font("", 8)
		w.text(black)
		w.fill(lightGrey)
		fill := i%2 == 1

		currency := inv.Currency
		if currency == "" {
			currency = "USD"
		}
		values := []string{
			inv.InvoiceNumber,
			truncate(inv.Customer.Name, 28),
			StatusLabel(inv.Status),
			inv.IssueDate.Format("2006-01-02"),
			inv.DueDate.Format("2006-01-02"),
			pdfMoney(inv.Total, currency),
		}
		for j, col := range columns {
			ln := 0
			if j == len(columns)-1 {
				ln = 1
			}
			w.cell(col.width, 7, values[j], "", ln, col.align, fill)
		}
		totals[currency] = totals[currency].Add(inv.Total)
	}

	w.pdf.Ln(6)
	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	w.font("B", 10)
	w.text(black)
	for _, code := range codes {
		w.pdf.SetX(w.margin)
		w.cell(0, 7, fmt.Sprintf("Total (%s): %s", code, pdfMoney(totals[code], code)), "", 1, "R", false)
	}
	return nil
}

func (s *PDFService) drawAnalytics(w *pdfWriter, a models.InvoiceAnalytics, period, currency string, generatedAt time.Time) error {
	if currency == "" {
		currency = "USD"
	}
	w.footer("Generated on " + FormatDate(generatedAt))
	s.drawReportTitle(w, "Invoice Analytics", "Period: "+period)

	section := func(title string) {
		w.ensureSpace(30)
		w.font("B", 14)
		w.text(rgb{51, 51, 51})
		w.cell(0, 10, title, "", 1, "L", false)
	}

	metric := func(label, value string, ln int) {
		w.font("", 10)
		w.text(rgb{75, 85, 99})
		w.cell(45, 7, label, "", 0, "L", false)
		w.font("B", 10)
		w.text(black)
		w.cell(40, 7, value, "", ln, "L", false)
	}

	section("Summary")
	w.fill(rgb{248, 250, 252})
	w.pdf.Rect(w.margin, w.pdf.GetY()-1, w.contentWidth(), 24, "F")
	metric("Total Invoices:", fmt.Sprintf("%d", a.TotalInvoices), 0)
	metric("Total Revenue:", pdfMoney(a.TotalRevenue, currency), 1)
	metric("Paid:", fmt.Sprintf("%d", a.PaidInvoices), 0)
	metric("Payment Rate:", fmt.Sprintf("%.1f%%", a.PaymentRate), 1)
	metric("Pending:", fmt.Sprintf("%d", a.PendingInvoices), 0)
	metric("Overdue:", fmt.Sprintf("%d", a.OverdueInvoices), 1)
	metric("Avg. Payment Time:", fmt.Sprintf("%.1f days", a.AveragePaymentTime), 1)
	w.pdf.Ln(6)

	table := func(title string, headers []string, widths []float64, rows [][]string) {
		section(title)
		w.font("B", 9)
		w.fill(w.primary)
		w.text(white)
		for i, h := range headers {
			ln := 0
			if i == len(headers)-1 {
				ln = 1
			}
			w.cell(widths[i], 8, h, "", ln, "L", true)
		}
		w.font("", 9)
		w.text(black)
		if len(rows) == 0 {
			w.cell(0, 7, "No data for this period", "", 1, "L", false)
		}
		for _, row := range rows {
			w.ensureSpace(7)
			for i, v := range row {
				ln := 0
				if i == len(row)-1 {
					ln = 1
				}
				w.cell(widths[i], 7, v, "B", ln, "L", false)
			}
		}
		w.pdf.Ln(6)
	}

	var monthly [][]string
	for _, m := range a.MonthlyRevenue {
		monthly = append(monthly, []string{m.Month, fmt.Sprintf("%d", m.Invoices), pdfMoney(m.Revenue, currency)})
	}
	table("Monthly Revenue", []string{"Month", "Invoices", "Revenue"}, []float64{50, 40, 60}, monthly)

	var customers [][]string
	for _, c := range a.TopCustomers {
		customers = append(customers, []string{truncate(c.CustomerName, 40), fmt.Sprintf("%d", c.Invoices), pdfMoney(c.Revenue, currency)})
	}
	table("Top Customers", []string{"Customer", "Invoices", "Revenue"}, []float64{80, 30, 50}, customers)

	var statuses [][]string
	for _, st := range a.StatusDistribution {
		statuses = append(statuses, []string{StatusLabel(st.Status), fmt.Sprintf("%d", st.Count), pdfMoney(st.Amount, currency)})
	}
	table("Status Distribution", []string{"Status", "Invoices", "Amount"}, []float64{50, 40, 60}, statuses)

	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
