package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"go-invoice-service/internal/models"
)

var invoiceHTMLTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.Doc.InvoiceNumber}}</title>
    <style>
        @page { size: A4; margin: 1cm; }

        body {
            font-family: {{.Font}};
            font-size: 12px;
            line-height: 1.4;
            color: #333;
            margin: 0;
            padding: 24px;
        }

        .invoice-header {
            display: flex;
            justify-content: space-between;
            align-items: flex-start;
            margin-bottom: 30px;
            padding-bottom: 20px;
        }

        .layout-modern .invoice-header { background-color: {{.Primary}}; color: white; padding: 20px; border-radius: {{.Radius}}; }
        .layout-classic .invoice-header { flex-direction: column; align-items: center; border-bottom: 3px double {{.Primary}}; }
        .layout-minimal .invoice-header { border-bottom: 1px solid #e5e7eb; }
        .layout-professional .invoice-header { flex-direction: row-reverse; border-bottom: 2px solid {{.Primary}}; }

        .invoice-title { font-size: 28px; font-weight: bold; margin: 0; }
        .layout-modern .invoice-title { color: white; }
        .layout-classic .invoice-title, .layout-professional .invoice-title { color: {{.Primary}}; }
        .layout-minimal .invoice-title { font-size: 20px; font-weight: normal; letter-spacing: 2px; }

        .logo { width: 64px; height: 64px; border-radius: 50%; background-color: {{.Accent}}; color: white;
                display: flex; align-items: center; justify-content: center; font-size: 22px; font-weight: bold; }
        .logo img { max-width: 64px; max-height: 64px; }

        .parties { display: flex; justify-content: space-between; gap: 20px; margin-bottom: 24px; }
        .layout-classic .parties { flex-direction: column; }
        .party h3 { margin-bottom: 8px; color: {{.Secondary}}; font-size: 13px; }
        .layout-modern .party h3, .layout-professional .party h3 { text-transform: uppercase; }

        .invoice-meta table { border-collapse: collapse; margin-bottom: 24px; }
        .invoice-meta td { padding: 4px 8px; border: 1px solid #ddd; }
        .invoice-meta td:first-child { font-weight: bold; background-color: #f8f9fa; }
        .layout-minimal .invoice-meta td { border: none; border-bottom: 1px solid #eee; }

        .items-table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        .items-table th { padding: 10px; text-align: left; font-weight: bold; }
        .layout-modern .items-table th, .layout-professional .items-table th { background-color: {{.Primary}}; color: white; }
        .layout-classic .items-table th, .layout-minimal .items-table th { color: {{.Primary}}; border-bottom: 2px solid {{.Primary}}; }
        .items-table td { padding: 8px 10px; border-bottom: 1px solid #ddd; }
        .layout-classic .items-table td, .layout-professional .items-table td { border: 1px solid #ddd; }
        .layout-modern .items-table tbody tr:nth-child(even),
        .layout-professional .items-table tbody tr:nth-child(even) { background-color: #f8f9fa; }

        .text-right { text-align: right; }
        .text-center { text-align: center; }

        .totals { margin-left: auto; width: 300px; }
        .totals-table { width: 100%; border-collapse: collapse; }
        .totals-table td { padding: 8px 10px; }
        .totals-table .total-row { font-weight: bold; font-size: 14px; }
        .layout-modern .total-row, .layout-professional .total-row { background-color: {{.Primary}}; color: white; }
        .layout-classic .total-row, .layout-minimal .total-row { border-top: 2px solid {{.Primary}}; color: {{.Primary}}; }

        .section { margin-top: 24px; }
        .section h3 { color: {{.Primary}}; font-size: 14px; }
        .section-body { white-space: pre-line; border: 1px solid #ddd; padding: 12px; background-color: #f8f9fa; }

        .status-badge { display: inline-block; padding: 2px 8px; border-radius: 4px; font-weight: bold; text-transform: uppercase; }

        .payment-code { display: flex; align-items: center; gap: 12px; margin-top: 24px; color: {{.Secondary}}; }
        .payment-code img { width: 110px; height: 110px; }

        .footer-info { border-top: 1px solid #ddd; padding-top: 16px; text-align: center; font-size: 11px; color: #666; margin-top: 30px; }
    </style>
</head>
<body class="layout-{{.Doc.Layout}}">
    <div class="invoice-header">
        <div>
            <div class="invoice-title">{{.Doc.Title}}</div>
            <div class="invoice-number"># {{.Doc.InvoiceNumber}}</div>
        </div>
        {{if .Doc.ShowLogo}}
        <div class="logo">{{if .Logo}}<img src="{{.Logo}}" alt="{{.Doc.Company.Name}}">{{else}}{{.Doc.LogoInitials}}{{end}}</div>
        {{end}}
    </div>

    <div class="parties">
        {{range .Parties}}
        <div class="party">
            <h3>{{.Heading}}</h3>
            <strong>{{.Name}}</strong><br>
            {{range .Lines}}{{.}}<br>{{end}}
        </div>
        {{end}}
    </div>

    <div class="invoice-meta">
        <table>
            <tr><td>Issue Date:</td><td>{{.Doc.IssueDate}}</td></tr>
            <tr><td>Due Date:</td><td>{{.Doc.DueDate}}</td></tr>
            <tr><td>Status:</td><td><span class="status-badge" style="color: {{.Doc.StatusColor}}">{{.Doc.Status}}</span></td></tr>
        </table>
    </div>

    <table class="items-table">
        <thead>
            <tr>
                <th>Description</th>
                <th width="10%" class="text-center">Qty</th>
                <th width="15%" class="text-right">Unit Price</th>
                <th width="15%" class="text-right">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Doc.Lines}}
            <tr>
                <td>{{.Description}}</td>
                <td class="text-center">{{.Quantity}}</td>
                <td class="text-right">{{.UnitPrice}}</td>
                <td class="text-right">{{.Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table class="totals-table">
            <tr><td>Subtotal:</td><td class="text-right">{{.Doc.Subtotal}}</td></tr>
            <tr><td>{{.Doc.TaxLabel}}:</td><td class="text-right">{{.Doc.Tax}}</td></tr>
            <tr class="total-row"><td>TOTAL:</td><td class="text-right">{{.Doc.Total}}</td></tr>
        </table>
    </div>

    {{if .Doc.Notes}}
    <div class="section">
        <h3>Notes</h3>
        <div class="section-body">{{.Doc.Notes}}</div>
    </div>
    {{end}}

    {{if .Doc.Terms}}
    <div class="section">
        <h3>Payment Terms</h3>
        <div class="section-body">{{.Doc.Terms}}</div>
    </div>
    {{end}}

    {{if .PaymentQR}}
    <div class="payment-code">
        <img src="{{.PaymentQR}}" alt="Payment code">
        <span>Scan to pay {{.Doc.Total}}</span>
    </div>
    {{end}}

    <div class="footer-info">{{.Doc.Footer}}</div>
</body>
</html>`))

type htmlView struct {
	Doc       *Document
	Parties   []PartyBlock
	Font      template.CSS
	Radius    template.CSS
	Primary   template.CSS
	Secondary template.CSS
	Accent    template.CSS
	Logo      template.URL
	PaymentQR template.URL
}

// RenderHTML renders the on-screen layout of an invoice with the given template.
// Company logos are only read from assets.
func RenderHTML(ctx context.Context, invoice *models.Invoice, tmpl *models.InvoiceTemplate, assets AssetDir) (string, error) {
	name := "invoice"
	if invoice != nil {
		name = "invoice " + invoice.InvoiceNumber
	}
	if err := ctx.Err(); err != nil {
		return "", &RenderError{Document: name, Stage: "start", Err: err}
	}

	doc, err := BuildDocument(invoice, tmpl)
	if err != nil {
		return "", &RenderError{Document: name, Stage: "content", Err: err}
	}

	style := styleFor(doc.Layout)
	colors := style.resolvedColors(doc.Colors)

	view := htmlView{
		Doc:       doc,
		Parties:   []PartyBlock{doc.Company, doc.Customer},
		Font:      template.CSS(style.CSSFont),
		Radius:    template.CSS(style.CSSRadius),
		Primary:   template.CSS(colors.Primary),
		Secondary: template.CSS(colors.Secondary),
		Accent:    template.CSS(colors.Accent),
	}

	if path, ok := assets.Resolve(doc.LogoPath); ok {
		if data, err := os.ReadFile(path); err == nil {
			view.Logo = imageDataURL(path, data)
		}
	}

	if doc.PaymentPayload != "" {
		qr, err := NewBarcodeService().GenerateQRCode(doc.PaymentPayload, qrSize)
		if err != nil {
			return "", &RenderError{Document: name, Stage: "payment code", Err: err}
		}
		view.PaymentQR = pngDataURL(qr)
	}

	var buf bytes.Buffer
	if err := invoiceHTMLTemplate.Execute(&buf, view); err != nil {
		return "", &RenderError{Document: name, Stage: "template", Err: fmt.Errorf("failed to execute template: %w", err)}
	}
	return buf.String(), nil
}

func pngDataURL(png []byte) template.URL {
	return imageDataURL("code.png", png)
}

func imageDataURL(path string, data []byte) template.URL {
	mime := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".gif":
		mime = "image/gif"
	}
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}
