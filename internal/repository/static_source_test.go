package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-invoice-service/internal/models"
	"go-invoice-service/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const staticInvoicesJSON = `[
  {
    "invoiceNumber": "INV-100000-001",
    "status": "sent",
    "customer": {"name": "Acme Corp", "email": "billing@acme.test", "address": {}},
    "company": {"name": "Northwind Studio", "email": "hello@northwind.test", "address": {}},
    "items": [{"description": "Design work", "quantity": 3, "unitPrice": "19.99"}],
    "taxRate": "8.5",
    "currency": "USD",
    "issueDate": "2026-03-01T00:00:00Z",
    "dueDate": "2026-03-31T00:00:00Z"
  },
  {
    "invoiceNumber": "INV-100000-002",
    "status": "paid",
    "customer": {"name": "Globex", "email": "ap@globex.test", "address": {}},
    "company": {"name": "Northwind Studio", "email": "hello@northwind.test", "address": {}},
    "items": [{"description": "Support", "quantity": 1, "unitPrice": "100"}],
    "taxRate": "0",
    "currency": "USD",
    "issueDate": "2026-09-01T00:00:00Z",
    "dueDate": "2026-10-01T00:00:00Z",
    "paymentDate": "2026-09-05T00:00:00Z"
  }
]`

func writeStaticFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoices.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadStaticSource_InvoiceArray(t *testing.T) {
	source, err := LoadStaticSource(writeStaticFile(t, staticInvoicesJSON))
	require.NoError(t, err)
	source.now = func() time.Time { return testNow }
	ctx := context.Background()

	invoice, err := source.GetInvoiceByNumber(ctx, "INV-100000-001")
	require.NoError(t, err)
	assert.Equal(t, "59.97", invoice.Subtotal.StringFixed(2))
	assert.Equal(t, "65.07", invoice.Total.StringFixed(2))

	all, err := source.ListInvoices(ctx, models.InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "INV-100000-002", all[0].InvoiceNumber)

	overdue, err := source.ListInvoices(ctx, models.InvoiceFilter{OverdueOnly: true})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "INV-100000-001", overdue[0].InvoiceNumber)

	_, err = source.GetInvoiceByNumber(ctx, "INV-nope")
	assert.ErrorIs(t, err, services.ErrInvoiceNotFound)

	tmpl, err := source.GetTemplate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.LayoutModern, tmpl.Layout)

	tmpl, err = source.GetTemplate(ctx, "professional")
	require.NoError(t, err)
	assert.Equal(t, models.LayoutProfessional, tmpl.Layout)

	_, err = source.GetTemplate(ctx, "poster")
	assert.ErrorIs(t, err, services.ErrTemplateNotFound)
}

func TestLoadStaticSource_Document(t *testing.T) {
	content := `{"invoices": ` + staticInvoicesJSON + `, "templates": [{"id": "brand", "name": "Brand", "layout": "classic"}]}`
	source, err := LoadStaticSource(writeStaticFile(t, content))
	require.NoError(t, err)

	templates, err := source.ListTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 1)

	// no template is flagged default, so the first one serves
	tmpl, err := source.GetTemplate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "brand", tmpl.ID)
}

func TestLoadStaticSource_Errors(t *testing.T) {
	_, err := LoadStaticSource(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read data file")

	_, err = LoadStaticSource(writeStaticFile(t, "{not json"))
	assert.ErrorContains(t, err, "failed to parse data file")
}

func TestDefaultTemplates(t *testing.T) {
	templates := DefaultTemplates()
	require.Len(t, templates, len(models.AllLayouts))

	defaults := 0
	for i, tmpl := range templates {
		assert.Equal(t, models.AllLayouts[i], tmpl.Layout)
		if tmpl.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}
