package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go-invoice-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML_AllLayouts(t *testing.T) {
	invoice := sampleInvoice()

	for _, layout := range models.AllLayouts {
		t.Run(string(layout), func(t *testing.T) {
			html, err := RenderHTML(context.Background(), invoice, sampleTemplate(layout), "")
			require.NoError(t, err)

			assert.Contains(t, html, `<body class="layout-`+string(layout)+`">`)
			for _, text := range []string{"INV-123456-001", "Acme Corp", "Design work", "$19.99", "$59.97", "Tax (8.5%)", "$5.10", "$65.07", "Springfield, IL 62701"} {
				assert.Contains(t, html, text)
			}
			assert.Contains(t, html, "#2563eb")
		})
	}
}

func TestRenderHTML_EscapesContent(t *testing.T) {
	invoice := sampleInvoice()
	invoice.Notes = strPtr("<script>alert(1)</script>")

	html, err := RenderHTML(context.Background(), invoice, sampleTemplate(models.LayoutModern), "")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRenderHTML_OptionalSections(t *testing.T) {
	tmpl := sampleTemplate(models.LayoutMinimal)
	tmpl.IncludeNotes = false
	tmpl.IncludePaymentTerms = false
	tmpl.IncludePaymentCode = true

	html, err := RenderHTML(context.Background(), sampleInvoice(), tmpl, "")
	require.NoError(t, err)
	assert.NotContains(t, html, "Thanks for the quick turnaround.")
	assert.NotContains(t, html, "Payment due within 30 days.")
	assert.Contains(t, html, `src="data:image/png;base64,`)
}

func TestRenderHTML_EmbedsLogo(t *testing.T) {
	assets := t.TempDir()
	logo, err := NewBarcodeService().GenerateQRCode("logo", 64)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(assets, "logo.png"), logo, 0644))

	invoice := sampleInvoice()
	invoice.Company.LogoPath = strPtr("logo.png")

	html, err := RenderHTML(context.Background(), invoice, sampleTemplate(models.LayoutProfessional), AssetDir(assets))
	require.NoError(t, err)
	assert.Contains(t, html, `<img src="data:image/png;base64,`)
	assert.NotContains(t, html, `<div class="logo">NS</div>`)
}

func TestRenderHTML_IgnoresLogoOutsideAssets(t *testing.T) {
	assets := t.TempDir()
	private := filepath.Join(t.TempDir(), "private.png")
	require.NoError(t, os.WriteFile(private, []byte("SERVER-PRIVATE-BYTES"), 0644))

	rel, err := filepath.Rel(assets, private)
	require.NoError(t, err)

	for _, ref := range []string{private, rel} {
		invoice := sampleInvoice()
		invoice.Company.LogoPath = strPtr(ref)

		html, err := RenderHTML(context.Background(), invoice, sampleTemplate(models.LayoutModern), AssetDir(assets))
		require.NoError(t, err)
		assert.NotContains(t, html, "U0VSVkVSLVBSSVZBVEUtQllURVM", ref)
		assert.Contains(t, html, `<div class="logo">NS</div>`, ref)
	}
}

func TestRenderHTML_Errors(t *testing.T) {
	empty := sampleInvoice()
	empty.Items = nil
	_, err := RenderHTML(context.Background(), empty, sampleTemplate(models.LayoutModern), "")
	assert.ErrorIs(t, err, ErrEmptyItems)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RenderHTML(ctx, sampleInvoice(), sampleTemplate(models.LayoutModern), "")
	assert.ErrorIs(t, err, context.Canceled)
}
