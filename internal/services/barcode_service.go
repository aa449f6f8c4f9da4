package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"go-invoice-service/internal/models"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	paymentPrefix = "INVOICE:"
	qrSize        = 256
	barcodeWidth  = 400
	barcodeHeight = 80
	captionHeight = 20
	quietZone     = 16
)

// ErrInvalidPaymentCode is returned when a scanned code is not an invoice payment code
var ErrInvalidPaymentCode = errors.New("invalid payment code")

// PaymentReference is what a scanned payment code identifies
type PaymentReference struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	HasAmount     bool            `json:"hasAmount"`
}

type BarcodeService struct{}

func NewBarcodeService() *BarcodeService {
	return &BarcodeService{}
}

// PaymentPayload is the text encoded in an invoice's payment QR code
func PaymentPayload(invoice *models.Invoice) string {
	currency := invoice.Currency
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s%s|%s %s", paymentPrefix, invoice.InvoiceNumber, invoice.Total.StringFixed(moneyPlaces), currency)
}

// ParsePaymentPayload resolves scanned text to a payment reference.
// A bare invoice number, as carried by the Code128 barcode, yields a reference without amount.
func ParsePaymentPayload(text string) (PaymentReference, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return PaymentReference{}, ErrInvalidPaymentCode
	}

	if !strings.HasPrefix(text, paymentPrefix) {
		if strings.ContainsAny(text, " |:") {
			return PaymentReference{}, fmt.Errorf("%w: %q", ErrInvalidPaymentCode, text)
		}
		return PaymentReference{InvoiceNumber: text}, nil
	}

	number, rest, ok := strings.Cut(strings.TrimPrefix(text, paymentPrefix), "|")
	if !ok || number == "" {
		return PaymentReference{}, fmt.Errorf("%w: missing amount in %q", ErrInvalidPaymentCode, text)
	}

	amountText, currency, ok := strings.Cut(rest, " ")
	if !ok || currency == "" {
		return PaymentReference{}, fmt.Errorf("%w: missing currency in %q", ErrInvalidPaymentCode, text)
	}

	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return PaymentReference{}, fmt.Errorf("%w: bad amount %q", ErrInvalidPaymentCode, amountText)
	}

	return PaymentReference{
		InvoiceNumber: number,
		Amount:        amount,
		Currency:      currency,
		HasAmount:     true,
	}, nil
}

func (s *BarcodeService) GenerateQRCode(data string, size int) ([]byte, error) {
	pngBytes, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	return pngBytes, nil
}

// GeneratePaymentQR renders the payment QR code of an invoice as PNG
func (s *BarcodeService) GeneratePaymentQR(invoice *models.Invoice) ([]byte, error) {
	if invoice == nil {
		return nil, ErrNilInvoice
	}
	return s.GenerateQRCode(PaymentPayload(invoice), qrSize)
}

// GenerateInvoiceBarcode renders a Code128 barcode of the invoice number with the number printed underneath
func (s *BarcodeService) GenerateInvoiceBarcode(invoiceNumber string) ([]byte, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, errors.New("invoice number cannot be empty")
	}

	bc, err := code128.Encode(invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to encode barcode: %w", err)
	}

	width := barcodeWidth
	if bc.Bounds().Dx() > width {
		width = bc.Bounds().Dx()
	}

	// Scale the barcode to reasonable size
	scaledBC, err := barcode.Scale(bc, width, barcodeHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %w", err)
	}

	fullWidth := width + 2*quietZone
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, barcodeHeight+captionHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	draw.Draw(img, scaledBC.Bounds().Add(image.Pt(quietZone, 0)), scaledBC, image.Point{}, draw.Over)

	captionX := (fullWidth - font.MeasureString(basicfont.Face7x13, invoiceNumber).Ceil()) / 2
	drawCaption(img, invoiceNumber, captionX, barcodeHeight+captionHeight-5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode barcode as PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// drawCaption draws text with its baseline at (x, y)
func drawCaption(img *image.RGBA, text string, x, y int) {
	if x < 0 {
		x = 0
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
