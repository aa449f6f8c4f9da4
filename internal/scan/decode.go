package scan

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Priorities select which reader family is tried
const (
	PriorityAuto = 0
	Priority1D   = 1
	Priority2D   = 2
)

var (
	ErrNoCode        = errors.New("no barcode found")
	ErrEmptyImage    = errors.New("image data is empty")
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// MaxImagePixels caps the decoded size of an uploaded image
const MaxImagePixels = 40_000_000

// DecodeRequest asks for an uploaded invoice code image to be decoded
type DecodeRequest struct {
	ImageData string `json:"imageData" binding:"required"` // base64, optionally as a data URL
	ROI       *ROI   `json:"roi,omitempty"`
	Priority  int    `json:"priority"`
}

// DecodeResponse represents a server-side decode response
type DecodeResponse struct {
	Success        bool    `json:"success"`
	Result         *Result `json:"result,omitempty"`
	Error          string  `json:"error,omitempty"`
	ProcessingTime int64   `json:"processingTime"` // milliseconds
}

// Result represents a decode result
type Result struct {
	Text   string `json:"text"`
	Format string `json:"format"`
}

// ROI represents a region of interest
type ROI struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ServerDecoder reads the codes printed on invoices: Code128 invoice numbers and payment QR codes
type ServerDecoder struct {
	linear []gozxing.Reader
	matrix []gozxing.Reader
}

func NewServerDecoder() *ServerDecoder {
	return &ServerDecoder{
		linear: []gozxing.Reader{oned.NewCode128Reader()},
		matrix: []gozxing.Reader{qrcode.NewQRCodeReader()},
	}
}

// Decode processes a decode request
func (d *ServerDecoder) Decode(req *DecodeRequest) *DecodeResponse {
	startTime := time.Now()
	response := &DecodeResponse{}

	img, err := DecodeImageData(req.ImageData)
	if err == nil && req.ROI != nil {
		img, err = extractROI(img, req.ROI)
	}
	if err == nil {
		var result *Result
		result, err = d.DecodeImage(img, req.Priority)
		response.Result = result
	}

	response.ProcessingTime = time.Since(startTime).Milliseconds()
	if err != nil {
		response.Error = err.Error()
		return response
	}
	response.Success = true
	return response
}

// DecodeImage tries the readers selected by priority until one succeeds
func (d *ServerDecoder) DecodeImage(img image.Image, priority int) (*Result, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to create bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	for _, reader := range d.readersFor(priority) {
		result, decodeErr := reader.Decode(bmp, hints)
		if decodeErr == nil && result != nil {
			return &Result{
				Text:   result.GetText(),
				Format: formatName(result.GetBarcodeFormat()),
			}, nil
		}
	}
	return nil, ErrNoCode
}

func (d *ServerDecoder) readersFor(priority int) []gozxing.Reader {
	switch priority {
	case Priority1D:
		return d.linear
	case Priority2D:
		return d.matrix
	default:
		// payment QR codes are the common upload
		return append(append([]gozxing.Reader{}, d.matrix...), d.linear...)
	}
}

// DecodeImageData decodes base64 PNG or JPEG data, with or without a data URL prefix
func DecodeImageData(imageData string) (image.Image, error) {
	imageData = strings.TrimSpace(imageData)
	if strings.HasPrefix(imageData, "data:") {
		if i := strings.Index(imageData, ","); i >= 0 {
			imageData = imageData[i+1:]
		}
	}
	if imageData == "" {
		return nil, ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return nil, fmt.Errorf("base64 decode failed: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	return img, nil
}

func extractROI(img image.Image, roi *ROI) (image.Image, error) {
	bounds := img.Bounds()
	if roi.X < 0 || roi.Y < 0 || roi.Width <= 0 || roi.Height <= 0 ||
		roi.X+roi.Width > bounds.Max.X ||
		roi.Y+roi.Height > bounds.Max.Y {
		return nil, fmt.Errorf("ROI out of bounds")
	}

	roiImg := image.NewRGBA(image.Rect(0, 0, roi.Width, roi.Height))
	for y := 0; y < roi.Height; y++ {
		for x := 0; x < roi.Width; x++ {
			roiImg.Set(x, y, img.At(roi.X+x, roi.Y+y))
		}
	}
	return roiImg, nil
}

func formatName(format gozxing.BarcodeFormat) string {
	switch format {
	case gozxing.BarcodeFormat_CODE_128:
		return "CODE_128"
	case gozxing.BarcodeFormat_QR_CODE:
		return "QR_CODE"
	default:
		return "UNKNOWN"
	}
}
