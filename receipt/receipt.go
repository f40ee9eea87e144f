// Package receipt renders a printable PDF receipt for a placed order.
package receipt

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"shopfront/models"

	"github.com/disintegration/imaging"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

var ErrInvalidPayload = errors.New("invalid receipt payload")

const thumbSize = 48

// Renderer draws receipts. The QR code on each receipt carries a signed
// payload so a courier scan can tell a genuine receipt from an edited one.
type Renderer struct {
	secret   []byte
	imageDir string
	currency string
}

// NewRenderer returns a Renderer. imageDir is where product images live on
// disk; an empty dir renders receipts without thumbnails.
func NewRenderer(secret, imageDir, currency string) *Renderer {
	return &Renderer{secret: []byte(secret), imageDir: imageDir, currency: currency}
}

func (r *Renderer) sign(data string) string {
	h := hmac.New(sha256.New, r.secret)
	h.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// QRPayload returns orderID|total|placedAtUnix|signature.
func (r *Renderer) QRPayload(o models.Order) string {
	data := fmt.Sprintf("%s|%s|%d", o.OrderID, o.TotalAmount.StringFixed(2), o.PlacedAt.Unix())
	return data + "|" + r.sign(data)
}

// Verify checks a scanned payload and returns the order id it names.
func (r *Renderer) Verify(payload string) (string, error) {
	parts := strings.Split(payload, "|")
	if len(parts) != 4 {
		return "", ErrInvalidPayload
	}
	data := strings.Join(parts[:3], "|")
	if !hmac.Equal([]byte(parts[3]), []byte(r.sign(data))) {
		return "", ErrInvalidPayload
	}
	return parts[0], nil
}

func (r *Renderer) amount(d decimal.Decimal) string {
	if r.currency == "" {
		return d.StringFixed(2)
	}
	return strings.ToUpper(r.currency) + " " + d.StringFixed(2)
}

// Render returns the PDF bytes for o.
func (r *Renderer) Render(o models.Order) ([]byte, error) {
	qrPNG, err := qrcode.Encode(r.QRPayload(o), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Order Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, "Order ID: "+o.OrderID)
	pdf.Ln(6)
	pdf.Cell(0, 7, "Placed: "+o.PlacedAt.Format("02 Jan 2006 15:04"))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Expected delivery: "+o.ExpectedDeliveryDate.Format("02 Jan 2006"))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Payment: "+paymentLabel(o))
	pdf.Ln(10)

	addr := o.ShippingAddress
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, "Ship to")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 11)
	for _, line := range []string{addr.FullName, addr.Address, addr.City + " " + addr.Pincode, addr.Phone, addr.Email} {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(5)
	}
	pdf.Ln(6)

	qrOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", qrOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 40, 40, false, qrOpts, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(thumbSize/4+4, 8, "", "B", 0, "", false, 0, "")
	pdf.CellFormat(90, 8, "Item", "B", 0, "", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	rowH := float64(thumbSize/4 + 2)
	for i, it := range o.Items {
		x, y := pdf.GetXY()
		if name, ok := r.thumbnail(pdf, i, it.Image); ok {
			pdf.ImageOptions(name, x+1, y+1, thumbSize/4, thumbSize/4, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
		pdf.SetXY(x+thumbSize/4+4, y)
		pdf.CellFormat(90, rowH, tr(it.Title), "", 0, "", false, 0, "")
		pdf.CellFormat(20, rowH, fmt.Sprintf("%d", it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, rowH, it.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, rowH, it.LineTotal().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("%d items   Shipping: free   Total: %s", o.ItemCount, r.amount(o.TotalAmount)), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// thumbnail registers a small PNG of the product image, if it can be read.
func (r *Renderer) thumbnail(pdf *gofpdf.Fpdf, i int, image string) (string, bool) {
	if r.imageDir == "" || image == "" {
		return "", false
	}
	src, err := imaging.Open(filepath.Join(r.imageDir, filepath.Base(image)))
	if err != nil {
		return "", false
	}
	thumb := imaging.Thumbnail(src, thumbSize, thumbSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return "", false
	}
	name := fmt.Sprintf("thumb-%d", i)
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	return name, true
}

func paymentLabel(o models.Order) string {
	switch o.PaymentMethod {
	case models.PaymentCashOnDelivery:
		return "Cash on delivery"
	case models.PaymentGateway:
		if o.PaymentReference != "" {
			return "Paid online (" + o.PaymentReference + ")"
		}
		return "Paid online"
	}
	return string(o.PaymentMethod)
}
