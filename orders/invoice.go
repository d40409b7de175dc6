package orders

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"kirana/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

// GET /api/admin/order/:id/invoice - A4 PDF for the parcel.
func Invoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := findOrder(ctx, bson.M{"orderid": ps.ByName("id")})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Kirana Store - Invoice")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Order: %s", o.OrderNumber))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Date: %s", o.OrderedAt.Format("2006-01-02 15:04")))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Customer: %s (%s)", o.CustomerInfo.FullName, o.CustomerInfo.Phone))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Address: %s", o.CustomerInfo.Address))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Payment: %s (%s)", o.PaymentMethod, o.PaymentStatus))
	pdf.Ln(10)

	// Line items table.
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, "Unit (VND)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Total (VND)", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, it := range o.Items {
		label := it.ProductName
		if it.VariantColor != "" {
			label = fmt.Sprintf("%s (%s / %s)", it.ProductName, it.VariantColor, it.Size)
		}
		pdf.CellFormat(90, 8, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", it.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", it.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", it.Total), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(150, 8, "Subtotal", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", o.Subtotal), "1", 1, "R", false, 0, "")
	pdf.CellFormat(150, 8, "Shipping", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", o.ShippingFee), "1", 1, "R", false, 0, "")
	pdf.CellFormat(150, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", o.Total), "1", 1, "R", false, 0, "")

	// Tracking QR so support can pull the order up by scanning the parcel.
	if qrPNG, err := qrcode.Encode(o.OrderNumber, qrcode.Medium, 256); err == nil {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("tracking", opts, bytes.NewReader(qrPNG))
		pdf.ImageOptions("tracking", 160, 250, 35, 35, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate invoice")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=invoice-"+o.OrderNumber+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
