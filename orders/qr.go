package orders

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"kirana/models"
	"kirana/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

func bankAccount() (bank, number, holder string) {
	bank = os.Getenv("BANK_NAME")
	if bank == "" {
		bank = "VCB"
	}
	number = os.Getenv("BANK_ACCOUNT")
	if number == "" {
		number = "0123456789"
	}
	holder = os.Getenv("BANK_HOLDER")
	if holder == "" {
		holder = "KIRANA STORE"
	}
	return
}

// transferPayload is the string banking apps read off the QR: bank, account,
// amount and the order number as the transfer memo.
func transferPayload(o *models.Order) string {
	bank, number, holder := bankAccount()
	return fmt.Sprintf("%s|%s|%s|%d|%s", bank, number, holder, o.Total, o.OrderNumber)
}

// GET /api/order/:id/payment-qr - PNG for the bank-transfer checkout page.
func PaymentQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := findOrder(ctx, bson.M{"orderid": ps.ByName("id")})
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if o.PaymentMethod != models.PayBankTransfer {
		utils.RespondWithError(w, http.StatusBadRequest, "Order is not paid by bank transfer")
		return
	}
	if o.PaymentStatus == models.PaymentPaid {
		utils.RespondWithError(w, http.StatusBadRequest, "Order is already paid")
		return
	}

	png, err := qrcode.Encode(transferPayload(o), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
