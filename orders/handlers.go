package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kirana/db"
	"kirana/globals"
	"kirana/mailer"
	"kirana/middleware"
	"kirana/models"
	"kirana/mq"
	"kirana/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	svc     *Service
	LiveHub = NewHub()
	Mail    = mailer.New()
)

// Init wires the checkout service to mongo and starts the live feed. Call
// once at startup.
func Init() {
	svc = NewMongoService()
	svc.Placed = onPlaced
	go LiveHub.Run()
}

func onPlaced(o *models.Order) {
	LiveHub.Notify("order-created", o)
	go mq.Emit(context.Background(), "order-created", o.OrderID)
	go func() {
		if err := mailer.SendOrderConfirmationEmail(Mail, o.CustomerInfo.Email, o); err != nil {
			log.Printf("order %s: confirmation email failed: %v", o.OrderNumber, err)
		}
	}()
}

// writeOrderError maps the checkout error taxonomy onto HTTP statuses.
func writeOrderError(w http.ResponseWriter, err error) {
	var (
		badReq   *InvalidRequestError
		noStock  *InsufficientStockError
		conflict *ConflictError
	)
	switch {
	case errors.As(err, &badReq):
		utils.RespondWithError(w, http.StatusBadRequest, badReq.Msg)
	case errors.As(err, &noStock):
		utils.RespondWithError(w, http.StatusBadRequest, noStock.Msg)
	case errors.As(err, &conflict):
		utils.RespondWithError(w, http.StatusConflict, conflict.Msg)
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
	default:
		log.Printf("order error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Something went wrong, please try again")
	}
}

// POST /api/checkout/create-order
func CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	order, err := svc.PlaceOrder(ctx, middleware.UserID(r.Context()), &req)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success": true,
		"message": "Order placed",
		"data": utils.M{
			"orderId":      order.OrderID,
			"order_number": order.OrderNumber,
			"total":        order.Total,
		},
	})
}

func findOrder(ctx context.Context, filter bson.M) (*models.Order, error) {
	var o models.Order
	err := db.OrdersCollection.FindOne(ctx, filter).Decode(&o)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GET /api/order/:id/status - thin payment poll for the checkout result page.
func GetOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := findOrder(ctx, bson.M{"orderid": ps.ByName("id")})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"data": utils.M{
			"order_number":   o.OrderNumber,
			"status":         o.Status,
			"payment_method": o.PaymentMethod,
			"payment_status": o.PaymentStatus,
			"paid":           o.PaymentStatus == models.PaymentPaid,
			"total":          o.Total,
		},
	})
}

// GET /api/order-tracking/:orderNumber - the full frozen order, looked up by
// the number printed on the confirmation.
func TrackOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	number := strings.ToUpper(strings.TrimSpace(ps.ByName("orderNumber")))
	o, err := findOrder(ctx, bson.M{"order_number": number})
	if err != nil {
		writeOrderError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": o})
}

// GET /api/orders/by-user/:id - a customer sees their own orders, admins see
// anyone's.
func GetOrdersByUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	target := ps.ByName("id")
	requester := middleware.UserID(r.Context())
	role, _ := r.Context().Value(globals.RoleKey).(string)
	if requester != target && role != models.RoleAdmin {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	cursor, err := db.OrdersCollection.Find(ctx,
		bson.M{"user_id": target},
		options.Find().SetSort(bson.D{{Key: "ordered_at", Value: -1}}),
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	defer cursor.Close(ctx)

	list := []models.Order{}
	if err := cursor.All(ctx, &list); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read orders")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": list})
}

// GET /api/admin/orders?page=&limit=&status=&payment_status=&keyword=&from=&to=
func AdminList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := bson.M{}
	if status := q.Get("status"); status != "" && models.ValidOrderStatus(status) {
		filter["status"] = status
	}
	if ps := q.Get("payment_status"); ps != "" && models.ValidPaymentStatus(ps) {
		filter["payment_status"] = ps
	}
	if keyword := strings.TrimSpace(q.Get("keyword")); keyword != "" {
		filter["$or"] = bson.A{
			bson.M{"order_number": bson.M{"$regex": keyword, "$options": "i"}},
			bson.M{"customer_info.full_name": bson.M{"$regex": keyword, "$options": "i"}},
			bson.M{"customer_info.email": bson.M{"$regex": keyword, "$options": "i"}},
			bson.M{"customer_info.phone": bson.M{"$regex": keyword, "$options": "i"}},
		}
	}
	dateRange := bson.M{}
	if from, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		dateRange["$gte"] = from
	}
	if to, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		dateRange["$lt"] = to.AddDate(0, 0, 1)
	}
	if len(dateRange) > 0 {
		filter["ordered_at"] = dateRange
	}

	total, err := db.OrdersCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count orders")
		return
	}

	cursor, err := db.OrdersCollection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "ordered_at", Value: -1}}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)),
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	defer cursor.Close(ctx)

	list := []models.Order{}
	if err := cursor.All(ctx, &list); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read orders")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"data":    list,
		"pagination": utils.M{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GET /api/admin/order/:id
func AdminDetail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := findOrder(ctx, bson.M{"orderid": ps.ByName("id")})
	if err != nil {
		writeOrderError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": o})
}

// POST /api/admin/orders/update-status
func UpdateStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		OrderID       string `json:"order_id"`
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
		Note          string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Status == "" && req.PaymentStatus == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	o, err := findOrder(ctx, bson.M{"orderid": req.OrderID})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	now := time.Now()
	if req.Status != "" {
		if err := Transition(o, req.Status, req.Note, middleware.UserID(r.Context()), now); err != nil {
			writeOrderError(w, err)
			return
		}
	}
	if req.PaymentStatus != "" {
		if err := SetPaymentStatus(o, req.PaymentStatus, now); err != nil {
			writeOrderError(w, err)
			return
		}
	}

	if _, err := db.OrdersCollection.ReplaceOne(ctx, bson.M{"orderid": o.OrderID}, o); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}

	// A cancelled order releases its reservation.
	if req.Status == models.OrderCancelled {
		for _, line := range stockLines(o) {
			if err := svc.Products.RestoreStock(ctx, line); err != nil {
				log.Printf("order %s: stock release failed for product %s: %v",
					o.OrderNumber, line.ProductID, err)
			}
		}
	}

	LiveHub.Notify("order-updated", o)
	go mq.Emit(context.Background(), "order-updated", o.OrderID)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Order updated",
		"data":    o,
	})
}
