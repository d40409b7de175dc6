package products

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"kirana/db"
	"kirana/models"
	"kirana/rdx"
	"kirana/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// listFields keeps the public listing payload small.
var listFields = bson.M{
	"productid": 1, "name": 1, "price": 1, "stock": 1, "thumbnail": 1,
	"images": 1, "slug": 1, "category_id": 1, "has_variants": 1,
	"variants": 1, "rating": 1, "total_sold": 1,
}

// GET /api/products?page=&limit=&category=&minPrice=&maxPrice=&size=&color=&sort=&order=&keyword=
func GetProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 12
	}

	filter := bson.M{"is_active": true}

	if keyword := strings.TrimSpace(q.Get("keyword")); keyword != "" {
		filter["name"] = bson.M{"$regex": keyword, "$options": "i"}
	}
	if category := q.Get("category"); category != "" {
		filter["category_id"] = category
	}

	// A price window must match either pricing mode.
	minPrice, hasMin := parsePrice(q.Get("minPrice"))
	maxPrice, hasMax := parsePrice(q.Get("maxPrice"))
	if hasMin || hasMax {
		cond := bson.M{}
		if hasMin {
			cond["$gte"] = minPrice
		}
		if hasMax {
			cond["$lte"] = maxPrice
		}
		filter["$or"] = bson.A{
			bson.M{"price": cond},
			bson.M{"variants.sizes.price": cond},
		}
	}

	if size := q.Get("size"); size != "" {
		filter["variants.sizes.size"] = size
	}
	if color := q.Get("color"); color != "" {
		filter["variants.color"] = color
	}

	sortField := q.Get("sort")
	switch sortField {
	case "price", "name", "total_sold", "views":
	default:
		sortField = "createdAt"
	}
	sortDir := -1
	if q.Get("order") == "asc" {
		sortDir = 1
	}

	total, err := db.ProductsCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count products")
		return
	}

	opts := options.Find().
		SetProjection(listFields).
		SetSort(bson.D{{Key: sortField, Value: sortDir}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := db.ProductsCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	defer cursor.Close(ctx)

	prods := []models.Product{}
	if err := cursor.All(ctx, &prods); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read products")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"data":    prods,
		"pagination": utils.M{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func parsePrice(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// GET /api/products/search?keyword=
func Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Search keyword is required")
		return
	}

	cursor, err := db.ProductsCollection.Find(ctx,
		bson.M{"name": bson.M{"$regex": keyword, "$options": "i"}, "is_active": true},
		options.Find().SetProjection(listFields).SetLimit(20),
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	defer cursor.Close(ctx)

	results := []models.Product{}
	if err := cursor.All(ctx, &results); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"count":   len(results),
		"data":    results,
	})
}

// filterOptions is the payload cached in redis.
type filterOptions struct {
	Sizes  []string      `json:"sizes"`
	Colors []colorOption `json:"colors"`
}

type colorOption struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

const filterOptionsKey = "products:filter-options"

// GET /api/products/filter-options - distinct sizes and colors across active
// variant products, cached for a minute.
func FilterOptions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if cached, err := rdx.RdxGet(filterOptionsKey); err == nil && cached != "" {
		var opts filterOptions
		if json.Unmarshal([]byte(cached), &opts) == nil {
			utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": opts})
			return
		}
	}

	cursor, err := db.ProductsCollection.Find(ctx,
		bson.M{"is_active": true, "has_variants": true},
		options.Find().SetProjection(bson.M{"variants": 1}),
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch filter options")
		return
	}
	defer cursor.Close(ctx)

	var prods []models.Product
	if err := cursor.All(ctx, &prods); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read filter options")
		return
	}

	sizeSet := map[string]bool{}
	colorSet := map[string]string{}
	for _, p := range prods {
		for _, v := range p.Variants {
			colorSet[v.Color] = v.ColorCode
			for _, s := range v.Sizes {
				sizeSet[s.Size] = true
			}
		}
	}

	opts := filterOptions{Sizes: []string{}, Colors: []colorOption{}}
	for s := range sizeSet {
		opts.Sizes = append(opts.Sizes, s)
	}
	sort.Strings(opts.Sizes)
	for name, code := range colorSet {
		opts.Colors = append(opts.Colors, colorOption{Name: name, Code: code})
	}

	if data, err := json.Marshal(opts); err == nil {
		if err := rdx.SetWithExpiry(filterOptionsKey, string(data), time.Minute); err != nil {
			log.Printf("filter-option cache write failed: %v", err)
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": opts})
}

// GET /api/products/latest?limit=
func GetLatest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 50 {
		limit = 8
	}

	cursor, err := db.ProductsCollection.Find(ctx, bson.M{"is_active": true},
		options.Find().
			SetProjection(listFields).
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	defer cursor.Close(ctx)

	prods := []models.Product{}
	if err := cursor.All(ctx, &prods); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read products")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": prods})
}

// GET /api/products/random?limit=
func GetRandom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 50 {
		limit = 8
	}

	cursor, err := db.ProductsCollection.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"is_active": true}}},
		bson.D{{Key: "$sample", Value: bson.M{"size": limit}}},
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	defer cursor.Close(ctx)

	prods := []models.Product{}
	if err := cursor.All(ctx, &prods); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read products")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": prods})
}

// POST /api/products/by-ids - batch fetch for the client-side cart/wishlist.
func GetByIDs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || len(input.IDs) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Product ids are required")
		return
	}

	cursor, err := db.ProductsCollection.Find(ctx, bson.M{
		"productid": bson.M{"$in": input.IDs},
		"is_active": true,
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	defer cursor.Close(ctx)

	prods := []models.Product{}
	if err := cursor.All(ctx, &prods); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read products")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": prods})
}

// GET /api/product/:id - detail, bumps the view counter.
func GetProductDetail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")

	var product models.Product
	err := db.ProductsCollection.FindOneAndUpdate(ctx,
		bson.M{"productid": id, "is_active": true},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": product})
}
