package products

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kirana/db"
	"kirana/models"
	"kirana/mq"
	"kirana/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// variantInput mirrors the "variants" JSON field of the admin product form.
// Variant images are uploaded separately under variant_images_{index}.
type variantInput struct {
	VariantID string `json:"variantId"`
	Color     string `json:"color"`
	ColorCode string `json:"color_code"`
	Sizes     []struct {
		Size  string `json:"size"`
		Price int64  `json:"price"`
		Stock int    `json:"stock"`
		SKU   string `json:"sku"`
	} `json:"sizes"`
}

// parseProductForm reads the shared multipart fields of Create and Update.
// existing is nil on create.
func parseProductForm(r *http.Request, existing *models.Product) (*models.Product, string, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "Invalid form data", err
	}

	p := &models.Product{}
	if existing != nil {
		*p = *existing
	}

	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		p.Name = name
	}
	if len(p.Name) < 3 || len(p.Name) > 200 {
		return nil, "Product name must be 3-200 characters", fmt.Errorf("bad name")
	}
	if desc := r.FormValue("description"); desc != "" {
		p.Description = desc
	}
	if cat := r.FormValue("category_id"); cat != "" {
		p.CategoryID = cat
	}
	if p.CategoryID == "" {
		return nil, "Category is required", fmt.Errorf("missing category")
	}
	if sku := r.FormValue("sku"); sku != "" {
		p.SKU = sku
	}

	p.HasVariants = r.FormValue("has_variants") == "true"

	if p.HasVariants {
		raw := r.FormValue("variants")
		if raw == "" && existing == nil {
			return nil, "Variants are required for a variant product", fmt.Errorf("missing variants")
		}
		if raw != "" {
			var inputs []variantInput
			if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
				return nil, "Invalid variants payload", err
			}
			variants, msg, err := buildVariants(inputs, existing)
			if err != nil {
				return nil, msg, err
			}
			p.Variants = variants
		}
		p.Price = nil
		p.Stock = 0

		if r.MultipartForm != nil {
			for i := range p.Variants {
				files := r.MultipartForm.File[fmt.Sprintf("variant_images_%d", i)]
				if len(files) == 0 {
					continue
				}
				urls, err := utils.SaveFormImages(files)
				if err != nil {
					return nil, "Failed to save variant images", err
				}
				p.Variants[i].Images = append(p.Variants[i].Images, urls...)
			}
		}
	} else {
		if raw := r.FormValue("price"); raw != "" {
			price, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || price < 0 {
				return nil, "Invalid price", fmt.Errorf("bad price")
			}
			p.Price = &price
		}
		if p.Price == nil {
			return nil, "Price is required", fmt.Errorf("missing price")
		}
		if raw := r.FormValue("stock"); raw != "" {
			stock, err := strconv.Atoi(raw)
			if err != nil || stock < 0 {
				return nil, "Invalid stock", fmt.Errorf("bad stock")
			}
			p.Stock = stock
		}
		p.Variants = nil
	}

	if r.MultipartForm != nil {
		if thumb, err := utils.SaveFormImage(r.MultipartForm.File["thumbnail"]); err != nil {
			return nil, "Failed to save thumbnail", err
		} else if thumb != "" {
			p.Thumbnail = thumb
		}
		if urls, err := utils.SaveFormImages(r.MultipartForm.File["images"]); err != nil {
			return nil, "Failed to save images", err
		} else if len(urls) > 0 {
			p.Images = append(p.Images, urls...)
		}
	}

	return p, "", nil
}

func buildVariants(inputs []variantInput, existing *models.Product) ([]models.Variant, string, error) {
	if len(inputs) == 0 {
		return nil, "At least one variant is required", fmt.Errorf("no variants")
	}
	variants := make([]models.Variant, 0, len(inputs))
	for _, in := range inputs {
		if in.Color == "" {
			return nil, "Variant color is required", fmt.Errorf("missing color")
		}
		if len(in.Sizes) == 0 {
			return nil, fmt.Sprintf("Variant %s needs at least one size", in.Color), fmt.Errorf("no sizes")
		}
		v := models.Variant{
			VariantID: in.VariantID,
			Color:     in.Color,
			ColorCode: in.ColorCode,
		}
		if v.VariantID == "" {
			v.VariantID = "v" + utils.GenerateID(10)
		} else if existing != nil {
			// Carry over images of a surviving variant.
			if prev := existing.Variant(v.VariantID); prev != nil {
				v.Images = prev.Images
			}
		}
		for _, s := range in.Sizes {
			if s.Size == "" {
				return nil, fmt.Sprintf("Variant %s has a size without a label", in.Color), fmt.Errorf("missing size label")
			}
			if s.Price < 0 || s.Stock < 0 {
				return nil, fmt.Sprintf("Variant %s size %s has invalid price or stock", in.Color, s.Size), fmt.Errorf("bad size entry")
			}
			v.Sizes = append(v.Sizes, models.VariantSize{
				Size: s.Size, Price: s.Price, Stock: s.Stock, SKU: s.SKU,
			})
		}
		variants = append(variants, v)
	}
	return variants, "", nil
}

// POST /api/admin/products
func Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	product, msg, err := parseProductForm(r, nil)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	count, err := db.CategoriesCollection.CountDocuments(ctx, bson.M{"categoryid": product.CategoryID})
	if err != nil || count == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Category does not exist")
		return
	}

	now := time.Now()
	product.ProductID = "p" + utils.GenerateID(12)
	product.Slug = utils.Slugify(product.Name)
	product.IsActive = true
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err = db.ProductsCollection.InsertOne(ctx, product)
	if mongo.IsDuplicateKeyError(err) {
		product.Slug = utils.UniqueSlug(product.Name)
		_, err = db.ProductsCollection.InsertOne(ctx, product)
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	go mq.Emit(ctx, "product-created", product.ProductID)

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success": true,
		"message": "Product created",
		"data":    product,
	})
}

// PUT /api/admin/product/:id
func Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")

	var existing models.Product
	if err := db.ProductsCollection.FindOne(ctx, bson.M{"productid": id}).Decode(&existing); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	product, msg, err := parseProductForm(r, &existing)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	if product.CategoryID != existing.CategoryID {
		count, err := db.CategoriesCollection.CountDocuments(ctx, bson.M{"categoryid": product.CategoryID})
		if err != nil || count == 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Category does not exist")
			return
		}
	}
	if product.Name != existing.Name {
		product.Slug = utils.Slugify(product.Name)
	}
	product.UpdatedAt = time.Now()

	res, err := db.ProductsCollection.ReplaceOne(ctx, bson.M{"productid": id}, product)
	if mongo.IsDuplicateKeyError(err) {
		product.Slug = utils.UniqueSlug(product.Name)
		res, err = db.ProductsCollection.ReplaceOne(ctx, bson.M{"productid": id}, product)
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	go mq.Emit(ctx, "product-updated", id)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Product updated",
		"data":    product,
	})
}

// DELETE /api/admin/product/:id - soft delete, the product stays resolvable
// for existing orders.
func Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	setActive(w, r, ps.ByName("id"), false, "Product deleted")
}

// POST /api/admin/product/:id/restore
func Restore(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	setActive(w, r, ps.ByName("id"), true, "Product restored")
}

func setActive(w http.ResponseWriter, r *http.Request, id string, active bool, okMsg string) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := db.ProductsCollection.UpdateOne(ctx,
		bson.M{"productid": id},
		bson.M{"$set": bson.M{"is_active": active, "updatedAt": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	utils.SendResponse(w, http.StatusOK, nil, okMsg, nil)
}

// DELETE /api/admin/product/:id/force
func ForceDelete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")

	ordered, err := db.OrdersCollection.CountDocuments(ctx, bson.M{"items.product_id": id})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check product orders")
		return
	}
	if ordered > 0 {
		utils.RespondWithError(w, http.StatusConflict, "Product has orders and can only be soft deleted")
		return
	}

	res, err := db.ProductsCollection.DeleteOne(ctx, bson.M{"productid": id})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	utils.SendResponse(w, http.StatusOK, nil, "Product permanently deleted", nil)
}

// GET /api/admin/products - includes inactive products.
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
	if keyword := strings.TrimSpace(q.Get("keyword")); keyword != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": keyword, "$options": "i"}},
			bson.M{"sku": bson.M{"$regex": keyword, "$options": "i"}},
		}
	}
	if category := q.Get("category"); category != "" {
		filter["category_id"] = category
	}
	switch q.Get("status") {
	case "active":
		filter["is_active"] = true
	case "inactive":
		filter["is_active"] = false
	}

	total, err := db.ProductsCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count products")
		return
	}

	cursor, err := db.ProductsCollection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page-1)*limit)).
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

// GET /api/admin/product/:id
func AdminDetail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	err := db.ProductsCollection.FindOne(ctx, bson.M{"productid": ps.ByName("id")}).Decode(&product)
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
