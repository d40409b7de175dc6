package categories

import (
	"context"
	"log"
	"net/http"
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

// GET /api/categories - active categories with product counts.
func GetCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := db.CategoriesCollection.Find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	defer cursor.Close(ctx)

	cats := []models.Category{}
	if err := cursor.All(ctx, &cats); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read categories")
		return
	}

	type catWithCount struct {
		models.Category
		ProductCount int64 `json:"product_count"`
	}
	out := make([]catWithCount, 0, len(cats))
	for _, c := range cats {
		n, err := db.ProductsCollection.CountDocuments(ctx, bson.M{"category_id": c.CategoryID, "is_active": true})
		if err != nil {
			n = 0
		}
		out = append(out, catWithCount{Category: c, ProductCount: n})
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": out})
}

// GET /api/categories/nested - full active tree.
func GetNestedCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := db.CategoriesCollection.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	defer cursor.Close(ctx)

	var cats []models.Category
	if err := cursor.All(ctx, &cats); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read categories")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": BuildTree(cats, "")})
}

// BuildTree assembles the parent/children hierarchy from a flat slice.
func BuildTree(cats []models.Category, parentID string) []models.Category {
	tree := []models.Category{}
	for _, c := range cats {
		if c.ParentID != parentID {
			continue
		}
		c.Children = BuildTree(cats, c.CategoryID)
		tree = append(tree, c)
	}
	return tree
}

// GET /api/category/:id/children
func GetChildren(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := db.CategoriesCollection.Find(ctx, bson.M{
		"parent_id": ps.ByName("id"),
		"is_active": true,
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	defer cursor.Close(ctx)

	children := []models.Category{}
	if err := cursor.All(ctx, &children); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read categories")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": children})
}

// GET /api/admin/categories - includes inactive (soft-deleted) ones.
func AdminList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := db.CategoriesCollection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	defer cursor.Close(ctx)

	cats := []models.Category{}
	if err := cursor.All(ctx, &cats); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read categories")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": cats})
}

// POST /api/admin/categories (multipart; optional banner file)
func Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if len(name) < 3 || len(name) > 50 {
		utils.RespondWithError(w, http.StatusBadRequest, "Category name must be 3-50 characters")
		return
	}

	parentID := strings.TrimSpace(r.FormValue("parent_id"))
	if parentID != "" {
		if err := db.CategoriesCollection.FindOne(ctx, bson.M{"categoryid": parentID}).Err(); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Parent category not found")
			return
		}
	}

	bannerURL := ""
	if r.MultipartForm != nil {
		var err error
		bannerURL, err = utils.SaveFormImage(r.MultipartForm.File["banner"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Failed to save banner")
			return
		}
	}

	now := time.Now()
	cat := models.Category{
		CategoryID:  "c" + utils.GenerateID(10),
		Name:        name,
		Slug:        utils.Slugify(name),
		BannerURL:   bannerURL,
		ParentID:    parentID,
		Description: strings.TrimSpace(r.FormValue("description")),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := db.CategoriesCollection.InsertOne(ctx, cat)
	if mongo.IsDuplicateKeyError(err) {
		// Slug taken; retry once with a random suffix.
		cat.Slug = utils.UniqueSlug(name)
		_, err = db.CategoriesCollection.InsertOne(ctx, cat)
	}
	if err != nil {
		log.Printf("category insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	mq.Emit(ctx, "category-created", cat.CategoryID)
	utils.SendResponse(w, http.StatusCreated, cat, "Category created", nil)
}

// PUT /api/admin/category/:id (multipart; optional banner file)
func Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		if len(name) < 3 || len(name) > 50 {
			utils.RespondWithError(w, http.StatusBadRequest, "Category name must be 3-50 characters")
			return
		}
		set["name"] = name
		set["slug"] = utils.Slugify(name)
	}
	if desc := r.FormValue("description"); desc != "" {
		set["description"] = strings.TrimSpace(desc)
	}
	if parentID := r.FormValue("parent_id"); parentID != "" {
		if parentID == id {
			utils.RespondWithError(w, http.StatusBadRequest, "Category cannot be its own parent")
			return
		}
		set["parent_id"] = parentID
	}
	if r.MultipartForm != nil {
		bannerURL, err := utils.SaveFormImage(r.MultipartForm.File["banner"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Failed to save banner")
			return
		}
		if bannerURL != "" {
			set["banner_url"] = bannerURL
		}
	}

	res, err := db.CategoriesCollection.UpdateOne(ctx, bson.M{"categoryid": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "A category with that name already exists")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Category not found")
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Category updated", nil)
}

// DELETE /api/admin/category/:id - soft delete.
func Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")

	res, err := db.CategoriesCollection.UpdateOne(ctx,
		bson.M{"categoryid": id},
		bson.M{"$set": bson.M{"is_active": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Category not found")
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Category deleted", nil)
}

// POST /api/admin/category/:id/restore
func Restore(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := db.CategoriesCollection.UpdateOne(ctx,
		bson.M{"categoryid": ps.ByName("id")},
		bson.M{"$set": bson.M{"is_active": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to restore category")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Category not found")
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Category restored", nil)
}

// DELETE /api/admin/category/:id/force - permanent. Refused while products or
// child categories still reference it.
func ForceDelete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")

	if n, _ := db.ProductsCollection.CountDocuments(ctx, bson.M{"category_id": id}); n > 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Category still has products")
		return
	}
	if n, _ := db.CategoriesCollection.CountDocuments(ctx, bson.M{"parent_id": id}); n > 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Category still has child categories")
		return
	}

	res, err := db.CategoriesCollection.DeleteOne(ctx, bson.M{"categoryid": id})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Category not found")
		return
	}

	mq.Emit(ctx, "category-deleted", id)
	utils.SendResponse(w, http.StatusOK, nil, "Category permanently deleted", nil)
}
