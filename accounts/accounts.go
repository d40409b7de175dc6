package accounts

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kirana/db"
	"kirana/globals"
	"kirana/middleware"
	"kirana/models"
	"kirana/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// GET /api/accounts/me
func GetMyAccount(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.UserID(r.Context())

	var acct models.Account
	if err := db.AccountsCollection.FindOne(ctx, bson.M{"accountid": userID}).Decode(&acct); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Account not found")
		return
	}

	utils.SendResponse(w, http.StatusOK, acct, "", nil)
}

// GET /api/account/:id - self or admin.
func GetAccountByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")
	role, _ := r.Context().Value(globals.RoleKey).(string)
	if role != models.RoleAdmin && middleware.UserID(r.Context()) != id {
		utils.RespondWithError(w, http.StatusForbidden, "You cannot view this account")
		return
	}

	var acct models.Account
	if err := db.AccountsCollection.FindOne(ctx, bson.M{"accountid": id}).Decode(&acct); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Account not found")
		return
	}

	utils.SendResponse(w, http.StatusOK, acct, "", nil)
}

// PUT /api/accounts/update-profile (multipart; optional avatar file)
func UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.UserID(r.Context())

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	for form, field := range map[string]string{
		"first_name": "first_name",
		"last_name":  "last_name",
		"phone":      "phone",
		"address":    "address",
		"gender":     "gender",
	} {
		if v := strings.TrimSpace(r.FormValue(form)); v != "" {
			set[field] = v
		}
	}
	if dob := r.FormValue("date_of_birth"); dob != "" {
		t, err := time.Parse("2006-01-02", dob)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid date of birth")
			return
		}
		set["date_of_birth"] = t
	}

	if r.MultipartForm != nil {
		avatarURL, err := utils.SaveFormImage(r.MultipartForm.File["avatar"])
		if err != nil {
			log.Printf("avatar upload failed for %s: %v", userID, err)
			utils.RespondWithError(w, http.StatusBadRequest, "Failed to save avatar")
			return
		}
		if avatarURL != "" {
			set["avatar"] = avatarURL
		}
	}

	res, err := db.AccountsCollection.UpdateOne(ctx, bson.M{"accountid": userID}, bson.M{"$set": set})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Account not found")
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Profile updated", nil)
}

// PUT /api/accounts/change-password
func ChangePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.UserID(r.Context())

	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.CurrentPassword == "" || input.NewPassword == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Current and new password are required")
		return
	}
	if len(input.NewPassword) < 6 {
		utils.RespondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	var acct models.Account
	if err := db.AccountsCollection.FindOne(ctx, bson.M{"accountid": userID}).Decode(&acct); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Account not found")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.Password), []byte(input.CurrentPassword)); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not process password")
		return
	}

	_, err = db.AccountsCollection.UpdateOne(ctx,
		bson.M{"accountid": userID},
		bson.M{"$set": bson.M{"password": string(hashed), "updatedAt": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to change password")
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Password changed", nil)
}

// GET /api/admin/accounts/customers?page=&limit=&search=
func GetCustomers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	page, limit := pagination(r, 10)

	filter := bson.M{"role": models.RoleCustomer}
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		filter["$or"] = bson.A{
			bson.M{"email": bson.M{"$regex": search, "$options": "i"}},
			bson.M{"first_name": bson.M{"$regex": search, "$options": "i"}},
			bson.M{"last_name": bson.M{"$regex": search, "$options": "i"}},
			bson.M{"phone": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	total, err := db.AccountsCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count customers")
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := db.AccountsCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch customers")
		return
	}
	defer cursor.Close(ctx)

	customers := []models.Account{}
	if err := cursor.All(ctx, &customers); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read customers")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"data":    customers,
		"pagination": utils.M{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// PUT /api/admin/account/:id/toggle-status
func ToggleAccountStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")

	var acct models.Account
	if err := db.AccountsCollection.FindOne(ctx, bson.M{"accountid": id}).Decode(&acct); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Account not found")
		return
	}
	if acct.Role == models.RoleAdmin {
		utils.RespondWithError(w, http.StatusBadRequest, "Cannot disable an admin account")
		return
	}

	_, err := db.AccountsCollection.UpdateOne(ctx,
		bson.M{"accountid": id},
		bson.M{"$set": bson.M{"is_active": !acct.IsActive, "updatedAt": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update account")
		return
	}

	utils.SendResponse(w, http.StatusOK, map[string]bool{"is_active": !acct.IsActive}, "Account status updated", nil)
}

func pagination(r *http.Request, defaultLimit int) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit
}
