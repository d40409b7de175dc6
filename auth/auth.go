package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"kirana/db"
	"kirana/mailer"
	"kirana/middleware"
	"kirana/models"
	"kirana/rdx"
	"kirana/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var Mail = mailer.New()

// POST /api/auth/signup
func Signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.Password == "" || input.FirstName == "" || input.LastName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if len(input.Password) < 6 {
		utils.RespondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	if input.Password != input.ConfirmPassword {
		utils.RespondWithError(w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	err := db.AccountsCollection.FindOne(ctx, bson.M{"email": input.Email}).Err()
	if err == nil {
		utils.RespondWithError(w, http.StatusConflict, "Email is already in use")
		return
	} else if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash password for %s: %v", input.Email, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not process password")
		return
	}

	rawToken, hashedToken, err := generateOpaqueToken()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	now := time.Now()
	acct := models.Account{
		AccountID:                "a" + utils.GenerateID(10),
		Email:                    input.Email,
		Password:                 string(hashed),
		FirstName:                strings.TrimSpace(input.FirstName),
		LastName:                 strings.TrimSpace(input.LastName),
		Role:                     models.RoleCustomer,
		IsActive:                 true,
		IsVerified:               false,
		VerificationToken:        hashedToken,
		VerificationTokenExpires: now.Add(verificationTokenTTL),
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if _, err := db.AccountsCollection.InsertOne(ctx, acct); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register account")
		return
	}

	if err := rdx.RdxSet(fmt.Sprintf("accounts:%s", acct.AccountID), acct.Email); err != nil {
		log.Printf("Failed to cache account email: %v", err)
	}

	if err := mailer.SendVerificationEmail(Mail, acct.Email, rawToken, acct.FullName()); err != nil {
		log.Printf("Failed to send verification email to %s: %v", acct.Email, err)
	}

	utils.SendResponse(w, http.StatusCreated, map[string]string{
		"id":        acct.AccountID,
		"email":     acct.Email,
		"full_name": acct.FullName(),
	}, "Registration successful. Check your email to verify your account.", nil)
}

// GET /api/auth/verify-email?token=xxx
func VerifyEmail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	token := r.URL.Query().Get("token")
	if token == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid token")
		return
	}

	res, err := db.AccountsCollection.UpdateOne(ctx,
		bson.M{
			"verification_token":         hashToken(token),
			"verification_token_expires": bson.M{"$gt": time.Now()},
		},
		bson.M{
			"$set":   bson.M{"is_verified": true, "updatedAt": time.Now()},
			"$unset": bson.M{"verification_token": "", "verification_token_expires": ""},
		},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if res.ModifiedCount == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Token is invalid or has expired")
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Email verified. You can sign in now.", nil)
}

// POST /api/auth/resend-verification
func ResendVerification(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email is required")
		return
	}

	var acct models.Account
	err := db.AccountsCollection.FindOne(ctx, bson.M{"email": strings.ToLower(input.Email)}).Decode(&acct)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Account not found")
		return
	}
	if acct.IsVerified {
		utils.RespondWithError(w, http.StatusBadRequest, "Account is already verified")
		return
	}

	rawToken, hashedToken, err := generateOpaqueToken()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	_, err = db.AccountsCollection.UpdateOne(ctx,
		bson.M{"accountid": acct.AccountID},
		bson.M{"$set": bson.M{
			"verification_token":         hashedToken,
			"verification_token_expires": time.Now().Add(verificationTokenTTL),
		}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := mailer.SendVerificationEmail(Mail, acct.Email, rawToken, acct.FullName()); err != nil {
		log.Printf("Failed to resend verification email: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to send email")
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Verification email sent", nil)
}

// POST /api/auth/signin
func Signin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Email == "" || input.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	var acct models.Account
	err := db.AccountsCollection.FindOne(ctx, bson.M{"email": strings.ToLower(input.Email)}).Decode(&acct)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.Password), []byte(input.Password)); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !acct.IsVerified {
		utils.RespondWithError(w, http.StatusForbidden, "Account not verified. Check your email for the verification link.")
		return
	}
	if !acct.IsActive {
		utils.RespondWithError(w, http.StatusForbidden, "Account is disabled")
		return
	}

	tokenString, err := generateAccessToken(&acct)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	refreshToken, hashedRefresh, err := generateOpaqueToken()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate refresh token")
		return
	}

	_, err = db.AccountsCollection.UpdateOne(ctx,
		bson.M{"accountid": acct.AccountID},
		bson.M{"$set": bson.M{
			"refresh_token":  hashedRefresh,
			"refresh_expiry": time.Now().Add(refreshTokenTTL),
			"last_login":     time.Now(),
		}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store refresh token")
		return
	}

	if err := rdx.RdxHset("tokens", acct.AccountID, tokenString); err != nil {
		log.Printf("Redis token storage failed: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, map[string]string{
		"token":        tokenString,
		"refreshToken": refreshToken,
		"userid":       acct.AccountID,
		"role":         acct.Role,
	}, "Signed in", nil)
}

// POST /api/auth/signout
func Signout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, err := middleware.ValidateJWT(r.Header.Get("Authorization"))
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	if _, err := rdx.RdxHdel("tokens", claims.UserID); err != nil {
		log.Printf("Error removing token from Redis: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, nil, "Signed out", nil)
}

// POST /api/auth/token/refresh
func RefreshToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		UserID       string `json:"userid"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.UserID == "" || input.RefreshToken == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	var acct models.Account
	err := db.AccountsCollection.FindOne(ctx, bson.M{
		"accountid":      input.UserID,
		"refresh_token":  hashToken(input.RefreshToken),
		"refresh_expiry": bson.M{"$gt": time.Now()},
	}).Decode(&acct)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	tokenString, err := generateAccessToken(&acct)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	if err := rdx.RdxHset("tokens", acct.AccountID, tokenString); err != nil {
		log.Printf("Error updating token in Redis: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, map[string]string{"token": tokenString}, "Token refreshed", nil)
}

// POST /api/auth/forgot-password
func ForgotPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email is required")
		return
	}

	// Neutral reply regardless of whether the email exists.
	const neutral = "If that email exists, a password reset link has been sent."

	var acct models.Account
	err := db.AccountsCollection.FindOne(ctx, bson.M{"email": strings.ToLower(input.Email)}).Decode(&acct)
	if err != nil {
		utils.SendResponse(w, http.StatusOK, nil, neutral, nil)
		return
	}

	rawToken, hashedToken, err := generateOpaqueToken()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	_, err = db.AccountsCollection.UpdateOne(ctx,
		bson.M{"accountid": acct.AccountID},
		bson.M{"$set": bson.M{
			"password_reset_token":   hashedToken,
			"password_reset_expires": time.Now().Add(resetTokenTTL),
		}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := mailer.SendResetPasswordEmail(Mail, acct.Email, rawToken, acct.FullName()); err != nil {
		log.Printf("Failed to send reset email: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, nil, neutral, nil)
}

// PUT /api/auth/reset-password
func ResetPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Token == "" || input.NewPassword == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Token and new password are required")
		return
	}
	if len(input.NewPassword) < 6 {
		utils.RespondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	var acct models.Account
	err := db.AccountsCollection.FindOne(ctx, bson.M{
		"password_reset_token":   hashToken(input.Token),
		"password_reset_expires": bson.M{"$gt": time.Now()},
	}).Decode(&acct)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Reset token is invalid or has expired")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not process password")
		return
	}

	_, err = db.AccountsCollection.UpdateOne(ctx,
		bson.M{"accountid": acct.AccountID},
		bson.M{
			"$set":   bson.M{"password": string(hashed), "updatedAt": time.Now()},
			"$unset": bson.M{"password_reset_token": "", "password_reset_expires": ""},
		},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := mailer.SendPasswordChangedEmail(Mail, acct.Email, acct.FullName()); err != nil {
		log.Printf("Failed to send password-changed email: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, nil, "Password has been reset. You can sign in with the new password.", nil)
}
