package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vitatrack/vitatrack-backend/internal/database"
	"github.com/vitatrack/vitatrack-backend/internal/middleware"
	"github.com/vitatrack/vitatrack-backend/internal/models"
	"github.com/vitatrack/vitatrack-backend/internal/services"
	"github.com/vitatrack/vitatrack-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`
	Token   string       `json:"token,omitempty"`
}

// Signup registers a new account. Every self-registered account gets the
// "user" role; admin accounts are promoted through user management.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Name, email, and password are required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	users := database.DB.Collection(database.UsersCollection)

	err := users.FindOne(ctx, bson.M{"email": req.Email}).Err()
	if err == nil {
		respondError(w, http.StatusConflict, "User with this email already exists", nil)
		return
	} else if err != mongo.ErrNoDocuments {
		respondError(w, http.StatusInternalServerError, "Error checking existing user", err)
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	now := time.Now()
	user := models.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  hashed,
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := users.InsertOne(ctx, user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	token, err := services.CreateSession(user.ID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create session", err)
		return
	}

	respondJSON(w, http.StatusCreated, AuthResponse{
		Message: "User created successfully",
		User:    &user,
		Token:   token,
	})
}

// Signin logs a user in and returns a session token.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	err := database.DB.Collection(database.UsersCollection).FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !valid {
		respondError(w, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}

	token, err := services.CreateSession(user.ID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create session", err)
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		User:    &user,
		Token:   token,
	})
}

// Me returns the authenticated user's record.
func Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.Identity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	err := database.DB.Collection(database.UsersCollection).FindOne(ctx, bson.M{"_id": identity.UserID}).Decode(&user)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
