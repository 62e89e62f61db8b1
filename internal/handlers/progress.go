package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vitatrack/vitatrack-backend/internal/database"
	"github.com/vitatrack/vitatrack-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WARNING: none of the progress endpoints are behind auth middleware. The
// upstream API shipped them unauthenticated and clients depend on that, so the
// gap is carried forward deliberately rather than silently closed. Anyone who
// knows a userId can read or mutate progress entries.

// CreateProgressRequest is the JSON body for POST /api/progress.
type CreateProgressRequest struct {
	UserID         string     `json:"userId"`
	ActivityID     string     `json:"activityId"`
	Date           *time.Time `json:"date"`
	Completed      bool       `json:"completed"`
	Notes          string     `json:"notes"`
	Duration       *float64   `json:"duration"`
	CaloriesBurned *float64   `json:"caloriesBurned"`
}

// UpdateProgressRequest is the allow-listed partial update for PATCH
// /api/progress/{id}. Only fields present in the body are applied; everything
// else keeps its stored value.
type UpdateProgressRequest struct {
	Date           *time.Time `json:"date"`
	Completed      *bool      `json:"completed"`
	Notes          *string    `json:"notes"`
	Duration       *float64   `json:"duration"`
	CaloriesBurned *float64   `json:"caloriesBurned"`
}

// GetProgressByUser returns all progress entries for a user, newest first,
// with the referenced activity expanded inline.
func GetProgressByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$sort", Value: bson.M{"date": -1}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.ActivitiesCollection,
			"localField":   "activityId",
			"foreignField": "_id",
			"as":           "activity",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$activity",
			"preserveNullAndEmptyArrays": true,
		}}},
	}

	cursor, err := database.DB.Collection(database.ProgressCollection).Aggregate(ctx, pipeline)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching progress", err)
		return
	}
	defer cursor.Close(ctx)

	progress := []models.ProgressWithActivity{}
	if err = cursor.All(ctx, &progress); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching progress", err)
		return
	}

	respondJSON(w, http.StatusOK, progress)
}

// CreateProgress persists a new progress entry.
func CreateProgress(w http.ResponseWriter, r *http.Request) {
	var req CreateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "userId is required", nil)
		return
	}
	activityID, err := primitive.ObjectIDFromHex(req.ActivityID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "activityId is required", nil)
		return
	}

	progress := models.Progress{
		UserID:         userID,
		ActivityID:     activityID,
		Date:           time.Now(),
		Completed:      req.Completed,
		Notes:          req.Notes,
		Duration:       req.Duration,
		CaloriesBurned: req.CaloriesBurned,
	}
	if req.Date != nil {
		progress.Date = *req.Date
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := database.DB.Collection(database.ProgressCollection).InsertOne(ctx, progress)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Error creating progress entry", err)
		return
	}
	progress.ID = result.InsertedID.(primitive.ObjectID)

	respondJSON(w, http.StatusCreated, progress)
}

// applyProgressUpdate copies the fields present in the request onto the stored
// entry. Omitted fields keep their stored values.
func applyProgressUpdate(progress *models.Progress, req UpdateProgressRequest) {
	if req.Date != nil {
		progress.Date = *req.Date
	}
	if req.Completed != nil {
		progress.Completed = *req.Completed
	}
	if req.Notes != nil {
		progress.Notes = *req.Notes
	}
	if req.Duration != nil {
		progress.Duration = req.Duration
	}
	if req.CaloriesBurned != nil {
		progress.CaloriesBurned = req.CaloriesBurned
	}
}

// UpdateProgress fetches the entry, merges the provided fields and saves it.
// The read-then-write is not atomic; a concurrent delete can win the race.
func UpdateProgress(w http.ResponseWriter, r *http.Request) {
	progressID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid progress ID", nil)
		return
	}

	var req UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	col := database.DB.Collection(database.ProgressCollection)

	var progress models.Progress
	err = col.FindOne(ctx, bson.M{"_id": progressID}).Decode(&progress)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Progress entry not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching progress entry", err)
		return
	}

	applyProgressUpdate(&progress, req)

	if _, err := col.ReplaceOne(ctx, bson.M{"_id": progressID}, progress); err != nil {
		respondError(w, http.StatusBadRequest, "Error updating progress entry", err)
		return
	}

	respondJSON(w, http.StatusOK, progress)
}

// DeleteProgress removes a progress entry by id.
func DeleteProgress(w http.ResponseWriter, r *http.Request) {
	progressID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid progress ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = database.DB.Collection(database.ProgressCollection).FindOneAndDelete(ctx,
		bson.M{"_id": progressID}).Err()
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Progress entry not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error deleting progress entry", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Progress entry deleted"})
}
