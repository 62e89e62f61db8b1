package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vitatrack/vitatrack-backend/internal/database"
	"github.com/vitatrack/vitatrack-backend/internal/middleware"
	"github.com/vitatrack/vitatrack-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityPayload is the JSON body for creating or updating an activity.
// The owner is always taken from the session, never from the payload.
type ActivityPayload struct {
	Type               string     `json:"type"`
	Duration           *float64   `json:"duration"`
	Notes              string     `json:"notes"`
	Date               *time.Time `json:"date"`
	Mood               string     `json:"mood"`
	WaterIntake        *float64   `json:"waterIntake"`
	SleepHours         *float64   `json:"sleepHours"`
	SelectedActivities []string   `json:"selectedActivities"`
}

// GetActivities returns all of the caller's activities, newest first.
// Deliberately unpaginated: the mobile client renders the full history.
func GetActivities(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.Identity(r.Context())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection(database.ActivitiesCollection).Find(ctx,
		bson.M{"user": identity.UserID},
		options.Find().SetSort(bson.M{"date": -1}))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching activities", err)
		return
	}
	defer cursor.Close(ctx)

	activities := []models.Activity{}
	if err = cursor.All(ctx, &activities); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching activities", err)
		return
	}

	respondJSON(w, http.StatusOK, activities)
}

// CreateActivity validates the type-conditional fields and persists a new
// activity owned by the caller.
func CreateActivity(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.Identity(r.Context())

	var payload ActivityPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	activity := models.Activity{
		User:               identity.UserID,
		Type:               payload.Type,
		Duration:           payload.Duration,
		Notes:              payload.Notes,
		Date:               time.Now(),
		Mood:               payload.Mood,
		WaterIntake:        payload.WaterIntake,
		SleepHours:         payload.SleepHours,
		SelectedActivities: payload.SelectedActivities,
	}
	if payload.Date != nil {
		activity.Date = *payload.Date
	}

	if err := activity.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "Error creating activity", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := database.DB.Collection(database.ActivitiesCollection).InsertOne(ctx, activity)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error creating activity", err)
		return
	}
	activity.ID = result.InsertedID.(primitive.ObjectID)

	respondJSON(w, http.StatusCreated, activity)
}

// UpdateActivity applies the provided fields to an activity the caller owns.
// A non-owner gets the same 404 as a missing id, so existence never leaks.
func UpdateActivity(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.Identity(r.Context())

	activityID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid activity ID", nil)
		return
	}

	var payload ActivityPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	set := bson.M{}
	if payload.Type != "" {
		set["type"] = payload.Type
	}
	if payload.Duration != nil {
		set["duration"] = *payload.Duration
	}
	if payload.Notes != "" {
		set["notes"] = payload.Notes
	}
	if payload.Date != nil {
		set["date"] = *payload.Date
	}
	if payload.Mood != "" {
		set["mood"] = payload.Mood
	}
	if payload.WaterIntake != nil {
		set["waterIntake"] = *payload.WaterIntake
	}
	if payload.SleepHours != nil {
		set["sleepHours"] = *payload.SleepHours
	}
	if payload.SelectedActivities != nil {
		set["selectedActivities"] = payload.SelectedActivities
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var updated models.Activity
	if len(set) == 0 {
		// Nothing to change; still honor the ownership-gated 404 contract.
		err = database.DB.Collection(database.ActivitiesCollection).FindOne(ctx,
			bson.M{"_id": activityID, "user": identity.UserID}).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondError(w, http.StatusNotFound, "Activity not found", nil)
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Error updating activity", err)
			return
		}
		respondJSON(w, http.StatusOK, updated)
		return
	}

	err = database.DB.Collection(database.ActivitiesCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": activityID, "user": identity.UserID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Activity not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating activity", err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeleteActivity removes an activity the caller owns, with the same
// ownership-gated 404 contract as UpdateActivity.
func DeleteActivity(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.Identity(r.Context())

	activityID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid activity ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = database.DB.Collection(database.ActivitiesCollection).FindOneAndDelete(ctx,
		bson.M{"_id": activityID, "user": identity.UserID}).Err()
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Activity not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error deleting activity", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Activity deleted successfully"})
}

// GetActivitiesByRange returns the caller's activities with date inside
// [startDate, endDate], newest first.
func GetActivitiesByRange(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.Identity(r.Context())

	start, err := parseDate(r.URL.Query().Get("startDate"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid startDate", nil)
		return
	}
	end, err := parseDate(r.URL.Query().Get("endDate"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid endDate", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection(database.ActivitiesCollection).Find(ctx,
		bson.M{
			"user": identity.UserID,
			"date": bson.M{"$gte": start, "$lte": end},
		},
		options.Find().SetSort(bson.M{"date": -1}))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching activities", err)
		return
	}
	defer cursor.Close(ctx)

	activities := []models.Activity{}
	if err = cursor.All(ctx, &activities); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching activities", err)
		return
	}

	respondJSON(w, http.StatusOK, activities)
}
