package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vitatrack/vitatrack-backend/internal/database"
	"github.com/vitatrack/vitatrack-backend/internal/models"
	"github.com/vitatrack/vitatrack-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Reporting windows, anchored to the wall clock at request time.
const (
	dailyStatsWindow = 30 // days
	newUsersWindow   = 7  // days
	recentLimit      = 10
	rankingLimit     = 5
)

// DailyStat is one calendar-day bucket of a user's activity.
type DailyStat struct {
	Date          string   `bson:"_id" json:"date"`
	TotalDuration float64  `bson:"totalDuration" json:"totalDuration"`
	ActivityCount int      `bson:"activityCount" json:"activityCount"`
	Types         []string `bson:"types" json:"types"`
}

// ActiveUser is one row of the most-active-user ranking.
type ActiveUser struct {
	UserID        primitive.ObjectID `bson:"_id" json:"userId"`
	ActivityCount int                `bson:"activityCount" json:"activityCount"`
	TotalDuration float64            `bson:"totalDuration" json:"totalDuration"`
	User          []models.User      `bson:"user" json:"user"`
}

// dailyStatsPipeline groups a user's activities since the cutoff by calendar
// day: per day, total duration, activity count and the set of types present,
// sorted newest day first.
func dailyStatsPipeline(userID primitive.ObjectID, since time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"user": userID,
			"date": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$date",
			}},
			"totalDuration": bson.M{"$sum": "$duration"},
			"activityCount": bson.M{"$sum": 1},
			"types":         bson.M{"$addToSet": "$type"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": -1}}},
	}
}

// mostActiveUsersPipeline ranks users by activity count since the cutoff,
// summing durations, and joins in the owning user record.
func mostActiveUsersPipeline(since time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"date": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$user",
			"activityCount": bson.M{"$sum": 1},
			"totalDuration": bson.M{"$sum": "$duration"},
		}}},
		{{Key: "$sort", Value: bson.M{"activityCount": -1}}},
		{{Key: "$limit", Value: rankingLimit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.UsersCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
	}
}

// GetUsers returns a paginated, filtered user listing with passwords
// stripped.
func GetUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	filter := UserFilter{
		Search: r.URL.Query().Get("search"),
		Role:   r.URL.Query().Get("role"),
	}
	if v := r.URL.Query().Get("isActive"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}
	query := buildUserFilter(filter)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	col := database.DB.Collection(database.UsersCollection)

	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching users", err)
		return
	}

	cursor, err := col.Find(ctx, query, options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching users", err)
		return
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching users", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users":       users,
		"totalPages":  totalPages(total, limit),
		"currentPage": page,
		"total":       total,
	})
}

// GetUserByID returns a user together with their recent activities, total
// reading time and per-day stats for the trailing 30 days.
func GetUserByID(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var user models.User
	err = database.DB.Collection(database.UsersCollection).FindOne(ctx,
		bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"password": 0}),
	).Decode(&user)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching user details", err)
		return
	}

	activitiesCol := database.DB.Collection(database.ActivitiesCollection)

	// 10 most recent activities of any type
	cursor, err := activitiesCol.Find(ctx,
		bson.M{"user": userID},
		options.Find().SetSort(bson.M{"date": -1}).SetLimit(recentLimit))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching user details", err)
		return
	}
	activities := []models.Activity{}
	if err := cursor.All(ctx, &activities); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching user details", err)
		return
	}

	// Total reading time across the user's whole history
	cursor, err = activitiesCol.Find(ctx, bson.M{
		"user": userID,
		"type": models.ActivityReading,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching user details", err)
		return
	}
	var readingActivities []models.Activity
	if err := cursor.All(ctx, &readingActivities); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching user details", err)
		return
	}
	var totalReadingTime float64
	for _, a := range readingActivities {
		totalReadingTime += a.DurationOrZero()
	}

	// Daily buckets for the trailing 30 days
	since := time.Now().AddDate(0, 0, -dailyStatsWindow)
	cursor, err = activitiesCol.Aggregate(ctx, dailyStatsPipeline(userID, since))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching user details", err)
		return
	}
	dailyStats := []DailyStat{}
	if err := cursor.All(ctx, &dailyStats); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching user details", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":       user,
		"activities": activities,
		"stats": map[string]interface{}{
			"totalReadingTime": totalReadingTime,
			// Counts the fetched recent activities, not the lifetime total.
			// Kept for response compatibility; flagged to stakeholders.
			"totalActivities": len(activities),
			"dailyStats":      dailyStats,
		},
	})
}

// UpdateUserRequest is the allow-listed admin update. Password, id and
// createdAt can never be changed through this endpoint.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// UpdateUser applies an admin edit to a user record.
func UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Email != nil {
		set["email"] = *req.Email
	}
	if req.Role != nil {
		if *req.Role != models.RoleUser && *req.Role != models.RoleAdmin {
			respondError(w, http.StatusBadRequest, "Role must be user or admin", nil)
			return
		}
		set["role"] = *req.Role
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var updated models.User
	err = database.DB.Collection(database.UsersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"password": 0}),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating user", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User updated successfully",
		"user":    updated,
	})
}

// DeleteUser removes a user and cascades to their activities and messages
// (as sender or recipient). The steps are not transactional: a failure
// partway leaves orphans, which is tolerated as best-effort.
func DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err = database.DB.Collection(database.UsersCollection).FindOneAndDelete(ctx,
		bson.M{"_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error deleting user", err)
		return
	}

	if _, err := database.DB.Collection(database.ActivitiesCollection).DeleteMany(ctx,
		bson.M{"user": userID}); err != nil {
		respondError(w, http.StatusInternalServerError, "Error deleting user", err)
		return
	}
	if _, err := database.DB.Collection(database.MessagesCollection).DeleteMany(ctx,
		bson.M{"$or": bson.A{
			bson.M{"sender": userID},
			bson.M{"recipient": userID},
		}}); err != nil {
		respondError(w, http.StatusInternalServerError, "Error deleting user", err)
		return
	}

	services.InvalidateUserSessions(userID)

	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// GetDashboardStats returns system-wide counts plus the 30-day most-active
// ranking. Every call re-scans; nothing is cached.
func GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	usersCol := database.DB.Collection(database.UsersCollection)
	activitiesCol := database.DB.Collection(database.ActivitiesCollection)

	totalUsers, err := usersCol.CountDocuments(ctx, bson.M{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching dashboard stats", err)
		return
	}
	activeUsers, err := usersCol.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching dashboard stats", err)
		return
	}
	adminUsers, err := usersCol.CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching dashboard stats", err)
		return
	}

	now := time.Now()
	thirtyDaysAgo := now.AddDate(0, 0, -dailyStatsWindow)
	sevenDaysAgo := now.AddDate(0, 0, -newUsersWindow)

	recentActivities, err := activitiesCol.CountDocuments(ctx,
		bson.M{"date": bson.M{"$gte": thirtyDaysAgo}})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching dashboard stats", err)
		return
	}

	newUsers, err := usersCol.CountDocuments(ctx,
		bson.M{"createdAt": bson.M{"$gte": sevenDaysAgo}})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching dashboard stats", err)
		return
	}

	cursor, err := activitiesCol.Aggregate(ctx, mostActiveUsersPipeline(thirtyDaysAgo))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching dashboard stats", err)
		return
	}
	mostActiveUsers := []ActiveUser{}
	if err := cursor.All(ctx, &mostActiveUsers); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching dashboard stats", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"totalUsers":       totalUsers,
		"activeUsers":      activeUsers,
		"adminUsers":       adminUsers,
		"recentActivities": recentActivities,
		"newUsers":         newUsers,
		"mostActiveUsers":  mostActiveUsers,
	})
}
