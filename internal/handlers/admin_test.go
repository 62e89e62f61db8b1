package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// withURLParam attaches a chi route parameter to the request, the way the
// router would when dispatching.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func pipelineStage(t *testing.T, stage bson.D, op string) bson.M {
	t.Helper()
	require.Len(t, stage, 1)
	require.Equal(t, op, stage[0].Key)
	value, ok := stage[0].Value.(bson.M)
	require.True(t, ok)
	return value
}

func TestDailyStatsPipeline(t *testing.T) {
	userID := primitive.NewObjectID()
	since := time.Now().AddDate(0, 0, -30)

	pipeline := dailyStatsPipeline(userID, since)
	require.Len(t, pipeline, 3)

	match := pipelineStage(t, pipeline[0], "$match")
	assert.Equal(t, userID, match["user"])
	assert.Equal(t, bson.M{"$gte": since}, match["date"])

	group := pipelineStage(t, pipeline[1], "$group")
	assert.Equal(t, bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}}, group["_id"])
	assert.Equal(t, bson.M{"$sum": "$duration"}, group["totalDuration"])
	assert.Equal(t, bson.M{"$sum": 1}, group["activityCount"])
	assert.Equal(t, bson.M{"$addToSet": "$type"}, group["types"])

	sort := pipelineStage(t, pipeline[2], "$sort")
	assert.Equal(t, -1, sort["_id"])
}

func TestMostActiveUsersPipeline(t *testing.T) {
	since := time.Now().AddDate(0, 0, -30)

	pipeline := mostActiveUsersPipeline(since)
	require.Len(t, pipeline, 5)

	match := pipelineStage(t, pipeline[0], "$match")
	assert.Equal(t, bson.M{"$gte": since}, match["date"])

	group := pipelineStage(t, pipeline[1], "$group")
	assert.Equal(t, "$user", group["_id"])
	assert.Equal(t, bson.M{"$sum": 1}, group["activityCount"])
	assert.Equal(t, bson.M{"$sum": "$duration"}, group["totalDuration"])

	sort := pipelineStage(t, pipeline[2], "$sort")
	assert.Equal(t, -1, sort["activityCount"])

	require.Len(t, pipeline[3], 1)
	assert.Equal(t, "$limit", pipeline[3][0].Key)
	assert.Equal(t, rankingLimit, pipeline[3][0].Value)

	lookup := pipelineStage(t, pipeline[4], "$lookup")
	assert.Equal(t, "users", lookup["from"])
	assert.Equal(t, "_id", lookup["localField"])
	assert.Equal(t, "_id", lookup["foreignField"])
	assert.Equal(t, "user", lookup["as"])
}

func TestGetUserByIDRejectsMalformedID(t *testing.T) {
	rr := httptest.NewRecorder()
	r := withURLParam(httptest.NewRequest(http.MethodGet, "/api/admin/users/nope", nil), "id", "nope")
	GetUserByID(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateUserRejectsUnknownRole(t *testing.T) {
	id := primitive.NewObjectID().Hex()
	rr := httptest.NewRecorder()
	r := adminRequest(http.MethodPut, "/api/admin/users/"+id, `{"role":"superuser"}`)
	r = withURLParam(r, "id", id)
	UpdateUser(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteUserRejectsMalformedID(t *testing.T) {
	rr := httptest.NewRecorder()
	r := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/admin/users/bad", nil), "id", "bad")
	DeleteUser(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
