package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitatrack/vitatrack-backend/internal/middleware"
	"github.com/vitatrack/vitatrack-backend/internal/models"
	"github.com/vitatrack/vitatrack-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func userRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	identity := services.Identity{UserID: primitive.NewObjectID(), Role: models.RoleUser}
	return r.WithContext(middleware.WithIdentity(r.Context(), identity))
}

func TestCreateActivityValidatesConditionalFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"exercise without duration", `{"type":"exercise"}`},
		{"reading without duration", `{"type":"reading"}`},
		{"nutrition without waterIntake", `{"type":"nutrition","duration":30}`},
		{"sleep without sleepHours", `{"type":"sleep"}`},
		{"unknown type", `{"type":"gaming","duration":60}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			CreateActivity(rr, userRequest(http.MethodPost, "/api/activities", tt.body))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestCreateActivityRejectsBadJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	CreateActivity(rr, userRequest(http.MethodPost, "/api/activities", `{"type":`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetActivitiesByRangeRejectsBadDates(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing both", "/api/activities/range"},
		{"bad startDate", "/api/activities/range?startDate=soon&endDate=2025-02-01"},
		{"bad endDate", "/api/activities/range?startDate=2025-01-01&endDate=later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			GetActivitiesByRange(rr, userRequest(http.MethodGet, tt.target, ""))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestUpdateActivityRejectsMalformedID(t *testing.T) {
	rr := httptest.NewRecorder()
	r := withURLParam(userRequest(http.MethodPut, "/api/activities/xyz", `{"notes":"hi"}`), "id", "xyz")
	UpdateActivity(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteActivityRejectsMalformedID(t *testing.T) {
	rr := httptest.NewRecorder()
	r := withURLParam(userRequest(http.MethodDelete, "/api/activities/xyz", ""), "id", "xyz")
	DeleteActivity(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
