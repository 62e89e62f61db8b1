package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vitatrack/vitatrack-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func float64Ptr(v float64) *float64 { return &v }

func TestApplyProgressUpdateKeepsOmittedFields(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	id := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	activityID := primitive.NewObjectID()
	stored := func() models.Progress {
		return models.Progress{
			ID:             id,
			UserID:         userID,
			ActivityID:     activityID,
			Date:           date,
			Completed:      false,
			Notes:          "morning run",
			Duration:       float64Ptr(45),
			CaloriesBurned: float64Ptr(320),
		}
	}

	completed := true
	emptyNotes := ""
	newDate := date.AddDate(0, 0, 1)

	tests := []struct {
		name string
		req  UpdateProgressRequest
		want func(p *models.Progress)
	}{
		{
			name: "completed only",
			req:  UpdateProgressRequest{Completed: &completed},
			want: func(p *models.Progress) { p.Completed = true },
		},
		{
			name: "empty body changes nothing",
			req:  UpdateProgressRequest{},
			want: func(p *models.Progress) {},
		},
		{
			name: "notes cleared explicitly",
			req:  UpdateProgressRequest{Notes: &emptyNotes},
			want: func(p *models.Progress) { p.Notes = "" },
		},
		{
			name: "date and duration",
			req:  UpdateProgressRequest{Date: &newDate, Duration: float64Ptr(60)},
			want: func(p *models.Progress) {
				p.Date = newDate
				p.Duration = float64Ptr(60)
			},
		},
		{
			name: "caloriesBurned only",
			req:  UpdateProgressRequest{CaloriesBurned: float64Ptr(500)},
			want: func(p *models.Progress) { p.CaloriesBurned = float64Ptr(500) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stored()
			want := stored()
			tt.want(&want)

			applyProgressUpdate(&got, tt.req)
			assert.Equal(t, want, got)
		})
	}
}

func TestCreateProgressRequiresReferences(t *testing.T) {
	activityID := primitive.NewObjectID().Hex()
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing userId", `{"activityId":"` + activityID + `"}`},
		{"missing activityId", `{"userId":"` + primitive.NewObjectID().Hex() + `"}`},
		{"malformed userId", `{"userId":"123","activityId":"` + activityID + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/progress", strings.NewReader(tt.body))
			CreateProgress(rr, r)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestUpdateProgressRejectsMalformedID(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPatch, "/api/progress/bad", strings.NewReader(`{"completed":true}`))
	UpdateProgress(rr, withURLParam(r, "id", "bad"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteProgressRejectsMalformedID(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/progress/bad", nil)
	DeleteProgress(rr, withURLParam(r, "id", "bad"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
