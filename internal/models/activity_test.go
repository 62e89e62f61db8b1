package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestActivityValidateConditionalFields(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		wantErr  bool
	}{
		{"exercise with duration", Activity{Type: ActivityExercise, Duration: f(30)}, false},
		{"exercise without duration", Activity{Type: ActivityExercise}, true},
		{"reading with duration", Activity{Type: ActivityReading, Duration: f(15)}, false},
		{"reading without duration", Activity{Type: ActivityReading}, true},
		{"nutrition with waterIntake", Activity{Type: ActivityNutrition, WaterIntake: f(2)}, false},
		{"nutrition without waterIntake", Activity{Type: ActivityNutrition}, true},
		{"sleep with sleepHours", Activity{Type: ActivitySleep, SleepHours: f(8)}, false},
		{"sleep without sleepHours", Activity{Type: ActivitySleep}, true},
		{"unknown type", Activity{Type: "swimming"}, true},
		{"empty type", Activity{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.activity.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestActivityValidateEnums(t *testing.T) {
	a := Activity{Type: ActivityExercise, Duration: f(20), Mood: "Meh"}
	assert.Error(t, a.Validate())

	a.Mood = "Great"
	assert.NoError(t, a.Validate())

	a.SelectedActivities = []string{"yoga", "parkour"}
	assert.Error(t, a.Validate())

	a.SelectedActivities = []string{"yoga", "gym"}
	assert.NoError(t, a.Validate())
}

func TestDurationOrZero(t *testing.T) {
	a := Activity{Type: ActivityReading}
	assert.Equal(t, 0.0, a.DurationOrZero())

	a.Duration = f(45)
	assert.Equal(t, 45.0, a.DurationOrZero())
}
