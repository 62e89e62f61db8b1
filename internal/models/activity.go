package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity types.
const (
	ActivityExercise  = "exercise"
	ActivityReading   = "reading"
	ActivityNutrition = "nutrition"
	ActivitySleep     = "sleep"
)

var activityTypes = map[string]bool{
	ActivityExercise:  true,
	ActivityReading:   true,
	ActivityNutrition: true,
	ActivitySleep:     true,
}

var moods = map[string]bool{
	"Great":     true,
	"Good":      true,
	"Okay":      true,
	"Tired":     true,
	"Exhausted": true,
}

// Sub-activity tags for exercise entries.
var exerciseTags = map[string]bool{
	"meditation": true,
	"yoga":       true,
	"walking":    true,
	"cycling":    true,
	"swimming":   true,
	"gym":        true,
}

// Activity is a single wellness log entry owned by one user. Which of the
// optional fields must be set depends on Type: duration for exercise and
// reading, waterIntake for nutrition, sleepHours for sleep.
type Activity struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User               primitive.ObjectID `bson:"user" json:"user"`
	Type               string             `bson:"type" json:"type"`
	Duration           *float64           `bson:"duration,omitempty" json:"duration,omitempty"`
	Notes              string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Date               time.Time          `bson:"date" json:"date"`
	Mood               string             `bson:"mood,omitempty" json:"mood,omitempty"`
	WaterIntake        *float64           `bson:"waterIntake,omitempty" json:"waterIntake,omitempty"`
	SleepHours         *float64           `bson:"sleepHours,omitempty" json:"sleepHours,omitempty"`
	SelectedActivities []string           `bson:"selectedActivities,omitempty" json:"selectedActivities,omitempty"`
}

// Validate enforces the type enum and the type-conditional required fields.
func (a *Activity) Validate() error {
	if !activityTypes[a.Type] {
		return errors.New("type must be one of exercise, reading, nutrition, sleep")
	}
	switch a.Type {
	case ActivityExercise, ActivityReading:
		if a.Duration == nil {
			return errors.New("duration is required for " + a.Type + " activities")
		}
	case ActivityNutrition:
		if a.WaterIntake == nil {
			return errors.New("waterIntake is required for nutrition activities")
		}
	case ActivitySleep:
		if a.SleepHours == nil {
			return errors.New("sleepHours is required for sleep activities")
		}
	}
	if a.Mood != "" && !moods[a.Mood] {
		return errors.New("mood must be one of Great, Good, Okay, Tired, Exhausted")
	}
	for _, tag := range a.SelectedActivities {
		if !exerciseTags[tag] {
			return errors.New("unknown activity tag: " + tag)
		}
	}
	return nil
}

// DurationOrZero treats a missing duration as 0 when summing reading time.
func (a *Activity) DurationOrZero() float64 {
	if a.Duration == nil {
		return 0
	}
	return *a.Duration
}
