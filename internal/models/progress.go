package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Progress tracks completion of a single activity.
type Progress struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	ActivityID     primitive.ObjectID `bson:"activityId" json:"activityId"`
	Date           time.Time          `bson:"date" json:"date"`
	Completed      bool               `bson:"completed" json:"completed"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Duration       *float64           `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	CaloriesBurned *float64           `bson:"caloriesBurned,omitempty" json:"caloriesBurned,omitempty"`
}

// ProgressWithActivity is a progress entry with the referenced activity
// expanded inline (the $lookup result shape).
type ProgressWithActivity struct {
	Progress `bson:",inline"`
	Activity *Activity `bson:"activity,omitempty" json:"activity,omitempty"`
}
