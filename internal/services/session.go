package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/vitatrack/vitatrack-backend/internal/database"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

// Identity is the authenticated caller resolved from a session token.
type Identity struct {
	UserID primitive.ObjectID
	Role   string
}

// CreateSession creates a new session for a user and stores it in Redis.
// An existing session for the same user is invalidated first so the 7-day
// timer resets from the current login. Returns the session token.
func CreateSession(userID primitive.ObjectID, role string) (string, error) {
	InvalidateUserSessions(userID)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	sessionToken := base64.URLEncoding.EncodeToString(tokenBytes)

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken
	userSessionKey := UserSessionKeyPrefix + userID.Hex()

	// Session value carries the user id and role so auth middleware doesn't
	// need a user lookup on every request.
	if err := database.RedisClient.Set(ctx, sessionKey, userID.Hex()+":"+role, SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, userSessionKey, sessionToken, SessionDuration).Err(); err != nil {
		return "", err
	}

	return sessionToken, nil
}

// ValidateSession checks a session token and returns the caller's identity.
func ValidateSession(sessionToken string) (Identity, bool, error) {
	if sessionToken == "" {
		return Identity{}, false, nil
	}

	ctx := context.Background()
	value, err := database.RedisClient.Get(ctx, SessionKeyPrefix+sessionToken).Result()
	if err != nil {
		return Identity{}, false, nil
	}

	idHex, role, found := strings.Cut(value, ":")
	if !found {
		return Identity{}, false, nil
	}
	userID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return Identity{}, false, err
	}

	return Identity{UserID: userID, Role: role}, true, nil
}

// InvalidateSession removes a session from Redis.
func InvalidateSession(sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken

	value, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err == nil && value != "" {
		idHex, _, _ := strings.Cut(value, ":")
		database.RedisClient.Del(ctx, UserSessionKeyPrefix+idHex)
	}

	return database.RedisClient.Del(ctx, sessionKey).Err()
}

// InvalidateUserSessions invalidates the active session for a user (used on
// login and when an admin deletes the account).
func InvalidateUserSessions(userID primitive.ObjectID) error {
	ctx := context.Background()
	userSessionKey := UserSessionKeyPrefix + userID.Hex()

	sessionToken, err := database.RedisClient.Get(ctx, userSessionKey).Result()
	if err == nil && sessionToken != "" {
		database.RedisClient.Del(ctx, SessionKeyPrefix+sessionToken)
	}

	return database.RedisClient.Del(ctx, userSessionKey).Err()
}
