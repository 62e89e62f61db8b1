package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitatrack/vitatrack-backend/internal/middleware"
	"github.com/vitatrack/vitatrack-backend/internal/models"
	"github.com/vitatrack/vitatrack-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func adminRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	identity := services.Identity{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	return r.WithContext(middleware.WithIdentity(r.Context(), identity))
}

func TestMarkReadUpdateStampsBothFields(t *testing.T) {
	now := time.Now()
	update := markReadUpdate(now)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"isRead": true, "readAt": now}, set)

	// A later call stamps the new time; readAt is never frozen at first read.
	later := now.Add(time.Minute)
	assert.Equal(t, later, markReadUpdate(later)["$set"].(bson.M)["readAt"])
}

func TestBuildUserFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, buildUserFilter(UserFilter{}))

	active := true
	query := buildUserFilter(UserFilter{Search: "ann", Role: "user", IsActive: &active})
	assert.Equal(t, "user", query["role"])
	assert.Equal(t, true, query["isActive"])

	or, ok := query["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"name": bson.M{"$regex": "ann", "$options": "i"}}, or[0])
	assert.Equal(t, bson.M{"email": bson.M{"$regex": "ann", "$options": "i"}}, or[1])

	inactive := false
	query = buildUserFilter(UserFilter{IsActive: &inactive})
	assert.Equal(t, false, query["isActive"])
}

func TestBuildBroadcastMessagesFanOut(t *testing.T) {
	sender := primitive.NewObjectID()
	recipients := []models.User{
		{ID: primitive.NewObjectID()},
		{ID: primitive.NewObjectID()},
		{ID: primitive.NewObjectID()},
	}
	now := time.Now()

	messages := buildBroadcastMessages(sender, recipients, "Weekly check-in", "How is it going?", models.PriorityHigh, nil, now)
	require.Len(t, messages, len(recipients))

	seen := map[primitive.ObjectID]bool{}
	for i, m := range messages {
		assert.Equal(t, sender, m.Sender)
		require.NotNil(t, m.Recipient)
		assert.Equal(t, recipients[i].ID, *m.Recipient)
		assert.False(t, seen[*m.Recipient], "recipient repeated in fan-out")
		seen[*m.Recipient] = true

		assert.Equal(t, models.MessageBroadcast, m.Type)
		assert.Equal(t, "Weekly check-in", m.Subject)
		assert.Equal(t, "How is it going?", m.Content)
		assert.Equal(t, models.PriorityHigh, m.Priority)
		assert.False(t, m.IsRead)
		assert.Nil(t, m.ReadAt)
		assert.Equal(t, now, m.CreatedAt)
	}
}

func TestMessageViewExpandsSender(t *testing.T) {
	sender := primitive.NewObjectID()
	recipient := primitive.NewObjectID()
	readAt := time.Now()
	m := models.Message{
		ID:        primitive.NewObjectID(),
		Sender:    sender,
		Recipient: &recipient,
		Type:      models.MessageDirect,
		Subject:   "hello",
		Content:   "world",
		IsRead:    true,
		ReadAt:    &readAt,
		Priority:  models.PriorityLow,
	}
	refs := map[primitive.ObjectID]userRef{
		sender: {ID: sender, Name: "Admin", Email: "admin@example.com"},
	}

	view := messageView(m, refs, false)
	assert.Equal(t, refs[sender], view["sender"])
	assert.Equal(t, recipient, view["recipient"])
	assert.Equal(t, true, view["isRead"])
	assert.Equal(t, &readAt, view["readAt"])
}

func TestSendMessageRequiresFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing subject", `{"recipientId":"656f1e9d8f1b2c3d4e5f6071","content":"hi"}`},
		{"missing content", `{"recipientId":"656f1e9d8f1b2c3d4e5f6071","subject":"hi"}`},
		{"missing recipient", `{"subject":"hi","content":"there"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			SendMessage(rr, adminRequest(http.MethodPost, "/api/messages/send", tt.body))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestSendMessageRejectsUnknownPriority(t *testing.T) {
	rr := httptest.NewRecorder()
	body := `{"recipientId":"656f1e9d8f1b2c3d4e5f6071","subject":"s","content":"c","priority":"urgent"}`
	SendMessage(rr, adminRequest(http.MethodPost, "/api/messages/send", body))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBroadcastRequiresSubjectAndContent(t *testing.T) {
	rr := httptest.NewRecorder()
	Broadcast(rr, adminRequest(http.MethodPost, "/api/messages/broadcast", `{"subject":"only subject"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	Broadcast(rr, adminRequest(http.MethodPost, "/api/messages/broadcast", `{"content":"only content"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
