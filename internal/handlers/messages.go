package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vitatrack/vitatrack-backend/internal/database"
	"github.com/vitatrack/vitatrack-backend/internal/middleware"
	"github.com/vitatrack/vitatrack-backend/internal/models"
	"github.com/vitatrack/vitatrack-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SendMessageRequest is the JSON body for POST /api/messages/send.
type SendMessageRequest struct {
	RecipientID string              `json:"recipientId"`
	Subject     string              `json:"subject"`
	Content     string              `json:"content"`
	Priority    string              `json:"priority"`
	Attachments []models.Attachment `json:"attachments"`
}

// BroadcastRequest is the JSON body for POST /api/messages/broadcast.
// UserFilter has the same shape as the admin user listing filter.
type BroadcastRequest struct {
	Subject     string              `json:"subject"`
	Content     string              `json:"content"`
	Priority    string              `json:"priority"`
	UserFilter  UserFilter          `json:"userFilter"`
	Attachments []models.Attachment `json:"attachments"`
}

// UserFilter selects users by case-insensitive name/email substring, exact
// role, and active flag.
type UserFilter struct {
	Search   string `json:"search"`
	Role     string `json:"role"`
	IsActive *bool  `json:"isActive"`
}

// userRef is the expanded sender/recipient shape in message responses.
type userRef struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// buildUserFilter turns a UserFilter into a Mongo query document.
func buildUserFilter(f UserFilter) bson.M {
	query := bson.M{}
	if f.Search != "" {
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	if f.Role != "" {
		query["role"] = f.Role
	}
	if f.IsActive != nil {
		query["isActive"] = *f.IsActive
	}
	return query
}

// fetchUserRefs loads name/email for a set of user ids in one query.
func fetchUserRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]userRef, error) {
	refs := make(map[primitive.ObjectID]userRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	cursor, err := database.DB.Collection(database.UsersCollection).Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "email": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		refs[u.ID] = userRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return refs, nil
}

// messageView shapes a message for responses, expanding sender (and, when
// requested, recipient) to name/email refs.
func messageView(m models.Message, refs map[primitive.ObjectID]userRef, expandRecipient bool) map[string]interface{} {
	view := map[string]interface{}{
		"id":        m.ID,
		"sender":    refs[m.Sender],
		"type":      m.Type,
		"subject":   m.Subject,
		"content":   m.Content,
		"isRead":    m.IsRead,
		"readAt":    m.ReadAt,
		"priority":  m.Priority,
		"createdAt": m.CreatedAt,
	}
	if len(m.Attachments) > 0 {
		view["attachments"] = m.Attachments
	}
	if m.Recipient != nil {
		if expandRecipient {
			view["recipient"] = refs[*m.Recipient]
		} else {
			view["recipient"] = *m.Recipient
		}
	}
	return view
}

// SendMessage creates a direct message from the admin caller to one user.
func SendMessage(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.Identity(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if req.RecipientID == "" || req.Subject == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, "Recipient, subject, and content are required", nil)
		return
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(req.Priority) {
		respondError(w, http.StatusBadRequest, "Priority must be low, medium or high", nil)
		return
	}

	recipientID, err := primitive.ObjectIDFromHex(req.RecipientID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid recipient ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = database.DB.Collection(database.UsersCollection).FindOne(ctx, bson.M{"_id": recipientID}).Err()
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Recipient not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error sending message", err)
		return
	}

	message := models.Message{
		Sender:      identity.UserID,
		Recipient:   &recipientID,
		Type:        models.MessageDirect,
		Subject:     req.Subject,
		Content:     req.Content,
		IsRead:      false,
		ReadAt:      nil,
		Priority:    req.Priority,
		Attachments: req.Attachments,
		CreatedAt:   time.Now(),
	}

	result, err := database.DB.Collection(database.MessagesCollection).InsertOne(ctx, message)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error sending message", err)
		return
	}
	message.ID = result.InsertedID.(primitive.ObjectID)

	refs, err := fetchUserRefs(ctx, []primitive.ObjectID{message.Sender})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error sending message", err)
		return
	}

	notifyRecipient(r.Context(), message, refs[message.Sender].Name)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Message sent successfully",
		"data":    messageView(message, refs, false),
	})
}

// Broadcast fans one message out to every user matching the filter: each
// recipient gets an independent document, created in a single bulk insert.
func Broadcast(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.Identity(r.Context())

	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if req.Subject == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, "Subject and content are required", nil)
		return
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(req.Priority) {
		respondError(w, http.StatusBadRequest, "Priority must be low, medium or high", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection(database.UsersCollection).Find(ctx,
		buildUserFilter(req.UserFilter),
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error sending broadcast", err)
		return
	}

	var recipients []models.User
	if err := cursor.All(ctx, &recipients); err != nil {
		respondError(w, http.StatusInternalServerError, "Error sending broadcast", err)
		return
	}

	if len(recipients) == 0 {
		respondError(w, http.StatusBadRequest, "No users found matching the criteria", nil)
		return
	}

	now := time.Now()
	messages := buildBroadcastMessages(identity.UserID, recipients, req.Subject, req.Content, req.Priority, req.Attachments, now)

	docs := make([]interface{}, len(messages))
	for i := range messages {
		docs[i] = messages[i]
	}

	result, err := database.DB.Collection(database.MessagesCollection).InsertMany(ctx, docs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error sending broadcast", err)
		return
	}

	for i, id := range result.InsertedIDs {
		messages[i].ID = id.(primitive.ObjectID)
		notifyRecipient(r.Context(), messages[i], "")
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": fmt.Sprintf("Broadcast sent to %d users", len(result.InsertedIDs)),
		"count":   len(result.InsertedIDs),
	})
}

// buildBroadcastMessages builds one message per recipient with identical
// subject, content and priority.
func buildBroadcastMessages(sender primitive.ObjectID, recipients []models.User, subject, content, priority string, attachments []models.Attachment, createdAt time.Time) []models.Message {
	messages := make([]models.Message, 0, len(recipients))
	for _, u := range recipients {
		recipient := u.ID
		messages = append(messages, models.Message{
			Sender:      sender,
			Recipient:   &recipient,
			Type:        models.MessageBroadcast,
			Subject:     subject,
			Content:     content,
			IsRead:      false,
			ReadAt:      nil,
			Priority:    priority,
			Attachments: attachments,
			CreatedAt:   createdAt,
		})
	}
	return messages
}

// notifyRecipient pushes a realtime event for the message's recipient.
// Best-effort: delivery failures only get logged.
func notifyRecipient(ctx context.Context, m models.Message, senderName string) {
	if m.Recipient == nil {
		return
	}
	event := services.MessageEvent{
		Type:       "message",
		MessageID:  m.ID.Hex(),
		Subject:    m.Subject,
		Priority:   m.Priority,
		SenderID:   m.Sender.Hex(),
		SenderName: senderName,
	}
	if err := services.PublishMessageEvent(ctx, m.Recipient.Hex(), event); err != nil {
		log.Printf("failed to publish message event: %v", err)
	}
}

// GetMyMessages returns the caller's inbox, paginated, newest first.
// ?unread=true restricts to unread messages.
func GetMyMessages(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.Identity(r.Context())
	page, limit := parsePagination(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	query := bson.M{"recipient": identity.UserID}
	if unreadOnly {
		query["isRead"] = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	col := database.DB.Collection(database.MessagesCollection)

	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching messages", err)
		return
	}

	cursor, err := col.Find(ctx, query, options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching messages", err)
		return
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching messages", err)
		return
	}

	senderIDs := make([]primitive.ObjectID, 0, len(messages))
	for _, m := range messages {
		senderIDs = append(senderIDs, m.Sender)
	}
	refs, err := fetchUserRefs(ctx, senderIDs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching messages", err)
		return
	}

	views := make([]map[string]interface{}, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView(m, refs, false))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages":    views,
		"totalPages":  totalPages(total, limit),
		"currentPage": page,
		"total":       total,
	})
}

// markReadUpdate builds the update document for marking a message read.
// isRead and readAt are always stamped together; repeat calls re-stamp readAt.
func markReadUpdate(now time.Time) bson.M {
	return bson.M{"$set": bson.M{"isRead": true, "readAt": now}}
}

// MarkMessageRead marks a message as read, stamping isRead and readAt
// together. Only the recipient can mark their message; anyone else gets the
// same 404 as a missing id.
func MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.Identity(r.Context())

	messageID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = database.DB.Collection(database.MessagesCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": messageID, "recipient": identity.UserID},
		markReadUpdate(time.Now()),
	).Err()
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Message not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error updating message", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Message marked as read"})
}

// GetAllMessages returns every message, paginated, with sender and recipient
// expanded. ?type filters by direct/broadcast.
func GetAllMessages(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	msgType := r.URL.Query().Get("type")

	query := bson.M{}
	if msgType != "" {
		query["type"] = msgType
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	col := database.DB.Collection(database.MessagesCollection)

	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching messages", err)
		return
	}

	cursor, err := col.Find(ctx, query, options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching messages", err)
		return
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching messages", err)
		return
	}

	userIDs := make([]primitive.ObjectID, 0, 2*len(messages))
	for _, m := range messages {
		userIDs = append(userIDs, m.Sender)
		if m.Recipient != nil {
			userIDs = append(userIDs, *m.Recipient)
		}
	}
	refs, err := fetchUserRefs(ctx, userIDs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error fetching messages", err)
		return
	}

	views := make([]map[string]interface{}, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView(m, refs, true))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages":    views,
		"totalPages":  totalPages(total, limit),
		"currentPage": page,
		"total":       total,
	})
}

// DeleteMessage removes any message by id, admin only.
func DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = database.DB.Collection(database.MessagesCollection).FindOneAndDelete(ctx,
		bson.M{"_id": messageID}).Err()
	if err == mongo.ErrNoDocuments {
		respondError(w, http.StatusNotFound, "Message not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error deleting message", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Message deleted successfully"})
}
