// ABOUTME: HTTP API handlers for conversations, partners, and statistics
// ABOUTME: JSON in, JSON out; errors map to 404/405/422/500 status codes

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quillchat/quill/internal/auth"
	"github.com/quillchat/quill/internal/conversation"
	"github.com/quillchat/quill/internal/store"
)

// SendMessageRequest is the JSON request body for POST /api/conversations/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// MessageResponse is the JSON shape of a message.
type MessageResponse struct {
	ID            int64   `json:"id"`
	SenderID      int64   `json:"sender_id"`
	RecipientID   int64   `json:"recipient_id"`
	SenderName    string  `json:"sender_name"`
	RecipientName string  `json:"recipient_name"`
	Content       string  `json:"content"`
	CreatedAt     string  `json:"created_at"`
	ReadAt        *string `json:"read_at"`
}

// PartnerResponse is the JSON shape of a conversation partner.
type PartnerResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MarkReadResponse is the JSON response for POST /api/conversations/{id}/read.
type MarkReadResponse struct {
	Message      string `json:"message"`
	UpdatedCount int64  `json:"updated_count"`
}

// StatsResponse is the JSON response for GET /api/stats.
type StatsResponse struct {
	TotalMessages         int64   `json:"total_messages"`
	MessagesToday         int64   `json:"messages_today"`
	UniqueConversations   int64   `json:"unique_conversations"`
	AverageMessagesPerDay float64 `json:"average_messages_per_day"`
}

func toMessageResponse(m *store.Message) MessageResponse {
	resp := MessageResponse{
		ID:            m.ID,
		SenderID:      m.SenderID,
		RecipientID:   m.RecipientID,
		SenderName:    m.SenderName,
		RecipientName: m.RecipientName,
		Content:       m.Content,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339Nano),
	}
	if m.ReadAt != nil {
		readAt := m.ReadAt.Format(time.RFC3339Nano)
		resp.ReadAt = &readAt
	}
	return resp
}

// handleConversationRoutes dispatches /api/conversations/{partnerID}/messages
// and /api/conversations/{partnerID}/read.
func (s *Server) handleConversationRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		s.sendJSONError(w, http.StatusNotFound, "not found")
		return
	}

	partnerID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || partnerID < 1 {
		s.sendJSONError(w, http.StatusBadRequest, "invalid partner id")
		return
	}

	switch parts[1] {
	case "messages":
		switch r.Method {
		case http.MethodGet:
			s.handleHistory(w, r, partnerID)
		case http.MethodPost:
			s.handleSend(w, r, partnerID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "read":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleMarkRead(w, r, partnerID)
	default:
		s.sendJSONError(w, http.StatusNotFound, "not found")
	}
}

// handleSend handles POST /api/conversations/{partnerID}/messages.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request, partnerID int64) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		s.sendJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg, err := s.service.SendMessage(r.Context(), identity.UserID, partnerID, req.Content)
	if err != nil {
		if ve, ok := conversation.AsValidationError(err); ok {
			s.sendJSONError(w, http.StatusUnprocessableEntity, ve.Message)
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			s.sendJSONError(w, http.StatusNotFound, "recipient not found")
			return
		}
		s.logger.Error("failed to send message", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

// handleHistory handles GET /api/conversations/{partnerID}/messages.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, partnerID int64) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		s.sendJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			s.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	messages, err := s.service.History(r.Context(), identity.UserID, partnerID, limit)
	if err != nil {
		s.logger.Error("failed to fetch history", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, toMessageResponse(m))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": resp})
}

// handleMarkRead handles POST /api/conversations/{partnerID}/read.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request, partnerID int64) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		s.sendJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	count, err := s.service.MarkRead(r.Context(), identity.UserID, partnerID)
	if err != nil {
		s.logger.Error("failed to mark messages read", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, MarkReadResponse{
		Message:      fmt.Sprintf("marked %d messages as read", count),
		UpdatedCount: count,
	})
}

// handleStats handles GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	identity := auth.FromContext(r.Context())
	if identity == nil {
		s.sendJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := s.service.Stats(r.Context(), identity.UserID)
	if err != nil {
		s.logger.Error("failed to fetch stats", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, StatsResponse{
		TotalMessages:         stats.TotalMessages,
		MessagesToday:         stats.MessagesToday,
		UniqueConversations:   stats.UniqueConversations,
		AverageMessagesPerDay: stats.AverageMessagesPerDay,
	})
}

// handlePartners handles GET /api/partners.
func (s *Server) handlePartners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	identity := auth.FromContext(r.Context())
	if identity == nil {
		s.sendJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	users, err := s.service.Partners(r.Context(), identity.UserID)
	if err != nil {
		s.logger.Error("failed to list partners", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]PartnerResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, PartnerResponse{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"partners": resp})
}

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
