package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/roomyhq/roomy/internal/service"
	"github.com/roomyhq/roomy/internal/transport/http/middleware"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Send persists a message from the authenticated caller and pushes it to the
// recipient's live session, if one exists.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	senderID := middleware.GetUserID(r.Context())

	var input struct {
		ReceiverID int64  `json:"receiver_id"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), senderID, input.ReceiverID, input.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent):
			writeError(w, http.StatusBadRequest, "MISSING_CONTENT", "Message content is required")
		case errors.Is(err, service.ErrSelfMessage):
			writeError(w, http.StatusBadRequest, "SELF_MESSAGE", "Cannot send a message to yourself")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		default:
			slog.Error("send message", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// GetConversation returns the full chronological history between two users.
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	senderID, ok := queryID(w, r, "sender_id")
	if !ok {
		return
	}
	receiverID, ok := queryID(w, r, "receiver_id")
	if !ok {
		return
	}

	msgs, err := h.chatService.GetConversation(r.Context(), senderID, receiverID)
	if err != nil {
		slog.Error("get conversation", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

// GetChatUsers returns every user the caller has exchanged messages with.
func (h *ChatHandler) GetChatUsers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	users, err := h.chatService.GetCorrespondents(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		} else {
			slog.Error("get chat users", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// GetRecentChats returns the caller's per-correspondent summary list,
// most recent exchange first.
func (h *ChatHandler) GetRecentChats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	recents, err := h.chatService.GetRecentConversations(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		} else {
			slog.Error("get recent chats", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, recents)
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}
