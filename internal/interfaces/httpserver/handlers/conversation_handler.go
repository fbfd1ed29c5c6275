package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/domain/conversation"
	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
	"github.com/inkwell-books/sms-concierge/internal/interfaces/httpserver/responses"
	"github.com/inkwell-books/sms-concierge/internal/utils/phone"
)

// ConversationHandler exposes read and lifecycle operations on
// conversations for internal tooling.
type ConversationHandler struct {
	store *conversation.Store
	log   zerolog.Logger
}

// NewConversationHandler builds the conversation handler.
func NewConversationHandler(store *conversation.Store, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		store: store,
		log:   log.With().Str("component", "conversation-handler").Logger(),
	}
}

type summaryResponse struct {
	Exists         bool   `json:"exists"`
	ConversationID string `json:"conversation_id,omitempty"`
	MessageCount   int    `json:"message_count"`
	LastActivity   string `json:"last_activity,omitempty"`
}

// GetSummary handles GET /v1/conversations/:phone/summary.
func (h *ConversationHandler) GetSummary(c *gin.Context) {
	normalized := phone.Normalize(c.Param("phone"))
	if normalized == "" {
		responses.ErrorWithStatus(c, http.StatusBadRequest, "invalid phone number")
		return
	}

	summary, err := h.store.Summary(c.Request.Context(), normalized)
	if err != nil {
		h.log.Error().Err(err).Str("phone", normalized).Msg("summary lookup failed")
		responses.Error(c, err)
		return
	}

	resp := summaryResponse{
		Exists:         summary.Exists,
		ConversationID: summary.ConversationID,
		MessageCount:   summary.MessageCount,
	}
	if summary.LastActivity != nil {
		resp.LastActivity = summary.LastActivity.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// EndConversation handles POST /v1/conversations/:phone/end.
func (h *ConversationHandler) EndConversation(c *gin.Context) {
	normalized := phone.Normalize(c.Param("phone"))
	if normalized == "" {
		responses.ErrorWithStatus(c, http.StatusBadRequest, "invalid phone number")
		return
	}

	if err := h.store.End(c.Request.Context(), normalized); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			responses.ErrorWithStatus(c, http.StatusNotFound, "no active conversation")
			return
		}
		h.log.Error().Err(err).Str("phone", normalized).Msg("end conversation failed")
		responses.Error(c, err)
		return
	}
	responses.Message(c, "Conversation ended")
}
