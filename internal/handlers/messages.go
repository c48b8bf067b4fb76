package handlers

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"terestats-server/internal/config"
	"terestats-server/internal/middleware"
	"terestats-server/internal/models"
	"terestats-server/internal/notify"
	"terestats-server/internal/utils"
)

// MessageHandler handles the message lifecycle: sending, listing, and the
// cooling-off edit/retract window.
type MessageHandler struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Notifier notify.Notifier
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(db *gorm.DB, cfg *config.Config, notifier notify.Notifier) *MessageHandler {
	return &MessageHandler{DB: db, Cfg: cfg, Notifier: notifier}
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	RecipientPhone string `json:"recipientPhone" binding:"required"`
	Content        string `json:"content" binding:"required"`
	ActionPoint    string `json:"actionPoint"`
	Type           string `json:"type" binding:"required"`
	IsAnonymous    bool   `json:"isAnonymous"`
}

// SendMessage handles sending a new message. The recipient does not need to
// be registered: the phone number is stored either way, and the user link is
// resolved once, now, or never.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	senderID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Sender ID not found in token")
		return
	}

	messageType := models.MessageType(req.Type)
	if !models.ValidMessageType(messageType) {
		utils.BadRequest(c, "Unknown message type: "+req.Type)
		return
	}

	recipientPhone, err := utils.NormalizePhone(req.RecipientPhone)
	if err != nil {
		utils.BadRequest(c, "Invalid recipient phone number: "+err.Error())
		return
	}

	var sender models.User
	if err := h.DB.First(&sender, "id = ?", senderID).Error; err != nil {
		utils.NotFound(c, "Sender user not found")
		return
	}

	if sender.PhoneNumber == recipientPhone {
		utils.BadRequest(c, "Cannot send a message to yourself.")
		return
	}

	// Best-effort recipient resolution. Absence is not an error.
	var recipientID *string
	var recipient models.User
	if err := h.DB.Where("phone_number = ?", recipientPhone).First(&recipient).Error; err == nil {
		recipientID = &recipient.ID
	} else if err != gorm.ErrRecordNotFound {
		utils.InternalServerError(c, "Database error resolving recipient: "+err.Error())
		return
	}

	now := time.Now()
	message := models.Message{
		SenderID:       senderID,
		RecipientPhone: recipientPhone,
		RecipientID:    recipientID,
		Content:        req.Content,
		ActionPoint:    req.ActionPoint,
		Type:           messageType,
		IsAnonymous:    req.IsAnonymous,
		AvailableAt:    now.Add(time.Duration(h.Cfg.CoolingOffMinutes) * time.Minute),
	}

	if err := h.DB.Create(&message).Error; err != nil {
		utils.InternalServerError(c, "Failed to send message: "+err.Error())
		return
	}

	// Fire-and-forget: a notification failure never fails or rolls back the
	// send.
	senderName := sender.DisplayName()
	if message.IsAnonymous {
		senderName = ""
	}
	go func() {
		text := notify.NewMessageText(senderName, h.Cfg.CoolingOffMinutes, h.Cfg.AppURL)
		if err := h.Notifier.Send(recipientPhone, text); err != nil {
			slog.Error("failed to send new-message notification",
				"messageId", message.ID, "error", err)
		}
	}()

	utils.Created(c, "Message sent successfully", message)
}

// GetIncomingMessages handles fetching messages addressed to the logged-in
// user, newest first. Content stays masked while a message is cooling, and
// anonymous senders stay hidden.
func (h *MessageHandler) GetIncomingMessages(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var messages []models.Message
	if err := h.DB.Preload("Sender").Preload("Rating").
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch messages: "+err.Error())
		return
	}

	now := time.Now()
	views := make([]models.MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, messages[i].RecipientView(now))
	}

	utils.Success(c, "Incoming messages fetched successfully", views)
}

// GetOutgoingMessages handles fetching messages the logged-in user sent,
// newest first. Senders always see their own content.
func (h *MessageHandler) GetOutgoingMessages(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var messages []models.Message
	if err := h.DB.Preload("Rating").
		Where("sender_id = ?", userID).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch messages: "+err.Error())
		return
	}

	utils.Success(c, "Outgoing messages fetched successfully", messages)
}

// UpdateMessageRequest represents the request body for editing a message.
type UpdateMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	ActionPoint string `json:"actionPoint"`
}

// UpdateMessage handles editing a message during its cooling-off window.
// Rejections are explicit, never a silent untruthful success.
func (h *MessageHandler) UpdateMessage(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var message models.Message
	if err := h.DB.First(&message, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	now := time.Now()
	if message.SenderID != userID {
		utils.Forbidden(c, "Only the sender can edit a message.")
		return
	}
	if message.State(now) != models.MessageStateCooling {
		utils.Forbidden(c, "The cooling-off period has ended; the message can no longer be edited.")
		return
	}

	message.Content = req.Content
	message.ActionPoint = req.ActionPoint
	if err := h.DB.Save(&message).Error; err != nil {
		utils.InternalServerError(c, "Failed to update message: "+err.Error())
		return
	}

	utils.Success(c, "Message updated successfully", message)
}

// DeleteMessage handles retracting a message during its cooling-off window.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var message models.Message
	if err := h.DB.First(&message, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	now := time.Now()
	if message.SenderID != userID {
		utils.Forbidden(c, "Only the sender can retract a message.")
		return
	}
	if message.State(now) != models.MessageStateCooling {
		utils.Forbidden(c, "The cooling-off period has ended; the message can no longer be retracted.")
		return
	}

	if err := h.DB.Delete(&message).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete message: "+err.Error())
		return
	}

	utils.Success(c, "Message retracted successfully", nil)
}
