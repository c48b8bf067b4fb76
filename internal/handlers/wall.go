package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"terestats-server/internal/middleware"
	"terestats-server/internal/models"
	"terestats-server/internal/utils"
)

// WallHandler handles the public wall: publication toggling, agreements and
// comments on published messages.
type WallHandler struct {
	DB *gorm.DB
}

// NewWallHandler creates a new WallHandler.
func NewWallHandler(db *gorm.DB) *WallHandler {
	return &WallHandler{DB: db}
}

// SetPublicRequest represents the request body for toggling publication.
type SetPublicRequest struct {
	IsPublic *bool `json:"isPublic" binding:"required"`
}

// SetPublic handles publishing or unpublishing a delivered message on the
// recipient's wall. Only the recipient holds this right, and only once the
// message is delivered. The toggle is idempotent.
func (h *WallHandler) SetPublic(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req SetPublicRequest
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

	if message.RecipientID == nil || *message.RecipientID != userID {
		utils.Forbidden(c, "Only the recipient can publish a message.")
		return
	}
	if message.State(time.Now()) != models.MessageStateDelivered {
		utils.Forbidden(c, "The message is still in its cooling-off period and cannot be published yet.")
		return
	}

	if message.IsPublic != *req.IsPublic {
		if err := h.DB.Model(&message).Update("is_public", *req.IsPublic).Error; err != nil {
			utils.InternalServerError(c, "Failed to update publication status: "+err.Error())
			return
		}
		message.IsPublic = *req.IsPublic
	}

	utils.Success(c, "Publication status updated", message)
}

// WallMessage is one published message as shown on a user's public wall.
type WallMessage struct {
	ID          string               `json:"id"`
	Content     string               `json:"content"`
	ActionPoint string               `json:"actionPoint,omitempty"`
	Type        models.MessageType   `json:"type"`
	IsAnonymous bool                 `json:"isAnonymous"`
	SenderName  string               `json:"senderName,omitempty"`
	AgreeCount  int                  `json:"agreeCount"`
	Comments    []models.CommentView `json:"comments"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// GetPublicWall handles fetching the published messages of a user, newest
// first, with their agreements and comments.
func (h *WallHandler) GetPublicWall(c *gin.Context) {
	wallUserID := c.Param("userId")

	var wallUser models.User
	if err := h.DB.First(&wallUser, "id = ?", wallUserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var messages []models.Message
	if err := h.DB.Preload("Sender").Preload("Agreements").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.User").
		Where("recipient_id = ? AND is_public = ?", wallUserID, true).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch public wall: "+err.Error())
		return
	}

	wall := make([]WallMessage, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		entry := WallMessage{
			ID:          msg.ID,
			Content:     msg.Content,
			ActionPoint: msg.ActionPoint,
			Type:        msg.Type,
			IsAnonymous: msg.IsAnonymous,
			AgreeCount:  len(msg.Agreements),
			Comments:    make([]models.CommentView, 0, len(msg.Comments)),
			CreatedAt:   msg.CreatedAt,
		}
		if !msg.IsAnonymous {
			entry.SenderName = msg.Sender.DisplayName()
		}
		for j := range msg.Comments {
			comment := &msg.Comments[j]
			authorName := "Someone"
			if comment.User != nil {
				authorName = comment.User.DisplayName()
			}
			entry.Comments = append(entry.Comments, models.CommentView{
				ID:         comment.ID,
				Text:       comment.Text,
				AuthorName: authorName,
				CreatedAt:  comment.CreatedAt,
			})
		}
		wall = append(wall, entry)
	}

	utils.Success(c, "Public wall fetched successfully", wall)
}

// loadPublicMessage fetches a message and checks that it is published;
// agreements and comments only attach to wall messages.
func (h *WallHandler) loadPublicMessage(c *gin.Context) (*models.Message, bool) {
	var message models.Message
	if err := h.DB.First(&message, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}
	if !message.IsPublic {
		utils.Forbidden(c, "This message is not published.")
		return nil, false
	}
	return &message, true
}

// AgreeMessage handles toggling the caller's agreement on a published
// message: agreeing when absent, withdrawing when present.
func (h *WallHandler) AgreeMessage(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	message, ok := h.loadPublicMessage(c)
	if !ok {
		return
	}

	var existing models.Agreement
	err := h.DB.Where("message_id = ? AND user_id = ?", message.ID, userID).First(&existing).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		agreement := models.Agreement{MessageID: message.ID, UserID: userID}
		if err := h.DB.Create(&agreement).Error; err != nil {
			utils.InternalServerError(c, "Failed to record agreement: "+err.Error())
			return
		}
		utils.Created(c, "Agreement recorded", agreement)

	case err != nil:
		utils.InternalServerError(c, "Database error: "+err.Error())

	default:
		if err := h.DB.Delete(&existing).Error; err != nil {
			utils.InternalServerError(c, "Failed to withdraw agreement: "+err.Error())
			return
		}
		utils.Success(c, "Agreement withdrawn", nil)
	}
}

// CommentMessageRequest represents the request body for commenting.
type CommentMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// CommentMessage handles appending a comment to a published message.
func (h *WallHandler) CommentMessage(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CommentMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	message, ok := h.loadPublicMessage(c)
	if !ok {
		return
	}

	comment := models.Comment{
		MessageID: message.ID,
		UserID:    userID,
		Text:      req.Text,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		utils.InternalServerError(c, "Failed to add comment: "+err.Error())
		return
	}

	utils.Created(c, "Comment added", comment)
}
