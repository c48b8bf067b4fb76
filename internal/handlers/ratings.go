package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"terestats-server/internal/middleware"
	"terestats-server/internal/models"
	"terestats-server/internal/utils"
)

// RatingHandler handles rating submissions and keeps sender scores
// consistent with the latest rating on each message.
type RatingHandler struct {
	DB *gorm.DB
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(db *gorm.DB) *RatingHandler {
	return &RatingHandler{DB: db}
}

// RateMessageRequest represents the request body for rating a message.
type RateMessageRequest struct {
	Score int `json:"score" binding:"required,min=1,max=5"`
}

// RateMessage handles rating a delivered message. A message carries at most
// one rating: the first submission inserts it and credits the sender's
// score in full, any later submission replaces it and applies only the
// difference, so the net credit always equals the latest score.
//
// The whole read-upsert-increment sequence runs in one transaction with the
// message row locked, so two concurrent raters cannot both take the
// first-rating path and double-credit the sender.
func (h *RatingHandler) RateMessage(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req RateMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	messageID := c.Param("id")
	now := time.Now()

	var rating models.Rating
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var message models.Message
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&message, "id = ?", messageID).Error; err != nil {
			return err
		}

		if message.RecipientID == nil || *message.RecipientID != userID {
			return errNotRecipient
		}
		if message.State(now) != models.MessageStateDelivered {
			return errStillCooling
		}

		dimension := models.DimensionForMessageType(message.Type)

		var existing models.Rating
		err := tx.Where("message_id = ?", messageID).First(&existing).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			rating = models.Rating{
				MessageID: messageID,
				Score:     req.Score,
				Type:      dimension,
			}
			if err := tx.Create(&rating).Error; err != nil {
				return err
			}
			return applyScoreDelta(tx, message.SenderID, dimension, req.Score)

		case err != nil:
			return err

		default:
			delta := req.Score - existing.Score
			existing.Score = req.Score
			existing.Type = dimension
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			rating = existing
			if delta == 0 {
				return nil
			}
			return applyScoreDelta(tx, message.SenderID, dimension, delta)
		}
	})

	switch err {
	case nil:
		utils.Success(c, "Message rated successfully", rating)
	case gorm.ErrRecordNotFound:
		utils.NotFound(c, "Message not found")
	case errNotRecipient:
		utils.Forbidden(c, "Only the recipient can rate a message.")
	case errStillCooling:
		utils.Forbidden(c, "The message is still in its cooling-off period and cannot be rated yet.")
	default:
		utils.InternalServerError(c, "Failed to rate message: "+err.Error())
	}
}

// applyScoreDelta increments one of the sender's reputation counters
// in-place. The column expression keeps the update atomic, so ratings on
// different messages from the same sender can land concurrently without
// lost updates.
func applyScoreDelta(tx *gorm.DB, senderID string, dimension models.RatingType, delta int) error {
	column := dimension.ScoreColumn()
	return tx.Model(&models.User{}).
		Where("id = ?", senderID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}
