package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"terestats-server/internal/models"
	"terestats-server/internal/utils"
)

// UserHandler handles user lookup requests.
type UserHandler struct {
	DB *gorm.DB
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// PublicUser is the subset of a user profile visible to other users.
type PublicUser struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phoneNumber"`
	ValueScore  int    `json:"valueScore"`
	LoveScore   int    `json:"loveScore"`
}

func publicUser(u *models.User) PublicUser {
	return PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		ValueScore:  u.ValueScore,
		LoveScore:   u.LoveScore,
	}
}

// SearchUser handles looking up a registered user by phone number.
func (h *UserHandler) SearchUser(c *gin.Context) {
	phoneQuery := c.Query("phone")
	if phoneQuery == "" {
		utils.BadRequest(c, "Query parameter 'phone' is required")
		return
	}

	phone, err := utils.NormalizePhone(phoneQuery)
	if err != nil {
		utils.BadRequest(c, "Invalid phone number: "+err.Error())
		return
	}

	var user models.User
	if err := h.DB.Where("phone_number = ?", phone).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "No user registered with this phone number")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "User found", publicUser(&user))
}

// GetUserStats handles fetching a user's reputation scores by id.
func (h *UserHandler) GetUserStats(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "User stats fetched successfully", publicUser(&user))
}
