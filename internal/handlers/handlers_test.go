package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"terestats-server/internal/config"
	"terestats-server/internal/models"
	"terestats-server/internal/notify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB creates an in-memory SQLite database with the full schema.
// The named shared-cache DSN plus a single pooled connection keeps every
// connection on the same database, so tests may hit the handlers from
// multiple goroutines. A plain ":memory:" DSN would hand each pooled
// connection its own empty database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to access underlying database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := models.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                      "3001",
		Environment:               "development",
		JWTSecret:                 "test_jwt_secret",
		JWTRefreshSecret:          "test_refresh_secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 168,
		CoolingOffMinutes:         10,
		AppURL:                    "http://localhost:3001",
	}
}

// asUser returns a middleware that injects the user ID into the gin
// context the way the JWT middleware would.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func createTestUser(t *testing.T, db *gorm.DB, phone, name string) models.User {
	t.Helper()

	user := models.User{PhoneNumber: phone, Name: name}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// createTestMessage inserts a message directly via GORM, cooling until
// availableAt.
func createTestMessage(t *testing.T, db *gorm.DB, sender models.User, recipient *models.User, msgType models.MessageType, availableAt time.Time) models.Message {
	t.Helper()

	message := models.Message{
		SenderID:       sender.ID,
		RecipientPhone: "+15550000000",
		Content:        "test content",
		Type:           msgType,
		AvailableAt:    availableAt,
	}
	if recipient != nil {
		message.RecipientPhone = recipient.PhoneNumber
		message.RecipientID = &recipient.ID
	}
	if err := db.Create(&message).Error; err != nil {
		t.Fatalf("Failed to create test message: %v", err)
	}
	return message
}

// deliver moves a message's availability into the past so it reads as
// delivered.
func deliver(t *testing.T, db *gorm.DB, message *models.Message) {
	t.Helper()

	past := time.Now().Add(-time.Minute)
	if err := db.Model(message).Update("available_at", past).Error; err != nil {
		t.Fatalf("Failed to deliver test message: %v", err)
	}
	message.AvailableAt = past
}

// doJSON executes a request with an optional JSON body against the router
// and returns the recorder.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the Data field of the standard response envelope.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Status int             `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response envelope: %v", err)
	}
	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("Failed to decode response data: %v", err)
		}
	}
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("Expected status %d, got %d (body: %s)", want, w.Code, w.Body.String())
	}
}

// messageRouter wires the message lifecycle endpoints for a given caller.
func messageRouter(db *gorm.DB, userID string) *gin.Engine {
	router := gin.New()
	router.Use(asUser(userID))

	handler := NewMessageHandler(db, testConfig(), notify.Disabled{})
	router.POST("/messages", handler.SendMessage)
	router.GET("/messages/incoming", handler.GetIncomingMessages)
	router.GET("/messages/outgoing", handler.GetOutgoingMessages)
	router.PUT("/messages/:id", handler.UpdateMessage)
	router.DELETE("/messages/:id", handler.DeleteMessage)
	return router
}

// ratingRouter wires the rating endpoint for a given caller.
func ratingRouter(db *gorm.DB, userID string) *gin.Engine {
	router := gin.New()
	router.Use(asUser(userID))

	handler := NewRatingHandler(db)
	router.POST("/messages/:id/rating", handler.RateMessage)
	return router
}

// wallRouter wires the publication and reaction endpoints for a given caller.
func wallRouter(db *gorm.DB, userID string) *gin.Engine {
	router := gin.New()
	router.Use(asUser(userID))

	handler := NewWallHandler(db)
	router.PATCH("/messages/:id/public", handler.SetPublic)
	router.GET("/wall/:userId", handler.GetPublicWall)
	router.POST("/messages/:id/agree", handler.AgreeMessage)
	router.POST("/messages/:id/comments", handler.CommentMessage)
	return router
}
