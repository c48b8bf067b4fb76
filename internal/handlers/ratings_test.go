package handlers

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"terestats-server/internal/models"
)

// rateConcurrently fires one rating request per message ID from its own
// goroutine and returns the response codes in message order.
func rateConcurrently(router *gin.Engine, messageIDs []string, score string) []int {
	codes := make([]int, len(messageIDs))

	var wg sync.WaitGroup
	for i, id := range messageIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			req := httptest.NewRequest("POST", "/messages/"+id+"/rating", strings.NewReader(`{"score": `+score+`}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i, id)
	}
	wg.Wait()

	return codes
}

func TestRateMessageFirstRating(t *testing.T) {
	db := setupTestDB(t)
	sender := createTestUser(t, db, "+15550001111", "Alice")
	recipient := createTestUser(t, db, "+15550002222", "Bob")
	message := createTestMessage(t, db, sender, &recipient, models.MessageTypePraise, time.Now().Add(10*time.Minute))
	deliver(t, db, &message)

	router := ratingRouter(db, recipient.ID)
	w := doJSON(t, router, "POST", "/messages/"+message.ID+"/rating", map[string]interface{}{"score": 4})
	assertStatus(t, w, 200)

	var rating models.Rating
	if err := db.First(&rating, "message_id = ?", message.ID).Error; err != nil {
		t.Fatalf("Rating not stored: %v", err)
	}
	if rating.Score != 4 || rating.Type != models.RatingTypeLove {
		t.Errorf("Unexpected rating: score=%d type=%s", rating.Score, rating.Type)
	}

	var updatedSender models.User
	db.First(&updatedSender, "id = ?", sender.ID)
	if updatedSender.LoveScore != 4 {
		t.Errorf("Expected love score 4, got %d", updatedSender.LoveScore)
	}
	if updatedSender.ValueScore != 0 {
		t.Errorf("Praise rating must not touch value score, got %d", updatedSender.ValueScore)
	}
}

func TestRateMessageResubmissionAppliesDelta(t *testing.T) {
	db := setupTestDB(t)
	sender := createTestUser(t, db, "+15550001111", "Alice")
	recipient := createTestUser(t, db, "+15550002222", "Bob")
	message := createTestMessage(t, db, sender, &recipient, models.MessageTypePraise, time.Now().Add(10*time.Minute))
	deliver(t, db, &message)

	router := ratingRouter(db, recipient.ID)
	w := doJSON(t, router, "POST", "/messages/"+message.ID+"/rating", map[string]interface{}{"score": 4})
	assertStatus(t, w, 200)
	w = doJSON(t, router, "POST", "/messages/"+message.ID+"/rating", map[string]interface{}{"score": 2})
	assertStatus(t, w, 200)

	// Exactly one rating row, holding the latest score.
	var count int64
	db.Model(&models.Rating{}).Where("message_id = ?", message.ID).Count(&count)
	if count != 1 {
		t.Fatalf("Expected exactly one rating row, got %d", count)
	}
	var rating models.Rating
	db.First(&rating, "message_id = ?", message.ID)
	if rating.Score != 2 {
		t.Errorf("Expected stored score 2, got %d", rating.Score)
	}

	// Net credit equals the latest score, never the sum.
	var updatedSender models.User
	db.First(&updatedSender, "id = ?", sender.ID)
	if updatedSender.LoveScore != 2 {
		t.Errorf("Expected love score 2 after correction, got %d", updatedSender.LoveScore)
	}
}

func TestRateMessageSameScoreIsNoopOnScore(t *testing.T) {
	db := setupTestDB(t)
	sender := createTestUser(t, db, "+15550001111", "Alice")
	recipient := createTestUser(t, db, "+15550002222", "Bob")
	message := createTestMessage(t, db, sender, &recipient, models.MessageTypeAdvice, time.Now().Add(10*time.Minute))
	deliver(t, db, &message)

	router := ratingRouter(db, recipient.ID)
	for i := 0; i < 2; i++ {
		w := doJSON(t, router, "POST", "/messages/"+message.ID+"/rating", map[string]interface{}{"score": 5})
		assertStatus(t, w, 200)
	}

	var updatedSender models.User
	db.First(&updatedSender, "id = ?", sender.ID)
	if updatedSender.ValueScore != 5 {
		t.Errorf("Expected value score 5 after repeated identical rating, got %d", updatedSender.ValueScore)
	}
}

func TestRateMessageDimensionMapping(t *testing.T) {
	db := setupTestDB(t)
	sender := createTestUser(t, db, "+15550001111", "Alice")
	recipient := createTestUser(t, db, "+15550002222", "Bob")

	feedback := createTestMessage(t, db, sender, &recipient, models.MessageTypeFeedback, time.Now().Add(10*time.Minute))
	deliver(t, db, &feedback)
	advice := createTestMessage(t, db, sender, &recipient, models.MessageTypeAdvice, time.Now().Add(10*time.Minute))
	deliver(t, db, &advice)

	router := ratingRouter(db, recipient.ID)
	w := doJSON(t, router, "POST", "/messages/"+feedback.ID+"/rating", map[string]interface{}{"score": 3})
	assertStatus(t, w, 200)
	w = doJSON(t, router, "POST", "/messages/"+advice.ID+"/rating", map[string]interface{}{"score": 2})
	assertStatus(t, w, 200)

	var updatedSender models.User
	db.First(&updatedSender, "id = ?", sender.ID)
	if updatedSender.ValueScore != 5 {
		t.Errorf("Expected value score 5 from feedback+advice ratings, got %d", updatedSender.ValueScore)
	}
	if updatedSender.LoveScore != 0 {
		t.Errorf("Feedback/advice ratings must not touch love score, got %d", updatedSender.LoveScore)
	}
}

func TestRateMessageWhileCoolingRejected(t *testing.T) {
	db := setupTestDB(t)
	sender := createTestUser(t, db, "+15550001111", "Alice")
	recipient := createTestUser(t, db, "+15550002222", "Bob")
	message := createTestMessage(t, db, sender, &recipient, models.MessageTypePraise, time.Now().Add(10*time.Minute))

	router := ratingRouter(db, recipient.ID)
	w := doJSON(t, router, "POST", "/messages/"+message.ID+"/rating", map[string]interface{}{"score": 4})
	assertStatus(t, w, 403)

	var count int64
	db.Model(&models.Rating{}).Count(&count)
	if count != 0 {
		t.Errorf("Cooling message must not be ratable, found %d ratings", count)
	}

	var updatedSender models.User
	db.First(&updatedSender, "id = ?", sender.ID)
	if updatedSender.LoveScore != 0 {
		t.Errorf("Score must not move on a rejected rating, got %d", updatedSender.LoveScore)
	}
}

func TestRateMessageNonRecipientRejected(t *testing.T) {
	db := setupTestDB(t)
	sender := createTestUser(t, db, "+15550001111", "Alice")
	recipient := createTestUser(t, db, "+15550002222", "Bob")
	other := createTestUser(t, db, "+15550003333", "Mallory")
	message := createTestMessage(t, db, sender, &recipient, models.MessageTypePraise, time.Now().Add(10*time.Minute))
	deliver(t, db, &message)

	router := ratingRouter(db, other.ID)
	w := doJSON(t, router, "POST", "/messages/"+message.ID+"/rating", map[string]interface{}{"score": 5})
	assertStatus(t, w, 403)
}

func TestRateMessageScoreBounds(t *testing.T) {
	db := setupTestDB(t)
	sender := createTestUser(t, db, "+15550001111", "Alice")
	recipient := createTestUser(t, db, "+15550002222", "Bob")
	message := createTestMessage(t, db, sender, &recipient, models.MessageTypePraise, time.Now().Add(10*time.Minute))
	deliver(t, db, &message)

	router := ratingRouter(db, recipient.ID)
	for _, score := range []int{0, 6, -1} {
		w := doJSON(t, router, "POST", "/messages/"+message.ID+"/rating", map[string]interface{}{"score": score})
		assertStatus(t, w, 400)
	}
}

func TestRateMessageUnknownMessage(t *testing.T) {
	db := setupTestDB(t)
	recipient := createTestUser(t, db, "+15550002222", "Bob")

	router := ratingRouter(db, recipient.ID)
	w := doJSON(t, router, "POST", "/messages/no-such-id/rating", map[string]interface{}{"score": 3})
	assertStatus(t, w, 404)
}

func TestRatingsConcurrentAcrossMessagesAccumulate(t *testing.T) {
	db := setupTestDB(t)
	sender := createTestUser(t, db, "+15550001111", "Alice")
	recipient := createTestUser(t, db, "+15550002222", "Bob")
	router := ratingRouter(db, recipient.ID)

	const n = 8
	messageIDs := make([]string, n)
	for i := 0; i < n; i++ {
		message := createTestMessage(t, db, sender, &recipient, models.MessageTypePraise, time.Now().Add(10*time.Minute))
		deliver(t, db, &message)
		messageIDs[i] = message.ID
	}

	codes := rateConcurrently(router, messageIDs, "3")
	for i, code := range codes {
		if code != 200 {
			t.Errorf("Rating %d failed with status %d", i, code)
		}
	}

	// Interleaved ratings on distinct messages must each credit in full.
	var updatedSender models.User
	db.First(&updatedSender, "id = ?", sender.ID)
	if updatedSender.LoveScore != n*3 {
		t.Errorf("Expected love score %d from %d concurrent ratings, got %d", n*3, n, updatedSender.LoveScore)
	}
}

func TestConcurrentRatingsOnOneMessageNoDoubleCredit(t *testing.T) {
	db := setupTestDB(t)
	sender := createTestUser(t, db, "+15550001111", "Alice")
	recipient := createTestUser(t, db, "+15550002222", "Bob")
	message := createTestMessage(t, db, sender, &recipient, models.MessageTypePraise, time.Now().Add(10*time.Minute))
	deliver(t, db, &message)
	router := ratingRouter(db, recipient.ID)

	const raters = 4
	messageIDs := make([]string, raters)
	for i := range messageIDs {
		messageIDs[i] = message.ID
	}

	codes := rateConcurrently(router, messageIDs, "5")
	for i, code := range codes {
		if code != 200 {
			t.Errorf("Rating %d failed with status %d", i, code)
		}
	}

	// Racing raters must serialize into one insert plus replacements, never
	// two inserts both applying a full credit.
	var count int64
	db.Model(&models.Rating{}).Where("message_id = ?", message.ID).Count(&count)
	if count != 1 {
		t.Fatalf("Expected exactly one rating row after %d racing raters, got %d", raters, count)
	}

	var rating models.Rating
	db.First(&rating, "message_id = ?", message.ID)
	if rating.Score != 5 {
		t.Errorf("Expected stored score 5, got %d", rating.Score)
	}

	var updatedSender models.User
	db.First(&updatedSender, "id = ?", sender.ID)
	if updatedSender.LoveScore != 5 {
		t.Errorf("Expected love score 5 after identical racing ratings, got %d", updatedSender.LoveScore)
	}
}

func TestRatingsAcrossMessagesAccumulate(t *testing.T) {
	db := setupTestDB(t)
	sender := createTestUser(t, db, "+15550001111", "Alice")
	recipient := createTestUser(t, db, "+15550002222", "Bob")
	router := ratingRouter(db, recipient.ID)

	const n = 4
	for i := 0; i < n; i++ {
		message := createTestMessage(t, db, sender, &recipient, models.MessageTypePraise, time.Now().Add(10*time.Minute))
		deliver(t, db, &message)
		w := doJSON(t, router, "POST", "/messages/"+message.ID+"/rating", map[string]interface{}{"score": 3})
		assertStatus(t, w, 200)
	}

	var updatedSender models.User
	db.First(&updatedSender, "id = ?", sender.ID)
	if updatedSender.LoveScore != n*3 {
		t.Errorf("Expected love score %d from %d ratings, got %d", n*3, n, updatedSender.LoveScore)
	}
}
