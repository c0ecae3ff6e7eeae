package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openclass/askline/internal/models"
	"github.com/openclass/askline/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.FAQEntry{},
		&models.BroadcastInteraction{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, gdb)
	return router, gdb
}

func getJSON(t *testing.T, router *gin.Engine, path string) map[string]interface{} {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s = %d: %s", path, w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return body
}

func TestStatsEndpoint(t *testing.T) {
	router, gdb := newTestRouter(t)

	if err := store.TouchUser(gdb, "1", "alice", "Alice"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	q, err := store.CreateQuestion(gdb, "1", "alice", "a question", true)
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
	if err := store.AnswerQuestion(gdb, q.ID, "an answer", "2", "prof"); err != nil {
		t.Fatalf("seed answer: %v", err)
	}

	body := getJSON(t, router, "/api/stats")
	if body["users"].(float64) != 1 {
		t.Errorf("users = %v", body["users"])
	}
	if body["questions"].(float64) != 1 || body["answered_questions"].(float64) != 1 {
		t.Errorf("questions = %v/%v", body["questions"], body["answered_questions"])
	}
	if body["new_users_7d"].(float64) != 1 {
		t.Errorf("new_users_7d = %v", body["new_users_7d"])
	}
}

func TestQuestionsEndpointHidesAnonymousAskers(t *testing.T) {
	router, gdb := newTestRouter(t)

	if _, err := store.CreateQuestion(gdb, "1", "alice", "anonymous one", true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.CreateQuestion(gdb, "2", "bob", "open one", false); err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := getJSON(t, router, "/api/questions")
	questions := body["questions"].([]interface{})
	if len(questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(questions))
	}
	for _, raw := range questions {
		q := raw.(map[string]interface{})
		anon := q["is_anon"].(bool)
		_, hasName := q["username"]
		if anon && hasName {
			t.Errorf("anonymous question exposes username: %v", q)
		}
		if !anon && !hasName {
			t.Errorf("attributed question missing username: %v", q)
		}
	}
}

func TestBroadcastEndpoint(t *testing.T) {
	router, gdb := newTestRouter(t)

	if err := store.TouchUser(gdb, "1", "alice", "Alice"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := store.RecordRead(gdb, "bc1", "1"); err != nil {
		t.Fatalf("seed read: %v", err)
	}

	body := getJSON(t, router, "/api/broadcasts/bc1")
	if body["read_count"].(float64) != 1 {
		t.Errorf("read_count = %v", body["read_count"])
	}
	if body["total_eligible"].(float64) != 1 {
		t.Errorf("total_eligible = %v", body["total_eligible"])
	}
}
