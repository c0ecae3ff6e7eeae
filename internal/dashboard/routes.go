package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openclass/askline/internal/store"
)

// registerRoutes sets up the read-only API on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB) {
	api := router.Group("/api")
	api.GET("/stats", handleStats(db))
	api.GET("/questions", handleQuestions(db))
	api.GET("/broadcasts/:id", handleBroadcast(db))
}

func handleStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := store.CountUsers(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		active, err := store.CountActiveUsers(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		total, answered, err := store.CountQuestions(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		faq, err := store.CountFAQ(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		newWeek, err := store.CountUsersSince(db, time.Now().AddDate(0, 0, -7))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"users":              users,
			"active_users":       active,
			"new_users_7d":       newWeek,
			"questions":          total,
			"answered_questions": answered,
			"faq_entries":        faq,
		})
	}
}

func handleQuestions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		questions, err := store.RecentQuestions(db, 50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		type question struct {
			ID       uint   `json:"id"`
			Text     string `json:"text"`
			IsAnon   bool   `json:"is_anon"`
			Username string `json:"username,omitempty"`
			Answered bool   `json:"answered"`
			Answer   string `json:"answer,omitempty"`
		}
		out := make([]question, 0, len(questions))
		for i := range questions {
			q := &questions[i]
			item := question{
				ID:       q.ID,
				Text:     q.Text,
				IsAnon:   q.IsAnon,
				Answered: q.Answered(),
				Answer:   q.Answer,
			}
			// Anonymous askers stay anonymous on the dashboard too.
			if !q.IsAnon {
				item.Username = q.Username
			}
			out = append(out, item)
		}
		c.JSON(http.StatusOK, gin.H{"questions": out})
	}
}

func handleBroadcast(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := store.Stats(db, c.Param("id"), 50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"broadcast_id":   stats.BroadcastID,
			"read_count":     stats.ReadCount,
			"total_eligible": stats.TotalEligible,
			"readers":        stats.Readers,
		})
	}
}
