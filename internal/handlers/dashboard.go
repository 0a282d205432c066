package handlers

import (
	"net/http"
	"strings"

	"github.com/stakeq/stakeq/internal/db"
	"github.com/stakeq/stakeq/internal/models"
)

// GET /api/dashboard/stats
func DashboardStats(w http.ResponseWriter, r *http.Request) {
	count := func(model any, query string, args ...any) int64 {
		var n int64
		q := db.Conn().Model(model)
		if query != "" {
			q = q.Where(query, args...)
		}
		_ = q.Count(&n).Error
		return n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalUsers":           count(&models.User{}, ""),
		"activeUsers":          count(&models.User{}, "is_active = ?", true),
		"totalQuestionnaires":  count(&models.Questionnaire{}, ""),
		"activeQuestionnaires": count(&models.Questionnaire{}, "is_active = ?", true),
		"totalSessions":        count(&models.Session{}, ""),
		"completedSessions":    count(&models.Session{}, "is_completed = ?", true),
		"totalQuestions":       count(&models.Question{}, ""),
		"totalAnswers":         count(&models.Answer{}, ""),
		"totalAuditLogs":       count(&models.AuditLog{}, ""),
	})
}

// GET /api/dashboard/activity — ten most recent audit entries.
func RecentActivity(w http.ResponseWriter, r *http.Request) {
	var logs []models.AuditLog
	if err := db.Conn().Order("created_at desc").Limit(10).Find(&logs).Error; err != nil {
		writeErr(w, err)
		return
	}

	out := make([]map[string]any, 0, len(logs))
	for _, l := range logs {
		out = append(out, map[string]any{
			"id":          l.ID,
			"type":        strings.ReplaceAll(l.Action, "_", " "),
			"object_type": l.ObjectType,
			"object_id":   l.ObjectID,
			"actor_id":    l.ActorID,
			"note":        l.Note,
			"timestamp":   l.CreatedAt.UTC(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
