package handlers

import (
	"net/http"

	"github.com/stakeq/stakeq/internal/db"
)

// GET /api/responses — flat listing of every submitted answer with its
// session's user and questionnaire, newest first. Feeds the admin review tab.
func ListResponses(w http.ResponseWriter, r *http.Request) {
	type row struct {
		ID              string
		UserID          string
		QuestionnaireID string
		QuestionID      string
		QuestionText    string
		ResponseText    string
		AnsweredAt      string
	}
	var rows []row
	err := db.Conn().Table("answers").
		Select(`answers.id, sessions.user_id, sessions.questionnaire_id,
			answers.question_id, answers.question_text, answers.response_text, answers.answered_at`).
		Joins("JOIN sessions ON sessions.id = answers.session_id").
		Order("answers.answered_at desc").
		Scan(&rows).Error
	if err != nil {
		writeErr(w, err)
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, a := range rows {
		out = append(out, map[string]any{
			"id":               a.ID,
			"user_id":          a.UserID,
			"questionnaire_id": a.QuestionnaireID,
			"question_id":      a.QuestionID,
			"question_text":    a.QuestionText,
			"response":         a.ResponseText,
			"timestamp":        a.AnsweredAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
