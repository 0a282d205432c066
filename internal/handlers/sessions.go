package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stakeq/stakeq/internal/db"
	"github.com/stakeq/stakeq/internal/models"
	svc "github.com/stakeq/stakeq/internal/services"
)

func sessionJSON(s *models.Session) map[string]any {
	progress := 0
	if s.TotalQuestions > 0 {
		progress = s.CurrentQuestionIndex * 100 / s.TotalQuestions
	}
	return map[string]any{
		"id":                     s.ID,
		"questionnaire_id":       s.QuestionnaireID,
		"current_question_index": s.CurrentQuestionIndex,
		"total_questions":        s.TotalQuestions,
		"is_completed":           s.IsCompleted,
		"progress":               progress,
	}
}

// sessionViewJSON adds everything the chat view renders from: the
// questionnaire summary, the full ordered question list, and the question at
// the current index (nil once completed or when the list shrank).
func sessionViewJSON(s *models.Session) map[string]any {
	out := sessionJSON(s)

	var qn models.Questionnaire
	if err := db.Conn().First(&qn, "id = ?", s.QuestionnaireID).Error; err == nil {
		out["questionnaire"] = map[string]any{
			"id":          qn.ID,
			"title":       qn.Title,
			"description": qn.Description,
		}
	}

	var questions []models.Question
	_ = db.Conn().Where("questionnaire_id = ?", s.QuestionnaireID).Order("position asc").Find(&questions).Error
	qs := make([]map[string]any, 0, len(questions))
	for i := range questions {
		qs = append(qs, questionJSON(&questions[i]))
	}
	out["questions"] = qs

	if !s.IsCompleted && s.CurrentQuestionIndex < len(questions) {
		out["current_question"] = questionJSON(&questions[s.CurrentQuestionIndex])
	} else {
		out["current_question"] = nil
	}
	return out
}

// canTouchSession limits session access to its owner; admins may read any
// session but writes stay owner-only (the index advance decision belongs to
// the stakeholder walking the questionnaire).
func canTouchSession(r *http.Request, s *models.Session, write bool) bool {
	c, ok := claimsFrom(r)
	if !ok {
		return false
	}
	if c.UID == s.UserID {
		return true
	}
	return !write && c.Role == "admin"
}

// GET /api/users/me/session — lazily creates the session for the caller's
// assigned questionnaire on first visit.
func MySession(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r)
	s, err := svc.StartOrResumeSession(db.Conn(), c.UID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionViewJSON(s))
}

// POST /api/sessions — explicit create path; the questionnaire must be the
// caller's current assignment. Returns the existing session unchanged when
// one already exists for the pair.
func CreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QuestionnaireID string `json:"questionnaire_id"`
	}
	if !readJSON(w, r, &body) {
		return
	}

	c, _ := claimsFrom(r)
	var u models.User
	if err := db.Conn().First(&u, "id = ?", c.UID).Error; err != nil {
		writeErr(w, svc.NewNotFoundError("user not found"))
		return
	}
	if u.AssignedQuestionnaireID == nil || *u.AssignedQuestionnaireID != body.QuestionnaireID {
		writeErr(w, svc.NewForbiddenError("questionnaire is not assigned to you"))
		return
	}

	s, err := svc.CreateSession(db.Conn(), c.UID, body.QuestionnaireID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionViewJSON(s))
}

// GET /api/sessions/{id}
func GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var s models.Session
	if err := db.Conn().First(&s, "id = ?", id).Error; err != nil {
		writeErr(w, svc.NewNotFoundError("session not found"))
		return
	}
	if !canTouchSession(r, &s, false) {
		writeErr(w, svc.NewForbiddenError("not your session"))
		return
	}

	var answers []models.Answer
	if err := db.Conn().Where("session_id = ?", s.ID).Order("answered_at asc").Find(&answers).Error; err != nil {
		writeErr(w, err)
		return
	}
	as := make([]map[string]any, 0, len(answers))
	for _, a := range answers {
		as = append(as, map[string]any{
			"question_id":   a.QuestionID,
			"question_text": a.QuestionText,
			"response":      a.ResponseText,
			"answered_at":   a.AnsweredAt.UTC(),
		})
	}

	out := sessionViewJSON(&s)
	out["answers"] = as
	writeJSON(w, http.StatusOK, out)
}

// PATCH /api/sessions/{id} — legacy direct-write path; the engine re-checks
// the invariants rather than trusting the client's values.
func PatchSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var s models.Session
	if err := db.Conn().First(&s, "id = ?", id).Error; err != nil {
		writeErr(w, svc.NewNotFoundError("session not found"))
		return
	}
	if !canTouchSession(r, &s, true) {
		writeErr(w, svc.NewForbiddenError("not your session"))
		return
	}

	var body struct {
		CurrentQuestionIndex *int  `json:"current_question_index"`
		IsCompleted          *bool `json:"is_completed"`
	}
	if !readJSON(w, r, &body) {
		return
	}

	updated, err := svc.ApplyProgress(db.Conn(), id, body.CurrentQuestionIndex, body.IsCompleted)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionJSON(updated))
}

// POST /api/sessions/{id}/answers
func CreateAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var s models.Session
	if err := db.Conn().First(&s, "id = ?", id).Error; err != nil {
		writeErr(w, svc.NewNotFoundError("session not found"))
		return
	}
	if !canTouchSession(r, &s, true) {
		writeErr(w, svc.NewForbiddenError("not your session"))
		return
	}

	var body struct {
		QuestionID string `json:"question_id"`
		AnswerText string `json:"answer_text"`
	}
	if !readJSON(w, r, &body) {
		return
	}

	updated, ans, err := svc.SubmitAnswer(db.Conn(), id, body.QuestionID, body.AnswerText)
	if err != nil {
		writeErr(w, err)
		return
	}

	c, _ := claimsFrom(r)
	svc.Audit(db.Conn(), &c.UID, "answer_submitted", "Answer", ans.ID, body.QuestionID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":               ans.ID,
		"question_id":      ans.QuestionID,
		"answer":           ans.ResponseText,
		"session_progress": updated.CurrentQuestionIndex,
		"is_completed":     updated.IsCompleted,
	})
}
