package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/stakeq/stakeq/internal/db"
	"github.com/stakeq/stakeq/internal/models"
	svc "github.com/stakeq/stakeq/internal/services"
)

func questionJSON(q *models.Question) map[string]any {
	return map[string]any{
		"id":       q.ID,
		"text":     q.Text,
		"order":    q.Position,
		"type":     q.Type,
		"required": q.Required,
		"options":  q.Options,
	}
}

func questionnaireJSON(qn *models.Questionnaire) map[string]any {
	questions := make([]map[string]any, 0, len(qn.Questions))
	for i := range qn.Questions {
		questions = append(questions, questionJSON(&qn.Questions[i]))
	}
	return map[string]any{
		"id":          qn.ID,
		"title":       qn.Title,
		"description": qn.Description,
		"created_by":  qn.CreatedBy,
		"created_at":  qn.CreatedAt.UTC(),
		"is_active":   qn.IsActive,
		"questions":   questions,
	}
}

// GET /api/questionnaires
func ListQuestionnaires(w http.ResponseWriter, r *http.Request) {
	var qns []models.Questionnaire
	err := db.Conn().
		Preload("Questions", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		Order("created_at desc").
		Find(&qns).Error
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]map[string]any, 0, len(qns))
	for i := range qns {
		out = append(out, questionnaireJSON(&qns[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/questionnaires
func CreateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Questions   []svc.NewQuestion `json:"questions"`
	}
	if !readJSON(w, r, &body) {
		return
	}

	c, _ := claimsFrom(r)
	qn, err := svc.CreateQuestionnaire(db.Conn(), body.Title, body.Description, &c.UID, body.Questions)
	if err != nil {
		writeErr(w, err)
		return
	}

	svc.Audit(db.Conn(), &c.UID, "questionnaire_created", "Questionnaire", qn.ID, qn.Title)
	writeJSON(w, http.StatusCreated, questionnaireJSON(qn))
}

// GET /api/questionnaires/{id}
func GetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var qn models.Questionnaire
	err := db.Conn().
		Preload("Questions", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		First(&qn, "id = ?", id).Error
	if err != nil {
		writeErr(w, svc.NewNotFoundError("questionnaire not found"))
		return
	}
	writeJSON(w, http.StatusOK, questionnaireJSON(&qn))
}

// DELETE /api/questionnaires/{id}
func DeleteQuestionnaire(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Grab the title for the audit entry; the row is about to disappear.
	var qn models.Questionnaire
	_ = db.Conn().First(&qn, "id = ?", id).Error

	if err := svc.DeleteQuestionnaire(db.Conn(), id); err != nil {
		writeErr(w, err)
		return
	}

	c, _ := claimsFrom(r)
	svc.Audit(db.Conn(), &c.UID, "questionnaire_deleted", "Questionnaire", id, qn.Title)
	writeJSON(w, http.StatusOK, map[string]any{"message": "questionnaire deleted"})
}
