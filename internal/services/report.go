package services

import (
	"gorm.io/gorm"

	"github.com/stakeq/stakeq/internal/models"
)

// Completion report for one stakeholder: their answers across every session,
// grouped per questionnaire.

type ReportEntry struct {
	QuestionID   string `json:"question_id,omitempty"`
	QuestionText string `json:"question_text"`
	Position     int    `json:"position,omitempty"`
	Response     string `json:"response"`
	AnsweredAt   string `json:"answered_at"`
}

type QuestionnaireReport struct {
	QuestionnaireID string        `json:"questionnaire_id"`
	Title           string        `json:"title"`
	IsCompleted     bool          `json:"is_completed"`
	Progress        int           `json:"progress"`
	Entries         []ReportEntry `json:"entries"`
}

type UserReport struct {
	UserID         string                `json:"user_id"`
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	Questionnaires []QuestionnaireReport `json:"questionnaires"`
}

// BuildUserReport joins a user's answers back to their questions. The join is
// by stored question id; for answers whose question row no longer exists
// (questionnaire deleted under a live session) it falls back to the question
// text recorded at answer time, which is kept only as a compatibility shim
// for rows written by the legacy client.
func BuildUserReport(g *gorm.DB, userID string) (*UserReport, error) {
	var user models.User
	if err := g.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("user not found")
		}
		return nil, err
	}

	var sessions []models.Session
	if err := g.Where("user_id = ?", userID).Order("created_at asc").Find(&sessions).Error; err != nil {
		return nil, err
	}

	report := UserReport{UserID: user.ID, Name: user.Name, Email: user.Email}
	for _, s := range sessions {
		var answers []models.Answer
		if err := g.Where("session_id = ?", s.ID).Order("answered_at asc").Find(&answers).Error; err != nil {
			return nil, err
		}

		qr := QuestionnaireReport{
			QuestionnaireID: s.QuestionnaireID,
			Title:           "(deleted questionnaire)",
			IsCompleted:     s.IsCompleted,
		}
		if s.TotalQuestions > 0 {
			qr.Progress = s.CurrentQuestionIndex * 100 / s.TotalQuestions
		}

		var qn models.Questionnaire
		if err := g.First(&qn, "id = ?", s.QuestionnaireID).Error; err == nil {
			qr.Title = qn.Title
		}

		var questions []models.Question
		if err := g.Where("questionnaire_id = ?", s.QuestionnaireID).Order("position asc").Find(&questions).Error; err != nil {
			return nil, err
		}
		byID := make(map[string]*models.Question, len(questions))
		byText := make(map[string]*models.Question, len(questions))
		for i := range questions {
			byID[questions[i].ID] = &questions[i]
			byText[questions[i].Text] = &questions[i]
		}

		for _, a := range answers {
			e := ReportEntry{
				QuestionText: a.QuestionText,
				Response:     a.ResponseText,
				AnsweredAt:   a.AnsweredAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			}
			q := byID[a.QuestionID]
			if q == nil {
				q = byText[a.QuestionText] // legacy text-match fallback
			}
			if q != nil {
				e.QuestionID = q.ID
				e.QuestionText = q.Text
				e.Position = q.Position
			}
			qr.Entries = append(qr.Entries, e)
		}
		report.Questionnaires = append(report.Questionnaires, qr)
	}
	return &report, nil
}
