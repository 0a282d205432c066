package services

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stakeq/stakeq/internal/models"
)

// NewQuestion is the inbound shape for one question of a new questionnaire.
type NewQuestion struct {
	Text     string `json:"text"`
	Type     string `json:"type"`
	Options  string `json:"options"`
	Required *bool  `json:"required"`
}

// CreateQuestionnaire stores a questionnaire and its questions wholesale,
// assigning dense 1-based positions in the order given. There is no
// update-in-place for question lists; imports and edits create new
// questionnaires through this same path.
func CreateQuestionnaire(g *gorm.DB, title, description string, createdBy *string, questions []NewQuestion) (*models.Questionnaire, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewInvalidError("title is required")
	}
	if len(questions) == 0 {
		return nil, NewInvalidError("at least one question is required")
	}
	for _, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return nil, NewInvalidError("question text must not be empty")
		}
	}

	qn := models.Questionnaire{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedBy:   createdBy,
		IsActive:    true,
	}

	err := g.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&qn).Error; err != nil {
			return err
		}
		for i, nq := range questions {
			kind := nq.Type
			if kind == "" {
				kind = "text"
			}
			required := true
			if nq.Required != nil {
				required = *nq.Required
			}
			q := models.Question{
				ID:              uuid.NewString(),
				QuestionnaireID: qn.ID,
				Position:        i + 1,
				Text:            strings.TrimSpace(nq.Text),
				Type:            kind,
				Options:         nq.Options,
				Required:        required,
			}
			if err := tx.Create(&q).Error; err != nil {
				return err
			}
			qn.Questions = append(qn.Questions, q)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &qn, nil
}

// DeleteQuestionnaire hard-deletes a questionnaire and its questions.
// Sessions and answers are deliberately left in place: they stay retrievable
// by id for reporting, they just no longer join to a questionnaire row.
func DeleteQuestionnaire(g *gorm.DB, id string) error {
	var qn models.Questionnaire
	if err := g.First(&qn, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return NewNotFoundError("questionnaire not found")
		}
		return err
	}
	return g.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("questionnaire_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&qn).Error
	})
}
