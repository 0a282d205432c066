package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stakeq/stakeq/internal/models"
)

// Session progression rules. A session walks a questionnaire's questions with a
// single forward pointer:
//
//	none -> in progress (index 0) -> ... -> completed (index == total)
//
// Completion is terminal; there is no retake path. All writes that advance the
// pointer are guarded by an optimistic check on the index the writer observed,
// so two racing submissions can never both advance.

// StartOrResumeSession returns the caller's session for their assigned
// questionnaire, creating it on first visit. Assignment alone never creates a
// session; this is the only place a session row comes into existence.
func StartOrResumeSession(g *gorm.DB, userID string) (*models.Session, error) {
	var user models.User
	if err := g.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("user not found")
		}
		return nil, err
	}
	if user.AssignedQuestionnaireID == nil {
		return nil, NewNotFoundError("no questionnaire assigned")
	}
	return CreateSession(g, userID, *user.AssignedQuestionnaireID)
}

// CreateSession makes the none -> in-progress transition for (user,
// questionnaire), or returns the existing session unchanged when one exists.
// TotalQuestions is a snapshot of the question count at creation time; it is
// not re-synced if the questionnaire is edited later.
func CreateSession(g *gorm.DB, userID, questionnaireID string) (*models.Session, error) {
	if strings.TrimSpace(questionnaireID) == "" {
		return nil, NewInvalidError("questionnaire_id is required")
	}

	var existing models.Session
	err := g.Where("user_id = ? AND questionnaire_id = ?", userID, questionnaireID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var qn models.Questionnaire
	if err := g.First(&qn, "id = ?", questionnaireID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("questionnaire not found")
		}
		return nil, err
	}

	var total int64
	if err := g.Model(&models.Question{}).Where("questionnaire_id = ?", questionnaireID).Count(&total).Error; err != nil {
		return nil, err
	}

	s := models.Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		QuestionnaireID: questionnaireID,
		TotalQuestions:  int(total),
	}
	if err := g.Create(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// SubmitAnswer appends an answer for the session's current question and
// advances the pointer by exactly one, completing the session when the new
// index reaches TotalQuestions. The answer insert and the pointer advance
// happen in one transaction with the insert first, so a reader can never see
// an advanced index without its answer present.
func SubmitAnswer(g *gorm.DB, sessionID, questionID, text string) (*models.Session, *models.Answer, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, NewInvalidError("answer text must not be empty")
	}

	var s models.Session
	if err := g.First(&s, "id = ?", sessionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, NewNotFoundError("session not found")
		}
		return nil, nil, err
	}
	if s.IsCompleted {
		return nil, nil, NewStateError("session is already completed")
	}
	if s.CurrentQuestionIndex >= s.TotalQuestions {
		// Stored flag lagging behind the index; still nothing left to answer.
		return nil, nil, NewStateError("session index out of range")
	}

	var q models.Question
	if err := g.First(&q, "id = ?", questionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, NewNotFoundError("question not found")
		}
		return nil, nil, err
	}
	if q.QuestionnaireID != s.QuestionnaireID {
		return nil, nil, NewNotFoundError("question does not belong to this questionnaire")
	}

	expected, err := questionAt(g, s.QuestionnaireID, s.CurrentQuestionIndex)
	if err != nil {
		return nil, nil, err
	}
	if expected == nil {
		// Questionnaire shrank under a live session; never reconciled.
		return nil, nil, NewStateError("no question at the current position")
	}
	if expected.ID != q.ID {
		return nil, nil, NewStateError("question is not the current question of this session")
	}

	ans := models.Answer{
		ID:           uuid.NewString(),
		SessionID:    s.ID,
		QuestionID:   q.ID,
		QuestionText: q.Text,
		ResponseText: text,
		AnsweredAt:   time.Now().UTC(),
	}

	newIdx := s.CurrentQuestionIndex + 1
	err = g.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ans).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Session{}).
			Where("id = ? AND current_question_index = ?", s.ID, s.CurrentQuestionIndex).
			Updates(map[string]any{
				"current_question_index": newIdx,
				"is_completed":           newIdx == s.TotalQuestions,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Someone else advanced the session after we read it.
			return NewStateError("session advanced concurrently, re-read and retry")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if err := g.First(&s, "id = ?", s.ID).Error; err != nil {
		return nil, nil, err
	}
	return &s, &ans, nil
}

// ApplyProgress is the direct-write path used by the legacy client, which
// PATCHes the index/flag it computed itself. The same invariants as
// SubmitAnswer hold even though the caller proposes the values: the index
// never decreases, advances at most one step, never passes TotalQuestions or
// the recorded answer count, and the completion flag must stay consistent
// with the index. A no-op write succeeds.
func ApplyProgress(g *gorm.DB, sessionID string, index *int, completed *bool) (*models.Session, error) {
	var s models.Session
	if err := g.First(&s, "id = ?", sessionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("session not found")
		}
		return nil, err
	}

	newIdx := s.CurrentQuestionIndex
	if index != nil {
		newIdx = *index
	}
	switch {
	case newIdx < s.CurrentQuestionIndex:
		return nil, NewStateError("current_question_index cannot decrease")
	case newIdx > s.CurrentQuestionIndex+1:
		return nil, NewStateError("current_question_index can only advance one step")
	case newIdx > s.TotalQuestions:
		return nil, NewStateError("current_question_index out of range")
	}

	if newIdx > s.CurrentQuestionIndex {
		var answered int64
		if err := g.Model(&models.Answer{}).Where("session_id = ?", s.ID).Count(&answered).Error; err != nil {
			return nil, err
		}
		if int(answered) < newIdx {
			return nil, NewStateError("cannot advance past the recorded answers")
		}
	}

	newCompleted := newIdx == s.TotalQuestions
	if completed != nil && *completed != newCompleted {
		return nil, NewStateError("is_completed is inconsistent with current_question_index")
	}

	res := g.Model(&models.Session{}).
		Where("id = ? AND current_question_index = ?", s.ID, s.CurrentQuestionIndex).
		Updates(map[string]any{
			"current_question_index": newIdx,
			"is_completed":           newCompleted,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, NewStateError("session advanced concurrently, re-read and retry")
	}

	if err := g.First(&s, "id = ?", s.ID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// questionAt returns the question at a 0-based position in the
// questionnaire's order, or nil when the position is past the end.
func questionAt(g *gorm.DB, questionnaireID string, index int) (*models.Question, error) {
	var qs []models.Question
	if err := g.Where("questionnaire_id = ?", questionnaireID).
		Order("position asc").Limit(1).Offset(index).Find(&qs).Error; err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, nil
	}
	return &qs[0], nil
}
