package services

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/stakeq/stakeq/internal/models"
)

// Initial password for admin-created accounts. The original system mails a
// setup link instead; delivery is out of scope here.
const defaultPassword = "defaultpassword123"

func NormEmail(s string) (string, bool) {
	e := strings.TrimSpace(strings.ToLower(s))
	if e == "" {
		return "", false
	}
	_, err := mail.ParseAddress(e)
	return e, err == nil
}

// CreateUser registers a stakeholder (or admin) account with the default
// initial password.
func CreateUser(g *gorm.DB, name, email, role string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewInvalidError("name is required")
	}
	email, ok := NormEmail(email)
	if !ok {
		return nil, NewInvalidError("a valid email is required")
	}
	if role == "" {
		role = "stakeholder"
	}
	if role != "admin" && role != "stakeholder" {
		return nil, NewInvalidError("role must be admin or stakeholder")
	}

	var count int64
	if err := g.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, NewConflictError("email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := g.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SetUserActive flips the is_active flag.
func SetUserActive(g *gorm.DB, userID string, active bool) (*models.User, error) {
	var u models.User
	if err := g.First(&u, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("user not found")
		}
		return nil, err
	}
	u.IsActive = active
	if err := g.Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// AssignQuestionnaire sets or clears a user's assigned questionnaire. This is
// a registry-only write: it never creates, updates, or deletes session rows,
// so clearing an assignment leaves any in-progress session retrievable.
func AssignQuestionnaire(g *gorm.DB, userID string, questionnaireID *string) (*models.User, error) {
	var u models.User
	if err := g.First(&u, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("user not found")
		}
		return nil, err
	}

	if questionnaireID != nil {
		var qn models.Questionnaire
		if err := g.First(&qn, "id = ?", *questionnaireID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, NewNotFoundError("questionnaire not found")
			}
			return nil, err
		}
	}

	u.AssignedQuestionnaireID = questionnaireID
	if err := g.Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
