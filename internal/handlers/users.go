package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stakeq/stakeq/internal/db"
	"github.com/stakeq/stakeq/internal/models"
	svc "github.com/stakeq/stakeq/internal/services"
)

func userJSON(u *models.User) map[string]any {
	return map[string]any{
		"id":                        u.ID,
		"name":                      u.Name,
		"email":                     u.Email,
		"role":                      u.Role,
		"is_active":                 u.IsActive,
		"assigned_questionnaire_id": u.AssignedQuestionnaireID,
		"created_at":                u.CreatedAt.UTC(),
	}
}

// GET /api/users
func ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := db.Conn().Order("created_at desc").Find(&users).Error; err != nil {
		writeErr(w, err)
		return
	}
	out := make([]map[string]any, 0, len(users))
	for i := range users {
		out = append(out, userJSON(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/users
func CreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if !readJSON(w, r, &body) {
		return
	}

	u, err := svc.CreateUser(db.Conn(), body.Name, body.Email, body.Role)
	if err != nil {
		writeErr(w, err)
		return
	}

	c, _ := claimsFrom(r)
	svc.Audit(db.Conn(), &c.UID, "user_created", "User", u.ID, u.Email)
	writeJSON(w, http.StatusCreated, userJSON(u))
}

// PATCH /api/users/{id}
func UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if !readJSON(w, r, &body) {
		return
	}
	if body.IsActive == nil {
		writeErr(w, svc.NewInvalidError("is_active is required"))
		return
	}

	u, err := svc.SetUserActive(db.Conn(), id, *body.IsActive)
	if err != nil {
		writeErr(w, err)
		return
	}

	c, _ := claimsFrom(r)
	svc.Audit(db.Conn(), &c.UID, "user_status_changed", "User", u.ID, "")
	writeJSON(w, http.StatusOK, userJSON(u))
}

// POST /api/users/{id}/assign — body questionnaire_id null clears the
// assignment; any session for the previous questionnaire is left untouched.
func AssignUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		QuestionnaireID *string `json:"questionnaire_id"`
	}
	if !readJSON(w, r, &body) {
		return
	}

	u, err := svc.AssignQuestionnaire(db.Conn(), id, body.QuestionnaireID)
	if err != nil {
		writeErr(w, err)
		return
	}

	c, _ := claimsFrom(r)
	note := "cleared"
	if body.QuestionnaireID != nil {
		note = *body.QuestionnaireID
	}
	svc.Audit(db.Conn(), &c.UID, "questionnaire_assigned", "User", u.ID, note)
	writeJSON(w, http.StatusOK, userJSON(u))
}

// POST /api/users/{id}/remind
func RemindUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, _ := claimsFrom(r)
	if err := svc.SendReminder(db.Conn(), &c.UID, id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "reminder sent"})
}

// GET /api/users/{id}/report
func UserReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := svc.BuildUserReport(db.Conn(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
