package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stakeq/stakeq/internal/db"
	"github.com/stakeq/stakeq/internal/models"
	svc "github.com/stakeq/stakeq/internal/services"
	"github.com/stakeq/stakeq/internal/web"
)

// initPassword mirrors the default assigned to admin-created accounts.
const initPassword = "defaultpassword123"

// newServer gives each test its own working dir, database, and router.
func newServer(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	orig, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(orig) }) //nolint:errcheck
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	if err := db.Init(); err != nil {
		t.Fatalf("db init: %v", err)
	}
	return web.Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func seedUser(t *testing.T, name, email, role string) *models.User {
	t.Helper()
	u, err := svc.CreateUser(db.Conn(), name, email, role)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func login(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/login", "", map[string]any{
		"email": email, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, rec, &out)
	return out.Token
}

func TestLoginAndMe(t *testing.T) {
	h := newServer(t)
	seedUser(t, "Ada Admin", "ada@example.com", "admin")

	if rec := doJSON(t, h, http.MethodPost, "/api/login", "", map[string]any{
		"email": "ada@example.com", "password": "wrong",
	}); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: want 401, got %d", rec.Code)
	}

	token := login(t, h, "ada@example.com", initPassword)

	rec := doJSON(t, h, http.MethodGet, "/api/users/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d", rec.Code)
	}
	var me map[string]any
	decode(t, rec, &me)
	if me["email"] != "ada@example.com" || me["role"] != "admin" {
		t.Errorf("me payload: %v", me)
	}

	if rec := doJSON(t, h, http.MethodGet, "/api/users/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: want 401, got %d", rec.Code)
	}
}

func TestDisabledUserCannotLogin(t *testing.T) {
	h := newServer(t)
	u := seedUser(t, "Off", "off@example.com", "stakeholder")
	if _, err := svc.SetUserActive(db.Conn(), u.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	rec := doJSON(t, h, http.MethodPost, "/api/login", "", map[string]any{
		"email": "off@example.com", "password": initPassword,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("want 401, got %d", rec.Code)
	}
}

func TestAdminGuard(t *testing.T) {
	h := newServer(t)
	seedUser(t, "Sam", "sam@example.com", "stakeholder")
	token := login(t, h, "sam@example.com", initPassword)

	if rec := doJSON(t, h, http.MethodGet, "/api/users", token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("stakeholder on admin route: want 403, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/users", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous on admin route: want 401, got %d", rec.Code)
	}
}

func TestQuestionnaireCRUD(t *testing.T) {
	h := newServer(t)
	seedUser(t, "Ada", "ada@example.com", "admin")
	token := login(t, h, "ada@example.com", initPassword)

	rec := doJSON(t, h, http.MethodPost, "/api/questionnaires", token, map[string]any{
		"title":       "Onboarding",
		"description": "First impressions",
		"questions":   []map[string]any{{"text": "Q1"}, {"text": "Q2"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decode(t, rec, &created)
	id := created["id"].(string)
	questions := created["questions"].([]any)
	if len(questions) != 2 {
		t.Fatalf("want 2 questions, got %d", len(questions))
	}
	if q0 := questions[0].(map[string]any); q0["order"].(float64) != 1 {
		t.Errorf("first question order: %v", q0["order"])
	}

	if rec := doJSON(t, h, http.MethodPost, "/api/questionnaires", token, map[string]any{
		"title": "Empty", "questions": []map[string]any{},
	}); rec.Code != http.StatusBadRequest {
		t.Errorf("no questions: want 400, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/questionnaires", token, nil)
	var list []map[string]any
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("list: want 1, got %d", len(list))
	}

	if rec := doJSON(t, h, http.MethodDelete, "/api/questionnaires/"+id, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/questionnaires/"+id, token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("deleted questionnaire still readable: %d", rec.Code)
	}
}

// TestChatFlow walks the stakeholder chat path end to end through HTTP:
// assignment, lazy session creation, sequential answers, completion, and the
// conflict after completion.
func TestChatFlow(t *testing.T) {
	h := newServer(t)
	seedUser(t, "Ada", "ada@example.com", "admin")
	stakeholder := seedUser(t, "Sam", "sam@example.com", "stakeholder")
	admin := login(t, h, "ada@example.com", initPassword)
	sam := login(t, h, "sam@example.com", initPassword)

	// No assignment yet.
	if rec := doJSON(t, h, http.MethodGet, "/api/users/me/session", sam, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unassigned session fetch: want 404, got %d", rec.Code)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/questionnaires", admin, map[string]any{
		"title":     "Check-in",
		"questions": []map[string]any{{"text": "Q1"}, {"text": "Q2"}},
	})
	var qn map[string]any
	decode(t, rec, &qn)
	qnID := qn["id"].(string)

	if rec := doJSON(t, h, http.MethodPost, "/api/users/"+stakeholder.ID+"/assign", admin, map[string]any{
		"questionnaire_id": qnID,
	}); rec.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", rec.Code, rec.Body.String())
	}

	// Assigning must not create the session; only the first visit does.
	var sessions int64
	db.Conn().Model(&models.Session{}).Count(&sessions)
	if sessions != 0 {
		t.Fatalf("assignment created %d session rows", sessions)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/users/me/session", sam, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("session fetch: %d %s", rec.Code, rec.Body.String())
	}
	var sess map[string]any
	decode(t, rec, &sess)
	sessID := sess["id"].(string)
	if sess["current_question_index"].(float64) != 0 || sess["is_completed"].(bool) {
		t.Fatalf("fresh session payload: %v", sess)
	}
	current := sess["current_question"].(map[string]any)
	if current["text"] != "Q1" {
		t.Fatalf("current question: %v", current)
	}

	// Answer both questions in order.
	rec = doJSON(t, h, http.MethodPost, "/api/sessions/"+sessID+"/answers", sam, map[string]any{
		"question_id": current["id"], "answer_text": "A1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("answer 1: %d %s", rec.Code, rec.Body.String())
	}
	var a1 map[string]any
	decode(t, rec, &a1)
	if a1["session_progress"].(float64) != 1 || a1["is_completed"].(bool) {
		t.Fatalf("after A1: %v", a1)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/users/me/session", sam, nil)
	decode(t, rec, &sess)
	current = sess["current_question"].(map[string]any)
	if current["text"] != "Q2" {
		t.Fatalf("second question: %v", current)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/sessions/"+sessID+"/answers", sam, map[string]any{
		"question_id": current["id"], "answer_text": "A2",
	})
	var a2 map[string]any
	decode(t, rec, &a2)
	if a2["session_progress"].(float64) != 2 || !a2["is_completed"].(bool) {
		t.Fatalf("after A2: %v", a2)
	}

	// Completed sessions reject further answers and write nothing.
	rec = doJSON(t, h, http.MethodPost, "/api/sessions/"+sessID+"/answers", sam, map[string]any{
		"question_id": current["id"], "answer_text": "extra",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("answer after completion: want 409, got %d", rec.Code)
	}
	var n int64
	db.Conn().Model(&models.Answer{}).Where("session_id = ?", sessID).Count(&n)
	if n != 2 {
		t.Errorf("answer log: want 2 rows, got %d", n)
	}
}

func TestSessionOwnership(t *testing.T) {
	h := newServer(t)
	seedUser(t, "Ada", "ada@example.com", "admin")
	owner := seedUser(t, "Sam", "sam@example.com", "stakeholder")
	seedUser(t, "Eve", "eve@example.com", "stakeholder")
	admin := login(t, h, "ada@example.com", initPassword)
	sam := login(t, h, "sam@example.com", initPassword)
	eve := login(t, h, "eve@example.com", initPassword)

	rec := doJSON(t, h, http.MethodPost, "/api/questionnaires", admin, map[string]any{
		"title": "T", "questions": []map[string]any{{"text": "Q1"}},
	})
	var qn map[string]any
	decode(t, rec, &qn)
	doJSON(t, h, http.MethodPost, "/api/users/"+owner.ID+"/assign", admin, map[string]any{
		"questionnaire_id": qn["id"],
	})
	rec = doJSON(t, h, http.MethodGet, "/api/users/me/session", sam, nil)
	var sess map[string]any
	decode(t, rec, &sess)
	sessID := sess["id"].(string)

	if rec := doJSON(t, h, http.MethodGet, "/api/sessions/"+sessID, eve, nil); rec.Code != http.StatusForbidden {
		t.Errorf("other stakeholder read: want 403, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/sessions/"+sessID, admin, nil); rec.Code != http.StatusOK {
		t.Errorf("admin read: want 200, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPatch, "/api/sessions/"+sessID, admin, map[string]any{
		"current_question_index": 0,
	}); rec.Code != http.StatusForbidden {
		t.Errorf("admin write: want 403, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/sessions", eve, map[string]any{
		"questionnaire_id": qn["id"],
	}); rec.Code != http.StatusForbidden {
		t.Errorf("create for unassigned questionnaire: want 403, got %d", rec.Code)
	}
}

func TestClearAssignmentEndpointKeepsSession(t *testing.T) {
	h := newServer(t)
	seedUser(t, "Ada", "ada@example.com", "admin")
	stakeholder := seedUser(t, "Sam", "sam@example.com", "stakeholder")
	admin := login(t, h, "ada@example.com", initPassword)
	sam := login(t, h, "sam@example.com", initPassword)

	rec := doJSON(t, h, http.MethodPost, "/api/questionnaires", admin, map[string]any{
		"title": "T", "questions": []map[string]any{{"text": "Q1"}, {"text": "Q2"}},
	})
	var qn map[string]any
	decode(t, rec, &qn)
	doJSON(t, h, http.MethodPost, "/api/users/"+stakeholder.ID+"/assign", admin, map[string]any{
		"questionnaire_id": qn["id"],
	})

	rec = doJSON(t, h, http.MethodGet, "/api/users/me/session", sam, nil)
	var sess map[string]any
	decode(t, rec, &sess)
	sessID := sess["id"].(string)
	q1 := sess["current_question"].(map[string]any)
	doJSON(t, h, http.MethodPost, "/api/sessions/"+sessID+"/answers", sam, map[string]any{
		"question_id": q1["id"], "answer_text": "A1",
	})

	rec = doJSON(t, h, http.MethodPost, "/api/users/"+stakeholder.ID+"/assign", admin, map[string]any{
		"questionnaire_id": nil,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("clear assign: %d", rec.Code)
	}
	var u map[string]any
	decode(t, rec, &u)
	if u["assigned_questionnaire_id"] != nil {
		t.Errorf("assignment not cleared: %v", u["assigned_questionnaire_id"])
	}

	// Orphaned but intact, at the same index.
	rec = doJSON(t, h, http.MethodGet, "/api/sessions/"+sessID, sam, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("orphaned session fetch: %d", rec.Code)
	}
	decode(t, rec, &sess)
	if sess["current_question_index"].(float64) != 1 {
		t.Errorf("orphaned session index: %v", sess["current_question_index"])
	}
}

func TestDashboardAndResponses(t *testing.T) {
	h := newServer(t)
	seedUser(t, "Ada", "ada@example.com", "admin")
	stakeholder := seedUser(t, "Sam", "sam@example.com", "stakeholder")
	admin := login(t, h, "ada@example.com", initPassword)
	sam := login(t, h, "sam@example.com", initPassword)

	rec := doJSON(t, h, http.MethodPost, "/api/questionnaires", admin, map[string]any{
		"title": "T", "questions": []map[string]any{{"text": "Q1"}},
	})
	var qn map[string]any
	decode(t, rec, &qn)
	doJSON(t, h, http.MethodPost, "/api/users/"+stakeholder.ID+"/assign", admin, map[string]any{
		"questionnaire_id": qn["id"],
	})
	rec = doJSON(t, h, http.MethodGet, "/api/users/me/session", sam, nil)
	var sess map[string]any
	decode(t, rec, &sess)
	q1 := sess["current_question"].(map[string]any)
	doJSON(t, h, http.MethodPost, "/api/sessions/"+sess["id"].(string)+"/answers", sam, map[string]any{
		"question_id": q1["id"], "answer_text": "A1",
	})

	rec = doJSON(t, h, http.MethodGet, "/api/dashboard/stats", admin, nil)
	var stats map[string]float64
	decode(t, rec, &stats)
	for key, want := range map[string]float64{
		"totalUsers":        2,
		"totalSessions":     1,
		"completedSessions": 1,
		"totalAnswers":      1,
		"totalQuestions":    1,
	} {
		if stats[key] != want {
			t.Errorf("%s: want %v, got %v", key, want, stats[key])
		}
	}

	rec = doJSON(t, h, http.MethodGet, "/api/responses", admin, nil)
	var responses []map[string]any
	decode(t, rec, &responses)
	if len(responses) != 1 {
		t.Fatalf("responses: want 1, got %d", len(responses))
	}
	if responses[0]["response"] != "A1" || responses[0]["user_id"] != stakeholder.ID {
		t.Errorf("response row: %v", responses[0])
	}

	rec = doJSON(t, h, http.MethodGet, "/api/dashboard/activity", admin, nil)
	var activity []map[string]any
	decode(t, rec, &activity)
	if len(activity) == 0 {
		t.Error("expected recent audit activity")
	}
}

func TestUserReportEndpoint(t *testing.T) {
	h := newServer(t)
	seedUser(t, "Ada", "ada@example.com", "admin")
	stakeholder := seedUser(t, "Sam", "sam@example.com", "stakeholder")
	admin := login(t, h, "ada@example.com", initPassword)
	sam := login(t, h, "sam@example.com", initPassword)

	rec := doJSON(t, h, http.MethodPost, "/api/questionnaires", admin, map[string]any{
		"title": "T", "questions": []map[string]any{{"text": "Q1"}},
	})
	var qn map[string]any
	decode(t, rec, &qn)
	doJSON(t, h, http.MethodPost, "/api/users/"+stakeholder.ID+"/assign", admin, map[string]any{
		"questionnaire_id": qn["id"],
	})
	rec = doJSON(t, h, http.MethodGet, "/api/users/me/session", sam, nil)
	var sess map[string]any
	decode(t, rec, &sess)
	q1 := sess["current_question"].(map[string]any)
	doJSON(t, h, http.MethodPost, "/api/sessions/"+sess["id"].(string)+"/answers", sam, map[string]any{
		"question_id": q1["id"], "answer_text": "A1",
	})

	rec = doJSON(t, h, http.MethodGet, "/api/users/"+stakeholder.ID+"/report", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: %d", rec.Code)
	}
	var report struct {
		Questionnaires []struct {
			Title   string `json:"title"`
			Entries []struct {
				Response string `json:"response"`
			} `json:"entries"`
		} `json:"questionnaires"`
	}
	decode(t, rec, &report)
	if len(report.Questionnaires) != 1 || len(report.Questionnaires[0].Entries) != 1 {
		t.Fatalf("report shape: %+v", report)
	}
	if report.Questionnaires[0].Entries[0].Response != "A1" {
		t.Errorf("report entry: %+v", report.Questionnaires[0].Entries[0])
	}

	if rec := doJSON(t, h, http.MethodPost, "/api/users/"+stakeholder.ID+"/remind", admin, nil); rec.Code != http.StatusOK {
		t.Errorf("remind: want 200, got %d", rec.Code)
	}
}
