package services

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCreateUserValidation(t *testing.T) {
	gdb := openTestDB(t)

	if _, err := CreateUser(gdb, "", "a@example.com", ""); errCode(t, err) != ErrorInvalid {
		t.Error("missing name must be invalid")
	}
	if _, err := CreateUser(gdb, "A", "not-an-email", ""); errCode(t, err) != ErrorInvalid {
		t.Error("bad email must be invalid")
	}
	if _, err := CreateUser(gdb, "A", "a@example.com", "superuser"); errCode(t, err) != ErrorInvalid {
		t.Error("unknown role must be invalid")
	}

	u, err := CreateUser(gdb, "Ada", "Ada@Example.COM", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.Role != "stakeholder" || !u.IsActive {
		t.Errorf("defaults: role=%q active=%v", u.Role, u.IsActive)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(defaultPassword)); err != nil {
		t.Error("initial password hash does not match the default password")
	}

	if _, err := CreateUser(gdb, "Dup", "ada@example.com", ""); errCode(t, err) != ErrorConflict {
		t.Error("duplicate email must conflict")
	}
}

func TestSetUserActive(t *testing.T) {
	gdb := openTestDB(t)
	u, err := CreateUser(gdb, "Flip", "flip@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	u, err = SetUserActive(gdb, u.ID, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if u.IsActive {
		t.Error("user still active")
	}

	if _, err := SetUserActive(gdb, "missing", true); errCode(t, err) != ErrorNotFound {
		t.Error("unknown user must be not_found")
	}
}

func TestAssignUnknownQuestionnaire(t *testing.T) {
	gdb := openTestDB(t)
	u, err := CreateUser(gdb, "A", "a@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	missing := "does-not-exist"
	if _, err := AssignQuestionnaire(gdb, u.ID, &missing); errCode(t, err) != ErrorNotFound {
		t.Error("dangling assignment must be rejected")
	}
	if _, err := AssignQuestionnaire(gdb, "missing-user", nil); errCode(t, err) != ErrorNotFound {
		t.Error("unknown user must be not_found")
	}
}
