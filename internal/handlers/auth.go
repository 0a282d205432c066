package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/stakeq/stakeq/internal/db"
	"github.com/stakeq/stakeq/internal/models"
	svc "github.com/stakeq/stakeq/internal/services"
)

type authCtxKey int

const authKey authCtxKey = 1

type Claims struct {
	UID   string `json:"uid"`
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	if s := os.Getenv("STAKEQ_JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("stakeq-dev-secret") // change in production: export STAKEQ_JWT_SECRET=...
}

func SignToken(uid, role, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{UID: uid, Role: role, Email: email, RegisteredClaims: jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
}

func parseToken(tok string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tok, &Claims{}, func(*jwt.Token) (any, error) { return jwtSecret(), nil })
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// WithAuth attaches claims to the context when a valid bearer token is
// present; it never rejects on its own.
func WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if strings.HasPrefix(h, "Bearer ") {
			if c, err := parseToken(strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), authKey, c))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := claimsFrom(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := claimsFrom(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		if c.Role != "admin" {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "admin only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(r *http.Request) (*Claims, bool) {
	c, ok := r.Context().Value(authKey).(*Claims)
	return c, ok
}

const tokenTTL = 24 * time.Hour

// POST /api/login
func Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &body) {
		return
	}
	email, ok := svc.NormEmail(body.Email)
	if !ok || body.Password == "" {
		writeErr(w, svc.NewInvalidError("email and password are required"))
		return
	}

	var u models.User
	if err := db.Conn().Where("email = ?", email).First(&u).Error; err != nil {
		writeErr(w, svc.NewUnauthorizedError("invalid credentials"))
		return
	}
	if !u.IsActive {
		writeErr(w, svc.NewUnauthorizedError("account is disabled"))
		return
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(body.Password)); err != nil {
		writeErr(w, svc.NewUnauthorizedError("invalid credentials"))
		return
	}

	token, err := SignToken(u.ID, u.Role, u.Email, tokenTTL)
	if err != nil {
		writeErr(w, err)
		return
	}

	svc.Audit(db.Conn(), &u.ID, "user_login", "User", u.ID, "")
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userJSON(&u),
	})
}

// GET /api/users/me
func Me(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r)
	var u models.User
	if err := db.Conn().First(&u, "id = ?", c.UID).Error; err != nil {
		writeErr(w, svc.NewNotFoundError("user not found"))
		return
	}
	writeJSON(w, http.StatusOK, userJSON(&u))
}
