package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-agenda/internal/middleware"
	"github.com/harentsoaR/clinic-agenda/internal/models"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"ok", gin.H{"email": perez, "password": demoPassword}, http.StatusOK},
		{"email case", gin.H{"email": "Juan.Perez@Clinica.com", "password": demoPassword}, http.StatusOK},
		{"wrong password", gin.H{"email": perez, "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", gin.H{"email": "nobody@clinica.com", "password": demoPassword}, http.StatusUnauthorized},
		{"inactive", gin.H{"email": inactive, "password": demoPassword}, http.StatusForbidden},
		{"missing fields", gin.H{"email": perez}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/auth/login", "", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	w := env.do(http.MethodPost, "/auth/login", "", gin.H{"email": perez, "password": demoPassword})
	resp := decode[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}](t, w)
	claims, err := env.jwt.ValidateJWT(resp.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Role != string(models.RoleDoctor) || claims.UserID != resp.User.ID.Hex() {
		t.Errorf("claims = %+v", claims)
	}
	if env.user(perez).LastLogin == nil {
		t.Error("last login not recorded")
	}
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	h := NewHandler(env.repo, env.notifier, env.jwt, quietLogger())
	SetupRoutes(r, h, middleware.NewRateLimiter(0.001, 1))
	env.router = r

	body := gin.H{"email": "nobody@clinica.com", "password": "x"}
	if w := env.do(http.MethodPost, "/auth/login", "", body); w.Code != http.StatusUnauthorized {
		t.Fatalf("first attempt = %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/auth/login", "", body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second attempt = %d, want 429", w.Code)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(http.MethodGet, "/api/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous = %d", w.Code)
	}
	w := env.do(http.MethodGet, "/api/me", env.token(secretary), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	u := decode[map[string]any](t, w)
	if u["email"] != secretary || u["role"] != "SECRETARY" {
		t.Errorf("me = %v", u)
	}
	if _, leaked := u["password"]; leaked {
		t.Error("password hash serialized")
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/ready", "", nil); w.Code != http.StatusOK {
		t.Errorf("ready = %d", w.Code)
	}
}

func TestTokenAfterAccountChange(t *testing.T) {
	env := newTestEnv(t)
	ownerTok := env.token(owner)
	secTok := env.token(secretary)
	secPath := "/api/users/" + env.user(secretary).ID.Hex()

	if w := env.do(http.MethodGet, "/api/patients", secTok, nil); w.Code != http.StatusOK {
		t.Fatalf("before = %d", w.Code)
	}

	// demoted to doctor: staff-only routes close at once
	if w := env.do(http.MethodPut, secPath, ownerTok, gin.H{"role": "DOCTOR"}); w.Code != http.StatusOK {
		t.Fatalf("demote = %d", w.Code)
	}
	apt := env.appointmentAt("14:30")
	if w := env.do(http.MethodDelete, "/api/appointments/"+apt.ID.Hex(), secTok, nil); w.Code != http.StatusForbidden {
		t.Errorf("delete after demotion = %d, want 403", w.Code)
	}

	if w := env.do(http.MethodPut, secPath, ownerTok, gin.H{"role": "SECRETARY", "status": "Inactive"}); w.Code != http.StatusOK {
		t.Fatalf("deactivate = %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/api/patients", secTok, nil); w.Code != http.StatusForbidden {
		t.Errorf("list after deactivation = %d, want 403", w.Code)
	}
	if w := env.do(http.MethodDelete, "/api/appointments/"+apt.ID.Hex(), secTok, nil); w.Code != http.StatusForbidden {
		t.Errorf("delete after deactivation = %d, want 403", w.Code)
	}

	if w := env.do(http.MethodDelete, secPath, ownerTok, nil); w.Code != http.StatusOK {
		t.Fatalf("delete user = %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/api/me", secTok, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("deleted account = %d, want 401", w.Code)
	}
}

func TestUpdateCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(perez)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"empty", gin.H{}, http.StatusBadRequest},
		{"blank name", gin.H{"name": "  "}, http.StatusBadRequest},
		{"short password", gin.H{"password": "short", "currentPassword": demoPassword}, http.StatusBadRequest},
		{"wrong current password", gin.H{"password": "newsecret1", "currentPassword": "nope"}, http.StatusUnauthorized},
		{"rename", gin.H{"name": "Dr. Juan Pérez"}, http.StatusOK},
		{"new password", gin.H{"password": "newsecret1", "currentPassword": demoPassword}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(http.MethodPut, "/api/me", tok, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	u := env.user(perez)
	if u.Name != "Dr. Juan Pérez" || u.Role != models.RoleDoctor {
		t.Errorf("user = %+v", u)
	}
	if w := env.do(http.MethodPost, "/auth/login", "", gin.H{"email": perez, "password": demoPassword}); w.Code != http.StatusUnauthorized {
		t.Errorf("old password login = %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/auth/login", "", gin.H{"email": perez, "password": "newsecret1"}); w.Code != http.StatusOK {
		t.Errorf("new password login = %d", w.Code)
	}
}
