package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/clinic-agenda/internal/middleware"
	"github.com/harentsoaR/clinic-agenda/internal/models"
	"github.com/harentsoaR/clinic-agenda/internal/schedule"
	"github.com/harentsoaR/clinic-agenda/internal/store"
	"github.com/harentsoaR/clinic-agenda/internal/utils"
)

const (
	testDay      = "2025-08-01"
	demoPassword = "clinic1234"
)

type recordingNotifier struct {
	mu      sync.Mutex
	booked  []models.Appointment
	changed []models.Appointment
}

func (n *recordingNotifier) AppointmentBooked(_ *models.Patient, a *models.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, *a)
}

func (n *recordingNotifier) AppointmentStatusChanged(_ *models.Patient, a *models.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, *a)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type testEnv struct {
	t        *testing.T
	router   *gin.Engine
	repo     *store.MemoryStore
	jwt      *utils.JWTManager
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := quietLogger()

	day, _ := schedule.ParseDate(testDay)
	repo := store.NewMemoryStore()
	err := store.Seed(context.Background(), repo, store.SeedOptions{
		OwnerName: "Owner", OwnerEmail: "owner@clinica.com", OwnerPassword: "ownerpass1",
		Demo: true, DemoPassword: demoPassword, Day: day,
	}, log)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	jwt := utils.NewJWTManager("test-secret", time.Hour)
	notifier := &recordingNotifier{}
	h := NewHandler(repo, notifier, jwt, log)
	h.Now = func() time.Time { return day.Add(9 * time.Hour) }

	r := gin.New()
	r.Use(middleware.RequestID())
	SetupRoutes(r, h, middleware.NewRateLimiter(100, 100))
	return &testEnv{t: t, router: r, repo: repo, jwt: jwt, notifier: notifier}
}

func (e *testEnv) user(email string) *models.User {
	e.t.Helper()
	u, err := e.repo.UserByEmail(context.Background(), email)
	if err != nil {
		e.t.Fatalf("user %s: %v", email, err)
	}
	return u
}

func (e *testEnv) token(email string) string {
	e.t.Helper()
	u := e.user(email)
	tok, err := e.jwt.GenerateJWT(u.ID.Hex(), string(u.Role))
	if err != nil {
		e.t.Fatalf("token: %v", err)
	}
	return tok
}

func (e *testEnv) patient(name string) models.Patient {
	e.t.Helper()
	ps, _ := e.repo.ListPatients(context.Background(), store.PatientFilter{})
	for _, p := range ps {
		if p.Name == name {
			return p
		}
	}
	e.t.Fatalf("patient %s not seeded", name)
	return models.Patient{}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

const (
	perez     = "juan.perez@clinica.com"
	ramos     = "maria.ramos@clinica.com"
	secretary = "ana.gonzalez@clinica.com"
	inactive  = "carlos.mendoza@clinica.com"
	owner     = "owner@clinica.com"
)
