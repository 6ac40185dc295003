package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/clinic-agenda/internal/models"
)

const DefaultTextbeltURL = "https://textbelt.com/text"

// NotificationService texts patients about their appointments through the
// Textbelt HTTP API. Sends happen in the background; Wait blocks until they
// have all finished.
type NotificationService struct {
	apiKey string
	url    string
	client *http.Client
	log    logrus.FieldLogger
	wg     sync.WaitGroup
}

func NewNotificationService(apiKey, url string, log logrus.FieldLogger) *NotificationService {
	if url == "" {
		url = DefaultTextbeltURL
	}
	return &NotificationService{
		apiKey: apiKey,
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (s *NotificationService) Enabled() bool { return s.apiKey != "" }

func (s *NotificationService) AppointmentBooked(patient *models.Patient, apt *models.Appointment) {
	s.dispatch(patient, fmt.Sprintf(
		"Appointment booked: %s on %s at %s with %s.",
		patient.Name, apt.Date, apt.Time, apt.DoctorName,
	))
}

func (s *NotificationService) AppointmentStatusChanged(patient *models.Patient, apt *models.Appointment) {
	s.dispatch(patient, fmt.Sprintf(
		"Your appointment on %s at %s with %s is now %s.",
		apt.Date, apt.Time, apt.DoctorName, apt.Status,
	))
}

func (s *NotificationService) dispatch(patient *models.Patient, message string) {
	entry := s.log.WithField("patient_id", patient.ID.Hex())
	if patient.Phone == "" {
		entry.Debug("SMS not sent: patient has no phone number")
		return
	}
	if !s.Enabled() {
		entry.Debug("SMS not sent: notifications disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
		defer cancel()
		if err := s.send(ctx, patient.Phone, message); err != nil {
			entry.WithError(err).Warn("SMS delivery failed")
			sentry.CaptureException(err)
			return
		}
		entry.Info("SMS sent")
	}()
}

type textbeltResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *NotificationService) send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.apiKey,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("textbelt request: %w", err)
	}
	defer resp.Body.Close()

	var result textbeltResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("textbelt response (status %d): %w", resp.StatusCode, err)
	}
	if !result.Success {
		return fmt.Errorf("textbelt rejected message: %s", result.Error)
	}
	return nil
}

// Wait blocks until in-flight messages finish or ctx is done.
func (s *NotificationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
