package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-agenda/internal/models"
	"github.com/harentsoaR/clinic-agenda/internal/schedule"
	"github.com/harentsoaR/clinic-agenda/internal/store"
)

type patientRequest struct {
	Name            string `json:"name" binding:"required"`
	NationalID      string `json:"nationalId"`
	Phone           string `json:"phone"`
	Insurance       string `json:"insurance"`
	InsuranceNumber string `json:"insuranceNumber"`
	DoctorID        string `json:"doctorId" binding:"required"`
	Email           string `json:"email" binding:"omitempty,email"`
	Address         string `json:"address"`
	BirthDate       string `json:"birthDate"`
}

// matchesSearch is a case-insensitive name match or a national id substring.
func matchesSearch(p models.Patient, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) ||
		strings.Contains(p.NationalID, q)
}

// doctors only ever see patients assigned to them
func patientFilterFor(v schedule.Viewer) store.PatientFilter {
	if v.Role == models.RoleDoctor {
		return store.PatientFilter{DoctorID: v.UserID}
	}
	return store.PatientFilter{}
}

func canSeePatient(v schedule.Viewer, p *models.Patient) bool {
	if v.Role == models.RoleDoctor {
		return p.DoctorID == v.UserID
	}
	return v.IsStaff()
}

func (h *Handler) GetPatients(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	if !v.IsStaff() && v.Role != models.RoleDoctor {
		c.JSON(http.StatusOK, []models.Patient{})
		return
	}
	patients, err := h.Store.ListPatients(c.Request.Context(), patientFilterFor(v))
	if err != nil {
		h.fail(c, err, "Failed to retrieve patients")
		return
	}

	q := strings.TrimSpace(c.Query("search"))
	out := make([]models.Patient, 0, len(patients))
	for _, p := range patients {
		if matchesSearch(p, q) {
			out = append(out, p)
		}
	}
	c.JSON(http.StatusOK, out)
}

// loadPatient fetches :id and hides patients the caller may not see.
func (h *Handler) loadPatient(c *gin.Context, v schedule.Viewer) (*models.Patient, bool) {
	id, ok := paramID(c, "patient")
	if !ok {
		return nil, false
	}
	p, err := h.Store.GetPatient(c.Request.Context(), id)
	if err == nil && !canSeePatient(v, p) {
		err = store.ErrNotFound
	}
	if err != nil {
		h.fail(c, err, "Patient")
		return nil, false
	}
	return p, true
}

func (h *Handler) GetPatient(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	if p, ok := h.loadPatient(c, v); ok {
		c.JSON(http.StatusOK, p)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := &models.Patient{}
	if !h.applyPatient(c, p, req) {
		return
	}
	if err := h.Store.CreatePatient(c.Request.Context(), p); err != nil {
		h.fail(c, err, "Failed to create patient")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePatient is open to staff and to the patient's assigned doctor. A
// doctor cannot hand the patient to someone else.
func (h *Handler) UpdatePatient(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	p, ok := h.loadPatient(c, v)
	if !ok {
		return
	}
	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if v.Role == models.RoleDoctor && req.DoctorID != p.DoctorID.Hex() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only staff can reassign a patient"})
		return
	}
	if !h.applyPatient(c, p, req) {
		return
	}
	if err := h.Store.UpdatePatient(c.Request.Context(), p); err != nil {
		h.fail(c, err, "Failed to update patient")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, ok := paramID(c, "patient")
	if !ok {
		return
	}
	if err := h.Store.DeletePatient(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Patient")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted successfully"})
}

// AddMedicalRecord appends to a patient's history. Allowed for the assigned
// doctor and the owner.
func (h *Handler) AddMedicalRecord(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	if v.Role != models.RoleDoctor && v.Role != models.RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}
	p, ok := h.loadPatient(c, v)
	if !ok {
		return
	}
	var req struct {
		Date      string `json:"date"`
		Diagnosis string `json:"diagnosis" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "diagnosis is required"})
		return
	}
	date := schedule.FormatDate(h.today())
	if req.Date != "" {
		d, err := schedule.ParseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, use YYYY-MM-DD"})
			return
		}
		date = schedule.FormatDate(d)
	}

	rec := models.MedicalRecord{Date: date, Diagnosis: req.Diagnosis, DoctorID: p.DoctorID, DoctorName: p.DoctorName}
	if v.Role == models.RoleDoctor {
		if u, err := h.Store.GetUser(c.Request.Context(), v.UserID); err == nil {
			rec.DoctorID, rec.DoctorName = u.ID, u.Name
		}
	}
	if err := h.Store.AddMedicalRecord(c.Request.Context(), p.ID, rec); err != nil {
		h.fail(c, err, "Patient")
		return
	}
	p.MedicalHistory = append(p.MedicalHistory, rec)
	c.JSON(http.StatusCreated, p)
}

// applyPatient copies req onto p after resolving the assigned doctor.
func (h *Handler) applyPatient(c *gin.Context, p *models.Patient, req patientRequest) bool {
	doctorID, err := primitive.ObjectIDFromHex(req.DoctorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid doctor ID"})
		return false
	}
	doctor, ok := h.activeDoctor(c, doctorID)
	if !ok {
		return false
	}
	p.Name = strings.TrimSpace(req.Name)
	p.NationalID = req.NationalID
	p.Phone = req.Phone
	p.Insurance = req.Insurance
	p.InsuranceNumber = req.InsuranceNumber
	p.DoctorID, p.DoctorName = doctor.ID, doctor.Name
	p.Email = req.Email
	p.Address = req.Address
	p.BirthDate = req.BirthDate
	return true
}
