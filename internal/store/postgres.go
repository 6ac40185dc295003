package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-agenda/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore keeps ObjectIDs as their hex text so ids look the same
// whichever backend is configured.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a pool, pings, and applies the embedded schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for _, e := range entries {
		sql, err := migrations.ReadFile("migrations/" + e.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", e.Name(), err)
		}
	}
	return nil
}

const appointmentCols = `id, date, time, patient_id, patient_name, doctor_id, doctor_name,
	duration_minutes, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (models.Appointment, error) {
	var (
		a                   models.Appointment
		id, patient, doctor string
		status              string
	)
	err := row.Scan(&id, &a.Date, &a.Time, &patient, &a.PatientName, &doctor, &a.DoctorName,
		&a.DurationMinutes, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	a.ID, a.PatientID, a.DoctorID = oid(id), oid(patient), oid(doctor)
	a.Status = models.AppointmentStatus(status)
	return a, nil
}

func (s *PostgresStore) ListAppointments(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	q := `SELECT ` + appointmentCols + ` FROM appointments WHERE TRUE`
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		q += " AND " + cond + " = $" + strconv.Itoa(len(args))
	}
	if f.Date != "" {
		add("date", f.Date)
	}
	if !f.DoctorID.IsZero() {
		add("doctor_id", f.DoctorID.Hex())
	}
	if !f.PatientID.IsZero() {
		add("patient_id", f.PatientID.Hex())
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}
	q += ` ORDER BY date, time, created_at`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	out := []models.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetAppointment(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id.Hex())
	a, err := scanAppointment(row)
	if err != nil {
		return nil, pgErr("get appointment", err)
	}
	return &a, nil
}

func (s *PostgresStore) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	stamp(&a.CreatedAt, &a.UpdatedAt)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO appointments (`+appointmentCols+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID.Hex(), a.Date, a.Time, a.PatientID.Hex(), a.PatientName, a.DoctorID.Hex(), a.DoctorName,
		a.DurationMinutes, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	return pgErr("insert appointment", err)
}

func (s *PostgresStore) UpdateAppointment(ctx context.Context, a *models.Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET date=$1, time=$2, patient_id=$3, patient_name=$4, doctor_id=$5, doctor_name=$6,
		     duration_minutes=$7, status=$8, updated_at=$9
		 WHERE id=$10`,
		a.Date, a.Time, a.PatientID.Hex(), a.PatientName, a.DoctorID.Hex(), a.DoctorName,
		a.DurationMinutes, string(a.Status), a.UpdatedAt, a.ID.Hex(),
	)
	if err != nil {
		return pgErr("update appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAppointment(ctx context.Context, id primitive.ObjectID) error {
	return s.deleteByID(ctx, "appointments", id)
}

const patientCols = `id, name, national_id, phone, insurance, insurance_number, doctor_id,
	doctor_name, email, address, birth_date, created_at`

func scanPatient(row pgx.Row) (models.Patient, error) {
	var (
		p          models.Patient
		id, doctor string
	)
	err := row.Scan(&id, &p.Name, &p.NationalID, &p.Phone, &p.Insurance, &p.InsuranceNumber, &doctor,
		&p.DoctorName, &p.Email, &p.Address, &p.BirthDate, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	p.ID, p.DoctorID = oid(id), oid(doctor)
	p.MedicalHistory = []models.MedicalRecord{}
	return p, nil
}

func (s *PostgresStore) ListPatients(ctx context.Context, f PatientFilter) ([]models.Patient, error) {
	q := `SELECT ` + patientCols + ` FROM patients`
	var args []any
	if !f.DoctorID.IsZero() {
		q += ` WHERE doctor_id = $1`
		args = append(args, f.DoctorID.Hex())
	}
	q += ` ORDER BY name, id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	out := []models.Patient{}
	index := map[string]int{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		index[p.ID.Hex()] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	recs, err := s.pool.Query(ctx,
		`SELECT patient_id, date, diagnosis, doctor_id, doctor_name
		 FROM medical_records WHERE patient_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query medical records: %w", err)
	}
	defer recs.Close()
	for recs.Next() {
		var (
			pid, doctor string
			r           models.MedicalRecord
		)
		if err := recs.Scan(&pid, &r.Date, &r.Diagnosis, &doctor, &r.DoctorName); err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		r.DoctorID = oid(doctor)
		i := index[pid]
		out[i].MedicalHistory = append(out[i].MedicalHistory, r)
	}
	return out, recs.Err()
}

func (s *PostgresStore) GetPatient(ctx context.Context, id primitive.ObjectID) (*models.Patient, error) {
	p, err := scanPatient(s.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id.Hex()))
	if err != nil {
		return nil, pgErr("get patient", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT date, diagnosis, doctor_id, doctor_name FROM medical_records
		 WHERE patient_id = $1 ORDER BY id`, id.Hex())
	if err != nil {
		return nil, fmt.Errorf("query medical records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r      models.MedicalRecord
			doctor string
		)
		if err := rows.Scan(&r.Date, &r.Diagnosis, &doctor, &r.DoctorName); err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		r.DoctorID = oid(doctor)
		p.MedicalHistory = append(p.MedicalHistory, r)
	}
	return &p, rows.Err()
}

func (s *PostgresStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO patients (`+patientCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID.Hex(), p.Name, p.NationalID, p.Phone, p.Insurance, p.InsuranceNumber, p.DoctorID.Hex(),
		p.DoctorName, p.Email, p.Address, p.BirthDate, p.CreatedAt,
	)
	if err != nil {
		return pgErr("insert patient", err)
	}
	for _, r := range p.MedicalHistory {
		if err := insertRecord(ctx, tx, p.ID, r); err != nil {
			return err
		}
	}
	if p.MedicalHistory == nil {
		p.MedicalHistory = []models.MedicalRecord{}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) UpdatePatient(ctx context.Context, p *models.Patient) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE patients
		 SET name=$1, national_id=$2, phone=$3, insurance=$4, insurance_number=$5,
		     doctor_id=$6, doctor_name=$7, email=$8, address=$9, birth_date=$10
		 WHERE id=$11`,
		p.Name, p.NationalID, p.Phone, p.Insurance, p.InsuranceNumber,
		p.DoctorID.Hex(), p.DoctorName, p.Email, p.Address, p.BirthDate, p.ID.Hex(),
	)
	if err != nil {
		return pgErr("update patient", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeletePatient(ctx context.Context, id primitive.ObjectID) error {
	return s.deleteByID(ctx, "patients", id)
}

func (s *PostgresStore) AddMedicalRecord(ctx context.Context, patientID primitive.ObjectID, rec models.MedicalRecord) error {
	err := insertRecord(ctx, s.pool, patientID, rec)
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == "23503" { // foreign_key_violation
		return ErrNotFound
	}
	return err
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRecord(ctx context.Context, db execer, patientID primitive.ObjectID, r models.MedicalRecord) error {
	_, err := db.Exec(ctx,
		`INSERT INTO medical_records (patient_id, date, diagnosis, doctor_id, doctor_name)
		 VALUES ($1,$2,$3,$4,$5)`,
		patientID.Hex(), r.Date, r.Diagnosis, r.DoctorID.Hex(), r.DoctorName,
	)
	if err != nil {
		return fmt.Errorf("insert medical record: %w", err)
	}
	return nil
}

const userCols = `id, name, email, password, role, status, last_login, created_at`

func scanUser(row pgx.Row) (models.User, error) {
	var (
		u            models.User
		id           string
		role, status string
	)
	err := row.Scan(&id, &u.Name, &u.Email, &u.Password, &role, &status, &u.LastLogin, &u.CreatedAt)
	if err != nil {
		return u, err
	}
	u.ID = oid(id)
	u.Role, u.Status = models.Role(role), models.UserStatus(status)
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE TRUE`
	var args []any
	if f.Role != "" {
		args = append(args, string(f.Role))
		q += ` AND role = $` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		q += ` AND status = $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY name, id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id.Hex()))
	if err != nil {
		return nil, pgErr("get user", err)
	}
	return &u, nil
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, pgErr("get user by email", err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID.Hex(), u.Name, u.Email, u.Password, string(u.Role), string(u.Status), u.LastLogin, u.CreatedAt,
	)
	return pgErr("insert user", err)
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *models.User) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET name=$1, email=$2, role=$3, status=$4,
		     password = CASE WHEN $5 = '' THEN password ELSE $5 END
		 WHERE id=$6`,
		u.Name, u.Email, string(u.Role), string(u.Status), u.Password, u.ID.Hex(),
	)
	if err != nil {
		return pgErr("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return s.deleteByID(ctx, "users", id)
}

func (s *PostgresStore) TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at.UTC(), id.Hex())
	if err != nil {
		return pgErr("touch last login", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

// table is always one of the package constants, never user input
func (s *PostgresStore) deleteByID(ctx context.Context, table string, id primitive.ObjectID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id.Hex())
	if err != nil {
		return pgErr("delete from "+table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func pgErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == "23505" { // unique_violation
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

func oid(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(hex)
	return id
}
