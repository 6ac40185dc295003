package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/clinic-agenda/internal/models"
)

const (
	appointmentsColl = "appointments"
	patientsColl     = "patients"
	usersColl        = "users"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects, pings, and ensures indexes.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	_, err = s.db.Collection(appointmentsColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: 1}, {Key: "doctorId", Value: 1}, {Key: "time", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("appointments date index: %w", err)
	}
	_, err = s.db.Collection(patientsColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "doctorId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("patients doctor index: %w", err)
	}
	return nil
}

func (s *MongoStore) ListAppointments(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	filter := bson.M{}
	if f.Date != "" {
		filter["date"] = f.Date
	}
	if !f.DoctorID.IsZero() {
		filter["doctorId"] = f.DoctorID
	}
	if !f.PatientID.IsZero() {
		filter["patientId"] = f.PatientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "time", Value: 1},
		{Key: "createdAt", Value: 1},
	})
	cursor, err := s.db.Collection(appointmentsColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := make([]models.Appointment, 0)
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	return appointments, nil
}

func (s *MongoStore) GetAppointment(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var a models.Appointment
	err := s.db.Collection(appointmentsColl).FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		return nil, mongoErr("get appointment", err)
	}
	return &a, nil
}

func (s *MongoStore) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	stamp(&a.CreatedAt, &a.UpdatedAt)
	_, err := s.db.Collection(appointmentsColl).InsertOne(ctx, a)
	return mongoErr("insert appointment", err)
}

func (s *MongoStore) UpdateAppointment(ctx context.Context, a *models.Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := s.db.Collection(appointmentsColl).UpdateOne(ctx, bson.M{"_id": a.ID}, bson.M{"$set": bson.M{
		"date":            a.Date,
		"time":            a.Time,
		"patientId":       a.PatientID,
		"patientName":     a.PatientName,
		"doctorId":        a.DoctorID,
		"doctorName":      a.DoctorName,
		"durationMinutes": a.DurationMinutes,
		"status":          a.Status,
		"updatedAt":       a.UpdatedAt,
	}})
	if err != nil {
		return mongoErr("update appointment", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAppointment(ctx context.Context, id primitive.ObjectID) error {
	return s.deleteOne(ctx, appointmentsColl, id)
}

func (s *MongoStore) ListPatients(ctx context.Context, f PatientFilter) ([]models.Patient, error) {
	filter := bson.M{}
	if !f.DoctorID.IsZero() {
		filter["doctorId"] = f.DoctorID
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.db.Collection(patientsColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find patients: %w", err)
	}
	defer cursor.Close(ctx)

	patients := make([]models.Patient, 0)
	if err := cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}
	return patients, nil
}

func (s *MongoStore) GetPatient(ctx context.Context, id primitive.ObjectID) (*models.Patient, error) {
	var p models.Patient
	err := s.db.Collection(patientsColl).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		return nil, mongoErr("get patient", err)
	}
	if p.MedicalHistory == nil {
		p.MedicalHistory = []models.MedicalRecord{}
	}
	return &p, nil
}

func (s *MongoStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.MedicalHistory == nil {
		p.MedicalHistory = []models.MedicalRecord{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Collection(patientsColl).InsertOne(ctx, p)
	return mongoErr("insert patient", err)
}

func (s *MongoStore) UpdatePatient(ctx context.Context, p *models.Patient) error {
	res, err := s.db.Collection(patientsColl).UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":            p.Name,
		"nationalId":      p.NationalID,
		"phone":           p.Phone,
		"insurance":       p.Insurance,
		"insuranceNumber": p.InsuranceNumber,
		"doctorId":        p.DoctorID,
		"doctorName":      p.DoctorName,
		"email":           p.Email,
		"address":         p.Address,
		"birthDate":       p.BirthDate,
	}})
	if err != nil {
		return mongoErr("update patient", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeletePatient(ctx context.Context, id primitive.ObjectID) error {
	return s.deleteOne(ctx, patientsColl, id)
}

func (s *MongoStore) AddMedicalRecord(ctx context.Context, patientID primitive.ObjectID, rec models.MedicalRecord) error {
	res, err := s.db.Collection(patientsColl).UpdateOne(ctx,
		bson.M{"_id": patientID},
		bson.M{"$push": bson.M{"medicalHistory": rec}},
	)
	if err != nil {
		return mongoErr("add medical record", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.db.Collection(usersColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.db.Collection(usersColl).FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mongoErr("get user", err)
	}
	return &u, nil
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.Collection(usersColl).FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mongoErr("get user by email", err)
	}
	return &u, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Collection(usersColl).InsertOne(ctx, u)
	return mongoErr("insert user", err)
}

func (s *MongoStore) UpdateUser(ctx context.Context, u *models.User) error {
	set := bson.M{
		"name":   u.Name,
		"email":  u.Email,
		"role":   u.Role,
		"status": u.Status,
	}
	if u.Password != "" {
		set["password"] = u.Password
	}
	res, err := s.db.Collection(usersColl).UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": set})
	if err != nil {
		return mongoErr("update user", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return s.deleteOne(ctx, usersColl, id)
}

func (s *MongoStore) TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := s.db.Collection(usersColl).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at.UTC()}})
	if err != nil {
		return mongoErr("touch last login", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) deleteOne(ctx context.Context, coll string, id primitive.ObjectID) error {
	res, err := s.db.Collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoErr("delete from "+coll, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mongoErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}
