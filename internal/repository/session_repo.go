package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jornada/internal/model"
)

// ErrDuplicateCode is returned by Create when a document for the code already
// exists. The unique index on code is the source of truth for the
// one-session-per-code rule; callers must treat this error as the expected
// outcome of losing a start race, not as an internal failure.
var ErrDuplicateCode = errors.New("duplicate session code")

type SessionRepo interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, session *model.WorkSession) error
	GetByCode(ctx context.Context, code string) (*model.WorkSession, error)
	GetActive(ctx context.Context, code string) (*model.WorkSession, error)
	EndActive(ctx context.Context, code string, endTime time.Time) (*model.WorkSession, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

// EnsureIndexes creates the unique index on code.
// TODO: if codes ever become reusable worker IDs, replace this with a partial
// unique index on {code, endTime: null} and key sessions by their own id.
func (r *sessionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *sessionRepo) Create(ctx context.Context, session *model.WorkSession) error {
	_, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *sessionRepo) GetByCode(ctx context.Context, code string) (*model.WorkSession, error) {
	var session model.WorkSession
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // no session for this code
		}
		return nil, err
	}

	return &session, nil
}

func (r *sessionRepo) GetActive(ctx context.Context, code string) (*model.WorkSession, error) {
	var session model.WorkSession
	err := r.collection.FindOne(ctx, bson.M{"code": code, "endTime": nil}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

// EndActive closes the open session for code in a single conditional update,
// so concurrent calls serialize in the store: only the first matches the
// endTime filter, the rest get (nil, nil). totalMs is computed against the
// stored startTime inside the update pipeline.
func (r *sessionRepo) EndActive(ctx context.Context, code string, endTime time.Time) (*model.WorkSession, error) {
	filter := bson.M{"code": code, "endTime": nil}
	update := bson.A{
		bson.M{"$set": bson.M{
			"endTime": endTime,
			"totalMs": bson.M{"$toLong": bson.M{"$subtract": bson.A{endTime, "$startTime"}}},
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session model.WorkSession
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // no open session to close
		}
		return nil, err
	}

	return &session, nil
}
