package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tesslabs/tess/domain/entities"
	"github.com/tesslabs/tess/domain/repositories"
)

// ErrInterviewNotFound is returned when no interview matches the given ID.
var ErrInterviewNotFound = errors.New("interview not found")

// InterviewRepository persists interview descriptors and finished interview
// records. Descriptors use their application-generated UUID as _id.
type InterviewRepository struct {
	interviews *mongo.Collection
	records    *mongo.Collection
}

var _ repositories.InterviewRepository = (*InterviewRepository)(nil)

// NewInterviewRepository creates a MongoDB interview repository.
func NewInterviewRepository(db *mongo.Database) *InterviewRepository {
	return &InterviewRepository{
		interviews: db.Collection("interviews"),
		records:    db.Collection("records"),
	}
}

// CreateInterview implements repositories.InterviewRepository
func (r *InterviewRepository) CreateInterview(ctx context.Context, iv *entities.Interview) error {
	if iv == nil {
		return errors.New("interview cannot be nil")
	}
	if iv.ID == "" {
		return errors.New("interview ID cannot be empty")
	}

	if _, err := r.interviews.InsertOne(ctx, iv); err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

// GetInterview implements repositories.InterviewRepository
func (r *InterviewRepository) GetInterview(ctx context.Context, id string) (*entities.Interview, error) {
	if id == "" {
		return nil, errors.New("interview ID cannot be empty")
	}

	var iv entities.Interview
	err := r.interviews.FindOne(ctx, bson.M{"_id": id}).Decode(&iv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInterviewNotFound
		}
		return nil, fmt.Errorf("failed to get interview %s: %w", id, err)
	}
	return &iv, nil
}

// SaveRecord implements repositories.InterviewRepository
func (r *InterviewRepository) SaveRecord(ctx context.Context, record *entities.InterviewRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.ID == "" {
		return errors.New("record ID cannot be empty")
	}

	if _, err := r.records.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to save interview record: %w", err)
	}
	return nil
}

// ListRecords implements repositories.InterviewRepository
func (r *InterviewRepository) ListRecords(ctx context.Context) ([]*entities.InterviewRecord, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.records.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list interview records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*entities.InterviewRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode interview records: %w", err)
	}
	return records, nil
}
