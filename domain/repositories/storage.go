package repositories

import (
	"context"

	"github.com/tesslabs/tess/domain/entities"
)

// InterviewRepository defines data access for interview descriptors and
// persisted interview records.
type InterviewRepository interface {
	CreateInterview(ctx context.Context, interview *entities.Interview) error
	GetInterview(ctx context.Context, id string) (*entities.Interview, error)

	SaveRecord(ctx context.Context, record *entities.InterviewRecord) error
	ListRecords(ctx context.Context) ([]*entities.InterviewRecord, error)
}
