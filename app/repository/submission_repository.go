package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/symphonyguild/guildsite/app/models"
	"github.com/symphonyguild/guildsite/internal/pkg/membership"
	"github.com/symphonyguild/guildsite/internal/pkg/submission"
)

// SubmissionRepository persists membership submissions in MySQL.
type SubmissionRepository struct {
	db *gorm.DB
}

var _ submission.Store = (*SubmissionRepository)(nil)

// NewSubmissionRepository creates a new submission repository instance
func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Save inserts a submission row.
func (r *SubmissionRepository) Save(ctx context.Context, sub membership.Submission) error {
	if err := r.db.WithContext(ctx).Create(models.NewMembershipSubmission(sub)).Error; err != nil {
		return fmt.Errorf("insert submission %s: %w", sub.ID, err)
	}
	return nil
}

// Get retrieves a submission by its public id
func (r *SubmissionRepository) Get(ctx context.Context, id string) (membership.Submission, error) {
	var row models.MembershipSubmission
	err := r.db.WithContext(ctx).Where("submission_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return membership.Submission{}, fmt.Errorf("%w: %s", submission.ErrNotFound, id)
	}
	if err != nil {
		return membership.Submission{}, err
	}
	return row.ToSubmission(), nil
}
