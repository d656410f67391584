package repository

import (
	"context"

	"frameline/model"

	"gorm.io/gorm"
)

// TrackRepository defines the interface for track data operations.
// Lookups report a missing track as (nil, nil); the engine layer decides
// whether that is an error.
type TrackRepository interface {
	Create(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id string) (*model.Track, error)
	FindByProjectAndType(ctx context.Context, projectID string, trackType model.TrackType) (*model.Track, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.Track, error)
	Delete(ctx context.Context, id string) error
}

// gormTrackRepository implements TrackRepository on GORM/MySQL.
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository creates a GORM-backed track repository.
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

func (r *gormTrackRepository) Create(ctx context.Context, track *model.Track) error {
	return r.db.WithContext(ctx).Create(track).Error
}

func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&track).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

func (r *gormTrackRepository) FindByProjectAndType(ctx context.Context, projectID string, trackType model.TrackType) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND type = ?", projectID, trackType).
		Order("created_at ASC").
		First(&track).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

func (r *gormTrackRepository) ListByProject(ctx context.Context, projectID string) ([]*model.Track, error) {
	var tracks []*model.Track
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&tracks).Error
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *gormTrackRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Track{}).Error
}
