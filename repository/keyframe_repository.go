package repository

import (
	"context"

	"frameline/model"

	"gorm.io/gorm"
)

// KeyframeRepository defines the interface for keyframe data operations.
// ListByTrack always returns keyframes ordered by timestamp ascending.
type KeyframeRepository interface {
	Create(ctx context.Context, kf *model.Keyframe) error
	GetByID(ctx context.Context, id string) (*model.Keyframe, error)
	ListByTrack(ctx context.Context, trackID string) ([]*model.Keyframe, error)
	Update(ctx context.Context, kf *model.Keyframe) error
	Delete(ctx context.Context, id string) error
	DeleteByTrack(ctx context.Context, trackID string) error
}

// gormKeyframeRepository implements KeyframeRepository on GORM/MySQL.
type gormKeyframeRepository struct {
	db *gorm.DB
}

// NewGormKeyframeRepository creates a GORM-backed keyframe repository.
func NewGormKeyframeRepository(db *gorm.DB) KeyframeRepository {
	return &gormKeyframeRepository{db: db}
}

func (r *gormKeyframeRepository) Create(ctx context.Context, kf *model.Keyframe) error {
	return r.db.WithContext(ctx).Create(kf).Error
}

func (r *gormKeyframeRepository) GetByID(ctx context.Context, id string) (*model.Keyframe, error) {
	var kf model.Keyframe
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&kf).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &kf, nil
}

func (r *gormKeyframeRepository) ListByTrack(ctx context.Context, trackID string) ([]*model.Keyframe, error) {
	var kfs []*model.Keyframe
	err := r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("timestamp ASC").
		Find(&kfs).Error
	if err != nil {
		return nil, err
	}
	return kfs, nil
}

func (r *gormKeyframeRepository) Update(ctx context.Context, kf *model.Keyframe) error {
	return r.db.WithContext(ctx).Save(kf).Error
}

func (r *gormKeyframeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Keyframe{}).Error
}

func (r *gormKeyframeRepository) DeleteByTrack(ctx context.Context, trackID string) error {
	return r.db.WithContext(ctx).Where("track_id = ?", trackID).Delete(&model.Keyframe{}).Error
}
