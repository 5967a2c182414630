package repository

import (
	"context"
	"time"

	"github.com/lshigami/skillcheck/internal/model"
	"gorm.io/gorm"
)

type InviteRepository interface {
	WithTx(tx *gorm.DB) InviteRepository
	Create(ctx context.Context, invite *model.Invite) error
	FindByID(ctx context.Context, id string) (*model.Invite, error)
	FindByToken(ctx context.Context, token string) (*model.Invite, error)
	FindActiveByKey(ctx context.Context, key string) (*model.Invite, error)
	Transition(ctx context.Context, id string, from, to model.InviteStatus, fields map[string]any) (bool, error)
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]model.Invite, error)
	ExistsForTemplate(ctx context.Context, templateID string) (bool, error)
}

type inviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) WithTx(tx *gorm.DB) InviteRepository {
	return &inviteRepository{db: tx}
}

func (r *inviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *inviteRepository) FindByID(ctx context.Context, id string) (*model.Invite, error) {
	var invite model.Invite
	if err := r.db.WithContext(ctx).First(&invite, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &invite, nil
}

func (r *inviteRepository) FindByToken(ctx context.Context, token string) (*model.Invite, error) {
	var invite model.Invite
	if err := r.db.WithContext(ctx).First(&invite, "token = ?", token).Error; err != nil {
		return nil, notFound(err)
	}
	return &invite, nil
}

// FindActiveByKey returns the PENDING or STARTED invite holding key.
func (r *inviteRepository) FindActiveByKey(ctx context.Context, key string) (*model.Invite, error) {
	var invite model.Invite
	if err := r.db.WithContext(ctx).First(&invite, "active_key = ?", key).Error; err != nil {
		return nil, notFound(err)
	}
	return &invite, nil
}

// Transition moves the invite from one status to another, applying extra column updates
// in the same statement. It reports false when the invite was no longer in status from.
// Terminal targets release the active key.
func (r *inviteRepository) Transition(ctx context.Context, id string, from, to model.InviteStatus, fields map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	if to.Terminal() {
		updates["active_key"] = nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Invite{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *inviteRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]model.Invite, error) {
	var invites []model.Invite
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", model.InvitePending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&invites).Error
	return invites, err
}

func (r *inviteRepository) ExistsForTemplate(ctx context.Context, templateID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Invite{}).
		Where("template_id = ?", templateID).
		Count(&count).Error
	return count > 0, err
}
