package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"notice-board/internal/model"
)

// NoticeListFilters 公告列表过滤条件（闭区间，nil 表示不限）
type NoticeListFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// NoticeRepository 公告数据访问接口
type NoticeRepository interface {
	Create(ctx context.Context, notice *model.Notice) error
	GetByID(ctx context.Context, id string) (*model.Notice, error)
	// List 按创建时间倒序返回公告，并预加载作者
	List(ctx context.Context, filters *NoticeListFilters) ([]model.Notice, error)
	Delete(ctx context.Context, id string) error
}

type noticeRepo struct {
	db *gorm.DB
}

// NewNoticeRepo 创建 NoticeRepository 实例
func NewNoticeRepo(db *gorm.DB) NoticeRepository {
	return &noticeRepo{db: db}
}

func (r *noticeRepo) Create(ctx context.Context, notice *model.Notice) error {
	return r.db.WithContext(ctx).Create(notice).Error
}

func (r *noticeRepo) GetByID(ctx context.Context, id string) (*model.Notice, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var notice model.Notice
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("notice_id = ?", id).
		First(&notice).Error
	if err != nil {
		return nil, err
	}
	return &notice, nil
}

func (r *noticeRepo) List(ctx context.Context, filters *NoticeListFilters) ([]model.Notice, error) {
	q := r.db.WithContext(ctx).Preload("Author")
	if filters != nil {
		if filters.StartDate != nil {
			q = q.Where("created_at >= ?", *filters.StartDate)
		}
		if filters.EndDate != nil {
			q = q.Where("created_at <= ?", *filters.EndDate)
		}
	}

	var notices []model.Notice
	err := q.Order("created_at DESC").Find(&notices).Error
	return notices, err
}

func (r *noticeRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return gorm.ErrRecordNotFound
	}
	res := r.db.WithContext(ctx).
		Where("notice_id = ?", id).
		Delete(&model.Notice{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
