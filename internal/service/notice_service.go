package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"notice-board/internal/dto"
	"notice-board/internal/model"
	"notice-board/internal/policy"
	"notice-board/internal/repository"
)

// ── 公告模块业务错误 ──

var (
	ErrNoticeNotFound       = errors.New("公告不存在")
	ErrNoticeFieldsRequired = errors.New("标题和内容不能为空")
	ErrInvalidDate          = errors.New("日期格式无效")
	ErrInvalidDateRange     = errors.New("开始日期不能晚于结束日期")
	ErrNoticeTitleTooLong   = errors.New("标题不能超过 200 个字符")
)

// maxNoticeTitleLen 与 notices.title 列宽 VARCHAR(200) 一致，按字符计
const maxNoticeTitleLen = 200

// NoticeService 公告业务接口
type NoticeService interface {
	List(ctx context.Context, req *dto.NoticeListRequest) ([]dto.NoticeResponse, error)
	Create(ctx context.Context, actor policy.Actor, req *dto.CreateNoticeRequest) (*dto.NoticeResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

type noticeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNoticeService 创建 NoticeService 实例
func NewNoticeService(repo *repository.Repository, logger *zap.Logger) NoticeService {
	return &noticeService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *noticeService) List(ctx context.Context, req *dto.NoticeListRequest) ([]dto.NoticeResponse, error) {
	filters, err := parseNoticeFilters(req)
	if err != nil {
		return nil, err
	}

	notices, err := s.repo.Notice.List(ctx, filters)
	if err != nil {
		s.logger.Error("列出公告失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.NoticeResponse, 0, len(notices))
	for i := range notices {
		result = append(result, *toNoticeResponse(&notices[i]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *noticeService) Create(ctx context.Context, actor policy.Actor, req *dto.CreateNoticeRequest) (*dto.NoticeResponse, error) {
	if err := policy.CanCreateNotice(actor).Err(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, ErrNoticeFieldsRequired
	}
	if utf8.RuneCountInString(title) > maxNoticeTitleLen {
		return nil, ErrNoticeTitleTooLong
	}

	// 作者必须在创建时仍然存在（Token 有效期内账号可能已被删除）
	author, err := s.repo.User.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询作者失败", zap.String("author", actor.UserID), zap.Error(err))
		return nil, err
	}

	notice := &model.Notice{
		Title:     title,
		Content:   content,
		Important: req.Important,
		AuthorID:  &author.UserID,
	}
	if err := s.repo.Notice.Create(ctx, notice); err != nil {
		// 查询作者与插入之间账号被删除
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("创建公告失败", zap.String("author", actor.UserID), zap.Error(err))
		return nil, err
	}
	notice.Author = author

	return toNoticeResponse(notice), nil
}

// ────────────────────── Delete ──────────────────────

func (s *noticeService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	notice, err := s.repo.Notice.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoticeNotFound
		}
		s.logger.Error("查询公告失败", zap.String("id", id), zap.Error(err))
		return err
	}

	decision := policy.CanDeleteNotice(actor, notice.PolicyNotice())
	if err := decision.Err(); err != nil {
		s.logger.Info("删除公告被拒绝",
			zap.String("actor", actor.UserID),
			zap.String("notice", id),
			zap.String("reason", decision.Reason().String()),
		)
		return err
	}

	if err := s.repo.Notice.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoticeNotFound
		}
		s.logger.Error("删除公告失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

const dateOnly = "2006-01-02"

// parseNoticeFilters 解析日期区间：支持 RFC3339 与 YYYY-MM-DD（UTC）。
// 仅给出日期的 endDate 视为当天结束，使区间对整天闭合。
func parseNoticeFilters(req *dto.NoticeListRequest) (*repository.NoticeListFilters, error) {
	filters := &repository.NoticeListFilters{}
	if req == nil {
		return filters, nil
	}

	if req.StartDate != "" {
		t, _, err := parseDate(req.StartDate)
		if err != nil {
			return nil, err
		}
		filters.StartDate = &t
	}
	if req.EndDate != "" {
		t, dayOnly, err := parseDate(req.EndDate)
		if err != nil {
			return nil, err
		}
		if dayOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filters.EndDate = &t
	}

	if filters.StartDate != nil && filters.EndDate != nil && filters.StartDate.After(*filters.EndDate) {
		return nil, ErrInvalidDateRange
	}
	return filters, nil
}

func parseDate(s string) (t time.Time, dayOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, ErrInvalidDate
}

func toNoticeResponse(n *model.Notice) *dto.NoticeResponse {
	resp := &dto.NoticeResponse{
		ID:         n.NoticeID,
		Title:      n.Title,
		Content:    n.Content,
		Important:  n.Important,
		CreatedAt:  n.CreatedAt,
		AuthorName: n.AuthorName(),
	}
	if n.AuthorID != nil {
		resp.AuthorID = *n.AuthorID
	}
	return resp
}
