package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"notice-board/internal/model"
	"notice-board/internal/policy"
	"notice-board/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users   map[string]*model.User // key: user_id
	seq     int
	clock   time.Time
	notices *mockNoticeRepo // 删除用户时模拟 ON DELETE SET NULL
	locks   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users: make(map[string]*model.User),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockUserRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = m.tick()
		user.UpdatedAt = user.CreatedAt
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	result := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role policy.Role, excludeID string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Role == role && u.UserID != excludeID {
			n++
		}
	}
	return n, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id string, role policy.Role) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	if m.notices != nil {
		for _, n := range m.notices.notices {
			if n.AuthorID != nil && *n.AuthorID == id {
				n.AuthorID = nil
			}
		}
	}
	return nil
}

func (m *mockUserRepo) LockAdminSet(_ context.Context) error {
	m.locks++
	return nil
}

func (m *mockUserRepo) addUser(id, name, email string, role policy.Role) *model.User {
	u := &model.User{UserID: id, Name: name, Email: email, Role: role}
	_ = m.Create(context.Background(), u)
	return u
}

// ── Mock NoticeRepository ──

type mockNoticeRepo struct {
	notices map[string]*model.Notice
	users   *mockUserRepo
	seq     int
	clock     time.Time
	listErr   error
	createErr error
}

func newMockNoticeRepo(users *mockUserRepo) *mockNoticeRepo {
	return &mockNoticeRepo{
		notices: make(map[string]*model.Notice),
		users:   users,
		clock:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockNoticeRepo) Create(_ context.Context, notice *model.Notice) error {
	if m.createErr != nil {
		return m.createErr
	}
	if notice.NoticeID == "" {
		m.seq++
		notice.NoticeID = fmt.Sprintf("notice-%d", m.seq)
	}
	if notice.CreatedAt.IsZero() {
		m.clock = m.clock.Add(time.Hour)
		notice.CreatedAt = m.clock
	}
	cp := *notice
	cp.Author = nil
	m.notices[notice.NoticeID] = &cp
	return nil
}

// withAuthor 模拟 Preload("Author")
func (m *mockNoticeRepo) withAuthor(n *model.Notice) model.Notice {
	cp := *n
	cp.Author = nil
	if cp.AuthorID != nil {
		if u, ok := m.users.users[*cp.AuthorID]; ok {
			author := *u
			cp.Author = &author
		}
	}
	return cp
}

func (m *mockNoticeRepo) GetByID(_ context.Context, id string) (*model.Notice, error) {
	n, ok := m.notices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withAuthor(n)
	return &cp, nil
}

func (m *mockNoticeRepo) List(_ context.Context, filters *repository.NoticeListFilters) ([]model.Notice, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]model.Notice, 0, len(m.notices))
	for _, n := range m.notices {
		if filters != nil {
			if filters.StartDate != nil && n.CreatedAt.Before(*filters.StartDate) {
				continue
			}
			if filters.EndDate != nil && n.CreatedAt.After(*filters.EndDate) {
				continue
			}
		}
		result = append(result, m.withAuthor(n))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockNoticeRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.notices[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.notices, id)
	return nil
}

func (m *mockNoticeRepo) addNotice(id, title string, authorID string, important bool, at time.Time) *model.Notice {
	n := &model.Notice{NoticeID: id, Title: title, Content: title + " 正文", Important: important, CreatedAt: at}
	if authorID != "" {
		a := authorID
		n.AuthorID = &a
	}
	_ = m.Create(context.Background(), n)
	return n
}

// ── 测试辅助 ──

func newMockRepository() (*repository.Repository, *mockUserRepo, *mockNoticeRepo) {
	users := newMockUserRepo()
	notices := newMockNoticeRepo(users)
	users.notices = notices
	return &repository.Repository{User: users, Notice: notices}, users, notices
}

// mockBlacklist 记录被拉黑的 jti
type mockBlacklist struct {
	entries map[string]time.Duration
	err     error
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{entries: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.entries[jti] = ttl
	return nil
}
