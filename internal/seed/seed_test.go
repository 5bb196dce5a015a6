package seed

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"notice-board/internal/model"
	"notice-board/internal/policy"
	"notice-board/internal/repository"
)

// ── Mock Repositories ──

type mockUserRepo struct {
	users map[string]*model.User // key: email
	seq   int
}

func (m *mockUserRepo) Create(_ context.Context, u *model.User) error {
	if _, ok := m.users[u.Email]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.seq++
	u.UserID = fmt.Sprintf("user-%d", m.seq)
	m.users[u.Email] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range m.users {
		if u.UserID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) { return nil, nil }

func (m *mockUserRepo) CountByRole(_ context.Context, role policy.Role, excludeID string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Role == role && u.UserID != excludeID {
			n++
		}
	}
	return n, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, _ string, _ policy.Role) error { return nil }

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id string, hash string) error {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, _ string) error { return nil }
func (m *mockUserRepo) LockAdminSet(_ context.Context) error     { return nil }

type mockNoticeRepo struct {
	notices []*model.Notice
}

func (m *mockNoticeRepo) Create(_ context.Context, n *model.Notice) error {
	m.notices = append(m.notices, n)
	return nil
}
func (m *mockNoticeRepo) GetByID(_ context.Context, _ string) (*model.Notice, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockNoticeRepo) List(_ context.Context, _ *repository.NoticeListFilters) ([]model.Notice, error) {
	return nil, nil
}
func (m *mockNoticeRepo) Delete(_ context.Context, _ string) error { return nil }

func setup() (*repository.Repository, *mockUserRepo, *mockNoticeRepo) {
	users := &mockUserRepo{users: make(map[string]*model.User)}
	notices := &mockNoticeRepo{}
	return &repository.Repository{User: users, Notice: notices}, users, notices
}

// ── Run 测试 ──

func TestRun_FreshDatabase(t *testing.T) {
	repo, users, notices := setup()

	res, err := Run(context.Background(), repo, DefaultAccounts, bcrypt.MinCost, zap.NewNop())
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if res.Created != 5 || res.Notices != 3 {
		t.Errorf("期望创建 5 个账号、3 条公告，实际: %+v", res)
	}
	if n, _ := users.CountByRole(context.Background(), policy.RoleAdmin, ""); n != 2 {
		t.Errorf("期望 2 名管理员，实际 %d", n)
	}
	teacher := users.users["teacher@example.com"]
	for _, n := range notices.notices {
		if n.Title == "Assignment Reminder" && (n.AuthorID == nil || *n.AuthorID != teacher.UserID || !n.Important) {
			t.Errorf("教师公告作者或重要标记不正确: %+v", n)
		}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte("teacher123")); err != nil {
		t.Error("教师密码哈希不匹配")
	}
}

func TestRun_Idempotent(t *testing.T) {
	repo, users, notices := setup()
	ctx := context.Background()

	if _, err := Run(ctx, repo, DefaultAccounts, bcrypt.MinCost, zap.NewNop()); err != nil {
		t.Fatalf("首次 Run 失败: %v", err)
	}
	before := users.users["admin@example.com"].PasswordHash

	res, err := Run(ctx, repo, DefaultAccounts, bcrypt.MinCost, zap.NewNop())
	if err != nil {
		t.Fatalf("再次 Run 失败: %v", err)
	}
	if res.Created != 0 || res.Updated != 5 {
		t.Errorf("再次执行应只刷新密码，实际: %+v", res)
	}
	if len(notices.notices) != 3 {
		t.Errorf("公告不应重复写入，实际 %d 条", len(notices.notices))
	}
	if users.users["admin@example.com"].PasswordHash == before {
		t.Error("密码哈希应被刷新")
	}
}

func TestRun_RespectsAdminCeiling(t *testing.T) {
	repo, users, _ := setup()
	ctx := context.Background()
	users.Create(ctx, &model.User{Email: "x@example.com", Role: policy.RoleAdmin})
	users.Create(ctx, &model.User{Email: "y@example.com", Role: policy.RoleAdmin})

	res, err := Run(ctx, repo, DefaultAccounts, bcrypt.MinCost, zap.NewNop())
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if res.Skipped != 2 {
		t.Errorf("管理员已满时应跳过 2 个管理员账号，实际: %+v", res)
	}
	if n, _ := users.CountByRole(ctx, policy.RoleAdmin, ""); n != 2 {
		t.Errorf("管理员数量应保持 2，实际 %d", n)
	}
}
