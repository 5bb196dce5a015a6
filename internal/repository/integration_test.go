//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"notice-board/internal/model"
	"notice-board/internal/policy"
	"notice-board/internal/repository"
	"notice-board/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=notice_board_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取底层 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "执行迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func resetTables(t *testing.T) {
	t.Helper()
	if err := testDB.Exec("TRUNCATE notices, users CASCADE").Error; err != nil {
		t.Fatalf("清空数据表失败: %v", err)
	}
}

func createUser(t *testing.T, repo *repository.Repository, name string, role policy.Role) *model.User {
	t.Helper()
	u := &model.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%d@test.com", name, time.Now().UnixNano()),
		PasswordHash: "$2a$10$placeholder",
		Role:         role,
	}
	if err := repo.User.Create(context.Background(), u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return u
}

// ═══════════════════════════════════════════════════════════
// Users
// ═══════════════════════════════════════════════════════════

func TestUserRepo_CountByRole_Exclude(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	a1 := createUser(t, repo, "admin1", policy.RoleAdmin)
	createUser(t, repo, "admin2", policy.RoleAdmin)
	createUser(t, repo, "teacher", policy.RoleTeacher)

	n, err := repo.User.CountByRole(ctx, policy.RoleAdmin, "")
	if err != nil || n != 2 {
		t.Fatalf("期望 2 名管理员，实际 %d (%v)", n, err)
	}
	n, err = repo.User.CountByRole(ctx, policy.RoleAdmin, a1.UserID)
	if err != nil || n != 1 {
		t.Fatalf("排除自身后期望 1，实际 %d (%v)", n, err)
	}
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)

	u := createUser(t, repo, "dup", policy.RoleStudent)
	err := repo.User.Create(context.Background(), &model.User{
		Name: "dup2", Email: u.Email, PasswordHash: "x", Role: policy.RoleStudent,
	})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("重复邮箱应返回 gorm.ErrDuplicatedKey，实际: %v", err)
	}
}

func TestUserRepo_RoleCheckConstraint(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)

	err := repo.User.Create(context.Background(), &model.User{
		Name: "bad", Email: "bad@test.com", PasswordHash: "x", Role: policy.Role("ROOT"),
	})
	if err == nil {
		t.Fatal("非法角色应违反 CHECK 约束")
	}
}

func TestUserRepo_DeleteMissing(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)

	err := repo.User.Delete(context.Background(), "3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("删除不存在用户应返回 ErrRecordNotFound，实际 %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Admin-set lock: concurrent promotions must not exceed the ceiling
// ═══════════════════════════════════════════════════════════

func TestAdminSetLock_ConcurrentPromotions(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	admin := createUser(t, repo, "root", policy.RoleAdmin)
	actor := policy.Actor{UserID: admin.UserID, Role: policy.RoleAdmin}

	const workers = 6
	targets := make([]*model.User, workers)
	for i := range targets {
		targets[i] = createUser(t, repo, fmt.Sprintf("teacher%d", i), policy.RoleTeacher)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for _, target := range targets {
		wg.Add(1)
		go func(target *model.User) {
			defer wg.Done()
			err := repo.RunInTx(ctx, func(tx *repository.Repository) error {
				if err := tx.User.LockAdminSet(ctx); err != nil {
					return err
				}
				n, err := tx.User.CountByRole(ctx, policy.RoleAdmin, target.UserID)
				if err != nil {
					return err
				}
				if err := policy.CanChangeRole(actor, target.PolicyAccount(), policy.RoleAdmin, n).Err(); err != nil {
					return err
				}
				return tx.User.UpdateRole(ctx, target.UserID, policy.RoleAdmin)
			})
			if err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			} else if !errors.Is(err, policy.ErrAdminCeiling) {
				t.Errorf("意外错误: %v", err)
			}
		}(target)
	}
	wg.Wait()

	if allowed != 1 {
		t.Errorf("期望恰好 1 次提升成功，实际 %d", allowed)
	}
	n, _ := repo.User.CountByRole(ctx, policy.RoleAdmin, "")
	if n != policy.MaxAdmins {
		t.Errorf("期望最终管理员数量 %d，实际 %d", policy.MaxAdmins, n)
	}
}

// ═══════════════════════════════════════════════════════════
// Notices
// ═══════════════════════════════════════════════════════════

func TestNoticeRepo_ListOrderAndFilter(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	author := createUser(t, repo, "teacher", policy.RoleTeacher)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		n := &model.Notice{
			Title:     fmt.Sprintf("n%d", i),
			Content:   "c",
			AuthorID:  &author.UserID,
			CreatedAt: base.AddDate(0, 0, i),
		}
		if err := repo.Notice.Create(ctx, n); err != nil {
			t.Fatalf("创建公告失败: %v", err)
		}
	}

	all, err := repo.Notice.List(ctx, nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("期望 3 条公告，实际 %d (%v)", len(all), err)
	}
	if all[0].Title != "n2" || all[2].Title != "n0" {
		t.Errorf("应按创建时间倒序，实际 %s..%s", all[0].Title, all[2].Title)
	}
	if all[0].AuthorName() != "teacher" {
		t.Errorf("应预加载作者，实际 %q", all[0].AuthorName())
	}

	start := base.AddDate(0, 0, 1)
	end := base.AddDate(0, 0, 1)
	filtered, err := repo.Notice.List(ctx, &repository.NoticeListFilters{StartDate: &start, EndDate: &end})
	if err != nil || len(filtered) != 1 || filtered[0].Title != "n1" {
		t.Errorf("闭区间过滤应只返回 n1，实际 %d 条 (%v)", len(filtered), err)
	}
}

func TestNoticeRepo_OrphanedAfterAuthorDelete(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	author := createUser(t, repo, "teacher", policy.RoleTeacher)
	n := &model.Notice{Title: "t", Content: "c", AuthorID: &author.UserID}
	if err := repo.Notice.Create(ctx, n); err != nil {
		t.Fatalf("创建公告失败: %v", err)
	}
	if err := repo.User.Delete(ctx, author.UserID); err != nil {
		t.Fatalf("删除作者失败: %v", err)
	}

	got, err := repo.Notice.GetByID(ctx, n.NoticeID)
	if err != nil {
		t.Fatalf("作者删除后公告应保留: %v", err)
	}
	if got.AuthorID != nil || got.AuthorName() != "" {
		t.Errorf("作者应被置空，实际 %v", got.AuthorID)
	}
}

func TestNoticeRepo_CreateWithMissingAuthor(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)

	missing := "00000000-0000-0000-0000-000000000001"
	err := repo.Notice.Create(context.Background(), &model.Notice{Title: "t", Content: "c", AuthorID: &missing})
	if !errors.Is(err, gorm.ErrForeignKeyViolated) {
		t.Fatalf("作者不存在应返回 gorm.ErrForeignKeyViolated，实际: %v", err)
	}
}

func TestRunMigrations_Rerun(t *testing.T) {
	sqlDB, err := testDB.DB()
	if err != nil {
		t.Fatalf("获取底层 sql.DB 失败: %v", err)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		t.Fatalf("已是最新版本时重复执行不应报错: %v", err)
	}
	var version int
	if err := testDB.Raw("SELECT version FROM schema_migrations").Scan(&version).Error; err != nil {
		t.Fatalf("读取迁移版本失败: %v", err)
	}
	if version != 1 {
		t.Errorf("迁移版本应为 1，实际: %d", version)
	}
}
