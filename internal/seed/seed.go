// Package seed 写入演示账号与公告，可重复执行。
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"notice-board/internal/model"
	"notice-board/internal/policy"
	"notice-board/internal/repository"
)

// Notice 演示公告
type Notice struct {
	Title     string
	Content   string
	Important bool
}

// Account 演示账号；Notices 仅在账号首次创建时写入
type Account struct {
	Name     string
	Email    string
	Password string
	Role     policy.Role
	Notices  []Notice
}

// DefaultAccounts 两名管理员、一名教师、两名学生
var DefaultAccounts = []Account{
	{
		Name: "Admin User", Email: "admin@example.com", Password: "admin123", Role: policy.RoleAdmin,
		Notices: []Notice{
			{Title: "Platform Launch", Content: "We are excited to launch our new platform!", Important: true},
		},
	},
	{Name: "Second Admin", Email: "admin2@example.com", Password: "admin456", Role: policy.RoleAdmin},
	{
		Name: "Mr. Sharma", Email: "teacher@example.com", Password: "teacher123", Role: policy.RoleTeacher,
		Notices: []Notice{
			{Title: "Class Schedule Update", Content: "Class timings have changed for next week."},
			{Title: "Assignment Reminder", Content: "Submit assignments before Friday.", Important: true},
		},
	},
	{Name: "Alice Khan", Email: "student1@example.com", Password: "student123", Role: policy.RoleStudent},
	{Name: "Rahul Verma", Email: "student2@example.com", Password: "student123", Role: policy.RoleStudent},
}

// Result 执行统计
type Result struct {
	Created int
	Updated int
	Skipped int
	Notices int
}

// seeder 以系统管理员身份执行，创建管理员同样受数量上限约束
var seeder = policy.Actor{UserID: "seed", Role: policy.RoleAdmin}

// Run 按邮箱 upsert：已存在的账号只刷新密码，不存在的账号连同其公告一起创建。
// 管理员已满时跳过新的管理员账号。
func Run(ctx context.Context, repo *repository.Repository, accounts []Account, bcryptCost int, logger *zap.Logger) (*Result, error) {
	res := &Result{}

	for _, acc := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcryptCost)
		if err != nil {
			return res, fmt.Errorf("密码哈希失败 (%s): %w", acc.Email, err)
		}

		existing, err := repo.User.GetByEmail(ctx, acc.Email)
		switch {
		case err == nil:
			if err := repo.User.UpdatePassword(ctx, existing.UserID, string(hash)); err != nil {
				return res, fmt.Errorf("更新密码失败 (%s): %w", acc.Email, err)
			}
			res.Updated++
			logger.Info("账号已存在，刷新密码", zap.String("email", acc.Email))
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return res, fmt.Errorf("查询账号失败 (%s): %w", acc.Email, err)
		}

		created := 0
		err = repo.RunInTx(ctx, func(tx *repository.Repository) error {
			var adminCount int64
			if acc.Role == policy.RoleAdmin {
				if err := tx.User.LockAdminSet(ctx); err != nil {
					return err
				}
				n, err := tx.User.CountByRole(ctx, policy.RoleAdmin, "")
				if err != nil {
					return err
				}
				adminCount = n
			}
			role, decision := policy.CanCreateAccount(&seeder, acc.Role, adminCount)
			if err := decision.Err(); err != nil {
				return err
			}

			user := &model.User{Name: acc.Name, Email: acc.Email, PasswordHash: string(hash), Role: role}
			if err := tx.User.Create(ctx, user); err != nil {
				return err
			}
			for _, n := range acc.Notices {
				authorID := user.UserID
				if err := tx.Notice.Create(ctx, &model.Notice{
					Title:     n.Title,
					Content:   n.Content,
					Important: n.Important,
					AuthorID:  &authorID,
				}); err != nil {
					return err
				}
				created++
			}
			return nil
		})
		if errors.Is(err, policy.ErrAdminCeiling) {
			res.Skipped++
			logger.Warn("管理员已达上限，跳过", zap.String("email", acc.Email))
			continue
		}
		if err != nil {
			return res, fmt.Errorf("创建账号失败 (%s): %w", acc.Email, err)
		}

		res.Created++
		res.Notices += created
		logger.Info("账号已创建",
			zap.String("email", acc.Email),
			zap.String("role", acc.Role.String()),
			zap.Int("notices", created),
		)
	}

	return res, nil
}
