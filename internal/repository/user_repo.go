package repository

import (
	"context"

	"gorm.io/gorm"

	"notice-board/internal/model"
	"notice-board/internal/policy"
)

// adminSetLockKey 管理员集合事务级咨询锁的键
// 所有会改变管理员数量的写操作在读取数量前先获取此锁，使"读数量、判定、写入"串行化
const adminSetLockKey int64 = 0x6e6f746963650001

// UserRepository 账号数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	// CountByRole 统计指定角色的账号数，excludeID 非空时排除该账号
	CountByRole(ctx context.Context, role policy.Role, excludeID string) (int64, error)
	UpdateRole(ctx context.Context, id string, role policy.Role) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	Delete(ctx context.Context, id string) error
	// LockAdminSet 获取管理员集合锁，必须在事务连接上调用（通过 Repository.WithTx 注入），事务结束时自动释放
	LockAdminSet(ctx context.Context) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) CountByRole(ctx context.Context, role policy.Role, excludeID string) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", role)
	if excludeID != "" {
		q = q.Where("user_id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *userRepo) UpdateRole(ctx context.Context, id string, role policy.Role) error {
	return r.updateColumn(ctx, id, "role", role)
}

func (r *userRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.updateColumn(ctx, id, "password_hash", passwordHash)
}

func (r *userRepo) updateColumn(ctx context.Context, id, column string, value interface{}) error {
	if !validID(id) {
		return gorm.ErrRecordNotFound
	}
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			column:       value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return gorm.ErrRecordNotFound
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) LockAdminSet(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", adminSetLockKey).Error
}
