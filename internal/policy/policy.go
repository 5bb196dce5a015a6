// Package policy 账号与公告的访问控制策略。
//
// 所有判定函数都是纯函数：不做 I/O、不持有状态，可被任意并发调用。
// 依赖存储的聚合值（管理员数量）由调用方传入，且必须与随后的写操作处于同一事务、
// 并持有管理员集合锁，否则并发请求可能同时通过判定而破坏 1~2 名管理员的不变量。
package policy

const (
	// MaxAdmins 管理员数量上限
	MaxAdmins = 2
	// MinAdmins 管理员数量下限（存在过管理员之后）
	MinAdmins = 1
)

// Actor 已认证的请求方
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin 是否为管理员
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Account 策略所需的账号视图
type Account struct {
	ID   string
	Role Role
}

// Notice 策略所需的公告视图
type Notice struct {
	ID       string
	AuthorID string
}

// CanCreateAccount 判定账号创建。
// actor 为 nil 表示自助注册：角色强制为 STUDENT，始终允许（邮箱唯一性由调用方检查）。
// 返回值中的 Role 为实际应写入的角色。
func CanCreateAccount(actor *Actor, requested Role, adminCount int64) (Role, Decision) {
	if actor == nil {
		return RoleStudent, Allow()
	}
	if !actor.IsAdmin() {
		return requested, Deny(ReasonInsufficientRole)
	}

	switch requested {
	case RoleStudent, RoleTeacher:
		return requested, Allow()
	case RoleAdmin:
		if adminCount >= MaxAdmins {
			return requested, Deny(ReasonAdminCeiling)
		}
		return requested, Allow()
	default:
		return requested, Deny(ReasonInvalidRole)
	}
}

// CanChangeRole 判定角色变更。
// adminCountExcludingTarget 为不含目标账号在内的管理员数量，
// 因此将现有管理员"再次设为"管理员不会被自身占用的名额阻塞。
// 将管理员降级且其余管理员数量不足下限时拒绝。
func CanChangeRole(actor Actor, target Account, requested Role, adminCountExcludingTarget int64) Decision {
	if !actor.IsAdmin() {
		return Deny(ReasonInsufficientRole)
	}

	switch requested {
	case RoleAdmin:
		if adminCountExcludingTarget >= MaxAdmins {
			return Deny(ReasonAdminCeiling)
		}
		return Allow()
	case RoleTeacher, RoleStudent:
		if target.Role == RoleAdmin && adminCountExcludingTarget < MinAdmins {
			return Deny(ReasonLastAdmin)
		}
		return Allow()
	default:
		return Deny(ReasonInvalidRole)
	}
}

// CanDeleteAccount 判定账号删除。管理员在仍有其他管理员时可以删除自己。
func CanDeleteAccount(actor Actor, target Account, adminCount int64) Decision {
	if !actor.IsAdmin() {
		return Deny(ReasonInsufficientRole)
	}
	if target.Role == RoleAdmin && adminCount <= MinAdmins {
		return Deny(ReasonLastAdmin)
	}
	return Allow()
}

// CanCreateNotice 仅教师与管理员可发布公告
func CanCreateNotice(actor Actor) Decision {
	switch actor.Role {
	case RoleTeacher, RoleAdmin:
		return Allow()
	default:
		return Deny(ReasonInsufficientRole)
	}
}

// CanDeleteNotice 管理员可删除任意公告，其他角色仅可删除自己发布的公告
func CanDeleteNotice(actor Actor, notice Notice) Decision {
	if actor.IsAdmin() {
		return Allow()
	}
	if notice.AuthorID != "" && notice.AuthorID == actor.UserID {
		return Allow()
	}
	return Deny(ReasonNotAuthorized)
}
