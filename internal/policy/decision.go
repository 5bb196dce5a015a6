package policy

import "errors"

// Reason 拒绝原因码
type Reason int

const (
	ReasonNone Reason = iota
	ReasonInsufficientRole
	ReasonAdminCeiling
	ReasonLastAdmin
	ReasonNotAuthorized
	ReasonInvalidRole
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInsufficientRole:
		return "insufficient role"
	case ReasonAdminCeiling:
		return "admin ceiling reached"
	case ReasonLastAdmin:
		return "cannot remove last admin"
	case ReasonNotAuthorized:
		return "not authorized"
	case ReasonInvalidRole:
		return "invalid role"
	default:
		return "unknown"
	}
}

// DenyError 策略拒绝对应的错误值，可用 errors.Is 与下方哨兵错误比较
type DenyError struct {
	Reason Reason
}

func (e *DenyError) Error() string { return "policy denied: " + e.Reason.String() }

// Is 按原因码比较，使不同实例的同类拒绝可被 errors.Is 匹配
func (e *DenyError) Is(target error) bool {
	var t *DenyError
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

var (
	ErrInsufficientRole = &DenyError{Reason: ReasonInsufficientRole}
	ErrAdminCeiling     = &DenyError{Reason: ReasonAdminCeiling}
	ErrLastAdmin        = &DenyError{Reason: ReasonLastAdmin}
	ErrNotAuthorized    = &DenyError{Reason: ReasonNotAuthorized}
	ErrInvalidRole      = &DenyError{Reason: ReasonInvalidRole}
)

// Decision 策略判定结果：Allow 或 Deny(reason)，不存在中间态
type Decision struct {
	allowed bool
	reason  Reason
}

// Allow 允许
func Allow() Decision { return Decision{allowed: true} }

// Deny 以指定原因拒绝
func Deny(reason Reason) Decision { return Decision{reason: reason} }

// Allowed 是否允许
func (d Decision) Allowed() bool { return d.allowed }

// Reason 拒绝原因；允许时为 ReasonNone
func (d Decision) Reason() Reason { return d.reason }

// Err 允许时返回 nil，拒绝时返回对应的 *DenyError
func (d Decision) Err() error {
	if d.allowed {
		return nil
	}
	return &DenyError{Reason: d.reason}
}

func (d Decision) String() string {
	if d.allowed {
		return "allow"
	}
	return "deny(" + d.reason.String() + ")"
}
