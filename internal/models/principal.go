package models

// PositionHeadTeacher is the position name granting school wide teacher permissions.
const PositionHeadTeacher = "Завуч"

// Principal is the authenticated caller resolved by the authorization layer. Services take it to
// apply role and position rules, whatever the transport. RoleID is the business number from the
// role table (student_id, teacher_id or admin_id).
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	RoleID   int64  `json:"role_id"`
	ClassID  *int64 `json:"class_id,omitempty"`
	Position string `json:"position,omitempty"`
}

// IsHeadTeacher reports whether the principal is a teacher holding the head teacher position.
func (p *Principal) IsHeadTeacher() bool {
	return p != nil && p.Role == RoleTeacher && p.Position == PositionHeadTeacher
}

// Is reports whether the principal carries role.
func (p *Principal) Is(role Role) bool {
	return p != nil && p.Role == role
}
