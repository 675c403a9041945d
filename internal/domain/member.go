package domain

import "time"

// Role is a member's role inside one workspace
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Member is a user's identity-plus-role within one workspace.
// (workspace_id, user_id) is unique.
type Member struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	WorkspaceID uint64    `gorm:"column:workspace_id;uniqueIndex:idx_members_workspace_user,priority:1;index" json:"workspace_id"`
	UserID      uint64    `gorm:"column:user_id;uniqueIndex:idx_members_workspace_user,priority:2;index" json:"user_id"`
	Role        Role      `gorm:"column:role;size:16;not null" json:"role"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Member) TableName() string { return "members" }

// IsAdmin reports whether the member holds the admin role
func (m *Member) IsAdmin() bool {
	return m != nil && m.Role == RoleAdmin
}

// MemberWithUser is a member joined with its user profile
type MemberWithUser struct {
	Member
	User User `json:"user"`
}
