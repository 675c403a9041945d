package domain

import (
	"regexp"
	"strings"
	"time"
)

// Workspace is the top-level tenant that owns channels, members and messages
type Workspace struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:80;not null" json:"name"`
	UserID    uint64    `gorm:"column:user_id;index" json:"user_id"`
	JoinCode  string    `gorm:"column:join_code;size:16;index" json:"join_code"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Workspace) TableName() string { return "workspaces" }

// WorkspaceInfo is what a non-member may learn about a workspace before joining
type WorkspaceInfo struct {
	Name     string `json:"name"`
	IsMember bool   `json:"is_member"`
}

// Channel is a named, workspace-scoped feed
type Channel struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	WorkspaceID uint64    `gorm:"column:workspace_id;index" json:"workspace_id"`
	Name        string    `gorm:"column:name;size:80;not null" json:"name"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Channel) TableName() string { return "channels" }

var whitespaceRun = regexp.MustCompile(`\s+`)

// ChannelSlug normalizes a channel name: whitespace runs become "-", letters are lowercased
func ChannelSlug(name string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(name, "-"))
}
