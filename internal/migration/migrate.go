package migration

import (
	"github.com/huddlechat/huddle-backend/internal/domain"
	"gorm.io/gorm"
)

// Models lists every table owned by the chat service, in dependency order
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Workspace{},
		&domain.Member{},
		&domain.Channel{},
		&domain.Conversation{},
		&domain.Message{},
		&domain.Reaction{},
		&domain.ReactionSummary{},
	}
}

// Run executes AutoMigrate for the chat tables.
// Existing tables are altered in place; unique and scope indexes come from the model tags.
func Run(db *gorm.DB) error {
	// 1. AutoMigrate - 테이블 없으면 생성, 있으면 컬럼/인덱스만 보강
	return db.AutoMigrate(Models()...)
}
