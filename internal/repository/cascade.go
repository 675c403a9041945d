package repository

import (
	"github.com/huddlechat/huddle-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// deleteMessagesWhere removes the matching messages together with their
// reactions and reaction summaries. It must run inside a transaction.
func deleteMessagesWhere(tx *gorm.DB, query interface{}, args ...interface{}) error {
	ids := tx.Session(&gorm.Session{NewDB: true}).
		Model(&domain.Message{}).
		Select("id").
		Where(query, args...)

	if err := tx.Where("message_id IN (?)", ids).Delete(&domain.Reaction{}).Error; err != nil {
		return err
	}
	if err := tx.Where("message_id IN (?)", ids).Delete(&domain.ReactionSummary{}).Error; err != nil {
		return err
	}
	return tx.Where(query, args...).Delete(&domain.Message{}).Error
}

// recomputeSummary rebuilds the stored aggregate of one (message, value) pair
// from the reaction rows. No rows left means no summary row.
func recomputeSummary(tx *gorm.DB, messageID uint64, value string) error {
	var rows []domain.Reaction
	if err := tx.Where("message_id = ? AND value = ?", messageID, value).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return err
	}

	if len(rows) == 0 {
		return tx.Where("message_id = ? AND value = ?", messageID, value).
			Delete(&domain.ReactionSummary{}).Error
	}

	views := domain.AggregateReactions(rows)
	summary, err := domain.NewReactionSummary(messageID, rows[0].ID, views[0])
	if err != nil {
		return err
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "value"}},
		DoUpdates: clause.AssignmentColumns([]string{"count", "member_ids", "first_reaction_id"}),
	}).Create(summary).Error
}
