package repository

import (
	"context"
	"errors"
	"time"

	"github.com/huddlechat/huddle-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository reaction data access interface
type ReactionRepository interface {
	// Toggle removes the member's reaction with the value if present, otherwise adds it.
	// The (message, value) summary is recomputed in the same transaction.
	Toggle(ctx context.Context, reaction *domain.Reaction) (id uint64, removed bool, err error)
	// SummariesFor returns the aggregated reactions per message, in first-seen order
	SummariesFor(ctx context.Context, messageIDs []uint64) (map[uint64][]domain.ReactionView, error)
	// ListByMessage returns the reaction rows of a message, oldest first
	ListByMessage(ctx context.Context, messageID uint64) ([]domain.Reaction, error)
	// RebuildSummaries drops every summary and recomputes it from the reaction rows
	RebuildSummaries(ctx context.Context) (int, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Toggle(ctx context.Context, reaction *domain.Reaction) (uint64, bool, error) {
	var (
		id      uint64
		removed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Reaction
		err := tx.Where("message_id = ? AND member_id = ? AND value = ?",
			reaction.MessageID, reaction.MemberID, reaction.Value).
			Take(&existing).Error

		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			id, removed = existing.ID, true
		case errors.Is(err, gorm.ErrRecordNotFound):
			reaction.CreatedAt = time.Now()
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(reaction).Error; err != nil {
				return err
			}
			id = reaction.ID
			if id == 0 {
				// a concurrent toggle inserted the same row first
				if err := tx.Where("message_id = ? AND member_id = ? AND value = ?",
					reaction.MessageID, reaction.MemberID, reaction.Value).
					Take(&existing).Error; err != nil {
					return err
				}
				id = existing.ID
			}
		default:
			return err
		}

		return recomputeSummary(tx, reaction.MessageID, reaction.Value)
	})
	if err != nil {
		return 0, false, err
	}
	return id, removed, nil
}

func (r *reactionRepository) SummariesFor(ctx context.Context, messageIDs []uint64) (map[uint64][]domain.ReactionView, error) {
	result := make(map[uint64][]domain.ReactionView, len(messageIDs))
	if len(messageIDs) == 0 {
		return result, nil
	}

	var summaries []domain.ReactionSummary
	if err := r.db.WithContext(ctx).
		Where("message_id IN ?", uniqueIDs(messageIDs)).
		Order("message_id ASC, first_reaction_id ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	for i := range summaries {
		s := &summaries[i]
		result[s.MessageID] = append(result[s.MessageID], s.View())
	}
	return result, nil
}

func (r *reactionRepository) ListByMessage(ctx context.Context, messageID uint64) ([]domain.Reaction, error) {
	reactions := []domain.Reaction{}
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Order("id ASC").Find(&reactions).Error
	return reactions, err
}

func (r *reactionRepository) RebuildSummaries(ctx context.Context) (int, error) {
	written := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.ReactionSummary{}).Error; err != nil {
			return err
		}

		var messageIDs []uint64
		if err := tx.Model(&domain.Reaction{}).Distinct("message_id").Pluck("message_id", &messageIDs).Error; err != nil {
			return err
		}

		rows := &reactionRepository{db: tx}
		for _, messageID := range messageIDs {
			reactions, err := rows.ListByMessage(ctx, messageID)
			if err != nil {
				return err
			}

			// 값별 최초 반응 id
			firstID := make(map[string]uint64)
			for _, row := range reactions {
				if _, ok := firstID[row.Value]; !ok {
					firstID[row.Value] = row.ID
				}
			}

			for _, view := range domain.AggregateReactions(reactions) {
				summary, err := domain.NewReactionSummary(messageID, firstID[view.Value], view)
				if err != nil {
					return err
				}
				if err := tx.Create(summary).Error; err != nil {
					return err
				}
				written++
			}
		}
		return nil
	})
	return written, err
}
