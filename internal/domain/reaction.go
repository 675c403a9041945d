package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Reaction is one member's reaction with a value on a message
type Reaction struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Value       string    `gorm:"column:value;size:64;not null;uniqueIndex:idx_reactions_unique,priority:3" json:"value"`
	WorkspaceID uint64    `gorm:"column:workspace_id;index" json:"workspace_id"`
	MemberID    uint64    `gorm:"column:member_id;index;uniqueIndex:idx_reactions_unique,priority:2" json:"member_id"`
	MessageID   uint64    `gorm:"column:message_id;index;uniqueIndex:idx_reactions_unique,priority:1" json:"message_id"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Reaction) TableName() string { return "reactions" }

// ReactionSummary is the precomputed aggregate for one (message, value) pair.
// It is rewritten in the same transaction as every reaction insert/delete.
type ReactionSummary struct {
	MessageID uint64         `gorm:"column:message_id;primaryKey;autoIncrement:false" json:"message_id"`
	Value     string         `gorm:"column:value;primaryKey;size:64" json:"value"`
	Count     int            `gorm:"column:count;not null" json:"count"`
	MemberIDs datatypes.JSON `gorm:"column:member_ids" json:"member_ids"`
	// FirstReactionID orders values by when they first appeared on the message
	FirstReactionID uint64 `gorm:"column:first_reaction_id" json:"-"`
}

func (ReactionSummary) TableName() string { return "reaction_summaries" }

// View decodes the summary into its display shape
func (s *ReactionSummary) View() ReactionView {
	ids := []uint64{}
	if len(s.MemberIDs) > 0 {
		_ = json.Unmarshal(s.MemberIDs, &ids)
	}
	return ReactionView{Value: s.Value, Count: s.Count, MemberIDs: ids}
}

// ReactionView is the display shape of one reaction value on a message
type ReactionView struct {
	Value     string   `json:"value"`
	Count     int      `json:"count"`
	MemberIDs []uint64 `json:"member_ids"`
}

// AggregateReactions groups rows by value. Count is the number of rows with the
// value; MemberIDs is the de-duplicated set of members, in first-seen order.
// Values keep the order in which they first appear.
func AggregateReactions(rows []Reaction) []ReactionView {
	views := []ReactionView{}
	index := make(map[string]int)
	seen := make(map[string]map[uint64]struct{})

	for _, r := range rows {
		i, ok := index[r.Value]
		if !ok {
			i = len(views)
			index[r.Value] = i
			views = append(views, ReactionView{Value: r.Value, MemberIDs: []uint64{}})
			seen[r.Value] = make(map[uint64]struct{})
		}
		views[i].Count++
		if _, dup := seen[r.Value][r.MemberID]; !dup {
			seen[r.Value][r.MemberID] = struct{}{}
			views[i].MemberIDs = append(views[i].MemberIDs, r.MemberID)
		}
	}
	return views
}

// NewReactionSummary builds the stored aggregate from a view
func NewReactionSummary(messageID, firstReactionID uint64, v ReactionView) (*ReactionSummary, error) {
	ids, err := json.Marshal(v.MemberIDs)
	if err != nil {
		return nil, err
	}
	return &ReactionSummary{
		MessageID: messageID,
		Value:     v.Value,
		Count:     v.Count,
		MemberIDs: datatypes.JSON(ids),

		FirstReactionID: firstReactionID,
	}, nil
}
