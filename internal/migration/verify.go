package migration

import (
	"fmt"

	"gorm.io/gorm"
)

// Pending returns the chat tables that do not exist yet
func Pending(db *gorm.DB) []string {
	var missing []string
	for _, m := range Models() {
		if !db.Migrator().HasTable(m) {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(m); err == nil {
				missing = append(missing, stmt.Schema.Table)
			}
		}
	}
	return missing
}

// Report counts rows and integrity problems per table
type Report struct {
	Rows map[string]int64

	OrphanMembers       int64 // member without workspace
	OrphanMessages      int64 // message whose member is gone
	OrphanReactions     int64 // reaction whose message is gone
	DanglingScopes      int64 // message pointing at a missing channel or conversation
	StaleSummaryCounts  int64 // summary whose count differs from its reaction rows
	MissingSummaryPairs int64 // (message, value) with reactions but no summary
}

// OK reports whether no integrity problem was found
func (r *Report) OK() bool {
	return r.OrphanMembers == 0 && r.OrphanMessages == 0 && r.OrphanReactions == 0 &&
		r.DanglingScopes == 0 && r.StaleSummaryCounts == 0 && r.MissingSummaryPairs == 0
}

// Verify checks referential integrity of the chat tables.
// The schema has no foreign keys, so cascades are application-level and can drift.
func Verify(db *gorm.DB) (*Report, error) {
	r := &Report{Rows: map[string]int64{}}

	for _, m := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, err
		}
		var n int64
		if err := db.Model(m).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", stmt.Schema.Table, err)
		}
		r.Rows[stmt.Schema.Table] = n
	}

	checks := []struct {
		dest *int64
		sql  string
	}{
		{&r.OrphanMembers, `SELECT COUNT(*) FROM members m
			LEFT JOIN workspaces w ON w.id = m.workspace_id WHERE w.id IS NULL`},
		{&r.OrphanMessages, `SELECT COUNT(*) FROM messages msg
			LEFT JOIN members m ON m.id = msg.member_id WHERE m.id IS NULL`},
		{&r.OrphanReactions, `SELECT COUNT(*) FROM reactions r
			LEFT JOIN messages msg ON msg.id = r.message_id WHERE msg.id IS NULL`},
		{&r.DanglingScopes, `SELECT COUNT(*) FROM messages msg
			LEFT JOIN channels c ON c.id = msg.channel_id
			LEFT JOIN conversations cv ON cv.id = msg.conversation_id
			WHERE (msg.channel_id IS NOT NULL AND c.id IS NULL)
			   OR (msg.conversation_id IS NOT NULL AND cv.id IS NULL)`},
		{&r.StaleSummaryCounts, `SELECT COUNT(*) FROM reaction_summaries s
			WHERE s.count <> (SELECT COUNT(*) FROM reactions r
				WHERE r.message_id = s.message_id AND r.value = s.value)`},
		{&r.MissingSummaryPairs, `SELECT COUNT(*) FROM (
			SELECT r.message_id, r.value FROM reactions r
			LEFT JOIN reaction_summaries s ON s.message_id = r.message_id AND s.value = r.value
			WHERE s.message_id IS NULL
			GROUP BY r.message_id, r.value) missing`},
	}
	for _, c := range checks {
		if err := db.Raw(c.sql).Scan(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return r, nil
}
