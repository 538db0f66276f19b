package models

import "time"

// LoginRecord is one successful authentication. Records are immutable.
type LoginRecord struct {
	ID            int64     `db:"id" json:"id"`
	SourceAddress string    `db:"source_address" json:"source_address"`
	UserAgent     string    `db:"user_agent" json:"user_agent"`
	LoggedInAt    time.Time `db:"logged_in_at" json:"logged_in_at"`
	UserID        int64     `db:"user_id" json:"user_id"`
}
