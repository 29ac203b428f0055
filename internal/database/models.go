package database

import "time"

// User tracks engagement stats for one chat participant, keyed by their
// YouTube channel ID. MessageCount only ever increases; DisplayName holds the
// most recently observed value.
type User struct {
	ChannelID    string    `db:"channel_id"`
	DisplayName  string    `db:"display_name"`
	MessageCount int64     `db:"message_count"`
	FirstSeen    time.Time `db:"first_seen"`
	LastSeen     time.Time `db:"last_seen"`
}
