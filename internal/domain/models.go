// Package domain defines the persistence models for submitted entries and
// per-client rate-limit counters. These types are mapped with GORM and form
// the core data layer of the entries API.
package domain

// Entry represents a single submitted personal record.
//
// Fields:
//   - ID: autoincrement primary key assigned by storage; reflects insertion order.
//   - FirstName / LastName / Sex / Nationality / Phone: trimmed, non-empty text.
//   - Age: numeric age in [0, 130].
//   - CreatedAt: server-assigned ISO-8601 UTC timestamp (see TimestampLayout).
type Entry struct {
	ID          int64   `json:"id"          gorm:"column:id;primaryKey;autoIncrement"`
	FirstName   string  `json:"firstName"   gorm:"column:first_name;type:text;not null"`
	LastName    string  `json:"lastName"    gorm:"column:last_name;type:text;not null"`
	Age         float64 `json:"age"         gorm:"column:age;not null"`
	Sex         string  `json:"sex"         gorm:"column:sex;type:text;not null"`
	Nationality string  `json:"nationality" gorm:"column:nationality;type:text;not null"`
	Phone       string  `json:"phone"       gorm:"column:phone;type:text;not null"`
	CreatedAt   string  `json:"createdAt"   gorm:"column:created_at;type:text;not null"`
}

// TableName returns the database table name for Entry.
func (Entry) TableName() string { return "entries" }

// RateLimit is the fixed-window submission counter for one client address.
// There is at most one row per address.
//
// WindowStart is stored as epoch seconds, as in the rate_limits table
// contract, so that windows can be compared with plain integer arithmetic.
type RateLimit struct {
	IP          string `gorm:"column:ip;type:text;primaryKey"`
	WindowStart int64  `gorm:"column:window_start;not null"`
	Count       int    `gorm:"column:count;not null"`
}

// TableName returns the database table name for RateLimit.
func (RateLimit) TableName() string { return "rate_limits" }

// TimestampLayout is the ISO-8601 form used for Entry.CreatedAt
// (UTC, millisecond precision, "Z" suffix).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
