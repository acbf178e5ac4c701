package ids

import "github.com/segmentio/ksuid"

// New returns a sortable, URL-safe identifier for database rows.
func New() string {
	return ksuid.New().String()
}
