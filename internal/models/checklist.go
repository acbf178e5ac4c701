package models

import "time"

type Checklist struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ChecklistItem struct {
	ID          string
	ChecklistID string
	Position    int
	Text        string
	Done        bool
}
