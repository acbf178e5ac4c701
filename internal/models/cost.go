package models

import "time"

type CostCategory string

const (
	CostCategoryRental      CostCategory = "rental"
	CostCategoryInstruction CostCategory = "instruction"
	CostCategoryFuel        CostCategory = "fuel"
	CostCategoryExam        CostCategory = "exam"
	CostCategoryOther       CostCategory = "other"
)

type CostEntry struct {
	ID          string
	UserID      string
	Category    CostCategory
	AmountCents int64
	IncurredOn  time.Time
	Note        string
	CreatedAt   time.Time
}

// Receipt is the metadata row for a receipt file held in object storage.
type Receipt struct {
	ID          string
	CostEntryID string
	UserID      string
	Bucket      string
	ObjectKey   string
	ContentType string
	SizeBytes   int64
	Checksum    []byte
	Signature   []byte
	CreatedAt   time.Time
}
