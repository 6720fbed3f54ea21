package entities

import (
	"time"

	"gorm.io/datatypes"
)

// PracticeSession is derived data produced when a learner practises against
// an imported package. It references the package by id only, so it has to be
// removed explicitly before the package itself is deleted.
type PracticeSession struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	PackageID  uint           `gorm:"not null;index" json:"package_id"`
	Kind       ContentKind    `gorm:"size:32;not null" json:"kind"`
	UserID     uint           `gorm:"index" json:"user_id"`
	Snapshot   datatypes.JSON `json:"snapshot,omitempty"`
	Score      float64        `json:"score"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (PracticeSession) TableName() string {
	return "practice_sessions"
}
