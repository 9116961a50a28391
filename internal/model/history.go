package model

import (
	"time"

	"gorm.io/gorm"
)

type SyncStatus string

const (
	StatusSuccess  SyncStatus = "SUCCESS"
	StatusVanished SyncStatus = "VANISHED"
	StatusFailed   SyncStatus = "FAILED"
)

type History struct {
	gorm.Model
	Kind     SyncKind   `gorm:"not null"`
	Status   SyncStatus `gorm:"not null;index"`
	Source   string     `gorm:"not null"`
	Dest     string     `gorm:"not null"`
	ExitCode int
	ErrMsg   string
	Duration time.Duration
	SyncedAt time.Time `gorm:"not null;index"`
}
