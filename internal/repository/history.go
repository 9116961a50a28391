package repository

import (
	"syncwatch/internal/model"
	"time"

	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Save(result model.SyncResult) error {
	errMsg := ""
	if result.Err != nil {
		errMsg = result.Err.Error()
	}

	history := model.History{
		Kind:     result.Kind,
		Status:   result.Status(),
		Source:   result.Source,
		Dest:     result.Dest,
		ExitCode: result.ExitCode,
		ErrMsg:   errMsg,
		Duration: result.Duration,
		SyncedAt: time.Now(),
	}

	return r.db.Create(&history).Error
}

type Stats struct {
	Total    int64 `json:"total"`
	Success  int64 `json:"success"`
	Vanished int64 `json:"vanished"`
	Failed   int64 `json:"failed"`
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := r.db.Model(&model.History{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := r.db.Model(&model.History{}).
		Where("status = ?", model.StatusSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	if err := r.db.Model(&model.History{}).
		Where("status = ?", model.StatusVanished).
		Count(&stats.Vanished).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success - stats.Vanished
	return stats, nil
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.History, error) {
	var histories []model.History
	result := r.db.
		Order("synced_at desc, id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) GetFailed(limit int) ([]model.History, error) {
	var histories []model.History
	result := r.db.
		Where("status = ?", model.StatusFailed).
		Order("synced_at desc, id desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}
