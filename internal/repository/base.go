// Package repository provides data access layer implementations for the data service.
package repository

import (
	"context"
	"errors"
	"fmt"

	"circles/internal/database"
	"circles/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = gorm.ErrRecordNotFound

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// loadLikes returns, per target id, the ids of users who liked it in like order.
func loadLikes(ctx context.Context, db *gorm.DB, target models.LikeTarget, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var likes []models.Like
	err := db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", target, ids).
		Order("created_at ASC").
		Find(&likes).Error
	if err != nil {
		return nil, fmt.Errorf("load %s likes: %w", target, err)
	}
	for _, l := range likes {
		out[l.TargetID] = append(out[l.TargetID], l.UserID)
	}
	return out, nil
}

// toggleLike removes userID's like when present, otherwise inserts it. It
// runs in one transaction and reports whether the user now likes the target.
func toggleLike(ctx context.Context, db *gorm.DB, target models.LikeTarget, targetID, userID string) (bool, error) {
	liked := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("target_type = ? AND target_id = ? AND user_id = ?", target, targetID, userID).
			Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		liked = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Like{
			TargetType: target,
			TargetID:   targetID,
			UserID:     userID,
		}).Error
	})
	if err != nil {
		return false, fmt.Errorf("toggle %s like: %w", target, err)
	}
	return liked, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
