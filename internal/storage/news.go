package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// NewsFilter narrows ListNews results. Fields combine as a conjunction;
// zero values mean "no constraint".
type NewsFilter struct {
	Shared *bool
	Source string
	Search string // substring match on title or summary
}

// NewsUpdate is a partial update: nil fields keep their stored value.
type NewsUpdate struct {
	Title    *string `json:"title"`
	Summary  *string `json:"summary"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
	ImageURL *string `json:"imageUrl"`
}

type NewsStats struct {
	Total  int64 `json:"total"`
	Shared int64 `json:"shared"`
	Today  int64 `json:"today"`
}

// CreateNews inserts the item and returns its new id. A zero CreatedAt is
// filled by gorm; ingestion sets it to the feed's publish date beforehand.
func (s *Store) CreateNews(n *News) (uint, error) {
	if n.Category == "" {
		n.Category = "general"
	}
	if !n.CreatedAt.IsZero() {
		n.CreatedAt = n.CreatedAt.UTC()
	}
	if err := s.DB.Create(n).Error; err != nil {
		return 0, fmt.Errorf("storage: create news: %w", err)
	}
	s.bumpCacheGen()
	return n.ID, nil
}

// GetNews returns (nil, nil) when the id is unknown.
func (s *Store) GetNews(id uint) (*News, error) {
	var n News
	err := s.DB.First(&n, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get news: %w", err)
	}
	return &n, nil
}

// ListNews returns items ordered by creation time descending.
func (s *Store) ListNews(limit, offset int, f NewsFilter) ([]News, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx := context.Background()
	shared := "any"
	if f.Shared != nil {
		shared = fmt.Sprintf("%t", *f.Shared)
	}
	cacheKey := fmt.Sprintf("news:list:%d:%d:%d:%s:%s:%s", s.cacheGen(ctx), limit, offset, shared, f.Source, f.Search)
	var cached []News
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	db := s.DB.Model(&News{})
	if f.Shared != nil {
		db = db.Where("is_shared = ?", *f.Shared)
	}
	if f.Source != "" {
		db = db.Where("source = ?", f.Source)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		db = db.Where("(title LIKE ? OR summary LIKE ?)", pattern, pattern)
	}

	var list []News
	if err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("storage: list news: %w", err)
	}

	if len(list) > 0 {
		s.cacheSet(ctx, cacheKey, list)
	}
	return list, nil
}

// UpdateNews applies the set fields and refreshes updated_at. Returns the
// number of affected rows; 0 means the id does not exist.
func (s *Store) UpdateNews(id uint, u NewsUpdate) (int64, error) {
	fields := map[string]any{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Summary != nil {
		fields["summary"] = *u.Summary
	}
	if u.Content != nil {
		fields["content"] = *u.Content
	}
	if u.Category != nil {
		fields["category"] = *u.Category
	}
	if u.ImageURL != nil {
		fields["image_url"] = *u.ImageURL
	}

	res := s.DB.Model(&News{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("storage: update news: %w", res.Error)
	}
	s.bumpCacheGen()
	return res.RowsAffected, nil
}

func (s *Store) DeleteNews(id uint) (int64, error) {
	res := s.DB.Delete(&News{}, id)
	if res.Error != nil {
		return 0, fmt.Errorf("storage: delete news: %w", res.Error)
	}
	s.bumpCacheGen()
	return res.RowsAffected, nil
}

func (s *Store) DeleteAllNews() (int64, error) {
	res := s.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&News{})
	if res.Error != nil {
		return 0, fmt.Errorf("storage: delete all news: %w", res.Error)
	}
	s.bumpCacheGen()
	return res.RowsAffected, nil
}

// MarkShared flags the item as shared and records the share time.
func (s *Store) MarkShared(id uint) (int64, error) {
	now := time.Now().UTC()
	res := s.DB.Model(&News{}).Where("id = ?", id).Updates(map[string]any{
		"is_shared":  true,
		"shared_at":  now,
		"updated_at": now,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("storage: mark shared: %w", res.Error)
	}
	s.bumpCacheGen()
	return res.RowsAffected, nil
}

// ExistsByURL is the ingestion dedup gate. It always queries sqlite directly
// so that inserts earlier in the same fetch run are visible.
func (s *Store) ExistsByURL(url string) (bool, error) {
	var count int64
	if err := s.DB.Model(&News{}).Where("source_url = ?", url).Count(&count).Error; err != nil {
		return false, fmt.Errorf("storage: exists by url: %w", err)
	}
	return count > 0, nil
}

// StatsNews counts totals. "Today" is the calendar date in the store's
// configured location, not the caller's wall clock.
func (s *Store) StatsNews() (NewsStats, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("news:stats:%d", s.cacheGen(ctx))
	var cached NewsStats
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	var stats NewsStats
	if err := s.DB.Model(&News{}).Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("storage: stats total: %w", err)
	}
	if err := s.DB.Model(&News{}).Where("is_shared = ?", true).Count(&stats.Shared).Error; err != nil {
		return stats, fmt.Errorf("storage: stats shared: %w", err)
	}

	now := time.Now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	end := start.Add(24 * time.Hour)
	if err := s.DB.Model(&News{}).Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).Count(&stats.Today).Error; err != nil {
		return stats, fmt.Errorf("storage: stats today: %w", err)
	}

	s.cacheSet(ctx, cacheKey, stats)
	return stats, nil
}
