package storage

import (
	"fmt"
	"time"
)

// SourceUpdate is a partial update: nil fields keep their stored value.
type SourceUpdate struct {
	Name     *string `json:"name"`
	URL      *string `json:"url"`
	Type     *string `json:"type"`
	IsActive *bool   `json:"isActive"`
}

func (s *Store) ListSources() ([]Source, error) {
	var list []Source
	if err := s.DB.Order("name ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("storage: list sources: %w", err)
	}
	return list, nil
}

// ListActiveSources returns fetch-eligible sources in insertion order; the
// orchestrator walks them in exactly this order.
func (s *Store) ListActiveSources() ([]Source, error) {
	var list []Source
	if err := s.DB.Where("is_active = ?", true).Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("storage: list active sources: %w", err)
	}
	return list, nil
}

func (s *Store) CreateSource(src *Source) error {
	if src.Type == "" {
		src.Type = "rss"
	}
	if err := s.DB.Create(src).Error; err != nil {
		return fmt.Errorf("storage: create source: %w", err)
	}
	return nil
}

// SourceExists reports whether any source already uses the given name or URL.
// Seeding uses it as an advisory pre-check; there is no storage constraint.
func (s *Store) SourceExists(name, url string) (bool, error) {
	var count int64
	if err := s.DB.Model(&Source{}).Where("name = ? OR url = ?", name, url).Count(&count).Error; err != nil {
		return false, fmt.Errorf("storage: source exists: %w", err)
	}
	return count > 0, nil
}

func (s *Store) UpdateSource(id uint, u SourceUpdate) (int64, error) {
	fields := map[string]any{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.URL != nil {
		fields["url"] = *u.URL
	}
	if u.Type != nil {
		fields["type"] = *u.Type
	}
	if u.IsActive != nil {
		fields["is_active"] = *u.IsActive
	}
	if len(fields) == 0 {
		// nothing to set; still report whether the row exists
		var count int64
		if err := s.DB.Model(&Source{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return 0, fmt.Errorf("storage: update source: %w", err)
		}
		return count, nil
	}

	res := s.DB.Model(&Source{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("storage: update source: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteSource(id uint) (int64, error) {
	res := s.DB.Delete(&Source{}, id)
	if res.Error != nil {
		return 0, fmt.Errorf("storage: delete source: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// TouchLastFetched stamps the source after a completed fetch pass.
func (s *Store) TouchLastFetched(id uint) error {
	now := time.Now().UTC()
	if err := s.DB.Model(&Source{}).Where("id = ?", id).Update("last_fetched", now).Error; err != nil {
		return fmt.Errorf("storage: touch last fetched: %w", err)
	}
	return nil
}
