package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// News is one aggregated item. SourceURL is the dedup key: the fetcher
// checks ExistsByURL before inserting, so at most one row exists per feed link.
type News struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Title     string            `gorm:"size:512;not null" json:"title"`
	Summary   string            `gorm:"size:600" json:"summary"`
	Content   string            `gorm:"type:text" json:"content"`
	Source    string            `gorm:"size:128;index" json:"source"`
	SourceURL string            `gorm:"size:1024;index" json:"sourceUrl"`
	ImageURL  string            `gorm:"size:1024" json:"imageUrl"`
	Category  string            `gorm:"size:64" json:"category"`
	IsShared  bool              `gorm:"index" json:"isShared"`
	SharedAt  *time.Time        `json:"sharedAt"`
	ExtraData datatypes.JSONMap `gorm:"type:json" json:"extraData,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Source is a configured feed endpoint.
type Source struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:128;not null" json:"name"`
	URL         string     `gorm:"size:1024;not null" json:"url"`
	Type        string     `gorm:"size:32" json:"type"`
	IsActive    bool       `gorm:"index" json:"isActive"`
	LastFetched *time.Time `json:"lastFetched"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client

	// loc is the reference zone for "today" in stats; the scheduler anchors
	// its cron to the same zone.
	loc *time.Location
}

// NewStore opens (or creates) the sqlite file at dbPath and runs migrations.
// redisAddr is optional; when empty the read cache is disabled and every
// query goes straight to sqlite.
func NewStore(dbPath, redisAddr string, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}

	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create db dir: %w", err)
		}
	}

	// timestamps are stored as text; keeping everything in UTC makes
	// comparisons and ordering well-defined
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&News{}, &Source{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	s := &Store{DB: db, loc: loc}

	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("warn: redis ping failed, cache disabled: %v", err)
		} else {
			s.Redis = rdb
		}
	}

	return s, nil
}

// ---------- read cache ----------
//
// List and stats responses are cached for a few minutes. Every key embeds a
// generation counter that each mutation bumps, so a read after a write never
// sees a stale entry. The dedup gate (ExistsByURL) never touches the cache.

const cacheTTL = 5 * time.Minute

const cacheGenKey = "news:gen"

func (s *Store) cacheGen(ctx context.Context) int64 {
	if s.Redis == nil {
		return 0
	}
	gen, err := s.Redis.Get(ctx, cacheGenKey).Int64()
	if err != nil {
		return 0
	}
	return gen
}

func (s *Store) bumpCacheGen() {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Incr(context.Background(), cacheGenKey).Err(); err != nil {
		log.Printf("warn: bump cache generation: %v", err)
	}
}

func (s *Store) cacheGet(ctx context.Context, key string, out any) bool {
	if s.Redis == nil {
		return false
	}
	bs, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(bs, out) == nil
}

func (s *Store) cacheSet(ctx context.Context, key string, v any) {
	if s.Redis == nil {
		return
	}
	if bs, err := json.Marshal(v); err == nil {
		_ = s.Redis.Set(ctx, key, bs, cacheTTL).Err()
	}
}
