package main

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"neuralnews/internal/api"
	"neuralnews/internal/collector"
	"neuralnews/internal/config"
	"neuralnews/internal/publisher"
	"neuralnews/internal/scheduler"
	"neuralnews/internal/storage"
)

func main() {
	log.Println("starting news aggregation service...")

	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env file")
	}

	cfg := config.Load()
	loc := cfg.Location()

	store, err := storage.NewStore(cfg.DBPath, cfg.RedisAddr, loc)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	collector.SeedDefaultSources(store, cfg.DefaultSourceCount)

	pub := publisher.NewClient(publisher.Credentials{
		APIKey:       cfg.XAPIKey,
		APISecret:    cfg.XAPISecret,
		AccessToken:  cfg.XAccessToken,
		AccessSecret: cfg.XAccessTokenSecret,
	})

	fetcher := collector.NewFeedFetcher(store, cfg.FeedTimeout, cfg.FeedUserAgent)
	orch := collector.NewOrchestrator(store, fetcher)

	sched := scheduler.New(orch, loc)
	if err := sched.Start(cfg.FetchInterval); err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}

	// first ingestion pass shortly after startup, once the server is up
	const startupDelay = 10 * time.Second
	time.AfterFunc(startupDelay, func() {
		if _, err := sched.TriggerFetch(context.Background()); err != nil {
			log.Printf("startup fetch failed: %v", err)
		}
	})

	r := gin.Default()
	if cfg.AdminPassword != "" {
		r.Use(basicAuthMiddleware(cfg.AdminUser, cfg.AdminPassword))
	} else {
		log.Println("warn: ADMIN_PASSWORD not set, admin panel is unprotected")
	}

	apiServer := api.NewServer(store, sched, pub)
	apiServer.RegisterRoutes(r)

	// host the admin SPA when a web root is configured
	if cfg.WebRoot != "" {
		indexFile := filepath.Join(cfg.WebRoot, "index.html")
		r.Static("/assets", filepath.Join(cfg.WebRoot, "assets"))
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				c.Status(http.StatusNotFound)
				return
			}
			c.File(indexFile)
		})
	}

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}

// basicAuthMiddleware protects the whole site, API and admin UI alike.
// /health stays open for probes.
func basicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "News Admin"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
