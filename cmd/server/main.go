package main

import (
	"flag"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/classifier"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/config"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/export"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/models"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/reddit"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/storage"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/tracker"
)

type app struct {
	cfg      *config.Config
	store    storage.Storage
	client   *reddit.Client
	engine   *tracker.Engine
	exporter *export.Exporter

	mu          sync.RWMutex
	lastSummary *models.RunSummary
}

func main() {
	once := flag.Bool("once", false, "run a single tracking cycle and exit (for external schedulers)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize storage
	var store storage.Storage
	switch cfg.Storage.Type {
	case "sqlite":
		store, err = storage.NewSQLiteStorage(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		defer store.Close()
	default:
		log.Fatalf("Unsupported storage type: %s", cfg.Storage.Type)
	}

	cls, err := classifier.New(cfg.Classifier)
	if err != nil {
		log.Fatalf("Invalid classifier config: %v", err)
	}

	a := &app{
		cfg:      cfg,
		store:    store,
		client:   reddit.NewClient(cfg.Search),
		engine:   tracker.New(cls, store),
		exporter: export.New(cfg.Output.Dir, cfg.Show.Slug, cfg.Show.Name, cfg.Selection.OtherPostsN),
	}

	if *once {
		if err := a.runCycle(); err != nil {
			log.Fatalf("Tracking run failed: %v", err)
		}
		return
	}

	// Parse poll interval
	pollInterval, err := time.ParseDuration(cfg.Search.PollInterval)
	if err != nil {
		log.Fatalf("Invalid poll interval: %v", err)
	}

	// Start tracking in a goroutine
	go a.startTracking(pollInterval)

	// Initialize Gin server
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.IndentedJSON(200, gin.H{
			"status":    "ok",
			"show":      cfg.Show.Slug,
			"timestamp": time.Now(),
		})
	})

	// Current state of every tracked post
	router.GET("/posts", func(c *gin.Context) {
		snapshot, err := a.store.LatestSnapshot()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.IndentedJSON(200, gin.H{
			"count": len(snapshot),
			"posts": snapshot,
		})
	})

	// Full growth curve for one post
	router.GET("/history/:post_id", func(c *gin.Context) {
		entries, err := a.store.HistoryFor(c.Param("post_id"))
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		if len(entries) == 0 {
			c.IndentedJSON(404, gin.H{"error": "post not tracked"})
			return
		}
		c.IndentedJSON(200, gin.H{
			"post_id": c.Param("post_id"),
			"count":   len(entries),
			"history": entries,
		})
	})

	// Selected posts from the most recent run
	router.GET("/selected", func(c *gin.Context) {
		a.mu.RLock()
		summary := a.lastSummary
		a.mu.RUnlock()
		if summary == nil {
			c.IndentedJSON(404, gin.H{"error": "no run completed yet"})
			return
		}
		c.IndentedJSON(200, summary)
	})

	// Trigger manual run
	router.POST("/scrape", func(c *gin.Context) {
		log.Println("Manual tracking run triggered")
		if err := a.runCycle(); err != nil {
			c.IndentedJSON(500, gin.H{"error": err.Error()})
			return
		}
		a.mu.RLock()
		summary := a.lastSummary
		a.mu.RUnlock()
		c.IndentedJSON(200, summary)
	})

	// Dashboard
	router.GET("/", func(c *gin.Context) {
		html, err := a.dashboardHTML()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "text/html; charset=utf-8", html)
	})

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("Starting server on %s", addr)
	log.Printf("Tracking %q in subreddits: %v", cfg.Show.Name, cfg.Search.Subreddits)
	log.Printf("Poll interval: %s", pollInterval)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// startTracking runs a tracking cycle at regular intervals
func (a *app) startTracking(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once immediately
	log.Println("Starting initial tracking run...")
	if err := a.runCycle(); err != nil {
		log.Printf("Tracking run failed: %v", err)
	}

	// Then run on interval
	for range ticker.C {
		log.Println("Running scheduled tracking run...")
		if err := a.runCycle(); err != nil {
			log.Printf("Tracking run failed: %v", err)
		}
	}
}

// runCycle executes one fetch → classify → merge → export cycle
func (a *app) runCycle() error {
	batch, err := a.client.FetchPosts()
	if err != nil {
		return err
	}

	summary, err := a.engine.Run(batch, time.Now().UTC())
	if err != nil {
		return err
	}

	log.Printf("Run complete: seen=%d new=%d reobserved=%d duplicates=%d malformed=%d selected=%d",
		summary.Seen, summary.NewlyTracked, summary.Reobserved,
		summary.DuplicatesSkipped, summary.Malformed, len(summary.Selected))

	a.mu.Lock()
	a.lastSummary = summary
	a.mu.Unlock()

	return a.export(summary)
}

// export writes the CSV tables and the static dashboard
func (a *app) export(summary *models.RunSummary) error {
	if err := a.exporter.WriteAllPosts(summary.Posts); err != nil {
		return err
	}
	if err := a.exporter.WriteEpisodePosts(summary.Posts); err != nil {
		return err
	}
	if err := a.exporter.WriteSelectedPosts(summary.Selected, export.BestTrailer(summary.Posts)); err != nil {
		return err
	}

	history, err := a.store.AllHistory()
	if err != nil {
		return err
	}
	if err := a.exporter.WriteHistory(history); err != nil {
		return err
	}

	data := a.exporter.Dashboard(summary.Posts, history, a.cfg.Search)
	return a.exporter.WriteDashboard(data)
}

// dashboardHTML renders the dashboard from the last run, falling back
// to the stored snapshot when the process restarted since the last run
func (a *app) dashboardHTML() ([]byte, error) {
	a.mu.RLock()
	summary := a.lastSummary
	a.mu.RUnlock()

	var posts []models.PostRecord
	if summary != nil {
		posts = summary.Posts
	} else {
		snapshot, err := a.store.LatestSnapshot()
		if err != nil {
			return nil, err
		}
		for _, e := range snapshot {
			posts = append(posts, models.PostRecord{
				ID:           e.PostID,
				Subreddit:    e.Subreddit,
				Title:        e.Title,
				CreatedAt:    e.CreatedAt,
				Score:        e.Score,
				CommentCount: e.CommentCount,
				Category:     e.Category,
				EpisodeCode:  e.EpisodeCode,
			})
		}
	}

	history, err := a.store.AllHistory()
	if err != nil {
		return nil, err
	}

	data := a.exporter.Dashboard(posts, history, a.cfg.Search)
	return a.exporter.DashboardHTML(data)
}
