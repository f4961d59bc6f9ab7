package main // Entry point: wires the poller, the bot and the HTTP API together

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/magiaym/cartelera/internal/archive"
	"github.com/magiaym/cartelera/internal/config"
	"github.com/magiaym/cartelera/internal/database"
	"github.com/magiaym/cartelera/internal/diff"
	"github.com/magiaym/cartelera/internal/feed"
	"github.com/magiaym/cartelera/internal/handler"
	"github.com/magiaym/cartelera/internal/notify"
	"github.com/magiaym/cartelera/internal/poller"
	"github.com/magiaym/cartelera/internal/queue"
	"github.com/magiaym/cartelera/internal/router"
	"github.com/magiaym/cartelera/internal/state"
	"github.com/magiaym/cartelera/internal/telegram"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
	cfg := config.Load()

	// Feed pipeline: HTTP client -> TTL cache -> payload provider.
	client := feed.NewClient(cfg.FeedURL, cfg.UserAgent)
	cache := feed.NewCache(cfg.FeedCacheTTL, client.Fetch)
	providers := []feed.Provider{&feed.PayloadProvider{Cache: cache}}

	store := state.New(cfg.StateFile)

	var transport notify.Transport
	var tg *telegram.Client
	if cfg.TelegramToken != "" {
		tg = telegram.NewClient(cfg.TelegramToken)
		transport = tg
	} else {
		log.Println("TELEGRAM_BOT_TOKEN unset: alerts and commands disabled")
		transport = notify.Discard{}
	}
	dispatcher := &notify.Dispatcher{Transport: transport, Limit: cfg.TelegramLimit}

	p := poller.New(cache, providers, store, dispatcher)
	p.FirstDelay = cfg.PollFirstDelay
	p.Interval = cfg.PollInterval
	p.Engine = diff.Engine{EmitRemovals: cfg.EmitRemovals}
	if len(cfg.FeverURLs) > 0 {
		p.Fever = feed.NewFeverProvider(cfg.FeverURLs, cfg.UserAgent)
	}

	if cfg.ArchiveEnabled {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("archive database: %v", err)
		}
		arc := archive.New(db)
		if err := arc.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("archive schema: %v", err)
		}
		p.Archive = arc
	}

	if cfg.QueueEnabled {
		p.Publish = queue.PublishChangeBatch
		go func() {
			if err := queue.StartChangeConsumer(); err != nil {
				log.Printf("change consumer stopped: %v", err)
			}
		}()
	}

	ctx := context.Background()
	go p.Run(ctx)

	if tg != nil {
		bot := &telegram.Bot{Client: tg, Source: p, Store: store, Limit: cfg.TelegramLimit}
		go bot.Run(ctx)
	}

	e := echo.New()
	router.RegisterRoutes(e)

	public := &handler.PublicHandler{Source: p}
	var hist handler.HistoryHandler
	if arc, ok := p.Archive.(*archive.Archive); ok {
		hist.Archive = arc
	}
	router.RegisterPublic(e, public, &hist, config.NewRedisClient())

	admin := &handler.AdminHandler{
		JWTSecret:    cfg.JWTSecret,
		AdminKeyHash: cfg.AdminKeyHash,
		AccessTTLMin: cfg.AccessTTLMin,
		Poller:       p,
	}
	router.RegisterAdmin(e, admin)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
