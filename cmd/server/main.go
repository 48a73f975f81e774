package main

import (
	"context"
	"log"

	"github.com/chatterbox-app/chatterbox/internal/ai"
	"github.com/chatterbox-app/chatterbox/internal/audit"
	"github.com/chatterbox-app/chatterbox/internal/chat"
	"github.com/chatterbox-app/chatterbox/internal/config"
	"github.com/chatterbox-app/chatterbox/internal/db"
	"github.com/chatterbox-app/chatterbox/internal/httpapi"
	"github.com/chatterbox-app/chatterbox/internal/store/rabbitmq"
	"github.com/chatterbox-app/chatterbox/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	repo := chat.NewRepo(gdb)
	registry := ai.NewDefaultRegistry(cfg.CompletionsBaseURL)

	var auditor *audit.Auditor
	if cfg.WebhookURL != "" {
		var sink audit.Sink = audit.NewWebhookSink(cfg.WebhookURL)
		if cfg.RabbitURL != "" {
			pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
			if err != nil {
				log.Printf("rabbit unavailable, delivering audit records directly: %v", err)
			} else {
				defer pub.Close()
				sink = pub
			}
		}
		auditor = audit.NewAuditor(cfg.IPLookupURL, sink)
	}

	var cache chat.ListingCache
	if cfg.RedisAddr != "" {
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rds.Ping(context.Background()); err != nil {
			log.Printf("redis unavailable, listing cache disabled: %v", err)
		} else {
			cache = rds
		}
	}

	svc := chat.NewService(repo, registry, auditor, cache)

	// guarantee at least one chat exists before serving
	seeded, err := svc.EnsureChat(context.Background())
	if err != nil {
		log.Fatalf("seed chat: %v", err)
	}
	log.Printf("current chat %s (%q)", seeded.ID, seeded.Title)

	r := httpapi.NewRouter(cfg, svc)
	log.Printf("listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
