package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitamend/go-donation-inventory/internal/config"
	"github.com/vitamend/go-donation-inventory/internal/inventory"
	kafkax "github.com/vitamend/go-donation-inventory/internal/kafka"
	"github.com/vitamend/go-donation-inventory/internal/notify"
	"github.com/vitamend/go-donation-inventory/internal/postgres"
	"github.com/vitamend/go-donation-inventory/internal/recall"
	"github.com/vitamend/go-donation-inventory/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pRecalled := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicLotRecalled, 1024)
	pRecalled.Start(ctx)
	pNotify := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicNotification, 1024)
	pNotify.Start(ctx)

	store := &inventory.Store{Pool: db}
	sweeper := &recall.Sweeper{
		Store:    store,
		Feed:     recall.NewFeedClient(cfg.AdvisoryFeedURL),
		Redis:    rdb,
		Producer: pRecalled,
		Notifier: &notify.Dispatcher{Producer: pNotify, Service: cfg.ServiceName + "-recall"},
		Service:  cfg.ServiceName + "-recall",
	}

	// advisory topic consumer: external systems can push advisories
	group := getenv("RECALL_GROUP", "recall-svc")
	workers := mustAtoi(os.Getenv("RECALL_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, inventory.TopicRecallAdvisory, workers)

	go func() {
		log.Printf("recall consumer started: group=%s topic=%s workers=%d", group, inventory.TopicRecallAdvisory, workers)
		if err := cons.Start(ctx, sweeper.HandleAdvisory); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// periodic feed poll
	go func() {
		t := time.NewTicker(cfg.SweepInterval)
		defer t.Stop()
		for {
			affected, err := sweeper.PollOnce(ctx)
			if err != nil {
				log.Printf("sweep: %v", err)
			} else {
				log.Printf("sweep done: %d lots recalled", len(affected))
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down sweeper...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pRecalled.Close()
	pNotify.Close()
	pRecalled.WaitClosed()
	pNotify.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
