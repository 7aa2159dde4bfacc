package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitamend/go-donation-inventory/internal/config"
	"github.com/vitamend/go-donation-inventory/internal/httpx"
	"github.com/vitamend/go-donation-inventory/internal/inventory"
	kafkax "github.com/vitamend/go-donation-inventory/internal/kafka"
	"github.com/vitamend/go-donation-inventory/internal/notify"
	"github.com/vitamend/go-donation-inventory/internal/postgres"
	"github.com/vitamend/go-donation-inventory/internal/recall"
	"github.com/vitamend/go-donation-inventory/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pRequested := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicMedicineRequested, 1024)
	pRequested.Start(ctx)
	pOrders := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicOrderCreated, 1024)
	pOrders.Start(ctx)
	pRecalled := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicLotRecalled, 1024)
	pRecalled.Start(ctx)
	pNotify := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicNotification, 1024)
	pNotify.Start(ctx)
	producers := []*kafkax.Producer{pRequested, pOrders, pRecalled, pNotify}

	// Core wiring
	store := &inventory.Store{Pool: db}
	notifier := &notify.Dispatcher{Producer: pNotify, Service: cfg.ServiceName}
	engine := &inventory.ReservationEngine{
		Store:    store,
		Producer: pRequested,
		Notifier: notifier,
		Service:  cfg.ServiceName,
	}
	checkout := &inventory.CheckoutService{
		Store:    store,
		Producer: pOrders,
		Service:  cfg.ServiceName,
	}
	sweeper := &recall.Sweeper{
		Store:    store,
		Feed:     recall.NewFeedClient(cfg.AdvisoryFeedURL),
		Redis:    rdb,
		Producer: pRecalled,
		Notifier: notifier,
		Service:  cfg.ServiceName,
	}

	router := httpx.NewRouter()
	h := &httpx.Handler{
		Store:    store,
		Engine:   engine,
		Checkout: checkout,
		Sweeper:  sweeper,
		Redis:    rdb,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close()
	}
	cancel()
	for _, p := range producers {
		p.WaitClosed()
	}
}
