package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proposal/frontend/proposal"
	"proposal/frontend/tracker"
	"proposal/infrastructure/audit"
	"proposal/infrastructure/cache"
	"proposal/infrastructure/config"
	httpserver "proposal/infrastructure/http"
	"proposal/infrastructure/sqlite"
	"proposal/infrastructure/upi"
)

const sessionJanitorInterval = 10 * time.Minute

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sqlite.OpenDB(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, ""); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	checklist, err := tracker.LoadChecklist(cfg.ChecklistPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	doc, err := proposal.LoadProposal(cfg.ProposalPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	pages := httpserver.Pages{
		Proposal:   doc,
		Checklist:  checklist,
		Payment:    tracker.PaymentFromConfig(cfg),
		Dispatcher: upi.NewDispatcher(upi.NewUserAgentDetector(), qrSource(cfg)),
	}
	server := httpserver.NewServer(cfg.Addr, db, cache.NewVisitorSessionCache(), audit.NewService(), cfg.SessionTTL, pages)
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	log.Printf("proposal listening on %s", cfg.Addr)

	ctx, cancel := context.WithCancel(context.Background())
	go server.RunSessionJanitor(ctx, sessionJanitorInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()

	if err := server.Stop(); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func qrSource(cfg config.Config) upi.QRSource {
	if cfg.QRProvider == config.QRProviderLocal {
		return upi.LocalSource(upi.LocalQRImageURL)
	}
	return upi.QuickChartSource(cfg.QREndpoint, upi.DefaultQRSize)
}
