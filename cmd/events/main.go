package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ramshaali/folio/internal/config"
	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/pkg/events"
	pktNats "github.com/ramshaali/folio/pkg/nats"
)

// Tails session and generation lifecycle events from JetStream.
func main() {
	subject := flag.String("subject", pktNats.SubjectPrefix+".>", "subject filter")
	durable := flag.String("durable", "", "durable consumer name (empty for ephemeral)")
	flag.Parse()

	cfg := config.Load()
	eventLogger := logger.NewZapLogger("logs/events.log", cfg.App.Environment == "production")
	defer eventLogger.Sync()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sub.Subscribe(ctx, *subject, *durable, func(_ context.Context, event events.Event) error {
		eventLogger.Info("EVENTS", event.EventType(), map[string]interface{}{
			"occurred_at": event.Timestamp(),
			"data":        event.Payload(),
		})
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	<-ctx.Done()
}
