package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/richxcame/fleet/pkg/eventbus"
	"github.com/richxcame/fleet/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCommand(a *app) *cobra.Command {
	var consumer string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream vehicle events as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd.Context(), consumer)
		},
	}
	cmd.Flags().StringVar(&consumer, "consumer", "", "durable consumer name; empty only sees new events")
	return cmd
}

func (a *app) runWatch(ctx context.Context, consumer string) error {
	cfg, err := a.setup()
	if err != nil {
		return err
	}
	if !cfg.NATS.Enabled {
		return fmt.Errorf("event bus is disabled (set NATS_ENABLED=true)")
	}

	bus, err := connectBus(cfg)
	if err != nil {
		return fmt.Errorf("connect event bus: %w", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = bus.Subscribe(ctx, eventbus.SubjectAllVehicles, consumer, func(_ context.Context, event *eventbus.Event) error {
		return writeEvent(a.stdout, event)
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

type watchedEvent struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// writeEvent prints one event per line. Known payloads are decoded into
// their typed form; anything else is printed as received.
func writeEvent(w io.Writer, event *eventbus.Event) error {
	out := watchedEvent{
		ID:        event.ID,
		Type:      event.Type,
		Source:    event.Source,
		Timestamp: event.Timestamp,
		Data:      event.Data,
	}

	var payload interface{}
	switch event.Type {
	case eventbus.SubjectVehicleCreated:
		payload = &eventbus.VehicleCreatedData{}
	case eventbus.SubjectVehicleDocumentsUpdated:
		payload = &eventbus.DocumentsUpdatedData{}
	}
	if payload != nil {
		if err := event.Decode(payload); err != nil {
			logger.Warn("printing undecodable event as received", zap.Error(err))
		} else {
			out.Data = payload
		}
	}
	return json.NewEncoder(w).Encode(out)
}
