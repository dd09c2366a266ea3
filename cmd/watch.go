package cmd

import (
	"context"
	"fmt"
	"time"

	"raffle/config"
	"raffle/infrastructure"

	log "github.com/sirupsen/logrus"
)

// Watch logs every raffle domain event from the JetStream stream until ctx ends
func Watch(ctx context.Context) error {
	cfg := config.Get()
	if cfg.NATSServers == "" {
		return fmt.Errorf("NATS_SERVERS is not set")
	}

	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := natsClient.Connect(connectCtx)
	cancel()
	if err != nil {
		return err
	}
	defer natsClient.Close()

	mapper := infrastructure.NewEventSubjectMapper()
	if err := infrastructure.NewNATSEventPublisher(natsClient, mapper).EnsureRaffleEventStream(natsClient); err != nil {
		return err
	}

	for _, subject := range mapper.GetAllSubjects() {
		if err := natsClient.Subscribe(subject, logEnvelope); err != nil {
			return err
		}
	}

	log.Info("Watching raffle events, press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}

func logEnvelope(data []byte) error {
	envelope, err := infrastructure.DecodeEnvelope(data)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"eventID":   envelope.EventID,
		"eventType": envelope.EventType,
		"timestamp": envelope.Timestamp.Format(time.RFC3339),
		"payload":   string(envelope.Payload),
	}).Info("Raffle event")
	return nil
}
