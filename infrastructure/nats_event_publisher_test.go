package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"raffle/domain/entities"
	"raffle/domain/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type fakeMessagePublisher struct {
	messages []publishedMessage
	err      error
}

func (f *fakeMessagePublisher) Publish(_ context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func TestNATSEventPublisher_Publish(t *testing.T) {
	t.Parallel()

	client := &fakeMessagePublisher{}
	publisher := newNATSEventPublisher(client, NewEventSubjectMapper())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return fixed }

	event := events.WinnerPickedEvent{
		RaffleID:     3,
		Round:        2,
		Winner:       entities.MustParseAddress("0x00000000000000000000000000000000000000bb"),
		AmountWei:    "3000000000000000000",
		WinningIndex: 1,
		EntrantCount: 3,
		BlockNumber:  42,
	}
	require.NoError(t, publisher.Publish(event))
	require.Len(t, client.messages, 1)
	assert.Equal(t, SubjectWinnerPicked, client.messages[0].subject)

	envelope, err := DecodeEnvelope(client.messages[0].data)
	require.NoError(t, err)
	assert.Equal(t, string(events.EventTypeWinnerPicked), envelope.EventType)
	assert.Equal(t, "raffle", envelope.SourceService)
	assert.True(t, fixed.Equal(envelope.Timestamp))
	_, err = uuid.Parse(envelope.EventID)
	assert.NoError(t, err)

	var payload events.WinnerPickedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestNATSEventPublisher_PublishErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "no stream bound is ignored", err: errors.New("nats: no response from stream"), wantErr: false},
		{name: "other errors are returned", err: errors.New("connection closed"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			publisher := newNATSEventPublisher(&fakeMessagePublisher{err: tt.err}, NewEventSubjectMapper())
			err := publisher.Publish(events.RaffleDeployedEvent{RaffleID: 1})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeEnvelope_RejectsMissingType(t *testing.T) {
	t.Parallel()

	_, err := DecodeEnvelope([]byte(`{"event_id":"x"}`))
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
}

func TestEventSubjectMapper_RoundTrip(t *testing.T) {
	t.Parallel()

	mapper := NewEventSubjectMapper()
	all := []events.Event{
		events.RaffleDeployedEvent{},
		events.PlayerEnteredEvent{},
		events.WinnerPickedEvent{},
		events.BalanceChangeEvent{},
	}

	subjects := mapper.GetAllSubjects()
	require.Len(t, subjects, len(all))
	for _, event := range all {
		subject := mapper.MapEventToSubject(event)
		assert.Contains(t, subjects, subject)
		assert.Equal(t, event.Type(), mapper.MapSubjectToEventType(subject))
	}
}
