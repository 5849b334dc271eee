package outbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/md-rashed-zaman/techsched/libs/kafkax"
)

func TestNewEvent(t *testing.T) {
	evt, err := NewEvent("reservation", "r1", EventReservationCreated, map[string]string{"id": "r1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"r1"}`, string(evt.Payload))
	assert.Equal(t, "reservation.created.v1", evt.EventType)

	_, err = NewEvent("reservation", "r1", EventReservationCreated, make(chan int))
	assert.Error(t, err)
}

func TestToMessage(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	msg := ToMessage(context.Background(), Record{
		EventID:     "7b0c3c5e-0000-4000-8000-000000000001",
		AggregateID: "r1",
		EventType:   EventReservationCancelled,
		Payload:     []byte(`{}`),
		Traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	})
	assert.Equal(t, EventReservationCancelled, msg.Topic)
	assert.Equal(t, []byte("r1"), msg.Key)

	meta := kafkax.ExtractEventMeta(msg)
	assert.Equal(t, "7b0c3c5e-0000-4000-8000-000000000001", meta.EventID)
	assert.Equal(t, EventReservationCancelled, meta.EventType)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", kafkax.HeaderValue(msg.Headers, "traceparent"))
}
