package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/service"
)

type fakeImporter struct {
	imported  []service.CreateReservation
	forgotten []string
	err       error
}

func (f *fakeImporter) ImportReservation(_ context.Context, in service.CreateReservation) (model.Reservation, error) {
	f.imported = append(f.imported, in)
	return model.Reservation{ID: in.ID}, f.err
}

func (f *fakeImporter) ForgetReservation(_ context.Context, id string) error {
	f.forgotten = append(f.forgotten, id)
	return f.err
}

func TestBookingCreatedImportsReservation(t *testing.T) {
	imp := &fakeImporter{}
	h := BookingHandlers(imp, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := h[TopicBookingCreated](context.Background(), kafka.Message{Value: []byte(`{
		"reservation_id":"r1","start_time":"2025-03-04T09:00:00Z","duration":"1h30min",
		"customer_email":"a@example.com","service_title":"Boiler","created_at":"2025-03-01T08:00:00Z"}`)})
	require.NoError(t, err)
	require.Len(t, imp.imported, 1)
	in := imp.imported[0]
	assert.Equal(t, "r1", in.ID)
	assert.Equal(t, "1h30min", in.Duration)
	assert.True(t, in.Start.Equal(time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)))
	assert.True(t, in.CreatedAt.Equal(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)))
}

func TestBookingCreatedDropsBadPayloads(t *testing.T) {
	imp := &fakeImporter{}
	h := BookingHandlers(imp, slog.New(slog.NewTextHandler(io.Discard, nil)))[TopicBookingCreated]

	require.NoError(t, h(context.Background(), kafka.Message{Value: []byte(`not json`)}))
	require.NoError(t, h(context.Background(), kafka.Message{Value: []byte(`{"reservation_id":"r1","start_time":"soon","duration":"1h"}`)}))
	assert.Empty(t, imp.imported)

	imp.err = duration.ErrInvalidFormat
	require.NoError(t, h(context.Background(), kafka.Message{Value: []byte(`{"reservation_id":"r1","start_time":"2025-03-04T09:00:00Z","duration":"x"}`)}))

	imp.err = errors.New("db down")
	assert.Error(t, h(context.Background(), kafka.Message{Value: []byte(`{"reservation_id":"r1","start_time":"2025-03-04T09:00:00Z","duration":"1h"}`)}))
}

func TestBookingCancelledForgetsReservation(t *testing.T) {
	imp := &fakeImporter{}
	h := BookingHandlers(imp, slog.New(slog.NewTextHandler(io.Discard, nil)))[TopicBookingCancelled]

	require.NoError(t, h(context.Background(), kafka.Message{Value: []byte(`{"reservation_id":" r7 "}`)}))
	require.NoError(t, h(context.Background(), kafka.Message{Value: []byte(`{}`)}))
	assert.Equal(t, []string{"r7"}, imp.forgotten)
}
