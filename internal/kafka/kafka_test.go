package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestTopicsReady(t *testing.T) {
	tests := []struct {
		name string
		errs map[string]error
		want bool
	}{
		{"created", map[string]error{"resize-tasks": nil}, true},
		{"already exists", map[string]error{"resize-tasks": kafkago.TopicAlreadyExists}, true},
		{"empty response", map[string]error{}, true},
		{"broker error", map[string]error{"resize-tasks": errors.New("not controller")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, topicsReady(tt.errs))
		})
	}
}

func TestWaitKafkaReady_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// порт 1 никто не слушает
	err := WaitKafkaReady(ctx, "127.0.0.1:1", 10*time.Millisecond)
	require.ErrorIs(t, err, context.Canceled)
}
