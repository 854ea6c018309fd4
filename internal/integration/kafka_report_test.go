//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/adapter/kafka"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/config"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
)

const testRunTopic = "test-wheat-map-runs"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestRunReportRoundTrip verifies the notifier publishes a run report that a
// downstream consumer can read back intact.
func TestRunReportRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRunTopic)

	cfg := &config.Config{
		KafkaBrokers:  []string{broker},
		KafkaRunTopic: testRunTopic,
	}

	notifier := kafkaadapter.NewNotifier(cfg, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	report := domain.RunReport{
		RunID:            "run-integration01",
		StartedAt:        time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC),
		FinishedAt:       time.Date(2026, 1, 15, 3, 4, 30, 0, time.UTC),
		WindowStart:      "2025-12-01",
		WindowEnd:        "2026-01-15",
		ScenesDiscovered: 9,
		AlreadyProcessed: 6,
		Processed:        []string{"2026-01-11"},
		Failed:           []string{"2026-01-06"},
		Published:        true,
		LayersTotal:      7,
		PixelsTotal:      8400,
	}
	require.NoError(t, notifier.PublishRunReport(ctx, report))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testRunTopic,
		GroupID:     fmt.Sprintf("test-run-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from run topic")

	assert.Equal(t, "run-integration01", string(msg.Key))

	var decoded domain.RunReport
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, report, decoded)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "partial", headers["outcome"])
	_, err = time.Parse(time.RFC3339, headers["finished_at"])
	assert.NoError(t, err)
}
