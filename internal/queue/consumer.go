// Package queue contains the RabbitMQ publisher for session events and
// the background consumer that writes them to the booking audit log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/goaltime/goaltime/internal/logger"
	"github.com/goaltime/goaltime/internal/metrics"
)

// NewBookingLog opens the rotating audit log the consumer appends to.
func NewBookingLog(path string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir booking log dir: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}, nil
}

// StartBookingConsumer consumes the session events queue and appends one
// line per event to w.  It reconnects with exponential backoff until ctx
// is cancelled, then returns ctx.Err().
func StartBookingConsumer(ctx context.Context, url, queue string, w io.Writer) error {
	log := logger.FromContext(ctx).With().Str("component", "booking-consumer").Logger()

	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queue, w)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, w io.Writer) error {
	log := logger.FromContext(ctx)

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(w, d.Body); err != nil {
				log.Error().Err(err).Msg("handle message failed")
				metrics.RecordEventConsumed("rejected")
				_ = d.Nack(false, false) // do not requeue poison messages
				continue
			}
			metrics.RecordEventConsumed("ok")
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes a SessionEvent and writes its audit line to w.
func HandleMessage(w io.Writer, body []byte) error {
	var ev SessionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.SessionID == 0 {
		return errors.New("event missing type or session_id")
	}
	line := fmt.Sprintf("[%s] %s | event_id=%s | session_id=%d | user_id=%d | stadium_id=%d | stadium=%q | date=%s | time=%s-%s | price=%.2f\n",
		ev.OccurredAt, ev.Type, ev.ID, ev.SessionID, ev.UserID, ev.StadiumID, ev.StadiumName,
		ev.Date, ev.StartTime, ev.EndTime, ev.Price)
	if _, err := io.WriteString(w, line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
