// This file contains the background consumer that listens to the
// cartelera.changes queue and appends a line per change to
// logs/changes.log, giving operators a plain-text audit trail even when
// the MySQL archive is disabled.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartChangeConsumer connects to RabbitMQ, declares the durable
// cartelera.changes queue and consumes batches forever.  It runs a
// reconnect loop with capped backoff; processing errors are logged and the
// offending message rejected without requeue so the consumer never spins on
// a poison message.
func StartChangeConsumer() error {
	url := BrokerURL()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("change-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("change-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("change-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(changesQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(changesQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleBatch(d.Body); err != nil {
			log.Printf("change-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleBatch(body []byte) error {
	var batch ChangeBatchEvent
	if err := json.Unmarshal(body, &batch); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "changes.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	for _, ev := range batch.Events {
		line := fmt.Sprintf("[%s] %s | key=%s | show=%q | session=%s %s | delta=%d | sold=%s | capacity=%s | remaining=%s\n",
			batch.CycleAt, ev.Kind, ev.Key, ev.Show, ev.DateLabel, ev.Time, ev.Delta,
			fmtCount(ev.Sold), fmtCount(ev.Capacity), fmtCount(ev.Remaining))
		if _, err := f.WriteString(line); err != nil {
			return fmt.Errorf("write log: %w", err)
		}
	}
	return nil
}

func fmtCount(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
