package bus

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"github.com/segmentio/kafka-go"
)

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink forwards bus events to a Kafka topic, keyed by owner so each
// owner's events stay ordered within a partition. Delivery is best-effort;
// a broker outage costs events, never a decay cycle.
type KafkaSink struct {
	writer kafkaMessageWriter
	closer io.Closer
	events <-chan Event
	unsub  func()
	done   chan struct{}
}

// NewKafkaSink subscribes to the bus and starts forwarding events to the
// given brokers.
func NewKafkaSink(brokers []string, topic string, b *Bus) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaSink(w, w, b)
}

func newKafkaSink(w kafkaMessageWriter, closer io.Closer, b *Bus) *KafkaSink {
	events, unsub := b.Subscribe(256)
	s := &KafkaSink{
		writer: w,
		closer: closer,
		events: events,
		unsub:  unsub,
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *KafkaSink) run() {
	defer close(s.done)
	for ev := range s.events {
		value, err := json.Marshal(ev)
		if err != nil {
			log.Printf("kafka sink: marshal event: %v", err)
			continue
		}
		msg := kafka.Message{Key: []byte(ev.OwnerID), Value: value}
		if err := s.writer.WriteMessages(context.Background(), msg); err != nil {
			log.Printf("kafka sink: write %s: %v", ev.Type, err)
		}
	}
}

// Close unsubscribes from the bus, drains in-flight events, and closes the
// underlying writer.
func (s *KafkaSink) Close() error {
	s.unsub()
	<-s.done
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
