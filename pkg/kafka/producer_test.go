package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

type memWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &memWriter{}
	reg := prometheus.NewRegistry()
	p, err := NewProducer(WithWriter(w), WithRegisterer(reg))
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Publish(context.Background(), "forecast.predictions", []byte("PETR4.SA"), map[string]float64{"price": 37.1}); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	m := w.msgs[0]
	if m.Topic != "forecast.predictions" || string(m.Key) != "PETR4.SA" || string(m.Value) != `{"price":37.1}` {
		t.Errorf("unexpected message %+v", m)
	}

	families, _ := reg.Gather()
	if len(families) == 0 {
		t.Error("producer metrics not registered")
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("close: %v closed=%v", err, w.closed)
	}
}

func TestPublishError(t *testing.T) {
	boom := errors.New("broker down")
	p, _ := NewProducer(WithWriter(&memWriter{err: boom}))
	if err := p.Publish(context.Background(), "t", nil, "v"); !errors.Is(err, boom) {
		t.Errorf("got %v", err)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Error("expected error without brokers")
	}
}
