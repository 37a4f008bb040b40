package repository

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"ForecastAPI/internal/domain/models"
	pkgkafka "ForecastAPI/pkg/kafka"

	"github.com/segmentio/kafka-go"
)

type captureWriter struct {
	msgs []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaPredictionPublisher(t *testing.T) {
	w := &captureWriter{}
	prod, err := pkgkafka.NewProducer(pkgkafka.WithWriter(w))
	if err != nil {
		t.Fatal(err)
	}
	pub := NewKafkaPredictionPublisher(prod, "forecast.predictions")

	ev := &models.PredictionEvent{
		ID:        "b7c1",
		Ticker:    "PETR4.SA",
		Price:     37.12,
		LastClose: 36.9,
		CreatedAt: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := pub.Publish(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	m := w.msgs[0]
	if m.Topic != "forecast.predictions" || string(m.Key) != "PETR4.SA" {
		t.Errorf("topic/key = %s/%s", m.Topic, m.Key)
	}
	var got models.PredictionEvent
	if err := json.Unmarshal(m.Value, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != ev.ID || got.Price != ev.Price || got.LastClose != ev.LastClose || !got.CreatedAt.Equal(ev.CreatedAt) {
		t.Errorf("payload = %+v", got)
	}
}

func TestCHHistoryRejectsBadTable(t *testing.T) {
	for _, table := range []string{"closes; DROP TABLE x", "1abc", "a.b.c", ""} {
		if _, err := NewCHHistory(nil, table, "PETR4.SA", nil); err == nil {
			t.Errorf("table %q accepted", table)
		}
	}
}

func TestHistorySchema(t *testing.T) {
	stmts := HistorySchema("forecast.daily_closes")
	if len(stmts) != 1 || !strings.Contains(stmts[0], "CREATE TABLE IF NOT EXISTS forecast.daily_closes") {
		t.Errorf("unexpected schema %v", stmts)
	}
}

func TestReverse(t *testing.T) {
	v := []float64{3, 2, 1}
	reverse(v)
	if !reflect.DeepEqual(v, []float64{1, 2, 3}) {
		t.Errorf("got %v", v)
	}
}
