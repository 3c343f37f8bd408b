package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sceneseek/sceneseek/internal/event"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

type captureRepo struct {
	batches [][]event.Event
	err     error
}

func (r *captureRepo) Upsert(ctx context.Context, events []event.Event) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, events)
	return nil
}

func testHandler(repo *captureRepo) (*Handler, *Metrics) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := NewMetrics()
	h := NewHandler(repo, metrics, logger).WithNow(func() time.Time { return testNow })
	return h, metrics
}

func eventsPayload(t *testing.T, source string, events ...map[string]any) []byte {
	t.Helper()
	payload, err := EncodeEnvelope(&Envelope{
		Source: source,
		TimeUS: testNow.UnixMicro(),
		Kind:   KindEvents,
		Events: encodeEvents(t, events...),
	})
	if err != nil {
		t.Fatal(err)
	}
	return payload
}

func TestHandler_UpsertsEnvelopeEvents(t *testing.T) {
	repo := &captureRepo{}
	h, metrics := testHandler(repo)

	payload := eventsPayload(t, "partner-a",
		map[string]any{"name": "Salsa Night", "date": "2026-06-20", "region": "Basel"},
		map[string]any{"name": "Salsa Night", "date": "2026-06-20"}, // duplicate
		map[string]any{"region": "Basel"},                           // no name, discarded
	)

	if err := h.Handle(websocket.BinaryMessage, payload); err != nil {
		t.Fatal(err)
	}

	if len(repo.batches) != 1 || len(repo.batches[0]) != 1 {
		t.Fatalf("batches = %v", repo.batches)
	}
	ev := repo.batches[0][0]
	if ev.Name != "Salsa Night" || ev.Region != "Basel" {
		t.Errorf("event = %+v", ev)
	}
	if ev.ID == "" {
		t.Error("normalization must assign an ID")
	}

	if got := testutil.ToFloat64(metrics.envelopesProcessed); got != 1 {
		t.Errorf("envelopes processed = %v", got)
	}
	if got := testutil.ToFloat64(metrics.eventsUpserted); got != 1 {
		t.Errorf("events upserted = %v", got)
	}
	if got := testutil.ToFloat64(metrics.eventsDiscarded); got != 1 {
		t.Errorf("events discarded = %v", got)
	}
}

func TestHandler_SkipsNonBinaryMessages(t *testing.T) {
	repo := &captureRepo{}
	h, metrics := testHandler(repo)

	if err := h.Handle(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatal(err)
	}
	if len(repo.batches) != 0 {
		t.Error("text message must not reach the repository")
	}
	if got := testutil.ToFloat64(metrics.envelopesProcessed); got != 0 {
		t.Errorf("envelopes processed = %v", got)
	}
}

func TestHandler_SkipsOtherEnvelopeKinds(t *testing.T) {
	repo := &captureRepo{}
	h, _ := testHandler(repo)

	payload, err := EncodeEnvelope(&Envelope{Source: "partner-a", Kind: "heartbeat"})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Handle(websocket.BinaryMessage, payload); err != nil {
		t.Fatal(err)
	}
	if len(repo.batches) != 0 {
		t.Error("heartbeat must not reach the repository")
	}
}

func TestHandler_UndecodableEnvelopeKeepsConnection(t *testing.T) {
	repo := &captureRepo{}
	h, metrics := testHandler(repo)

	if err := h.Handle(websocket.BinaryMessage, []byte("garbage not cbor")); err != nil {
		t.Errorf("err = %v, want nil (skip, don't disconnect)", err)
	}
	if got := testutil.ToFloat64(metrics.envelopesError); got != 1 {
		t.Errorf("envelope errors = %v", got)
	}
}

func TestHandler_UpsertFailureDisconnects(t *testing.T) {
	sentinel := errors.New("database down")
	repo := &captureRepo{err: sentinel}
	h, _ := testHandler(repo)

	payload := eventsPayload(t, "partner-a",
		map[string]any{"name": "Salsa Night", "date": "2026-06-20"},
	)
	if err := h.Handle(websocket.BinaryMessage, payload); !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want wrapped upsert error", err)
	}
}

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	// Double registration must fail.
	if err := metrics.Register(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}
