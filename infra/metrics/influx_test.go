package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/marovik/fleetopt/core/metrics"
)

func TestInfluxSink_RecordSolve(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	rec := coremetrics.SolveRecord{
		RunID:     "run-1",
		Status:    "optimal",
		TotalCost: 1234.5678,
		TotalDWT:  5000,
		AvgSafety: 3.25,
		FleetSize: 3,
		Nodes:     17,
		Runtime:   1500 * time.Millisecond,
		Time:      now,
	}

	if err := sink.RecordSolve(rec); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("fleet_solve").
		AddTag("run_id", "run-1").
		AddTag("status", "optimal").
		AddTag("component", "solver").
		AddField("total_cost", 1234.568).
		AddField("total_dwt", 5000.0).
		AddField("avg_safety", 3.25).
		AddField("fleet_size", 3).
		AddField("nodes", 17).
		AddField("runtime_ms", 1500.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxSink_RecordFrontierShadowField(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	points := []coremetrics.FrontierPoint{
		{RunID: "run-1", SafetyFloor: 3, TotalCost: 100, FleetSize: 2, Time: now},
		{RunID: "run-1", SafetyFloor: 3.5, TotalCost: 130, FleetSize: 2, ShadowPrice: 60, HasShadow: true, Time: now},
	}
	if err := sink.RecordFrontier(points); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(bodies))
	}
	if strings.Contains(bodies[0], "shadow_price") {
		t.Errorf("first point should not carry a shadow price: %s", bodies[0])
	}
	if !strings.Contains(bodies[1], "shadow_price=60") {
		t.Errorf("second point missing shadow price: %s", bodies[1])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
}
