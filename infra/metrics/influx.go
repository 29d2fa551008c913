package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/marovik/fleetopt/core/metrics"
	"github.com/marovik/fleetopt/infra/logger"
)

// InfluxSink writes analysis results to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// RecordSolve writes the solve result as a line protocol point.
func (s *InfluxSink) RecordSolve(rec coremetrics.SolveRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_solve").
		AddTag("run_id", rec.RunID).
		AddTag("status", rec.Status).
		AddTag("component", "solver").
		AddField("total_cost", round3(rec.TotalCost)).
		AddField("total_dwt", round3(rec.TotalDWT)).
		AddField("avg_safety", round3(rec.AvgSafety)).
		AddField("fleet_size", rec.FleetSize).
		AddField("nodes", rec.Nodes).
		AddField("runtime_ms", round3(rec.Runtime.Seconds()*1000)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFrontier writes one point per swept safety floor.
func (s *InfluxSink) RecordFrontier(points []coremetrics.FrontierPoint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, fp := range points {
		p := write.NewPointWithMeasurement("frontier_point").
			AddTag("run_id", fp.RunID).
			AddTag("safety_floor", formatLabel(fp.SafetyFloor)).
			AddTag("component", "pareto").
			AddField("total_cost", round3(fp.TotalCost)).
			AddField("fleet_size", fp.FleetSize)
		if fp.HasShadow {
			p = p.AddField("shadow_price", round3(fp.ShadowPrice))
		}
		p = p.SetTime(fp.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordShapley writes one attribution point per vessel.
func (s *InfluxSink) RecordShapley(rows []coremetrics.ShapleyValue) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range rows {
		p := write.NewPointWithMeasurement("shapley_value").
			AddTag("run_id", r.RunID).
			AddTag("vessel_id", r.VesselID).
			AddTag("category", r.Category).
			AddTag("component", "shapley").
			AddField("value", round3(r.Value)).
			AddField("std_err", round3(r.StdErr)).
			AddField("rank", r.Rank).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordRobustness writes one frequency point per vessel.
func (s *InfluxSink) RecordRobustness(rows []coremetrics.SelectionFrequency) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range rows {
		p := write.NewPointWithMeasurement("selection_frequency").
			AddTag("run_id", r.RunID).
			AddTag("vessel_id", r.VesselID).
			AddTag("category", r.Category).
			AddTag("component", "robustness").
			AddField("frequency", round3(r.Frequency)).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordSensitivity writes one point per grid cell.
func (s *InfluxSink) RecordSensitivity(cells []coremetrics.SensitivityCell) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, c := range cells {
		p := write.NewPointWithMeasurement("sensitivity_cell").
			AddTag("run_id", c.RunID).
			AddTag("carbon_price", formatLabel(c.CarbonPrice)).
			AddTag("safety_floor", formatLabel(c.SafetyThreshold)).
			AddTag("feasible", strconv.FormatBool(c.Feasible)).
			AddTag("component", "sensitivity").
			AddField("total_cost", round3(c.TotalCost)).
			SetTime(c.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordStage writes a stage transition point.
func (s *InfluxSink) RecordStage(rec coremetrics.StageRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("analysis_stage").
		AddTag("run_id", rec.RunID).
		AddTag("stage", rec.Stage).
		AddTag("action", rec.Action).
		AddField("runtime_ms", round3(rec.Runtime.Seconds()*1000)).
		AddField("errors", rec.Error).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
