package metrics

import (
	"context"
	"time"

	"github.com/marovik/fleetopt/core/events"
	coremetrics "github.com/marovik/fleetopt/core/metrics"
	"github.com/marovik/fleetopt/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// lifecycle events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.SolveEvent:
					_ = sink.RecordSolve(coremetrics.SolveRecord{
						RunID:     e.RunID,
						Status:    e.Status,
						TotalCost: e.Fleet.TotalCost,
						TotalDWT:  e.Fleet.TotalDWT,
						AvgSafety: e.Fleet.AvgSafety,
						FleetSize: e.Fleet.Size,
						Nodes:     e.Nodes,
						Runtime:   e.Runtime,
						Time:      time.Now(),
					})
				case events.StageEvent:
					if r, ok := sink.(coremetrics.StageRecorder); ok {
						errStr := ""
						if e.Err != nil {
							errStr = e.Err.Error()
						}
						_ = r.RecordStage(coremetrics.StageRecord{
							RunID:   e.RunID,
							Stage:   e.Stage,
							Action:  e.Action,
							Error:   errStr,
							Runtime: e.Runtime,
							Time:    time.Now(),
						})
					}
				}
			}
		}
	}()
}
