// Package events defines the analysis related events emitted on the event bus.
//
// Available event types:
//   - StageEvent: analysis stage lifecycle and failures
//   - SolveEvent: finished exact fleet selection
//   - FrontierEvent: finished safety floor sweep
//   - AttributionEvent: finished cost attribution sampling
//   - RobustnessEvent: finished composition walk
//   - SensitivityEvent: finished carbon price sweep
package events
