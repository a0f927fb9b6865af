package engine

// Decay cycle orchestration lives in scheduler.go; victim selection in
// selector.go; stage arithmetic in stage.go.
//
// Decay model:
//   - Capacity compounds down by decayPercent every interval, computed from
//     the CURRENT capacity, never the starting one
//   - Items degrade at most one stage per cycle, lowest semantic score first
//   - Stage sizes multiply the current size: x0.7, x0.3, x0.1, then 0
//   - Selection stops as soon as projected storage fits the new capacity
//   - A non-positive target degrades every eligible item exactly once
//   - Computed in Go (not SQL) because modernc.org/sqlite lacks pow()
