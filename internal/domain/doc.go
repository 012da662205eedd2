// Package domain contains the core domain entities and value objects for liveagent.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, websockets, storage, logging)
// and contains only the rules of the reload protocol.
//
// # Entities
//
//   - [CycleState]: the reload cycle state (Idle, Running, RunningWithPending)
//   - [ReloadMode]: soft (in-place head/body swap) or hard (full navigation)
//   - [ScrollSnapshot]: window and tagged-element scroll offsets, keyed for session storage
//
// # Wire Contract
//
// The constants in marker.go are the compatibility point with the reload
// server: the channel path, the probe query marker and the meta tag a healthy
// probe response must carry.
package domain
