// Package engine implements the Tractor (Finding Friends) rules.
//
// The package is a pure rules evaluator: it holds no game state, performs no
// I/O and has no dependencies outside the standard library. Callers pass the
// hands, bid history, trick format and rules for every query. The service
// adapter in service/internal/game exposes it over HTTP, websockets and
// Nakama RPCs.
//
// Cards are packed into a single byte (suit in the high nibble, rank in the
// low nibble) and hands are multisets keyed by card identity. Every
// configurable axis is a closed uint8 policy enum whose behavior lives in a
// table indexed by the enum, next to the code that consults it.
package engine
