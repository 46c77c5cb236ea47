// Package conversation defines the boundary between chat transports and the
// per-user state machines behind them: inbound events, outgoing messages with
// keyboard hints, and the Engine contract every bot implements.
package conversation
