package workflow

import "time"

// Session binds a machine to its page-scoped identity. Sessions live only
// in memory; navigating away or restarting the agent discards them.
type Session struct {
	ID        string
	Machine   *Machine
	CreatedAt time.Time
}
