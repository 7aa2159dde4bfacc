package redisx

import "time"

const (
	// Cache of a lot's status: lot_status:{lot_id} -> {"status": "..."}
	KeyLotStatus = "lot_status:%s"

	// Cache of an order's status: order_status:{order_id}
	KeyOrderStatus = "order_status:%s"

	// Dedup for processed advisories/events: dedup:{service}:{id}
	KeyDedup = "dedup:%s:%s"

	// Timestamp of the last completed recall sweep.
	KeySweepLastRun = "recall:last_run"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
