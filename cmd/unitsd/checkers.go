package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/units-io/units/core/rawdb"
	"github.com/units-io/units/core/types"
	"github.com/units-io/units/node"
	"github.com/units-io/units/scheduler"
)

const httpShutdownGrace = 10 * time.Second

// limitConnections caps in-flight requests at max using a buffered
// channel as a semaphore; max<=0 means unbounded.
func limitConnections(next http.Handler, max int) http.Handler {
	if max <= 0 {
		return next
	}
	sem := make(chan struct{}, max)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		default:
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
		}
	})
}

// storageChecker reports the object store healthy as long as a sentinel
// lookup doesn't error; ObjectStorage has no "ping" of its own.
type storageChecker struct {
	objects rawdb.ObjectStorage
}

func (c storageChecker) Check() *node.SubsystemHealth {
	if _, _, err := c.objects.Get(types.ObjectId{}); err != nil {
		return &node.SubsystemHealth{Status: node.StatusUnhealthy, Message: err.Error()}
	}
	return &node.SubsystemHealth{Status: node.StatusHealthy}
}

// schedulerChecker always reports the scheduler healthy, with its current
// slot as the message; it has no degraded or unhealthy result.
type schedulerChecker struct {
	sched *scheduler.Scheduler
}

func (c schedulerChecker) Check() *node.SubsystemHealth {
	return &node.SubsystemHealth{Status: node.StatusHealthy, Message: "slot " + strconv.FormatUint(c.sched.CurrentSlot(), 10)}
}

// rpcChecker is a placeholder confirming the process reached the point of
// registering the rpc mux; a failed http.Server.ListenAndServe is
// reported separately on rpcService.errCh, which run() selects on.
type rpcChecker struct{}

func (rpcChecker) Check() *node.SubsystemHealth {
	return &node.SubsystemHealth{Status: node.StatusHealthy}
}
