package main

import (
	"context"
	"net/http"

	"github.com/units-io/units/node"
	"github.com/units-io/units/scheduler"
)

// schedulerService adapts scheduler.Scheduler's Run loop to
// node.LifecycleManager's Service interface: Start launches the
// auto-advance ticker in a goroutine, Stop cancels its context.
type schedulerService struct {
	sched  *scheduler.Scheduler
	cancel context.CancelFunc
}

func newSchedulerService(sched *scheduler.Scheduler) *schedulerService {
	return &schedulerService{sched: sched}
}

func (s *schedulerService) Name() string { return "scheduler" }

func (s *schedulerService) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.sched.Run(ctx)
	return nil
}

func (s *schedulerService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// rpcService adapts an http.Server to node.LifecycleManager's Service
// interface: Start serves in the background and reports listen failures
// on errCh rather than blocking Start itself.
type rpcService struct {
	httpServer *http.Server
	errCh      chan error
}

func newRPCService(httpServer *http.Server) *rpcService {
	return &rpcService{httpServer: httpServer, errCh: make(chan error, 1)}
}

func (s *rpcService) Name() string { return "rpc" }

func (s *rpcService) Start() error {
	mainLog.Info("rpc server listening", "addr", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.errCh <- err
		}
	}()
	return nil
}

func (s *rpcService) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownGrace)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

var _ node.Service = (*schedulerService)(nil)
var _ node.Service = (*rpcService)(nil)
