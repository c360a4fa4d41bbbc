package control

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// newTickerFn returns the master clock channel and its stop function.
var newTickerFn = func(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type Config struct {
	Scheduler SchedulerConfig

	// TickInterval is the master clock period; 1ms gives the 1 kHz loop.
	TickInterval time.Duration
	// QueueSize bounds pending events.
	QueueSize int
}

// Service runs a Scheduler on its own goroutine. Hardware callbacks and the
// user interface post events; the loop goroutine is the only writer of
// control state.
type Service struct {
	cfg   Config
	sched *Scheduler

	events chan Event

	wg sync.WaitGroup

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewService(cfg Config, hw Hardware) (*Service, error) {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Millisecond
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	sched, err := NewScheduler(cfg.Scheduler, hw)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:    cfg,
		sched:  sched,
		events: make(chan Event, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}, nil
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("control: service is nil")
	}
	if err := s.sched.Start(); err != nil {
		return err
	}

	ticks, stopTicker := newTickerFn(s.cfg.TickInterval)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer stopTicker()
		s.runClock(ctx, ticks)
	}()
	go func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.stopCh:
		}
	}()
	return nil
}

func (s *Service) runClock(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticks:
			if !s.Post(Event{Kind: EventTick}) {
				return
			}
		}
	}
}

func (s *Service) runLoop(ctx context.Context) {
	defer func() {
		// Leave the motor unpowered however the loop exits.
		if err := s.sched.Handle(Event{Kind: EventStop}); err != nil {
			log.Printf("control: stop failed: %v", err)
		}
	}()

	var lastErr string
	lastADCErrors := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case ev := <-s.events:
			wasStalled := s.sched.st.Stalled
			if err := s.sched.Handle(ev); err != nil && err.Error() != lastErr {
				lastErr = err.Error()
				log.Printf("control: %s event failed: %v", ev.Kind, err)
			}
			if st := s.sched.st.Stalled; st != wasStalled {
				if st {
					log.Printf("control: motor stalled setpoint=%d; output forced off", s.sched.st.Setpoint)
				} else {
					log.Printf("control: stall cleared setpoint=%d", s.sched.st.Setpoint)
				}
			}
			if n := s.sched.adcErrors; n != lastADCErrors && ev.Kind == EventTick && s.sched.current.Count() == 0 {
				log.Printf("control: adc read errors=%d last=%s", n, s.sched.lastErr)
				lastADCErrors = n
			}
		}
	}
}

// Post queues an event for the loop. It blocks while the queue is full and
// returns false once the service is closed.
func (s *Service) Post(ev Event) bool {
	select {
	case <-s.stopCh:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.stopCh:
		return false
	}
}

// PulseEdge is the speed sensor callback.
func (s *Service) PulseEdge() { s.Post(Event{Kind: EventPulseEdge}) }

// PhaseExpired is the PWM phase timer callback.
func (s *Service) PhaseExpired() { s.Post(Event{Kind: EventPhaseExpired}) }

// Button is the reset button callback.
func (s *Service) Button() { s.Post(Event{Kind: EventButton}) }

// SetSetpoint commits a new target speed.
func (s *Service) SetSetpoint(v uint32) {
	s.Post(Event{Kind: EventSetpoint, Setpoint: v})
}

// Report returns the latest published snapshot.
func (s *Service) Report() Report {
	if s == nil {
		return Report{}
	}
	return s.sched.Report()
}

// Ready is signalled each time a new report is published.
func (s *Service) Ready() <-chan struct{} {
	return s.sched.Ready()
}

// Close stops the loop and leaves the output low. It is safe to call more
// than once.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}
