package reminders

import (
	"container/heap"
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/notify"
)

// Store persists deferred jobs so they survive a restart.
type Store interface {
	SaveJobs(ctx context.Context, jobs []Job) error
	DeleteJob(ctx context.Context, reservationID string, kind Kind) error
	DeleteJobs(ctx context.Context, reservationID string) error
	PendingJobs(ctx context.Context) ([]Job, error)
}

type Config struct {
	Clock    clockwork.Clock
	Store    Store
	Notifier notify.Notifier
	Logger   *slog.Logger
	// Location is used to render the start time in messages.
	Location *time.Location
}

type ArmResult struct {
	Scheduled []Job
	Immediate []Job
	Skipped   []Kind
}

// Scheduler owns a single worker goroutine that fires jobs in fire-time order.
type Scheduler struct {
	clock    clockwork.Clock
	store    Store
	notifier notify.Notifier
	logger   *slog.Logger
	loc      *time.Location

	mu    sync.Mutex
	queue jobQueue
	live  map[jobKey]uint64
	seq   uint64

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once    sync.Once
	started atomic.Bool
	// idle is called each time the worker blocks; tests use it to sync.
	idle func()
}

func NewScheduler(cfg Config) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.LogNotifier{Logger: cfg.Logger}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		clock:    cfg.Clock,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		loc:      cfg.Location,
		live:     map[jobKey]uint64{},
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start reloads persisted jobs and launches the worker. Overdue jobs fire
// right away. Start must be called once; the worker runs until ctx is done or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.store != nil {
		jobs, err := s.store.PendingJobs(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		for _, j := range jobs {
			s.pushLocked(j)
		}
		s.mu.Unlock()
		if len(jobs) > 0 {
			s.logger.Info("reminder jobs restored", "count", len(jobs))
		}
	}
	s.started.Store(true)
	go s.run(ctx)
	return nil
}

// Stop signals the worker and waits for it to exit.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}

// Arm plans the reminders for r, replacing any previously armed for it.
// Offsets whose fire time predates r.CreatedAt are skipped, except the last
// call, which fires immediately when booked inside its lead. Due jobs are
// handed to the worker; Arm never waits for a notification.
func (s *Scheduler) Arm(ctx context.Context, r model.Reservation) (ArmResult, error) {
	s.mu.Lock()
	s.dropLocked(r.ID)
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.DeleteJobs(ctx, r.ID); err != nil {
			return ArmResult{}, err
		}
	}

	now := s.clock.Now()
	var res ArmResult
	for _, o := range Offsets {
		j := Job{
			ReservationID: r.ID,
			Kind:          o.Kind,
			Recipient:     r.CustomerEmail,
			ServiceTitle:  r.ServiceTitle,
			Start:         r.Start,
			FireAt:        r.Start.Add(-o.Lead),
		}
		switch {
		case !now.Before(r.Start):
			res.Skipped = append(res.Skipped, o.Kind)
		case j.FireAt.Before(r.CreatedAt):
			if o.LastCall && r.CreatedAt.Before(r.Start) {
				j.FireAt = now
				res.Immediate = append(res.Immediate, j)
			} else {
				res.Skipped = append(res.Skipped, o.Kind)
			}
		case !j.FireAt.After(now):
			res.Immediate = append(res.Immediate, j)
		default:
			res.Scheduled = append(res.Scheduled, j)
		}
	}

	if s.store != nil && len(res.Scheduled) > 0 {
		if err := s.store.SaveJobs(ctx, res.Scheduled); err != nil {
			return ArmResult{}, err
		}
	}

	s.mu.Lock()
	for _, j := range res.Immediate {
		s.pushLocked(j)
	}
	for _, j := range res.Scheduled {
		s.pushLocked(j)
	}
	s.mu.Unlock()
	s.signal()

	s.logger.Debug("reminders armed", "reservation_id", r.ID,
		"scheduled", len(res.Scheduled), "immediate", len(res.Immediate), "skipped", len(res.Skipped))
	return res, nil
}

// Cancel voids every pending job of the reservation.
func (s *Scheduler) Cancel(ctx context.Context, reservationID string) error {
	s.mu.Lock()
	removed := s.dropLocked(reservationID)
	s.compactLocked()
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.DeleteJobs(ctx, reservationID); err != nil {
			return err
		}
	}
	if removed {
		s.signal()
	}
	return nil
}

// Pending lists live jobs in fire-time order.
func (s *Scheduler) Pending() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Job
	for _, e := range s.queue {
		if s.live[e.job.key()] == e.gen {
			out = append(out, e.job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

func (s *Scheduler) dropLocked(reservationID string) bool {
	removed := false
	for k := range s.live {
		if k.reservationID == reservationID {
			delete(s.live, k)
			removed = true
		}
	}
	return removed
}

func (s *Scheduler) pushLocked(j Job) {
	s.seq++
	s.live[j.key()] = s.seq
	heap.Push(&s.queue, entry{job: j, gen: s.seq})
	s.compactLocked()
}

// minCompact is the queue length below which stale entries are left alone.
const minCompact = 64

// compactLocked drops stale entries once they outnumber live ones, so
// repeated re-arming keeps the queue within twice the live job count.
func (s *Scheduler) compactLocked() {
	if len(s.queue) < minCompact || len(s.queue) <= 2*len(s.live) {
		return
	}
	s.queue.retain(func(e entry) bool { return s.live[e.job.key()] == e.gen })
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// nextLocked drops cancelled entries and returns the earliest live one.
func (s *Scheduler) nextLocked() (entry, bool) {
	for s.queue.Len() > 0 {
		top := s.queue[0]
		if s.live[top.job.key()] == top.gen {
			return top, true
		}
		heap.Pop(&s.queue)
	}
	return entry{}, false
}

// takeDue pops the earliest live job if it is due at now.
func (s *Scheduler) takeDue(now time.Time) (Job, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	top, ok := s.nextLocked()
	if !ok {
		return Job{}, -1, false
	}
	if wait := top.job.FireAt.Sub(now); wait > 0 {
		return Job{}, wait, false
	}
	heap.Pop(&s.queue)
	delete(s.live, top.job.key())
	return top.job, 0, true
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		job, wait, ok := s.takeDue(s.clock.Now())
		if ok {
			s.fire(ctx, job)
			continue
		}

		var timer clockwork.Timer
		var fired <-chan time.Time
		if wait > 0 {
			timer = s.clock.NewTimer(wait)
			fired = timer.Chan()
		}
		if s.idle != nil {
			s.idle()
		}
		select {
		case <-ctx.Done():
		case <-s.stop:
		case <-s.wake:
		case <-fired:
		}
		if timer != nil {
			timer.Stop()
		}
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, j Job) {
	msg := notify.Message{
		ReservationID: j.ReservationID,
		Recipient:     j.Recipient,
		Kind:          string(j.Kind),
		Subject:       "Appointment reminder",
		Text:          j.Text(s.loc),
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Error("reminder delivery failed", "err", err, "reservation_id", j.ReservationID, "kind", j.Kind)
	} else {
		s.logger.Info("reminder sent", "reservation_id", j.ReservationID, "kind", j.Kind)
	}
	if s.store != nil {
		if err := s.store.DeleteJob(ctx, j.ReservationID, j.Kind); err != nil {
			s.logger.Error("reminder job cleanup failed", "err", err, "reservation_id", j.ReservationID, "kind", j.Kind)
		}
	}
}
