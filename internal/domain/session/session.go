// Package session holds the kiosk's view of the employee currently at the
// clock: one observable, replaceable value with a controlled logout.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/pkg/logger"
	"github.com/okian/timeclock/pkg/metrics"
)

// Observer receives session changes. Any callback may be nil.
// Error and Complete are terminal; nothing is delivered after them.
type Observer struct {
	Next     func(*model.Employee)
	Error    func(error)
	Complete func()
}

type eventKind int

const (
	eventNext eventKind = iota
	eventError
	eventComplete
)

type event struct {
	kind   eventKind
	emp    *model.Employee
	err    error
	seq    uint64
	target int // 0 broadcasts
}

func (e event) terminal() bool { return e.kind != eventNext }

type subscriber struct {
	obs   Observer
	since uint64
}

// Ref is a handle to one loaded employee. It is created empty by
// Manager.Load and filled when the fetch completes.
type Ref struct {
	id         string
	employeeID string
	mgr        *Manager

	mu        sync.Mutex
	current   *model.Employee
	status    model.Status
	unsynced  int
	err       error
	closed    bool
	counted   bool
	selected  time.Time
	teardowns []func()

	subs     map[int]*subscriber
	nextSub  int
	seq      uint64
	pending  []event
	draining bool

	ready     chan struct{}
	readyOnce sync.Once
}

func newRef(m *Manager, employeeID string) *Ref {
	return &Ref{
		id:         uuid.NewString(),
		employeeID: employeeID,
		mgr:        m,
		selected:   model.DateOf(m.clock(), m.location),
		subs:       make(map[int]*subscriber),
		ready:      make(chan struct{}),
	}
}

// ID identifies this handle. Every load gets a new one.
func (r *Ref) ID() string { return r.id }

// EmployeeID is the id the handle was loaded for.
func (r *Ref) EmployeeID() string { return r.employeeID }

// Employee returns the current value, or nil before the first publish.
func (r *Ref) Employee() *model.Employee {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Status returns the availability flags of the last publish.
func (r *Ref) Status() model.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// UnsyncedPunches returns the backend's unsynced punch count of the last publish.
func (r *Ref) UnsyncedPunches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unsynced
}

// Err returns the load failure, if any.
func (r *Ref) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Live reports whether the handle can still publish.
func (r *Ref) Live() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed && r.err == nil
}

// SelectedDate returns the calendar cursor.
func (r *Ref) SelectedDate() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// SetSelectedDate moves the calendar cursor. It is not validated and does
// not publish.
func (r *Ref) SetSelectedDate(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = t
}

// OnTeardown registers f to run once at logout, in reverse registration
// order. On a closed handle f runs immediately.
func (r *Ref) OnTeardown(f func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		f()
		return
	}
	r.teardowns = append(r.teardowns, f)
	r.mu.Unlock()
}

// Subscribe registers o. A subscriber joining after a publish immediately
// receives the current value; one joining after a terminal event receives
// that event. The returned func unsubscribes.
func (r *Ref) Subscribe(o Observer) func() {
	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.subs[id] = &subscriber{obs: o, since: r.seq}

	unsubscribe := func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}

	switch {
	case r.err != nil:
		r.emitAndUnlock(event{kind: eventError, err: r.err, target: id})
	case r.closed:
		r.emitAndUnlock(event{kind: eventComplete, target: id})
	case r.current != nil:
		r.emitAndUnlock(event{kind: eventNext, emp: r.current, target: id})
	default:
		r.mu.Unlock()
	}
	return unsubscribe
}

// Wait blocks until the first publish, a load failure, logout or ctx end.
func (r *Ref) Wait(ctx context.Context) (*model.Employee, error) {
	select {
	case <-r.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.err != nil:
		return nil, r.err
	case r.current == nil:
		return nil, model.ErrSessionClosed
	}
	return r.current, nil
}

// Refresh fetches the employee again and replaces the value wholesale. On
// failure the previous value is kept and nothing is published.
func (r *Ref) Refresh(ctx context.Context) error {
	if !r.Live() {
		return model.ErrSessionClosed
	}

	res, err := r.mgr.fetch(ctx, r.employeeID)
	if err != nil {
		metrics.RecordEmployeeRefresh("error")
		r.mgr.logger.Warn(ctx, "refresh failed",
			logger.String("employee_id", r.employeeID),
			logger.Error(err),
		)
		return err
	}
	if !r.publish(ctx, res) {
		metrics.RecordEmployeeRefresh("discarded")
		return model.ErrSessionClosed
	}
	metrics.RecordEmployeeRefresh("ok")
	return nil
}

// Logout tears the session down: teardowns run, subscribers complete and
// the manager's logout hooks fire. Only the first call has any effect.
func (r *Ref) Logout(ctx context.Context, timeout bool) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	teardowns := r.teardowns
	r.teardowns = nil
	counted := r.counted
	r.mu.Unlock()

	for i := len(teardowns) - 1; i >= 0; i-- {
		teardowns[i]()
	}

	r.mu.Lock()
	r.emitAndUnlock(event{kind: eventComplete})
	r.markReady()

	kind := "explicit"
	if timeout {
		kind = "timeout"
		r.mgr.logger.Info(ctx, "session timed out", logger.String("employee_id", r.employeeID))
	} else {
		r.mgr.logger.Info(ctx, "logging out employee", logger.String("employee_id", r.employeeID))
	}
	metrics.RecordLogout(kind)
	if counted {
		metrics.UpdateSessionsActive(-1)
	}

	r.mgr.runLogoutHooks(ctx, LogoutEvent{
		HandleID:   r.id,
		EmployeeID: r.employeeID,
		Timeout:    timeout,
		Redirect:   r.mgr.loginPath,
	})
}

// Navigated reports a route change. Leaving the authenticated route space
// counts as a timeout logout; it returns true when that happened.
func (r *Ref) Navigated(ctx context.Context, path string) bool {
	if r.mgr.authenticated(path) {
		return false
	}
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return false
	}
	r.Logout(ctx, true)
	return true
}

// publish replaces the value unless the handle is closed.
func (r *Ref) publish(ctx context.Context, res *model.FetchResult) bool {
	r.mu.Lock()
	if r.closed || r.err != nil {
		r.mu.Unlock()
		r.mgr.logger.Debug(ctx, "discarding stale employee", logger.String("employee_id", r.employeeID))
		return false
	}
	r.current = res.Employee
	r.status = res.Status
	r.unsynced = res.UnsyncedPunches
	if !r.counted {
		r.counted = true
		metrics.UpdateSessionsActive(1)
	}
	r.emitAndUnlock(event{kind: eventNext, emp: res.Employee})
	r.markReady()
	return true
}

// fail ends a handle whose first load failed.
func (r *Ref) fail(err error) {
	r.mu.Lock()
	if r.closed || r.err != nil {
		r.mu.Unlock()
		return
	}
	r.err = err
	r.emitAndUnlock(event{kind: eventError, err: err})
	r.markReady()
}

func (r *Ref) markReady() {
	r.readyOnce.Do(func() { close(r.ready) })
}

// emitAndUnlock queues ev and, unless another caller is already draining,
// delivers queued events in order with r.mu released around callbacks.
// Callbacks may call back into the Ref. Must be called with r.mu held.
func (r *Ref) emitAndUnlock(ev event) {
	r.seq++
	ev.seq = r.seq
	r.pending = append(r.pending, ev)
	if r.draining {
		r.mu.Unlock()
		return
	}

	r.draining = true
	for len(r.pending) > 0 {
		next := r.pending[0]
		r.pending = r.pending[1:]
		targets := r.targetsLocked(next)

		r.mu.Unlock()
		for _, o := range targets {
			deliver(o, next)
		}
		r.mu.Lock()

		if next.terminal() {
			if next.target == 0 {
				r.subs = make(map[int]*subscriber)
			} else {
				delete(r.subs, next.target)
			}
		}
	}
	r.draining = false
	r.mu.Unlock()
}

func (r *Ref) targetsLocked(ev event) []Observer {
	if ev.target != 0 {
		if s, ok := r.subs[ev.target]; ok {
			return []Observer{s.obs}
		}
		return nil
	}
	out := make([]Observer, 0, len(r.subs))
	for _, s := range r.subs {
		if s.since < ev.seq {
			out = append(out, s.obs)
		}
	}
	return out
}

func deliver(o Observer, ev event) {
	switch ev.kind {
	case eventNext:
		if o.Next != nil {
			o.Next(ev.emp)
		}
	case eventError:
		if o.Error != nil {
			o.Error(ev.err)
		}
	case eventComplete:
		if o.Complete != nil {
			o.Complete()
		}
	}
}
