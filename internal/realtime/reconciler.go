package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
)

// State identifies where a live view sits in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateSubscribed
	StateReconciling
	StateRefreshing
)

// UpdateKind tags the reason a snapshot was emitted.
type UpdateKind string

const (
	// KindInitial is the first compiled snapshot.
	KindInitial UpdateKind = "initial"
	// KindPatch is an in-place merge of one push event.
	KindPatch UpdateKind = "patch"
	// KindRefresh is a debounced authoritative recompilation.
	KindRefresh UpdateKind = "refresh"
	// KindDegraded signals the push channel dropped; snapshots continue
	// via periodic refresh only.
	KindDegraded UpdateKind = "degraded"
)

// Update is one snapshot pushed to the consumer of a live view.
type Update struct {
	Kind UpdateKind        `json:"kind"`
	View *models.GradeView `json:"view"`
}

// ViewCompiler recompiles the grade view from the store. Must be safe to
// call repeatedly; each call is authoritative.
type ViewCompiler interface {
	Compile(ctx context.Context, sectionID, studentID int64) (*models.GradeView, error)
}

// Metrics is the subset of instrumentation the reconciler reports.
type Metrics interface {
	RecordPatch()
	RecordRefresh()
	SubscriptionOpened()
	SubscriptionClosed()
}

// Config tunes reconciler timing.
type Config struct {
	// DebounceWindow delays the authoritative refresh until pushes go
	// quiet. Bursts of updates coalesce into a single recompile.
	DebounceWindow time.Duration
	// RefreshTimeout bounds one recompilation.
	RefreshTimeout time.Duration
	// FallbackInterval paces periodic refreshes when the push channel is
	// unavailable.
	FallbackInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = 500 * time.Millisecond
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = 10 * time.Second
	}
	if c.FallbackInterval <= 0 {
		c.FallbackInterval = 30 * time.Second
	}
	return c
}

// Reconciler keeps one compiled grade view consistent with server-side
// student point mutations. Push events are merged in place in arrival
// order as a latency optimization; the debounced recompile is the system
// of record and resolves any ordering or loss anomaly. The view is owned
// by a single consumer; all mutation happens on the reconciler's own
// goroutine.
type Reconciler struct {
	broker   Broker
	compiler ViewCompiler
	metrics  Metrics
	cfg      Config
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

// NewReconciler constructs a reconciler.
func NewReconciler(broker Broker, compiler ViewCompiler, metrics Metrics, cfg Config, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		broker:   broker,
		compiler: compiler,
		metrics:  metrics,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// State reports the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Stream compiles the initial view, subscribes to the student's updates,
// and emits snapshots until ctx is cancelled. The returned channel closes
// on cancellation; no snapshot is ever emitted after that, so a consumer
// that unmounts mid-fetch never sees a stale write. A subscription
// failure is non-fatal: the stream degrades to periodic refreshes.
func (r *Reconciler) Stream(ctx context.Context, sectionID, studentID int64) (<-chan Update, error) {
	compileCtx, cancel := context.WithTimeout(ctx, r.cfg.RefreshTimeout)
	view, err := r.compiler.Compile(compileCtx, sectionID, studentID)
	cancel()
	if err != nil {
		return nil, err
	}

	var sub Subscription
	degraded := false
	if r.broker != nil {
		sub, err = r.broker.SubscribeStudentPoints(ctx, studentID)
		if err != nil {
			r.logger.Warn("realtime subscription failed, falling back to periodic refresh",
				zap.Int64("student_id", studentID),
				zap.Error(err),
			)
			degraded = true
		}
	} else {
		degraded = true
	}

	if sub != nil && r.metrics != nil {
		r.metrics.SubscriptionOpened()
	}
	r.setState(StateSubscribed)

	updates := make(chan Update, 8)
	go r.run(ctx, sectionID, studentID, view, sub, degraded, updates)
	return updates, nil
}

func (r *Reconciler) run(ctx context.Context, sectionID, studentID int64, view *models.GradeView, sub Subscription, degraded bool, updates chan<- Update) {
	defer func() {
		if sub != nil {
			_ = sub.Close()
			if r.metrics != nil {
				r.metrics.SubscriptionClosed()
			}
		}
		r.setState(StateIdle)
		close(updates)
	}()

	initialKind := KindInitial
	if degraded {
		initialKind = KindDegraded
	}
	if !r.emit(ctx, updates, Update{Kind: initialKind, View: view.Clone()}) {
		return
	}

	// The debounce timer starts disarmed; it is re-armed on every patch
	// so a burst coalesces into one refresh after the burst goes quiet.
	debounce := time.NewTimer(r.cfg.DebounceWindow)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	fallback := time.NewTicker(r.cfg.FallbackInterval)
	defer fallback.Stop()

	var events <-chan models.StudentPointEvent
	if sub != nil {
		events = sub.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				// Push channel dropped mid-stream. Periodic refresh keeps
				// the view converging until the consumer reconnects.
				events = nil
				degraded = true
				if !r.emit(ctx, updates, Update{Kind: KindDegraded, View: view.Clone()}) {
					return
				}
				continue
			}
			r.setState(StateReconciling)
			if patchView(view, event) {
				if r.metrics != nil {
					r.metrics.RecordPatch()
				}
				if !r.emit(ctx, updates, Update{Kind: KindPatch, View: view.Clone()}) {
					return
				}
			}
			r.setState(StateSubscribed)
			resetTimer(debounce, r.cfg.DebounceWindow)

		case <-debounce.C:
			next, ok := r.refresh(ctx, sectionID, studentID, view, updates)
			if !ok {
				return
			}
			view = next

		case <-fallback.C:
			if !degraded {
				continue
			}
			next, ok := r.refresh(ctx, sectionID, studentID, view, updates)
			if !ok {
				return
			}
			view = next
		}
	}
}

// refresh recompiles authoritatively. Refreshes are serialized on the
// reconciler goroutine: events arriving while one runs are buffered by
// the subscription and re-arm the debounce afterwards, so at most one
// follow-up refresh is ever pending. Returns ok=false when the stream
// should end.
func (r *Reconciler) refresh(ctx context.Context, sectionID, studentID int64, current *models.GradeView, updates chan<- Update) (*models.GradeView, bool) {
	r.setState(StateRefreshing)
	defer r.setState(StateSubscribed)

	refreshCtx, cancel := context.WithTimeout(ctx, r.cfg.RefreshTimeout)
	fresh, err := r.compiler.Compile(refreshCtx, sectionID, studentID)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return current, false
		}
		r.logger.Warn("authoritative refresh failed, keeping patched view",
			zap.Int64("section_id", sectionID),
			zap.Int64("student_id", studentID),
			zap.Error(err),
		)
		return current, true
	}
	if r.metrics != nil {
		r.metrics.RecordRefresh()
	}
	if !r.emit(ctx, updates, Update{Kind: KindRefresh, View: fresh.Clone()}) {
		return fresh, false
	}
	return fresh, true
}

// emit delivers a snapshot unless the consumer is gone.
func (r *Reconciler) emit(ctx context.Context, updates chan<- Update, u Update) bool {
	select {
	case <-ctx.Done():
		return false
	case updates <- u:
		return true
	}
}

// patchView merges one push event into the compiled tree in place. The
// event's server timestamp wins over the local clock. Events for points
// outside the view (for example a concurrently deleted point) are left to
// the authoritative refresh.
func patchView(view *models.GradeView, event models.StudentPointEvent) bool {
	pv := view.FindPoint(event.StudentPointID)
	if pv == nil {
		pv = view.FindByPointID(event.PointID)
	}
	if pv == nil {
		return false
	}
	id := event.StudentPointID
	updated := event.LastUpdated
	pv.StudentPointID = &id
	pv.StatusID = event.PointStatusID
	pv.StatusLabel = event.PointStatusID.Label()
	pv.LastUpdated = &updated
	return true
}

// resetTimer re-arms a (possibly already fired) timer for d.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
