package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
)

type fakeSubscription struct {
	events chan models.StudentPointEvent
	once   sync.Once
	closed chan struct{}
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{
		events: make(chan models.StudentPointEvent, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeSubscription) Events() <-chan models.StudentPointEvent { return f.events }

func (f *fakeSubscription) Close() error {
	f.once.Do(func() {
		close(f.closed)
	})
	return nil
}

type fakeBroker struct {
	sub          *fakeSubscription
	subscribeErr error
}

func (f *fakeBroker) PublishStudentPoint(ctx context.Context, event models.StudentPointEvent) error {
	f.sub.events <- event
	return nil
}

func (f *fakeBroker) SubscribeStudentPoints(ctx context.Context, studentID int64) (Subscription, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	return f.sub, nil
}

// fakeCompiler returns a fresh copy of its template on every call so the
// reconciler's in-place patches never leak into later compiles.
type fakeCompiler struct {
	mu       sync.Mutex
	template *models.GradeView
	compiles int
	err      error
}

func (f *fakeCompiler) Compile(ctx context.Context, sectionID, studentID int64) (*models.GradeView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compiles++
	if f.err != nil {
		return nil, f.err
	}
	view := f.template.Clone()
	view.CompiledAt = time.Now().UTC()
	return view, nil
}

func (f *fakeCompiler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compiles
}

func viewTemplate() *models.GradeView {
	spID := int64(55)
	return &models.GradeView{
		SectionID: 7,
		StudentID: 4,
		Topics: []models.TopicView{{
			Topic: models.Topic{ID: 1, CourseID: 3, Name: "Linear Equations"},
			Concepts: []models.ConceptView{{
				Concept: models.Concept{ID: 10, TopicID: 1, Name: "Slope"},
				Points: []models.PointView{
					{
						PointID:        100,
						ConceptID:      10,
						StudentPointID: &spID,
						StatusID:       models.StatusNotAttempted,
						StatusLabel:    models.StatusNotAttempted.Label(),
					},
					{
						PointID:     101,
						ConceptID:   10,
						IsTestPoint: true,
						StatusID:    models.StatusNotAttempted,
						StatusLabel: models.StatusNotAttempted.Label(),
					},
				},
			}},
		}},
	}
}

func receiveUpdate(t *testing.T, updates <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-updates:
		require.True(t, ok, "updates channel closed unexpectedly")
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func testConfig() Config {
	return Config{
		DebounceWindow:   20 * time.Millisecond,
		RefreshTimeout:   time.Second,
		FallbackInterval: time.Hour,
	}
}

func TestStreamEmitsInitialSnapshot(t *testing.T) {
	broker := &fakeBroker{sub: newFakeSubscription()}
	compiler := &fakeCompiler{template: viewTemplate()}
	r := NewReconciler(broker, compiler, nil, testConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := r.Stream(ctx, 7, 4)
	require.NoError(t, err)

	initial := receiveUpdate(t, updates)
	assert.Equal(t, KindInitial, initial.Kind)
	assert.Equal(t, int64(7), initial.View.SectionID)
	assert.Equal(t, int64(4), initial.View.StudentID)
	assert.Equal(t, 1, compiler.count())
}

func TestStreamAppliesPatchesInArrivalOrder(t *testing.T) {
	broker := &fakeBroker{sub: newFakeSubscription()}
	compiler := &fakeCompiler{template: viewTemplate()}
	r := NewReconciler(broker, compiler, nil, testConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := r.Stream(ctx, 7, 4)
	require.NoError(t, err)
	receiveUpdate(t, updates) // initial

	now := time.Now().UTC()
	broker.sub.events <- models.StudentPointEvent{
		StudentPointID: 55, PointID: 100, StudentID: 4,
		PointStatusID: models.StatusFailed, LastUpdated: now,
	}
	broker.sub.events <- models.StudentPointEvent{
		StudentPointID: 55, PointID: 100, StudentID: 4,
		PointStatusID: models.StatusPassed, LastUpdated: now.Add(time.Second),
	}

	first := receiveUpdate(t, updates)
	require.Equal(t, KindPatch, first.Kind)
	assert.Equal(t, models.StatusFailed, first.View.FindByPointID(100).StatusID)

	second := receiveUpdate(t, updates)
	require.Equal(t, KindPatch, second.Kind)
	patched := second.View.FindByPointID(100)
	assert.Equal(t, models.StatusPassed, patched.StatusID)
	assert.Equal(t, "Attempted: Passed", patched.StatusLabel)
	require.NotNil(t, patched.LastUpdated)
	assert.Equal(t, now.Add(time.Second), *patched.LastUpdated)
}

func TestStreamDebouncedRefreshCoalescesBursts(t *testing.T) {
	broker := &fakeBroker{sub: newFakeSubscription()}
	compiler := &fakeCompiler{template: viewTemplate()}
	r := NewReconciler(broker, compiler, nil, testConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := r.Stream(ctx, 7, 4)
	require.NoError(t, err)
	receiveUpdate(t, updates) // initial

	for i := 0; i < 3; i++ {
		broker.sub.events <- models.StudentPointEvent{
			StudentPointID: 55, PointID: 100, StudentID: 4,
			PointStatusID: models.StatusNeedsRevisions, LastUpdated: time.Now().UTC(),
		}
	}
	for i := 0; i < 3; i++ {
		u := receiveUpdate(t, updates)
		assert.Equal(t, KindPatch, u.Kind)
	}

	refresh := receiveUpdate(t, updates)
	assert.Equal(t, KindRefresh, refresh.Kind)
	// One initial compile plus exactly one refresh for the whole burst.
	assert.Equal(t, 2, compiler.count())
}

func TestStreamPatchesEventForProvisionedRow(t *testing.T) {
	broker := &fakeBroker{sub: newFakeSubscription()}
	compiler := &fakeCompiler{template: viewTemplate()}
	r := NewReconciler(broker, compiler, nil, testConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := r.Stream(ctx, 7, 4)
	require.NoError(t, err)
	receiveUpdate(t, updates)

	// Point 101 has no student point row in the compiled view; the event
	// must land via the point id instead.
	broker.sub.events <- models.StudentPointEvent{
		StudentPointID: 77, PointID: 101, StudentID: 4,
		PointStatusID: models.StatusPassed, LastUpdated: time.Now().UTC(),
	}

	patch := receiveUpdate(t, updates)
	require.Equal(t, KindPatch, patch.Kind)
	pv := patch.View.FindByPointID(101)
	require.NotNil(t, pv.StudentPointID)
	assert.Equal(t, int64(77), *pv.StudentPointID)
	assert.Equal(t, models.StatusPassed, pv.StatusID)
}

func TestStreamClosesOnCancel(t *testing.T) {
	broker := &fakeBroker{sub: newFakeSubscription()}
	compiler := &fakeCompiler{template: viewTemplate()}
	r := NewReconciler(broker, compiler, nil, testConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := r.Stream(ctx, 7, 4)
	require.NoError(t, err)
	receiveUpdate(t, updates)

	cancel()

	select {
	case _, ok := <-updates:
		assert.False(t, ok, "expected closed channel after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel did not close after cancel")
	}

	select {
	case <-broker.sub.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not released")
	}
}

func TestStreamDegradesWhenSubscribeFails(t *testing.T) {
	broker := &fakeBroker{sub: newFakeSubscription(), subscribeErr: appErrors.ErrSubscriptionFailure}
	compiler := &fakeCompiler{template: viewTemplate()}
	r := NewReconciler(broker, compiler, nil, testConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := r.Stream(ctx, 7, 4)
	require.NoError(t, err)

	initial := receiveUpdate(t, updates)
	assert.Equal(t, KindDegraded, initial.Kind)
	assert.NotNil(t, initial.View)
}

func TestStreamFailsWhenInitialCompileFails(t *testing.T) {
	broker := &fakeBroker{sub: newFakeSubscription()}
	compiler := &fakeCompiler{template: viewTemplate(), err: appErrors.ErrFetchFailure}
	r := NewReconciler(broker, compiler, nil, testConfig(), zap.NewNop())

	_, err := r.Stream(context.Background(), 7, 4)

	require.Error(t, err)
}

func TestPatchViewIgnoresUnknownPoint(t *testing.T) {
	view := viewTemplate()

	applied := patchView(view, models.StudentPointEvent{
		StudentPointID: 999, PointID: 999,
		PointStatusID: models.StatusPassed, LastUpdated: time.Now().UTC(),
	})

	assert.False(t, applied)
	assert.Equal(t, models.StatusNotAttempted, view.FindByPointID(100).StatusID)
}
