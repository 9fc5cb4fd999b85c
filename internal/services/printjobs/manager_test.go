package printjobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// passthroughValidator accepts any spec with a layout and rejects the rest.
type passthroughValidator struct{}

func (passthroughValidator) Validate(spec *models.PrintSpec) (*models.ValidatedSpec, error) {
	if spec.Layout == "" {
		return nil, models.NewValidationError(models.ValidationMissingConfig, "layout", "field is required")
	}
	return &models.ValidatedSpec{
		Layout:      spec.Layout,
		Title:       spec.Title,
		ContentType: "application/pdf",
	}, nil
}

// stubRenderer produces fixed bytes, optionally blocking until released or
// the context is cancelled.
type stubRenderer struct {
	output  []byte
	err     error
	block   chan struct{}
	started chan string
	calls   atomic.Int64
}

func (r *stubRenderer) Render(ctx context.Context, spec *models.ValidatedSpec) (*interfaces.RenderResult, error) {
	r.calls.Add(1)
	if r.started != nil {
		r.started <- spec.Layout
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &interfaces.RenderResult{Data: r.output, ContentType: "application/pdf"}, nil
}

// memArtifacts is an in-memory artifact store for manager tests.
type memArtifacts struct {
	mu    sync.Mutex
	items map[string]*models.Artifact
	next  int
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{items: make(map[string]*models.Artifact)}
}

func (m *memArtifacts) Put(ctx context.Context, jobID string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	ref := fmt.Sprintf("art_%d", m.next)
	stored := append([]byte(nil), data...)
	m.items[ref] = &models.Artifact{
		ID:          ref,
		JobID:       jobID,
		Data:        stored,
		ContentType: contentType,
		SizeBytes:   int64(len(stored)),
		CreatedAt:   time.Now(),
	}
	return ref, nil
}

func (m *memArtifacts) Get(ctx context.Context, ref string) (*models.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	artifact, ok := m.items[ref]
	if !ok {
		return nil, models.ErrArtifactNotFound
	}
	return artifact, nil
}

func (m *memArtifacts) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, ref)
	return nil
}

func (m *memArtifacts) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for ref, artifact := range m.items {
		if artifact.CreatedAt.Before(olderThan) {
			delete(m.items, ref)
			removed++
		}
	}
	return removed, nil
}

func (m *memArtifacts) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

func newTestManager(renderer interfaces.Renderer, opts ManagerOptions) (*Manager, *memArtifacts) {
	artifacts := newMemArtifacts()
	mgr := NewManager(passthroughValidator{}, renderer, artifacts, opts, common.GetLogger())
	return mgr, artifacts
}

func TestManager_SubmitToDone(t *testing.T) {
	payload := []byte("%PDF-1.4 test report")
	mgr, _ := newTestManager(&stubRenderer{output: payload}, ManagerOptions{Workers: 2, QueueSize: 4})
	defer mgr.Shutdown()

	jobID, err := mgr.Submit(context.Background(), &models.PrintSpec{Layout: "A4 portrait"})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	snap, err := mgr.Await(context.Background(), jobID, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusDone, snap.Status)

	artifact, err := mgr.FetchResult(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, payload, artifact.Data, "fetched bytes must match renderer output exactly")
	assert.Equal(t, "application/pdf", artifact.ContentType)

	// Fetching again returns the same bytes.
	again, err := mgr.FetchResult(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, payload, again.Data)
}

func TestManager_ValidationErrorIsSynchronous(t *testing.T) {
	renderer := &stubRenderer{output: []byte("x")}
	mgr, _ := newTestManager(renderer, ManagerOptions{Workers: 1, QueueSize: 1})
	defer mgr.Shutdown()

	_, err := mgr.Submit(context.Background(), &models.PrintSpec{})
	_, ok := models.IsValidation(err)
	require.True(t, ok)

	assert.Equal(t, int64(0), renderer.calls.Load(), "rejected specs never reach the renderer")
	assert.Equal(t, 0, mgr.Registry().Count(), "rejected specs never create jobs")
}

func TestManager_CapacityRejection(t *testing.T) {
	renderer := &stubRenderer{
		output:  []byte("x"),
		block:   make(chan struct{}),
		started: make(chan string, 1),
	}
	mgr, _ := newTestManager(renderer, ManagerOptions{Workers: 1, QueueSize: 0})
	defer func() {
		close(renderer.block)
		mgr.Shutdown()
	}()

	first, err := mgr.Submit(context.Background(), &models.PrintSpec{Layout: "A4 portrait"})
	require.NoError(t, err)

	// Ensure the worker holds the only slot before probing capacity.
	select {
	case <-renderer.started:
	case <-time.After(time.Second):
		t.Fatal("first job never started")
	}

	_, err = mgr.Submit(context.Background(), &models.PrintSpec{Layout: "A4 portrait"})
	require.ErrorIs(t, err, models.ErrCapacityExceeded)

	// The rejected submission leaves no trace.
	snap, err := mgr.Status(first)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, snap.Status)
	assert.Equal(t, 1, mgr.Registry().Count())
}

func TestManager_RenderErrorLandsInErrorState(t *testing.T) {
	mgr, _ := newTestManager(&stubRenderer{err: errors.New("wms upstream down")}, ManagerOptions{Workers: 1, QueueSize: 1})
	defer mgr.Shutdown()

	jobID, err := mgr.Submit(context.Background(), &models.PrintSpec{Layout: "A4 portrait"})
	require.NoError(t, err)

	snap, err := mgr.Await(context.Background(), jobID, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, snap.Status)
	assert.Contains(t, snap.Error, "wms upstream down")

	_, err = mgr.FetchResult(context.Background(), jobID)
	nr, ok := models.IsNotReady(err)
	require.True(t, ok)
	assert.Equal(t, models.JobStatusError, nr.Status)
}

func TestManager_CancelPendingNeverRenders(t *testing.T) {
	renderer := &stubRenderer{
		output:  []byte("x"),
		block:   make(chan struct{}),
		started: make(chan string, 2),
	}
	mgr, _ := newTestManager(renderer, ManagerOptions{Workers: 1, QueueSize: 1})
	defer mgr.Shutdown()

	running, err := mgr.Submit(context.Background(), &models.PrintSpec{Layout: "first"})
	require.NoError(t, err)
	<-renderer.started

	queued, err := mgr.Submit(context.Background(), &models.PrintSpec{Layout: "second"})
	require.NoError(t, err)

	require.NoError(t, mgr.Cancel(queued))

	snap, err := mgr.Status(queued)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, snap.Status)

	close(renderer.block)

	snap, err = mgr.Await(context.Background(), running, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusDone, snap.Status)

	assert.Equal(t, int64(1), renderer.calls.Load(), "cancelled pending job must not reach the renderer")
}

func TestManager_CancelRunningDiscardsOutput(t *testing.T) {
	renderer := &stubRenderer{
		output:  []byte("x"),
		block:   make(chan struct{}),
		started: make(chan string, 1),
	}
	mgr, artifacts := newTestManager(renderer, ManagerOptions{Workers: 1, QueueSize: 0})
	defer mgr.Shutdown()

	jobID, err := mgr.Submit(context.Background(), &models.PrintSpec{Layout: "A4 portrait"})
	require.NoError(t, err)
	<-renderer.started

	require.NoError(t, mgr.Cancel(jobID))

	snap, err := mgr.Await(context.Background(), jobID, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, snap.Status)
	assert.Empty(t, snap.ArtifactRef)

	count, err := artifacts.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count, "cancelled renders leave no artifacts behind")
}

func TestManager_AwaitZeroReturnsImmediately(t *testing.T) {
	renderer := &stubRenderer{
		output:  []byte("x"),
		block:   make(chan struct{}),
		started: make(chan string, 1),
	}
	mgr, _ := newTestManager(renderer, ManagerOptions{Workers: 1, QueueSize: 0})
	defer func() {
		close(renderer.block)
		mgr.Shutdown()
	}()

	jobID, err := mgr.Submit(context.Background(), &models.PrintSpec{Layout: "A4 portrait"})
	require.NoError(t, err)
	<-renderer.started

	start := time.Now()
	snap, err := mgr.Await(context.Background(), jobID, 0)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, snap.Status)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestManager_FetchResultNotReady(t *testing.T) {
	renderer := &stubRenderer{
		output:  []byte("x"),
		block:   make(chan struct{}),
		started: make(chan string, 1),
	}
	mgr, _ := newTestManager(renderer, ManagerOptions{Workers: 1, QueueSize: 0})
	defer func() {
		close(renderer.block)
		mgr.Shutdown()
	}()

	jobID, err := mgr.Submit(context.Background(), &models.PrintSpec{Layout: "A4 portrait"})
	require.NoError(t, err)
	<-renderer.started

	_, err = mgr.FetchResult(context.Background(), jobID)
	nr, ok := models.IsNotReady(err)
	require.True(t, ok)
	assert.Equal(t, models.JobStatusRunning, nr.Status)
}

func TestManager_UnknownJob(t *testing.T) {
	mgr, _ := newTestManager(&stubRenderer{output: []byte("x")}, ManagerOptions{Workers: 1, QueueSize: 0})
	defer mgr.Shutdown()

	_, err := mgr.Status("job_missing")
	assert.ErrorIs(t, err, models.ErrJobNotFound)

	err = mgr.Cancel("job_missing")
	assert.ErrorIs(t, err, models.ErrJobNotFound)

	_, err = mgr.FetchResult(context.Background(), "job_missing")
	assert.ErrorIs(t, err, models.ErrJobNotFound)

	_, err = mgr.Await(context.Background(), "job_missing", time.Second)
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}
