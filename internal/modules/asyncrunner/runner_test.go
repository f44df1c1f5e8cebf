package asyncrunner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/modules/jobstore"
	"github.com/restaurant-bff/core/internal/modules/route2"
	"github.com/restaurant-bff/core/internal/pkg/redis/redistest"
)

type fakeHubNotifier struct {
	notified []*domain.Job
}

func (f *fakeHubNotifier) OnJobCreated(job *domain.Job) {
	f.notified = append(f.notified, job)
}

type fakeOrchestrator struct {
	response domain.SearchResponse
	err      error
	panicVal interface{}
	called   chan struct{}
}

func (f *fakeOrchestrator) Search(_ context.Context, _ domain.SearchRequest, _ route2.Context) (domain.SearchResponse, error) {
	defer close(f.called)
	if f.panicVal != nil {
		panic(f.panicVal)
	}
	return f.response, f.err
}

type recordingPublisher struct {
	messages []publishedMessage
}

type publishedMessage struct {
	channel   domain.Channel
	requestID string
	message   []byte
}

func (p *recordingPublisher) Publish(channel domain.Channel, requestID string, message []byte) {
	p.messages = append(p.messages, publishedMessage{channel: channel, requestID: requestID, message: message})
}

func TestAcceptInitializesJobAndNotifiesHub(t *testing.T) {
	jobs := jobstore.New(redistest.New())
	hub := &fakeHubNotifier{}
	orch := &fakeOrchestrator{called: make(chan struct{})}
	runner := New(jobs, orch, hub, zap.NewNop())

	identity := &domain.SessionIdentity{SessionID: "sess-1"}
	job, err := runner.Accept(context.Background(), "r1", identity, domain.SearchRequest{Query: "sushi"}, route2.Context{RequestID: "r1"})

	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, job.Status)
	require.Len(t, hub.notified, 1)
	assert.Equal(t, "r1", hub.notified[0].RequestID)

	select {
	case <-orch.called:
	case <-time.After(time.Second):
		t.Fatal("detached execution never ran")
	}
}

func TestRunDetachedSetsDoneOnSuccess(t *testing.T) {
	jobs := jobstore.New(redistest.New())
	hub := &fakeHubNotifier{}
	orch := &fakeOrchestrator{response: domain.SearchResponse{Results: []domain.RestaurantResult{{PlaceID: "p1"}}}, called: make(chan struct{})}
	runner := New(jobs, orch, hub, zap.NewNop())

	identity := &domain.SessionIdentity{SessionID: "sess-1"}
	_, err := runner.Accept(context.Background(), "r2", identity, domain.SearchRequest{Query: "sushi"}, route2.Context{RequestID: "r2"})
	require.NoError(t, err)

	<-orch.called
	waitForTerminal(t, jobs, "r2")

	job, err := jobs.Get(context.Background(), "r2")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, domain.JobDone, job.Status)
	require.NotNil(t, job.Response)
	assert.Len(t, job.Response.Results, 1)
}

func TestRunDetachedSetsFailedOnOrchestratorError(t *testing.T) {
	jobs := jobstore.New(redistest.New())
	hub := &fakeHubNotifier{}
	orch := &fakeOrchestrator{err: assert.AnError, called: make(chan struct{})}
	runner := New(jobs, orch, hub, zap.NewNop())

	identity := &domain.SessionIdentity{SessionID: "sess-1"}
	_, err := runner.Accept(context.Background(), "r3", identity, domain.SearchRequest{Query: "sushi"}, route2.Context{RequestID: "r3"})
	require.NoError(t, err)

	<-orch.called
	waitForTerminal(t, jobs, "r3")

	job, err := jobs.Get(context.Background(), "r3")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, domain.JobFailed, job.Status)
	require.NotNil(t, job.Failure)
}

func TestAcceptPublishesAcceptedProgressBeforeDetachedRun(t *testing.T) {
	jobs := jobstore.New(redistest.New())
	hub := &fakeHubNotifier{}
	orch := &fakeOrchestrator{called: make(chan struct{})}
	runner := New(jobs, orch, hub, zap.NewNop())
	pub := &recordingPublisher{}

	identity := &domain.SessionIdentity{SessionID: "sess-1"}
	_, err := runner.Accept(context.Background(), "r4", identity, domain.SearchRequest{Query: "sushi"}, route2.Context{RequestID: "r4", Publisher: pub})
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, domain.ChannelSearch, pub.messages[0].channel)
	assert.Equal(t, "r4", pub.messages[0].requestID)
	assert.Contains(t, string(pub.messages[0].message), "accepted")

	<-orch.called
}

func TestRunDetachedRecoversFromPanicAndSetsFailed(t *testing.T) {
	jobs := jobstore.New(redistest.New())
	hub := &fakeHubNotifier{}
	orch := &fakeOrchestrator{panicVal: "boom", called: make(chan struct{})}
	runner := New(jobs, orch, hub, zap.NewNop())

	identity := &domain.SessionIdentity{SessionID: "sess-1"}
	_, err := runner.Accept(context.Background(), "r5", identity, domain.SearchRequest{Query: "sushi"}, route2.Context{RequestID: "r5"})
	require.NoError(t, err)

	<-orch.called
	waitForTerminal(t, jobs, "r5")

	job, err := jobs.Get(context.Background(), "r5")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, domain.JobFailed, job.Status)
	require.NotNil(t, job.Failure)
	assert.Equal(t, domain.ErrInternal, job.Failure.Kind)
}

func waitForTerminal(t *testing.T, jobs *jobstore.Store, requestID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.Get(context.Background(), requestID)
		require.NoError(t, err)
		if job != nil && job.IsTerminal() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached terminal state")
}
