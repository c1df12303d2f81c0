package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/usecase/mocks"
)

type fakePublisher struct {
	published []string
	failIDs   map[string]error
}

func (f *fakePublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if err, ok := f.failIDs[event.ID]; ok {
		return err
	}
	f.published = append(f.published, event.ID)
	return nil
}

func TestDispatcher_DispatchOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	outboxRepo := mocks.NewMockOutboxRepository(ctrl)
	outboxRepo.EXPECT().GetUnpublished(gomock.Any(), 100).Return([]*domain.OutboxEvent{
		{ID: "ev-1", AggregateID: "agg-1", Version: 1},
		{ID: "ev-2", AggregateID: "agg-1", Version: 2},
		{ID: "ev-3", AggregateID: "agg-2", Version: 1},
	}, nil)
	outboxRepo.EXPECT().MarkPublished(gomock.Any(), "ev-1", gomock.Any()).Return(nil)
	outboxRepo.EXPECT().MarkPublished(gomock.Any(), "ev-2", gomock.Any()).Return(nil)
	outboxRepo.EXPECT().MarkPublished(gomock.Any(), "ev-3", gomock.Any()).Return(nil)

	publisher := &fakePublisher{}
	d := New(outboxRepo, publisher, nil, Config{})

	if err := d.DispatchOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.published) != 3 {
		t.Fatalf("expected 3 publishes, got %v", publisher.published)
	}
}

func TestDispatcher_DispatchOnce_FailureBlocksAggregate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	outboxRepo := mocks.NewMockOutboxRepository(ctrl)
	outboxRepo.EXPECT().GetUnpublished(gomock.Any(), 100).Return([]*domain.OutboxEvent{
		{ID: "ev-1", AggregateID: "agg-1", Version: 1},
		{ID: "ev-2", AggregateID: "agg-1", Version: 2},
		{ID: "ev-3", AggregateID: "agg-2", Version: 1},
	}, nil)
	// Only the unaffected aggregate gets marked.
	outboxRepo.EXPECT().MarkPublished(gomock.Any(), "ev-3", gomock.Any()).Return(nil)

	publisher := &fakePublisher{
		failIDs: map[string]error{"ev-1": domain.ErrEventDeliveryDeferred},
	}
	d := New(outboxRepo, publisher, nil, Config{})

	if err := d.DispatchOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ev-2 must be held back behind its failed predecessor.
	if len(publisher.published) != 1 || publisher.published[0] != "ev-3" {
		t.Fatalf("expected only ev-3 published, got %v", publisher.published)
	}
}

func TestDispatcher_DispatchOnce_MarkFailureBlocksAggregate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	outboxRepo := mocks.NewMockOutboxRepository(ctrl)
	outboxRepo.EXPECT().GetUnpublished(gomock.Any(), 100).Return([]*domain.OutboxEvent{
		{ID: "ev-1", AggregateID: "agg-1", Version: 1},
		{ID: "ev-2", AggregateID: "agg-1", Version: 2},
	}, nil)
	outboxRepo.EXPECT().MarkPublished(gomock.Any(), "ev-1", gomock.Any()).Return(errors.New("db down"))

	publisher := &fakePublisher{}
	d := New(outboxRepo, publisher, nil, Config{})

	if err := d.DispatchOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ev-1 went out but could not be marked; ev-2 stays held back.
	if len(publisher.published) != 1 || publisher.published[0] != "ev-1" {
		t.Fatalf("expected only ev-1 attempted, got %v", publisher.published)
	}
}

func TestDispatcher_DispatchOnce_EmptyBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	outboxRepo := mocks.NewMockOutboxRepository(ctrl)
	outboxRepo.EXPECT().GetUnpublished(gomock.Any(), 100).Return(nil, nil)

	d := New(outboxRepo, &fakePublisher{}, nil, Config{})
	if err := d.DispatchOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDispatcher_StartStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	outboxRepo := mocks.NewMockOutboxRepository(ctrl)
	outboxRepo.EXPECT().GetUnpublished(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	d := New(outboxRepo, &fakePublisher{}, nil, Config{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop on cancel")
	}
}
