package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/finpersona/finchat/pkg/advisor"
	"github.com/finpersona/finchat/pkg/chat"
	"github.com/finpersona/finchat/pkg/eventstream"
	"github.com/finpersona/finchat/pkg/storage"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.ExchangePersistedEvent
	err    error
}

func (r *recordingPublisher) PublishExchange(_ context.Context, event *eventstream.ExchangePersistedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) Events() []*eventstream.ExchangePersistedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.ExchangePersistedEvent{}, r.events...)
}

// blockingPublisher parks every publish until release is closed, so tests can
// hold a worker mid-job and fill the queue behind it. The entered channel must
// be buffered for at least as many publishes as the test triggers, or the
// sends after the first would wedge the drain in Close.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingPublisher) PublishExchange(_ context.Context, _ *eventstream.ExchangePersistedEvent) error {
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func (b *blockingPublisher) Close() error { return nil }

// newTestPool creates a worker pool backed by a recording publisher.
// Callers should "wp.Close()" to drain enqueued jobs before asserting published events.
func newTestPool() (*Pool, *recordingPublisher) {
	logger, _ := zap.NewDevelopment()
	publisher := &recordingPublisher{}

	wp, err := NewPool(&Config{
		Publisher: publisher,
		Source:    eventstream.EventSource{Service: "finchat", Listen: ":8080"},
		Logger:    logger,
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, publisher
}

// newJob builds a job resembling a persisted exchange.
func newJob(userID, question string) Job {
	response := advisor.Generate(question)
	started := time.Now().UTC().Add(-150 * time.Millisecond)

	return Job{
		UserID: userID,
		User: storage.Message{
			ID:     1,
			UserID: userID,
			Sender: chat.SenderUser,
			Text:   question,
		},
		Assistant: storage.Message{
			ID:       2,
			UserID:   userID,
			Sender:   chat.SenderAssistant,
			Text:     response.Body,
			Insights: response.Insights,
		},
		Path:        "/chat/" + userID + "/message",
		StartedAt:   started,
		CompletedAt: started.Add(150 * time.Millisecond),
		Streaming:   false,
		HTTPStatus:  200,
	}
}

var _ = Describe("Worker Pool", func() {
	var (
		wp        *Pool
		publisher *recordingPublisher
	)

	BeforeEach(func() {
		wp, publisher = newTestPool()
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			ok := wp.Enqueue(newJob("demo", "how should I budget my spending?"))
			Expect(ok).To(BeTrue())
			wp.Close()
		})

		Context("when the queue is full", func() {
			It("drops the job and returns false", func() {
				logger, _ := zap.NewDevelopment()
				gate := &blockingPublisher{
					entered: make(chan struct{}, 2),
					release: make(chan struct{}),
				}

				full, err := NewPool(&Config{
					Publisher:  gate,
					Source:     eventstream.EventSource{Service: "finchat"},
					NumWorkers: 1,
					QueueSize:  1,
					Logger:     logger,
				})
				Expect(err).NotTo(HaveOccurred())

				// First job is picked up by the single worker, which parks in
				// the publisher. Wait for it so the queue is known to be empty.
				Expect(full.Enqueue(newJob("demo", "budget basics"))).To(BeTrue())
				Eventually(gate.entered).Should(Receive())

				// Second job fills the one-slot queue; the third has nowhere to go.
				Expect(full.Enqueue(newJob("demo", "saving basics"))).To(BeTrue())
				Expect(full.Enqueue(newJob("demo", "investing basics"))).To(BeFalse())

				close(gate.release)
				full.Close()
				wp.Close()
			})
		})
	})

	Describe("Event Publishing", func() {
		// These tests exercise the pool's processJob logic by enqueuing jobs
		// and draining via wp.Close() before asserting publisher state.

		Context("after one exchange", func() {
			BeforeEach(func() {
				wp.Enqueue(newJob("demo", "how should I budget my spending?"))
				wp.Close()
			})

			It("publishes exactly one event", func() {
				Expect(publisher.Events()).To(HaveLen(1))
			})

			It("stamps the event envelope", func() {
				event := publisher.Events()[0]
				Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
				Expect(event.EventType).To(Equal(eventstream.EventTypeExchangePersisted))
				Expect(event.EventID).NotTo(BeEmpty())
				Expect(event.EmittedAt).NotTo(BeZero())
				Expect(event.Source.Service).To(Equal("finchat"))
				Expect(event.Source.Listen).To(Equal(":8080"))
			})

			It("carries the request metadata", func() {
				meta := publisher.Events()[0].RequestMeta
				Expect(meta.Path).To(Equal("/chat/demo/message"))
				Expect(meta.DurationMs).To(Equal(int64(150)))
				Expect(meta.Streaming).To(BeFalse())
				Expect(meta.HTTPStatus).To(Equal(200))
			})

			It("carries both sides of the exchange", func() {
				exchange := publisher.Events()[0].Exchange
				Expect(exchange.UserID).To(Equal("demo"))
				Expect(exchange.User.Sender).To(Equal(chat.SenderUser))
				Expect(exchange.User.Text).To(Equal("how should I budget my spending?"))
				Expect(exchange.Assistant.Sender).To(Equal(chat.SenderAssistant))
				Expect(exchange.Assistant.Text).NotTo(BeEmpty())
				Expect(exchange.Assistant.Insights).NotTo(BeEmpty())
			})
		})

		Context("after several exchanges", func() {
			BeforeEach(func() {
				wp.Enqueue(newJob("alex", "should I pay down my credit card debt first?"))
				wp.Enqueue(newJob("bo", "how much do I need to retire?"))
				wp.Enqueue(newJob("claire", "saving for a down payment"))
				wp.Close()
			})

			It("publishes one event per exchange", func() {
				Expect(publisher.Events()).To(HaveLen(3))
			})

			It("assigns a distinct event ID to each", func() {
				seen := map[string]bool{}
				for _, event := range publisher.Events() {
					Expect(seen[event.EventID]).To(BeFalse())
					seen[event.EventID] = true
				}
			})
		})

		Context("when the publisher fails", func() {
			BeforeEach(func() {
				publisher.err = errors.New("broker unavailable")
				wp.Enqueue(newJob("demo", "how should I budget my spending?"))
				wp.Close()
			})

			It("drops the event without blocking shutdown", func() {
				Expect(publisher.Events()).To(BeEmpty())
			})
		})
	})
})
