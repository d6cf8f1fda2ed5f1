package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/duomind/duomind/internal/infrastructure/resilience"
)

// Queue carries document events between the API process and the indexing
// workers. Ingestion events go to a single queue group so each document is
// processed once; update events are broadcast so every process can reconcile
// its in-memory index.
type Queue struct {
	conn           *nats.Conn
	subject        string
	updatedSubject string
	executor       *resilience.Executor
	logger         *slog.Logger
}

type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
	UpdatedSubject string
	Executor       *resilience.Executor
	Logger         *slog.Logger
}

func New(url, subject string, options Options) (*Queue, error) {
	if options.ConnectTimeout <= 0 {
		options.ConnectTimeout = 2 * time.Second
	}
	if options.ReconnectWait <= 0 {
		options.ReconnectWait = 2 * time.Second
	}
	if options.MaxReconnects <= 0 {
		options.MaxReconnects = 60
	}
	if options.UpdatedSubject == "" {
		options.UpdatedSubject = "documents.updated"
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("duomind"),
		nats.Timeout(options.ConnectTimeout),
		nats.ReconnectWait(options.ReconnectWait),
		nats.MaxReconnects(options.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:           conn,
		subject:        subject,
		updatedSubject: options.UpdatedSubject,
		executor:       options.Executor,
		logger:         logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	return q.publish(ctx, q.subject, documentID)
}

// PublishDocumentUpdated broadcasts that a document's chunks changed, so
// every subscribed process can refresh its in-memory index.
func (q *Queue) PublishDocumentUpdated(ctx context.Context, documentID string) error {
	return q.publish(ctx, q.updatedSubject, documentID)
}

func (q *Queue) publish(ctx context.Context, subject, documentID string) error {
	publish := func(context.Context) error {
		if err := q.conn.Publish(subject, []byte(documentID)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", publish, classifyError)
	} else {
		err = publish(ctx)
	}
	return wrapTemporary(err)
}

func (q *Queue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error {
	subscribe := func(cb nats.MsgHandler) (*nats.Subscription, error) {
		return q.conn.QueueSubscribe(q.subject, "indexers", cb)
	}
	return q.consume(ctx, subscribe, handler)
}

// SubscribeDocumentUpdated delivers update broadcasts to this process. No
// queue group: every subscriber sees every event.
func (q *Queue) SubscribeDocumentUpdated(ctx context.Context, handler func(context.Context, string) error) error {
	subscribe := func(cb nats.MsgHandler) (*nats.Subscription, error) {
		return q.conn.Subscribe(q.updatedSubject, cb)
	}
	return q.consume(ctx, subscribe, handler)
}

func (q *Queue) consume(ctx context.Context, subscribe func(nats.MsgHandler) (*nats.Subscription, error), handler func(context.Context, string) error) error {
	sub, err := subscribe(func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		if err := handler(ctx, string(msg.Data)); err != nil {
			q.logger.Error("document handler failed", "document_id", string(msg.Data), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
