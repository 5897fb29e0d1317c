package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/logfields"
)

const (
	setupTimeout = 10 * time.Second
	streamMaxAge = 7 * 24 * time.Hour
)

// Publisher sends one message to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ClientConfig describes the NATS connection and stream.
type ClientConfig struct {
	URL     string
	Subject string
	Stream  string
}

// NATSClient manages the NATS connection and the JetStream stream that
// captures compilation events.
type NATSClient struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	stream  string
}

// NewNATSClient connects to NATS and makes sure the stream exists.
func NewNATSClient(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*NATSClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" || cfg.Subject == "" || cfg.Stream == "" {
		return nil, ferrors.ConfigError("events require nats_url, subject and stream").Build()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("latexd"),
		nats.Timeout(setupTimeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryEvents, "failed to connect to NATS").
			WithContext("url", cfg.URL).
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryEvents, "failed to create JetStream context").Build()
	}

	client := &NATSClient{conn: conn, js: js, subject: cfg.Subject, stream: cfg.Stream}
	if err := client.initStream(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("NATS client initialized for compilation events",
		slog.String("url", cfg.URL),
		logfields.Subject(cfg.Subject),
		slog.String("stream", cfg.Stream))

	return client, nil
}

func (c *NATSClient) initStream(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        c.stream,
		Description: "latexd compilation events",
		Subjects:    []string{c.subject},
		MaxAge:      streamMaxAge,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryEvents, "failed to create or update stream").
			WithContext("stream", c.stream).
			Build()
	}
	return nil
}

// Subject returns the subject events are published to.
func (c *NATSClient) Subject() string { return c.subject }

// Publish implements Publisher and waits for the JetStream acknowledgement.
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := c.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the connection.
func (c *NATSClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}
