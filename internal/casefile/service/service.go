// Package service implements the victim and case operations and keeps the
// two sides of every victim/case link in step.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	casemetrics "casefile/internal/casefile/metrics"
	"casefile/internal/casefile/models"
	id "casefile/pkg/domain"
	"casefile/pkg/requestcontext"
)

var tracer = otel.Tracer("casefile/internal/casefile/service")

// VictimStore persists victims. Bulk SetCase/ClearCase are the only writes
// the case side uses on victims.
type VictimStore interface {
	Create(ctx context.Context, victim *models.Victim) error
	FindByID(ctx context.Context, victimID id.VictimID) (*models.Victim, error)
	FindByIDs(ctx context.Context, victimIDs []id.VictimID) ([]*models.Victim, error)
	FindAll(ctx context.Context) ([]*models.Victim, error)
	FindByNameAndFamily(ctx context.Context, name, family string) (*models.Victim, error)
	Update(ctx context.Context, victim *models.Victim) error
	Delete(ctx context.Context, victimID id.VictimID) error
	SetCase(ctx context.Context, victimIDs []id.VictimID, caseID id.CaseID, now time.Time) error
	ClearCase(ctx context.Context, victimIDs []id.VictimID, now time.Time) error
}

// CaseStore persists cases. AddVictim is a set-union add.
type CaseStore interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	FindByIDs(ctx context.Context, caseIDs []id.CaseID) ([]*models.Case, error)
	FindAll(ctx context.Context) ([]*models.Case, error)
	Update(ctx context.Context, c *models.Case) error
	Delete(ctx context.Context, caseID id.CaseID) error
	AddVictim(ctx context.Context, caseID id.CaseID, victimID id.VictimID, now time.Time) error
	RemoveVictim(ctx context.Context, caseID id.CaseID, victimID id.VictimID, now time.Time) error
}

var defaultTx = sync.OnceValue(NewInMemoryStoreTx)

type serviceConfig struct {
	logger  *slog.Logger
	metrics *casemetrics.Metrics
	tx      StoreTx
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithMetrics(m *casemetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithTx sets the transactional boundary used by multi-step operations.
// Without it every service in the process shares one in-memory lock, so a
// VictimService and CaseService over the same stores still exclude each other.
func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) {
		c.tx = tx
	}
}

func newConfig(opts []Option) *serviceConfig {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tx == nil {
		cfg.tx = defaultTx()
	}
	return cfg
}

// logEvent writes a structured line tagged with the request id when one is present.
func logEvent(ctx context.Context, logger *slog.Logger, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	logger.InfoContext(ctx, event, append(attributes, "event", event)...)
}

// startSpan opens a span named casefile.<entity>.<op>.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "casefile."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
