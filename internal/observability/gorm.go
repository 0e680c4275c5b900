package observability

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	storeSystem     = "sqlite"
	spanInstanceKey = "clusterwiki:span"
)

// StoreTracing is a gorm plugin that wraps every statement in a span.
type StoreTracing struct {
	tracer trace.Tracer
}

// NewStoreTracing returns the plugin; register it with gorm.DB.Use.
func NewStoreTracing(tracer trace.Tracer) *StoreTracing {
	return &StoreTracing{tracer: tracer}
}

// Name implements gorm.Plugin.
func (p *StoreTracing) Name() string {
	return "clusterwiki:store-tracing"
}

// Initialize implements gorm.Plugin.
func (p *StoreTracing) Initialize(gdb *gorm.DB) error {
	callbacks := gdb.Callback()
	registrations := []struct {
		operation string
		before    func(name string, fn func(*gorm.DB)) error
		after     func(name string, fn func(*gorm.DB)) error
	}{
		{"create", callbacks.Create().Before("gorm:create").Register, callbacks.Create().After("gorm:create").Register},
		{"query", callbacks.Query().Before("gorm:query").Register, callbacks.Query().After("gorm:query").Register},
		{"update", callbacks.Update().Before("gorm:update").Register, callbacks.Update().After("gorm:update").Register},
		{"delete", callbacks.Delete().Before("gorm:delete").Register, callbacks.Delete().After("gorm:delete").Register},
		{"row", callbacks.Row().Before("gorm:row").Register, callbacks.Row().After("gorm:row").Register},
		{"raw", callbacks.Raw().Before("gorm:raw").Register, callbacks.Raw().After("gorm:raw").Register},
	}

	for _, r := range registrations {
		if err := r.before("clusterwiki:before_"+r.operation, p.start(r.operation)); err != nil {
			return err
		}
		if err := r.after("clusterwiki:after_"+r.operation, p.finish); err != nil {
			return err
		}
	}
	return nil
}

func (p *StoreTracing) start(operation string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		_, span := p.tracer.Start(ctx, storeSystem+" "+strings.ToUpper(operation),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("db.system", storeSystem)),
		)
		tx.InstanceSet(spanInstanceKey, span)
	}
}

func (p *StoreTracing) finish(tx *gorm.DB) {
	value, ok := tx.InstanceGet(spanInstanceKey)
	if !ok {
		return
	}
	span, ok := value.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	statement := NormalizeStatement(tx.Statement.SQL.String())
	verb := StatementVerb(statement)
	if verb != "" {
		span.SetName(storeSystem + " " + verb)
	}
	span.SetAttributes(
		attribute.String("db.operation", verb),
		attribute.String("db.statement", statement),
		attribute.Int64("db.rows_affected", tx.Statement.RowsAffected),
	)

	if err := tx.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// NormalizeStatement collapses all whitespace runs in a SQL statement.
func NormalizeStatement(statement string) string {
	return strings.Join(strings.Fields(statement), " ")
}

// StatementVerb returns the uppercased first token of a statement.
func StatementVerb(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
