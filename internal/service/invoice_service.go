package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/billing"
	"github.com/shehrozeikram/ERP-sub003/internal/domain"
	"github.com/shehrozeikram/ERP-sub003/internal/infra/observability"
	"github.com/shehrozeikram/ERP-sub003/internal/port"
	"github.com/shehrozeikram/ERP-sub003/internal/statement"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/invoice")

const (
	defaultBatchConcurrency = 4
	maxBatchSize            = 500
)

// Option customizes an InvoiceService.
type Option func(*InvoiceService)

// WithClock sets the clock figures are computed against.
func WithClock(now func() time.Time) Option {
	return func(s *InvoiceService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBatchConcurrency bounds how many invoices a batch builds at once.
func WithBatchConcurrency(n int) Option {
	return func(s *InvoiceService) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// InvoiceService fetches invoices from the backend and turns them into
// figures and printable documents.
type InvoiceService struct {
	invoices   port.InvoiceFetcher
	properties port.PropertyFetcher
	cache      port.Cache[*domain.Invoice]
	calc       *billing.Calculator
	builder    *statement.Builder
	metrics    *observability.Metrics
	logger     *zap.Logger

	now              func() time.Time
	batchConcurrency int
}

// NewInvoiceService creates the invoice service with all dependencies injected.
func NewInvoiceService(
	invoices port.InvoiceFetcher,
	properties port.PropertyFetcher,
	cache port.Cache[*domain.Invoice],
	calc *billing.Calculator,
	builder *statement.Builder,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *InvoiceService {
	s := &InvoiceService{
		invoices:         invoices,
		properties:       properties,
		cache:            cache,
		calc:             calc,
		builder:          builder,
		metrics:          metrics,
		logger:           logger,
		now:              time.Now,
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculate computes figures for an invoice supplied by the caller.
// No backend call is made.
func (s *InvoiceService) Calculate(ctx context.Context, req *domain.CalculateRequest) (*domain.Figures, error) {
	_, span := tracer.Start(ctx, "InvoiceService.Calculate")
	defer span.End()

	if req == nil || req.Invoice == nil {
		return nil, &domain.ErrValidation{Field: "invoice", Message: "invoice is required"}
	}
	filter, err := ParseFilter(req.ChargeType)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("charge.type", filter.String()))

	f := s.compute(req.Invoice, filter)
	return &f, nil
}

// GetFigures fetches an invoice and computes its figures.
func (s *InvoiceService) GetFigures(ctx context.Context, invoiceID, chargeType string) (*domain.Figures, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.GetFigures")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", invoiceID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("figures", time.Since(start))
	}()

	filter, err := ParseFilter(chargeType)
	if err != nil {
		return nil, err
	}
	inv, err := s.fetchInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	f := s.compute(inv, filter)
	return &f, nil
}

// GetStatement fetches an invoice and builds its document. When the invoice
// only carries a partial property, the full record is fetched for the size
// and address fields.
func (s *InvoiceService) GetStatement(ctx context.Context, invoiceID, chargeType string) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.GetStatement")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", invoiceID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("statement", time.Since(start))
	}()

	filter, err := ParseFilter(chargeType)
	if err != nil {
		return nil, err
	}
	return s.statement(ctx, invoiceID, filter)
}

// BatchStatements builds documents for many invoices concurrently. The first
// failure cancels the rest. Documents are returned in request order.
func (s *InvoiceService) BatchStatements(ctx context.Context, req *domain.BatchStatementRequest) (*domain.BatchStatementResponse, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.BatchStatements")
	defer span.End()

	if req == nil || len(req.InvoiceIDs) == 0 {
		return nil, &domain.ErrValidation{Field: "invoiceIds", Message: "at least one invoice id is required"}
	}
	if len(req.InvoiceIDs) > maxBatchSize {
		return nil, &domain.ErrValidation{Field: "invoiceIds", Message: fmt.Sprintf("at most %d invoices per batch", maxBatchSize)}
	}
	for _, id := range req.InvoiceIDs {
		if id == "" {
			return nil, &domain.ErrValidation{Field: "invoiceIds", Message: "invoice ids must not be empty"}
		}
	}
	filter, err := ParseFilter(req.ChargeType)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("batch.size", len(req.InvoiceIDs)),
		attribute.String("charge.type", filter.String()),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("statement_batch", time.Since(start))
	}()

	docs := make([]domain.Document, len(req.InvoiceIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)

	for i, id := range req.InvoiceIDs {
		g.Go(func() error {
			doc, err := s.statement(gCtx, id, filter)
			if err != nil {
				return fmt.Errorf("statement %s: %w", id, err)
			}
			docs[i] = *doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("batch statements built",
		zap.Int("count", len(docs)),
		zap.String("charge_type", filter.String()),
	)
	return &domain.BatchStatementResponse{Documents: docs}, nil
}

// CarryForward computes the arrears a new invoice of the property inherits.
// excludeID skips the invoice being created.
func (s *InvoiceService) CarryForward(ctx context.Context, propertyID, chargeType, excludeID string) (*domain.CarryForward, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.CarryForward")
	defer span.End()
	span.SetAttributes(attribute.String("property.id", propertyID))

	if propertyID == "" {
		return nil, &domain.ErrValidation{Field: "propertyId", Message: "property id is required"}
	}
	filter, err := ParseFilter(chargeType)
	if err != nil {
		return nil, err
	}

	history, err := s.invoices.ListPropertyInvoices(ctx, propertyID)
	if err != nil {
		s.recordFetchError(err)
		s.logger.Error("failed to fetch property invoices",
			zap.String("property_id", propertyID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("property invoices fetch: %w", err)
	}

	res := s.calc.CarryForwardArrears(history, filter, s.now(), excludeID)
	return &domain.CarryForward{
		PropertyID:     propertyID,
		ChargeType:     filter,
		Arrears:        res.Arrears,
		SourceInvoice:  res.Source,
		InvoicesLooked: len(history),
	}, nil
}

// GenerateInvoiceNumber formats the invoice number for a property and month.
func (s *InvoiceService) GenerateInvoiceNumber(req *domain.InvoiceNumberRequest) (*domain.InvoiceNumberResponse, error) {
	if req == nil {
		return nil, &domain.ErrValidation{Field: "body", Message: "request body is required"}
	}
	if req.Year < 1 || req.Year > 9999 {
		return nil, &domain.ErrValidation{Field: "year", Message: "year must be between 1 and 9999"}
	}
	if req.Month < 1 || req.Month > 12 {
		return nil, &domain.ErrValidation{Field: "month", Message: "month must be between 1 and 12"}
	}
	if req.SrNo < 0 {
		return nil, &domain.ErrValidation{Field: "srNo", Message: "serial number must not be negative"}
	}
	return &domain.InvoiceNumberResponse{
		InvoiceNumber: billing.InvoiceNumber(req.SrNo, req.Year, req.Month, req.Type, req.Suffix),
	}, nil
}

func (s *InvoiceService) statement(ctx context.Context, invoiceID string, filter domain.ChargeType) (*domain.Document, error) {
	inv, err := s.fetchInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inv = s.withFullProperty(ctx, inv)

	doc := s.builder.Build(inv, filter)
	s.observe(inv, doc.Figures)
	s.metrics.IncrStatement(doc.Kind)
	return &doc, nil
}

// withFullProperty returns a copy of inv whose property was completed from the
// backend. Lookup failures only cost the size and address fields, so they are
// logged and the partial property is kept.
func (s *InvoiceService) withFullProperty(ctx context.Context, inv *domain.Invoice) *domain.Invoice {
	if inv.Property == nil || inv.Property.ID == "" || inv.Property.HasSize() || s.properties == nil {
		return inv
	}

	full, err := s.properties.GetProperty(ctx, inv.Property.ID)
	if err != nil {
		s.recordFetchError(err)
		s.logger.Warn("property lookup failed, using invoice property",
			zap.String("invoice_id", inv.ID),
			zap.String("property_id", inv.Property.ID),
			zap.Error(err),
		)
		return inv
	}

	cp := *inv
	prop := *inv.Property
	prop.Merge(full)
	cp.Property = &prop
	return &cp
}

func (s *InvoiceService) fetchInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	if invoiceID == "" {
		return nil, &domain.ErrValidation{Field: "invoiceId", Message: "invoice id is required"}
	}

	cacheKey := invoiceKey(invoiceID)
	if inv, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("invoice")
		return inv, nil
	}
	s.metrics.IncrCacheMiss("invoice")

	inv, err := s.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		s.recordFetchError(err)
		s.logger.Error("failed to fetch invoice",
			zap.String("invoice_id", invoiceID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("invoice fetch: %w", err)
	}
	s.cache.Set(cacheKey, inv)
	return inv, nil
}

// Forget drops a cached invoice so the next read goes to the backend. Callers
// use it right after a payment, when the cached status may be stale.
func (s *InvoiceService) Forget(invoiceID string) {
	if invoiceID != "" {
		s.cache.Delete(invoiceKey(invoiceID))
	}
}

func invoiceKey(invoiceID string) string { return "invoice:" + invoiceID }

func (s *InvoiceService) compute(inv *domain.Invoice, filter domain.ChargeType) domain.Figures {
	f := s.calc.Compute(inv, filter, s.now())
	s.observe(inv, f)
	return f
}

func (s *InvoiceService) observe(inv *domain.Invoice, f domain.Figures) {
	s.metrics.RecordCalculation(f)
	if f.GrandTotalDrift.Valid {
		s.logger.Warn("invoice grand total disagrees with charge breakdown",
			zap.String("invoice_id", inv.ID),
			zap.String("grand_total", inv.GrandTotal.String()),
			zap.String("drift", f.GrandTotalDrift.Decimal.String()),
		)
	}
}

func (s *InvoiceService) recordFetchError(err error) {
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return
	}
	s.metrics.IncrExternalError("taj-api")
}

const maxChargeTypeLen = 32

// ParseFilter validates a charge-type query value. Empty, ALL and GENERAL
// select every charge. Types other than RENT, ELECTRICITY and CAM are
// accepted and select their own charge lines; only malformed tokens are
// rejected.
func ParseFilter(s string) (domain.ChargeType, error) {
	ct := domain.ParseChargeType(s)
	if ct == domain.ChargeAll {
		return ct, nil
	}
	if len(ct) > maxChargeTypeLen || !isTypeToken(string(ct)) {
		return "", &domain.ErrValidation{Field: "type", Message: fmt.Sprintf("malformed charge type %q", s)}
	}
	return ct, nil
}

// isTypeToken reports whether s looks like a backend charge type:
// A-Z first, then A-Z, 0-9, '_' or '-'.
func isTypeToken(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_' || r == '-'):
		default:
			return false
		}
	}
	return s != ""
}
