package handler

import (
	"net/http"
	"strconv"

	"github.com/shehrozeikram/ERP-sub003/internal/domain"
	"github.com/shehrozeikram/ERP-sub003/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Figures: POST /v1/invoices/calculate, GET /v1/invoices/{invoiceId}/figures
// ============================================================

func calculateHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/invoices/calculate")
		defer span.End()

		var req domain.CalculateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		figures, err := svc.Calculate(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, figures)
	}
}

func figuresHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices/{invoiceId}/figures")
		defer span.End()

		invoiceID := chi.URLParam(r, "invoiceId")
		span.SetAttributes(attribute.String("invoice.id", invoiceID))
		if wantsFresh(r) {
			svc.Forget(invoiceID)
		}

		figures, err := svc.GetFigures(ctx, invoiceID, r.URL.Query().Get("type"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, figures)
	}
}

// ============================================================
// Documents
// ============================================================

func statementHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices/{invoiceId}/statement")
		defer span.End()

		invoiceID := chi.URLParam(r, "invoiceId")
		span.SetAttributes(attribute.String("invoice.id", invoiceID))
		if wantsFresh(r) {
			svc.Forget(invoiceID)
		}

		doc, err := svc.GetStatement(ctx, invoiceID, r.URL.Query().Get("type"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func batchStatementsHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/statements/batch")
		defer span.End()

		var req domain.BatchStatementRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("batch.size", len(req.InvoiceIDs)))

		resp, err := svc.BatchStatements(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Debug("batch statements requested",
			zap.String("subject", SubjectFromContext(ctx)),
			zap.Int("count", len(resp.Documents)),
		)
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Invoice creation helpers
// ============================================================

func carryForwardHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/properties/{propertyId}/carry-forward")
		defer span.End()

		propertyID := chi.URLParam(r, "propertyId")
		span.SetAttributes(attribute.String("property.id", propertyID))

		q := r.URL.Query()
		cf, err := svc.CarryForward(ctx, propertyID, q.Get("type"), q.Get("exclude"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cf)
	}
}

func invoiceNumberHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/invoice-numbers")
		defer span.End()

		var req domain.InvoiceNumberRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp, err := svc.GenerateInvoiceNumber(&req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// wantsFresh reports whether the caller asked to skip the invoice cache with
// ?fresh=true.
func wantsFresh(r *http.Request) bool {
	fresh, _ := strconv.ParseBool(r.URL.Query().Get("fresh"))
	return fresh
}
