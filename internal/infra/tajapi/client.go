// Package tajapi is the REST client for the TAJ utilities backend, which owns
// invoices and properties.
package tajapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shehrozeikram/ERP-sub003/internal/domain"
	"github.com/shehrozeikram/ERP-sub003/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ServiceName labels errors and metrics for this backend.
const ServiceName = "taj-api"

var tracer = otel.Tracer("tajapi")

// envelope is the {success, data, message} wrapper of every backend response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Client fetches invoices and properties with retry, circuit breaker,
// bulkhead and tracing.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
}

// NewClient creates a Client. A nil breaker gets the default breaker, which
// does not count not-found answers as failures.
func NewClient(httpClient *http.Client, baseURL, token string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cb == nil {
		cb = NewBreaker()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
	}
}

// NewBreaker returns the circuit breaker used for the backend.
func NewBreaker() *gobreaker.CircuitBreaker {
	return resilience.NewCircuitBreaker(ServiceName, func(err error) bool {
		if err == nil {
			return true
		}
		var nf *domain.ErrNotFound
		return errors.As(err, &nf)
	})
}

// GetInvoice fetches one invoice with its populated property.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "TajClient.GetInvoice")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", invoiceID))

	var inv domain.Invoice
	path := "/taj-utilities/invoices/" + url.PathEscape(invoiceID)
	if err := c.get(ctx, path, "invoice", invoiceID, &inv); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if inv.ID == "" {
		inv.ID = invoiceID
	}
	return &inv, nil
}

// ListPropertyInvoices fetches the invoice history of a property.
func (c *Client) ListPropertyInvoices(ctx context.Context, propertyID string) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "TajClient.ListPropertyInvoices")
	defer span.End()
	span.SetAttributes(attribute.String("property.id", propertyID))

	var invoices []domain.Invoice
	path := "/taj-utilities/invoices/property/" + url.PathEscape(propertyID)
	if err := c.get(ctx, path, "property invoices", propertyID, &invoices); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("invoice.count", len(invoices)))
	return invoices, nil
}

// GetProperty fetches the full property record.
func (c *Client) GetProperty(ctx context.Context, propertyID string) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "TajClient.GetProperty")
	defer span.End()
	span.SetAttributes(attribute.String("property.id", propertyID))

	var p domain.Property
	path := "/taj-utilities/properties/" + url.PathEscape(propertyID)
	if err := c.get(ctx, path, "property", propertyID, &p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &p, nil
}

// Ping checks the backend is reachable. Any HTTP answer counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ErrExternalService{Service: ServiceName, Err: err}
	}
	resp.Body.Close()
	return nil
}

// get runs one GET through the bulkhead, circuit breaker and retry loop and
// decodes the envelope data into out. Not-found answers come back as
// *domain.ErrNotFound, everything else as *domain.ErrExternalService,
// *domain.ErrCircuitOpen or *domain.ErrTimeout.
func (c *Client) get(ctx context.Context, path, resource, id string, out any) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrTimeout{Operation: ServiceName + " " + resource}
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			return c.do(ctx, path, resource, id, out)
		})
	})
	if err == nil {
		return nil
	}

	var nf *domain.ErrNotFound
	switch {
	case errors.As(err, &nf):
		return nf
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: ServiceName}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: ServiceName + " " + resource}
	}
	return &domain.ErrExternalService{Service: ServiceName, Err: err}
}

func (c *Client) do(ctx context.Context, path, resource, id string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resilience.Permanent(&domain.ErrNotFound{Resource: resource, ID: id})
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return resilience.Permanent(fmt.Errorf("%s returned status %d", path, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return resilience.Permanent(fmt.Errorf("decode %s envelope: %w", resource, err))
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return resilience.Permanent(fmt.Errorf("%s: %s", resource, msg))
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return resilience.Permanent(&domain.ErrNotFound{Resource: resource, ID: id})
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return resilience.Permanent(fmt.Errorf("decode %s: %w", resource, err))
	}
	return nil
}
