package tajapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/domain"
	"github.com/shehrozeikram/ERP-sub003/internal/infra/resilience"
	"github.com/shehrozeikram/ERP-sub003/internal/infra/tajapi"
)

var testCfg = resilience.Config{
	MaxRetries:     2,
	InitialBackoff: time.Millisecond,
	MaxConcurrency: 4,
}

const invoiceJSON = `{
  "success": true,
  "data": {
    "_id": "inv-1",
    "invoiceNumber": "INV-REN-2026-09-0012",
    "dueDate": "2026-10-01T00:00:00.000Z",
    "charges": [{"type": "RENT", "amount": 25000, "arrears": 1500}],
    "totalPaid": 0,
    "paymentStatus": "unpaid",
    "property": {"_id": "prop-1", "propertyName": "Shop 12", "srNo": 12}
  }
}`

func newServer(t *testing.T, h http.HandlerFunc) *tajapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return tajapi.NewClient(srv.Client(), srv.URL, "secret-token", tajapi.NewBreaker(), testCfg)
}

func TestGetInvoice_Success(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/taj-utilities/invoices/inv-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("unexpected authorization %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(invoiceJSON))
	})

	inv, err := c.GetInvoice(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.InvoiceNumber != "INV-REN-2026-09-0012" {
		t.Errorf("unexpected invoice number %s", inv.InvoiceNumber)
	}
	if len(inv.Charges) != 1 || inv.Charges[0].Amount.IntPart() != 25000 {
		t.Fatalf("unexpected charges %+v", inv.Charges)
	}
	if !inv.Charges[0].Arrears.Valid || inv.Charges[0].Arrears.Decimal.IntPart() != 1500 {
		t.Errorf("unexpected arrears %+v", inv.Charges[0].Arrears)
	}
	if inv.Property == nil || inv.Property.SrNo != "12" {
		t.Errorf("unexpected property %+v", inv.Property)
	}
}

func TestGetInvoice_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetInvoice(context.Background(), "missing")

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestGetInvoice_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(invoiceJSON))
	})

	if _, err := c.GetInvoice(context.Background(), "inv-1"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestGetInvoice_ServerErrorWrapped(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetInvoice(context.Background(), "inv-1")

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if ext.Service != tajapi.ServiceName {
		t.Errorf("unexpected service %s", ext.Service)
	}
}

func TestGetInvoice_UnsuccessfulEnvelope(t *testing.T) {
	var calls atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"success": false, "message": "Invoice is archived"}`))
	})

	_, err := c.GetInvoice(context.Background(), "inv-1")

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected no retry, got %d calls", calls.Load())
	}
}

func TestGetInvoice_CircuitOpens(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	var err error
	for i := 0; i < 6; i++ {
		_, err = c.GetInvoice(context.Background(), "inv-1")
	}

	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestListPropertyInvoices(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/taj-utilities/invoices/property/prop-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success": true, "data": [
			{"_id": "a", "balance": 5000, "paymentStatus": "unpaid"},
			{"_id": "b", "balance": null, "paymentStatus": "paid"}
		]}`))
	})

	invoices, err := c.ListPropertyInvoices(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(invoices) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(invoices))
	}
	if !invoices[0].Balance.Valid || invoices[0].Balance.Decimal.IntPart() != 5000 {
		t.Errorf("unexpected balance %+v", invoices[0].Balance)
	}
	if invoices[1].Balance.Valid {
		t.Error("expected null balance to stay invalid")
	}
}

func TestGetProperty(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/taj-utilities/properties/prop-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success": true, "data": {"_id": "prop-1", "areaValue": 450, "areaUnit": "sq ft"}}`))
	})

	p, err := c.GetProperty(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Size() != "450 sq ft" {
		t.Errorf("unexpected size %q", p.Size())
	}
}
