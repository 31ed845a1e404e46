package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// BillingMetrics is returned by GET /v1/metrics/billing.
type BillingMetrics struct {
	Calculations     int64   `json:"calculations"`
	OverdueUnpaid    int64   `json:"overdueUnpaid"`
	SurchargeApplied float64 `json:"surchargeAppliedRatio"`
	StatementsBuilt  int64   `json:"statementsBuilt"`
	BackendErrors    int64   `json:"backendErrors"`
	DriftedInvoices  int64   `json:"driftedInvoices"`
	InvoiceCacheHit  float64 `json:"invoiceCacheHitRate"`
	Period           string  `json:"period"`
}
