package domain

// ============================================================
// Invoice documents (tri-fold view-models)
// ============================================================

// DocumentKind selects the document layout.
type DocumentKind string

const (
	DocumentElectricity DocumentKind = "electricity"
	DocumentCAM         DocumentKind = "cam"
	DocumentRent        DocumentKind = "rent"
	DocumentGeneral     DocumentKind = "general"
)

// Line is a label/value pair rendered on a panel.
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Panel is one of the three copies printed side by side.
type Panel struct {
	Copy      string   `json:"copy"`
	Fields    []Line   `json:"fields"`
	Rows      []Line   `json:"rows"`
	Footnotes []string `json:"footnotes,omitempty"`
}

// Document is the render-ready invoice: header, three panels and the figures
// they were built from.
type Document struct {
	ID            string       `json:"id"`
	Kind          DocumentKind `json:"kind"`
	Title         string       `json:"title"`
	InvoiceID     string       `json:"invoiceId"`
	InvoiceNumber string       `json:"invoiceNumber"`
	MonthLabel    string       `json:"monthLabel"`
	FileName      string       `json:"fileName"`
	Panels        []Panel      `json:"panels"`
	Figures       Figures      `json:"figures"`
}

// BatchStatementRequest is the body for POST /v1/statements/batch.
type BatchStatementRequest struct {
	InvoiceIDs []string `json:"invoiceIds"`
	ChargeType string   `json:"chargeType"`
}

// BatchStatementResponse lists the built documents in request order.
type BatchStatementResponse struct {
	Documents []Document `json:"documents"`
}
