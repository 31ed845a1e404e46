// Package statement turns an invoice into the tri-fold document printed for
// residents: the same header and amount rows repeated on a bank, office and
// client copy.
package statement

import (
	"regexp"
	"strings"
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/billing"
	"github.com/shehrozeikram/ERP-sub003/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	dateLayout  = "02-Jan-06"
	monthLayout = "Jan-06"

	// Rent and CAM invoices created without a due date show one 30 days
	// after the end of the billing period.
	displayDueDays = 30
)

// Copies are the panels of every document, left to right.
var Copies = []string{"Bank Copy", "Office Copy", "Client Copy"}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Config holds the builder dependencies.
type Config struct {
	BankAccountNo string
	Calculator    *billing.Calculator
	Now           func() time.Time
}

// Builder assembles documents. It is safe for concurrent use.
type Builder struct {
	bankAccount string
	calc        *billing.Calculator
	now         func() time.Time
}

// NewBuilder creates a Builder. A nil calculator falls back to the standard
// policy, a nil clock to time.Now.
func NewBuilder(cfg Config) *Builder {
	b := &Builder{
		bankAccount: cfg.BankAccountNo,
		calc:        cfg.Calculator,
		now:         cfg.Now,
	}
	if b.calc == nil {
		b.calc = billing.NewCalculator(billing.Options{})
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// KindFor maps a charge-type filter to its document layout.
func KindFor(filter domain.ChargeType) domain.DocumentKind {
	switch filter {
	case domain.ChargeElectricity:
		return domain.DocumentElectricity
	case domain.ChargeCAM:
		return domain.DocumentCAM
	case domain.ChargeRent:
		return domain.DocumentRent
	default:
		return domain.DocumentGeneral
	}
}

// Build computes the figures for the filtered charges and lays them out.
func (b *Builder) Build(inv *domain.Invoice, filter domain.ChargeType) domain.Document {
	if inv == nil {
		inv = &domain.Invoice{}
	}
	kind := KindFor(filter)
	fig := b.calc.Compute(inv, filter, b.now())

	fields := b.fields(inv, kind)
	rows := append(detailRows(inv, kind), b.figureRows(fig, kind)...)
	notes := b.footnotes(kind)

	panels := make([]domain.Panel, 0, len(Copies))
	for _, c := range Copies {
		panels = append(panels, domain.Panel{
			Copy:      c,
			Fields:    fields,
			Rows:      rows,
			Footnotes: notes,
		})
	}

	return domain.Document{
		ID:            uuid.NewString(),
		Kind:          kind,
		Title:         title(kind),
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		MonthLabel:    b.monthLabel(inv),
		FileName:      FileName(kind, inv),
		Panels:        panels,
		Figures:       fig,
	}
}

func (b *Builder) fields(inv *domain.Invoice, kind domain.DocumentKind) []domain.Line {
	p := inv.Property
	if p == nil {
		p = &domain.Property{}
	}

	lines := []domain.Line{
		{Label: "Resident ID", Value: p.ResidentCode()},
		{Label: "Name", Value: residentName(p, kind)},
		{Label: "Address", Value: address(p)},
		{Label: "Sector", Value: p.Sector},
		{Label: "Size", Value: p.Size()},
		{Label: "Account No", Value: b.bankAccount},
		{Label: "Period", Value: b.period(inv)},
		{Label: "Invoice No", Value: inv.InvoiceNumber},
		{Label: "Invoicing Date", Value: b.date(firstTime(inv.InvoiceDate, inv.CreatedAt))},
		{Label: "Due Date", Value: b.date(DisplayDueDate(inv, kind))},
	}

	if kind == domain.DocumentElectricity {
		if cd := inv.CalculationData; cd != nil {
			meter := cd.MeterNo.String()
			if meter == "" {
				meter = p.ElectricityWaterMeterNo.String()
			}
			lines = append(lines,
				domain.Line{Label: "Meter No", Value: meter},
				domain.Line{Label: "Previous Reading", Value: cd.PreviousReading.String()},
				domain.Line{Label: "Current Reading", Value: cd.CurrentReading.String()},
				domain.Line{Label: "Units Consumed", Value: cd.UnitsConsumed.String()},
			)
		}
	}
	return lines
}

func detailRows(inv *domain.Invoice, kind domain.DocumentKind) []domain.Line {
	switch kind {
	case domain.DocumentElectricity:
		cd := inv.CalculationData
		if cd == nil {
			return nil
		}
		var rows []domain.Line
		if cd.Slab != nil {
			rows = append(rows,
				domain.Line{Label: "Units Slab", Value: cd.Slab.UnitsSlab},
				domain.Line{Label: "Unit Price", Value: billing.FormatRate(cd.Slab.UnitRate)},
			)
		}
		if c := cd.Charges; c != nil {
			rows = append(rows,
				domain.Line{Label: "Share of IESCO Supply Cost", Value: billing.FormatAmount(c.ElectricityCost)},
				domain.Line{Label: "FC Surcharge", Value: billing.FormatAmount(c.FCSurcharge)},
				domain.Line{Label: "Sales Tax", Value: billing.FormatAmount(c.GST)},
				domain.Line{Label: "Electricity Duty", Value: billing.FormatAmount(c.ElectricityDuty)},
				domain.Line{Label: "Fixed Charges", Value: billing.FormatAmount(c.FixedCharges)},
			)
		}
		return rows
	case domain.DocumentRent:
		return []domain.Line{{Label: "Monthly Rent", Value: billing.FormatAmount(sumAmounts(inv, domain.ChargeRent))}}
	case domain.DocumentCAM:
		return []domain.Line{{Label: "CAM Charges", Value: billing.FormatAmount(sumAmounts(inv, domain.ChargeCAM))}}
	}
	return nil
}

func (b *Builder) figureRows(f domain.Figures, kind domain.DocumentKind) []domain.Line {
	arrears := billing.FormatAmount(f.Arrears)
	if kind == domain.DocumentRent || kind == domain.DocumentCAM {
		arrears = billing.FormatArrears(f.Arrears)
	}
	return []domain.Line{
		{Label: "Charges for the Month", Value: billing.FormatAmount(f.ChargesForMonth)},
		{Label: "Arrears", Value: arrears},
		{Label: "Payable Within Due Date", Value: billing.FormatAmount(f.PayableWithinDueDate)},
		{Label: "Late Payment Surcharge", Value: billing.FormatAmount(f.LatePaymentSurcharge)},
		{Label: "Payable After Due Date", Value: billing.FormatAmount(f.PayableAfterDueDate)},
		{Label: "Paid Amount", Value: billing.FormatAmount(f.Paid)},
		{Label: "Remaining Balance", Value: billing.FormatAmount(f.RemainingBalance)},
	}
}

func (b *Builder) footnotes(kind domain.DocumentKind) []string {
	pct := b.calc.Rate().Mul(decimal.NewFromInt(100)).String()
	notes := []string{
		"Please pay within the due date.",
		"A late payment surcharge of " + pct + "% of the charges for the month applies after the due date.",
	}
	if kind == domain.DocumentElectricity {
		notes = append(notes, "Tariff rates are as notified by IESCO for the billing month.")
	}
	return notes
}

// DisplayDueDate is the due date printed on the document. Rent and CAM
// invoices without one show periodTo + 30 days; the calculator is not
// affected by this fallback.
func DisplayDueDate(inv *domain.Invoice, kind domain.DocumentKind) *time.Time {
	if inv.DueDate != nil {
		return inv.DueDate
	}
	if (kind == domain.DocumentRent || kind == domain.DocumentCAM) && inv.PeriodTo != nil {
		t := inv.PeriodTo.AddDate(0, 0, displayDueDays)
		return &t
	}
	return nil
}

// FileName is "<Kind>_Invoice_<property>.pdf" with everything but letters and
// digits collapsed to underscores.
func FileName(kind domain.DocumentKind, inv *domain.Invoice) string {
	name := ""
	if inv.Property != nil {
		name = firstNonEmpty(inv.Property.PropertyName, inv.Property.PlotNumber.String())
	}
	name = firstNonEmpty(name, inv.InvoiceNumber, inv.ID, "invoice")
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_")
	if name == "" {
		name = "invoice"
	}
	return kindLabel(kind) + "_Invoice_" + name + ".pdf"
}

func (b *Builder) monthLabel(inv *domain.Invoice) string {
	t := firstTime(inv.PeriodTo, inv.InvoiceDate, inv.CreatedAt)
	if t == nil {
		now := b.now()
		t = &now
	}
	return strings.ToUpper(t.In(b.calc.Location()).Format(monthLayout))
}

func (b *Builder) period(inv *domain.Invoice) string {
	if inv.PeriodFrom == nil && inv.PeriodTo == nil {
		return ""
	}
	return b.date(inv.PeriodFrom) + " To " + b.date(inv.PeriodTo)
}

func (b *Builder) date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(b.calc.Location()).Format(dateLayout)
}

func title(kind domain.DocumentKind) string {
	switch kind {
	case domain.DocumentElectricity:
		return "Electricity Bill"
	case domain.DocumentCAM:
		return "CAM Charges Invoice"
	case domain.DocumentRent:
		return "Rent Invoice"
	}
	return "Invoice"
}

func kindLabel(kind domain.DocumentKind) string {
	switch kind {
	case domain.DocumentElectricity:
		return "Electricity"
	case domain.DocumentCAM:
		return "CAM"
	case domain.DocumentRent:
		return "Rent"
	}
	return "General"
}

func residentName(p *domain.Property, kind domain.DocumentKind) string {
	if kind == domain.DocumentRent {
		return firstNonEmpty(p.TenantName, p.OwnerName, residentRefName(p))
	}
	return firstNonEmpty(p.OwnerName, residentRefName(p), p.TenantName)
}

func residentRefName(p *domain.Property) string {
	if p.Resident == nil {
		return ""
	}
	return p.Resident.Name
}

func address(p *domain.Property) string {
	if a := firstNonEmpty(p.FullAddress, p.Address); a != "" {
		return a
	}
	var parts []string
	if p.PlotNumber != "" {
		parts = append(parts, "Plot "+p.PlotNumber.String())
	}
	if p.Street != "" {
		parts = append(parts, p.Street)
	}
	if p.Floor != "" {
		parts = append(parts, p.Floor)
	}
	return strings.Join(parts, ", ")
}

func sumAmounts(inv *domain.Invoice, t domain.ChargeType) decimal.Decimal {
	total := decimal.Zero
	for _, c := range inv.ChargesOf(t) {
		total = total.Add(c.Amount)
	}
	return total
}

func firstTime(ts ...*time.Time) *time.Time {
	for _, t := range ts {
		if t != nil && !t.IsZero() {
			return t
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
