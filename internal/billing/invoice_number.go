package billing

import (
	"fmt"
	"strings"
)

var invoicePrefixes = map[string]string{
	"CAM":         "INV-CMC",
	"CMC":         "INV-CMC",
	"ELECTRICITY": "INV-ELC",
	"ELC":         "INV-ELC",
	"RENT":        "INV-REN",
	"REN":         "INV-REN",
	"MIXED":       "INV-MIX",
	"MIX":         "INV-MIX",
}

// InvoiceNumber builds PREFIX-YYYY-MM-NNNN[-suffix] for a property serial
// number and billing month. Unknown types get the plain INV prefix.
func InvoiceNumber(srNo, year, month int, invoiceType, suffix string) string {
	prefix, ok := invoicePrefixes[strings.ToUpper(strings.TrimSpace(invoiceType))]
	if !ok {
		prefix = "INV"
	}
	if srNo <= 0 {
		srNo = 1
	}
	n := fmt.Sprintf("%s-%d-%02d-%04d", prefix, year, month, srNo)
	if suffix != "" {
		n += "-" + suffix
	}
	return n
}
