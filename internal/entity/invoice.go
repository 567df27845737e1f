package entity

// ExtractedInvoice is the single record produced for one input document.
// Every field is a plain string and is always present; a pattern that did
// not match is an empty string, never a null. Amount strings keep currency
// symbols and separators exactly as they appeared in the source text.
type ExtractedInvoice struct {
	CapturedAt        string `json:"captured_at"`
	ClientName        string `json:"client_name"`
	SupplierName      string `json:"supplier_name"`
	InvoiceDate       string `json:"invoice_date"`
	InvoiceNumber     string `json:"invoice_number"`
	TotalExcludingTax string `json:"total_excl_tax"`
	TotalIncludingTax string `json:"total_incl_tax"`
	TaxAmount         string `json:"tax_amount"`
}
