package entity

// Culture selects the language of the gateway's payment page.
type Culture string

const (
	CultureRU Culture = "ru"
	CultureEN Culture = "en"
)

// TaxRate is a gateway tax code attached to refunded invoice items.
type TaxRate string

const (
	TaxNone   TaxRate = "none"
	TaxVAT0   TaxRate = "vat0"
	TaxVAT10  TaxRate = "vat10"
	TaxVAT20  TaxRate = "vat20"
	TaxVAT110 TaxRate = "vat110"
	TaxVAT120 TaxRate = "vat120"
)
