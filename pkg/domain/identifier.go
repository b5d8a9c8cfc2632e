package domain

// IdentifierKind tells company identifiers from individual ones by digit count.
type IdentifierKind string

const (
	IdentifierCompany    IdentifierKind = "company"
	IdentifierIndividual IdentifierKind = "individual"
	IdentifierUnknown    IdentifierKind = "unknown"
)

// ClassifyIdentifier inspects only the digit count of s; it does not validate
// check digits.
func ClassifyIdentifier(s string) IdentifierKind {
	switch len(digitsOnly(s)) {
	case cnpjLength:
		return IdentifierCompany
	case cpfLength:
		return IdentifierIndividual
	default:
		return IdentifierUnknown
	}
}

// DigitsOnly is the punctuation-stripping used by every identifier parser.
func DigitsOnly(s string) string {
	return digitsOnly(s)
}
