package client

import "nodal/internal/models"

type quoteKind int

const (
	quoteUnset quoteKind = iota
	quoteEmpty
	quoteExist
)

// QuoteField is the quote part of a patch: leave it alone, clear it, or
// point it at a memo. The zero value is QuoteUnset.
type QuoteField struct {
	kind quoteKind
	memo models.Memo
}

func QuoteUnset() QuoteField {
	return QuoteField{kind: quoteUnset}
}

func QuoteEmpty() QuoteField {
	return QuoteField{kind: quoteEmpty}
}

func QuoteExist(memo models.Memo) QuoteField {
	return QuoteField{kind: quoteExist, memo: memo}
}

func (q QuoteField) IsUnset() bool {
	return q.kind == quoteUnset
}

func (q QuoteField) IsEmpty() bool {
	return q.kind == quoteEmpty
}

// Memo returns the quoted memo when the field is QuoteExist.
func (q QuoteField) Memo() (models.Memo, bool) {
	return q.memo, q.kind == quoteExist
}
