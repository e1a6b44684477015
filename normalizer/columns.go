package normalizer

import (
	"slices"
	"strings"
)

// column identifies a field the normalizer understands.
type column int

const (
	colDate column = iota
	colSide
	colQuantity
	colPrice
	colFees
	colTax
	colName
	colAmount
	colMemo
	numColumns
)

// synonyms lists the accepted header names, German first then English.
var synonyms = [numColumns]struct{ de, en []string }{
	colDate:     {de: []string{"datum", "handelstag", "buchungstag", "valuta"}, en: []string{"date", "trade date", "transaction date"}},
	colSide:     {de: []string{"typ", "art", "transaktion", "transaktionsart", "buchungsart"}, en: []string{"type", "side", "action", "transaction", "transaction type"}},
	colQuantity: {de: []string{"anzahl", "stück", "stueck", "menge", "stücke"}, en: []string{"quantity", "shares", "units", "qty"}},
	colPrice:    {de: []string{"kurs", "preis", "ausführungskurs", "stückpreis"}, en: []string{"price", "unit price", "share price"}},
	colFees:     {de: []string{"gebühren", "gebuehren", "gebühr", "provision", "kosten"}, en: []string{"fees", "fee", "commission", "costs"}},
	colTax:      {de: []string{"steuern", "steuer", "quellensteuer", "kapitalertragsteuer"}, en: []string{"tax", "taxes", "withholding tax"}},
	colName:     {de: []string{"name", "wertpapier", "titel", "bezeichnung"}, en: []string{"security", "instrument", "product", "name"}},
	colAmount:   {de: []string{"betrag", "summe", "gesamt", "wert"}, en: []string{"amount", "total", "value"}},
	colMemo:     {de: []string{"notiz", "kommentar", "bemerkung"}, en: []string{"memo", "note", "notes", "comment"}},
}

// normalizeHeader lowercases a header cell and drops a unit suffix like
// "Kurs (EUR)" or "Price in USD".
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.Trim(h, "\"'\ufeff")))
	if i := strings.IndexAny(h, "([:"); i > 0 {
		h = h[:i]
	}
	if i := strings.Index(h, " in "); i > 0 {
		h = h[:i]
	}
	return strings.TrimSpace(h)
}

// mapHeader returns the index of each known column (-1 when absent) and the
// header language.
func mapHeader(header []string) (idx [numColumns]int, language string) {
	for i := range idx {
		idx[i] = -1
	}
	de, en := 0, 0
	for i, raw := range header {
		h := normalizeHeader(raw)
		for c := column(0); c < numColumns; c++ {
			if idx[c] >= 0 {
				continue
			}
			if slices.Contains(synonyms[c].de, h) {
				idx[c] = i
				de++
				break
			}
			if slices.Contains(synonyms[c].en, h) {
				idx[c] = i
				en++
				break
			}
		}
	}
	language = "en"
	if de > en {
		language = "de"
	}
	return idx, language
}

// sideWord classifies the content of a side cell. Sell words are checked
// first since "verkauf" contains "kauf".
func sideWord(s string) (buy, sell bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, w := range []string{"verkauf", "sell", "sale", "sold"} {
		if strings.Contains(s, w) {
			return false, true
		}
	}
	for _, w := range []string{"kauf", "buy", "purchase", "bought", "sparplan", "savings plan"} {
		if strings.Contains(s, w) {
			return true, false
		}
	}
	return false, false
}
