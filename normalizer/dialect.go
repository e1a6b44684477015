package normalizer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"regexp"
	"strings"
)

// Dialect describes how a CSV export is written.
type Dialect struct {
	Delimiter    rune   // Delimiter is one of ';', ',' or '\t'.
	DecimalComma bool   // DecimalComma is true for 1.234,56 style numbers.
	Language     string // Language of the header, "de" or "en".
}

var delimiters = []rune{';', ',', '\t'}

// detectDelimiter returns the delimiter that splits the first lines of data
// into the same number of fields, preferring the one producing the most.
func detectDelimiter(data []byte) rune {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() && len(lines) < 6 {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	sample := strings.Join(lines, "\n")

	best, bestFields := ';', 1
	for _, d := range delimiters {
		r := csv.NewReader(strings.NewReader(sample))
		r.Comma = d
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		records, err := r.ReadAll()
		if err != nil || len(records) == 0 {
			continue
		}
		n := len(records[0])
		consistent := true
		for _, rec := range records[1:] {
			if len(rec) != n {
				consistent = false
				break
			}
		}
		if consistent && n > bestFields {
			best, bestFields = d, n
		}
	}
	return best
}

var (
	// 1.234,56 or 12,5 : the comma is the decimal separator.
	commaDecimalRE = regexp.MustCompile(`^[-+]?\d{1,3}(\.\d{3})+,\d+$|^[-+]?\d+,(\d{1,2}|\d{4,})$`)
	// 1,234.56 or 12.5 : the dot is the decimal separator.
	dotDecimalRE = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+\.\d+$|^[-+]?\d+\.(\d{1,2}|\d{4,})$`)
)

// detectDecimalComma votes over numeric cells. Ambiguous cells such as
// "1,234" do not vote, a tie falls back to the convention of the delimiter:
// a semicolon separated export is usually German.
func detectDecimalComma(cells []string, delimiter rune) bool {
	comma, dot := 0, 0
	for _, c := range cells {
		c = cleanNumber(c)
		switch {
		case commaDecimalRE.MatchString(c):
			comma++
		case dotDecimalRE.MatchString(c):
			dot++
		}
	}
	if comma != dot {
		return comma > dot
	}
	return delimiter == ';'
}
