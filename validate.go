package poesaver

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Thresholds used by the validity predicates.
const (
	minTitlePrintableRatio   = 0.70
	maxTitleSymbolRatio      = 0.50
	minContentPrintableRatio = 0.80
	maxContentControlRatio   = 0.10
	nonASCIIRunLength        = 10
	maxNonASCIIRuns          = 3
)

// IsValidTitle reports whether s looks like a genuine page title rather than
// mis-decoded binary noise.
func IsValidTitle(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}

	total := utf8.RuneCountInString(s)
	printable, symbols := 0, 0
	for _, r := range s {
		if isPrintable(r) {
			printable++
		}
		if r > unicode.MaxASCII && !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			symbols++
		}
	}

	if float64(printable)/float64(total) < minTitlePrintableRatio {
		return false
	}
	return float64(symbols) <= float64(total)*maxTitleSymbolRatio
}

// IsValidContent reports whether s looks like genuine message text. It rejects
// whitespace-only input, input dominated by unprintable or control characters,
// and input containing several long runs of non-ASCII characters, which is
// what anti-bot responses decoded as text tend to look like.
func IsValidContent(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}

	total := utf8.RuneCountInString(s)
	printable, control := 0, 0
	runs, runLen := 0, 0
	for _, r := range s {
		if isPrintable(r) || unicode.IsSpace(r) {
			printable++
		}
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			control++
		}
		if r > unicode.MaxASCII {
			runLen++
			if runLen == nonASCIIRunLength {
				runs++
			}
		} else {
			runLen = 0
		}
	}

	if float64(printable)/float64(total) < minContentPrintableRatio {
		return false
	}
	if runs > maxNonASCIIRuns {
		return false
	}
	return float64(control) <= float64(total)*maxContentControlRatio
}

// isPrintable treats bytes that failed to decode as unprintable.
func isPrintable(r rune) bool {
	return r != utf8.RuneError && unicode.IsPrint(r)
}
