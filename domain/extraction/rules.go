package extraction

import "regexp"

// The field rules are kept as ordered data rather than inline control flow
// so individual rules can be tested and extended without touching the
// traversal logic. Order matters: within each list the first matching rule
// wins.

// invoiceNumberRules match an invoice label followed by an optional '#'/':'
// separator and an alphanumeric token of at least 3 characters (dashes and
// slashes allowed inside the token).
var invoiceNumberRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)invoice\s*[#:]*\s*([A-Za-z0-9][A-Za-z0-9\-/]{2,})`),
	regexp.MustCompile(`(?i)\binv\s*[#:]*\s*([A-Za-z0-9][A-Za-z0-9\-/]{2,})`),
	regexp.MustCompile(`(?i)\bbill\s*[#:]*\s*([A-Za-z0-9][A-Za-z0-9\-/]{2,})`),
}

// totalAmountRules match a total label, an optional 3-letter currency code
// (group 1) and a numeric amount with optional thousands separators and
// decimals (group 2).
var totalAmountRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total\s*[:#]?\s*(?:([A-Za-z]{3})\s+)?\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`),
	regexp.MustCompile(`(?i)amount\s+due\s*[:#]?\s*(?:([A-Za-z]{3})\s+)?\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`),
	regexp.MustCompile(`(?i)balance\s+due\s*[:#]?\s*(?:([A-Za-z]{3})\s+)?\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`),
	regexp.MustCompile(`(?i)grand\s+total\s*[:#]?\s*(?:([A-Za-z]{3})\s+)?\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`),
}

// dateFamilies are tried in order; the first family that finds any match
// supplies both the invoice date and (when a second match exists) the due
// date. NOTE: when a document mixes formats, an earlier family can win with
// a match that is not the visually first date on the page. That behavior is
// inherited from the original rules and deliberately left unchanged.
var dateFamilies = []*regexp.Regexp{
	// day/month/year numeric, e.g. 15/01/2024 or 15-1-2024
	regexp.MustCompile(`\b\d{1,2}[/\-]\d{1,2}[/\-]\d{4}\b`),
	// year/month/day numeric, e.g. 2024/01/15 or 2024-1-15
	regexp.MustCompile(`\b\d{4}[/\-]\d{1,2}[/\-]\d{1,2}\b`),
	// month-name, e.g. January 15, 2024 or Jan 15 2024
	regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)\.?\s+\d{1,2},?\s+\d{4}\b`),
}

// vendorExclude rejects candidate vendor lines that are really document
// labels rather than a company name
var vendorExclude = regexp.MustCompile(`(?i)invoice|bill|statement`)

// vendorScanLines is how many leading lines are considered for the vendor
// name; vendorMinLength is the minimum length of a usable line
const (
	vendorScanLines = 3
	vendorMinLength = 4
)
