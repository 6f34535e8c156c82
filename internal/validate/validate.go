// Package validate provides pure input-validation predicates for the
// conversation flows. None of these functions perform I/O.
package validate

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
)

// Business-hours window: Monday to Friday, 08:00-14:59 civil time in the
// reference timezone, independent of the server timezone.
const (
	BusinessHourStart = 8
	BusinessHourEnd   = 15 // exclusive
)

// MinNameLength is the minimum number of characters (after trimming) for a
// display name to be accepted.
const MinNameLength = 2

var (
	nameRegex    = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚÜÑáéíóúüñ ]+$`)
	numericRegex = regexp.MustCompile(`^[0-9]+$`)

	manualEntryRegex = regexp.MustCompile(`(?i)afiliaci[oó]n\s*:\s*([^,\s]+)\s*,\s*folio\s*:\s*(\S+)`)
)

// referenceLocation is the fixed civil timezone for the business-hours check.
// Mexico City abolished DST in 2022; the fixed-offset fallback keeps the check
// correct on hosts without tzdata.
var referenceLocation = loadReferenceLocation()

func loadReferenceLocation() *time.Location {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		return time.FixedZone("CST", -6*60*60)
	}
	return loc
}

// IsValidName reports whether s is an acceptable display name: Latin letters
// (accented vowels and Ñ included) and spaces, at least MinNameLength
// characters after trimming.
func IsValidName(s string) bool {
	trimmed := strings.TrimSpace(s)
	if utf8.RuneCountInString(trimmed) < MinNameLength {
		return false
	}
	return nameRegex.MatchString(trimmed)
}

// IsNumeric reports whether s consists solely of ASCII digits.
func IsNumeric(s string) bool {
	return numericRegex.MatchString(s)
}

// IsBusinessHours reports whether t falls inside the advisor availability
// window: Monday-Friday, 08:00-14:59 in the reference timezone.
func IsBusinessHours(t time.Time) bool {
	local := t.In(referenceLocation)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour := local.Hour()
	return hour >= BusinessHourStart && hour < BusinessHourEnd
}

// pensionerKeywords accepts the literal keyword plus common misspellings and
// synonyms observed in user input.
var pensionerKeywords = []string{"pensionado", "pencionado", "pensionada", "pensionista", "jubilado", "jubilada"}

var activeKeywords = []string{"activo", "activa", "trabajador", "trabajadora", "empleado", "empleada"}

// DetectUserType classifies free text or a numeric code ("1" active, "2"
// pensioner) into a user type. The input is expected to be normalized
// (trimmed, lowercased) by the caller.
func DetectUserType(normalized string) (models.UserType, bool) {
	switch normalized {
	case "1":
		return models.UserTypeActive, true
	case "2":
		return models.UserTypePensioner, true
	}
	for _, kw := range activeKeywords {
		if strings.Contains(normalized, kw) {
			return models.UserTypeActive, true
		}
	}
	for _, kw := range pensionerKeywords {
		if strings.Contains(normalized, kw) {
			return models.UserTypePensioner, true
		}
	}
	return "", false
}

// ManualEntry is the parsed result of the "afiliacion: X, folio: Y" free-text
// format used when credential recognition is unavailable.
type ManualEntry struct {
	AffiliationNumber string
	Folio             string
	Valid             bool
}

// ParseManualEntry parses the manual-entry format with case-insensitive key
// matching. The result is invalid if either key is absent.
func ParseManualEntry(s string) ManualEntry {
	m := manualEntryRegex.FindStringSubmatch(s)
	if m == nil {
		return ManualEntry{}
	}
	return ManualEntry{
		AffiliationNumber: m[1],
		Folio:             m[2],
		Valid:             true,
	}
}
