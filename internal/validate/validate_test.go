package validate

import (
	"testing"
	"time"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
)

func TestIsValidName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple name", "Juan", true},
		{"full name with spaces", "María José", true},
		{"accented vowels", "José Ángel Muñoz", true},
		{"with surrounding whitespace", "  Ana  ", true},
		{"minimum length", "Lu", true},
		{"single letter", "J", false},
		{"empty", "", false},
		{"only spaces", "   ", false},
		{"digits", "Juan2", false},
		{"punctuation", "Juan-Pablo", false},
		{"emoji", "Juan 😀", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidName(tt.input); got != tt.want {
				t.Errorf("IsValidName(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"123", true},
		{"0", true},
		{"", false},
		{"12a", false},
		{"1.5", false},
		{" 12", false},
		{"-3", false},
	}

	for _, tt := range tests {
		if got := IsNumeric(tt.input); got != tt.want {
			t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsBusinessHours(t *testing.T) {
	// All instants constructed directly in the reference timezone.
	loc := referenceLocation
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday mid-morning", time.Date(2026, 8, 31, 10, 0, 0, 0, loc), true},
		{"friday start of window", time.Date(2026, 9, 4, 8, 0, 0, 0, loc), true},
		{"last in-window minute", time.Date(2026, 8, 31, 14, 59, 0, 0, loc), true},
		{"one minute before opening", time.Date(2026, 8, 31, 7, 59, 0, 0, loc), false},
		{"exactly at close", time.Date(2026, 8, 31, 15, 0, 0, 0, loc), false},
		{"late evening", time.Date(2026, 8, 31, 22, 0, 0, 0, loc), false},
		{"saturday in window", time.Date(2026, 9, 5, 10, 0, 0, 0, loc), false},
		{"sunday in window", time.Date(2026, 9, 6, 10, 0, 0, 0, loc), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBusinessHours(tt.t); got != tt.want {
				t.Errorf("IsBusinessHours(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestIsBusinessHoursConvertsZone(t *testing.T) {
	// 20:00 UTC is 14:00 in Mexico City (UTC-6): inside the window even
	// though the UTC hour is not.
	utc := time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)
	if !IsBusinessHours(utc) {
		t.Errorf("IsBusinessHours(%v) = false, want true after zone conversion", utc)
	}
}

func TestDetectUserType(t *testing.T) {
	tests := []struct {
		input    string
		wantType models.UserType
		wantOK   bool
	}{
		{"1", models.UserTypeActive, true},
		{"2", models.UserTypePensioner, true},
		{"activo", models.UserTypeActive, true},
		{"soy trabajadora", models.UserTypeActive, true},
		{"empleado de base", models.UserTypeActive, true},
		{"pensionado", models.UserTypePensioner, true},
		{"pencionado", models.UserTypePensioner, true}, // common misspelling
		{"soy jubilada", models.UserTypePensioner, true},
		{"3", "", false},
		{"no se", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		gotType, gotOK := DetectUserType(tt.input)
		if gotType != tt.wantType || gotOK != tt.wantOK {
			t.Errorf("DetectUserType(%q) = (%q, %v), want (%q, %v)", tt.input, gotType, gotOK, tt.wantType, tt.wantOK)
		}
	}
}

func TestParseManualEntry(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantAff   string
		wantFolio string
	}{
		{"canonical", "afiliacion: 12345, folio: 678", true, "12345", "678"},
		{"accented key", "afiliación: 12345, folio: 678", true, "12345", "678"},
		{"mixed case", "Afiliacion: ABC9, Folio: F-22", true, "ABC9", "F-22"},
		{"no spaces after colon", "afiliacion:12345,folio:678", true, "12345", "678"},
		{"embedded in sentence", "mis datos son afiliacion: 111, folio: 222 gracias", true, "111", "222"},
		{"missing folio", "afiliacion: 12345", false, "", ""},
		{"missing affiliation", "folio: 678", false, "", ""},
		{"empty", "", false, "", ""},
		{"unrelated text", "quiero un préstamo", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseManualEntry(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ParseManualEntry(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.AffiliationNumber != tt.wantAff || got.Folio != tt.wantFolio {
				t.Errorf("ParseManualEntry(%q) = (%q, %q), want (%q, %q)", tt.input, got.AffiliationNumber, got.Folio, tt.wantAff, tt.wantFolio)
			}
		})
	}
}
