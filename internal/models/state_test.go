package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValidStep(t *testing.T) {
	tests := []struct {
		name string
		flow Flow
		step Step
		want bool
	}{
		{"welcome greeting", FlowWelcome, StepGreeting, true},
		{"welcome menu", FlowWelcome, StepMenu, true},
		{"application confirm", FlowApplication, StepApplicationConfirm, true},
		{"step from another flow", FlowWelcome, StepApplicationConfirm, false},
		{"unknown step", FlowFAQ, Step("BOGUS"), false},
		{"unknown flow", Flow("bogus"), StepGreeting, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidStep(tt.flow, tt.step); got != tt.want {
				t.Errorf("ValidStep(%q, %q) = %v, want %v", tt.flow, tt.step, got, tt.want)
			}
		})
	}
}

func TestValidFlow(t *testing.T) {
	for _, f := range []Flow{FlowWelcome, FlowRequirements, FlowSimulation, FlowAdvisor, FlowFAQ, FlowApplication} {
		if !ValidFlow(f) {
			t.Errorf("ValidFlow(%q) = false, want true", f)
		}
	}
	if ValidFlow(Flow("bogus")) {
		t.Error("ValidFlow(bogus) = true, want false")
	}
}

func TestInitialStep(t *testing.T) {
	tests := []struct {
		flow Flow
		want Step
	}{
		{FlowWelcome, StepGreeting},
		{FlowRequirements, StepRequirementsLoanType},
		{FlowSimulation, StepSimulationLoanType},
		{FlowApplication, StepApplicationInitial},
		{Flow("bogus"), StepGreeting},
	}

	for _, tt := range tests {
		if got := InitialStep(tt.flow); got != tt.want {
			t.Errorf("InitialStep(%q) = %q, want %q", tt.flow, got, tt.want)
		}
	}
}

func TestDefaultState(t *testing.T) {
	state := DefaultState("5215512345678")

	if state.UserID != "5215512345678" {
		t.Errorf("UserID = %q, want 5215512345678", state.UserID)
	}
	if state.Flow != FlowWelcome || state.Step != StepGreeting {
		t.Errorf("got (%q, %q), want (welcome, GREETING)", state.Flow, state.Step)
	}
	if state.CreatedAt.IsZero() || state.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestMenuStateKeepsProfileAndTransients(t *testing.T) {
	prior := UserState{
		UserID:            "user1",
		Flow:              FlowApplication,
		Step:              StepApplicationConfirm,
		Name:              "Ana",
		UserType:          UserTypeActive,
		LoanType:          LoanTypeShortTerm,
		AffiliationNumber: "123",
	}

	next := MenuState(prior)

	if next.Flow != FlowWelcome || next.Step != StepMenu {
		t.Errorf("got (%q, %q), want (welcome, MENU)", next.Flow, next.Step)
	}
	if next.Name != "Ana" || next.UserType != UserTypeActive {
		t.Error("MenuState must keep profile fields")
	}
	if next.LoanType != LoanTypeShortTerm || next.AffiliationNumber != "123" {
		t.Error("MenuState must not clear transient fields")
	}
	// The input value is untouched.
	if prior.Flow != FlowApplication {
		t.Error("MenuState must not mutate its argument")
	}
}

func TestClearTransient(t *testing.T) {
	prior := UserState{
		UserID:             "user1",
		Name:               "Ana",
		UserType:           UserTypePensioner,
		LoanType:           LoanTypeMediumTerm,
		AffiliationNumber:  "123",
		Folio:              "456",
		CoSigners:          []CoSigner{{AffiliationNumber: "9", Folio: "8", DerechohabienteType: DerechohabienteActive}},
		CoSignersRequired:  2,
		CoSignersProcessed: 1,
	}

	next := ClearTransient(prior)

	if next.Name != "Ana" || next.UserType != UserTypePensioner {
		t.Error("ClearTransient must keep profile fields")
	}
	if next.LoanType != "" || next.AffiliationNumber != "" || next.Folio != "" {
		t.Error("ClearTransient must clear loan fields")
	}
	if next.CoSigners != nil || next.CoSignersRequired != 0 || next.CoSignersProcessed != 0 {
		t.Error("ClearTransient must clear co-signer fields")
	}
}

func TestUserStateJSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	original := UserState{
		UserID:             "5215512345678",
		Flow:               FlowApplication,
		Step:               StepApplicationCoSignerImage,
		Name:               "María José",
		UserType:           UserTypePensioner,
		LoanType:           LoanTypeMediumTerm,
		AffiliationNumber:  "AF-100",
		Folio:              "F-200",
		CoSigners:          []CoSigner{{AffiliationNumber: "AF-1", Folio: "F-1", DerechohabienteType: DerechohabienteActive}},
		CoSignersRequired:  2,
		CoSignersProcessed: 1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded UserState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.UserID != original.UserID || decoded.Flow != original.Flow || decoded.Step != original.Step {
		t.Errorf("identity fields changed: %+v", decoded)
	}
	if decoded.Name != original.Name || decoded.UserType != original.UserType {
		t.Errorf("profile fields changed: %+v", decoded)
	}
	if decoded.LoanType != original.LoanType || decoded.AffiliationNumber != original.AffiliationNumber || decoded.Folio != original.Folio {
		t.Errorf("loan fields changed: %+v", decoded)
	}
	if len(decoded.CoSigners) != 1 || decoded.CoSigners[0] != original.CoSigners[0] {
		t.Errorf("co-signers changed: %+v", decoded.CoSigners)
	}
	if decoded.CoSignersRequired != 2 || decoded.CoSignersProcessed != 1 {
		t.Errorf("co-signer counters changed: %+v", decoded)
	}
}
