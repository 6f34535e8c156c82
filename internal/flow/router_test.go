package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/templates"
)

func newTestRouter() *Router {
	rec := &mockRecognizer{}
	gen := &mockGenerator{}
	return NewRouter(
		NewWelcomeModule(),
		NewRequirementsModule(),
		NewSimulationModule(rec),
		NewAdvisorModule(),
		NewFAQModule(),
		NewApplicationModule(rec, gen),
	)
}

func TestRouterGlobalCommandFromEveryState(t *testing.T) {
	router := newTestRouter()

	// Every (flow, step) combination, including mid-upload and mid-loop
	// application steps, must escape to the Welcome menu.
	states := []models.UserState{
		stateAt(models.FlowWelcome, models.StepGreeting),
		stateAt(models.FlowWelcome, models.StepAwaitingName),
		stateAt(models.FlowWelcome, models.StepAwaitingUserType),
		stateAt(models.FlowWelcome, models.StepMenu),
		stateAt(models.FlowWelcome, models.StepAwaitingMenuChoice),
		stateAt(models.FlowRequirements, models.StepRequirementsLoanType),
		stateAt(models.FlowSimulation, models.StepSimulationLoanType),
		stateAt(models.FlowSimulation, models.StepSimulationCredential),
		stateAt(models.FlowSimulation, models.StepSimulationManualEntry),
		stateAt(models.FlowAdvisor, models.StepAdvisorEntry),
		stateAt(models.FlowFAQ, models.StepFAQMenu),
		stateAt(models.FlowApplication, models.StepApplicationInitial),
		stateAt(models.FlowApplication, models.StepApplicationLoanType),
		stateAt(models.FlowApplication, models.StepApplicationCredential),
		stateAt(models.FlowApplication, models.StepApplicationManualEntry),
		stateAt(models.FlowApplication, models.StepApplicationConfirm),
		stateAt(models.FlowApplication, models.StepApplicationCoSignerCount),
		stateAt(models.FlowApplication, models.StepApplicationCoSignerImage),
	}

	for _, command := range []string{"menu", "menú", "cancelar", "CANCEL", "  Menu  "} {
		for _, state := range states {
			state.LoanType = models.LoanTypeShortTerm
			state.CoSignersRequired = 1

			result := router.Route(context.Background(), "user1", command, nil, state)

			if result.NewState.Flow != models.FlowWelcome || result.NewState.Step != models.StepMenu {
				t.Errorf("command %q from (%q, %q): landed on (%q, %q), want Welcome menu",
					command, state.Flow, state.Step, result.NewState.Flow, result.NewState.Step)
			}
			if result.NewState.LoanType != "" || result.NewState.CoSignersRequired != 0 {
				t.Errorf("command %q from (%q, %q): transient fields not cleared", command, state.Flow, state.Step)
			}
			if result.NewState.Name != "Ana" {
				t.Errorf("command %q: profile name was cleared", command)
			}
			if len(result.Replies) == 0 || result.Replies[0] != templates.GlobalCommandAck {
				t.Errorf("command %q: expected acknowledgment reply, got %q", command, result.Replies)
			}
		}
	}
}

func TestRouterUnknownFlowFallsBackToWelcome(t *testing.T) {
	router := newTestRouter()

	state := models.UserState{UserID: "user1", Flow: models.Flow("legacy_flow"), Step: models.Step("LEGACY")}
	result := router.Route(context.Background(), "user1", "hola", nil, state)

	if result.NewState.Flow != models.FlowWelcome {
		t.Errorf("flow = %q, want welcome", result.NewState.Flow)
	}
	if !models.ValidStep(result.NewState.Flow, result.NewState.Step) {
		t.Errorf("step %q is not valid for flow %q", result.NewState.Step, result.NewState.Flow)
	}
	if len(result.Replies) == 0 {
		t.Error("expected at least one reply")
	}
}

// failingModule always errors, to exercise the router's degrade path.
type failingModule struct{}

func (failingModule) Flow() models.Flow { return models.FlowFAQ }
func (failingModule) Handle(ctx context.Context, userID string, in Input, state models.UserState) (Result, error) {
	return Result{}, errors.New("boom")
}

func TestRouterModuleErrorDegradesToMenu(t *testing.T) {
	router := NewRouter(NewWelcomeModule(), failingModule{})

	state := stateAt(models.FlowFAQ, models.StepFAQMenu)
	result := router.Route(context.Background(), "user1", "1", nil, state)

	assertState(t, result, models.FlowWelcome, models.StepMenu)
	if len(result.Replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(result.Replies))
	}
}

// driftingModule returns a step that does not belong to the returned flow.
type driftingModule struct{}

func (driftingModule) Flow() models.Flow { return models.FlowAdvisor }
func (driftingModule) Handle(ctx context.Context, userID string, in Input, state models.UserState) (Result, error) {
	return Result{Replies: []string{"ok"}, NewState: at(state, models.FlowAdvisor, models.Step("NOT_A_STEP"))}, nil
}

func TestRouterInvalidReturnedStepResetsToMenu(t *testing.T) {
	router := NewRouter(NewWelcomeModule(), driftingModule{})

	state := stateAt(models.FlowAdvisor, models.StepAdvisorEntry)
	result := router.Route(context.Background(), "user1", "si", nil, state)

	assertState(t, result, models.FlowWelcome, models.StepMenu)
}

func TestRouterNeverPanicsAcrossInputMatrix(t *testing.T) {
	router := newTestRouter()

	inputs := []string{"", "hola", "1", "2", "6", "99", "si", "no", "menu", "afiliacion: 1, folio: 2", "😀😀😀", "\x00\xff"}
	flows := map[models.Flow][]models.Step{
		models.FlowWelcome:      {models.StepGreeting, models.StepAwaitingName, models.StepAwaitingUserType, models.StepMenu, models.StepAwaitingMenuChoice, models.Step("GARBAGE")},
		models.FlowRequirements: {models.StepRequirementsLoanType, models.Step("GARBAGE")},
		models.FlowSimulation:   {models.StepSimulationLoanType, models.StepSimulationCredential, models.StepSimulationManualEntry},
		models.FlowAdvisor:      {models.StepAdvisorEntry},
		models.FlowFAQ:          {models.StepFAQMenu},
		models.FlowApplication: {models.StepApplicationInitial, models.StepApplicationLoanType, models.StepApplicationCredential,
			models.StepApplicationManualEntry, models.StepApplicationConfirm, models.StepApplicationCoSignerCount,
			models.StepApplicationCoSignerImage},
		models.Flow("bogus"): {models.Step("BOGUS")},
	}

	for flow, steps := range flows {
		for _, step := range steps {
			for _, input := range inputs {
				state := stateAt(flow, step)
				state.LoanType = models.LoanTypeShortTerm

				result := router.Route(context.Background(), "user1", input, nil, state)

				if !models.ValidStep(result.NewState.Flow, result.NewState.Step) {
					t.Errorf("(%q, %q) input %q: invalid result state (%q, %q)",
						flow, step, input, result.NewState.Flow, result.NewState.Step)
				}
			}
		}
	}
}

func TestIsGlobalCommand(t *testing.T) {
	for _, cmd := range []string{"menu", "menú", "cancelar", "cancel"} {
		if !IsGlobalCommand(cmd) {
			t.Errorf("IsGlobalCommand(%q) = false, want true", cmd)
		}
	}
	for _, text := range []string{"", "menus", "el menu", "salir"} {
		if IsGlobalCommand(text) {
			t.Errorf("IsGlobalCommand(%q) = true, want false", text)
		}
	}
}
