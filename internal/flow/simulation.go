package flow

import (
	"context"
	"log/slog"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/recognition"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/templates"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/validate"
)

// SimulationModule resolves a user's financial figures (from a credential
// photo or manual entry) and replies with the simulation summary for the
// chosen loan type.
type SimulationModule struct {
	recognizer recognition.Recognizer
}

func NewSimulationModule(recognizer recognition.Recognizer) *SimulationModule {
	return &SimulationModule{recognizer: recognizer}
}

func (m *SimulationModule) Flow() models.Flow {
	return models.FlowSimulation
}

func (m *SimulationModule) Handle(ctx context.Context, userID string, in Input, state models.UserState) (Result, error) {
	switch state.Step {
	case models.StepSimulationLoanType:
		loanType, ok := parseLoanType(in.Normalized)
		if !ok {
			return reply(state, templates.InvalidLoanType), nil
		}
		next := state
		next.LoanType = loanType
		next = at(next, models.FlowSimulation, models.StepSimulationCredential)
		return reply(next, templates.SimulationAskCredential), nil

	case models.StepSimulationCredential:
		return m.handleCredential(ctx, userID, in, state), nil

	case models.StepSimulationManualEntry:
		return m.handleManualEntry(ctx, userID, in, state), nil

	default:
		slog.Warn("SimulationModule unknown step", "userID", userID, "step", state.Step)
		next := at(state, models.FlowSimulation, models.StepSimulationLoanType)
		return reply(next, templates.FlowFallback(templates.AskLoanType)), nil
	}
}

// handleCredential accepts either a credential photo or manual-entry text at
// the same step, since the simulation needs only affiliation and folio.
func (m *SimulationModule) handleCredential(ctx context.Context, userID string, in Input, state models.UserState) Result {
	if in.Attachment == nil {
		if entry := validate.ParseManualEntry(in.Text); entry.Valid {
			return m.simulate(ctx, userID, state, entry.AffiliationNumber, entry.Folio)
		}
		return reply(state, templates.ImageRequired)
	}
	if in.Attachment.Kind != models.AttachmentKindImage {
		return reply(state, templates.ImageRequired)
	}

	optimized, err := recognition.OptimizeImage(in.Attachment.Data)
	if err != nil {
		slog.Debug("SimulationModule invalid image", "error", err, "userID", userID)
		return reply(state, templates.ImageInvalid)
	}

	cred, err := m.recognizer.RecognizeCredential(ctx, optimized)
	if err != nil {
		// One failed recognition attempt escalates to manual entry.
		slog.Error("SimulationModule recognition failed", "error", err, "userID", userID, "step", state.Step)
		next := at(state, models.FlowSimulation, models.StepSimulationManualEntry)
		return reply(next, templates.RecognitionFailed)
	}
	return m.simulate(ctx, userID, state, cred.AffiliationNumber, cred.Folio)
}

func (m *SimulationModule) handleManualEntry(ctx context.Context, userID string, in Input, state models.UserState) Result {
	entry := validate.ParseManualEntry(in.Text)
	if !entry.Valid {
		return reply(state, templates.ManualEntryInvalid)
	}
	return m.simulate(ctx, userID, state, entry.AffiliationNumber, entry.Folio)
}

// simulate fetches the financial figures and replies with the summary,
// returning to the Welcome menu. A service failure is surfaced to the user
// and also returns to the menu (a stable, re-enterable state).
func (m *SimulationModule) simulate(ctx context.Context, userID string, state models.UserState, affiliation, folio string) Result {
	data, err := m.recognizer.FetchFinancialData(ctx, affiliation, folio)
	if err != nil {
		slog.Error("SimulationModule financial data fetch failed", "error", err, "userID", userID, "step", state.Step)
		return reply(models.MenuState(models.ClearTransient(state)), templates.SimulationFailed)
	}
	slog.Info("SimulationModule simulation delivered", "userID", userID, "loanType", state.LoanType)
	summary := templates.SimulationSummary(state.LoanType, data.Salary, data.Balance, data.AdjustedDate)
	return reply(models.MenuState(models.ClearTransient(state)), summary)
}
