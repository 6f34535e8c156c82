package flow

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/docgen"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/recognition"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/templates"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/validate"
)

// Co-signer count bounds for the pensioner medium-term scenario.
const (
	MinCoSigners = 1
	MaxCoSigners = 3
)

// ApplicationModule drives the form-filling flow: loan type selection,
// credential recognition (with manual-entry fallback), information
// confirmation, the co-signer collection loop and final PDF generation.
type ApplicationModule struct {
	recognizer recognition.Recognizer
	generator  docgen.Generator
}

func NewApplicationModule(recognizer recognition.Recognizer, generator docgen.Generator) *ApplicationModule {
	return &ApplicationModule{recognizer: recognizer, generator: generator}
}

func (m *ApplicationModule) Flow() models.Flow {
	return models.FlowApplication
}

func (m *ApplicationModule) Handle(ctx context.Context, userID string, in Input, state models.UserState) (Result, error) {
	switch state.Step {
	case models.StepApplicationInitial:
		next := at(state, models.FlowApplication, models.StepApplicationLoanType)
		return reply(next, templates.AskLoanType), nil

	case models.StepApplicationLoanType:
		loanType, ok := parseLoanType(in.Normalized)
		if !ok {
			return reply(state, templates.InvalidLoanType), nil
		}
		next := state
		next.LoanType = loanType
		next = at(next, models.FlowApplication, models.StepApplicationCredential)
		return reply(next, templates.ApplicationAskCredential), nil

	case models.StepApplicationCredential:
		return m.handleCredential(ctx, userID, in, state), nil

	case models.StepApplicationManualEntry:
		return m.handleManualEntry(ctx, userID, in, state), nil

	case models.StepApplicationConfirm:
		return m.handleConfirm(ctx, userID, in, state), nil

	case models.StepApplicationCoSignerCount:
		return m.handleCoSignerCount(userID, in, state), nil

	case models.StepApplicationCoSignerImage:
		return m.handleCoSignerImage(ctx, userID, in, state), nil

	case models.StepApplicationGeneratePDF:
		// Normally reached atomically from the confirm step or the co-signer
		// loop; handled here as well so a turn landing on it still completes.
		return m.generate(ctx, userID, state), nil

	default:
		slog.Warn("ApplicationModule unknown step", "userID", userID, "step", state.Step)
		next := at(state, models.FlowApplication, models.StepApplicationInitial)
		return reply(next, templates.FlowFallback(templates.AskLoanType)), nil
	}
}

// requireImage enforces the shared image policy: the attachment must be
// present, of kind image and decodable. Failures re-enter the same step with
// guidance; there is no retry limit and no state corruption.
func requireImage(in Input, state models.UserState) ([]byte, *Result) {
	if in.Attachment == nil || in.Attachment.Kind != models.AttachmentKindImage {
		r := reply(state, templates.ImageRequired)
		return nil, &r
	}
	optimized, err := recognition.OptimizeImage(in.Attachment.Data)
	if err != nil {
		r := reply(state, templates.ImageInvalid)
		return nil, &r
	}
	return optimized, nil
}

func (m *ApplicationModule) handleCredential(ctx context.Context, userID string, in Input, state models.UserState) Result {
	optimized, retry := requireImage(in, state)
	if retry != nil {
		return *retry
	}

	cred, err := m.recognizer.RecognizeCredential(ctx, optimized)
	if err != nil {
		// One failed recognition attempt escalates to manual entry; there is
		// no automatic retry.
		slog.Error("ApplicationModule recognition failed", "error", err, "userID", userID, "step", state.Step)
		next := at(state, models.FlowApplication, models.StepApplicationManualEntry)
		return reply(next, templates.RecognitionFailed)
	}

	identity, err := m.recognizer.ResolveIdentity(ctx, cred.AffiliationNumber, cred.Folio)
	if err != nil {
		slog.Error("ApplicationModule identity resolution failed", "error", err, "userID", userID, "step", state.Step)
		next := at(state, models.FlowApplication, models.StepApplicationManualEntry)
		return reply(next, templates.RecognitionFailed)
	}

	next := state
	next.AffiliationNumber = cred.AffiliationNumber
	next.Folio = cred.Folio
	return m.afterIdentity(userID, next, identity.DerechohabienteType, identity.TenureHalfMonths)
}

func (m *ApplicationModule) handleManualEntry(ctx context.Context, userID string, in Input, state models.UserState) Result {
	entry := validate.ParseManualEntry(in.Text)
	if !entry.Valid {
		return reply(state, templates.ManualEntryInvalid)
	}

	identity, err := m.recognizer.ResolveIdentity(ctx, entry.AffiliationNumber, entry.Folio)
	if err != nil {
		// Manual entry is already the degraded path; stay on it so the user
		// can retry or escape with a global command.
		slog.Error("ApplicationModule manual identity resolution failed", "error", err, "userID", userID, "step", state.Step)
		return reply(state, templates.LookupFailed)
	}

	next := state
	next.AffiliationNumber = entry.AffiliationNumber
	next.Folio = entry.Folio
	return m.afterIdentity(userID, next, identity.DerechohabienteType, identity.TenureHalfMonths)
}

// afterIdentity classifies the resolved identity into a scenario and routes
// to the confirmation step, presetting the co-signer requirement. The
// unknown scenario (including medium-term for active employees, which has no
// defined business rule) falls back to manual entry.
func (m *ApplicationModule) afterIdentity(userID string, state models.UserState, dt models.DerechohabienteType, tenureHalfMonths int) Result {
	scenario := models.ClassifyScenario(dt, state.LoanType, tenureHalfMonths)
	slog.Info("ApplicationModule scenario classified", "userID", userID, "scenario", scenario, "loanType", state.LoanType, "tenure", tenureHalfMonths)

	if scenario == models.ScenarioUnknown {
		next := at(state, models.FlowApplication, models.StepApplicationManualEntry)
		return reply(next, templates.UnknownScenario)
	}

	next := state
	next.CoSigners = nil
	next.CoSignersProcessed = 0
	next.CoSignersRequired = 0
	if scenario == models.ScenarioActiveShortTermWithAval {
		next.CoSignersRequired = 1
	}
	next = at(next, models.FlowApplication, models.StepApplicationConfirm)
	return reply(next, templates.ConfirmInformation(next.Name, next.AffiliationNumber, next.Folio, dt))
}

// handleConfirm accepts only "si" or "no"; anything else re-prompts.
func (m *ApplicationModule) handleConfirm(ctx context.Context, userID string, in Input, state models.UserState) Result {
	switch in.Normalized {
	case "si", "sí":
		if state.CoSignersRequired > 0 {
			next := at(state, models.FlowApplication, models.StepApplicationCoSignerImage)
			return reply(next, templates.AskCoSignerImage(1))
		}
		if state.LoanType == models.LoanTypeMediumTerm {
			// Only the pensioner medium-term scenario reaches confirmation
			// with a medium-term loan; the co-signer count is user-supplied.
			next := at(state, models.FlowApplication, models.StepApplicationCoSignerCount)
			return reply(next, templates.AskCoSignerCount)
		}
		return m.generate(ctx, userID, at(state, models.FlowApplication, models.StepApplicationGeneratePDF))

	case "no":
		slog.Info("ApplicationModule cancelled at confirmation", "userID", userID)
		return reply(models.MenuState(models.ClearTransient(state)), templates.ApplicationCancelled, templates.Menu(state.Name))

	default:
		return reply(state, templates.ApplicationConfirmRetry)
	}
}

func (m *ApplicationModule) handleCoSignerCount(userID string, in Input, state models.UserState) Result {
	n, err := strconv.Atoi(in.Normalized)
	if err != nil || n < MinCoSigners || n > MaxCoSigners {
		return reply(state, templates.InvalidCoSignerCount)
	}
	next := state
	next.CoSignersRequired = n
	next.CoSignersProcessed = 0
	next.CoSigners = nil
	next = at(next, models.FlowApplication, models.StepApplicationCoSignerImage)
	slog.Info("ApplicationModule co-signer count set", "userID", userID, "required", n)
	return reply(next, templates.AskCoSignerImage(1))
}

// handleCoSignerImage runs one iteration of the co-signer collection loop:
// validate the image, recognize the aval credential, append the record and
// either re-prompt for the next ordinal or proceed to PDF generation once
// processed == required.
func (m *ApplicationModule) handleCoSignerImage(ctx context.Context, userID string, in Input, state models.UserState) Result {
	optimized, retry := requireImage(in, state)
	if retry != nil {
		return *retry
	}

	cred, err := m.recognizer.RecognizeCredential(ctx, optimized)
	if err != nil {
		// The manual-entry fallback belongs to the primary applicant; a
		// failed aval recognition re-prompts the same co-signer step.
		slog.Error("ApplicationModule co-signer recognition failed", "error", err, "userID", userID, "ordinal", state.CoSignersProcessed+1)
		return reply(state, templates.CoSignerRecognitionFailed)
	}

	next := state
	next.CoSigners = append(append([]models.CoSigner(nil), state.CoSigners...), models.CoSigner{
		AffiliationNumber:   cred.AffiliationNumber,
		Folio:               cred.Folio,
		DerechohabienteType: cred.DerechohabienteType,
	})
	next.CoSignersProcessed = len(next.CoSigners)
	slog.Info("ApplicationModule co-signer recorded", "userID", userID, "processed", next.CoSignersProcessed, "required", next.CoSignersRequired)

	if next.CoSignersProcessed < next.CoSignersRequired {
		return reply(next, templates.AskCoSignerImage(next.CoSignersProcessed+1))
	}
	return m.generate(ctx, userID, at(next, models.FlowApplication, models.StepApplicationGeneratePDF))
}

// generate re-resolves the identity data from the stored affiliation/folio
// (the co-signer loop may have elapsed significant time since recognition),
// selects the template by scenario and invokes the document generator. On
// success the flow completes and resets to the Welcome menu.
func (m *ApplicationModule) generate(ctx context.Context, userID string, state models.UserState) Result {
	identity, err := m.recognizer.ResolveIdentity(ctx, state.AffiliationNumber, state.Folio)
	if err != nil {
		slog.Error("ApplicationModule identity re-resolution failed", "error", err, "userID", userID, "step", state.Step)
		return reply(models.MenuState(models.ClearTransient(state)), templates.ApplicationFailed)
	}

	scenario := models.ClassifyScenario(identity.DerechohabienteType, state.LoanType, identity.TenureHalfMonths)
	doc, err := m.generator.GenerateApplication(ctx, docgen.Request{
		Name:                state.Name,
		AffiliationNumber:   state.AffiliationNumber,
		Folio:               state.Folio,
		DerechohabienteType: identity.DerechohabienteType,
		LoanType:            state.LoanType,
		Scenario:            scenario,
		CoSigners:           state.CoSigners,
	})
	if err != nil {
		// Unreachable per current scenario coverage, but handled: fall back
		// to the unknown-scenario response rather than crashing.
		slog.Error("ApplicationModule document generation failed", "error", err, "userID", userID, "scenario", scenario)
		next := at(state, models.FlowApplication, models.StepApplicationManualEntry)
		return reply(next, templates.UnknownScenario)
	}

	doc.Caption = templates.DocumentCaption
	slog.Info("ApplicationModule application generated", "userID", userID, "scenario", scenario, "co_signers", len(state.CoSigners))
	return Result{
		Replies:  []string{templates.ApplicationComplete},
		Document: doc,
		NewState: models.MenuState(models.ClearTransient(state)),
	}
}
