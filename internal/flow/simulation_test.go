package flow

import (
	"strings"
	"testing"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/templates"
)

func TestSimulationLoanTypeSelection(t *testing.T) {
	m := NewSimulationModule(&mockRecognizer{})
	state := stateAt(models.FlowSimulation, models.StepSimulationLoanType)

	result := handle(t, m, "1", state)

	assertState(t, result, models.FlowSimulation, models.StepSimulationCredential)
	assertReply(t, result, templates.SimulationAskCredential)
	if result.NewState.LoanType != models.LoanTypeShortTerm {
		t.Errorf("LoanType = %q, want short_term", result.NewState.LoanType)
	}
}

func TestSimulationWithCredentialImage(t *testing.T) {
	rec := &mockRecognizer{}
	m := NewSimulationModule(rec)
	state := stateAt(models.FlowSimulation, models.StepSimulationCredential)
	state.LoanType = models.LoanTypeShortTerm

	result := handleWithAttachment(t, m, pngAttachment(t), state)

	assertState(t, result, models.FlowWelcome, models.StepMenu)
	if len(result.Replies) != 1 || !strings.Contains(result.Replies[0], "Simulación de crédito a corto plazo") {
		t.Errorf("expected simulation summary, got %q", result.Replies)
	}
	if rec.recognizeCalls != 1 || rec.fetchCalls != 1 {
		t.Errorf("calls = recognize %d, fetch %d; want 1 and 1", rec.recognizeCalls, rec.fetchCalls)
	}
	if result.NewState.LoanType != "" {
		t.Error("transient loan type should be cleared after completion")
	}
}

func TestSimulationAcceptsManualEntryAtCredentialStep(t *testing.T) {
	rec := &mockRecognizer{}
	m := NewSimulationModule(rec)
	state := stateAt(models.FlowSimulation, models.StepSimulationCredential)
	state.LoanType = models.LoanTypeMediumTerm

	result := handle(t, m, "afiliacion: 123, folio: 456", state)

	assertState(t, result, models.FlowWelcome, models.StepMenu)
	if rec.recognizeCalls != 0 {
		t.Error("manual entry should not invoke recognition")
	}
	if rec.fetchCalls != 1 {
		t.Errorf("fetchCalls = %d, want 1", rec.fetchCalls)
	}
}

func TestSimulationTextWithoutAttachmentOrEntryRePrompts(t *testing.T) {
	m := NewSimulationModule(&mockRecognizer{})
	state := stateAt(models.FlowSimulation, models.StepSimulationCredential)

	result := handle(t, m, "aqui esta mi foto", state)

	assertState(t, result, models.FlowSimulation, models.StepSimulationCredential)
	assertReply(t, result, templates.ImageRequired)
}

func TestSimulationWrongAttachmentKindRePrompts(t *testing.T) {
	m := NewSimulationModule(&mockRecognizer{})
	state := stateAt(models.FlowSimulation, models.StepSimulationCredential)

	att := &models.Attachment{Kind: models.AttachmentKindDocument, Data: []byte("pdf")}
	result := handleWithAttachment(t, m, att, state)

	assertState(t, result, models.FlowSimulation, models.StepSimulationCredential)
	assertReply(t, result, templates.ImageRequired)
}

func TestSimulationUndecodableImageRePrompts(t *testing.T) {
	m := NewSimulationModule(&mockRecognizer{})
	state := stateAt(models.FlowSimulation, models.StepSimulationCredential)

	att := &models.Attachment{Kind: models.AttachmentKindImage, Data: []byte("not an image")}
	result := handleWithAttachment(t, m, att, state)

	assertState(t, result, models.FlowSimulation, models.StepSimulationCredential)
	assertReply(t, result, templates.ImageInvalid)
}

func TestSimulationRecognitionFailureEscalatesToManualEntry(t *testing.T) {
	rec := &mockRecognizer{credentialErr: errServiceDown}
	m := NewSimulationModule(rec)
	state := stateAt(models.FlowSimulation, models.StepSimulationCredential)

	result := handleWithAttachment(t, m, pngAttachment(t), state)

	assertState(t, result, models.FlowSimulation, models.StepSimulationManualEntry)
	assertReply(t, result, templates.RecognitionFailed)
}

func TestSimulationManualEntryStep(t *testing.T) {
	rec := &mockRecognizer{}
	m := NewSimulationModule(rec)
	state := stateAt(models.FlowSimulation, models.StepSimulationManualEntry)
	state.LoanType = models.LoanTypeShortTerm

	result := handle(t, m, "afiliacion: 111, folio: 222", state)

	assertState(t, result, models.FlowWelcome, models.StepMenu)
	if rec.fetchCalls != 1 {
		t.Errorf("fetchCalls = %d, want 1", rec.fetchCalls)
	}
}

func TestSimulationManualEntryInvalidFormatSelfLoops(t *testing.T) {
	m := NewSimulationModule(&mockRecognizer{})
	state := stateAt(models.FlowSimulation, models.StepSimulationManualEntry)

	result := handle(t, m, "mi numero es 123", state)

	assertState(t, result, models.FlowSimulation, models.StepSimulationManualEntry)
	assertReply(t, result, templates.ManualEntryInvalid)
}

func TestSimulationFetchFailureReturnsToMenu(t *testing.T) {
	rec := &mockRecognizer{financialErr: errServiceDown}
	m := NewSimulationModule(rec)
	state := stateAt(models.FlowSimulation, models.StepSimulationManualEntry)

	result := handle(t, m, "afiliacion: 111, folio: 222", state)

	assertState(t, result, models.FlowWelcome, models.StepMenu)
	assertReply(t, result, templates.SimulationFailed)
}
