package flow

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/docgen"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/recognition"
)

var errServiceDown = errors.New("service unavailable")

// mockRecognizer implements recognition.Recognizer with per-call overrides.
type mockRecognizer struct {
	credential     *recognition.Credential
	credentialErr  error
	identity       *recognition.Identity
	identityErr    error
	financial      *recognition.FinancialData
	financialErr   error
	recognizeCalls int
	resolveCalls   int
	fetchCalls     int
}

func (m *mockRecognizer) RecognizeCredential(ctx context.Context, imageData []byte) (*recognition.Credential, error) {
	m.recognizeCalls++
	if m.credentialErr != nil {
		return nil, m.credentialErr
	}
	if m.credential != nil {
		return m.credential, nil
	}
	return &recognition.Credential{AffiliationNumber: "AF-1", Folio: "F-1", DerechohabienteType: models.DerechohabienteActive}, nil
}

func (m *mockRecognizer) ResolveIdentity(ctx context.Context, affiliation, folio string) (*recognition.Identity, error) {
	m.resolveCalls++
	if m.identityErr != nil {
		return nil, m.identityErr
	}
	if m.identity != nil {
		return m.identity, nil
	}
	return &recognition.Identity{DerechohabienteType: models.DerechohabienteActive, TenureHalfMonths: 300}, nil
}

func (m *mockRecognizer) FetchFinancialData(ctx context.Context, affiliation, folio string) (*recognition.FinancialData, error) {
	m.fetchCalls++
	if m.financialErr != nil {
		return nil, m.financialErr
	}
	if m.financial != nil {
		return m.financial, nil
	}
	return &recognition.FinancialData{Salary: 12500.50, Balance: 48000, AdjustedDate: "2026-09-15"}, nil
}

// mockGenerator implements docgen.Generator.
type mockGenerator struct {
	err      error
	requests []docgen.Request
}

func (m *mockGenerator) GenerateApplication(ctx context.Context, req docgen.Request) (*models.Document, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Document{
		Data:     []byte("%PDF-1.4 test"),
		FileName: "solicitud_" + req.Folio + ".pdf",
		MimeType: "application/pdf",
	}, nil
}

// pngAttachment builds a small valid PNG wrapped as an image attachment.
func pngAttachment(t *testing.T) *models.Attachment {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return &models.Attachment{Kind: models.AttachmentKindImage, Data: buf.Bytes(), MimeType: "image/png"}
}

// stateAt builds a minimal state positioned at a (flow, step) pair.
func stateAt(f models.Flow, s models.Step) models.UserState {
	return models.UserState{UserID: "user1", Flow: f, Step: s, Name: "Ana", UserType: models.UserTypeActive}
}

// handle runs a module with plain text input.
func handle(t *testing.T, m Module, text string, state models.UserState) Result {
	t.Helper()
	result, err := m.Handle(context.Background(), state.UserID, NewInput(text, nil), state)
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	return result
}

// handleWithAttachment runs a module with an attachment input.
func handleWithAttachment(t *testing.T, m Module, att *models.Attachment, state models.UserState) Result {
	t.Helper()
	result, err := m.Handle(context.Background(), state.UserID, NewInput("", att), state)
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	return result
}

// assertState fails unless the result landed on the expected (flow, step).
func assertState(t *testing.T, result Result, f models.Flow, s models.Step) {
	t.Helper()
	if result.NewState.Flow != f || result.NewState.Step != s {
		t.Errorf("state = (%q, %q), want (%q, %q)", result.NewState.Flow, result.NewState.Step, f, s)
	}
}

// assertReply fails unless the result's replies contain exactly the expected
// messages in order.
func assertReply(t *testing.T, result Result, want ...string) {
	t.Helper()
	if len(result.Replies) != len(want) {
		t.Fatalf("got %d replies, want %d: %q", len(result.Replies), len(want), result.Replies)
	}
	for i := range want {
		if result.Replies[i] != want[i] {
			t.Errorf("reply[%d] = %q, want %q", i, result.Replies[i], want[i])
		}
	}
}
