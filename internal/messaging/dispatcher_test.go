package messaging

import (
	"context"
	"sync"
	"testing"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/flow"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/store"
)

// mockService feeds canned responses into the dispatcher and records what it
// sends back.
type mockService struct {
	responses chan models.Response

	mu   sync.Mutex
	sent map[string][]string
	docs map[string][]models.Document
}

func newMockService(buffer int) *mockService {
	return &mockService{
		responses: make(chan models.Response, buffer),
		sent:      make(map[string][]string),
		docs:      make(map[string][]models.Document),
	}
}

func (m *mockService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhoneNumber(recipient)
}

func (m *mockService) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[to] = append(m.sent[to], body)
	return nil
}

func (m *mockService) SendDocument(ctx context.Context, to string, doc models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[to] = append(m.docs[to], doc)
	return nil
}

func (m *mockService) Start(ctx context.Context) error { return nil }
func (m *mockService) Stop() error                     { return nil }

func (m *mockService) Receipts() <-chan models.Receipt { return nil }

func (m *mockService) Responses() <-chan models.Response { return m.responses }

func (m *mockService) sentTo(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent[userID]...)
}

func (m *mockService) docsTo(userID string) []models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Document(nil), m.docs[userID]...)
}

// runDispatcher feeds the given responses through a dispatcher and blocks
// until every one has been fully processed.
func runDispatcher(t *testing.T, svc *mockService, router *flow.Router, st store.Store, responses ...models.Response) {
	t.Helper()
	for _, r := range responses {
		svc.responses <- r
	}
	close(svc.responses)

	d := NewDispatcher(svc, router, st)
	d.Start(context.Background())
	d.Wait()
}

func TestDispatcherProcessesFirstContact(t *testing.T) {
	svc := newMockService(4)
	st := store.NewInMemoryStore()
	router := flow.NewRouter(flow.NewWelcomeModule())

	runDispatcher(t, svc, router, st, models.Response{From: "+52 1111 111111", Body: "hola"})

	state, err := st.GetUserState("521111111111")
	if err != nil {
		t.Fatalf("GetUserState failed: %v", err)
	}
	if state == nil {
		t.Fatal("expected persisted state after first contact")
	}
	if state.Flow != models.FlowWelcome || state.Step != models.StepAwaitingName {
		t.Errorf("state = (%q, %q), want welcome awaiting name", state.Flow, state.Step)
	}
	if sent := svc.sentTo("521111111111"); len(sent) == 0 {
		t.Error("expected a greeting to be sent")
	}
}

func TestDispatcherProcessesUserMessagesInOrder(t *testing.T) {
	svc := newMockService(8)
	st := store.NewInMemoryStore()
	router := flow.NewRouter(flow.NewWelcomeModule())

	// Only in-order processing walks the onboarding sequence to completion:
	// greeting, then name capture, then user type.
	runDispatcher(t, svc, router, st,
		models.Response{From: "521111111111", Body: "hola"},
		models.Response{From: "521111111111", Body: "Ana García"},
		models.Response{From: "521111111111", Body: "1"},
	)

	state, err := st.GetUserState("521111111111")
	if err != nil {
		t.Fatalf("GetUserState failed: %v", err)
	}
	if state == nil {
		t.Fatal("expected persisted state")
	}
	if state.Name != "Ana García" {
		t.Errorf("Name = %q, want %q", state.Name, "Ana García")
	}
	if state.UserType != models.UserTypeActive {
		t.Errorf("UserType = %q, want active", state.UserType)
	}
}

func TestDispatcherIsolatesUsers(t *testing.T) {
	svc := newMockService(8)
	st := store.NewInMemoryStore()
	router := flow.NewRouter(flow.NewWelcomeModule())

	runDispatcher(t, svc, router, st,
		models.Response{From: "521111111111", Body: "hola"},
		models.Response{From: "522222222222", Body: "hola"},
		models.Response{From: "521111111111", Body: "Ana García"},
	)

	first, _ := st.GetUserState("521111111111")
	second, _ := st.GetUserState("522222222222")
	if first == nil || second == nil {
		t.Fatal("expected state for both users")
	}
	if first.Name != "Ana García" {
		t.Errorf("first user Name = %q, want %q", first.Name, "Ana García")
	}
	if second.Name != "" || second.Step != models.StepAwaitingName {
		t.Errorf("second user state = %+v, want untouched awaiting-name", second)
	}
}

func TestDispatcherDropsInvalidSender(t *testing.T) {
	svc := newMockService(4)
	st := store.NewInMemoryStore()
	router := flow.NewRouter(flow.NewWelcomeModule())

	runDispatcher(t, svc, router, st, models.Response{From: "not-a-number", Body: "hola"})

	for id := range svc.sent {
		t.Errorf("unexpected message sent to %q", id)
	}
}

// failingStore simulates a persistence outage on writes.
type failingStore struct {
	*store.InMemoryStore
	saveErr error
}

func (f *failingStore) SaveUserState(state models.UserState) error {
	return f.saveErr
}

func TestDispatcherRepliesDespiteSaveFailure(t *testing.T) {
	svc := newMockService(4)
	st := &failingStore{InMemoryStore: store.NewInMemoryStore(), saveErr: models.ErrEmptyUserID}
	router := flow.NewRouter(flow.NewWelcomeModule())

	runDispatcher(t, svc, router, st, models.Response{From: "521111111111", Body: "hola"})

	if sent := svc.sentTo("521111111111"); len(sent) == 0 {
		t.Error("expected the reply to be sent even when persistence fails")
	}
}

// documentModule returns a document on every turn, standing in for the
// application flow's final step.
type documentModule struct{}

func (documentModule) Flow() models.Flow { return models.FlowFAQ }

func (documentModule) Handle(ctx context.Context, userID string, in flow.Input, state models.UserState) (flow.Result, error) {
	return flow.Result{
		Replies:  []string{"listo"},
		Document: &models.Document{Data: []byte("%PDF-1.4"), FileName: "solicitud.pdf", MimeType: "application/pdf"},
		NewState: models.MenuState(state),
	}, nil
}

func TestDispatcherDeliversDocuments(t *testing.T) {
	svc := newMockService(4)
	st := store.NewInMemoryStore()
	router := flow.NewRouter(flow.NewWelcomeModule(), documentModule{})

	seed := models.DefaultState("521111111111")
	seed.Flow = models.FlowFAQ
	seed.Step = models.StepFAQMenu
	if err := st.SaveUserState(seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	runDispatcher(t, svc, router, st, models.Response{From: "521111111111", Body: "3"})

	docs := svc.docsTo("521111111111")
	if len(docs) != 1 {
		t.Fatalf("documents delivered = %d, want 1", len(docs))
	}
	if docs[0].FileName != "solicitud.pdf" {
		t.Errorf("FileName = %q, want solicitud.pdf", docs[0].FileName)
	}
}
