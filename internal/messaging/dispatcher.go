// Package messaging provides the inbound processing pipeline that connects
// the transport to the flow engine.
package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/flow"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/store"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/util"
)

// DefaultUserQueueSize is the per-user inbound queue capacity.
const DefaultUserQueueSize = 16

// Dispatcher consumes inbound responses and processes each user's messages
// strictly sequentially: one worker goroutine per user identifier, fed by an
// ordered queue. Messages from different users are processed concurrently,
// but a user's state is always read-modify-written by a single goroutine, so
// overlapping messages cannot race on the store.
type Dispatcher struct {
	svc    Service
	router *flow.Router
	store  store.Store

	mu     sync.Mutex
	queues map[string]chan models.Response
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher over the given transport, router and
// state store.
func NewDispatcher(svc Service, router *flow.Router, st store.Store) *Dispatcher {
	return &Dispatcher{
		svc:    svc,
		router: router,
		store:  st,
		queues: make(map[string]chan models.Response),
	}
}

// Start begins consuming responses from the messaging service. It returns
// once the intake loop is running; call Wait after the context is cancelled
// to drain in-flight work.
func (d *Dispatcher) Start(ctx context.Context) {
	slog.Info("Dispatcher starting")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer slog.Info("Dispatcher intake stopped")

		for {
			select {
			case response, ok := <-d.svc.Responses():
				if !ok {
					slog.Debug("Dispatcher responses channel closed")
					d.closeQueues()
					return
				}
				d.enqueue(ctx, response)

			case <-ctx.Done():
				slog.Debug("Dispatcher stopping due to context cancellation")
				d.closeQueues()
				return
			}
		}
	}()
}

// Wait blocks until the intake loop and all user workers have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// enqueue routes a response onto the sender's ordered queue, creating the
// queue and its worker on first contact.
func (d *Dispatcher) enqueue(ctx context.Context, response models.Response) {
	userID, err := d.svc.ValidateAndCanonicalizeRecipient(response.From)
	if err != nil {
		slog.Error("Dispatcher invalid sender", "error", err, "from", response.From)
		return
	}
	response.From = userID

	d.mu.Lock()
	queue, ok := d.queues[userID]
	if !ok {
		queue = make(chan models.Response, DefaultUserQueueSize)
		d.queues[userID] = queue
		d.wg.Add(1)
		go d.worker(ctx, userID, queue)
	}
	d.mu.Unlock()

	select {
	case queue <- response:
	default:
		// The user is flooding faster than their external calls complete;
		// dropping keeps the intake loop responsive for other users.
		slog.Warn("Dispatcher user queue full, dropping message", "userID", userID)
	}
}

func (d *Dispatcher) closeQueues() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, queue := range d.queues {
		close(queue)
	}
	d.queues = make(map[string]chan models.Response)
}

// worker drains one user's queue sequentially.
func (d *Dispatcher) worker(ctx context.Context, userID string, queue chan models.Response) {
	defer d.wg.Done()
	for response := range queue {
		d.process(ctx, userID, response)
	}
}

// process runs one full turn: state read, flow routing (including any
// external calls), state write-through, reply delivery.
func (d *Dispatcher) process(ctx context.Context, userID string, response models.Response) {
	turnID := util.GenerateTurnID()

	state, err := d.store.GetUserState(userID)
	if err != nil {
		slog.Error("Dispatcher state load failed", "error", err, "userID", userID, "turnID", turnID)
		// Fall through with a fresh default state; durability is degraded
		// but the conversation keeps working.
	}
	if state == nil {
		defaultState := models.DefaultState(userID)
		state = &defaultState
	}

	slog.Debug("Dispatcher processing message", "userID", userID, "turnID", turnID, "flow", state.Flow, "step", state.Step)

	result := d.router.Route(ctx, userID, response.Body, response.Attachment, *state)

	// Write-through on every mutation. A persistence failure is logged with
	// context; the in-memory result remains authoritative for this turn.
	if err := d.store.SaveUserState(result.NewState); err != nil {
		slog.Error("Dispatcher state save failed", "error", err, "userID", userID, "turnID", turnID, "flow", result.NewState.Flow, "step", result.NewState.Step)
	}

	for _, message := range result.Replies {
		if err := d.svc.SendMessage(ctx, userID, message); err != nil {
			slog.Error("Dispatcher reply send failed", "error", err, "userID", userID, "turnID", turnID)
		}
	}
	if result.Document != nil {
		if err := d.svc.SendDocument(ctx, userID, *result.Document); err != nil {
			slog.Error("Dispatcher document send failed", "error", err, "userID", userID, "turnID", turnID, "file", result.Document.FileName)
		}
	}
}
