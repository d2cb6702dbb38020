// Package forms drives the per-form submit state machine: one submission in
// flight per form and client, gateway outcome to alert, profile sync dispatch
// and the post-success redirect.
package forms

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/gateway"
	"github.com/examshaala/examshaala-portal/internal/metrics"
	"github.com/examshaala/examshaala-portal/internal/models"
	"github.com/examshaala/examshaala-portal/internal/profile"
)

// ErrSubmissionInFlight is returned when a form is submitted again before the
// previous submission finished.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// State is a form's position in its submit cycle.
type State int

const (
	Idle State = iota
	Submitting
	Done
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	default:
		return "idle"
	}
}

// AlertKind selects the alert styling.
type AlertKind string

const (
	AlertSuccess AlertKind = "success"
	AlertError   AlertKind = "error"
)

// Alert is the transient message shown in a form's alert region.
type Alert struct {
	Message string
	Kind    AlertKind
	TTL     time.Duration
}

// Redirect is a navigation scheduled after a successful submission.
type Redirect struct {
	Target string
	After  time.Duration
}

// Outcome is the result of one submission.
type Outcome struct {
	State    State
	Alert    Alert
	Redirect *Redirect
	Identity *models.Identity
	// Prefill is a value to carry into the next form, e.g. the email just
	// registered.
	Prefill string
}

// Succeeded reports whether the submission reached Done.
func (o Outcome) Succeeded() bool {
	return o.State == Done
}

// Operation is the gateway call a form runs, plus profile seed values.
type Operation struct {
	Run     func(ctx context.Context) (*models.Identity, error)
	Seed    profile.Seed
	Prefill string
}

// Config describes one form.
type Config struct {
	Name            string
	Op              gateway.Op
	SuccessMessage  string
	SuccessRedirect string
	RedirectDelay   time.Duration
	// SyncProfile dispatches a profile sync after a successful operation
	// that yields an identity.
	SyncProfile bool
}

// Orchestrator owns the in-flight guard shared by all forms and the
// background profile syncs they dispatch.
type Orchestrator struct {
	syncer      *profile.Synchronizer
	alertTTL    time.Duration
	syncTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *common.Logger

	mu     sync.Mutex
	states map[string]State

	wg sync.WaitGroup
}

// NewOrchestrator creates an orchestrator. syncer may be nil to disable
// profile synchronization.
func NewOrchestrator(syncer *profile.Synchronizer, alertTTL, syncTimeout time.Duration, m *metrics.Metrics, logger *common.Logger) *Orchestrator {
	return &Orchestrator{
		syncer:      syncer,
		alertTTL:    alertTTL,
		syncTimeout: syncTimeout,
		metrics:     m,
		logger:      logger,
		states:      make(map[string]State),
	}
}

// Form binds a form configuration to the orchestrator.
func (o *Orchestrator) Form(cfg Config) *Form {
	return &Form{Config: cfg, AlertTTL: o.alertTTL, orch: o}
}

// State returns the current state of form for clientKey.
func (o *Orchestrator) State(form, clientKey string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states[guardKey(form, clientKey)]
}

// Wait blocks until all dispatched profile syncs have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func guardKey(form, clientKey string) string {
	return form + ":" + clientKey
}

func (o *Orchestrator) acquire(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.states[key] == Submitting {
		return false
	}
	o.states[key] = Submitting
	return true
}

func (o *Orchestrator) release(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.states, key)
}

// dispatchSync runs a profile sync detached from the request context.
func (o *Orchestrator) dispatchSync(ctx context.Context, id *models.Identity, seed profile.Seed) {
	if o.syncer == nil {
		return
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.syncTimeout)
		defer cancel()
		o.syncer.Sync(syncCtx, id, seed)
	}()
}

// Form is one configured form.
type Form struct {
	Config
	AlertTTL time.Duration
	orch     *Orchestrator
}

// Submit runs op under the form's in-flight guard for clientKey. A second
// call while one is running returns ErrSubmissionInFlight without running op.
func (f *Form) Submit(ctx context.Context, clientKey string, op Operation) (Outcome, error) {
	key := guardKey(f.Name, clientKey)
	if !f.orch.acquire(key) {
		f.orch.metrics.FormRejected(f.Name)
		return Outcome{State: Submitting}, ErrSubmissionInFlight
	}
	defer f.orch.release(key)

	id, err := op.Run(ctx)
	if err != nil {
		return Outcome{
			State: Idle,
			Alert: Alert{Message: gateway.MessageOf(f.Op, err), Kind: AlertError, TTL: f.AlertTTL},
		}, nil
	}

	if f.SyncProfile && id != nil {
		f.orch.dispatchSync(ctx, id, op.Seed)
	}

	out := Outcome{
		State:    Done,
		Alert:    Alert{Message: f.SuccessMessage, Kind: AlertSuccess, TTL: f.AlertTTL},
		Identity: id,
		Prefill:  op.Prefill,
	}
	if f.SuccessRedirect != "" {
		out.Redirect = &Redirect{Target: f.SuccessRedirect, After: f.RedirectDelay}
	}

	f.orch.logger.Debug().Str("form", f.Name).Msg("Form submission succeeded")
	return out, nil
}
