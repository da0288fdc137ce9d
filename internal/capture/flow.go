// Package capture drives the photo-to-identification pipeline of the scan
// screen.
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/codyseavey/pokemarket/internal/models"
)

// State is a step of the capture flow.
type State int

const (
	NoPermission State = iota
	AwaitingCapture
	Capturing
	Identifying
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case NoPermission:
		return "no_permission"
	case AwaitingCapture:
		return "awaiting_capture"
	case Capturing:
		return "capturing"
	case Identifying:
		return "identifying"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrInvalidTransition = errors.New("invalid capture transition")
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrBusy              = errors.New("operation already in progress")
)

// Device is the camera.
type Device interface {
	RequestPermission(ctx context.Context) (bool, error)
	Capture(ctx context.Context) ([]byte, error)
}

// Identifier turns a base64 JPEG into a card identification.
type Identifier interface {
	Identify(ctx context.Context, imageBase64 string) (*models.CardIdentification, error)
}

// Saver persists an identified card.
type Saver interface {
	CreateCard(ctx context.Context, card models.CardCreate) (*models.Card, error)
}

// Flow is the capture state machine. Every state other than NoPermission
// requires a granted permission, and at most one identification or save is
// outstanding at a time.
type Flow struct {
	device     Device
	identifier Identifier
	saver      Saver
	logger     *slog.Logger

	mu     sync.Mutex
	state  State
	result *models.CardIdentification
	err    error
	saving bool
}

// NewFlow starts a flow in NoPermission.
func NewFlow(device Device, identifier Identifier, saver Saver, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		device:     device,
		identifier: identifier,
		saver:      saver,
		logger:     logger.With("component", "capture"),
		state:      NoPermission,
	}
}

// State returns the current step.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Result is the identification held while Resolved.
func (f *Flow) Result() *models.CardIdentification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Err is the failure held while Failed.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// RequestPermission prompts for camera access. A denial keeps the flow in
// NoPermission and returns ErrPermissionDenied.
func (f *Flow) RequestPermission(ctx context.Context) error {
	f.mu.Lock()
	if f.state != NoPermission {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	granted, err := f.device.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("request camera permission: %w", err)
	}
	if !granted {
		return ErrPermissionDenied
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == NoPermission {
		f.state = AwaitingCapture
	}
	return nil
}

// Open shows the capture surface.
func (f *Flow) Open() error {
	return f.transition(AwaitingCapture, Capturing)
}

// CloseCamera leaves the capture surface without taking a photo.
func (f *Flow) CloseCamera() error {
	return f.transition(Capturing, AwaitingCapture)
}

// Capture takes a photo and identifies it. The flow ends Resolved on success
// and Failed otherwise. A capture while an identification is outstanding is
// refused with ErrBusy.
func (f *Flow) Capture(ctx context.Context) (*models.CardIdentification, error) {
	f.mu.Lock()
	switch f.state {
	case Capturing:
	case Identifying:
		f.mu.Unlock()
		return nil, ErrBusy
	default:
		st := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: capture from %s", ErrInvalidTransition, st)
	}
	f.state = Identifying
	f.mu.Unlock()

	id, err := f.identify(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.logger.Warn("identification failed", "error", err)
		f.state, f.err, f.result = Failed, err, nil
		return nil, err
	}
	f.state, f.err, f.result = Resolved, nil, id
	return id, nil
}

func (f *Flow) identify(ctx context.Context) (*models.CardIdentification, error) {
	img, err := f.device.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture photo: %w", err)
	}
	return f.identifier.Identify(ctx, base64.StdEncoding.EncodeToString(img))
}

// Save persists the resolved identification and returns to AwaitingCapture.
// A failed save keeps the result so the user can retry or discard it.
func (f *Flow) Save(ctx context.Context) (*models.Card, error) {
	f.mu.Lock()
	if f.state != Resolved {
		st := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: save from %s", ErrInvalidTransition, st)
	}
	if f.saving {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	f.saving = true
	id := *f.result
	f.mu.Unlock()

	card, err := f.saver.CreateCard(ctx, id.ToCardCreate())

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saving = false
	if err != nil {
		return nil, err
	}
	f.logger.Info("card saved", "card_id", card.ID, "card_name", card.CardName)
	f.state, f.result = AwaitingCapture, nil
	return card, nil
}

// Discard drops the resolved identification.
func (f *Flow) Discard() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Resolved {
		return fmt.Errorf("%w: discard from %s", ErrInvalidTransition, f.state)
	}
	if f.saving {
		return ErrBusy
	}
	f.state, f.result = AwaitingCapture, nil
	return nil
}

// Retry leaves Failed for another capture.
func (f *Flow) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Failed {
		return fmt.Errorf("%w: retry from %s", ErrInvalidTransition, f.state)
	}
	f.state, f.err = AwaitingCapture, nil
	return nil
}

func (f *Flow) transition(from, to State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != from {
		return fmt.Errorf("%w: %s to %s from %s", ErrInvalidTransition, from, to, f.state)
	}
	f.state = to
	return nil
}
