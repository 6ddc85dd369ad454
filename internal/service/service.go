// Package service implements the registration form state controller: the
// draft, the share gate, validation and the hand-off to the submission
// gateway.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/community-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/community-registration/internal/model"
	"github.com/Shivanand-hulikatti/community-registration/internal/repository"
)

var (
	// ErrBusy is returned for any operation attempted while a submission is in flight.
	ErrBusy = errors.New("submission in progress")

	// ErrSubmitted is returned once the registration has been recorded.
	ErrSubmitted = errors.New("registration already submitted")

	// ErrShareIncomplete is returned by Submit while the share quota is unmet.
	ErrShareIncomplete = errors.New("share quota not reached")

	// ErrInvalid is returned by Submit when validation fails.
	ErrInvalid = errors.New("registration is invalid")

	// ErrUnknownField is returned for a field that is not one of the text fields.
	ErrUnknownField = errors.New("unknown field")

	// ErrSubmitFailed wraps every gateway failure.
	ErrSubmitFailed = errors.New("submission failed")
)

// Gateway records a completed draft with the external endpoint.
type Gateway interface {
	Submit(ctx context.Context, d model.Draft) error
}

// Flags is a durable key-value store scoped to one client.
// Get returns repository.ErrNotFound when the key is absent.
type Flags interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// FilePicker prompts the registrant for at most one file. A nil attachment
// with a nil error means the prompt was cancelled.
type FilePicker interface {
	PickFile(ctx context.Context) (*model.Attachment, error)
}

// Options are the collaborators of a FormController.
type Options struct {
	Gateway      Gateway
	Flags        Flags
	Opener       Opener
	Notifier     Notifier
	ShareMessage string
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// FormController owns one registration draft for the lifetime of a page load.
type FormController struct {
	mu     sync.Mutex
	draft  model.Draft
	errors model.ValidationErrors
	shares int
	state  model.SubmissionState

	gateway  Gateway
	flags    Flags
	opener   Opener
	notifier Notifier
	link     string
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewFormController creates an empty draft. If the submitted flag was
// persisted earlier the controller starts directly in the submitted state.
func NewFormController(ctx context.Context, opts Options) (*FormController, error) {
	c := &FormController{
		errors:   model.ValidationErrors{},
		gateway:  opts.Gateway,
		flags:    opts.Flags,
		opener:   opts.Opener,
		notifier: opts.Notifier,
		link:     ShareLink(opts.ShareMessage),
		metrics:  opts.Metrics,
		log:      opts.Logger,
	}

	v, err := c.flags.Get(ctx, model.SubmittedFlagKey)
	switch {
	case err == nil:
		if v == model.SubmittedFlagValue {
			c.state = model.StateSubmitted
		}
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("read submitted flag: %w", err)
	}
	return c, nil
}

// editableLocked reports whether the draft currently accepts input.
func (c *FormController) editableLocked() error {
	switch c.state {
	case model.StateInFlight:
		return ErrBusy
	case model.StateSubmitted:
		return ErrSubmitted
	}
	return nil
}

// UpdateField overwrites a text field and drops any error recorded for it.
func (c *FormController) UpdateField(field model.Field, value string) error {
	if !field.IsText() {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(); err != nil {
		return err
	}
	c.draft.Set(field, value)
	delete(c.errors, field)
	return nil
}

// SelectFile sets or, when file is nil, clears the attachment. The accept
// filter is advisory and not enforced here.
func (c *FormController) SelectFile(file *model.Attachment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(); err != nil {
		return err
	}
	if file != nil {
		f := *file
		file = &f
	}
	c.draft.File = file
	delete(c.errors, model.FieldFile)
	return nil
}

// ChooseFile prompts picker for a file and selects the result.
func (c *FormController) ChooseFile(ctx context.Context, picker FilePicker) error {
	c.mu.Lock()
	err := c.editableLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	file, err := picker.PickFile(ctx)
	if err != nil {
		return fmt.Errorf("pick file: %w", err)
	}
	return c.SelectFile(file)
}

// Share opens one share intent and advances the share counter. Once the
// quota is reached further calls do nothing.
func (c *FormController) Share() error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.shares >= model.ShareQuota {
		c.mu.Unlock()
		return nil
	}
	c.shares++
	c.mu.Unlock()

	c.opener.Open(c.link)
	c.metrics.Shared()
	return nil
}

// Validate replaces the stored error set with a fresh one and reports
// whether the draft passed.
func (c *FormController) Validate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *FormController) validateLocked() bool {
	c.errors = Validate(c.draft)
	return len(c.errors) == 0
}

// Submit checks the share gate, then validation, and forwards the draft to
// the gateway. While the request is outstanding every other operation is
// rejected with ErrBusy. The request is not cancelled when ctx is.
func (c *FormController) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.shares < model.ShareQuota {
		shares := c.shares
		c.mu.Unlock()
		c.notifier.Notify(fmt.Sprintf("Please complete sharing on WhatsApp (%d/%d) before submitting!", shares, model.ShareQuota))
		c.metrics.Submitted(metrics.OutcomeShareIncomplete)
		return ErrShareIncomplete
	}
	if !c.validateLocked() {
		c.mu.Unlock()
		c.metrics.Submitted(metrics.OutcomeInvalid)
		return ErrInvalid
	}
	c.state = model.StateInFlight
	draft := c.draft.Clone()
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	err := c.gateway.Submit(ctx, draft)
	c.metrics.ObserveGateway(time.Since(start))

	if err != nil {
		c.mu.Lock()
		c.state = model.StateIdle
		c.mu.Unlock()

		c.log.Warn().Err(err).Msg("registration submission failed")
		c.notifier.Notify(fmt.Sprintf("There was an error submitting the form: %s. Please try again.", err.Error()))
		c.metrics.Submitted(metrics.OutcomeGatewayError)
		return fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	c.mu.Lock()
	c.state = model.StateSubmitted
	c.mu.Unlock()
	c.metrics.Submitted(metrics.OutcomeSubmitted)

	if err := c.flags.Set(ctx, model.SubmittedFlagKey, model.SubmittedFlagValue); err != nil {
		// The endpoint already holds the registration; only the reload shortcut is lost.
		c.log.Error().Err(err).Msg("persist submitted flag")
	}
	return nil
}

// State returns the current submission state.
func (c *FormController) State() model.SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the controller state for rendering.
func (c *FormController) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := model.Snapshot{
		Draft:       c.draft.Clone(),
		Errors:      c.errors.Clone(),
		ShareCount:  c.shares,
		ShareQuota:  model.ShareQuota,
		State:       c.state,
		SharingDone: c.shares >= model.ShareQuota,
	}
	s.CanSubmit = c.state == model.StateIdle && s.SharingDone
	if f := c.draft.File; f != nil {
		s.FileAccepted = model.AcceptsFile(f.Name, f.ContentType)
	}

	switch {
	case c.state == model.StateInFlight:
		s.SubmitLabel = "Submitting..."
	case !s.SharingDone:
		s.SubmitLabel = fmt.Sprintf("Complete sharing first (%d/%d)", c.shares, model.ShareQuota)
	default:
		s.SubmitLabel = "Submit Registration"
	}
	if s.SharingDone {
		s.ShareLabel = "Sharing Complete!"
	} else {
		s.ShareLabel = "Share on WhatsApp"
	}
	return s
}
