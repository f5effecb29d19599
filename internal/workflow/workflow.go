// Package workflow orchestrates staging, submission, and result
// presentation for the prediction flows.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/tahmid/pneumoscan/internal/history"
	"github.com/tahmid/pneumoscan/internal/notify"
	"github.com/tahmid/pneumoscan/internal/upload"
	"github.com/tahmid/pneumoscan/pkg/models"
)

const (
	msgSelectFile       = "Please select a file first."
	msgInvalidFileType  = "Invalid file type. Please upload an image."
	msgAnalysisComplete = "Analysis complete!"
	loginRoute          = "/login"
)

// PredictGateway is the one call the authenticated flow submits through.
type PredictGateway interface {
	Predict(ctx context.Context, filename string, image []byte) (*models.PredictionResult, error)
}

// SessionProber matches the gateway's session probe.
type SessionProber interface {
	Me(ctx context.Context) (*models.User, error)
}

// Refresher regroups the server-side history.
type Refresher interface {
	Refresh(ctx context.Context) (history.Groups, error)
}

// Authenticated drives the dashboard flow: results persist server-side
// and every successful prediction refreshes the history sidebar.
type Authenticated struct {
	staging   *upload.Staging
	gateway   PredictGateway
	prober    SessionProber
	refresher Refresher
	signals   notify.Sink

	state       State
	result      *models.PredictionResult
	fromHistory bool
	submitting  bool
	user        *models.User
	groups      history.Groups
}

func NewAuthenticated(staging *upload.Staging, gateway PredictGateway, prober SessionProber, refresher Refresher, signals notify.Sink) *Authenticated {
	if signals == nil {
		signals = notify.Discard
	}
	return &Authenticated{
		staging:   staging,
		gateway:   gateway,
		prober:    prober,
		refresher: refresher,
		signals:   signals,
		state:     Idle,
	}
}

func (w *Authenticated) State() State                      { return w.state }
func (w *Authenticated) Result() *models.PredictionResult  { return w.result }
func (w *Authenticated) User() *models.User                { return w.user }
func (w *Authenticated) Groups() history.Groups            { return w.groups }
func (w *Authenticated) StagedFile() *upload.StagedFile    { return w.staging.Staged() }
func (w *Authenticated) ResultFromHistory() bool           { return w.fromHistory }

// Enter performs the protected-page entry: the session probe and the
// history fetch run in parallel, and the dashboard proceeds only once
// both resolve. Either failure means the whole entry is unauthenticated
// and the consumer is redirected to login; nothing renders partially.
func (w *Authenticated) Enter(ctx context.Context) error {
	type userResult struct {
		user *models.User
		err  error
	}
	type groupsResult struct {
		groups history.Groups
		err    error
	}

	userCh := make(chan userResult, 1)
	groupsCh := make(chan groupsResult, 1)

	go func() {
		user, err := w.prober.Me(ctx)
		userCh <- userResult{user: user, err: err}
	}()
	go func() {
		groups, err := w.refresher.Refresh(ctx)
		groupsCh <- groupsResult{groups: groups, err: err}
	}()

	ur := <-userCh
	gr := <-groupsCh

	if ur.err != nil || gr.err != nil {
		w.signals.Emit(notify.Event{Signal: notify.NavigateTo, Route: loginRoute})
		if ur.err != nil {
			return ur.err
		}
		return gr.err
	}

	w.user = ur.user
	w.groups = gr.groups
	return nil
}

// Stage validates the drop first: a rejection leaves the current staged
// file and any displayed result untouched. A valid file clears the
// displayed result before it becomes the new staged file.
func (w *Authenticated) Stage(paths ...string) error {
	if err := w.staging.Validate(paths...); err != nil {
		w.signals.Emit(notify.Event{Signal: notify.Failed, Message: stagingMessage(err)})
		return err
	}

	w.result = nil
	if _, err := w.staging.Stage(paths...); err != nil {
		w.signals.Emit(notify.Event{Signal: notify.Failed, Message: stagingMessage(err)})
		w.state = Idle
		return err
	}
	w.state = Staged
	return nil
}

// Analyze submits the staged file. Re-entry while a submission is in
// flight is a no-op. On failure the staged file is preserved so the
// user can retry without re-selecting it; the gateway already emitted
// the error signal.
func (w *Authenticated) Analyze(ctx context.Context) error {
	if w.submitting {
		return nil
	}
	staged := w.staging.Staged()
	if staged == nil {
		w.signals.Emit(notify.Event{Signal: notify.Failed, Message: msgSelectFile})
		return upload.ErrNoFile
	}

	w.submitting = true
	w.state = Submitting

	result, err := w.gateway.Predict(ctx, staged.Name, staged.Data)
	w.submitting = false
	if err != nil {
		w.state = Staged
		return err
	}

	w.result = result
	w.fromHistory = false
	w.state = Resulted
	w.signals.Emit(notify.Event{Signal: notify.Succeeded, Message: msgAnalysisComplete})

	// The uploaded file is not kept staged after a successful
	// prediction; the sidebar refresh picks up the new entry.
	w.staging.Clear()

	groups, err := w.refresher.Refresh(ctx)
	if err != nil {
		w.signals.Emit(notify.Event{Signal: notify.NavigateTo, Route: loginRoute})
		return nil
	}
	w.groups = groups
	return nil
}

// SelectHistory loads a persisted entry straight into the result slot
// with no network call, clears any staged file, and disables staging
// until an explicit reset.
func (w *Authenticated) SelectHistory(entry models.HistoryEntry) {
	w.staging.Clear()
	result := entry.Result()
	w.result = &result
	w.fromHistory = true
	w.staging.Lock()
	w.state = Resulted
}

// Reset returns to Idle unconditionally: staged file, preview, and
// result are all released.
func (w *Authenticated) Reset() {
	w.staging.Unlock()
	w.fromHistory = false
	w.staging.Clear()
	w.result = nil
	w.state = Idle
}

// Logout clears transient per-user state. The server invalidates the
// session; the consumer handles navigation.
func (w *Authenticated) Logout() {
	w.Reset()
	w.user = nil
	w.groups = nil
}

func stagingMessage(err error) string {
	switch {
	case errors.Is(err, upload.ErrInvalidFileType):
		return msgInvalidFileType
	case errors.Is(err, upload.ErrMultipleFiles):
		return "Only one file can be analyzed at a time."
	case errors.Is(err, upload.ErrStagingLocked):
		return "Reset the current result before uploading a new scan."
	case errors.Is(err, upload.ErrNoFile):
		return msgSelectFile
	default:
		return fmt.Sprintf("Could not read file: %v", err)
	}
}
