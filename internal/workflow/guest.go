package workflow

import (
	"context"
	"errors"

	"github.com/tahmid/pneumoscan/internal/notify"
	"github.com/tahmid/pneumoscan/internal/upload"
	"github.com/tahmid/pneumoscan/pkg/models"
)

const (
	msgGuestInvalidFileType = "Invalid file type. Please upload an image (jpeg, png)."
	guestAdvisory           = "You are in guest mode. Your analysis history will not be saved. Create an account to keep a record of your results."
)

// GuestGateway is the anonymous predict call.
type GuestGateway interface {
	GuestPredict(ctx context.Context, filename string, image []byte) (*models.PredictionResult, error)
}

// Guest drives the anonymous flow: no history, results shown in a
// dismissable modal, and a one-time advisory per session.
type Guest struct {
	staging *upload.Staging
	gateway GuestGateway
	signals notify.Sink

	state      State
	result     *models.PredictionResult
	warned     bool
	submitting bool
}

func NewGuest(staging *upload.Staging, gateway GuestGateway, signals notify.Sink) *Guest {
	if signals == nil {
		signals = notify.Discard
	}
	return &Guest{
		staging: staging,
		gateway: gateway,
		signals: signals,
		state:   Idle,
	}
}

func (g *Guest) State() State                     { return g.state }
func (g *Guest) Result() *models.PredictionResult { return g.result }
func (g *Guest) StagedFile() *upload.StagedFile   { return g.staging.Staged() }

// Enter shows the advisory on the first entry of this session and
// never again until a new session begins.
func (g *Guest) Enter() {
	if g.warned {
		return
	}
	g.warned = true
	g.signals.Emit(notify.Event{Signal: notify.Notice, Message: guestAdvisory})
}

// Stage fully resets any open result modal before considering the new
// file; guest staging is never disabled.
func (g *Guest) Stage(paths ...string) error {
	g.reset()
	if err := g.staging.Validate(paths...); err != nil {
		g.signals.Emit(notify.Event{Signal: notify.Failed, Message: guestStagingMessage(err)})
		return err
	}
	if _, err := g.staging.Stage(paths...); err != nil {
		g.signals.Emit(notify.Event{Signal: notify.Failed, Message: guestStagingMessage(err)})
		return err
	}
	g.state = Staged
	return nil
}

// Analyze submits anonymously. Success opens the result modal; failure
// preserves the staged file and opens nothing.
func (g *Guest) Analyze(ctx context.Context) error {
	if g.submitting {
		return nil
	}
	staged := g.staging.Staged()
	if staged == nil {
		g.signals.Emit(notify.Event{Signal: notify.Failed, Message: msgSelectFile})
		return upload.ErrNoFile
	}

	g.submitting = true
	g.state = Submitting

	result, err := g.gateway.GuestPredict(ctx, staged.Name, staged.Data)
	g.submitting = false
	if err != nil {
		g.state = Staged
		return err
	}

	g.result = result
	g.state = ResultModalOpen
	g.signals.Emit(notify.Event{Signal: notify.Succeeded, Message: msgAnalysisComplete})
	return nil
}

// CloseModal is the explicit dismissal that returns to Idle.
func (g *Guest) CloseModal() {
	g.reset()
}

func (g *Guest) reset() {
	g.staging.Clear()
	g.result = nil
	g.state = Idle
}

func guestStagingMessage(err error) string {
	if errors.Is(err, upload.ErrInvalidFileType) {
		return msgGuestInvalidFileType
	}
	return stagingMessage(err)
}
