// Package viewmodel holds the page state shared by the capture and submission controllers.
package viewmodel

import (
	"github.com/rbright/arogya/internal/fsm"
)

// Blob is an in-memory file artifact.
type Blob struct {
	Name string
	MIME string
	Data []byte
}

// RecordingSession tracks one microphone capture.
type RecordingSession struct {
	IsRecording bool
	Chunks      [][]byte
	ResultBlob  *Blob
}

// ImageSelection is the image chosen by drop or picker.
type ImageSelection struct {
	File           *Blob
	PreviewDataURL string
	Width          int
	Height         int
}

// DiagnosisResult is the payload of a successful submission.
type DiagnosisResult struct {
	Transcription string
	DiagnosisText string
	AudioReplyURL string
}

// Outputs are the rendered result fields.
type Outputs struct {
	Transcription string
	Diagnosis     string
	AudioSource   string
}

// View renders page state for the user.
type View interface {
	Render(Snapshot)
	// Notify is the blocking user-facing notification (an alert on the page).
	Notify(message string)
	ScrollToResults()
}

type noopView struct{}

func (noopView) Render(Snapshot) {}
func (noopView) Notify(string) {}
func (noopView) ScrollToResults() {}

// ViewModel is mutated only from the page event loop.
type ViewModel struct {
	Recording     *RecordingSession
	Image         *ImageSelection
	Result        *DiagnosisResult
	Outputs       Outputs
	RecorderState fsm.State
	SubmitEnabled bool
	PlayEnabled   bool
	Busy          bool
	Progress      int
	Status        string

	view View
}

// New returns an empty view-model bound to view. A nil view discards output.
func New(view View) *ViewModel {
	if view == nil {
		view = noopView{}
	}
	return &ViewModel{
		RecorderState: fsm.StateIdle,
		view:          view,
	}
}

// Ready reports whether both a finalized recording and an image are present.
func (vm *ViewModel) Ready() bool {
	return vm.Recording != nil && vm.Recording.ResultBlob != nil &&
		vm.Image != nil && vm.Image.File != nil
}

// RefreshReadiness recomputes SubmitEnabled and renders.
func (vm *ViewModel) RefreshReadiness() {
	vm.SubmitEnabled = vm.Ready()
	vm.Render()
}

// Render pushes the current snapshot to the view.
func (vm *ViewModel) Render() {
	vm.view.Render(vm.Snapshot())
}

// Notify shows message to the user.
func (vm *ViewModel) Notify(message string) {
	vm.view.Notify(message)
}

// ScrollToResults brings the result block into view.
func (vm *ViewModel) ScrollToResults() {
	vm.view.ScrollToResults()
}

// ShowBusy shows the busy indicator with progress reset to zero.
func (vm *ViewModel) ShowBusy(status string) {
	vm.Busy = true
	vm.Progress = 0
	vm.Status = status
	vm.Render()
}

// HideBusy hides the busy indicator.
func (vm *ViewModel) HideBusy() {
	vm.Busy = false
	vm.Status = ""
	vm.Render()
}

// SetProgress updates the progress percentage.
func (vm *ViewModel) SetProgress(percent int) {
	vm.Progress = percent
	vm.Render()
}

// SetStatus updates the busy status phrase.
func (vm *ViewModel) SetStatus(status string) {
	vm.Status = status
	vm.Render()
}

// SetResult stores result and renders its three fields.
func (vm *ViewModel) SetResult(result DiagnosisResult) {
	vm.Result = &result
	vm.Outputs = Outputs{
		Transcription: result.Transcription,
		Diagnosis:     result.DiagnosisText,
		AudioSource:   result.AudioReplyURL,
	}
	vm.Render()
}

// ClearOutputs empties the rendered result fields and forgets the last result.
func (vm *ViewModel) ClearOutputs() {
	vm.Result = nil
	vm.Outputs = Outputs{}
}
