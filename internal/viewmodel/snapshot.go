package viewmodel

// Snapshot is a read-only copy of the view-model suitable for rendering or IPC.
type Snapshot struct {
	RecorderState string `json:"recorder_state"`
	Recording     bool   `json:"recording"`
	Chunks        int    `json:"chunks"`
	AudioName     string `json:"audio_name,omitempty"`
	AudioBytes    int    `json:"audio_bytes,omitempty"`
	ImageName     string `json:"image_name,omitempty"`
	ImageMIME     string `json:"image_mime,omitempty"`
	ImageWidth    int    `json:"image_width,omitempty"`
	ImageHeight   int    `json:"image_height,omitempty"`
	HasPreview    bool   `json:"has_preview"`
	SubmitEnabled bool   `json:"submit_enabled"`
	PlayEnabled   bool   `json:"play_enabled"`
	Busy          bool   `json:"busy"`
	Progress      int    `json:"progress"`
	Status        string `json:"status,omitempty"`
	Transcription string `json:"transcription,omitempty"`
	Diagnosis     string `json:"diagnosis,omitempty"`
	AudioSource   string `json:"audio_source,omitempty"`
}

// Snapshot copies the fields a view needs.
func (vm *ViewModel) Snapshot() Snapshot {
	snap := Snapshot{
		RecorderState: string(vm.RecorderState),
		SubmitEnabled: vm.SubmitEnabled,
		PlayEnabled:   vm.PlayEnabled,
		Busy:          vm.Busy,
		Progress:      vm.Progress,
		Status:        vm.Status,
		Transcription: vm.Outputs.Transcription,
		Diagnosis:     vm.Outputs.Diagnosis,
		AudioSource:   vm.Outputs.AudioSource,
	}

	if rec := vm.Recording; rec != nil {
		snap.Recording = rec.IsRecording
		snap.Chunks = len(rec.Chunks)
		if rec.ResultBlob != nil {
			snap.AudioName = rec.ResultBlob.Name
			snap.AudioBytes = len(rec.ResultBlob.Data)
		}
	}

	if img := vm.Image; img != nil && img.File != nil {
		snap.ImageName = img.File.Name
		snap.ImageMIME = img.File.MIME
		snap.ImageWidth = img.Width
		snap.ImageHeight = img.Height
		snap.HasPreview = img.PreviewDataURL != ""
	}

	return snap
}
