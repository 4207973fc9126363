package indicator

import (
	"fmt"
	"io"
	"sync"

	"github.com/rbright/arogya/internal/viewmodel"
)

// Terminal prints view changes as "key: value" lines.
type Terminal struct {
	mu   sync.Mutex
	out  io.Writer
	last viewmodel.Snapshot
	seen map[string]string
}

// NewTerminal writes to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out, seen: map[string]string{}}
}

// Render prints only the lines whose value changed since the previous render.
func (t *Terminal) Render(snap viewmodel.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = snap
	for _, line := range terminalLines(snap) {
		if t.seen[line.key] == line.value {
			continue
		}
		t.seen[line.key] = line.value
		fmt.Fprintf(t.out, "%s: %s\n", line.key, line.value)
	}
}

func (t *Terminal) Notify(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "! %s\n", message)
}

// ScrollToResults prints the result block of the latest render.
func (t *Terminal) ScrollToResults() {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.out, "== diagnosis ==")
	fmt.Fprintf(t.out, "transcription: %s\n", t.last.Transcription)
	fmt.Fprintf(t.out, "diagnosis: %s\n", t.last.Diagnosis)
	if t.last.AudioSource != "" {
		fmt.Fprintf(t.out, "audio reply: %s\n", t.last.AudioSource)
	}
}

type terminalLine struct {
	key   string
	value string
}

func terminalLines(snap viewmodel.Snapshot) []terminalLine {
	state := snap.RecorderState
	if snap.Busy {
		state = "diagnosing"
	}
	if state == "" {
		state = "idle"
	}

	audio := "none"
	switch {
	case snap.Recording:
		audio = fmt.Sprintf("recording (%d chunks)", snap.Chunks)
	case snap.AudioName != "":
		audio = fmt.Sprintf("%s (%d bytes)", snap.AudioName, snap.AudioBytes)
	}

	image := "none"
	if snap.ImageName != "" {
		image = snap.ImageName + " " + snap.ImageMIME
		if snap.ImageWidth > 0 && snap.ImageHeight > 0 {
			image += fmt.Sprintf(" %dx%d", snap.ImageWidth, snap.ImageHeight)
		}
	}

	submit := "waiting for audio and image"
	if snap.SubmitEnabled {
		submit = "ready"
	}

	progress := "-"
	if snap.Busy {
		progress = fmt.Sprintf("%d%%", snap.Progress)
		if snap.Status != "" {
			progress += " " + snap.Status
		}
	}

	return []terminalLine{
		{key: "state", value: state},
		{key: "audio", value: audio},
		{key: "image", value: image},
		{key: "submit", value: submit},
		{key: "progress", value: progress},
	}
}
