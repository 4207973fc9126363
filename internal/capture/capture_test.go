package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbright/arogya/internal/eventloop"
	"github.com/rbright/arogya/internal/fsm"
	"github.com/rbright/arogya/internal/viewmodel"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	chunks  chan []byte
	stops   atomic.Int32
	stopped sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{chunks: make(chan []byte, 16)}
}

func (s *fakeStream) Chunks() <-chan []byte { return s.chunks }

func (s *fakeStream) Stop() error {
	s.stops.Add(1)
	s.stopped.Do(func() { close(s.chunks) })
	return nil
}

type fakeView struct {
	mu      sync.Mutex
	notices []string
	renders int
	// chunkCounts holds Snapshot.Chunks of every render taken while recording.
	chunkCounts []int
}

func (v *fakeView) Render(snap viewmodel.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders++
	if snap.Recording {
		v.chunkCounts = append(v.chunkCounts, snap.Chunks)
	}
}

func (v *fakeView) ChunkCounts() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]int(nil), v.chunkCounts...)
}

func (v *fakeView) Notify(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, message)
}

func (v *fakeView) ScrollToResults() {}

func (v *fakeView) Notices() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.notices...)
}

type fakePlayer struct {
	played chan []byte
}

func (p *fakePlayer) Play(_ context.Context, data []byte, _ string) error {
	p.played <- data
	return nil
}

type harness struct {
	t      *testing.T
	loop   *eventloop.Loop
	vm     *viewmodel.ViewModel
	view   *fakeView
	ctrl   *Controller
	player *fakePlayer
}

func newHarness(t *testing.T, mic Microphone, opts Options) *harness {
	t.Helper()

	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})

	view := &fakeView{}
	vm := viewmodel.New(view)
	player := &fakePlayer{played: make(chan []byte, 1)}
	return &harness{
		t:      t,
		loop:   loop,
		vm:     vm,
		view:   view,
		ctrl:   New(vm, loop, mic, player, opts),
		player: player,
	}
}

func (h *harness) on(fn func()) {
	h.t.Helper()
	require.NoError(h.t, h.loop.Do(context.Background(), fn))
}

func (h *harness) eventually(cond func() bool) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		var ok bool
		h.on(func() { ok = cond() })
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}

func (h *harness) record(stream *fakeStream, chunks ...[]byte) {
	h.t.Helper()
	h.on(func() { require.NoError(h.t, h.ctrl.StartRecording(context.Background())) })
	h.eventually(func() bool { return h.vm.RecorderState == fsm.StateRecording })
	for _, chunk := range chunks {
		stream.chunks <- chunk
	}
	h.on(func() { require.NoError(h.t, h.ctrl.StopRecording()) })
	h.eventually(func() bool { return h.vm.Recording != nil && h.vm.Recording.ResultBlob != nil })
}

func streamMic(stream Stream) Microphone {
	return MicrophoneFunc(func(context.Context) (Stream, error) { return stream, nil })
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func pngBlob(t *testing.T) viewmodel.Blob {
	return viewmodel.Blob{Name: "rash.png", MIME: "image/png", Data: pngBytes(t, 3, 2)}
}

func TestFullCycleMakesPageReady(t *testing.T) {
	stream := newFakeStream()
	h := newHarness(t, streamMic(stream), Options{})

	h.record(stream, make([]byte, 640), make([]byte, 640))

	h.on(func() {
		require.False(t, h.vm.Ready())
		require.False(t, h.vm.SubmitEnabled)
		require.True(t, h.vm.PlayEnabled)
		require.Equal(t, fsm.StateIdle, h.vm.RecorderState)
		require.False(t, h.vm.Recording.IsRecording)
		require.Len(t, h.vm.Recording.Chunks, 2)

		blob := h.vm.Recording.ResultBlob
		require.Equal(t, "recording.wav", blob.Name)
		require.Equal(t, "audio/wav", blob.MIME)
		require.Equal(t, "RIFF", string(blob.Data[:4]))
	})
	require.Equal(t, int32(1), stream.stops.Load())

	h.on(func() {
		require.NoError(t, h.ctrl.SelectImage(Source{Kind: SourcePicker, Files: []viewmodel.Blob{pngBlob(t)}}))
		require.True(t, h.vm.Ready())
		require.True(t, h.vm.SubmitEnabled)
	})
}

func TestImageFirstThenRecordingIsAlsoReady(t *testing.T) {
	stream := newFakeStream()
	h := newHarness(t, streamMic(stream), Options{})

	h.on(func() {
		require.NoError(t, h.ctrl.SelectImage(Source{Kind: SourceDrop, Files: []viewmodel.Blob{pngBlob(t)}}))
		require.False(t, h.vm.Ready())
	})
	h.record(stream, make([]byte, 640))
	h.on(func() { require.True(t, h.vm.SubmitEnabled) })
}

func TestStartRecordingWhileActiveIsNoop(t *testing.T) {
	var opens atomic.Int32
	stream := newFakeStream()
	h := newHarness(t, MicrophoneFunc(func(context.Context) (Stream, error) {
		opens.Add(1)
		return stream, nil
	}), Options{})

	h.on(func() { require.NoError(t, h.ctrl.StartRecording(context.Background())) })
	h.eventually(func() bool { return h.vm.RecorderState == fsm.StateRecording })
	h.on(func() { require.NoError(t, h.ctrl.StartRecording(context.Background())) })

	require.Equal(t, int32(1), opens.Load())
}

func TestStartRecordingPermissionDeniedNotifiesUser(t *testing.T) {
	h := newHarness(t, MicrophoneFunc(func(context.Context) (Stream, error) {
		return nil, fmt.Errorf("%w: access denied", ErrPermissionDenied)
	}), Options{})

	h.on(func() {
		require.NoError(t, h.ctrl.StartRecording(context.Background()))
		require.Equal(t, fsm.StateAcquiring, h.vm.RecorderState)
	})
	h.eventually(func() bool { return h.vm.RecorderState == fsm.StateIdle })

	notices := h.view.Notices()
	require.Len(t, notices, 1)
	require.True(t, strings.HasPrefix(notices[0], "Error accessing microphone: microphone permission denied"))
	h.on(func() {
		require.Nil(t, h.vm.Recording)
		require.False(t, h.vm.Ready())
	})
}

func TestStopRecordingOutsideRecordingIsNoop(t *testing.T) {
	h := newHarness(t, streamMic(newFakeStream()), Options{})

	h.on(func() {
		require.NoError(t, h.ctrl.StopRecording())
		require.Equal(t, fsm.StateIdle, h.vm.RecorderState)
		require.Nil(t, h.vm.Recording)
	})
}

func TestStreamEndingOnItsOwnFinalizesRecording(t *testing.T) {
	stream := newFakeStream()
	h := newHarness(t, streamMic(stream), Options{})

	h.on(func() { require.NoError(t, h.ctrl.StartRecording(context.Background())) })
	h.eventually(func() bool { return h.vm.RecorderState == fsm.StateRecording })

	stream.chunks <- make([]byte, 640)
	require.NoError(t, stream.Stop())

	h.eventually(func() bool { return h.vm.Recording.ResultBlob != nil })
	h.on(func() { require.Equal(t, fsm.StateIdle, h.vm.RecorderState) })
}

func TestRecordingRendersChunkCountPeriodically(t *testing.T) {
	stream := newFakeStream()
	h := newHarness(t, streamMic(stream), Options{})

	h.on(func() { require.NoError(t, h.ctrl.StartRecording(context.Background())) })
	h.eventually(func() bool { return h.vm.RecorderState == fsm.StateRecording })

	for range renderEveryChunks + 5 {
		stream.chunks <- make([]byte, 640)
	}
	h.eventually(func() bool { return len(h.vm.Recording.Chunks) == renderEveryChunks+5 })

	counts := h.view.ChunkCounts()
	require.Contains(t, counts, renderEveryChunks)
	require.NotContains(t, counts, renderEveryChunks+5)
	for _, n := range counts {
		require.Zero(t, n%renderEveryChunks, "unexpected render at %d chunks", n)
	}
	h.on(func() { require.NoError(t, h.ctrl.StopRecording()) })
}

func TestDropNonImageNeverChangesState(t *testing.T) {
	stream := newFakeStream()
	h := newHarness(t, streamMic(stream), Options{})
	h.record(stream, make([]byte, 640))

	h.on(func() {
		before := h.vm.SubmitEnabled
		err := h.ctrl.SelectImage(Source{Kind: SourceDrop, Files: []viewmodel.Blob{
			{Name: "notes.txt", MIME: "text/plain; charset=utf-8", Data: []byte("hello")},
			pngBlob(t),
		}})
		require.ErrorIs(t, err, ErrInvalidFileType)
		require.Nil(t, h.vm.Image)
		require.Equal(t, before, h.vm.SubmitEnabled)
	})
	require.Equal(t, []string{"Please drop an image file."}, h.view.Notices())
}

func TestEmptyDropRejectedAndEmptyPickerIgnored(t *testing.T) {
	h := newHarness(t, streamMic(newFakeStream()), Options{})

	h.on(func() {
		require.ErrorIs(t, h.ctrl.SelectImage(Source{Kind: SourceDrop}), ErrInvalidFileType)
		require.NoError(t, h.ctrl.SelectImage(Source{Kind: SourcePicker}))
		require.Nil(t, h.vm.Image)
	})
	require.Len(t, h.view.Notices(), 1)
}

func TestPickerAcceptsAnyFileUnlessValidationEnabled(t *testing.T) {
	doc := viewmodel.Blob{Name: "report.pdf", MIME: "application/pdf", Data: []byte("%PDF-1.4")}

	lenient := newHarness(t, streamMic(newFakeStream()), Options{})
	lenient.on(func() {
		require.NoError(t, lenient.ctrl.SelectImage(Source{Kind: SourcePicker, Files: []viewmodel.Blob{doc}}))
		require.Equal(t, "report.pdf", lenient.vm.Image.File.Name)
	})

	strict := newHarness(t, streamMic(newFakeStream()), Options{ValidatePicker: true})
	strict.on(func() {
		require.ErrorIs(t, strict.ctrl.SelectImage(Source{Kind: SourcePicker, Files: []viewmodel.Blob{doc}}), ErrInvalidFileType)
		require.Nil(t, strict.vm.Image)
	})
	require.Equal(t, []string{"Please select an image file."}, strict.view.Notices())
}

func TestSelectImageBuildsPreviewAsynchronously(t *testing.T) {
	h := newHarness(t, streamMic(newFakeStream()), Options{})

	h.on(func() {
		require.NoError(t, h.ctrl.SelectImage(Source{Kind: SourceDrop, Files: []viewmodel.Blob{pngBlob(t)}}))
	})
	h.eventually(func() bool { return h.vm.Image.PreviewDataURL != "" })

	h.on(func() {
		require.True(t, strings.HasPrefix(h.vm.Image.PreviewDataURL, "data:image/png;base64,"))
		require.Equal(t, 3, h.vm.Image.Width)
		require.Equal(t, 2, h.vm.Image.Height)
	})
}

func TestResetWhileRecordingReleasesMicrophone(t *testing.T) {
	stream := newFakeStream()
	h := newHarness(t, streamMic(stream), Options{})

	h.on(func() {
		require.NoError(t, h.ctrl.SelectImage(Source{Kind: SourceDrop, Files: []viewmodel.Blob{pngBlob(t)}}))
		require.NoError(t, h.ctrl.StartRecording(context.Background()))
	})
	h.eventually(func() bool { return h.vm.RecorderState == fsm.StateRecording })

	h.on(func() {
		h.vm.SetResult(viewmodel.DiagnosisResult{Transcription: "t", DiagnosisText: "d", AudioReplyURL: "/a.mp3"})
		h.ctrl.Reset()

		require.Equal(t, fsm.StateIdle, h.vm.RecorderState)
		require.Nil(t, h.vm.Recording)
		require.Nil(t, h.vm.Image)
		require.Nil(t, h.vm.Result)
		require.Equal(t, viewmodel.Outputs{}, h.vm.Outputs)
		require.False(t, h.vm.Ready())
		require.False(t, h.vm.SubmitEnabled)
		require.False(t, h.vm.PlayEnabled)
	})
	require.Equal(t, int32(1), stream.stops.Load())

	// Late completions from the released stream must not resurrect state.
	time.Sleep(20 * time.Millisecond)
	h.on(func() {
		require.Nil(t, h.vm.Recording)
		require.Nil(t, h.vm.Image)
	})
}

func TestResetDuringAcquisitionDropsLateStream(t *testing.T) {
	release := make(chan struct{})
	stream := newFakeStream()
	h := newHarness(t, MicrophoneFunc(func(context.Context) (Stream, error) {
		<-release
		return stream, nil
	}), Options{})

	h.on(func() {
		require.NoError(t, h.ctrl.StartRecording(context.Background()))
		h.ctrl.Reset()
	})
	close(release)

	require.Eventually(t, func() bool { return stream.stops.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	h.on(func() {
		require.Equal(t, fsm.StateIdle, h.vm.RecorderState)
		require.Nil(t, h.vm.Recording)
	})
}

func TestPlayRecordingRequiresFinalizedClip(t *testing.T) {
	stream := newFakeStream()
	h := newHarness(t, streamMic(stream), Options{})

	h.on(func() { require.NoError(t, h.ctrl.PlayRecording(context.Background())) })
	select {
	case <-h.player.played:
		t.Fatal("nothing should play without a recording")
	case <-time.After(20 * time.Millisecond):
	}

	h.record(stream, make([]byte, 640))
	h.on(func() { require.NoError(t, h.ctrl.PlayRecording(context.Background())) })

	select {
	case data := <-h.player.played:
		require.Equal(t, "RIFF", string(data[:4]))
	case <-time.After(2 * time.Second):
		t.Fatal("recording was not played")
	}
}

func TestLoadFilesSniffsContent(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "photo.bin")
	textPath := filepath.Join(dir, "notes.jpg")
	require.NoError(t, os.WriteFile(imagePath, pngBytes(t, 1, 1), 0o600))
	require.NoError(t, os.WriteFile(textPath, []byte("just words"), 0o600))

	blobs, err := LoadFiles([]string{imagePath, textPath})
	require.NoError(t, err)
	require.Len(t, blobs, 2)
	require.Equal(t, "photo.bin", blobs[0].Name)
	require.Equal(t, "image/png", blobs[0].MIME)
	require.True(t, strings.HasPrefix(blobs[1].MIME, "text/plain"))

	_, err = LoadFiles([]string{filepath.Join(dir, "missing.png")})
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}
