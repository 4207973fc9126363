package capture

import (
	"context"

	"github.com/rbright/arogya/internal/fsm"
	"github.com/rbright/arogya/internal/viewmodel"
)

const recordingName = "recording.wav"

// renderEveryChunks paces chunk-count renders: 25 chunks of 20ms is half a second.
const renderEveryChunks = 25

// StartRecording requests the microphone. The outcome arrives later on the
// loop: either a live session or a user notification.
func (c *Controller) StartRecording(ctx context.Context) error {
	if c.vm.RecorderState != fsm.StateIdle {
		return nil
	}
	next, err := fsm.Transition(c.vm.RecorderState, fsm.EventStart)
	if err != nil {
		return err
	}
	c.vm.RecorderState = next
	c.recordingGen++
	gen := c.recordingGen
	c.vm.Render()

	go func() {
		stream, err := c.mic.Open(ctx)
		posted := c.loop.Post(func() {
			c.onMicrophone(ctx, gen, stream, err)
		})
		if !posted && stream != nil {
			_ = stream.Stop()
		}
	}()
	return nil
}

func (c *Controller) onMicrophone(ctx context.Context, gen uint64, stream Stream, err error) {
	if gen != c.recordingGen || c.vm.RecorderState != fsm.StateAcquiring {
		if stream != nil {
			_ = stream.Stop()
		}
		return
	}

	if err != nil {
		c.vm.RecorderState, _ = fsm.Transition(c.vm.RecorderState, fsm.EventDenied)
		c.vm.Render()
		c.logError("microphone access failed", "error", err.Error())
		c.vm.Notify("Error accessing microphone: " + err.Error() +
			". Please make sure your microphone is connected and you have granted permission to use it.")
		return
	}

	c.vm.RecorderState, _ = fsm.Transition(c.vm.RecorderState, fsm.EventGranted)
	session := &viewmodel.RecordingSession{IsRecording: true}
	c.vm.Recording = session
	c.vm.PlayEnabled = false
	c.stream = stream
	c.vm.RefreshReadiness()
	c.logInfo("recording started")

	go c.pump(ctx, session, stream)
}

// pump forwards chunks to the session and encodes the clip once the stream closes.
func (c *Controller) pump(ctx context.Context, session *viewmodel.RecordingSession, stream Stream) {
	var pcm []byte
	for chunk := range stream.Chunks() {
		pcm = append(pcm, chunk...)
		c.loop.Post(func() {
			if c.vm.Recording != session {
				return
			}
			session.Chunks = append(session.Chunks, chunk)
			if len(session.Chunks)%renderEveryChunks == 0 {
				c.vm.Render()
			}
		})
	}

	data, err := c.encodeWAV(pcm)
	if err == nil && c.dumpAudio != nil {
		c.dumpAudio(data)
	}
	c.loop.Post(func() {
		c.finalize(session, stream, data, err)
	})
}

func (c *Controller) finalize(session *viewmodel.RecordingSession, stream Stream, data []byte, err error) {
	if c.vm.Recording != session {
		return
	}

	// The stream may end on its own when the device disappears.
	if c.stream == stream && c.vm.RecorderState == fsm.StateRecording {
		c.stream = nil
		c.vm.RecorderState, _ = fsm.Transition(c.vm.RecorderState, fsm.EventStop)
	}
	session.IsRecording = false

	if err != nil {
		c.vm.Render()
		c.logError("encode recording failed", "error", err.Error())
		c.vm.Notify("Error finalizing recording: " + err.Error())
		return
	}

	session.ResultBlob = &viewmodel.Blob{Name: recordingName, MIME: "audio/wav", Data: data}
	c.vm.PlayEnabled = true
	c.vm.RefreshReadiness()
	c.logInfo("recording finalized", "chunks", len(session.Chunks), "bytes", len(data))
}

// StopRecording releases the device. It is a no-op unless recording.
func (c *Controller) StopRecording() error {
	if c.vm.RecorderState != fsm.StateRecording {
		return nil
	}
	next, err := fsm.Transition(c.vm.RecorderState, fsm.EventStop)
	if err != nil {
		return err
	}
	c.vm.RecorderState = next
	if c.vm.Recording != nil {
		c.vm.Recording.IsRecording = false
	}
	c.releaseStream()
	c.vm.Render()
	return nil
}

// PlayRecording plays the finalized clip in the background. It is a no-op
// when nothing has been recorded.
func (c *Controller) PlayRecording(ctx context.Context) error {
	rec := c.vm.Recording
	if rec == nil || rec.ResultBlob == nil || c.player == nil {
		return nil
	}
	blob := *rec.ResultBlob

	go func() {
		if err := c.player.Play(ctx, blob.Data, blob.MIME); err != nil {
			c.logWarn("play recording failed", "error", err.Error())
		}
	}()
	return nil
}
