package audio

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
)

// Player plays WAV or MP3 payloads through the default Pulse sink.
type Player struct {
	decode func(data []byte, mime string) (PCM, error)
	output func(ctx context.Context, pcm PCM) error
}

// Play decodes data and blocks until playback drains or ctx is cancelled.
func (p Player) Play(ctx context.Context, data []byte, mime string) error {
	decode := p.decode
	if decode == nil {
		decode = Decode
	}
	output := p.output
	if output == nil {
		output = playPCM
	}

	pcm, err := decode(data, mime)
	if err != nil {
		return err
	}
	if len(pcm.Samples) == 0 {
		return nil
	}
	return output(ctx, pcm)
}

func playPCM(ctx context.Context, pcm PCM) error {
	client, err := newClient("audio-speakers")
	if err != nil {
		return err
	}
	defer client.Close()

	layout := pulse.PlaybackMono
	if pcm.Channels == 2 {
		layout = pulse.PlaybackStereo
	} else if pcm.Channels != 1 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, pcm.Channels)
	}

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil || cursor >= len(pcm.Samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, pcm.Samples[cursor:])
		cursor += n
		if cursor >= len(pcm.Samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		layout,
		pulse.PlaybackSampleRate(pcm.SampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackMediaName("arogya playback"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play audio stream: %w", err)
	}
	return ctx.Err()
}
