package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFormat is returned for audio that is neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// PCM is interleaved signed 16-bit audio.
type PCM struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Decode turns a WAV or MP3 payload into PCM. An empty or generic mime is
// resolved by sniffing the payload.
func Decode(data []byte, mime string) (PCM, error) {
	if len(data) == 0 {
		return PCM{}, errors.New("decode audio: empty payload")
	}

	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "" || mime == "application/octet-stream" {
		mime = mimetype.Detect(data).String()
	}

	switch {
	case isWAV(mime):
		return decodeWAV(data)
	case strings.HasPrefix(mime, "audio/mpeg"), strings.HasPrefix(mime, "audio/mp3"):
		return decodeMP3(data)
	default:
		detected := mimetype.Detect(data)
		if detected.Is("audio/wav") {
			return decodeWAV(data)
		}
		if detected.Is("audio/mpeg") {
			return decodeMP3(data)
		}
		return PCM{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
}

func isWAV(mime string) bool {
	for _, candidate := range []string{"audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave"} {
		if strings.HasPrefix(mime, candidate) {
			return true
		}
	}
	return false
}

func decodeWAV(data []byte) (PCM, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return PCM{}, fmt.Errorf("%w: invalid wav container", ErrUnsupportedFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("decode wav: %w", err)
	}

	shift := 0
	switch decoder.BitDepth {
	case 8:
	case 16:
	case 24:
		shift = 8
	case 32:
		shift = 16
	default:
		return PCM{}, fmt.Errorf("%w: %d-bit wav", ErrUnsupportedFormat, decoder.BitDepth)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		if decoder.BitDepth == 8 {
			samples[i] = int16((v - 128) << 8)
			continue
		}
		samples[i] = int16(v >> shift)
	}

	return PCM{
		Samples:    samples,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
	}, nil
}

func decodeMP3(data []byte) (PCM, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return PCM{}, fmt.Errorf("decode mp3: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return PCM{}, fmt.Errorf("decode mp3: %w", err)
	}

	// go-mp3 always yields 16-bit little-endian stereo.
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return PCM{Samples: samples, SampleRate: decoder.SampleRate(), Channels: 2}, nil
}
