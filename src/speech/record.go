package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const sampleRate = 16000

// Recorder captures microphone audio.
type Recorder interface {
	Record(ctx context.Context, d time.Duration) ([]byte, error)
}

// PulseRecorder records 16kHz mono s16 PCM from the default PulseAudio (or
// PipeWire-pulse) source.
type PulseRecorder struct{}

// Record captures up to d of audio (ctx cancellation ends it early) and
// returns it as a WAV file.
func (PulseRecorder) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("screen-ocr-translate"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	source, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("resolve default source: %w", err)
	}

	var (
		mu  sync.Mutex
		pcm []byte
	)
	writer := pulse.NewWriter(writerFunc(func(b []byte) (int, error) {
		mu.Lock()
		pcm = append(pcm, b...)
		mu.Unlock()
		return len(b), nil
	}), pulseproto.FormatInt16LE)

	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordMediaName("pronunciation practice"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	stream.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(pcm) == 0 {
		return nil, fmt.Errorf("no audio captured from %s", source.ID())
	}
	return EncodeWAV(pcm, sampleRate), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }

// EncodeWAV wraps mono s16le PCM in a RIFF/WAVE header.
func EncodeWAV(pcm []byte, rate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
