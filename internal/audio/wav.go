package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavHeader is the canonical 44-byte RIFF/WAVE header for PCM data.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// EncodeWAV packs float32 mono samples into a 16-bit PCM WAV container, the
// format the ASR engines accept. Samples outside [-1, 1] are clamped.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio window")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("write WAV header: %w", err)
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		pcm[i] = int16(s * 32767)
	}
	if err := binary.Write(buf, binary.LittleEndian, pcm); err != nil {
		return nil, fmt.Errorf("write WAV data: %w", err)
	}

	return buf.Bytes(), nil
}
