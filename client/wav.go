package client

import (
	"bytes"
	"encoding/binary"
)

const (
	captureSampleRate = 16000 // Whisper-friendly rate
	captureChannels   = 1
	bitsPerSample     = 16
)

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WrapWAV prefixes raw 16kHz mono 16-bit PCM with a WAV header, producing
// the self-describing clip the server expects.
func WrapWAV(pcm []byte) []byte {
	dataSize := uint32(len(pcm))
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     dataSize + 36,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   captureChannels,
		SampleRate:    captureSampleRate,
		ByteRate:      captureSampleRate * captureChannels * bitsPerSample / 8,
		BlockAlign:    captureChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	binary.Write(&buf, binary.LittleEndian, header)
	buf.Write(pcm)
	return buf.Bytes()
}
