// Package wav reads and writes the canonical 44-byte PCM WAV header and
// splices fragment buffers into a single playable clip.
package wav

import (
	"encoding/binary"

	apperrors "github.com/stagelink/platform/internal/errors"
)

// HeaderSize is the canonical PCM WAV header length.
const HeaderSize = 44

// Header holds the PCM format fields of a canonical WAV header.
type Header struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// ParseHeader validates the RIFF/WAVE framing and extracts the format fields.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, apperrors.Newf(apperrors.CodeInvalidArgument, "wav buffer too short: %d bytes", len(buf))
	}
	if string(buf[0:4]) != "RIFF" {
		return Header{}, apperrors.New(apperrors.CodeInvalidArgument, "missing RIFF tag")
	}
	if string(buf[8:12]) != "WAVE" {
		return Header{}, apperrors.New(apperrors.CodeInvalidArgument, "missing WAVE tag")
	}
	return Header{
		Channels:      binary.LittleEndian.Uint16(buf[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(buf[24:28]),
		BitsPerSample: binary.LittleEndian.Uint16(buf[34:36]),
	}, nil
}

// Encode emits a canonical 44-byte header for a PCM payload of the given length.
func (h Header) Encode(payloadLen int) []byte {
	byteRate := h.SampleRate * uint32(h.Channels) * uint32(h.BitsPerSample) / 8
	blockAlign := h.Channels * h.BitsPerSample / 8

	buf := make([]byte, HeaderSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+payloadLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], h.Channels)
	binary.LittleEndian.PutUint32(buf[24:28], h.SampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], byteRate)
	binary.LittleEndian.PutUint16(buf[32:34], blockAlign)
	binary.LittleEndian.PutUint16(buf[34:36], h.BitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(payloadLen))
	return buf
}
