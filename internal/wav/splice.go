package wav

// Combine merges ordered PCM WAV fragment buffers into one valid WAV buffer.
// Format fields are taken from the first fragment; subsequent fragments are
// assumed to share channel count, sample rate, and bit depth. Fragments of 44
// bytes or fewer contribute an empty payload and are not fatal. The result is
// always structurally valid, even with a zero-length payload.
func Combine(fragments [][]byte) ([]byte, error) {
	if len(fragments) == 0 {
		return nil, nil
	}
	if len(fragments) == 1 {
		return fragments[0], nil
	}

	hdr, err := ParseHeader(fragments[0])
	if err != nil {
		return nil, err
	}

	total := 0
	for _, f := range fragments {
		if len(f) > HeaderSize {
			total += len(f) - HeaderSize
		}
	}

	out := make([]byte, 0, HeaderSize+total)
	out = append(out, hdr.Encode(total)...)
	for _, f := range fragments {
		if len(f) > HeaderSize {
			out = append(out, f[HeaderSize:]...)
		}
	}
	return out, nil
}
