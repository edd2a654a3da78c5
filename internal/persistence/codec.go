package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/undercurrent/internal/engine"
)

// Both are safe for concurrent EncodeAll/DecodeAll and never fail with
// default options.
var (
	stateEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	stateDecoder, _ = zstd.NewReader(nil)
)

func encodeState(s engine.GameState) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return stateEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

func decodeState(blob []byte) (engine.GameState, error) {
	raw, err := stateDecoder.DecodeAll(blob, nil)
	if err != nil {
		return engine.GameState{}, fmt.Errorf("decompress state: %w", err)
	}
	var s engine.GameState
	if err := json.Unmarshal(raw, &s); err != nil {
		return engine.GameState{}, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}
