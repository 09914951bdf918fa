package engine

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/worldgen/internal/world"
)

// Chunk values are a few thousand near-identical tiles, so they are stored
// zstd-compressed. EncodeAll and DecodeAll are safe for concurrent use.
var (
	chunkEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	chunkDecoder, _ = zstd.NewReader(nil)
)

func tileKey(x, y int) string {
	return fmt.Sprintf("tile:%d:%d", x, y)
}

func chunkKey(cx, cy int) string {
	return fmt.Sprintf("chunk:%d:%d", cx, cy)
}

func encodeTile(t world.Tile) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTile(s string) (world.Tile, error) {
	var t world.Tile
	err := json.Unmarshal([]byte(s), &t)
	return t, err
}

func encodeChunk(c world.Chunk) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(chunkEncoder.EncodeAll(b, nil)), nil
}

func decodeChunk(s string) (world.Chunk, error) {
	raw, err := chunkDecoder.DecodeAll([]byte(s), nil)
	if err != nil {
		return world.Chunk{}, fmt.Errorf("decompress chunk: %w", err)
	}
	var c world.Chunk
	if err := json.Unmarshal(raw, &c); err != nil {
		return world.Chunk{}, err
	}
	return c, nil
}
