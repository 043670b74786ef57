package dump

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// codec compresses blobs for the remote stores. EncodeAll and DecodeAll are
// safe for concurrent use.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) compress(v Value) []byte {
	return c.enc.EncodeAll(v, make([]byte, 0, len(v)/2))
}

func (c *codec) decompress(b []byte) (Value, error) {
	v, err := c.dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress dump: %w", err)
	}
	return v, nil
}

func (c *codec) close() {
	c.enc.Close()
	c.dec.Close()
}
