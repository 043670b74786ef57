package usecase

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/jaennil/guide_helper/backend/terrain/internal/generate"
	"github.com/jaennil/guide_helper/backend/terrain/internal/repository/dump"
	"github.com/jaennil/guide_helper/backend/terrain/internal/streaming"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
	"golang.org/x/image/tiff"
)

var ErrUnsupportedChannels = errors.New("unsupported channel count")

// TileSource yields resident CPU tiles; streaming.Driver implements it.
type TileSource interface {
	DumpCPUTiles(fn func(streaming.CPUTile) error) error
}

type TileDumpUseCase struct {
	store  dump.Store
	logger logger.Logger
}

func NewTileDumpUseCase(store dump.Store, l logger.Logger) *TileDumpUseCase {
	return &TileDumpUseCase{
		store:  store,
		logger: l,
	}
}

func (uc *TileDumpUseCase) DumpTile(tile streaming.CPUTile) error {
	img, err := EncodeTile(tile)
	if err != nil {
		return err
	}
	key := dump.Key{
		Layer: tile.Tile.Layer,
		Tree:  tile.Tile.Key.TreeID,
		LOD:   tile.Tile.Key.LOD,
		X:     tile.Tile.Key.X,
		Y:     tile.Tile.Key.Y,
	}
	if err := uc.store.Set(key, img); err != nil {
		uc.logger.Error("failed to dump tile", "key", key.String(), "error", err)
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// DumpAll writes every resident CPU tile of src. It must run on the frame
// goroutine.
func (uc *TileDumpUseCase) DumpAll(src TileSource) (int, error) {
	n := 0
	err := src.DumpCPUTiles(func(tile streaming.CPUTile) error {
		if err := uc.DumpTile(tile); err != nil {
			return err
		}
		n++
		return nil
	})
	uc.logger.Info("tiles dumped", "count", n)
	return n, err
}

func (uc *TileDumpUseCase) GetDumpedTile(layer string, tree, lod, x, y uint32) ([]byte, error) {
	key := dump.Key{Layer: layer, Tree: tree, LOD: lod, X: x, Y: y}
	uc.logger.Debug("dump lookup", "key", key.String())

	data, exists, err := uc.store.Get(key)
	if err != nil {
		uc.logger.Error("dump lookup failed", "key", key.String(), "error", err)
		return nil, err
	}
	if !exists {
		return nil, dump.ErrNotFound
	}
	return data, nil
}

// EncodeTile renders a CPU tile as a TIFF. Heightmaps become 16 bit gray
// stretched over the tile's own range; normal maps become RGBA with each
// component mapped from [-1,1] to [0,255].
func EncodeTile(tile streaming.CPUTile) ([]byte, error) {
	res := tile.Tile.Resolution
	if len(tile.Data) != res*res*tile.Channels {
		return nil, fmt.Errorf("tile %s has %d samples, want %d", tile.Tile.Key, len(tile.Data), res*res*tile.Channels)
	}

	var img image.Image
	switch tile.Channels {
	case 1:
		img = grayImage(tile.Data, res)
	case 3:
		img = normalImage(tile.Data, res)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChannels, tile.Channels)
	}

	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return nil, fmt.Errorf("failed to encode tiff: %w", err)
	}
	return buf.Bytes(), nil
}

func grayImage(data []float32, res int) *image.Gray16 {
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range data {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	scale := float32(0)
	if hi > lo {
		scale = math.MaxUint16 / (hi - lo)
	}

	img := image.NewGray16(image.Rect(0, 0, res, res))
	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			v := (data[j*res+i]-lo)*scale + 0.5
			img.SetGray16(i, j, color.Gray16{Y: uint16(min(v, math.MaxUint16))})
		}
	}
	return img
}

func normalImage(data []float32, res int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, res, res))
	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			n := data[(j*res+i)*3:]
			img.SetNRGBA(i, j, color.NRGBA{
				R: generate.NormalByte(n[0]),
				G: generate.NormalByte(n[1]),
				B: generate.NormalByte(n[2]),
				A: 255,
			})
		}
	}
	return img
}
