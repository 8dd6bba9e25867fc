package imaging

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
)

// ImageSnapshot is the persisted form of a processed image.
type ImageSnapshot struct {
	Width  int
	Height int
	Pix    []float32
}

// SpectrumSnapshot is the persisted form of a spectrum with its scale.
type SpectrumSnapshot struct {
	Scale   SpectralScale
	Samples []float32
}

func encodeGzipGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(v); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGzipGob(blob []byte, v any) error {
	if len(blob) == 0 {
		return fmt.Errorf("empty snapshot blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()
	return gob.NewDecoder(gz).Decode(v)
}

// SerializeImage compresses an image using gob encoding and gzip.
func SerializeImage(im *Image) ([]byte, error) {
	if im == nil {
		return nil, fmt.Errorf("nil image")
	}
	return encodeGzipGob(ImageSnapshot{Width: im.Width, Height: im.Height, Pix: im.Pix})
}

// DeserializeImage decodes a blob produced by SerializeImage.
func DeserializeImage(blob []byte) (*Image, error) {
	var snap ImageSnapshot
	if err := decodeGzipGob(blob, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode image snapshot: %w", err)
	}
	if snap.Width <= 0 || snap.Height <= 0 || len(snap.Pix) != snap.Width*snap.Height {
		return nil, fmt.Errorf("%w: snapshot %dx%d with %d pixels", ErrDimensions, snap.Width, snap.Height, len(snap.Pix))
	}
	return &Image{Width: snap.Width, Height: snap.Height, Pix: snap.Pix}, nil
}

// SerializeSpectrum compresses a spectrum and its scale.
func SerializeSpectrum(s Spectrum, sc SpectralScale) ([]byte, error) {
	return encodeGzipGob(SpectrumSnapshot{Scale: sc, Samples: s})
}

// DeserializeSpectrum decodes a blob produced by SerializeSpectrum.
func DeserializeSpectrum(blob []byte) (Spectrum, SpectralScale, error) {
	var snap SpectrumSnapshot
	if err := decodeGzipGob(blob, &snap); err != nil {
		return nil, SpectralScale{}, fmt.Errorf("failed to decode spectrum snapshot: %w", err)
	}
	return Spectrum(snap.Samples), snap.Scale, nil
}
