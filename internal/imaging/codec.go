package imaging

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	frameMagic    = "SLFR"
	spectrumMagic = "SLSP"

	// MaxFrameSide bounds decoded frame dimensions.
	MaxFrameSide = 16384
	// MaxSpectrumBins bounds decoded spectrum length.
	MaxSpectrumBins = 1 << 20
)

// ErrBadMagic is returned when a file does not start with the expected tag.
var ErrBadMagic = errors.New("unrecognised file magic")

// WriteFrame encodes a frame as "SLFR", uint32 width, uint32 height and
// width*height uint16 counts, all little-endian.
func WriteFrame(w io.Writer, f *Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	hdr := make([]byte, 12)
	copy(hdr, frameMagic)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(f.Width))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(f.Height))
	if _, err := bw.Write(hdr); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, f.Counts); err != nil {
		return fmt.Errorf("write frame counts: %w", err)
	}
	return bw.Flush()
}

// ReadFrame decodes a frame written by WriteFrame.
func ReadFrame(r io.Reader) (*Frame, error) {
	hdr := make([]byte, 12)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	if string(hdr[:4]) != frameMagic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, hdr[:4])
	}
	w := int(binary.LittleEndian.Uint32(hdr[4:]))
	h := int(binary.LittleEndian.Uint32(hdr[8:]))
	if w <= 0 || h <= 0 || w > MaxFrameSide || h > MaxFrameSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, w, h)
	}
	f := NewFrame(w, h)
	if err := binary.Read(bufio.NewReader(r), binary.LittleEndian, f.Counts); err != nil {
		return nil, fmt.Errorf("read frame counts: %w", err)
	}
	return f, nil
}

// WriteSpectrum encodes a spectrum as "SLSP", uint32 bins, float32 min nm,
// float32 max nm, then the float32 samples, all little-endian.
func WriteSpectrum(w io.Writer, s Spectrum, sc SpectralScale) error {
	if len(s) != sc.Bins {
		return fmt.Errorf("spectrum has %d samples, scale declares %d bins", len(s), sc.Bins)
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	hdr := make([]byte, 16)
	copy(hdr, spectrumMagic)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(sc.Bins))
	binary.LittleEndian.PutUint32(hdr[8:], math.Float32bits(float32(sc.MinNM)))
	binary.LittleEndian.PutUint32(hdr[12:], math.Float32bits(float32(sc.MaxNM)))
	if _, err := bw.Write(hdr); err != nil {
		return fmt.Errorf("write spectrum header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, []float32(s)); err != nil {
		return fmt.Errorf("write spectrum samples: %w", err)
	}
	return bw.Flush()
}

// ReadSpectrum decodes a spectrum written by WriteSpectrum.
func ReadSpectrum(r io.Reader) (Spectrum, SpectralScale, error) {
	var sc SpectralScale
	hdr := make([]byte, 16)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, sc, fmt.Errorf("read spectrum header: %w", err)
	}
	if string(hdr[:4]) != spectrumMagic {
		return nil, sc, fmt.Errorf("%w: %q", ErrBadMagic, hdr[:4])
	}
	bins := int(binary.LittleEndian.Uint32(hdr[4:]))
	if bins <= 0 || bins > MaxSpectrumBins {
		return nil, sc, fmt.Errorf("spectrum bin count %d out of range", bins)
	}
	sc = SpectralScale{
		MinNM: float64(math.Float32frombits(binary.LittleEndian.Uint32(hdr[8:]))),
		MaxNM: float64(math.Float32frombits(binary.LittleEndian.Uint32(hdr[12:]))),
		Bins:  bins,
	}
	if err := sc.Validate(); err != nil {
		return nil, sc, err
	}
	s := make(Spectrum, bins)
	if err := binary.Read(bufio.NewReader(r), binary.LittleEndian, []float32(s)); err != nil {
		return nil, sc, fmt.Errorf("read spectrum samples: %w", err)
	}
	return s, sc, nil
}

// EncodeFrame returns the WriteFrame encoding as a byte slice.
func EncodeFrame(f *Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeSpectrum returns the WriteSpectrum encoding as a byte slice.
func EncodeSpectrum(s Spectrum, sc SpectralScale) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSpectrum(&buf, s, sc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
