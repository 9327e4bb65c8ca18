package eutelescope

import (
	"fmt"
	"math"
)

type PixelType int

const (
	BaseSparsePixel    PixelType = 0
	SimpleSparsePixel  PixelType = 1
	GenericSparsePixel PixelType = 2
	GeometricPixel     PixelType = 3
	MuPixel            PixelType = 4
	UnknownPixelType   PixelType = 31
)

func (t PixelType) String() string {
	switch t {
	case BaseSparsePixel:
		return "base"
	case SimpleSparsePixel:
		return "simple"
	case GenericSparsePixel:
		return "generic"
	case GeometricPixel:
		return "geometric"
	case MuPixel:
		return "extended"
	default:
		return "unknown"
	}
}

// Pixel is implemented by the sparse pixel variants of this package only.
type Pixel interface {
	Base() BasePixel
	Type() PixelType
	appendTo(payload []float32) []float32
}

type BasePixel struct {
	X      int16
	Y      int16
	Signal float32
}

func (p BasePixel) Base() BasePixel {
	return p
}

type SimplePixel struct {
	BasePixel
}

func (SimplePixel) Type() PixelType { return SimpleSparsePixel }

func (p SimplePixel) appendTo(payload []float32) []float32 {
	return append(payload, float32(p.X), float32(p.Y), p.Signal)
}

type GenericPixel struct {
	BasePixel
	Time int16
}

func (GenericPixel) Type() PixelType { return GenericSparsePixel }

func (p GenericPixel) appendTo(payload []float32) []float32 {
	return append(payload, float32(p.X), float32(p.Y), p.Signal, float32(p.Time))
}

// GeomPixel carries the pixel centre and its half widths in local coordinates.
type GeomPixel struct {
	GenericPixel
	PosX      float32
	PosY      float32
	BoundaryX float32
	BoundaryY float32
}

func (GeomPixel) Type() PixelType { return GeometricPixel }

func (p GeomPixel) appendTo(payload []float32) []float32 {
	payload = p.GenericPixel.appendTo(payload)
	return append(payload, p.PosX, p.PosY, p.BoundaryX, p.BoundaryY)
}

type MuPix struct {
	BasePixel
	HitTime   int32
	FrameTime int32
}

func (MuPix) Type() PixelType { return MuPixel }

func (p MuPix) appendTo(payload []float32) []float32 {
	return append(payload, float32(p.X), float32(p.Y), p.Signal, float32(p.HitTime), float32(p.FrameTime))
}

// PixelWidth is the number of payload words used by one pixel of type t.
func PixelWidth(t PixelType) (int, error) {
	switch t {
	case SimpleSparsePixel:
		return 3, nil
	case GenericSparsePixel:
		return 4, nil
	case GeometricPixel:
		return 8, nil
	case MuPixel:
		return 5, nil
	default:
		return 0, &ErrUnknownDataType{Kind: "pixel", Tag: int(t)}
	}
}

// DecodePixels reads the payload of data as a list of pixels of type t.
func DecodePixels(data *TrackerData, t PixelType) ([]Pixel, error) {
	width, err := PixelWidth(t)
	if err != nil {
		return nil, err
	}
	payload := data.ChargeValues
	if len(payload)%width != 0 {
		return nil, &ErrMalformedRecord{
			Reason: fmt.Sprintf("%d payload words is not a multiple of the %s pixel width %d", len(payload), t, width),
		}
	}

	pixels := make([]Pixel, 0, len(payload)/width)
	for position := 0; position < len(payload); position += width {
		word := payload[position : position+width]
		ints, err := integerWords(word, t)
		if err != nil {
			return nil, &ErrMalformedRecord{
				Reason: fmt.Sprintf("pixel %d: %s", position/width, err),
			}
		}
		base := BasePixel{
			X:      int16(ints[0]),
			Y:      int16(ints[1]),
			Signal: word[2],
		}
		var pixel Pixel
		switch t {
		case SimpleSparsePixel:
			pixel = SimplePixel{BasePixel: base}
		case GenericSparsePixel:
			pixel = GenericPixel{BasePixel: base, Time: int16(ints[3])}
		case GeometricPixel:
			pixel = GeomPixel{
				GenericPixel: GenericPixel{BasePixel: base, Time: int16(ints[3])},
				PosX:         word[4],
				PosY:         word[5],
				BoundaryX:    word[6],
				BoundaryY:    word[7],
			}
		case MuPixel:
			pixel = MuPix{BasePixel: base, HitTime: int32(ints[3]), FrameTime: int32(ints[4])}
		}
		pixels = append(pixels, pixel)
	}

	if configuration.Verbosity > 3 {
		message := fmt.Sprintf("Decoded %d %s pixels", len(pixels), t)
		logger.Info(message, "pixels")
	}
	return pixels, nil
}

// integerWords checks the words of one pixel that hold integers and returns
// them by position. Signal and position words are left at zero.
func integerWords(word []float32, t PixelType) ([5]int64, error) {
	var ints [5]int64
	check := func(i int, name string, lo int64, hi int64) error {
		v := float64(word[i])
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return fmt.Errorf("%s %g is not an integer", name, v)
		}
		if v < float64(lo) || v > float64(hi) {
			return fmt.Errorf("%s %g out of range [%d, %d]", name, v, lo, hi)
		}
		ints[i] = int64(v)
		return nil
	}

	if err := check(0, "x", math.MinInt16, math.MaxInt16); err != nil {
		return ints, err
	}
	if err := check(1, "y", math.MinInt16, math.MaxInt16); err != nil {
		return ints, err
	}
	switch t {
	case GenericSparsePixel, GeometricPixel:
		if err := check(3, "time", math.MinInt16, math.MaxInt16); err != nil {
			return ints, err
		}
	case MuPixel:
		if err := check(3, "hit time", math.MinInt32, math.MaxInt32); err != nil {
			return ints, err
		}
		if err := check(4, "frame time", math.MinInt32, math.MaxInt32); err != nil {
			return ints, err
		}
	}
	return ints, nil
}

// EncodePixels writes pixels in the payload layout read by DecodePixels.
// All pixels should share one type.
func EncodePixels(pixels []Pixel) []float32 {
	payload := make([]float32, 0)
	for _, pixel := range pixels {
		payload = pixel.appendTo(payload)
	}
	return payload
}
