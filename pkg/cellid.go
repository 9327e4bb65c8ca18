package eutelescope

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell identifier encodings of the EUTelescope collections.
const (
	MatrixDefaultEncoding    = "sensorID:5,xMin:12,xMax:12,yMin:12,yMax:12"
	ZSDataDefaultEncoding    = "sensorID:5,sparsePixelType:5"
	ClusterDefaultEncoding   = "sensorID:5,clusterID:8,xSeed:12,ySeed:12,xCluSize:5,yCluSize:5,quality:5"
	ZSClusterDefaultEncoding = "sensorID:5,clusterID:8,sparsePixelType:5,quality:5"
	HitEncoding              = "sensorID:5,properties:7"
)

type bitField struct {
	name   string
	offset uint
	width  uint
	signed bool
}

func (f bitField) mask() uint64 {
	return ((uint64(1) << f.width) - 1) << f.offset
}

// CellIDDecoder reads named integer fields packed into a 64-bit identifier.
// Encodings are comma separated "name:width" or "name:offset:width" entries,
// a negative width declares a signed field.
type CellIDDecoder struct {
	encoding string
	fields   []bitField
	index    map[string]int
}

func NewCellIDDecoder(encoding string) (*CellIDDecoder, error) {
	d := &CellIDDecoder{
		encoding: encoding,
		index:    make(map[string]int),
	}
	var used uint64
	var nextOffset uint
	for _, entry := range strings.Split(encoding, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		var field bitField
		var width int
		var err error
		switch len(parts) {
		case 2:
			field.offset = nextOffset
			width, err = strconv.Atoi(parts[1])
		case 3:
			var offset int
			offset, err = strconv.Atoi(parts[1])
			if err == nil && offset < 0 {
				err = fmt.Errorf("negative offset %d", offset)
			}
			field.offset = uint(offset)
			if err == nil {
				width, err = strconv.Atoi(parts[2])
			}
		default:
			err = fmt.Errorf("expected name:width or name:offset:width")
		}
		if err != nil {
			return nil, fmt.Errorf("invalid cell ID field %q in %q: %w", entry, encoding, err)
		}
		field.name = parts[0]
		if width < 0 {
			field.signed = true
			width = -width
		}
		if width == 0 || field.offset+uint(width) > 64 {
			return nil, fmt.Errorf("cell ID field %q in %q does not fit in 64 bits", entry, encoding)
		}
		field.width = uint(width)
		if _, ok := d.index[field.name]; ok {
			return nil, fmt.Errorf("duplicated cell ID field %q in %q", field.name, encoding)
		}
		if used&field.mask() != 0 {
			return nil, fmt.Errorf("cell ID field %q overlaps another field in %q", field.name, encoding)
		}
		used |= field.mask()
		nextOffset = field.offset + field.width
		d.index[field.name] = len(d.fields)
		d.fields = append(d.fields, field)
	}
	return d, nil
}

// MustCellIDDecoder panics on an invalid encoding. Use it for the constant encodings only.
func MustCellIDDecoder(encoding string) *CellIDDecoder {
	d, err := NewCellIDDecoder(encoding)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *CellIDDecoder) Encoding() string {
	return d.encoding
}

func (d *CellIDDecoder) Field(id uint64, name string) (int64, error) {
	i, ok := d.index[name]
	if !ok {
		return 0, fmt.Errorf("cell ID field %q not in encoding %q", name, d.encoding)
	}
	return d.fields[i].value(id), nil
}

func (f bitField) value(id uint64) int64 {
	raw := (id & f.mask()) >> f.offset
	if f.signed && raw&(uint64(1)<<(f.width-1)) != 0 {
		return int64(raw) - int64(uint64(1)<<f.width)
	}
	return int64(raw)
}

// Decode returns every field of the encoding.
func (d *CellIDDecoder) Decode(id uint64) map[string]int64 {
	values := make(map[string]int64, len(d.fields))
	for _, f := range d.fields {
		values[f.name] = f.value(id)
	}
	return values
}

func (d *CellIDDecoder) DecodeElement(e Element) map[string]int64 {
	return d.Decode(CellID(e))
}

// Encode packs values into an identifier. Missing fields are zero.
func (d *CellIDDecoder) Encode(values map[string]int64) (uint64, error) {
	var id uint64
	for name := range values {
		if _, ok := d.index[name]; !ok {
			return 0, fmt.Errorf("cell ID field %q not in encoding %q", name, d.encoding)
		}
	}
	for _, f := range d.fields {
		v := values[f.name]
		var lo, hi int64
		if f.signed {
			lo = -(int64(1) << (f.width - 1))
			hi = int64(1)<<(f.width-1) - 1
		} else {
			lo = 0
			hi = int64(uint64(1)<<f.width - 1)
			if f.width == 64 {
				hi = int64(^uint64(0) >> 1)
			}
		}
		if v < lo || v > hi {
			return 0, fmt.Errorf("value %d of cell ID field %q out of range [%d, %d]", v, f.name, lo, hi)
		}
		id |= (uint64(v) << f.offset) & f.mask()
	}
	return id, nil
}
