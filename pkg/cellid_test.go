package eutelescope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEncodingsParse(t *testing.T) {
	for _, encoding := range []string{
		MatrixDefaultEncoding,
		ZSDataDefaultEncoding,
		ClusterDefaultEncoding,
		ZSClusterDefaultEncoding,
		HitEncoding,
	} {
		d, err := NewCellIDDecoder(encoding)
		require.NoError(t, err, encoding)
		assert.Equal(t, encoding, d.Encoding())
	}
}

func TestCellIDEncodeDecode(t *testing.T) {
	d := MustCellIDDecoder(ClusterDefaultEncoding)
	values := map[string]int64{
		"sensorID":  7,
		"clusterID": 200,
		"xSeed":     1151,
		"ySeed":     575,
		"xCluSize":  5,
		"yCluSize":  3,
		"quality":   2,
	}
	id, err := d.Encode(values)
	require.NoError(t, err)
	assert.Equal(t, values, d.Decode(id))

	// ySeed starts at bit 25 and spans both words.
	low, high := SplitCellID(id)
	assert.Equal(t, id, CellID(&TrackerData{CellID0: low, CellID1: high}))

	xSeed, err := d.Field(id, "xSeed")
	require.NoError(t, err)
	assert.Equal(t, int64(1151), xSeed)

	_, err = d.Field(id, "missing")
	assert.Error(t, err)
}

func TestCellIDExplicitOffsetsAndSigned(t *testing.T) {
	d, err := NewCellIDDecoder("layer:0:4,x:32:-16,y:48:-16")
	require.NoError(t, err)

	id, err := d.Encode(map[string]int64{"layer": 3, "x": -5, "y": 12})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"layer": 3, "x": -5, "y": 12}, d.Decode(id))
}

func TestCellIDEncodeErrors(t *testing.T) {
	d := MustCellIDDecoder(ZSDataDefaultEncoding)

	_, err := d.Encode(map[string]int64{"sensorID": 32})
	assert.Error(t, err)
	_, err = d.Encode(map[string]int64{"sensorID": -1})
	assert.Error(t, err)
	_, err = d.Encode(map[string]int64{"plane": 1})
	assert.Error(t, err)

	id, err := d.Encode(map[string]int64{"sensorID": 31})
	require.NoError(t, err)
	assert.Equal(t, uint64(31), id)
}

func TestNewCellIDDecoderErrors(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
	}{
		{"zero width", "a:0"},
		{"not a number", "a:x"},
		{"too many parts", "a:1:2:3"},
		{"missing width", "a"},
		{"past 64 bits", "a:60,b:8"},
		{"duplicated", "a:4,a:4"},
		{"overlap", "a:0:8,b:4:8"},
		{"negative offset", "a:-1:4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCellIDDecoder(tt.encoding)
			assert.Error(t, err)
		})
	}
}

func TestMustCellIDDecoderPanics(t *testing.T) {
	assert.Panics(t, func() { MustCellIDDecoder("a:0") })
}
