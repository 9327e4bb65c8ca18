package store

import (
	"encoding/json"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// BloscAlgorithm is a Blosc compressor, named as in the blosc_algorithm
// configuration key.
type BloscAlgorithm struct {
	Name string
	Code hdf5.BloscFilter
}

// BloscShuffle is a Blosc shuffle mode, named as in the blosc_shuffle
// configuration key.
type BloscShuffle struct {
	Name string
	Code hdf5.BloscShuffle
}

var bloscAlgorithms = []BloscAlgorithm{
	{Name: "blosclz", Code: hdf5.BLOSC_BLOSCLZ},
	{Name: "lz4", Code: hdf5.BLOSC_LZ4},
	{Name: "lz4hc", Code: hdf5.BLOSC_LZ4HC},
	{Name: "snappy", Code: hdf5.BLOSC_SNAPPY},
	{Name: "zlib", Code: hdf5.BLOSC_ZLIB},
	{Name: "zstd", Code: hdf5.BLOSC_ZSTD},
}

var bloscShuffles = []BloscShuffle{
	{Name: "no-shuffle", Code: hdf5.BLOSC_NOSHUFFLE},
	{Name: "byte-shuffle", Code: hdf5.BLOSC_SHUFFLE},
	{Name: "bit-shuffle", Code: hdf5.BLOSC_BITSHUFFLE},
}

// Compression used for the event tables when the configuration names none.
var (
	DefaultBloscAlgorithm = BloscAlgorithm{Name: "lz4", Code: hdf5.BLOSC_LZ4}
	DefaultBloscShuffle   = BloscShuffle{Name: "byte-shuffle", Code: hdf5.BLOSC_SHUFFLE}
)

func (b BloscAlgorithm) String() string {
	for _, algorithm := range bloscAlgorithms {
		if algorithm.Code == b.Code {
			return algorithm.Name
		}
	}
	return "UNKNOWN"
}

func ParseBloscAlgorithm(s string) (BloscAlgorithm, error) {
	for _, algorithm := range bloscAlgorithms {
		if algorithm.Name == s {
			return algorithm, nil
		}
	}
	return BloscAlgorithm{}, fmt.Errorf("invalid blosc_algorithm %q", s)
}

func (b BloscAlgorithm) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *BloscAlgorithm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	algorithm, err := ParseBloscAlgorithm(s)
	if err != nil {
		return err
	}
	*b = algorithm
	return nil
}

func (b BloscShuffle) String() string {
	for _, shuffle := range bloscShuffles {
		if shuffle.Code == b.Code {
			return shuffle.Name
		}
	}
	return "UNKNOWN"
}

func ParseBloscShuffle(s string) (BloscShuffle, error) {
	for _, shuffle := range bloscShuffles {
		if shuffle.Name == s {
			return shuffle, nil
		}
	}
	return BloscShuffle{}, fmt.Errorf("invalid blosc_shuffle %q", s)
}

func (b BloscShuffle) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *BloscShuffle) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	shuffle, err := ParseBloscShuffle(s)
	if err != nil {
		return err
	}
	*b = shuffle
	return nil
}
