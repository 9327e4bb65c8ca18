package eutelescope

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

// CantorEncode pairs two non-negative coordinates into one integer.
// The result is only compared or sorted, never decoded back.
func CantorEncode(x int, y int) int {
	return (x+y)*(x+y+1)/2 + y
}

// PixelKey identifies one pixel of one sensor.
type PixelKey struct {
	SensorID int32
	X        int32
	Y        int32
}

func (k PixelKey) String() string {
	return fmt.Sprintf("%d,%d,%d", k.SensorID, k.X, k.Y)
}

// HotPixelMap holds the pixels excluded from the analysis. It is not modified
// after it is built and can be shared by concurrent readers.
type HotPixelMap struct {
	pixels map[PixelKey]bool
}

func (m *HotPixelMap) IsExcluded(sensorID int, x int, y int) bool {
	if m == nil {
		return false
	}
	return m.pixels[PixelKey{SensorID: int32(sensorID), X: int32(x), Y: int32(y)}]
}

func (m *HotPixelMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pixels)
}

// Sensors returns the sorted ids of the sensors with at least one hot pixel.
func (m *HotPixelMap) Sensors() []int {
	if m == nil {
		return nil
	}
	seen := make(map[int]bool)
	sensors := make([]int, 0)
	for key := range m.pixels {
		if !seen[int(key.SensorID)] {
			seen[int(key.SensorID)] = true
			sensors = append(sensors, int(key.SensorID))
		}
	}
	slices.Sort(sensors)
	return sensors
}

// FillHotPixelMap builds the hot pixel map from the named collection of event.
// A missing collection gives an empty map: no pixel will be filtered.
func FillHotPixelMap(event *Event, collectionName string) *HotPixelMap {
	collection, err := event.GetCollection(collectionName)
	if err != nil {
		message := fmt.Sprintf("hotPixelCollectionName %s not found, no hot pixels will be removed", collectionName)
		logger.Warn(message, "hotpixels")
		return &HotPixelMap{pixels: make(map[PixelKey]bool)}
	}
	return NewHotPixelMap(collection)
}

// NewHotPixelMap builds the map from a collection of generic sparse pixel
// records. Records of any other kind are logged and skipped.
func NewHotPixelMap(collection *Collection) *HotPixelMap {
	hotPixels := &HotPixelMap{pixels: make(map[PixelKey]bool)}
	forEachGenericRecord(collection, func(sensorID int, pixels []Pixel) {
		for _, pixel := range pixels {
			p := pixel.Base()
			if configuration.Verbosity > 3 {
				message := fmt.Sprintf("HotPixelInfo: sensor %d, x %d, y %d, signal %g", sensorID, p.X, p.Y, p.Signal)
				logger.Info(message, "hotpixels")
			}
			hotPixels.pixels[PixelKey{SensorID: int32(sensorID), X: int32(p.X), Y: int32(p.Y)}] = true
		}
	})
	hotPixelsLoaded.Set(float64(len(hotPixels.pixels)))
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Read %d hot pixels from %s", len(hotPixels.pixels), collection.Name)
		logger.Info(message, "hotpixels")
	}
	return hotPixels
}

// ReadNoisyPixelList returns, per sensor, the sorted Cantor codes of the noisy
// pixels stored in the named collection.
func ReadNoisyPixelList(event *Event, collectionName string) map[int][]int {
	noisyPixels := make(map[int][]int)
	collection, err := event.GetCollection(collectionName)
	if err != nil {
		if collectionName != "" {
			message := fmt.Sprintf("noisyPixelCollectionName %s not found, no noisy pixels will be removed", collectionName)
			logger.Warn(message, "noisypixels")
		}
		return noisyPixels
	}

	forEachGenericRecord(collection, func(sensorID int, pixels []Pixel) {
		codes := noisyPixels[sensorID]
		for _, pixel := range pixels {
			p := pixel.Base()
			codes = append(codes, CantorEncode(int(p.X), int(p.Y)))
		}
		noisyPixels[sensorID] = codes
	})

	for sensorID, codes := range noisyPixels {
		slices.Sort(codes)
		if configuration.Verbosity > 0 {
			message := fmt.Sprintf("Read in %d noisy pixels on plane %d", len(codes), sensorID)
			logger.Info(message, "noisypixels")
		}
	}
	return noisyPixels
}

// forEachGenericRecord decodes every generic sparse pixel record of the
// collection. Records that cannot be read are counted and skipped.
func forEachGenericRecord(collection *Collection, fn func(sensorID int, pixels []Pixel)) {
	encoding := collection.Encoding
	if encoding == "" {
		encoding = ZSDataDefaultEncoding
	}
	cellDecoder, err := NewCellIDDecoder(encoding)
	if err != nil {
		errMessage := fmt.Errorf("error reading encoding of collection %s: %w", collection.Name, err)
		logger.Error(errMessage.Error())
		return
	}

	for i := 0; i < collection.Len(); i++ {
		if err := readGenericRecord(collection, i, cellDecoder, fn); err != nil {
			malformedRecords.Inc()
			logger.Error(err.Error())
		}
	}
}

func readGenericRecord(collection *Collection, i int, cellDecoder *CellIDDecoder,
	fn func(sensorID int, pixels []Pixel)) error {
	malformed := func(reason string) error {
		return &ErrMalformedRecord{Collection: collection.Name, Index: i, Reason: reason}
	}

	data, ok := collection.At(i).(*TrackerData)
	if !ok || data == nil {
		return malformed("element is not tracker data")
	}
	fields := cellDecoder.DecodeElement(data)
	sensorID, ok := fields["sensorID"]
	if !ok {
		return malformed("encoding has no sensorID field")
	}
	pixelType := PixelType(fields["sparsePixelType"])
	if pixelType != GenericSparsePixel {
		return malformed(fmt.Sprintf("the collection is corrupted, found %s pixels instead of generic", pixelType))
	}
	pixels, err := DecodePixels(data, pixelType)
	if err != nil {
		var malformedErr *ErrMalformedRecord
		if errors.As(err, &malformedErr) {
			return malformed(malformedErr.Reason)
		}
		return err
	}
	fn(int(sensorID), pixels)
	return nil
}

// HitContainsHotPixels reports whether any pixel of the sparse cluster behind
// hit is in hotPixels. Fixed frame clusters are decoded but never reported.
// On error the hit must be kept.
func HitContainsHotPixels(hit *TrackerHit, hotPixels *HotPixelMap) (bool, error) {
	cluster, err := ClusterFromHit(hit)
	if err != nil {
		return false, err
	}
	if cluster.Type != SparseCluster {
		return false, nil
	}
	for _, pixel := range cluster.Pixels {
		p := pixel.Base()
		if hotPixels.IsExcluded(cluster.SensorID, int(p.X), int(p.Y)) {
			if configuration.Verbosity > 2 {
				message := fmt.Sprintf("Skipping hit as pixel %d,%d,%d was found in the hot pixel map", cluster.SensorID, p.X, p.Y)
				logger.Info(message, "hotpixels")
			}
			return true, nil
		}
	}
	return false, nil
}

var hitDecoder = MustCellIDDecoder(HitEncoding)

func SensorIDFromHit(hit *TrackerHit) (int, error) {
	if hit == nil {
		return -1, &ErrMalformedRecord{Reason: "nil hit"}
	}
	sensorID, err := hitDecoder.Field(CellID(hit), "sensorID")
	if err != nil {
		return -1, err
	}
	return int(sensorID), nil
}

// FilterHotHits returns the hits of collection that contain no hot pixel.
// Hits that cannot be decoded are logged and kept.
func FilterHotHits(collection *Collection, hotPixels *HotPixelMap) []*TrackerHit {
	kept := make([]*TrackerHit, 0, collection.Len())
	for i := 0; i < collection.Len(); i++ {
		hit, ok := collection.At(i).(*TrackerHit)
		if !ok || hit == nil {
			errMessage := &ErrMalformedRecord{Collection: collection.Name, Index: i, Reason: "element is not a tracker hit"}
			logger.Error(errMessage.Error())
			decodeErrors.WithLabelValues(collection.Name).Inc()
			continue
		}
		hitsProcessed.WithLabelValues(collection.Name).Inc()
		skip, err := HitContainsHotPixels(hit, hotPixels)
		if err != nil {
			errMessage := fmt.Errorf("hit %d of collection %s: %w", i, collection.Name, err)
			logger.Error(errMessage.Error())
			decodeErrors.WithLabelValues(collection.Name).Inc()
		}
		if skip {
			hitsSkipped.WithLabelValues(collection.Name).Inc()
			continue
		}
		kept = append(kept, hit)
	}
	return kept
}
