package eutelescope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeCellID(t *testing.T, encoding string, values map[string]int64) (uint32, uint32) {
	t.Helper()
	id, err := MustCellIDDecoder(encoding).Encode(values)
	require.NoError(t, err)
	return SplitCellID(id)
}

func sparseData(t *testing.T, encoding string, sensorID int, pixelType PixelType, pixels ...Pixel) *TrackerData {
	t.Helper()
	id0, id1 := encodeCellID(t, encoding, map[string]int64{
		"sensorID":        int64(sensorID),
		"sparsePixelType": int64(pixelType),
	})
	return &TrackerData{CellID0: id0, CellID1: id1, ChargeValues: EncodePixels(pixels)}
}

func frameData(t *testing.T, sensorID int, xSeed int, ySeed int, xSize int, ySize int, charges []float32) *TrackerData {
	t.Helper()
	id0, id1 := encodeCellID(t, ClusterDefaultEncoding, map[string]int64{
		"sensorID": int64(sensorID),
		"xSeed":    int64(xSeed),
		"ySeed":    int64(ySeed),
		"xCluSize": int64(xSize),
		"yCluSize": int64(ySize),
	})
	return &TrackerData{CellID0: id0, CellID1: id1, ChargeValues: charges}
}

func hitOf(t *testing.T, sensorID int, clusterType ClusterType, raw *TrackerData) *TrackerHit {
	t.Helper()
	id0, id1 := encodeCellID(t, HitEncoding, map[string]int64{"sensorID": int64(sensorID)})
	return &TrackerHit{CellID0: id0, CellID1: id1, Type: int(clusterType), RawHits: []*TrackerData{raw}}
}

func generic(x int16, y int16, signal float32) Pixel {
	return GenericPixel{BasePixel: BasePixel{X: x, Y: y, Signal: signal}}
}

func pixelPositions(pixels []Pixel) [][2]int16 {
	positions := make([][2]int16, 0, len(pixels))
	for _, pixel := range pixels {
		p := pixel.Base()
		positions = append(positions, [2]int16{p.X, p.Y})
	}
	return positions
}

// recordingLogger keeps the messages logged during a test.
type recordingLogger struct {
	infos  []string
	warns  []string
	errors []string
}

func (l *recordingLogger) Info(message string, module string) { l.infos = append(l.infos, message) }
func (l *recordingLogger) Warn(message string, module string) { l.warns = append(l.warns, message) }
func (l *recordingLogger) Error(message string) { l.errors = append(l.errors, message) }

func useRecordingLogger(t *testing.T) *recordingLogger {
	t.Helper()
	l := &recordingLogger{}
	SetLogger(l)
	t.Cleanup(func() { SetLogger(nil) })
	return l
}
