package eutelescope

import (
	"fmt"
	"strings"
)

type ClusterType int

const (
	FFCluster      ClusterType = 0
	SparseCluster  ClusterType = 1
	DFFCluster     ClusterType = 2
	BrickedCluster ClusterType = 3
	UnknownCluster ClusterType = 31
)

func (t ClusterType) String() string {
	switch t {
	case FFCluster:
		return "fixed frame"
	case SparseCluster:
		return "sparse"
	case DFFCluster:
		return "digital fixed frame"
	case BrickedCluster:
		return "bricked"
	default:
		return "unknown"
	}
}

type ClusterQuality uint8

const (
	GoodCluster       ClusterQuality = 0
	IncompleteCluster ClusterQuality = 1 << 0
	BorderCluster     ClusterQuality = 1 << 1
	MergedCluster     ClusterQuality = 1 << 2
)

func (q ClusterQuality) String() string {
	if q == GoodCluster {
		return "good"
	}
	flags := make([]string, 0)
	if q&IncompleteCluster != 0 {
		flags = append(flags, "incomplete")
	}
	if q&BorderCluster != 0 {
		flags = append(flags, "border")
	}
	if q&MergedCluster != 0 {
		flags = append(flags, "merged")
	}
	if rest := q &^ (IncompleteCluster | BorderCluster | MergedCluster); rest != 0 {
		flags = append(flags, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(flags, "|")
}

// Cluster is a decoded group of pixels from one sensor. It owns its pixel slice.
type Cluster struct {
	SensorID  int
	ClusterID int
	Type      ClusterType
	PixelType PixelType
	Quality   ClusterQuality
	Pixels    []Pixel
	// Fixed frame geometry. Zero for sparse clusters.
	XSeed int
	YSeed int
	XSize int
	YSize int
}

func (c Cluster) Empty() bool {
	return len(c.Pixels) == 0
}

// Size returns the bounding size of the cluster in x and y.
func (c Cluster) Size() (int, int) {
	if c.Type != SparseCluster {
		return c.XSize, c.YSize
	}
	if len(c.Pixels) == 0 {
		return 0, 0
	}
	first := c.Pixels[0].Base()
	minX, maxX := first.X, first.X
	minY, maxY := first.Y, first.Y
	for _, pixel := range c.Pixels[1:] {
		p := pixel.Base()
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return int(maxX-minX) + 1, int(maxY-minY) + 1
}

func (c Cluster) TotalCharge() float64 {
	var total float64
	for _, pixel := range c.Pixels {
		total += float64(pixel.Base().Signal)
	}
	return total
}

// CenterOfGravity is the signal weighted mean position. Clusters without
// positive charge return the unweighted mean.
func (c Cluster) CenterOfGravity() (float64, float64) {
	if len(c.Pixels) == 0 {
		return 0, 0
	}
	var sumX, sumY, sumW float64
	for _, pixel := range c.Pixels {
		p := pixel.Base()
		w := float64(p.Signal)
		sumX += w * float64(p.X)
		sumY += w * float64(p.Y)
		sumW += w
	}
	if sumW > 0 {
		return sumX / sumW, sumY / sumW
	}
	sumX, sumY = 0, 0
	for _, pixel := range c.Pixels {
		p := pixel.Base()
		sumX += float64(p.X)
		sumY += float64(p.Y)
	}
	n := float64(len(c.Pixels))
	return sumX / n, sumY / n
}

var (
	zsClusterDecoder = MustCellIDDecoder(ZSClusterDefaultEncoding)
	clusterDecoder   = MustCellIDDecoder(ClusterDefaultEncoding)
)

// DecodeCluster builds the cluster of kind t stored in data.
func DecodeCluster(data *TrackerData, t ClusterType) (Cluster, error) {
	switch t {
	case SparseCluster:
		pixelType := PixelType(zsClusterDecoder.DecodeElement(data)["sparsePixelType"])
		return DecodeSparseCluster(data, pixelType)
	case FFCluster, DFFCluster, BrickedCluster:
		return decodeFixedFrame(data, t)
	default:
		return Cluster{}, &ErrUnknownDataType{Kind: "cluster", Tag: int(t)}
	}
}

// DecodeSparseCluster reads data as a sparse cluster of pixelType pixels.
func DecodeSparseCluster(data *TrackerData, pixelType PixelType) (Cluster, error) {
	pixels, err := DecodePixels(data, pixelType)
	if err != nil {
		return Cluster{}, err
	}
	fields := zsClusterDecoder.DecodeElement(data)
	cluster := Cluster{
		SensorID:  int(fields["sensorID"]),
		ClusterID: int(fields["clusterID"]),
		Type:      SparseCluster,
		PixelType: pixelType,
		Quality:   ClusterQuality(fields["quality"]),
		Pixels:    pixels,
	}
	return cluster, nil
}

func decodeFixedFrame(data *TrackerData, t ClusterType) (Cluster, error) {
	fields := clusterDecoder.DecodeElement(data)
	cluster := Cluster{
		SensorID:  int(fields["sensorID"]),
		ClusterID: int(fields["clusterID"]),
		Type:      t,
		PixelType: SimpleSparsePixel,
		Quality:   ClusterQuality(fields["quality"]),
		XSeed:     int(fields["xSeed"]),
		YSeed:     int(fields["ySeed"]),
		XSize:     int(fields["xCluSize"]),
		YSize:     int(fields["yCluSize"]),
	}

	nCells := cluster.XSize * cluster.YSize
	if len(data.ChargeValues) != nCells {
		return Cluster{}, &ErrMalformedRecord{
			Reason: fmt.Sprintf("%s cluster %dx%d has %d charge values", t, cluster.XSize, cluster.YSize, len(data.ChargeValues)),
		}
	}
	if t == BrickedCluster && (cluster.XSize != 3 || cluster.YSize != 3) {
		return Cluster{}, &ErrMalformedRecord{
			Reason: fmt.Sprintf("bricked cluster must be 3x3, got %dx%d", cluster.XSize, cluster.YSize),
		}
	}

	xStart := cluster.XSeed - cluster.XSize/2
	yStart := cluster.YSeed - cluster.YSize/2
	cluster.Pixels = make([]Pixel, 0, nCells)
	for j := 0; j < cluster.YSize; j++ {
		for i := 0; i < cluster.XSize; i++ {
			signal := data.ChargeValues[j*cluster.XSize+i]
			if t == DFFCluster && signal <= 0 {
				continue
			}
			if t == BrickedCluster && isBrickedCorner(i, j, cluster.YSeed) {
				continue
			}
			cluster.Pixels = append(cluster.Pixels, SimplePixel{BasePixel{
				X:      int16(xStart + i),
				Y:      int16(yStart + j),
				Signal: signal,
			}})
		}
	}
	return cluster, nil
}

// Rows of bricked sensors are shifted by half a pixel, so two corners of the
// 3x3 frame do not touch the seed.
func isBrickedCorner(i int, j int, ySeed int) bool {
	if j == 1 {
		return false
	}
	if ySeed%2 == 0 {
		return i == 0
	}
	return i == 2
}

// ClusterFromHit decodes the cluster behind hit according to the hit type.
func ClusterFromHit(hit *TrackerHit) (Cluster, error) {
	if hit == nil {
		return Cluster{}, &ErrMalformedRecord{Reason: "nil hit"}
	}
	if len(hit.RawHits) == 0 || hit.RawHits[0] == nil {
		return Cluster{}, &ErrMalformedRecord{Reason: "hit without raw cluster data"}
	}
	cluster, err := DecodeCluster(hit.RawHits[0], ClusterType(hit.Type))
	if err != nil {
		return Cluster{}, fmt.Errorf("error decoding cluster of hit: %w", err)
	}
	return cluster, nil
}

// ClusterSize returns the bounding size of the cluster behind hit.
func ClusterSize(hit *TrackerHit) (int, int, error) {
	cluster, err := ClusterFromHit(hit)
	if err != nil {
		return 0, 0, err
	}
	x, y := cluster.Size()
	return x, y, nil
}
