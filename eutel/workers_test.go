package main

import (
	"context"
	"errors"
	"io"
	"testing"

	eutelescope "github.com/MengqingWu/eutelescope/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type sliceSource struct {
	events []*eutelescope.Event
	errAt  int
	next   int
}

func (s *sliceSource) getNextEvent() (*eutelescope.Event, error) {
	if s.next >= len(s.events) {
		return nil, io.EOF
	}
	i := s.next
	s.next++
	if i == s.errAt {
		return nil, errors.New("corrupted event")
	}
	return s.events[i], nil
}

type recordingSink struct {
	events []*eutelescope.Event
	err    error
}

func (s *recordingSink) WriteEvent(event *eutelescope.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func cellID(t *testing.T, encoding string, values map[string]int64) (uint32, uint32) {
	t.Helper()
	id, err := eutelescope.MustCellIDDecoder(encoding).Encode(values)
	require.NoError(t, err)
	return eutelescope.SplitCellID(id)
}

func sparseHit(t *testing.T, sensorID int, pixels ...eutelescope.Pixel) *eutelescope.TrackerHit {
	t.Helper()
	raw0, raw1 := cellID(t, eutelescope.ZSClusterDefaultEncoding, map[string]int64{
		"sensorID":        int64(sensorID),
		"sparsePixelType": int64(eutelescope.GenericSparsePixel),
	})
	hit0, hit1 := cellID(t, eutelescope.HitEncoding, map[string]int64{"sensorID": int64(sensorID)})
	return &eutelescope.TrackerHit{
		CellID0:  hit0,
		CellID1:  hit1,
		Type:     int(eutelescope.SparseCluster),
		Position: [3]float64{1, 2, 0},
		RawHits: []*eutelescope.TrackerData{{
			CellID0:      raw0,
			CellID1:      raw1,
			ChargeValues: eutelescope.EncodePixels(pixels),
		}},
	}
}

func pixel(x int16, y int16) eutelescope.Pixel {
	return eutelescope.GenericPixel{BasePixel: eutelescope.BasePixel{X: x, Y: y, Signal: 1}}
}

func filterTestEvent(t *testing.T, eventNumber uint32) *eutelescope.Event {
	event := eutelescope.NewEvent(100, eventNumber)

	hotPixels := eutelescope.NewCollection("hotpixel", eutelescope.ZSDataDefaultEncoding)
	id0, id1 := cellID(t, eutelescope.ZSDataDefaultEncoding, map[string]int64{
		"sensorID":        0,
		"sparsePixelType": int64(eutelescope.GenericSparsePixel),
	})
	hotPixels.Append(&eutelescope.TrackerData{CellID0: id0, CellID1: id1, ChargeValues: eutelescope.EncodePixels([]eutelescope.Pixel{pixel(10, 10)})})
	event.AddCollection(hotPixels)

	hits := eutelescope.NewCollection("hit", eutelescope.HitEncoding)
	hits.Append(sparseHit(t, 0, pixel(10, 10), pixel(11, 10)))
	hits.Append(sparseHit(t, 0, pixel(20, 20)))
	hits.Append(sparseHit(t, 1, pixel(10, 10)))
	hits.Append(sparseHit(t, 2, pixel(30, 30)))
	event.AddCollection(hits)
	return event
}

func useConfiguration(t *testing.T, config eutelescope.Configuration) {
	t.Helper()
	previous := configuration
	configuration = config
	eutelescope.SetConfiguration(config)
	t.Cleanup(func() {
		configuration = previous
		eutelescope.SetConfiguration(previous)
	})
}

func TestProcessEvent(t *testing.T) {
	config := defaultConfiguration()
	config.ExcludedPlanes = []int{1}
	config.NPlanes = 3
	useConfiguration(t, config)

	filter := newEventFilter(config, eutelescope.Conditions{
		Alignment: map[int]eutelescope.AlignmentConstant{
			2: {SensorID: 2, Shift: r3.Vec{X: 0.5, Y: 0, Z: 40}},
		},
	})
	input := filterTestEvent(t, 7)
	result := filter.processEvent(input)

	require.NoError(t, result.Summary.Err)
	assert.Equal(t, EventSummary{EventNumber: 7, HitsIn: 4, HitsKept: 2, HitsExcludedPlane: 1}, result.Summary)

	hits, err := result.Event.GetCollection("hit")
	require.NoError(t, err)
	require.Equal(t, 2, hits.Len())

	first := hits.At(0).(*eutelescope.TrackerHit)
	second := hits.At(1).(*eutelescope.TrackerHit)
	assert.Equal(t, [3]float64{1, 2, 0}, first.Position)
	assert.Equal(t, [3]float64{1.5, 2, 40}, second.Position)

	// The input hit is not moved.
	original, err := input.GetCollection("hit")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 2, 0}, original.At(3).(*eutelescope.TrackerHit).Position)
}

func TestProcessEventUsesConditionsHotPixels(t *testing.T) {
	config := defaultConfiguration()
	useConfiguration(t, config)

	conditionsHot := eutelescope.NewCollection("hotpixel_db", eutelescope.ZSDataDefaultEncoding)
	id0, id1 := cellID(t, eutelescope.ZSDataDefaultEncoding, map[string]int64{
		"sensorID":        0,
		"sparsePixelType": int64(eutelescope.GenericSparsePixel),
	})
	conditionsHot.Append(&eutelescope.TrackerData{CellID0: id0, CellID1: id1, ChargeValues: eutelescope.EncodePixels([]eutelescope.Pixel{pixel(20, 20)})})
	filter := newEventFilter(config, eutelescope.Conditions{HotPixels: eutelescope.NewHotPixelMap(conditionsHot)})

	event := eutelescope.NewEvent(100, 1)
	hits := eutelescope.NewCollection("hit", eutelescope.HitEncoding)
	hits.Append(sparseHit(t, 0, pixel(20, 20)))
	hits.Append(sparseHit(t, 0, pixel(21, 20)))
	event.AddCollection(hits)

	result := filter.processEvent(event)
	assert.Equal(t, 1, result.Summary.HitsKept)
}

func TestRunWorkers(t *testing.T) {
	config := defaultConfiguration()
	config.NumWorkers = 3
	useConfiguration(t, config)

	events := make([]*eutelescope.Event, 0)
	for i := 0; i < 10; i++ {
		events = append(events, filterTestEvent(t, uint32(i)))
	}
	source := &sliceSource{events: events, errAt: 4}
	sink := &recordingSink{}

	totals, err := runWorkers(context.Background(), source, newEventFilter(config, eutelescope.Conditions{}), sink, config.NumWorkers)
	require.NoError(t, err)
	assert.Equal(t, 9, totals.Events)
	assert.Equal(t, 0, totals.FailedEvents)
	assert.Equal(t, 36, totals.HitsIn)
	assert.Equal(t, 27, totals.HitsKept)
	assert.Len(t, sink.events, 9)
}

func TestRunWorkersSinkError(t *testing.T) {
	config := defaultConfiguration()
	config.NumWorkers = 2
	useConfiguration(t, config)

	events := make([]*eutelescope.Event, 0)
	for i := 0; i < 20; i++ {
		events = append(events, filterTestEvent(t, uint32(i)))
	}
	writeErr := errors.New("disk full")

	_, err := runWorkers(context.Background(), &sliceSource{events: events, errAt: -1},
		newEventFilter(config, eutelescope.Conditions{}), &recordingSink{err: writeErr}, config.NumWorkers)
	assert.ErrorIs(t, err, writeErr)
}

func TestNumberOfEventsToProcess(t *testing.T) {
	assert.Equal(t, 100, numberOfEventsToProcess(100, 0, 1000000000))
	assert.Equal(t, 90, numberOfEventsToProcess(100, 10, 1000000000))
	assert.Equal(t, 40, numberOfEventsToProcess(100, 10, 50))
	assert.Equal(t, 0, numberOfEventsToProcess(5, 10, 50))
}
