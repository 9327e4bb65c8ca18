package main

import (
	"fmt"

	eutelescope "github.com/MengqingWu/eutelescope/pkg"
	"gonum.org/v1/gonum/spatial/r3"
)

// eventFilter removes hits on excluded planes or touching hot pixels and
// moves the rest to the global frame. It is shared read-only by the workers.
type eventFilter struct {
	hotPixelCollection string
	hitCollections     []string
	planeIndex         []int
	conditions         eutelescope.Conditions
}

func newEventFilter(config eutelescope.Configuration, conditions eutelescope.Conditions) *eventFilter {
	f := &eventFilter{
		hotPixelCollection: config.HotPixelCollection,
		hitCollections:     config.HitCollections,
		conditions:         conditions,
	}
	if config.NPlanes > 0 {
		f.planeIndex = eutelescope.NotExcludedPlanesIndices(config.ExcludedPlanes, config.NPlanes)
	}
	return f
}

type EventSummary struct {
	EventNumber       uint32
	HitsIn            int
	HitsKept          int
	HitsExcludedPlane int
	Err               error
}

type filterResult struct {
	Event   *eutelescope.Event
	Summary EventSummary
}

// hotPixels prefers the map stored in the event and falls back to the one of
// the conditions database.
func (f *eventFilter) hotPixels(event *eutelescope.Event) *eutelescope.HotPixelMap {
	if _, err := event.GetCollection(f.hotPixelCollection); err != nil && f.conditions.HotPixels != nil {
		return f.conditions.HotPixels
	}
	return eutelescope.FillHotPixelMap(event, f.hotPixelCollection)
}

func (f *eventFilter) excludedPlane(sensorID int) bool {
	return sensorID >= 0 && sensorID < len(f.planeIndex) && f.planeIndex[sensorID] == -1
}

func (f *eventFilter) processEvent(event *eutelescope.Event) (result filterResult) {
	summary := EventSummary{EventNumber: event.EventNumber}
	defer func() {
		if r := recover(); r != nil {
			errMessage := fmt.Errorf("filter recovered from panic on event %d: %v", event.EventNumber, r)
			logger.Error(errMessage.Error())
			summary.Err = errMessage
			result = filterResult{Summary: summary}
		}
	}()

	hotPixels := f.hotPixels(event)
	filtered := eutelescope.NewEvent(event.RunNumber, event.EventNumber)

	for _, name := range f.hitCollections {
		hits, err := event.GetCollection(name)
		if err != nil {
			if configuration.Verbosity > 1 {
				logger.Info(err.Error(), "filter")
			}
			continue
		}
		summary.HitsIn += hits.Len()

		onPlanes := eutelescope.NewCollection(hits.Name, hits.Encoding)
		onPlanes.CopyParametersFrom(hits)
		for i := 0; i < hits.Len(); i++ {
			if hit, ok := hits.At(i).(*eutelescope.TrackerHit); ok {
				sensorID, err := eutelescope.SensorIDFromHit(hit)
				if err == nil && f.excludedPlane(sensorID) {
					summary.HitsExcludedPlane++
					continue
				}
			}
			onPlanes.Append(hits.At(i))
		}

		out := eutelescope.NewCollection(hits.Name, hits.Encoding)
		out.CopyParametersFrom(hits)
		for _, hit := range eutelescope.FilterHotHits(onPlanes, hotPixels) {
			out.Append(f.align(hit))
		}
		summary.HitsKept += out.Len()
		filtered.AddCollection(out)
	}

	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("Event %d: %d hits in, %d kept, %d on excluded planes",
			summary.EventNumber, summary.HitsIn, summary.HitsKept, summary.HitsExcludedPlane)
		logger.Info(message, "filter")
	}
	return filterResult{Event: filtered, Summary: summary}
}

// align returns a copy of hit in the global frame when its sensor has
// alignment constants.
func (f *eventFilter) align(hit *eutelescope.TrackerHit) *eutelescope.TrackerHit {
	sensorID, err := eutelescope.SensorIDFromHit(hit)
	if err != nil {
		return hit
	}
	constant, ok := f.conditions.Alignment[sensorID]
	if !ok {
		return hit
	}
	aligned := *hit
	global := constant.Apply(r3.Vec{X: hit.Position[0], Y: hit.Position[1], Z: hit.Position[2]})
	aligned.Position = [3]float64{global.X, global.Y, global.Z}
	return &aligned
}
