package main

import (
	"fmt"
	"io"

	eutelescope "github.com/MengqingWu/eutelescope/pkg"
	"github.com/MengqingWu/eutelescope/pkg/store"
)

// EventReader walks a store honouring the skip and max_events settings.
type EventReader struct {
	Reader   *store.Reader
	EvtCount int
	next     int
}

func NewEventReader(reader *store.Reader) *EventReader {
	return &EventReader{Reader: reader, EvtCount: -1}
}

func (f *EventReader) getNextEvent() (*eutelescope.Event, error) {
	for {
		if f.next >= f.Reader.NumEvents() {
			return nil, io.EOF
		}
		f.EvtCount++
		if f.EvtCount >= configuration.MaxEvents {
			if configuration.Verbosity > 0 {
				logger.Info("Max events reached", "eventReader")
			}
			return nil, io.EOF
		}
		index := f.next
		f.next++
		if f.EvtCount < configuration.Skip {
			if configuration.Verbosity > 0 {
				message := fmt.Sprintf("Skipping event %d", f.EvtCount)
				logger.Info(message, "eventReader")
			}
			continue
		}

		event, err := f.Reader.ReadEvent(index)
		if err != nil {
			return nil, fmt.Errorf("error reading event %d: %w", index, err)
		}
		if configuration.Verbosity > 0 {
			message := fmt.Sprintf("Reading event %d with ID %d", f.EvtCount, event.EventNumber)
			logger.Info(message, "eventReader")
		}
		return event, nil
	}
}

func numberOfEventsToProcess(fileEvtCount int, skipEvts int, maxEvtCount int) int {
	evtsToRead := maxEvtCount - skipEvts
	if evtsToRead > fileEvtCount-skipEvts {
		evtsToRead = fileEvtCount - skipEvts
	}
	if evtsToRead < 0 {
		evtsToRead = 0
	}
	return evtsToRead
}
