package store

import (
	"fmt"

	eutelescope "github.com/MengqingWu/eutelescope/pkg"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Reader gives random access to the events of a file written by Writer.
// The tables are loaded when the file is opened.
type Reader struct {
	File        *hdf5.File
	Filename    string
	events      []eventHDF5
	collections []collectionHDF5
	elements    []elementHDF5
	charges     []float32

	collectionsByEvent   map[int32][]int
	elementsByCollection map[int32][]int
}

func Open(filename string) (*Reader, error) {
	logger := eutelescope.GetLogger()
	verbosity := eutelescope.GetConfiguration().Verbosity

	// Needed to decompress Blosc datasets.
	if _, _, err := hdf5.RegisterBlosc(); err != nil && verbosity > 0 {
		logger.Info(fmt.Sprintf("Blosc not available: %v", err), "store")
	}

	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	reader := &Reader{File: file, Filename: filename}
	if err := reader.load(); err != nil {
		file.Close()
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}
	if verbosity > 0 {
		message := fmt.Sprintf("Opened %s with %d events", filename, len(reader.events))
		logger.Info(message, "store")
	}
	return reader, nil
}

func (r *Reader) load() error {
	var err error
	if r.events, err = readTable[eventHDF5](r.File, "/Run/events"); err != nil {
		return err
	}
	if r.collections, err = readTable[collectionHDF5](r.File, "/Events/collections"); err != nil {
		return err
	}
	if r.elements, err = readTable[elementHDF5](r.File, "/Events/elements"); err != nil {
		return err
	}
	if r.charges, err = readTable[float32](r.File, "/Events/charges"); err != nil {
		return err
	}

	r.collectionsByEvent = make(map[int32][]int)
	for i, c := range r.collections {
		r.collectionsByEvent[c.evt] = append(r.collectionsByEvent[c.evt], i)
	}
	r.elementsByCollection = make(map[int32][]int)
	for i, e := range r.elements {
		r.elementsByCollection[e.collection] = append(r.elementsByCollection[e.collection], i)
	}
	return nil
}

func (r *Reader) NumEvents() int {
	return len(r.events)
}

func (r *Reader) trackerData(row elementHDF5) (*eutelescope.TrackerData, error) {
	start := row.chargeOffset
	end := start + uint64(row.nCharges)
	if end > uint64(len(r.charges)) {
		return nil, fmt.Errorf("charges [%d, %d) out of range", start, end)
	}
	charges := make([]float32, row.nCharges)
	copy(charges, r.charges[start:end])
	return &eutelescope.TrackerData{
		CellID0:      row.cellID0,
		CellID1:      row.cellID1,
		ChargeValues: charges,
	}, nil
}

// ReadEvent builds the i-th event of the file.
func (r *Reader) ReadEvent(i int) (*eutelescope.Event, error) {
	if i < 0 || i >= len(r.events) {
		return nil, fmt.Errorf("event index %d out of range [0, %d)", i, len(r.events))
	}
	event := eutelescope.NewEvent(uint32(r.events[i].run_number), uint32(r.events[i].evt_number))

	for _, ci := range r.collectionsByEvent[int32(i)] {
		row := r.collections[ci]
		collection := eutelescope.NewCollection(convertFromHdf5String(row.name[:]), convertFromHdf5String(row.encoding[:]))

		var lastHit *eutelescope.TrackerHit
		for index, ei := range r.elementsByCollection[int32(ci)] {
			element := r.elements[ei]
			switch elementKind(element.kind) {
			case dataElement:
				data, err := r.trackerData(element)
				if err != nil {
					return nil, &eutelescope.ErrMalformedRecord{Collection: collection.Name, Index: index, Reason: err.Error()}
				}
				collection.Append(data)
			case hitElement:
				lastHit = &eutelescope.TrackerHit{
					CellID0:  element.cellID0,
					CellID1:  element.cellID1,
					Type:     int(element.hitType),
					Position: element.position,
				}
				collection.Append(lastHit)
			case rawElement:
				if lastHit == nil {
					return nil, &eutelescope.ErrMalformedRecord{Collection: collection.Name, Index: index, Reason: "raw data without hit"}
				}
				data, err := r.trackerData(element)
				if err != nil {
					return nil, &eutelescope.ErrMalformedRecord{Collection: collection.Name, Index: index, Reason: err.Error()}
				}
				lastHit.RawHits = append(lastHit.RawHits, data)
			default:
				return nil, &eutelescope.ErrUnknownDataType{Kind: "element", Tag: int(element.kind)}
			}
		}
		event.AddCollection(collection)
	}
	return event, nil
}

func (r *Reader) Close() error {
	return r.File.Close()
}
