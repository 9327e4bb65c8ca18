package store

import (
	"fmt"

	eutelescope "github.com/MengqingWu/eutelescope/pkg"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Writer appends events to an HDF5 file. It is not safe for concurrent use.
type Writer struct {
	File              *hdf5.File
	Filename          string
	RunGroup          *hdf5.Group
	EventsGroup       *hdf5.Group
	EventTable        *hdf5.Dataset
	CollectionTable   *hdf5.Dataset
	ElementTable      *hdf5.Dataset
	ChargeTable       *hdf5.Dataset
	EvtCounter        int
	CollectionCounter int
	ElementCounter    int
	ChargeCounter     int
}

func NewWriter(filename string, options Options) (*Writer, error) {
	logger := eutelescope.GetLogger()
	verbosity := eutelescope.GetConfiguration().Verbosity

	if options.UseBlosc {
		bloscVersion, bloscDate, err := hdf5.RegisterBlosc()
		if err != nil {
			logger.Error(err.Error())
		} else if verbosity > 0 {
			message := fmt.Sprintf("Blosc version: %s date: %s", bloscVersion, bloscDate)
			logger.Info(message, "store")
		}
	}

	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating file: %s", filename), "store")
	}
	file, err := openFile(filename)
	if err != nil {
		return nil, err
	}
	writer := &Writer{File: file, Filename: filename}

	if writer.RunGroup, err = createGroup(file, "Run"); err != nil {
		file.Close()
		return nil, err
	}
	if writer.EventsGroup, err = createGroup(file, "Events"); err != nil {
		file.Close()
		return nil, err
	}
	if writer.EventTable, err = createCompoundTable(writer.RunGroup, "events", eventHDF5{}, options); err != nil {
		file.Close()
		return nil, err
	}
	if writer.CollectionTable, err = createCompoundTable(writer.EventsGroup, "collections", collectionHDF5{}, options); err != nil {
		file.Close()
		return nil, err
	}
	if writer.ElementTable, err = createCompoundTable(writer.EventsGroup, "elements", elementHDF5{}, options); err != nil {
		file.Close()
		return nil, err
	}
	if writer.ChargeTable, err = createTable(writer.EventsGroup, "charges", hdf5.T_NATIVE_FLOAT, options); err != nil {
		file.Close()
		return nil, err
	}
	return writer, nil
}

type eventRows struct {
	collections []collectionHDF5
	elements    []elementHDF5
	charges     []float32
}

func (w *Writer) dataRow(rows *eventRows, evt int32, collection int32, kind elementKind, data *eutelescope.TrackerData) elementHDF5 {
	row := elementHDF5{
		evt:          evt,
		collection:   collection,
		kind:         int32(kind),
		cellID0:      data.CellID0,
		cellID1:      data.CellID1,
		chargeOffset: uint64(w.ChargeCounter + len(rows.charges)),
		nCharges:     uint32(len(data.ChargeValues)),
	}
	rows.charges = append(rows.charges, data.ChargeValues...)
	return row
}

func (w *Writer) eventRows(event *eutelescope.Event) (*eventRows, error) {
	rows := &eventRows{}
	evt := int32(w.EvtCounter)
	for _, name := range event.CollectionNames() {
		c, err := event.GetCollection(name)
		if err != nil {
			return nil, err
		}
		if len(c.Name) > NAMELEN || len(c.Encoding) > ENCODINGLEN {
			return nil, fmt.Errorf("collection %s: name or encoding too long to be stored", c.Name)
		}
		row := collectionHDF5{evt: evt}
		copy(row.name[:], c.Name)
		copy(row.encoding[:], c.Encoding)
		collection := int32(w.CollectionCounter + len(rows.collections))
		rows.collections = append(rows.collections, row)

		for i, element := range c.Elements {
			switch e := element.(type) {
			case *eutelescope.TrackerData:
				if e == nil {
					return nil, fmt.Errorf("element %d of collection %s: nil tracker data", i, c.Name)
				}
				rows.elements = append(rows.elements, w.dataRow(rows, evt, collection, dataElement, e))
			case *eutelescope.TrackerHit:
				if e == nil {
					return nil, fmt.Errorf("element %d of collection %s: nil tracker hit", i, c.Name)
				}
				rows.elements = append(rows.elements, elementHDF5{
					evt:        evt,
					collection: collection,
					kind:       int32(hitElement),
					cellID0:    e.CellID0,
					cellID1:    e.CellID1,
					hitType:    int32(e.Type),
					position:   e.Position,
				})
				// A nil raw entry has nothing to store and is dropped.
				for _, raw := range e.RawHits {
					if raw == nil {
						continue
					}
					rows.elements = append(rows.elements, w.dataRow(rows, evt, collection, rawElement, raw))
				}
			default:
				return nil, fmt.Errorf("element %d of collection %s: unsupported element type %T", i, c.Name, element)
			}
		}
	}
	return rows, nil
}

// WriteEvent appends event and all its collections.
func (w *Writer) WriteEvent(event *eutelescope.Event) error {
	rows, err := w.eventRows(event)
	if err != nil {
		return err
	}

	evtRow := []eventHDF5{{
		run_number: int32(event.RunNumber),
		evt_number: int32(event.EventNumber),
	}}
	if err := writeArrayToTable(w.EventTable, &evtRow, w.EvtCounter); err != nil {
		return fmt.Errorf("error writing event %d: %w", event.EventNumber, err)
	}
	if err := writeArrayToTable(w.CollectionTable, &rows.collections, w.CollectionCounter); err != nil {
		return fmt.Errorf("error writing collections of event %d: %w", event.EventNumber, err)
	}
	if err := writeArrayToTable(w.ElementTable, &rows.elements, w.ElementCounter); err != nil {
		return fmt.Errorf("error writing elements of event %d: %w", event.EventNumber, err)
	}
	if err := writeArrayToTable(w.ChargeTable, &rows.charges, w.ChargeCounter); err != nil {
		return fmt.Errorf("error writing charges of event %d: %w", event.EventNumber, err)
	}

	w.EvtCounter++
	w.CollectionCounter += len(rows.collections)
	w.ElementCounter += len(rows.elements)
	w.ChargeCounter += len(rows.charges)
	return nil
}

func (w *Writer) Close() error {
	for _, dataset := range []*hdf5.Dataset{w.EventTable, w.CollectionTable, w.ElementTable, w.ChargeTable} {
		if dataset != nil {
			dataset.Close()
		}
	}
	for _, group := range []*hdf5.Group{w.RunGroup, w.EventsGroup} {
		if group != nil {
			group.Close()
		}
	}
	return w.File.Close()
}
