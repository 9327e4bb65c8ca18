package eutelescope

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Element is a record stored in a collection.
type Element interface {
	CellIDs() (uint32, uint32)
}

// TrackerData is a raw detector record. ChargeValues is the payload read by
// the pixel and cluster codecs.
type TrackerData struct {
	CellID0      uint32
	CellID1      uint32
	ChargeValues []float32
}

func (d *TrackerData) CellIDs() (uint32, uint32) {
	return d.CellID0, d.CellID1
}

// TrackerHit is a reconstructed hit. Type is the cluster kind of RawHits[0].
type TrackerHit struct {
	CellID0  uint32
	CellID1  uint32
	Type     int
	Position [3]float64
	RawHits  []*TrackerData
}

func (h *TrackerHit) CellIDs() (uint32, uint32) {
	return h.CellID0, h.CellID1
}

func CellID(e Element) uint64 {
	id0, id1 := e.CellIDs()
	return uint64(id1)<<32 | uint64(id0)
}

// SplitCellID returns the low and high words of a 64-bit cell identifier.
func SplitCellID(id uint64) (uint32, uint32) {
	return uint32(id & 0xFFFFFFFF), uint32(id >> 32)
}

type Collection struct {
	Name       string
	Encoding   string
	Parameters map[string][]string
	Elements   []Element
}

func NewCollection(name string, encoding string) *Collection {
	return &Collection{
		Name:       name,
		Encoding:   encoding,
		Parameters: make(map[string][]string),
		Elements:   make([]Element, 0),
	}
}

func (c *Collection) Len() int {
	return len(c.Elements)
}

func (c *Collection) At(i int) Element {
	return c.Elements[i]
}

func (c *Collection) Append(e Element) {
	c.Elements = append(c.Elements, e)
}

// CopyParametersFrom copies every parameter of other, replacing existing keys.
func (c *Collection) CopyParametersFrom(other *Collection) {
	if c.Parameters == nil {
		c.Parameters = make(map[string][]string)
	}
	for key, values := range other.Parameters {
		copied := make([]string, len(values))
		copy(copied, values)
		c.Parameters[key] = copied
	}
}

// CopyElementsFrom appends the elements of other. Elements are shared, not cloned.
func (c *Collection) CopyElementsFrom(other *Collection) {
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("copy of n=%d elements from collection %s", other.Len(), other.Name), "events")
	}
	c.Elements = append(c.Elements, other.Elements...)
}

type Event struct {
	RunNumber   uint32
	EventNumber uint32
	collections map[string]*Collection
}

func NewEvent(runNumber uint32, eventNumber uint32) *Event {
	return &Event{
		RunNumber:   runNumber,
		EventNumber: eventNumber,
		collections: make(map[string]*Collection),
	}
}

func (e *Event) AddCollection(c *Collection) {
	if e.collections == nil {
		e.collections = make(map[string]*Collection)
	}
	e.collections[c.Name] = c
}

func (e *Event) GetCollection(name string) (*Collection, error) {
	c, ok := e.collections[name]
	if !ok {
		return nil, &ErrSourceNotFound{Collection: name}
	}
	return c, nil
}

// CollectionNames returns the collection names in sorted order.
func (e *Event) CollectionNames() []string {
	names := make([]string, 0, len(e.collections))
	for name := range e.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
