package store

import (
	eutelescope "github.com/MengqingWu/eutelescope/pkg"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Options selects the compression of every dataset of a file.
type Options struct {
	UseBlosc         bool
	CompressionLevel int
	BloscAlgorithm   BloscAlgorithm
	BloscShuffle     BloscShuffle
}

// OptionsFromConfiguration reads the compression settings of config.
// Empty Blosc names select lz4 and byte shuffle.
func OptionsFromConfiguration(config eutelescope.Configuration) (Options, error) {
	options := Options{
		UseBlosc:         config.UseBlosc,
		CompressionLevel: config.CompressionLevel,
		BloscAlgorithm:   DefaultBloscAlgorithm,
		BloscShuffle:     DefaultBloscShuffle,
	}
	if config.BloscAlgorithm != "" {
		algorithm, err := ParseBloscAlgorithm(config.BloscAlgorithm)
		if err != nil {
			return Options{}, err
		}
		options.BloscAlgorithm = algorithm
	}
	if config.BloscShuffle != "" {
		shuffle, err := ParseBloscShuffle(config.BloscShuffle)
		if err != nil {
			return Options{}, err
		}
		options.BloscShuffle = shuffle
	}
	return options, nil
}

const (
	NAMELEN     = 32
	ENCODINGLEN = 128
)

type eventHDF5 struct {
	run_number int32
	evt_number int32
}

type collectionHDF5 struct {
	evt      int32
	name     [NAMELEN]byte
	encoding [ENCODINGLEN]byte
}

type elementKind int32

const (
	dataElement elementKind = iota
	hitElement
	// rawElement rows follow the hit they belong to.
	rawElement
)

type elementHDF5 struct {
	evt          int32
	collection   int32
	kind         int32
	cellID0      uint32
	cellID1      uint32
	hitType      int32
	position     [3]float64
	chargeOffset uint64
	nCharges     uint32
}

func convertFromHdf5String(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func datasetPropList(options Options) (*hdf5.PropList, error) {
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	chunks := []uint{32768}
	plist.SetChunk(chunks)

	if options.UseBlosc {
		hdf5.ConfigureBloscFilter(plist, options.BloscAlgorithm.Code, options.CompressionLevel, options.BloscShuffle.Code)
	} else {
		plist.SetDeflate(options.CompressionLevel)
	}
	return plist, nil
}

// createTable creates an extensible one dimensional dataset of datatype
// values, either a compound struct or a native type.
func createTable(group *hdf5.Group, name string, datatype *hdf5.Datatype, options Options) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := datasetPropList(options)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	dset, err := group.CreateDatasetWith(name, datatype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func createCompoundTable(group *hdf5.Group, name string, value interface{}, options Options) (*hdf5.Dataset, error) {
	dtype, err := hdf5.NewDatatypeFromValue(value)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return createTable(group, name, dtype, options)
}

// writeArrayToTable appends data at row offset of dataset.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, offset int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	rowsInFile := uint(offset)
	newsize := []uint{rowsInFile + length}
	if err := dataset.Resize(newsize); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

// readTable reads every row of the dataset at path.
func readTable[T any](file *hdf5.File, path string) ([]T, error) {
	dataset, err := file.OpenDataset(path)
	if err != nil {
		return nil, err
	}
	defer dataset.Close()

	space := dataset.Space()
	dims, _, err := space.SimpleExtentDims()
	space.Close()
	if err != nil {
		return nil, err
	}
	data := make([]T, dims[0])
	if len(data) == 0 {
		return data, nil
	}
	if err := dataset.Read(&data); err != nil {
		return nil, err
	}
	return data, nil
}
