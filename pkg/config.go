package eutelescope

type Configuration struct {
	Verbosity            int      `json:"verbosity"`
	FileIn               string   `json:"file_in"`
	FileOut              string   `json:"file_out"`
	MaxEvents            int      `json:"max_events"`
	Skip                 int      `json:"skip"`
	NumWorkers           int      `json:"num_workers"`
	HotPixelCollection   string   `json:"hot_pixel_collection"`
	NoisyPixelCollection string   `json:"noisy_pixel_collection"`
	HitCollections       []string `json:"hit_collections"`
	ExcludedPlanes       []int    `json:"excluded_planes"`
	NPlanes              int      `json:"n_planes"`
	NoDB                 bool     `json:"no_db"`
	DBDriver             string   `json:"db_driver"`
	Host                 string   `json:"host"`
	User                 string   `json:"user"`
	Passwd               string   `json:"pass"`
	DBName               string   `json:"dbname"`
	DBPath               string   `json:"db_path"`
	RunNumber            int      `json:"run_number"`
	MetricsAddr          string   `json:"metrics_addr"`
	UseBlosc             bool     `json:"use_blosc"`
	CompressionLevel     int      `json:"compression_level"`
	BloscAlgorithm       string   `json:"blosc_algorithm"`
	BloscShuffle         string   `json:"blosc_shuffle"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
