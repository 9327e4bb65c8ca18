package eutelescope

import (
	"fmt"
	"math"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
	"gonum.org/v1/gonum/spatial/r3"
	_ "modernc.org/sqlite"
)

// Conditions are the per run constants read from the conditions database.
type Conditions struct {
	HotPixels *HotPixelMap
	Alignment map[int]AlignmentConstant
}

func MySQLDSN(user string, pass string, host string, dbname string) string {
	port := "3306"
	return fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
}

// ConnectToDatabase opens the conditions database selected by config.DBDriver,
// "mysql" (default) or "sqlite".
func ConnectToDatabase(config Configuration) (*sqlx.DB, error) {
	switch config.DBDriver {
	case "", "mysql":
		return sqlx.Connect("mysql", MySQLDSN(config.User, config.Passwd, config.Host, config.DBName))
	case "sqlite":
		db, err := sqlx.Connect("sqlite", config.DBPath)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.DBDriver)
	}
}

func LoadConditions(dbConn *sqlx.DB, runNumber int) (Conditions, error) {
	hotPixels, err := LoadHotPixelsFromDB(dbConn, runNumber, "hotpixel_db")
	if err != nil {
		errMessage := fmt.Errorf("error getting hot pixels from database: %w", err)
		logger.Error(errMessage.Error())
		return Conditions{}, errMessage
	}
	alignment, err := LoadAlignmentFromDB(dbConn, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting alignment from database: %w", err)
		logger.Error(errMessage.Error())
		return Conditions{}, errMessage
	}
	return Conditions{
		HotPixels: NewHotPixelMap(hotPixels),
		Alignment: alignment,
	}, nil
}

type HotPixelEntry struct {
	SensorID int `db:"SensorID"`
	X        int `db:"X"`
	Y        int `db:"Y"`
}

type AlignmentEntry struct {
	SensorID int     `db:"SensorID"`
	Alpha    float64 `db:"Alpha"`
	Beta     float64 `db:"Beta"`
	Gamma    float64 `db:"Gamma"`
	ShiftX   float64 `db:"ShiftX"`
	ShiftY   float64 `db:"ShiftY"`
	ShiftZ   float64 `db:"ShiftZ"`
}

// LoadHotPixelsFromDB returns the hot pixels valid for runNumber as a
// collection with one generic sparse pixel record per sensor.
func LoadHotPixelsFromDB(db *sqlx.DB, runNumber int, collectionName string) (*Collection, error) {
	query := "SELECT SensorID, X, Y FROM HotPixels WHERE MinRun <= ? and MaxRun >= ? ORDER BY SensorID, X, Y"
	if configuration.Verbosity > 0 {
		logger.Info("Reading hot pixels from database", "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s, run %d", query, runNumber)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return nil, errMessage
	}
	defer rows.Close()

	pixelsPerSensor := make(map[int][]Pixel)
	sensors := make([]int, 0)
	for rows.Next() {
		result := HotPixelEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, errMessage
		}
		if result.X < math.MinInt16 || result.X > math.MaxInt16 || result.Y < math.MinInt16 || result.Y > math.MaxInt16 {
			return nil, fmt.Errorf("hot pixel %d,%d of sensor %d out of the pixel coordinate range", result.X, result.Y, result.SensorID)
		}
		if _, ok := pixelsPerSensor[result.SensorID]; !ok {
			sensors = append(sensors, result.SensorID)
		}
		pixel := GenericPixel{BasePixel: BasePixel{X: int16(result.X), Y: int16(result.Y), Signal: 1}}
		pixelsPerSensor[result.SensorID] = append(pixelsPerSensor[result.SensorID], pixel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}

	collection := NewCollection(collectionName, ZSDataDefaultEncoding)
	encoder := MustCellIDDecoder(ZSDataDefaultEncoding)
	for _, sensorID := range sensors {
		id, err := encoder.Encode(map[string]int64{
			"sensorID":        int64(sensorID),
			"sparsePixelType": int64(GenericSparsePixel),
		})
		if err != nil {
			return nil, fmt.Errorf("error encoding hot pixels of sensor %d: %w", sensorID, err)
		}
		cellID0, cellID1 := SplitCellID(id)
		collection.Append(&TrackerData{
			CellID0:      cellID0,
			CellID1:      cellID1,
			ChargeValues: EncodePixels(pixelsPerSensor[sensorID]),
		})
	}
	return collection, nil
}

func LoadAlignmentFromDB(db *sqlx.DB, runNumber int) (map[int]AlignmentConstant, error) {
	query := "SELECT SensorID, Alpha, Beta, Gamma, ShiftX, ShiftY, ShiftZ FROM Alignment WHERE MinRun <= ? and MaxRun >= ? ORDER BY SensorID"
	if configuration.Verbosity > 0 {
		logger.Info("Alignment constants read from DB", "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s, run %d", query, runNumber)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return nil, errMessage
	}
	defer rows.Close()

	alignment := make(map[int]AlignmentConstant)
	for rows.Next() {
		result := AlignmentEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, errMessage
		}
		alignment[result.SensorID] = AlignmentConstant{
			SensorID: result.SensorID,
			Shift:    r3.Vec{X: result.ShiftX, Y: result.ShiftY, Z: result.ShiftZ},
			Alpha:    result.Alpha,
			Beta:     result.Beta,
			Gamma:    result.Gamma,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	return alignment, nil
}
