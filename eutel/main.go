package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	eutelescope "github.com/MengqingWu/eutelescope/pkg"
	"github.com/MengqingWu/eutelescope/pkg/store"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

var configuration eutelescope.Configuration

var (
	logger         Logger
	configFilename string
	excludedPlanes []int
	nPlanes        int
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
	eutelescope.SetLogger(logger)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "eutel",
		Short:         "Hot pixel filtering and alignment geometry for EUTelescope data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	filterCmd := &cobra.Command{
		Use:     "filter",
		Short:   "Remove hits on excluded planes or containing hot pixels",
		PreRunE: loadConfiguration,
		RunE:    runFilter,
	}
	filterCmd.Flags().StringVar(&configFilename, "config", "", "Configuration file path")
	filterCmd.MarkFlagRequired("config")

	noisyCmd := &cobra.Command{
		Use:     "noisy",
		Short:   "Print the number of noisy pixels per plane of the first event",
		PreRunE: loadConfiguration,
		RunE:    runNoisy,
	}
	noisyCmd.Flags().StringVar(&configFilename, "config", "", "Configuration file path")
	noisyCmd.MarkFlagRequired("config")

	alignCmd := &cobra.Command{
		Use:   "align",
		Short: "Convert between rotation angles and rotation matrices",
	}
	alignCmd.AddCommand(&cobra.Command{
		Use:   "angles alpha beta gamma",
		Short: "Print the rotation matrix of the angles",
		Args:  cobra.ExactArgs(3),
		RunE:  runAlignAngles,
	})
	alignCmd.AddCommand(&cobra.Command{
		Use:   "matrix r00 r01 r02 r10 r11 r12 r20 r21 r22",
		Short: "Print the rotation angles of the row-major matrix",
		Args:  cobra.ExactArgs(9),
		RunE:  runAlignMatrix,
	})

	planesCmd := &cobra.Command{
		Use:   "planes",
		Short: "Print the index of every plane once the excluded ones are removed",
		Args:  cobra.NoArgs,
		RunE:  runPlanes,
	}
	planesCmd.Flags().IntSliceVar(&excludedPlanes, "exclude", nil, "Excluded planes")
	planesCmd.Flags().IntVar(&nPlanes, "n", 0, "Number of planes")

	rootCmd.AddCommand(filterCmd, noisyCmd, alignCmd, planesCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func loadConfiguration(cmd *cobra.Command, args []string) error {
	var err error
	configuration, err = LoadConfiguration(configFilename)
	if err != nil {
		return fmt.Errorf("Error reading configuration file: %w", err)
	}
	eutelescope.SetConfiguration(configuration)

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}
	return nil
}

func loadConditions() (eutelescope.Conditions, error) {
	if configuration.NoDB {
		return eutelescope.Conditions{}, nil
	}
	dbConn, err := eutelescope.ConnectToDatabase(configuration)
	if err != nil {
		return eutelescope.Conditions{}, fmt.Errorf("Error connection to database: %w", err)
	}
	defer dbConn.Close()
	return eutelescope.LoadConditions(dbConn, configuration.RunNumber)
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", eutelescope.MetricsHandler())
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			message := fmt.Errorf("metrics server: %w", err)
			logger.Error(message.Error())
		}
	}()
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Serving metrics on %s/metrics", addr), "main")
	}
	return server
}

func runFilter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if configuration.MetricsAddr != "" {
		server := serveMetrics(configuration.MetricsAddr)
		defer server.Shutdown(context.Background())
	}

	conditions, err := loadConditions()
	if err != nil {
		return err
	}

	reader, err := store.Open(configuration.FileIn)
	if err != nil {
		return err
	}
	defer reader.Close()

	evtsToRead := numberOfEventsToProcess(reader.NumEvents(), configuration.Skip, configuration.MaxEvents)
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Number of events: %d, to process: %d", reader.NumEvents(), evtsToRead)
		logger.Info(message, "main")
	}

	var sink eventSink
	if configuration.FileOut != "" {
		options, err := store.OptionsFromConfiguration(configuration)
		if err != nil {
			return err
		}
		writer, err := store.NewWriter(configuration.FileOut, options)
		if err != nil {
			return err
		}
		defer writer.Close()
		sink = writer
	}

	filter := newEventFilter(configuration, conditions)
	totals, err := runWorkers(ctx, NewEventReader(reader), filter, sink, configuration.NumWorkers)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Total events processed: %d (%d failed), hits: %d in, %d kept, %d on excluded planes",
		totals.Events, totals.FailedEvents, totals.HitsIn, totals.HitsKept, totals.HitsExcludedPlane)
	logger.Info(message, "main")
	return nil
}

func runNoisy(cmd *cobra.Command, args []string) error {
	reader, err := store.Open(configuration.FileIn)
	if err != nil {
		return err
	}
	defer reader.Close()

	event, err := NewEventReader(reader).getNextEvent()
	if err != nil {
		return fmt.Errorf("error reading first event: %w", err)
	}
	printNoisyPixels(cmd, eutelescope.ReadNoisyPixelList(event, configuration.NoisyPixelCollection))
	return nil
}

func printNoisyPixels(cmd *cobra.Command, noisyPixels map[int][]int) {
	planes := make([]int, 0, len(noisyPixels))
	for plane := range noisyPixels {
		planes = append(planes, plane)
	}
	slices.Sort(planes)
	for _, plane := range planes {
		fmt.Fprintf(cmd.OutOrStdout(), "plane %d: %d noisy pixels\n", plane, len(noisyPixels[plane]))
	}
}

func parseFloats(args []string) ([]float64, error) {
	values := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

func runAlignAngles(cmd *cobra.Command, args []string) error {
	angles, err := parseFloats(args)
	if err != nil {
		return err
	}
	rotation := eutelescope.SetPrecision(eutelescope.RotationMatrixFromAngles(angles[0], angles[1], angles[2]), 1e-15)
	fmt.Fprintf(cmd.OutOrStdout(), "%.9g\n", mat.Formatted(rotation))
	return nil
}

func runAlignMatrix(cmd *cobra.Command, args []string) error {
	values, err := parseFloats(args)
	if err != nil {
		return err
	}
	alpha, beta, gamma := eutelescope.RotationAnglesFromMatrix(mat.NewDense(3, 3, values))
	fmt.Fprintf(cmd.OutOrStdout(), "alpha=%.9g beta=%.9g gamma=%.9g\n", alpha, beta, gamma)
	return nil
}

func runPlanes(cmd *cobra.Command, args []string) error {
	if nPlanes < 0 {
		return fmt.Errorf("number of planes must not be negative, got %d", nPlanes)
	}
	indices := eutelescope.NotExcludedPlanesIndices(excludedPlanes, nPlanes)
	fmt.Fprintln(cmd.OutOrStdout(), indices)
	return nil
}
