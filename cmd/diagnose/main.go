package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agrotech/diagnosis/internal/analysis/raster"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/internal/pipeline"
	"agrotech/diagnosis/internal/sources"
	"agrotech/diagnosis/internal/store"
	"agrotech/diagnosis/pkg/config"
	"agrotech/diagnosis/pkg/errorutil"
	"agrotech/diagnosis/pkg/logger"
)

var (
	flagConfig string
	flagParcel string
	flagWindow string
	flagOut    string
)

func main() {
	root := &cobra.Command{
		Use:           "diagnose",
		Short:         "Run an agronomic diagnosis for one parcel",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	root.Flags().StringVarP(&flagConfig, "config", "c", "./config/diagnose.yaml", "configuration file")
	root.Flags().StringVarP(&flagParcel, "parcel", "p", "", "parcel id (required)")
	root.Flags().StringVarP(&flagWindow, "window", "w", "", "analysis window YYYY-MM:YYYY-MM (required)")
	root.Flags().StringVarP(&flagOut, "out", "o", "", "output directory (default out/<parcel>/<window>)")
	root.MarkFlagRequired("parcel")
	root.MarkFlagRequired("window")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "diagnose:", err)
		os.Exit(errorutil.ExitCode(err))
	}
}

func run(cmd *cobra.Command, args []string) error {
	window, err := model.ParseWindow(flagWindow)
	if err != nil {
		return errorutil.Newf(errorutil.KindConfiguration, "invalid window: %v", err)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return errorutil.Newf(errorutil.KindConfiguration, "load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		return errorutil.Newf(errorutil.KindConfiguration, "create logger: %v", err)
	}
	defer log.Sync()

	catalog, cleanup, err := buildCatalog(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	outDir := flagOut
	if outDir == "" {
		outDir = fmt.Sprintf("out/%s/%s_%s", flagParcel, window.From, window.To)
	}

	p := pipeline.New(
		log,
		cfg,
		raster.NewGeoTIFFReader(),
		&sources.FileAcquisitionSource{Dir: cfg.Data.AcquisitionDir, Timeout: cfg.Data.LoadTimeout},
		&sources.FileClimateSource{Dir: cfg.Data.ClimateDir, Timeout: cfg.Data.LoadTimeout},
		catalog,
	)

	ctx := context.WithValue(context.Background(), "parcel_id", flagParcel)
	bundle, err := p.Run(ctx, flagParcel, window, outDir)
	if err != nil {
		if recErr := pipeline.WriteErrorRecord(outDir, flagParcel, window, err); recErr != nil {
			log.Warnf(ctx, "error record not written: %v", recErr)
		}
		return err
	}

	fmt.Printf("diagnosis complete: %s\n", outDir)
	fmt.Printf("  fingerprint: %s\n", bundle.Fingerprint)
	fmt.Printf("  headline:    %s\n", bundle.KPIs.Headline)
	return nil
}

// buildCatalog MySQL when configured, otherwise the GeoJSON file
func buildCatalog(cfg *config.Config) (sources.ParcelCatalog, func(), error) {
	if cfg.MySQL.DSN != "" {
		dao, err := store.NewDAO(cfg.MySQL.DSN)
		if err != nil {
			return nil, nil, errorutil.Newf(errorutil.KindConfiguration, "open mysql: %v", err)
		}
		return dao, func() { dao.Close() }, nil
	}
	if cfg.Data.ParcelFile == "" {
		return nil, nil, errorutil.New(errorutil.KindConfiguration,
			"either mysql.dsn or data.parcel_file must be configured")
	}
	return &sources.FileParcelCatalog{Path: cfg.Data.ParcelFile}, func() {}, nil
}
