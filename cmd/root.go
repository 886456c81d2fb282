package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/google/gousb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/cobra"

	"github.com/bugVanisher/qtstream/media/qtproto"
	"github.com/bugVanisher/qtstream/media/usbdevice"
	"github.com/bugVanisher/qtstream/sink"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "qtstream",
	Short: "Mirror an attached iOS device's screen over the USB QuickTime Stream protocol.",
	Long:  ``,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(logLevel, logJSON)
	},
	Version:          "v1.0.0",
	TraverseChildren: true, // parses flags on all parents before executing child command
	SilenceUsage:     true, // silence usage when an error occurs
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return runMirror()
	},
}

var (
	logLevel string
	logJSON  bool
	serial   string
	outPath  string
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() int {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "INFO", "set log level")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "set log to json format (default colorized console)")
	rootCmd.Flags().StringVarP(&serial, "serial", "s", "", "iOS device serial (UDID) prefix to match; dashes are stripped automatically (default: empty, matching the first enumerated USB device with a readable serial; the device is not checked to be an iOS device)")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "record.h264", "Annex-B H.264 file to write the mirrored video stream to")

	err := rootCmd.Execute()
	if err != nil {
		return 1
	}
	return 0
}

// runMirror opens the matching USB device, brings the QuickTime vendor
// interface up, and drains decoded samples into an Annex-B recording until
// SIGINT or a transport error ends the session.
func runMirror() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	dev, err := usbdevice.Open(usbCtx, strings.ReplaceAll(serial, "-", ""))
	if err != nil {
		return err
	}
	defer dev.Close()

	session, samples := qtproto.NewSession(dev)
	if err := session.Init(); err != nil {
		return err
	}

	file, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := sink.New(file)

	runErr := make(chan error, 1)
	go func() {
		runErr <- session.Run(ctx)
	}()

	for result := range samples {
		if result.Err != nil {
			log.Warn().Err(result.Err).Msg("qtstream: session ended")
			break
		}
		if err := writer.WriteSample(result.Sample); err != nil {
			log.Error().Err(err).Msg("qtstream: write sample failed")
		}
	}

	return <-runErr
}

func initLogger(logLevel string, logJSON bool) {
	// Error Logging with Stacktrace
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	// set log timestamp precise to milliseconds
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.999Z0700"

	// init log writer
	var writer io.Writer
	if !logJSON {
		// log a human-friendly, colorized output
		noColor := false
		if runtime.GOOS == "windows" {
			noColor = true
		}

		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
			NoColor:    noColor,
		}
		log.Info().Msg("log with colorized console")
	} else {
		// default logger
		log.Info().Msg("log with json output")
		writer = os.Stderr
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()

	// Setting Global Log Level
	level := strings.ToUpper(logLevel)
	log.Info().Str("log_level", level).Msg("set global log level")
	switch level {
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "INFO":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "FATAL":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "PANIC":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	}
}
