package main

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ytget/yt-mashup/internal/model"
	"github.com/ytget/yt-mashup/internal/pipeline"
)

const (
	AppName      = "yt-mashup"
	usageMessage = "Usage: yt-mashup <SingerName> <NumberOfVideos> <AudioDuration> <OutputFileName>"
	invalidInput = "Invalid input. Please provide valid numeric values for NumberOfVideos and AudioDuration."
)

// maxLeadingSeconds is the longest AudioDuration a time.Duration can hold
const maxLeadingSeconds = math.MaxInt64 / int64(time.Second)

var (
	errUsage        = errors.New(usageMessage)
	errInvalidInput = errors.New(invalidInput)
)

// rootOptions holds the flags that override configuration values.
type rootOptions struct {
	configPath  string
	workDir     string
	playlist    string
	seed        uint64
	retries     int
	maxDuration int
	logLevel    string
	logFormat   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           AppName + " <SingerName> <NumberOfVideos> <AudioDuration> <OutputFileName>",
		Short:         "Build an audio mashup from a performer's videos",
		Long:          "Downloads random videos of a performer, cuts the first seconds of each and joins them into one WAV file.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 4 {
				return model.NewStageError(model.KindUsage, "cli", 0, errUsage)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseArgs(args)
			if err != nil {
				return err
			}
			return runMashup(cmd, opts, req)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	flags.StringVar(&opts.workDir, "workdir", "", "Workspace directory for downloads, audio and the output file")
	flags.StringVar(&opts.playlist, "playlist", "", "Pick videos from this playlist ID or URL instead of searching")
	flags.Uint64Var(&opts.seed, "seed", 0, "Seed for the random video selection")
	flags.IntVar(&opts.retries, "retries", 0, "Additional download attempts per video")
	flags.IntVar(&opts.maxDuration, "max-duration", 0, "Skip videos longer than this many seconds (0 disables)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (auto, console, json)")

	rootCmd.AddCommand(newConfigCommand(opts))

	return rootCmd
}

// parseArgs converts the positional arguments into a run request.
func parseArgs(args []string) (pipeline.Request, error) {
	if len(args) != 4 {
		return pipeline.Request{}, model.NewStageError(model.KindUsage, "cli", 0, errUsage)
	}
	count, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return pipeline.Request{}, errInvalidInput
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(args[2]))
	if err != nil || int64(seconds) > maxLeadingSeconds {
		return pipeline.Request{}, errInvalidInput
	}

	req := pipeline.Request{
		Performer: strings.TrimSpace(args[0]),
		Count:     count,
		Leading:   time.Duration(seconds) * time.Second,
		Output:    strings.TrimSpace(args[3]),
	}
	if err := req.Validate(); err != nil {
		return pipeline.Request{}, err
	}
	return req, nil
}
