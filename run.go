package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/ytget/yt-mashup/internal/audio"
	"github.com/ytget/yt-mashup/internal/config"
	"github.com/ytget/yt-mashup/internal/discovery"
	"github.com/ytget/yt-mashup/internal/download"
	"github.com/ytget/yt-mashup/internal/logging"
	"github.com/ytget/yt-mashup/internal/model"
	"github.com/ytget/yt-mashup/internal/pipeline"
	"github.com/ytget/yt-mashup/internal/platform"
	"github.com/ytget/yt-mashup/internal/transcode"
)

// seedStream separates the two PCG words derived from --seed
const seedStream = 0x9e3779b97f4a7c15

func runMashup(cmd *cobra.Command, opts *rootOptions, req pipeline.Request) error {
	ctx := cmd.Context()

	cfg, cfgPath, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := opts.apply(cmd, cfg); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	req.RunID = pipeline.NewRunID()
	logger = logger.With(slog.String(logging.FieldRunID, req.RunID))
	if cfgPath != "" {
		logger.Debug("configuration loaded", slog.String(logging.FieldPath, cfgPath))
	}

	ws, err := platform.NewWorkspace(cfg.Paths.WorkDir, cfg.Paths.DownloadsDir, cfg.Paths.AudioDir)
	if err != nil {
		return err
	}

	fetcher := download.NewYTDLPFetcher(cfg.Download.Format, cfg.Download.YTDLPBinary, cfg.MaxDuration(), cfg.DownloadTimeout())
	if cfg.Download.AutoInstall {
		if err := fetcher.Install(ctx); err != nil {
			return err
		}
	}
	if err := preflight(cfg); err != nil {
		return err
	}

	stages, err := buildStages(cfg, opts, cmd, ws, fetcher, logger)
	if err != nil {
		return err
	}

	report, err := pipeline.NewRunner(ws, stages, logger).Run(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderSummary(report))
	fmt.Fprintf(out, "Mashup completed successfully! Output saved as %s\n", report.Output.Path)
	return nil
}

// apply copies explicitly set flags over the loaded configuration.
func (o *rootOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("workdir") {
		cfg.Paths.WorkDir = o.workDir
	}
	if flags.Changed("playlist") {
		cfg.Discovery.Playlist = o.playlist
	}
	if flags.Changed("retries") {
		cfg.SetRetryLimit(o.retries)
	}
	if flags.Changed("max-duration") {
		cfg.SetMaxDuration(o.maxDuration)
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = o.logFormat
	}
	return cfg.Validate()
}

func preflight(cfg *config.Config) error {
	statuses := platform.CheckBinaries([]platform.Requirement{
		{Name: "yt-dlp", Command: cfg.Download.YTDLPBinary, Description: "media downloads", Optional: cfg.Download.AutoInstall},
		{Name: "ffmpeg", Command: cfg.Audio.FFmpegBinary, Description: "audio conversion"},
		{Name: "ffprobe", Command: cfg.Audio.FFprobeBinary, Description: "duration checks"},
	})
	return platform.MissingRequired(statuses)
}

func buildStages(cfg *config.Config, opts *rootOptions, cmd *cobra.Command, ws *platform.Workspace, fetcher download.Fetcher, logger *slog.Logger) (pipeline.Stages, error) {
	source, err := newSource(cfg)
	if err != nil {
		return pipeline.Stages{}, err
	}

	var rng *rand.Rand
	if cmd.Flags().Changed("seed") {
		rng = rand.New(rand.NewPCG(opts.seed, opts.seed^seedStream))
	}

	transcoder := transcode.NewService(transcode.ExecRunner{}, ws, transcode.Options{
		FFmpegBinary:  cfg.Audio.FFmpegBinary,
		FFprobeBinary: cfg.Audio.FFprobeBinary,
		SampleRate:    cfg.Audio.SampleRate,
		Channels:      cfg.Audio.Channels,
		Timeout:       cfg.TranscodeTimeout(),
	}, logger)

	var prober download.Prober
	if cfg.MaxDuration() > 0 {
		prober = transcoder
	}
	acquirer := download.NewService(fetcher, prober, ws, download.Options{
		RetryLimit:  cfg.Download.RetryLimit,
		Backoff:     cfg.RetryBackoff(),
		MinInterval: cfg.DownloadInterval(),
		MaxDuration: cfg.MaxDuration(),
	}, logger)
	acquirer.SetUpdateCallback(func(task *model.DownloadTask) {
		logger.Debug("task update",
			slog.String("task", task.ID),
			slog.String(logging.FieldURL, task.URL),
			slog.String("status", task.Status.String()),
			slog.Int(logging.FieldAttempt, task.Attempts),
		)
	})

	return pipeline.Stages{
		Discovery:  discovery.NewService(source, cfg.Discovery.QuerySuffix, rng, logger),
		Acquirer:   acquirer,
		Transcoder: transcoder,
		Editor:     audio.NewService(ws, logger),
	}, nil
}

func newSource(cfg *config.Config) (discovery.Source, error) {
	if cfg.Discovery.Playlist != "" {
		src, err := platform.NewPlaylistSource(cfg.Discovery.Playlist)
		if err != nil {
			return nil, err
		}
		src.SetTimeout(cfg.SearchTimeout())
		return src, nil
	}
	return discovery.NewSearchPageSource(cfg.Discovery.SearchURL, discovery.WithTimeout(cfg.SearchTimeout()))
}
