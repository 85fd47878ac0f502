// Package main is the nanosynth command line client. It runs submissions
// in-process against the simulated backend and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nanosynth/nanosynth/internal/config"
	"github.com/nanosynth/nanosynth/internal/job"
	"github.com/nanosynth/nanosynth/pkg/models"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	fileFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Usage:    "path of the file to analyze",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "media-type",
			Usage: "media type of the file; guessed from the extension when empty",
		},
	}

	analyze := func(kind models.JobKind) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			file, err := readUpload(cmd.String("file"), cmd.String("media-type"))
			if err != nil {
				return err
			}
			return submit(ctx, cmd, stdout, stderr, models.NewFileRequest(kind, file))
		}
	}

	return &cli.Command{
		Name:  "nanosynth",
		Usage: "simulated microfluidic design generation and analysis",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "environment file path",
				Value: ".env",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "seed for reproducible results (overrides JOB_SEED)",
			},
			&cli.BoolFlag{
				Name:  "no-delay",
				Usage: "skip the simulated latency",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "write the result to this file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format: json or table",
				Value: "json",
				Validator: func(v string) error {
					if v != "json" && v != "table" {
						return fmt.Errorf("unknown format %q: use json or table", v)
					}
					return nil
				},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "design",
				Usage: "generate the design files for a microfluidic device",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "method",
						Usage:    "manufacturing method: printing, laser or cnc",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "kinetics",
						Usage: "reaction kinetics description",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					req := models.NewDesignRequest(cmd.String("method"), cmd.String("kinetics"))
					return submit(ctx, cmd, stdout, stderr, req)
				},
			},
			{
				Name:  "analyze",
				Usage: "analyze an experiment file",
				Commands: []*cli.Command{
					{
						Name:   "image",
						Usage:  "analyze a microscopy image (JPG, PNG or TIFF)",
						Flags:  fileFlags,
						Action: analyze(models.KindImageAnalysis),
					},
					{
						Name:   "statistical",
						Usage:  "analyze a CSV data set",
						Flags:  fileFlags,
						Action: analyze(models.KindStatisticalAnalysis),
					},
					{
						Name:   "piv",
						Usage:  "analyze a CSV file of PIV velocity matrices",
						Flags:  fileFlags,
						Action: analyze(models.KindPIVAnalysis),
					},
				},
			},
		},
	}
}

func readUpload(path, mediaType string) (models.FileUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.FileUpload{}, fmt.Errorf("read file: %w", err)
	}
	name := filepath.Base(path)
	return models.FileUpload{
		Name:      name,
		MediaType: job.DetectMediaType(name, mediaType),
		SizeBytes: int64(len(data)),
		Data:      data,
	}, nil
}

func submit(ctx context.Context, cmd *cli.Command, stdout, stderr io.Writer, req models.JobRequest) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))

	seed := cfg.Jobs.Seed
	if cmd.IsSet("seed") {
		seed = cmd.Uint64("seed")
	}

	opts := []job.Option{
		job.WithProfiles(cfg.Jobs.Profiles),
		job.WithRandomness(job.NewRandomness(seed)),
		job.WithLogger(logger),
	}
	if cmd.Bool("no-delay") {
		opts = append(opts, job.WithSleeper(job.NoDelay))
	}

	result, err := job.NewRunner(opts...).Submit(ctx, req)
	if err != nil {
		return err
	}

	if cmd.String("format") == "table" && cmd.String("out") == "" {
		renderTable(stdout, result)
		return nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	data = append(data, '\n')

	if out := cmd.String("out"); out != "" {
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		return nil
	}
	_, err = stdout.Write(data)
	return err
}
