package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MrPusitCH/drone-ingest-tools/internal/imaging"
	"github.com/MrPusitCH/drone-ingest-tools/internal/ingest"
)

const (
	welcomeTimeout  = 2 * time.Second
	metadataTimeout = 1 * time.Second
	responseTimeout = 100 * time.Millisecond
	statusEvery     = 10
)

// Run streams the images in the configured directory to the ingest endpoint
// as raw binary messages, one per tick.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	files, err := imaging.ScanDir(config.FramesDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found in %s", config.FramesDir)
	}

	endpoint := ingest.BuildIngestEndpoint(config.Endpoint, ingest.EndpointFromEnv(),
		config.Host, config.Port, config.DeviceID, config.CameraID)

	logger.Info("starting binary frame sender",
		slog.Group("run",
			slog.String("endpoint", endpoint),
			slog.String("deviceID", config.DeviceID),
			slog.String("cameraID", config.CameraID),
			slog.String("framesDir", config.FramesDir),
			slog.Int("images", len(files)),
			slog.Float64("intervalS", config.IntervalS),
			slog.Int("updates", config.Updates),
			slog.Bool("loop", config.Loop),
		))

	client, err := ingest.Dial(ctx, endpoint)
	if err != nil {
		return err
	}
	defer client.Close()

	if welcome, err := client.AwaitWelcome(welcomeTimeout); err == nil {
		if welcome.Type == "connected" {
			logger.Info("connected", slog.String("message", welcome.Message))
		} else {
			logger.Info("received", slog.String("payload", welcome.Raw))
		}
	} else {
		logger.Warn("no welcome message received, continuing")
	}

	if config.SendMetadataJSON {
		metadata := ingest.NewMetadata(config.DeviceID, config.CameraID, time.Now())
		if err := client.SendJSON(metadata); err != nil {
			return fmt.Errorf("sending metadata: %w", err)
		}
		logger.Info("metadata sent",
			slog.String("deviceID", metadata.DeviceID),
			slog.String("cameraID", metadata.CameraID))

		if ack, err := client.ReadResponse(metadataTimeout); err == nil && ack.Type == "ack" {
			logger.Info("metadata acknowledged")
		}
	}

	sent := sendLoop(ctx, config, client, files, logger)
	logger.Info("sender stopped", slog.Int("framesSent", sent))
	return nil
}

func sendLoop(ctx context.Context, config *Config, client *ingest.Client, files []string, logger *slog.Logger) int {
	ticker := time.NewTicker(time.Duration(config.IntervalS * float64(time.Second)))
	defer ticker.Stop()

	sent := 0
	index := 0
	remaining := config.Updates // 0 means all images once

	for remaining == 0 || sent < remaining {
		if index >= len(files) {
			if !config.Loop {
				logger.Info("sent all images", slog.Int("images", len(files)))
				break
			}
			index = 0
			logger.Info("looping back to first image")
		}

		file := files[index]
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("skipping unreadable image",
				slog.String("file", filepath.Base(file)),
				slog.String("error", err.Error()))
			index++
			continue
		}

		if err := client.SendBinary(data); err != nil {
			if ingest.IsClosed(err) {
				logger.Warn("connection closed by server", slog.String("error", err.Error()))
			} else {
				logger.Warn("send failed, stopping", slog.String("error", err.Error()))
			}
			return sent
		}
		sent++
		index++

		if sent == 1 || sent%statusEvery == 0 {
			logger.Info("frame sent",
				slog.Int("frame", sent),
				slog.String("file", filepath.Base(file)),
				slog.String("size", humanize.Bytes(uint64(len(data)))))
		}

		logResponse(config, client, logger)

		if remaining != 0 && sent >= remaining {
			break
		}

		select {
		case <-ctx.Done():
			logger.Info("stopped by user")
			return sent
		case <-ticker.C:
		}
	}
	return sent
}

func logResponse(config *Config, client *ingest.Client, logger *slog.Logger) {
	resp, err := client.ReadResponse(responseTimeout)
	if err != nil {
		return
	}
	switch resp.Type {
	case "ack":
		if config.Verbose {
			logger.Info("ack",
				slog.String("message", resp.Message),
				slog.String("frameID", resp.FrameID))
		}
	case "error":
		logger.Warn("server error", slog.String("error", resp.Error))
	}
}
