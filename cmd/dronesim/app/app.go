package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrPusitCH/drone-ingest-tools/internal/ingest"
	"github.com/MrPusitCH/drone-ingest-tools/internal/sim"
	"github.com/MrPusitCH/drone-ingest-tools/internal/storage"
)

const (
	welcomeTimeout  = 2 * time.Second
	responseTimeout = 100 * time.Millisecond
	statusEvery     = 10
)

// Run connects to the ingest endpoint and publishes one simulated telemetry
// frame per tick until the configured update count is reached, the server
// drops the connection, or the run is interrupted. All three are normal
// termination paths that end with a frame-count summary.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	endpoint := ingest.ResolveEndpoint(config.Endpoint, ingest.EndpointFromEnv(), config.Host, config.Port, config.Path)

	logger.Info("starting drone telemetry simulator",
		slog.Group("run",
			slog.String("endpoint", endpoint),
			slog.String("camID", config.CamID),
			slog.Int("drones", config.NumDrones),
			slog.Float64("intervalS", config.IntervalS),
			slog.Int("updates", config.Updates),
			slog.String("center", fmt.Sprintf("(%0.4f, %0.4f)", config.CenterLat, config.CenterLon)),
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

	var journal *storage.Journal
	if config.RecordPath != "" {
		journal = storage.NewJournal(config.RecordPath)
		defer journal.Close()

		sessionID, err := journal.Begin(ctx, config.CamID, config)
		if err != nil {
			return fmt.Errorf("starting journal session: %w", err)
		}
		logger.Info("recording frames",
			slog.String("path", config.RecordPath),
			slog.Int64("session", sessionID))
	}

	interval := time.Duration(config.IntervalS * float64(time.Second))
	simulator := sim.New(sim.Params{
		CenterLat:         config.CenterLat,
		CenterLon:         config.CenterLon,
		NumDrones:         config.NumDrones,
		RadiusM:           config.RadiusM,
		AltitudeM:         config.AltitudeM,
		WobbleM:           config.WobbleM,
		SpeedMinKt:        config.SpeedMinKt,
		SpeedMaxKt:        config.SpeedMaxKt,
		NoiseLevelM:       config.NoiseLevelM,
		MissRate:          config.MissRate,
		FalsePositiveRate: config.FalsePositiveRate,
		CamID:             config.CamID,
		TokenID:           config.Token,
		Interval:          interval,
	})

	err = sendLoop(ctx, config, client, simulator, journal, logger)

	logger.Info("simulator stopped", slog.Int("framesSent", simulator.FramesSent()))
	return err
}

func sendLoop(ctx context.Context, config *Config, client *ingest.Client, simulator *sim.Simulator, journal *storage.Journal, logger *slog.Logger) error {
	ticker := time.NewTicker(time.Duration(config.IntervalS * float64(time.Second)))
	defer ticker.Stop()

	for n := 0; config.Updates == 0 || n < config.Updates; n++ {
		frame := simulator.NextFrame()
		if err := client.SendJSON(frame); err != nil {
			// The server going away mid-run ends the loop, not the process.
			if ingest.IsClosed(err) {
				logger.Warn("connection closed by server", slog.String("error", err.Error()))
			} else {
				logger.Warn("send failed, stopping", slog.String("error", err.Error()))
			}
			return nil
		}

		if n == 0 || n%statusEvery == 0 {
			logger.Info("frame sent",
				slog.String("frameID", frame.FrameID),
				slog.Int("objects", len(frame.Objects)))
		}

		if journal != nil {
			payload, err := json.Marshal(frame)
			if err != nil {
				return fmt.Errorf("marshaling frame for journal: %w", err)
			}
			if err := journal.RecordFrame(ctx, frame.FrameID, frame.Timestamp, len(frame.Objects), payload); err != nil {
				return err
			}
		}

		if config.ShowResponses {
			logResponse(client, logger)
		}

		select {
		case <-ctx.Done():
			logger.Info("stopped by user")
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func logResponse(client *ingest.Client, logger *slog.Logger) {
	resp, err := client.ReadResponse(responseTimeout)
	if err != nil {
		return // nothing arrived in time, or the connection is gone
	}
	switch resp.Type {
	case "ack":
		logger.Info("ack",
			slog.String("message", resp.Message),
			slog.String("frameID", resp.FrameID))
	case "error":
		logger.Warn("server error", slog.String("error", resp.Error))
	}
}
