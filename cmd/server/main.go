package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/audio"
	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/config"
	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/convai"
	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/device"
	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/httpserver"
	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/session"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()
	format := audio.Format{SampleRate: cfg.SampleRate, BytesPerSample: 2}

	ctrl := session.NewController(session.Options{
		AgentID: cfg.ElevenLabsAgentID,
		APIKey:  cfg.ElevenLabsAPIKey,
		Dial: func(ctx context.Context) (session.Channel, error) {
			dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return convai.Dial(dialCtx, convai.Config{
				AgentID:   cfg.ElevenLabsAgentID,
				APIKey:    cfg.ElevenLabsAPIKey,
				BaseWSURL: cfg.ConvAIWSURL,
			})
		},
		NewCapture: func() (device.Capture, error) {
			return device.NewMic(format), nil
		},
		NewPlayback: func() (device.Playback, error) {
			return device.NewSpeaker(format)
		},
		Format:         format,
		IdleThreshold:  cfg.IdleThreshold,
		BargeThreshold: cfg.BargeThreshold,
	})

	srv := httpserver.New(ctrl)

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("control server listening on %s", cfg.HTTPAddress)
		serverErrors <- srv.Router.Start(cfg.HTTPAddress)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	// Release the microphone, speaker, and agent channel before exiting.
	ctrl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Router.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = srv.Router.Close()
	}
}
