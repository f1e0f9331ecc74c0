// Miraal assistant - duplex voice and text chat for the House of
// Miraal storefront, served through a local web gateway.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Iggysmallz/houseofmeraal/internal/config"
	"github.com/Iggysmallz/houseofmeraal/internal/log"
	"github.com/Iggysmallz/houseofmeraal/pkg/audioio"
	"github.com/Iggysmallz/houseofmeraal/pkg/session"
	"github.com/Iggysmallz/houseofmeraal/pkg/web"
)

const systemInstruction = `You are the House of Miraal assistant, a warm and
knowledgeable guide for a custom-tailoring storefront. You help customers
explore fabrics, fits, and finishes, explain the made-to-measure process,
and answer questions about alterations, timelines, and care. Keep replies
conversational and concise; suggest a visit or a consultation when a
question needs measurements.`

const initialMessage = "Welcome to House of Miraal! How can I help you " +
	"today - fabrics, fits, or a custom piece?"

func main() {
	config.Load()

	port := flag.String("port", config.Port(), "HTTP listen port")
	backend := flag.String("audio", config.AudioBackend(), "Audio backend: auto, malgo, mock")
	level := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	logOpts := []log.Option{log.WithLevel(*level)}
	if format := config.LogFormat(); format != "" {
		logOpts = append(logOpts, log.WithJSON(format == "json"))
	}
	logger := log.Init(logOpts...)

	cfg := session.DefaultConfig()
	cfg.APIKey = config.APIKey()
	cfg.SystemInstruction = systemInstruction
	cfg.InitialMessage = initialMessage
	if *backend != "" {
		cfg.AudioBackend = audioio.Backend(*backend)
	}

	if cfg.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; live and text paths will fail with a credential error")
	}

	ctrl, err := session.NewController(cfg, logger)
	if err != nil {
		logger.Error("building controller", "error", err)
		os.Exit(1)
	}
	defer ctrl.Close()

	server := web.NewServer(*port, ctrl, logger)
	server.StartAsync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	logger.Info("shutting down")
	ctrl.StopLive()
	if err := server.Shutdown(); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
