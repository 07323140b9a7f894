package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"

	"github.com/pixelgrove/photobooth/pkg/internal/cache"
	"github.com/pixelgrove/photobooth/pkg/internal/server"
	"github.com/pixelgrove/photobooth/pkg/internal/services"

	pkg "github.com/pixelgrove/photobooth/pkg/internal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Set up cache
	if err := cache.NewStore(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when setting up cache.")
	}

	// Connect to the gallery store
	if err := services.SetupStore(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connecting to the gallery store.")
	}

	// Set up some workers
	for idx := 0; idx < viper.GetInt("workers.files_deletion"); idx++ {
		go services.StartConsumeDeletionTask()
	}

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	quartz.AddFunc("@every 60m", services.RunRetentionSweepTask)
	quartz.Start()

	// Server
	server.NewServer()
	go server.Listen()

	// Messages
	color.New(color.FgHiCyan, color.Bold).Printf("Photobooth v%s\n", pkg.AppVersion)
	log.Info().Msgf("Photobooth v%s is started...", pkg.AppVersion)

	services.WarmSessionIndex()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msgf("Photobooth v%s is quitting...", pkg.AppVersion)

	quartz.Stop()
}
