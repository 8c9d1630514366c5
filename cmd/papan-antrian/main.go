// papan-antrian menampilkan papan antrian ruang tunggu di terminal. Data diambil dari
// REST API poliklinik setiap POLL_INTERVAL.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/c14220110/poliklinik-antrian/config"
	"github.com/c14220110/poliklinik-antrian/internal/console"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
)

func main() {
	tanggal := flag.String("tanggal", "", "tanggal antrian YYYY-MM-DD (default hari ini)")
	once := flag.Bool("once", false, "tampilkan sekali lalu keluar")
	flag.Parse()

	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel)
	log.SetOutput(os.Stderr)

	api := console.NewHTTPClient(cfg.APIBaseURL, cfg.APIToken)
	board := console.NewQueueBoard(api, *tanggal, log)
	board.OnChange = func(s console.BoardState) {
		if err := console.RenderBoard(os.Stdout, s); err != nil {
			log.WithError(err).Error("Gagal menampilkan papan")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := board.Refresh(ctx); err != nil {
			log.WithError(err).Error("Gagal memuat antrian")
			os.Exit(1)
		}
		return
	}

	log.WithField("api", cfg.APIBaseURL).WithField("interval", cfg.PollInterval.String()).
		Info("Papan antrian berjalan")
	console.NewPoller(cfg.PollInterval, board.Poll).Run(ctx)
}
