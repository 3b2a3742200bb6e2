package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"skrawl/internal/catalog"
	"skrawl/internal/config"
	"skrawl/internal/run"
	"skrawl/internal/sfx"
	"skrawl/internal/trace"
	"skrawl/internal/tui"
)

func main() {
	if err := play(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func play() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	difficulty := flag.String("difficulty", string(cfg.Difficulty), "easy, normal or hard")
	minigame := flag.String("minigame", "", "minigame id; empty picks at random")
	brush := flag.String("brush", cfg.Brush, "smooth, pixel or rainbow")
	volume := flag.Float64("volume", cfg.Volume, "sound volume in [0,1]; - and + adjust it in game")
	quiet := flag.Bool("quiet", false, "do not open the audio device")
	dev := flag.Bool("dev", cfg.DevMode, "no life loss and no timer")
	skip := flag.Bool("skip-countdown", false, "start tracing immediately")
	extras := flag.Bool("extras", cfg.Extras, "include the extra minigames")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	// The screen owns the terminal, so logs go to a file or nowhere.
	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		log.SetOutput(f)
	}

	d, err := config.ParseDifficulty(*difficulty)
	if err != nil {
		return err
	}
	b, err := trace.ParseBrush(*brush)
	if err != nil {
		return err
	}
	templates, err := catalog.LoadTemplates(cfg.Catalog)
	if err != nil {
		return err
	}
	cat := catalog.New(catalog.Enabled(templates, *extras), nil)
	if *minigame != "" {
		if _, ok := cat.Template(*minigame); !ok {
			return fmt.Errorf("%w: %q", catalog.ErrUnknownMinigame, *minigame)
		}
	}

	var player *sfx.Player
	if !*quiet {
		player = sfx.NewPlayer(*volume)
		if err := player.Init(); err != nil {
			log.Printf("audio initialization failed: %v", err)
		}
		defer player.Close()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := tui.New(screen, cat, run.Settings{
		Difficulty:    d,
		MinigameID:    *minigame,
		Brush:         b,
		DevMode:       *dev,
		SkipCountdown: *skip,
	}, player)
	log.Printf("tui start minigame=%q difficulty=%s brush=%s", *minigame, d, b)
	return app.Serve(ctx)
}
