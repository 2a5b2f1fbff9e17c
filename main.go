// ABOUTME: Entry point for the local imuse player
// ABOUTME: Parses CLI flags, starts sounds on the engine and plays until interrupted
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/imuse-go/internal/version"
	"github.com/Resonate-Protocol/imuse-go/pkg/audio/output"
	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
	"github.com/Resonate-Protocol/imuse-go/pkg/savegame"
	"github.com/Resonate-Protocol/imuse-go/pkg/sound"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
)

var (
	bankDir    = flag.String("bank", "sounds", "Sound bank directory")
	sounds     = flag.String("sound", "", "Sounds to start, comma separated")
	group      = flag.Int("group", imuse.GroupMusic, "Volume group for started sounds (1 voice, 2 sfx, 3 music)")
	hook       = flag.Int("hook", 0, "Initial hook ID for started sounds")
	volume     = flag.Int("volume", imuse.MaxLevel, "Track volume 0-127")
	fps        = flag.Int("fps", imuse.DefaultCallbackFPS, "Engine callback rate")
	sampleRate = flag.Int("sample-rate", output.DefaultSampleRate, "Output device sample rate")
	restore    = flag.String("restore", "", "Restore engine state from this save file before starting")
	save       = flag.String("save", "", "Save engine state to this file on exit")
	duration   = flag.Duration("duration", 0, "Stop after this long (0: until Ctrl-C)")
	nullAudio  = flag.Bool("null-audio", false, "Mix without an audio device")
	logFile    = flag.String("log-file", "imuse-player.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	// Set up logging (both file and console)
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	log.SetOutput(io.MultiWriter(os.Stdout, f))

	log.Printf("Starting %s %s", version.Product, version.Version)
	if *debug {
		log.Printf("Debug logging enabled")
	}

	if err := run(); err != nil {
		log.Printf("Player error: %v", err)
		os.Exit(1)
	}
	log.Printf("Player stopped")
}

func run() error {
	bank, err := sound.New(sound.Config{Dir: *bankDir, Debug: *debug})
	if err != nil {
		return err
	}

	out, err := output.Open(output.Config{SampleRate: *sampleRate}, *nullAudio)
	if err != nil {
		return fmt.Errorf("open audio output: %w", err)
	}
	defer out.Close()

	engine := imuse.New(imuse.Config{CallbackFPS: *fps, Debug: *debug}, bank, out)
	defer engine.Close()

	if *restore != "" {
		if err := restoreState(engine, *restore); err != nil {
			return err
		}
	}

	for _, name := range strings.Split(*sounds, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := engine.StartSound(name, *group, *hook, *volume, imuse.CenterPan, 0); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, *duration)
		defer stop()
	}

	go statusLoop(ctx, engine)

	log.Printf("Playing; press Ctrl-C to stop")
	engine.Run(ctx)

	if *save != "" {
		return saveState(engine, *save)
	}
	return nil
}

// statusLoop logs the busy tracks every few seconds
func statusLoop(ctx context.Context, engine *imuse.Engine) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tracks := engine.Tracks()
			if len(tracks) == 0 {
				log.Printf("No tracks playing")
				continue
			}
			for _, t := range tracks {
				log.Printf("Track %d: %s region %d hook %d vol %d at %s",
					t.ID, t.SoundName, t.CurRegion, t.CurHookID, t.VolumeLevel(), formatPosition(t.PosIn60HzTicks()))
			}
		}
	}
}

// shortUnits abbreviates durafmt's unit names
var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:y,wk:wk,d:d,h:h,m:m,s:s,ms:ms,us:us")

// formatPosition renders a 60 Hz tick count as a short duration
func formatPosition(ticks int) string {
	if ticks <= 0 {
		return "0 s"
	}
	d := time.Duration(ticks) * time.Second / 60
	return durafmt.Parse(d).LimitFirstN(2).Format(shortUnits)
}

func saveState(engine *imuse.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create save file: %w", err)
	}
	if err := engine.SaveState(savegame.NewWriter(f)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close save file: %w", err)
	}
	log.Printf("Saved engine state to %s", path)
	return nil
}

func restoreState(engine *imuse.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read save file: %w", err)
	}
	if err := engine.Restore(data); err != nil {
		return err
	}
	log.Printf("Restored engine state from %s (%s, %d tracks)", path, humanize.Bytes(uint64(len(data))), len(engine.Tracks()))
	return nil
}
