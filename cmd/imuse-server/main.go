// ABOUTME: Entry point for the imuse control server
// ABOUTME: Parses CLI flags, builds the engine and serves websocket control
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Resonate-Protocol/imuse-go/internal/server"
	"github.com/Resonate-Protocol/imuse-go/pkg/audio/output"
	"github.com/Resonate-Protocol/imuse-go/pkg/imuse"
	"github.com/Resonate-Protocol/imuse-go/pkg/sound"
)

var (
	port       = flag.Int("port", 8930, "WebSocket server port")
	name       = flag.String("name", "", "Server friendly name (default: hostname-imuse)")
	bankDir    = flag.String("bank", "sounds", "Sound bank directory")
	fps        = flag.Int("fps", imuse.DefaultCallbackFPS, "Engine callback rate")
	sampleRate = flag.Int("sample-rate", output.DefaultSampleRate, "Output device sample rate")
	nullAudio  = flag.Bool("null-audio", false, "Mix without an audio device")
	logFile    = flag.String("log-file", "imuse-server.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	cmdRate    = flag.Float64("rate", 50, "Commands per second allowed from each client (0: unlimited)")
	preload    = flag.String("preload", "", "Comma-separated music sounds to decode at startup")
)

func main() {
	flag.Parse()

	// Set up logging (both file and console)
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(os.Stdout, f))

	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-imuse", hostname)
	}

	log.Printf("Starting imuse server: %s on port %d", serverName, *port)
	if *debug {
		log.Printf("Debug logging enabled")
	}
	log.Printf("Logging to: %s", *logFile)

	bank, err := sound.New(sound.Config{Dir: *bankDir, Debug: *debug})
	if err != nil {
		log.Fatalf("Failed to open sound bank: %v", err)
	}
	if *preload != "" {
		if err := bank.Preload(imuse.GroupMusic, strings.Split(*preload, ",")...); err != nil {
			log.Printf("Preload incomplete: %v", err)
		}
	}

	out, err := output.Open(output.Config{SampleRate: *sampleRate}, *nullAudio)
	if err != nil {
		log.Fatalf("Failed to open audio output: %v", err)
	}
	defer out.Close()

	engine := imuse.New(imuse.Config{CallbackFPS: *fps, Debug: *debug}, bank, out)
	defer engine.Close()

	srv := server.New(server.Config{
		Port:        *port,
		Name:        serverName,
		EnableMDNS:  !*noMDNS,
		Debug:       *debug,
		CommandRate: *cmdRate,
	}, engine)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	log.Printf("Press Ctrl-C to stop")
	if err := srv.Start(); err != nil {
		log.Printf("Server error: %v", err)
		return
	}

	log.Printf("Server stopped")
}
