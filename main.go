// ABOUTME: Entry point for the siren audio player
// ABOUTME: Parses CLI flags and drives a playback session to completion
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ericzyf/siren/internal/config"
	"github.com/ericzyf/siren/internal/output"
	"github.com/ericzyf/siren/internal/player"
	"github.com/ericzyf/siren/internal/ui"
	"github.com/ericzyf/siren/internal/version"
)

var (
	configPath  = flag.String("config", "", "Config file path (YAML)")
	verbose     = flag.Bool("v", false, "Enable debug logging")
	sampleRate  = flag.Int("s", 0, "Output sample rate (default: stream's native rate)")
	period      = flag.Int("p", 0, "Hardware period size in frames (default 256)")
	backendName = flag.String("backend", "", "Audio backend: malgo, oto, portaudio (default malgo)")
	device      = flag.Int("device", -1, "Output device index (default: system default)")
	listDevices = flag.Bool("list-devices", false, "List playback devices and exit")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	logFile     = flag.String("log-file", "", "Log file path (default: stderr, or siren.log with TUI)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return 0
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "siren: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	// Flags win over the config file.
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	if *sampleRate != 0 {
		cfg.Playback.SampleRate = *sampleRate
	}
	if *period != 0 {
		cfg.Playback.PeriodFrames = *period
	}
	if *backendName != "" {
		cfg.Playback.Backend = *backendName
	}
	if *device >= 0 {
		cfg.Playback.Device = *device
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "siren: %v\n", err)
		return 1
	}

	useTUI := !*noTUI && !*listDevices

	if !*listDevices && flag.NArg() < 1 {
		return reportMissingPath(flag.NFlag())
	}

	// TUI mode owns the terminal, so logs must go to a file.
	logPath := cfg.Logging.File
	if useTUI && logPath == "" {
		logPath = "siren.log"
	}
	logDst := os.Stderr
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "siren: error opening log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logDst = f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logDst, &slog.HandlerOptions{
		Level: cfg.Logging.SlogLevel(),
	})))

	if *listDevices {
		return listPlaybackDevices(cfg.Playback.Backend)
	}

	path := flag.Arg(0)

	p, err := player.Open(player.Config{
		Path:         path,
		Backend:      cfg.Playback.Backend,
		DeviceIndex:  cfg.Playback.Device,
		SampleRate:   cfg.Playback.SampleRate,
		PeriodFrames: cfg.Playback.PeriodFrames,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "siren: %v\n", err)
		return 1
	}
	defer p.Close()

	if err := p.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "siren: %v\n", err)
		return 1
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if useTUI {
		return runTUI(p, path, cfg.Playback.Backend, sigChan)
	}
	return runPlain(p, path, sigChan)
}

// runPlain blocks until playback finishes, Enter is pressed, or a signal
// arrives.
func runPlain(p *player.Player, path string, sigChan chan os.Signal) int {
	fmt.Printf("Playing %s ... press <Enter> to quit\n", path)

	enter := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(enter)
	}()

	select {
	case <-p.Done():
		if err := p.Err(); err != nil {
			slog.Error("playback aborted", "err", err)
			return 1
		}
	case <-enter:
		slog.Info("quit requested")
	case <-sigChan:
		slog.Info("shutdown signal received")
	}
	return 0
}

// playbackSource is the part of the player the stats loop reads.
type playbackSource interface {
	Stats() player.Stats
	Done() <-chan struct{}
	Err() error
}

// runTUI drives the bubbletea program, forwarding stats twice a second. The
// initial status seeds the model; Program.Send blocks until the event loop
// runs, so nothing is sent before Run.
func runTUI(p *player.Player, path, backendName string, sigChan chan os.Signal) int {
	if backendName == "" {
		backendName = "malgo"
	}
	info := p.Info()
	base := ui.StatusMsg{
		Path:       path,
		Codec:      info.Codec,
		SampleRate: info.SampleRate,
		Channels:   info.Channels,
		Format:     info.Format.String(),
		Backend:    backendName,
		State:      "playing",
	}

	prog, err := ui.Run(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "siren: failed to start TUI: %v\n", err)
		return 1
	}

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		statsUpdateLoop(prog.Send, prog.Quit, p, base, sigChan, quit)
	}()

	_, runErr := prog.Run()
	close(quit)
	<-done
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "siren: TUI error: %v\n", runErr)
		return 1
	}

	if err := p.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "siren: %v\n", err)
		return 1
	}
	return 0
}

// statsUpdateLoop forwards playback statistics to the TUI until playback
// finishes, a signal arrives, or the program quits (user pressed q mid-track).
func statsUpdateLoop(send func(tea.Msg), quitProg func(), src playbackSource, base ui.StatusMsg, sigChan <-chan os.Signal, quit <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			msg := base
			stats := src.Stats()
			msg.FramesPlayed = stats.FramesPlayed
			msg.PacketsRead = stats.PacketsRead
			msg.PacketsSkipped = stats.PacketsSkipped
			msg.QueueDepth = stats.QueueDepth
			send(msg)
		case <-src.Done():
			send(ui.DoneMsg{Err: src.Err()})
			return
		case <-sigChan:
			quitProg()
			return
		case <-quit:
			return
		}
	}
}

func listPlaybackDevices(name string) int {
	backend, err := output.New(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "siren: %v\n", err)
		return 1
	}
	defer backend.Close()

	devices, err := backend.Devices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "siren: %v\n", err)
		return 1
	}
	fmt.Printf("Playback devices (%s):\n", backend.Name())
	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %3d  %s\n", marker, d.Index, d.Name)
	}
	return 0
}

// reportMissingPath handles invocation without an audio path: a bare
// invocation gets the usage text and a clean exit, explicit flags without a
// path are an error.
func reportMissingPath(nflags int) int {
	if nflags > 0 {
		fmt.Fprintln(os.Stderr, "siren: missing path to audio file")
		return 1
	}
	usage()
	return 0
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] <audio file>\n\nOptions:\n", os.Args[0])
	flag.PrintDefaults()
}
