package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"recap/audio"
	"recap/config"
	"recap/dispatch"
	"recap/encoder"
	"recap/log"
	"recap/meetings"
	"recap/mic"
	"recap/notify"
	"recap/recorder"
	"recap/secretstore"
	"recap/uploader"
)

var version = "dev"

type app struct {
	cfg        *config.Config
	capture    audio.CaptureDevice
	scheduler  notify.Scheduler
	dispatcher *dispatch.Dispatcher
	library    *meetings.Client
	outDir     string
	format     string
	userID     string
	pushToken  string

	sess     *recorder.Session
	sessions int
}

var shutdownOnce sync.Once

func (a *app) gracefulShutdown(code int) {
	shutdownOnce.Do(func() {
		if a.sess != nil && a.sess.State() != recorder.StateIdle {
			a.sess.Cancel()
		}
		if a.sessions > 0 {
			log.SessionEnd(a.sessions)
		}
		log.Close()
		os.Exit(code)
	})
}

func run() {
	configFlag := flag.String("config", "", "Path to config file (default: environment variables only)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	formatFlag := flag.String("format", "", "Recording format: flac or wav (default from config)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("recap %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	format := cfg.Recorder.Format
	if *formatFlag != "" {
		format = *formatFlag
	}
	switch format {
	case "flac", "wav":
	default:
		fmt.Printf("Error: unknown format %q (use flac or wav)\n", format)
		os.Exit(1)
	}

	userID, pushToken, err := loadIdentity(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	scheduler, err := notify.Init()
	if err != nil {
		log.Warnf("notifications unavailable: %v", err)
	}

	audioCtx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer audioCtx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		selectedDevice, err = findDevice(audioCtx, *deviceFlag)
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
			fmt.Println("Falling back to default device")
		}
	} else if *setupFlag {
		selectedDevice, err = selectDevice(audioCtx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	capture, err := audioCtx.NewCapture(selectedDevice, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		fmt.Printf("Error opening capture device: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	store, err := uploader.NewS3Store(uploader.S3Config{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	outDir := cfg.Recorder.OutputDir
	if outDir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			cache = os.TempDir()
		}
		outDir = filepath.Join(cache, "recap", "recordings")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	library := meetings.NewClient(cfg.Backend.BaseURL)
	library.SetAlertFunc(func(title, message string, ack func()) {
		fmt.Printf("%s %s\n", title, message)
		ack()
	})

	a := &app{
		cfg:       cfg,
		capture:   capture,
		scheduler: scheduler,
		dispatcher: dispatch.New(dispatch.Config{
			BaseURL:   cfg.Backend.BaseURL,
			Pipeline:  uploader.NewPipeline(store),
			Scheduler: scheduler,
		}),
		library:   library,
		outDir:    outDir,
		format:    format,
		userID:    userID,
		pushToken: pushToken,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		a.gracefulShutdown(0)
	}()

	log.SessionStart(userID, format)
	fmt.Printf("recap %s — type 'help' for commands\n", version)
	a.commandLoop()
	a.gracefulShutdown(0)
}

// loadIdentity restores the persisted session, minting a local identity on
// first run so recordings group under a stable owner id.
func loadIdentity(cfg *config.Config) (string, string, error) {
	confDir, err := os.UserConfigDir()
	if err != nil {
		confDir = os.TempDir()
	}
	backend, err := secretstore.NewFileBackend(filepath.Join(confDir, "recap", "secrets"))
	if err != nil {
		return "", "", fmt.Errorf("opening secret store: %w", err)
	}
	store := &secretstore.Sharded{Backend: backend}

	sess, err := secretstore.LoadSession(store)
	if err != nil {
		if !errors.Is(err, secretstore.ErrNotFound) {
			return "", "", fmt.Errorf("loading session: %w", err)
		}
		sess = secretstore.Session{UserID: uuid.NewString()}
		if err := secretstore.SaveSession(store, sess); err != nil {
			return "", "", fmt.Errorf("saving session: %w", err)
		}
	}

	pushToken := cfg.Push.Token
	if pushToken == "" {
		pushToken = sess.PushToken
	}
	return sess.UserID, pushToken, nil
}

func (a *app) commandLoop() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}

		switch fields[0] {
		case "start":
			a.cmdStart()
		case "pause":
			if a.sess != nil {
				a.sess.Pause()
			}
		case "resume":
			if a.sess != nil {
				a.sess.Resume()
			}
		case "stop":
			a.cmdStop()
		case "cancel":
			a.cmdCancel()
		case "status":
			a.cmdStatus()
		case "list":
			a.cmdList(strings.Join(fields[1:], " "))
		case "reset":
			a.dispatcher.Reset()
			fmt.Println("Ready.")
		case "quit", "exit":
			return
		case "help":
			fmt.Println("commands: start pause resume stop cancel status list [search] reset quit")
		default:
			fmt.Printf("unknown command %q (try 'help')\n", fields[0])
		}
		fmt.Print("> ")
	}
}

func (a *app) cmdStart() {
	if a.sess != nil && a.sess.State() != recorder.StateIdle {
		fmt.Println("Already recording.")
		return
	}
	sess, err := recorder.NewSession(recorder.Config{
		Capture: a.capture,
		Perms:   mic.System(),
		Notice:  notify.NewRecordingNotice(a.scheduler),
		OutDir:  a.outDir,
		Format:  a.format,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if err := sess.Start(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	a.sess = sess
	a.sessions++
	fmt.Println("Recording...")
}

func (a *app) cmdStop() {
	if a.sess == nil || a.sess.State() == recorder.StateIdle {
		fmt.Println("Nothing to stop.")
		return
	}
	duration := a.sess.Duration()
	path, err := a.sess.Stop()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	// Stop may flush a final partial block; report the settled figure.
	if d := a.sess.Duration(); d > duration {
		duration = d
	}
	fmt.Printf("Recorded %s -> %s\n", meetings.FormatClock(duration), path)

	ctx, cancelCtx := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancelCtx()
	a.dispatcher.Process(ctx, path, a.userID, duration, a.pushToken)

	st := a.dispatcher.State()
	if st.Message != "" {
		fmt.Println(st.Message)
	}
}

func (a *app) cmdCancel() {
	if a.sess == nil || a.sess.State() == recorder.StateIdle {
		fmt.Println("Nothing to cancel.")
		return
	}
	if err := a.sess.Cancel(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Recording discarded.")
}

func (a *app) cmdStatus() {
	state := "idle"
	clock := ""
	if a.sess != nil {
		state = a.sess.State().String()
		if state != "idle" {
			clock = " " + meetings.FormatClock(a.sess.Duration())
		}
	}
	st := a.dispatcher.State()
	fmt.Printf("recorder: %s%s | processing: %s", state, clock, st.Phase)
	if st.Message != "" {
		fmt.Printf(" (%s)", st.Message)
	}
	fmt.Println()
}

func (a *app) cmdList(search string) {
	ctx, cancelCtx := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelCtx()

	res, err := a.library.List(ctx, meetings.Query{Page: 1, Search: search, UserID: a.userID})
	if err != nil {
		return // List already alerted
	}
	sections := meetings.Group(res.Meetings, time.Now())
	if len(sections) == 0 {
		fmt.Println("No meetings yet.")
		return
	}
	for _, section := range sections {
		fmt.Println(section.Title)
		for _, m := range section.Meetings {
			title := m.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("  %-36s %-10s %s\n", title, meetings.FormatDuration(m.Duration), m.Status)
		}
	}
	if res.HasMore {
		fmt.Println("  ...more available")
	}
}

func main() {
	run()
}
