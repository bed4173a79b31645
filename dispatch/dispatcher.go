package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"recap/log"
	"recap/notify"
	"recap/uploader"
)

const fallbackDelay = 3 * time.Second

// NewMeetingID builds a client-side correlation id from two random base36
// fragments. Not cryptographically unique, but the backend echoes or reassigns
// the id anyway; this only has to be good enough for fallback correlation.
func NewMeetingID() string {
	return strconv.FormatUint(rand.Uint64(), 36) + strconv.FormatUint(rand.Uint64(), 36)
}

type processRequest struct {
	MeetingID string `json:"meeting_id"`
	AudioURL  string `json:"audio_url"`
	PushToken string `json:"push_token"`
	UserID    string `json:"user_id"`
	Duration  int    `json:"duration"`
}

type processResponse struct {
	MeetingID string `json:"meeting_id"`
}

type Config struct {
	BaseURL    string
	Pipeline   *uploader.Pipeline
	Scheduler  notify.Scheduler
	HTTPClient *http.Client // nil means http.DefaultClient
}

// Dispatcher runs the write path: upload, then one backend submission. It is
// the single owner of the processing state; nothing else mutates it. Write
// failures are never auto-retried — the user restarts the capture.
type Dispatcher struct {
	baseURL  string
	pipeline *uploader.Pipeline
	sched    notify.Scheduler
	client   *http.Client
	newID    func() string

	mu    sync.Mutex
	state State
}

func New(cfg Config) *Dispatcher {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Dispatcher{
		baseURL:  cfg.BaseURL,
		pipeline: cfg.Pipeline,
		sched:    cfg.Scheduler,
		client:   client,
		newID:    NewMeetingID,
	}
}

func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Reset returns the state machine to Idle. Called when the user acknowledges
// a terminal Success or Error; this is the only way out of those phases.
func (d *Dispatcher) Reset() {
	d.set(PhaseIdle, "")
}

func (d *Dispatcher) set(p Phase, msg string) {
	d.mu.Lock()
	d.state = State{Phase: p, Message: msg}
	d.mu.Unlock()
}

// Process is the full write path for one finished recording: upload the
// artifact, then submit the processing job. Upload failure is terminal and
// skips submission.
func (d *Dispatcher) Process(ctx context.Context, filePath, userID string, durationSeconds float64, pushToken string) error {
	d.set(PhaseUploading, "")

	uploaded, err := d.pipeline.Upload(ctx, filePath, userID)
	if err != nil {
		d.set(PhaseError, "Upload Failed: "+err.Error())
		return err
	}

	return d.Submit(ctx, uploaded.PublicURL, userID, durationSeconds, pushToken)
}

// Submit posts the processing job for an already-uploaded recording and
// settles the state machine at Success or Error.
func (d *Dispatcher) Submit(ctx context.Context, audioURL, userID string, durationSeconds float64, pushToken string) error {
	d.set(PhaseUploading, "")

	if err := d.submit(ctx, audioURL, userID, durationSeconds, pushToken); err != nil {
		d.set(PhaseError, userMessage(err))
		return err
	}

	d.set(PhaseSuccess, "Processing started in background.")
	return nil
}

func (d *Dispatcher) submit(ctx context.Context, audioURL, userID string, durationSeconds float64, pushToken string) error {
	meetingID := d.newID()

	token := pushToken
	if token == "" {
		token = noTokenSentinel
	}
	body, err := json.Marshal(processRequest{
		MeetingID: meetingID,
		AudioURL:  audioURL,
		PushToken: token,
		UserID:    userID,
		Duration:  int(math.Round(durationSeconds)),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/process-meeting", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errText, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend error: %d - %s", resp.StatusCode, errText)
	}

	var parsed processResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decoding backend response: %w", err)
	}
	// The backend may reassign the meeting id; its answer wins for the
	// fallback correlation key.
	if parsed.MeetingID != "" {
		meetingID = parsed.MeetingID
	}
	log.ProcessingSubmitted(meetingID, resp.StatusCode, time.Since(start).Milliseconds())

	if !HasRealPushToken(pushToken) {
		d.scheduleFallback(meetingID)
	}
	return nil
}

// scheduleFallback substitutes a local notification for the push the backend
// cannot deliver. Scheduling failures are logged, not surfaced: the job is
// already submitted and must still report Success.
func (d *Dispatcher) scheduleFallback(meetingID string) {
	if d.sched == nil {
		return
	}
	_, err := d.sched.Schedule(notify.Content{
		Title: "Meeting Ready",
		Body:  "Your summary is ready! Tap to view the transcript.",
		Data:  map[string]string{"meeting_id": meetingID},
	}, notify.Trigger{After: fallbackDelay})
	if err != nil {
		log.Warnf("fallback notification failed: %v", err)
		return
	}
	log.FallbackScheduled(meetingID)
}

// userMessage normalizes transport failures into connection advice; anything
// else passes through.
func userMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return "Network error: Please check your internet connection."
	}
	return err.Error()
}
