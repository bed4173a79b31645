// Package recorder owns the recording lifecycle: one Session per
// user-initiated recording attempt, from Start to Stop or Cancel.
package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"recap/audio"
	"recap/encoder"
	"recap/log"
	"recap/mic"
	"recap/notify"
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

var (
	// ErrBusy is returned when a control call arrives while another one is
	// still in flight. Controls are serial by contract; this makes the rule
	// explicit instead of relying on the caller to throttle.
	ErrBusy = errors.New("recorder: another control call is in flight")

	// ErrPermissionDenied is surfaced once as a user-facing warning; the
	// session state does not change.
	ErrPermissionDenied = errors.New("recorder: microphone permission not granted")

	// ErrSessionDone is returned by Start on a finalized session. Idle is
	// terminal: a new Session is required to record again.
	ErrSessionDone = errors.New("recorder: session already finalized")

	// ErrNotRecording is returned by Stop/Cancel when nothing was started.
	ErrNotRecording = errors.New("recorder: no recording in progress")
)

type Config struct {
	Capture audio.CaptureDevice
	Perms   mic.Permissions
	Notice  *notify.RecordingNotice
	OutDir  string
	Format  string // "flac" or "wav"
}

// Session drives one recording attempt. State is an explicit tri-state set
// only by the control methods, never inferred from duration or the capture
// backend.
type Session struct {
	capture audio.CaptureDevice
	perms   mic.Permissions
	notice  *notify.RecordingNotice
	outDir  string
	format  string

	mu    sync.Mutex
	state State
	busy  bool
	done  bool

	enc        encoder.Encoder
	blockCh    chan []int16
	encodeDone chan struct{}
	encodeErr  error

	bufMu       sync.Mutex
	sampleBuf   []int16
	totalFrames uint64
	stopped     bool
}

func NewSession(cfg Config) (*Session, error) {
	if cfg.Capture == nil {
		return nil, errors.New("recorder: capture device is required")
	}
	if cfg.Perms == nil {
		cfg.Perms = mic.System()
	}
	enc, err := encoder.New(cfg.Format)
	if err != nil {
		return nil, err
	}
	return &Session{
		capture: cfg.Capture,
		perms:   cfg.Perms,
		notice:  cfg.Notice,
		outDir:  cfg.OutDir,
		format:  cfg.Format,
		enc:     enc,
	}, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Duration reports seconds of captured audio. Frames accumulate only while
// the state is Recording, so a paused session holds its duration.
func (s *Session) Duration() float64 {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	return float64(s.totalFrames) / float64(encoder.SampleRate)
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Start begins capturing and posts the sticky notification. Calling Start on
// a session that is already recording logs and does nothing.
func (s *Session) Start() error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return ErrSessionDone
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		log.Warn("start ignored: already recording")
		return nil
	}
	s.mu.Unlock()

	if !s.perms.Granted() {
		granted, err := s.perms.Request()
		if err != nil {
			return fmt.Errorf("requesting microphone permission: %w", err)
		}
		if !granted {
			return ErrPermissionDenied
		}
	}

	s.blockCh = make(chan []int16, 64)
	s.encodeDone = make(chan struct{})
	go func() {
		defer close(s.encodeDone)
		for block := range s.blockCh {
			if err := s.enc.EncodeBlock(block); err != nil && s.encodeErr == nil {
				s.encodeErr = err
			}
		}
	}()

	s.capture.SetCallback(s.feed)
	if err := s.capture.Start(); err != nil {
		s.capture.ClearCallback()
		close(s.blockCh)
		<-s.encodeDone
		return fmt.Errorf("starting capture: %w", err)
	}

	s.mu.Lock()
	s.state = StateRecording
	s.mu.Unlock()

	if s.notice != nil {
		s.notice.Show()
	}
	log.RecordingStart(s.capture.DeviceName())
	return nil
}

// feed runs on the capture thread: it accumulates samples and hands complete
// encode blocks to the encoder goroutine.
func (s *Session) feed(data []byte, frameCount uint32) {
	s.bufMu.Lock()
	if s.stopped {
		s.bufMu.Unlock()
		return
	}
	s.totalFrames += uint64(frameCount)
	for i := 0; i+1 < len(data); i += 2 {
		s.sampleBuf = append(s.sampleBuf, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	var blocks [][]int16
	for len(s.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, s.sampleBuf[:encoder.BlockSize])
		s.sampleBuf = s.sampleBuf[encoder.BlockSize:]
		blocks = append(blocks, block)
	}
	s.bufMu.Unlock()

	for _, block := range blocks {
		s.blockCh <- block
	}
}

// Pause is valid only while recording; anywhere else it logs and returns.
// Pause failures are non-fatal to the recording itself.
func (s *Session) Pause() {
	if err := s.begin(); err != nil {
		log.Warnf("pause rejected: %v", err)
		return
	}
	defer s.end()

	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		log.Warnf("pause ignored in state %s", s.state)
		return
	}
	s.mu.Unlock()

	s.capture.Stop()

	s.mu.Lock()
	s.state = StatePaused
	s.mu.Unlock()
	log.Info("recording_paused")
}

// Resume is valid only while paused. If the capture backend fails to
// restart, the session stays paused and the failure is logged.
func (s *Session) Resume() {
	if err := s.begin(); err != nil {
		log.Warnf("resume rejected: %v", err)
		return
	}
	defer s.end()

	s.mu.Lock()
	if s.state != StatePaused {
		s.mu.Unlock()
		log.Warnf("resume ignored in state %s", s.state)
		return
	}
	s.mu.Unlock()

	if err := s.capture.Start(); err != nil {
		log.Errorf("resume failed: %v", err)
		return
	}

	s.mu.Lock()
	s.state = StateRecording
	s.mu.Unlock()
	log.Info("recording_resumed")
}

// Stop finalizes the recording and returns the artifact path. The sticky
// notification is dismissed even when finalization fails midway.
func (s *Session) Stop() (string, error) {
	if err := s.begin(); err != nil {
		return "", err
	}
	defer s.end()

	data, dur, err := s.finalize()
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.outDir, fmt.Sprintf("recording-%d.%s", time.Now().UnixMilli(), encoder.Ext(s.format)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing recording: %w", err)
	}

	log.RecordingStop(dur, path)
	log.RecordingHistory(path, dur)
	return path, nil
}

// Cancel finalizes through the same path as Stop but discards the artifact.
func (s *Session) Cancel() error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	_, _, err := s.finalize()
	if err != nil {
		return err
	}
	log.Info("recording_cancelled")
	return nil
}

func (s *Session) finalize() (data []byte, durationS float64, err error) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return nil, 0, ErrNotRecording
	}
	s.state = StateIdle
	s.done = true
	s.mu.Unlock()

	// Best-effort cleanup: the ticket must go away even if the encoder or
	// filesystem fails below.
	if s.notice != nil {
		defer s.notice.Hide()
	}

	s.capture.Stop()
	s.capture.ClearCallback()

	s.bufMu.Lock()
	s.stopped = true
	if len(s.sampleBuf) > 0 {
		partial := make([]int16, len(s.sampleBuf))
		copy(partial, s.sampleBuf)
		s.sampleBuf = nil
		s.bufMu.Unlock()
		s.blockCh <- partial
	} else {
		s.bufMu.Unlock()
	}

	close(s.blockCh)
	<-s.encodeDone

	if s.encodeErr != nil {
		return nil, 0, fmt.Errorf("encoding recording: %w", s.encodeErr)
	}
	if err := s.enc.Close(); err != nil {
		return nil, 0, fmt.Errorf("finalizing encoder: %w", err)
	}

	return s.enc.Bytes(), s.Duration(), nil
}
