package audio

import "sync"

// FakeContext hands out FakeCapture devices for tests. Each Start delivers
// one fixed PCM chunk synchronously, so frame counts are deterministic.
type FakeContext struct {
	PCM []byte
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake0", Name: "fake mic"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.PCM}, nil
}

type FakeCapture struct {
	pcm []byte

	mu     sync.Mutex
	cb     DataCallback
	Starts int
	Stops  int
	Closed bool

	FailStart error
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake mic" }

func (f *FakeCapture) Start() error {
	if f.FailStart != nil {
		return f.FailStart
	}
	f.mu.Lock()
	f.Starts++
	cb := f.cb
	f.mu.Unlock()
	if cb != nil && len(f.pcm) > 0 {
		chunk := make([]byte, len(f.pcm))
		copy(chunk, f.pcm)
		cb(chunk, uint32(len(chunk)/2))
	}
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	f.Stops++
	f.mu.Unlock()
}

func (f *FakeCapture) Close() {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
}
