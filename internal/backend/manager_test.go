package backend

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dkazakov/browser-relay/internal/event"
)

// fakeClient is a scripted transport substituted for the WebSocket client.
type fakeClient struct {
	connectErr error

	mu        sync.Mutex
	connected bool

	messages chan []byte
	errs     chan error
	done     chan struct{}
	doneOnce sync.Once
}

func newFakeClient(connectErr error) *fakeClient {
	return &fakeClient{
		connectErr: connectErr,
		messages:   make(chan []byte, 100),
		errs:       make(chan error, 10),
		done:       make(chan struct{}),
	}
}

func (f *fakeClient) Connect(ctx context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
	f.doneOnce.Do(func() { close(f.done) })
	return nil
}

func (f *fakeClient) Send(data []byte) error { return nil }

func (f *fakeClient) Messages() <-chan []byte { return f.messages }
func (f *fakeClient) Errors() <-chan error    { return f.errs }
func (f *fakeClient) Done() <-chan struct{}   { return f.done }

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// pushFrame simulates an inbound frame from the backend.
func (f *fakeClient) pushFrame(data string) {
	f.messages <- []byte(data)
}

// pushError simulates a transport error without closing the connection.
func (f *fakeClient) pushError(err error) {
	f.errs <- err
}

// terminate simulates the backend dropping the connection.
func (f *fakeClient) terminate() {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
	f.doneOnce.Do(func() { close(f.done) })
}

// fakeDialer scripts connection attempts and records them.
type fakeDialer struct {
	mu       sync.Mutex
	failing  bool
	clients  []*fakeClient
	dialedAt []time.Time
}

func (d *fakeDialer) dial(cfg ClientConfig, logger *slog.Logger) Client {
	d.mu.Lock()
	defer d.mu.Unlock()

	var connectErr error
	if d.failing {
		connectErr = errors.New("connection refused")
	}
	cl := newFakeClient(connectErr)
	d.clients = append(d.clients, cl)
	d.dialedAt = append(d.dialedAt, time.Now())
	return cl
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}

func (d *fakeDialer) client(i int) *fakeClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clients[i]
}

func (d *fakeDialer) setFailing(v bool) {
	d.mu.Lock()
	d.failing = v
	d.mu.Unlock()
}

func testManagerConfig() ManagerConfig {
	cfg := DefaultManagerConfig()
	cfg.WSURL = "ws://backend.test/ws"
	cfg.ReconnectBaseDelay = 10 * time.Millisecond
	cfg.BufferSize = 100
	return cfg
}

// waitEvent reads one event or fails the test.
func waitEvent(t *testing.T, ch <-chan event.Inbound) event.Inbound {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return event.Inbound{}
	}
}

func stopManager(t *testing.T, m Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Stop(ctx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestManager_ConnectEmitsConnectedStatus(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager(testManagerConfig(), nil, WithDialFunc(dialer.dial))

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer stopManager(t, m)

	ev := waitEvent(t, m.Events())
	if ev.Type != event.TypeConnectionStatus || ev.Status != event.StatusConnected {
		t.Errorf("event = %+v, want connected status", ev)
	}
	if m.State() != StateConnected {
		t.Errorf("State = %q, want connected", m.State())
	}
}

func TestManager_FrameDelivery(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager(testManagerConfig(), nil, WithDialFunc(dialer.dial))

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer stopManager(t, m)

	waitEvent(t, m.Events()) // connected status

	cl := dialer.client(0)
	cl.pushFrame(`{"type":"task_update","task_id":"t1","status":"running"}`)
	cl.pushFrame(`{"type":"task_update","task_id":"t1","status":"completed"}`)

	first := waitEvent(t, m.Events())
	second := waitEvent(t, m.Events())

	if first.Status != event.StatusRunning || second.Status != event.StatusCompleted {
		t.Errorf("events out of order: %+v then %+v", first, second)
	}
}

func TestManager_MalformedFrameDropped(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager(testManagerConfig(), nil, WithDialFunc(dialer.dial))

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer stopManager(t, m)

	waitEvent(t, m.Events()) // connected status

	cl := dialer.client(0)
	cl.pushFrame(`{not json at all`)
	cl.pushFrame(`{"no_type_field":true}`)
	cl.pushFrame(`{"type":"ping"}`)

	// Only the valid frame comes through.
	ev := waitEvent(t, m.Events())
	if ev.Type != event.TypePing {
		t.Errorf("event = %+v, malformed frames must be dropped", ev)
	}

	stats := m.Stats()
	if stats.FramesDropped != 2 {
		t.Errorf("FramesDropped = %d, want 2", stats.FramesDropped)
	}
	if stats.FramesReceived != 3 {
		t.Errorf("FramesReceived = %d, want 3", stats.FramesReceived)
	}
}

func TestManager_TransportErrorDoesNotReconnect(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager(testManagerConfig(), nil, WithDialFunc(dialer.dial))

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer stopManager(t, m)

	waitEvent(t, m.Events()) // connected status

	dialer.client(0).pushError(errors.New("tls: bad record"))

	ev := waitEvent(t, m.Events())
	if ev.Type != event.TypeError {
		t.Fatalf("event = %+v, want error event", ev)
	}
	if ev.Message == "" {
		t.Error("error event must describe the failure")
	}

	// The error alone must not tear down or redial the connection.
	time.Sleep(100 * time.Millisecond)
	if got := dialer.dialCount(); got != 1 {
		t.Errorf("dial count = %d, want 1 (no reconnect on transport error)", got)
	}
	if m.State() != StateConnected {
		t.Errorf("State = %q, want connected", m.State())
	}
}

func TestManager_CloseTriggersReconnect(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager(testManagerConfig(), nil, WithDialFunc(dialer.dial))

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer stopManager(t, m)

	waitEvent(t, m.Events()) // connected status

	dialer.client(0).terminate()

	ev := waitEvent(t, m.Events())
	if ev.Type != event.TypeConnectionStatus || ev.Status != event.StatusDisconnected {
		t.Fatalf("event = %+v, want disconnected status", ev)
	}

	// Reconnect succeeds and the counter resets.
	ev = waitEvent(t, m.Events())
	if ev.Status != event.StatusConnected {
		t.Fatalf("event = %+v, want connected status after reconnect", ev)
	}
	if got := dialer.dialCount(); got != 2 {
		t.Errorf("dial count = %d, want 2", got)
	}
	if got := m.Stats().ReconnectAttempts; got != 0 {
		t.Errorf("ReconnectAttempts = %d, want 0 after successful reconnect", got)
	}
}

func TestManager_LinearBackoffCeiling(t *testing.T) {
	dialer := &fakeDialer{failing: true}
	m := NewManager(testManagerConfig(), nil, WithDialFunc(dialer.dial))

	if err := m.Connect(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
	defer stopManager(t, m)

	// Manual attempt plus 5 automatic retries at 1x,2x,3x,4x,5x base delay
	// (150ms total here), then nothing.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if dialer.dialCount() == 6 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := dialer.dialCount(); got != 6 {
		t.Fatalf("dial count = %d, want 6 (1 manual + 5 automatic)", got)
	}

	// Ceiling reached: no further automatic dials.
	time.Sleep(200 * time.Millisecond)
	if got := dialer.dialCount(); got != 6 {
		t.Errorf("dial count = %d after ceiling, automatic retries must stop", got)
	}
	if got := m.Stats().ReconnectAttempts; got != 5 {
		t.Errorf("ReconnectAttempts = %d, want 5", got)
	}

	// Gaps between retries grow linearly; just check they never shrink
	// below the base delay and are non-decreasing within tolerance.
	dialer.mu.Lock()
	times := append([]time.Time(nil), dialer.dialedAt...)
	dialer.mu.Unlock()
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		want := time.Duration(i) * 10 * time.Millisecond
		if gap < want {
			t.Errorf("retry %d gap = %v, want >= %v", i, gap, want)
		}
	}

	// Manual Connect re-arms the manager.
	dialer.setFailing(false)
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("manual Connect failed: %v", err)
	}
	if got := dialer.dialCount(); got != 7 {
		t.Errorf("dial count = %d, want 7 after manual connect", got)
	}
	if m.State() != StateConnected {
		t.Errorf("State = %q, want connected", m.State())
	}
}

func TestManager_ConnectSupersedesLiveConnection(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager(testManagerConfig(), nil, WithDialFunc(dialer.dial))

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer stopManager(t, m)

	waitEvent(t, m.Events())

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("second Connect failed: %v", err)
	}

	first := dialer.client(0)
	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Error("first connection not closed by superseding Connect")
	}

	if got := dialer.dialCount(); got != 2 {
		t.Errorf("dial count = %d, want 2", got)
	}
	if m.State() != StateConnected {
		t.Errorf("State = %q, want connected", m.State())
	}
}

func TestManager_StopClosesEvents(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager(testManagerConfig(), nil, WithDialFunc(dialer.dial))

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitEvent(t, m.Events())

	stopManager(t, m)

	// Channel drains then closes; no disconnected event is emitted for a
	// deliberate stop.
	for {
		ev, ok := <-m.Events()
		if !ok {
			break
		}
		if ev.Type == event.TypeConnectionStatus && ev.Status == event.StatusDisconnected {
			t.Errorf("unexpected disconnected event on Stop: %+v", ev)
		}
	}

	if err := m.Connect(context.Background()); err != ErrStopped {
		t.Errorf("Connect after Stop = %v, want ErrStopped", err)
	}
}
