package driven

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	port "github.com/alorle/iptv-player/internal/port/driven"
)

const (
	cdpReadLimit = 16 << 20
	bridgeName   = "__iptvPlayerEvent__"
)

// bridgeScript reports player state changes from every page back through the
// CDP binding.
const bridgeScript = `(function () {
  if (window.__iptvPlayerBridge__) { return; }
  window.__iptvPlayerBridge__ = true;
  function emit(type, value) {
    if (typeof window.` + bridgeName + ` === 'function') {
      window.` + bridgeName + `(JSON.stringify({ type: type, value: value }));
    }
  }
  document.addEventListener('fullscreenchange', function () {
    emit('fullscreen', !!document.fullscreenElement);
  });
  document.addEventListener('waiting', function () { emit('waiting', true); }, true);
  document.addEventListener('playing', function () { emit('waiting', false); }, true);
  document.addEventListener('loadedmetadata', function (e) {
    var v = e.target;
    if (v && v.videoWidth && v.videoHeight) {
      emit('ratio', v.videoWidth / v.videoHeight < 1.5 ? '4:3' : '16:9');
    }
  }, true);
})();`

// CDPSurface drives a single browser page over the Chrome DevTools Protocol.
// It implements the driven.Surface port and delivers page events to a
// SurfaceListener one at a time.
type CDPSurface struct {
	url    string
	logger *slog.Logger

	conn      *websocket.Conn
	cancel    context.CancelFunc
	done      chan struct{}
	connected atomic.Bool
	closed    atomic.Bool

	msgID     atomic.Int64
	pendingMu sync.Mutex
	pending   map[int64]chan cdpMessage

	queueMu sync.Mutex
	queue   []cdpMessage
	signal  chan struct{}

	// Main-frame navigation, only touched by the dispatch goroutine.
	nav port.Navigation
}

type cdpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type cdpMessage struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *cdpError       `json:"error,omitempty"`
}

// NewCDPSurface creates a surface for the page websocket debugger URL
// (ws://host:port/devtools/page/<id>). Call Connect before issuing commands.
func NewCDPSurface(url string, logger *slog.Logger) *CDPSurface {
	if logger == nil {
		logger = slog.Default()
	}
	return &CDPSurface{
		url:     url,
		logger:  logger,
		done:    make(chan struct{}),
		pending: make(map[int64]chan cdpMessage),
		signal:  make(chan struct{}, 1),
	}
}

// Connect dials the page, installs the event bridge and starts delivering
// events to listener. It returns once the page is ready for commands.
func (s *CDPSurface) Connect(ctx context.Context, listener port.SurfaceListener) error {
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("cdp dial: %w", err)
	}
	conn.SetReadLimit(cdpReadLimit)

	runCtx, cancel := context.WithCancel(context.Background())
	s.conn = conn
	s.cancel = cancel
	s.connected.Store(true)

	go s.readLoop(runCtx)
	go s.dispatchLoop(listener)

	setup := []struct {
		method string
		params any
	}{
		{"Page.enable", nil},
		{"Runtime.enable", nil},
		{"Runtime.addBinding", map[string]any{"name": bridgeName}},
		{"Page.addScriptToEvaluateOnNewDocument", map[string]any{"source": bridgeScript}},
		{"Runtime.evaluate", map[string]any{"expression": bridgeScript}},
	}
	for _, step := range setup {
		if _, err := s.call(ctx, step.method, step.params); err != nil {
			_ = s.Close()
			return err
		}
	}

	s.logger.Info("connected to rendering surface", "url", s.url)
	return nil
}

// Done is closed once the connection is gone.
func (s *CDPSurface) Done() <-chan struct{} {
	return s.done
}

// Connected reports whether the surface accepts commands.
func (s *CDPSurface) Connected() bool {
	return s.connected.Load() && !s.closed.Load()
}

// Close tears down the connection. Pending commands fail with ErrSurfaceClosed.
func (s *CDPSurface) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	close(s.done)
	if s.conn != nil {
		return s.conn.Close(websocket.StatusNormalClosure, "")
	}
	return nil
}

// LoadURL navigates the page to url.
func (s *CDPSurface) LoadURL(ctx context.Context, url string) error {
	result, err := s.call(ctx, "Page.navigate", map[string]any{"url": url})
	if err != nil || len(result) == 0 {
		return err
	}
	var nav struct {
		ErrorText string `json:"errorText"`
	}
	if err := json.Unmarshal(result, &nav); err == nil && nav.ErrorText != "" {
		return fmt.Errorf("navigate %s: %s", url, nav.ErrorText)
	}
	return nil
}

// EvaluateScript runs script in the page.
func (s *CDPSurface) EvaluateScript(ctx context.Context, script string) error {
	_, err := s.evaluate(ctx, script, false)
	return err
}

// RequestElementFullscreen asks the first element matching selector to enter
// fullscreen, with a simulated user gesture.
func (s *CDPSurface) RequestElementFullscreen(ctx context.Context, selector string) error {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(function () {
  var el = document.querySelector(%s);
  if (!el) { return false; }
  var fn = el.requestFullscreen || el.webkitRequestFullscreen;
  if (fn) { fn.call(el); }
  return true;
})()`, quoted)

	value, err := s.evaluate(ctx, script, true)
	if err != nil {
		return err
	}
	var found bool
	if err := json.Unmarshal(value, &found); err != nil || !found {
		return fmt.Errorf("%w: %s", port.ErrElementNotFound, selector)
	}
	return nil
}

// DispatchKey sends a key-down followed by a key-up.
func (s *CDPSurface) DispatchKey(ctx context.Context, key port.KeyEvent) error {
	for _, typ := range []string{"keyDown", "keyUp"} {
		params := map[string]any{
			"type":                  typ,
			"key":                   key.Key,
			"code":                  key.Code,
			"windowsVirtualKeyCode": key.KeyCode,
			"nativeVirtualKeyCode":  key.KeyCode,
		}
		if _, err := s.call(ctx, "Input.dispatchKeyEvent", params); err != nil {
			return err
		}
	}
	return nil
}

// SetVideoRatio forces every video element on the page to ratio.
func (s *CDPSurface) SetVideoRatio(ctx context.Context, ratio port.VideoRatio) error {
	aspect := "16 / 9"
	if ratio == port.Ratio4x3 {
		aspect = "4 / 3"
	}
	script := fmt.Sprintf(`document.querySelectorAll('video').forEach(function (v) {
  v.style.aspectRatio = '%s';
  v.style.objectFit = 'fill';
});`, aspect)
	return s.EvaluateScript(ctx, script)
}

func (s *CDPSurface) evaluate(ctx context.Context, expression string, gesture bool) (json.RawMessage, error) {
	params := map[string]any{
		"expression":    expression,
		"returnByValue": true,
	}
	if gesture {
		params["userGesture"] = true
	}
	result, err := s.call(ctx, "Runtime.evaluate", params)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	var eval struct {
		Result struct {
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(result, &eval); err != nil {
		return nil, fmt.Errorf("decoding evaluate result: %w", err)
	}
	if eval.ExceptionDetails != nil {
		return nil, fmt.Errorf("script exception: %s", eval.ExceptionDetails.Text)
	}
	return eval.Result.Value, nil
}

// call sends a command and waits for its response.
func (s *CDPSurface) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !s.Connected() {
		return nil, port.ErrSurfaceClosed
	}

	id := s.msgID.Add(1)
	ch := make(chan cdpMessage, 1)
	s.pendingMu.Lock()
	s.pending[id] = ch
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
	}()

	msg := map[string]any{"id": id, "method": method}
	if params != nil {
		msg["params"] = params
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		if s.closed.Load() {
			return nil, port.ErrSurfaceClosed
		}
		return nil, fmt.Errorf("cdp %s: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, fmt.Errorf("cdp %s: %s", method, resp.Error.Message)
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, port.ErrSurfaceClosed
	}
}

func (s *CDPSurface) readLoop(ctx context.Context) {
	defer s.Close()

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			if !s.closed.Load() {
				s.logger.Error("rendering surface connection lost", "error", err)
			}
			return
		}

		var msg cdpMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		if msg.ID != 0 {
			s.pendingMu.Lock()
			ch, ok := s.pending[msg.ID]
			s.pendingMu.Unlock()
			if ok {
				ch <- msg
			}
			continue
		}

		if msg.Method != "" {
			s.queueMu.Lock()
			s.queue = append(s.queue, msg)
			s.queueMu.Unlock()
			select {
			case s.signal <- struct{}{}:
			default:
			}
		}
	}
}

func (s *CDPSurface) dispatchLoop(listener port.SurfaceListener) {
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}

		s.queueMu.Lock()
		events := s.queue
		s.queue = nil
		s.queueMu.Unlock()

		for _, ev := range events {
			s.handleEvent(listener, ev)
		}
	}
}

func (s *CDPSurface) handleEvent(listener port.SurfaceListener, ev cdpMessage) {
	switch ev.Method {
	case "Page.frameNavigated":
		var p struct {
			Frame struct {
				ParentID string `json:"parentId"`
				LoaderID string `json:"loaderId"`
				URL      string `json:"url"`
			} `json:"frame"`
		}
		if err := json.Unmarshal(ev.Params, &p); err != nil || p.Frame.ParentID != "" {
			return
		}
		s.nav = port.Navigation{ID: p.Frame.LoaderID, URL: p.Frame.URL}

	case "Page.loadEventFired":
		if s.nav.ID == "" {
			s.nav.ID = uuid.NewString()
		}
		listener.OnPageFinished(s.nav)

	case "Runtime.bindingCalled":
		var p struct {
			Name    string `json:"name"`
			Payload string `json:"payload"`
		}
		if err := json.Unmarshal(ev.Params, &p); err != nil || p.Name != bridgeName {
			return
		}
		if err := deliverBridgeEvent(listener, p.Payload); err != nil {
			s.logger.Debug("ignoring malformed bridge event", "payload", p.Payload, "error", err)
		}
	}
}

func deliverBridgeEvent(listener port.SurfaceListener, payload string) error {
	var ev struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return err
	}

	switch ev.Type {
	case "fullscreen", "waiting":
		var on bool
		if err := json.Unmarshal(ev.Value, &on); err != nil {
			return err
		}
		if ev.Type == "fullscreen" {
			listener.OnFullscreenStateChanged(on)
		} else {
			listener.OnWaitingStateChanged(on)
		}
	case "ratio":
		var r string
		if err := json.Unmarshal(ev.Value, &r); err != nil {
			return err
		}
		switch r {
		case port.Ratio4x3.String():
			listener.OnVideoRatioChanged(port.Ratio4x3)
		case port.Ratio16x9.String():
			listener.OnVideoRatioChanged(port.Ratio16x9)
		default:
			return fmt.Errorf("unknown ratio %q", r)
		}
	default:
		return errors.New("unknown event type")
	}
	return nil
}
