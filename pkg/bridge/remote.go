package bridge

import (
	"encoding/json"
	"sync"

	"github.com/vango-dev/navhist/pkg/location"
	"github.com/vango-dev/navhist/pkg/protocol"
)

// frameSender delivers an encoded frame to the client. Session implements
// it over the WebSocket connection; tests can substitute a capture func.
type frameSender interface {
	sendFrame(f *protocol.Frame) error
}

// RemotePlatform implements location.Platform over the bridge protocol:
// programmatic history calls become frames sent to the browser, and
// PopState frames received from the browser surface as pop-state events.
//
// The platform mirrors the URL it last instructed the client to adopt so
// URL() answers without a round trip. State crosses the wire as JSON.
type RemotePlatform struct {
	mu     sync.Mutex
	sender frameSender
	url    string
	state  any
	closed bool

	pops popHandlers
}

// NewRemotePlatform creates a platform that speaks frames through sender.
func NewRemotePlatform(sender frameSender) *RemotePlatform {
	return &RemotePlatform{sender: sender}
}

// URL returns the last URL the platform was moved to, or "" before any
// navigation has been observed or sent.
func (p *RemotePlatform) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// PushState sends a NavPush frame and records url as current.
func (p *RemotePlatform) PushState(state any, url string) {
	p.navState(protocol.FrameNavPush, state, url)
}

// ReplaceState sends a NavReplace frame and records url as current.
func (p *RemotePlatform) ReplaceState(state any, url string) {
	p.navState(protocol.FrameNavReplace, state, url)
}

func (p *RemotePlatform) navState(ft protocol.FrameType, state any, url string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.url = url
	p.state = state
	sender := p.sender
	p.mu.Unlock()

	var blob []byte
	if state != nil {
		if b, err := json.Marshal(state); err == nil {
			blob = b
		}
	}
	_ = sender.sendFrame(&protocol.Frame{Type: ft, URL: url, State: blob})
}

// Back asks the client to move one entry backward.
func (p *RemotePlatform) Back() { p.Go(-1) }

// Forward asks the client to move one entry forward.
func (p *RemotePlatform) Forward() { p.Go(1) }

// Go sends a NavGo frame. The resulting move, if any, comes back as a
// PopState frame; out-of-range deltas produce nothing.
func (p *RemotePlatform) Go(delta int) {
	if delta == 0 {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	sender := p.sender
	p.mu.Unlock()

	_ = sender.sendFrame(protocol.NewNavGo(delta))
}

// OnPopState registers a pop-state handler.
func (p *RemotePlatform) OnPopState(fn func(location.PopStateEvent)) (remove func()) {
	return p.pops.add(fn)
}

// HandlePopState feeds a PopState frame received from the client into the
// platform: the mirrored URL is updated and handlers are notified. The
// state blob decodes to generic JSON values; a nil blob stays nil.
func (p *RemotePlatform) HandlePopState(f *protocol.Frame) error {
	var state any
	if len(f.State) > 0 {
		if err := json.Unmarshal(f.State, &state); err != nil {
			return err
		}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrSessionClosed
	}
	p.url = f.URL
	p.state = state
	p.mu.Unlock()

	p.pops.emit(location.PopStateEvent{
		URL:      f.URL,
		State:    state,
		Position: f.Position,
	})
	return nil
}

// Close drops all handlers and makes further calls no-ops.
func (p *RemotePlatform) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.pops.close()
	return nil
}

// popHandlers is a small pop-state handler registry with copy-on-emit
// semantics, mirroring the in-memory platform's behavior.
type popHandlers struct {
	mu     sync.Mutex
	next   int
	fns    map[int]func(location.PopStateEvent)
	order  []int
	closed bool
}

func (h *popHandlers) add(fn func(location.PopStateEvent)) (remove func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || fn == nil {
		return func() {}
	}
	if h.fns == nil {
		h.fns = make(map[int]func(location.PopStateEvent))
	}
	id := h.next
	h.next++
	h.fns[id] = fn
	h.order = append(h.order, id)
	return func() { h.remove(id) }
}

func (h *popHandlers) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.fns, id)
}

func (h *popHandlers) emit(ev location.PopStateEvent) {
	h.mu.Lock()
	fns := make([]func(location.PopStateEvent), 0, len(h.fns))
	for _, id := range h.order {
		if fn, ok := h.fns[id]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (h *popHandlers) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = nil
	h.order = nil
	h.closed = true
}
