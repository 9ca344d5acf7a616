package wm

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// Registry pairs each managed client with the frame it was reparented into.
// Both directions are kept in step so either window can be looked up.
type Registry struct {
	clients       map[xproto.Window]xproto.Window
	frametoclient map[xproto.Window]xproto.Window
}

func NewRegistry() *Registry {
	return &Registry{
		clients:       map[xproto.Window]xproto.Window{},
		frametoclient: map[xproto.Window]xproto.Window{},
	}
}

func (r *Registry) Register(client, frame xproto.Window) error {
	if _, ok := r.clients[client]; ok {
		return fmt.Errorf("client %d: %w", client, ErrAlreadyManaged)
	}
	if _, ok := r.frametoclient[frame]; ok {
		return fmt.Errorf("frame %d already holds a client", frame)
	}
	r.clients[client] = frame
	r.frametoclient[frame] = client
	return nil
}

// Unregister forgets client and returns its frame. Unknown clients are
// ignored since late unmap and destroy notifications are routine.
func (r *Registry) Unregister(client xproto.Window) (xproto.Window, bool) {
	frame, ok := r.clients[client]
	if !ok {
		return 0, false
	}
	delete(r.clients, client)
	delete(r.frametoclient, frame)
	return frame, true
}

func (r *Registry) FrameOf(client xproto.Window) (xproto.Window, bool) {
	frame, ok := r.clients[client]
	return frame, ok
}

func (r *Registry) ClientOf(frame xproto.Window) (xproto.Window, bool) {
	client, ok := r.frametoclient[frame]
	return client, ok
}

func (r *Registry) Len() int {
	return len(r.clients)
}
