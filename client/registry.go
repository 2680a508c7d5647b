package client

import (
	"golang.org/x/exp/maps"

	"deedles.dev/wlwin/wire"
)

// Versions of each global's interface that the backend implements. A
// bind uses the advertised version when the server is older.
const (
	compositorVersion = 4
	wmBaseVersion     = 3
	seatVersion       = 9
	shmVersion        = 1
)

// Global is an entry in the server's global registry.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Globals returns a snapshot of the globals the server has advertised,
// keyed by registry name.
func (c *Client) Globals() map[uint32]Global {
	return maps.Clone(c.globals)
}

type registryObject struct {
	object
}

// Bind binds the global named name to the fresh object ID id. The
// registry's new_id argument is untyped on the wire, so the interface
// and version precede it.
func (r *registryObject) Bind(name uint32, iface string, version, id uint32) error {
	msg := r.request(registryBindOp, "bind", name, iface, version, id)
	msg.WriteUint(name)
	msg.WriteString(iface)
	msg.WriteUint(version)
	msg.WriteNewID(id)
	return r.client.write(msg)
}

func (r *registryObject) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case registryGlobalEvent:
		name := msg.ReadUint()
		iface := msg.ReadString()
		version := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		return r.client.handleGlobal(Global{Name: name, Interface: iface, Version: version})

	case registryGlobalRemoveEvent:
		name := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		delete(r.client.globals, name)
		return nil
	}
	return nil
}

func (r *registryObject) MethodName(op uint16) string {
	switch op {
	case registryGlobalEvent:
		return "global"
	case registryGlobalRemoveEvent:
		return "global_remove"
	}
	return "unknown"
}

// handleGlobal records an advertised global and binds it if it is one
// of the interfaces the backend speaks. A duplicate advertisement of
// an already-bound singleton is recorded but not bound again.
func (c *Client) handleGlobal(g Global) error {
	c.globals[g.Name] = g

	bind := func(obj wire.Object, iface string, version uint32) error {
		c.store.Add(obj)
		return c.registry.Bind(g.Name, iface, min(g.Version, version), obj.ID())
	}

	switch g.Interface {
	case "wl_compositor":
		if c.compositor != nil {
			return nil
		}
		c.compositor = &compositorObject{object: object{iface: g.Interface, client: c}}
		return bind(c.compositor, g.Interface, compositorVersion)

	case "xdg_wm_base":
		if c.wmBase != nil {
			return nil
		}
		c.wmBase = &wmBaseObject{object: object{iface: g.Interface, client: c}}
		return bind(c.wmBase, g.Interface, wmBaseVersion)

	case "wl_shm":
		if c.shm != nil {
			return nil
		}
		c.shm = &shmObject{object: object{iface: g.Interface, client: c}}
		return bind(c.shm, g.Interface, shmVersion)

	case "wl_seat":
		obj := &seatObject{object: object{iface: g.Interface, client: c}}
		if err := bind(obj, g.Interface, seatVersion); err != nil {
			return err
		}
		seat := &Seat{
			client:          c,
			obj:             obj,
			scrollDirection: -1,
		}
		obj.seat = seat
		c.seats[obj.id] = seat
		return nil
	}

	return nil
}
