// Package objstore tracks the protocol objects belonging to a
// connection, keyed by object ID.
package objstore

import "deedles.dev/wlwin/wire"

type Store struct {
	objects map[uint32]wire.Object
	nextID  uint32
}

// New returns a Store that allocates IDs starting at start.
func New(start uint32) *Store {
	return &Store{
		objects: make(map[uint32]wire.Object),
		nextID:  start,
	}
}

// Add registers obj, assigning it the next free ID if it doesn't
// already have one.
func (s *Store) Add(obj wire.Object) {
	id := obj.ID()
	if id == 0 {
		id = s.nextID
		obj.SetID(id)
		s.nextID++
	}

	s.objects[id] = obj
}

func (s *Store) Get(id uint32) wire.Object {
	return s.objects[id]
}

func (s *Store) Delete(id uint32) {
	obj := s.objects[id]
	delete(s.objects, id)
	if obj != nil {
		obj.Delete()
	}
}
