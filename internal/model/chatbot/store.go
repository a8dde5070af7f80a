package chatbot

import "errors"

// ErrEmptyDirectory is returned when a directory would have no default entry.
var ErrEmptyDirectory = errors.New("chatbot directory requires at least one entry")

// Store exposes chatbot lookup for HTTP handlers and sessions.
type Store interface {
	List() []Descriptor
	FindByID(identifier string) (Descriptor, bool)
	Resolve(identifier string) Descriptor
}

// Directory implements Store over an immutable slice. The first entry is the
// fallback for unknown identifiers.
type Directory struct {
	items []Descriptor
}

// NewDirectory returns a Directory holding a private copy of items.
func NewDirectory(items []Descriptor) (*Directory, error) {
	if len(items) == 0 {
		return nil, ErrEmptyDirectory
	}
	return &Directory{items: append([]Descriptor(nil), items...)}, nil
}

// List returns the configured chatbots in declaration order.
func (d *Directory) List() []Descriptor {
	return append([]Descriptor(nil), d.items...)
}

// FindByID looks up a chatbot by its short identifier or its UUID.
func (d *Directory) FindByID(identifier string) (Descriptor, bool) {
	if identifier == "" {
		return Descriptor{}, false
	}
	for _, item := range d.items {
		if item.ID == identifier || (item.UUID != "" && item.UUID == identifier) {
			return item, true
		}
	}
	return Descriptor{}, false
}

// Resolve never fails: absent or unknown identifiers map to the default entry.
func (d *Directory) Resolve(identifier string) Descriptor {
	if item, ok := d.FindByID(identifier); ok {
		return item
	}
	return d.Default()
}

// Default returns the first entry.
func (d *Directory) Default() Descriptor {
	return d.items[0]
}
