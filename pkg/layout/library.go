package layout

import "fmt"

// Library is a named, ordered collection of designs.
type Library struct {
	Name string

	designs []*Design
	byName  map[string]*Design
}

// NewLibrary returns an empty library.
func NewLibrary(name string) *Library {
	return &Library{Name: name, byName: make(map[string]*Design)}
}

// Append adds a design. The design takes the library name.
func (l *Library) Append(d *Design) error {
	if d == nil {
		return fmt.Errorf("layout: library %s: design is nil", l.Name)
	}
	if _, exists := l.byName[d.Name]; exists {
		return fmt.Errorf("layout: library %s: design %q: %w", l.Name, d.Name, ErrDuplicateName)
	}
	d.LibName = l.Name
	l.designs = append(l.designs, d)
	l.byName[d.Name] = d
	return nil
}

// Design returns a design by name.
func (l *Library) Design(name string) (*Design, bool) {
	d, ok := l.byName[name]
	return d, ok
}

// Designs returns the designs in insertion order.
func (l *Library) Designs() []*Design {
	return append([]*Design(nil), l.designs...)
}
