package storage

import "errors"

// Multi fans an event out to every recorder. A failing recorder does not
// stop the others; all errors are joined.
type Multi []Recorder

func (m Multi) AppendInteraction(event Event) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.AppendInteraction(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
