package log

import (
	"errors"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/afero"

	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// Filter selects events. Zero fields match everything.
type Filter struct {
	// Category filters by event category.
	Category *Category

	// Zones matches events touching any of these zones.
	Zones zone.Mask

	// Cycle filters by exact cycle name.
	Cycle string

	// RunID filters by run.
	RunID string

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time
}

// matches returns true if the event matches all filter criteria.
func (f *Filter) matches(event Event) bool {
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Zones != 0 && event.Zones&f.Zones == 0 {
		return false
	}
	if f.Cycle != "" && event.Cycle != f.Cycle {
		return false
	}
	if f.RunID != "" && event.RunID != f.RunID {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader streams events from a CBOR event file.
type Reader struct {
	file    afero.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader opens path on fs for reading all events.
func NewReader(fs afero.Fs, path string) (*Reader, error) {
	return NewFilteredReader(fs, path, Filter{})
}

// NewFilteredReader opens path on fs for reading events matching filter.
func NewFilteredReader(fs afero.Fs, path string, filter Filter) (*Reader, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: newDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF at the end.
func (r *Reader) Next() (Event, error) {
	for {
		var rec record
		if err := r.decoder.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		event := rec.event()

		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll returns every event in path on fs that matches filter.
// A missing file yields no events.
func ReadAll(fs afero.Fs, path string, filter Filter) ([]Event, error) {
	r, err := NewFilteredReader(fs, path, filter)
	if errors.Is(err, afero.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var events []Event
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}
}
