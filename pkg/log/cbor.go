package log

import (
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// record is the stored form of an Event. Keys are integers and the time
// is an integer count of Unix microseconds, so records stay small and
// round-trip exactly at microsecond resolution.
type record struct {
	Micros    int64     `cbor:"1,keyasint,omitempty"`
	Category  Category  `cbor:"2,keyasint"`
	Op        string    `cbor:"3,keyasint"`
	Zones     zone.Mask `cbor:"4,keyasint,omitempty"`
	Registers uint8     `cbor:"5,keyasint,omitempty"`
	Cycle     string    `cbor:"6,keyasint,omitempty"`
	RunID     string    `cbor:"7,keyasint,omitempty"`
	Detail    string    `cbor:"8,keyasint,omitempty"`
}

func toRecord(e Event) record {
	r := record{
		Category:  e.Category,
		Op:        e.Op,
		Zones:     e.Zones,
		Registers: e.Registers,
		Cycle:     e.Cycle,
		RunID:     e.RunID,
		Detail:    e.Detail,
	}
	if !e.Timestamp.IsZero() {
		r.Micros = e.Timestamp.UnixMicro()
	}
	return r
}

func (r record) event() Event {
	e := Event{
		Category:  r.Category,
		Op:        r.Op,
		Zones:     r.Zones,
		Registers: r.Registers,
		Cycle:     r.Cycle,
		RunID:     r.RunID,
		Detail:    r.Detail,
	}
	if r.Micros != 0 {
		e.Timestamp = time.UnixMicro(r.Micros).UTC()
	}
	return e
}

var modes = sync.OnceValues(func() (cbor.EncMode, cbor.DecMode) {
	enc, err := cbor.EncOptions{
		Sort:        cbor.SortCoreDeterministic,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic("log: event encoder: " + err.Error())
	}

	dec, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic("log: event decoder: " + err.Error())
	}
	return enc, dec
})

// EncodeEvent returns the CBOR record for event.
func EncodeEvent(event Event) ([]byte, error) {
	enc, _ := modes()
	return enc.Marshal(toRecord(event))
}

// DecodeEvent parses one CBOR record.
func DecodeEvent(data []byte) (Event, error) {
	_, dec := modes()
	var rec record
	if err := dec.Unmarshal(data, &rec); err != nil {
		return Event{}, err
	}
	return rec.event(), nil
}

func newEncoder(w io.Writer) *cbor.Encoder {
	enc, _ := modes()
	return enc.NewEncoder(w)
}

func newDecoder(r io.Reader) *cbor.Decoder {
	_, dec := modes()
	return dec.NewDecoder(r)
}
