package wkb

import (
	"encoding/binary"
	"math"

	"github.com/paulmach/orb"
)

// WKB type constants (ISO SQL/MM)
const (
	wkbPoint      = 1
	wkbLineString = 2
	wkbPolygon    = 3

	// SRID flag for EWKB (PostGIS extended WKB)
	wkbSRIDFlag = 0x20000000
)

// SRIDPlanar marks coordinates in the local map plane, which has no
// registered spatial reference.
const SRIDPlanar = 0

// Encoder encodes geometries to EWKB. It uses little-endian byte order
// and always writes the SRID. The returned slices alias the encoder's
// buffer and are only valid until the next call.
type Encoder struct {
	buf  []byte
	srid uint32
}

// NewEncoder creates an encoder for map plane coordinates
func NewEncoder(initialSize int) *Encoder {
	return NewEncoderWithSRID(initialSize, SRIDPlanar)
}

// NewEncoderWithSRID creates an encoder with the given SRID
func NewEncoderWithSRID(initialSize int, srid int) *Encoder {
	return &Encoder{
		buf:  make([]byte, 0, initialSize),
		srid: uint32(srid),
	}
}

// SRID returns the encoder's SRID
func (e *Encoder) SRID() int {
	return int(e.srid)
}

// Reset clears the buffer for reuse
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// EncodePoint encodes a point
func (e *Encoder) EncodePoint(p orb.Point) []byte {
	e.header(wkbPoint, 16)
	e.appendPoint(p)
	return e.buf
}

// EncodeLineString encodes a line string
func (e *Encoder) EncodeLineString(ls []orb.Point) []byte {
	e.header(wkbLineString, 4+len(ls)*16)
	e.appendUint32(uint32(len(ls)))
	for _, p := range ls {
		e.appendPoint(p)
	}
	return e.buf
}

// EncodePolygon encodes a single ring polygon. The ring is closed if its
// last point differs from the first.
func (e *Encoder) EncodePolygon(ring []orb.Point) []byte {
	closed := len(ring) > 0 && ring[0] == ring[len(ring)-1]
	n := len(ring)
	if !closed && n > 0 {
		n++
	}
	e.header(wkbPolygon, 8+n*16)
	e.appendUint32(1)
	e.appendUint32(uint32(n))
	for _, p := range ring {
		e.appendPoint(p)
	}
	if !closed && len(ring) > 0 {
		e.appendPoint(ring[0])
	}
	return e.buf
}

// EncodeTriangle encodes a triangle as a closed four point polygon
func (e *Encoder) EncodeTriangle(a, b, c orb.Point) []byte {
	return e.EncodePolygon([]orb.Point{a, b, c})
}

func (e *Encoder) header(typ uint32, body int) {
	e.Reset()
	// 1 (byte order) + 4 (type with srid flag) + 4 (srid)
	e.ensureCapacity(9 + body)
	e.buf = append(e.buf, 0x01)
	e.appendUint32(typ | wkbSRIDFlag)
	e.appendUint32(e.srid)
}

func (e *Encoder) ensureCapacity(n int) {
	if cap(e.buf) < n {
		e.buf = make([]byte, 0, n)
	}
}

func (e *Encoder) appendPoint(p orb.Point) {
	e.appendFloat64(p[0])
	e.appendFloat64(p[1])
}

func (e *Encoder) appendUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) appendFloat64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}
