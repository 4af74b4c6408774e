// Package pb encodes wall sequences as single-line protobuf payloads.
//
// Wire layout (protobuf encoding, Base64 armored):
//
//	message WallSequence {
//	  uint64 count = 1;
//	  repeated Coordinate coordinates = 2;
//	}
//	message Coordinate {
//	  sint64 x = 1;
//	  sint64 y = 2;
//	}
package pb

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	"github.com/beka-birhanu/vinom-labyrinth/maze"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"google.golang.org/protobuf/encoding/protowire"
)

var _ i.SequenceEncoder = &Protobuf{}

const (
	sequenceCountField       protowire.Number = 1
	sequenceCoordinatesField protowire.Number = 2

	coordinateXField protowire.Number = 1
	coordinateYField protowire.Number = 2
)

var (
	ErrDecode = errors.New("malformed wall sequence payload")
)

type Protobuf struct{}

// Encode implements i.SequenceEncoder.
func (p *Protobuf) Encode(seq maze.WallSequence) (string, error) {
	raw := protowire.AppendTag(nil, sequenceCountField, protowire.VarintType)
	raw = protowire.AppendVarint(raw, uint64(len(seq)))

	var coord []byte
	for _, c := range seq {
		coord = marshalCoordinate(coord[:0], c)
		raw = protowire.AppendTag(raw, sequenceCoordinatesField, protowire.BytesType)
		raw = protowire.AppendBytes(raw, coord)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode implements i.SequenceEncoder.
func (p *Protobuf) Decode(s string) (maze.WallSequence, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecode, err)
	}

	var (
		count    uint64
		hasCount bool
		seq      = maze.WallSequence{}
	)
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return nil, decodeError(n)
		}
		raw = raw[n:]

		switch {
		case num == sequenceCountField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return nil, decodeError(n)
			}
			raw = raw[n:]
			count, hasCount = v, true
		case num == sequenceCoordinatesField && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return nil, decodeError(n)
			}
			raw = raw[n:]
			c, err := unmarshalCoordinate(b)
			if err != nil {
				return nil, err
			}
			seq = append(seq, c)
		case num == sequenceCountField || num == sequenceCoordinatesField:
			return nil, fmt.Errorf("%w: field %d has wire type %d", ErrDecode, num, typ)
		default:
			n := protowire.ConsumeFieldValue(num, typ, raw)
			if n < 0 {
				return nil, decodeError(n)
			}
			raw = raw[n:]
		}
	}

	if !hasCount {
		return nil, fmt.Errorf("%w: missing coordinate count", ErrDecode)
	}
	if count != uint64(len(seq)) {
		return nil, fmt.Errorf("%w: expected %d coordinates, got %d", ErrDecode, count, len(seq))
	}
	return seq, nil
}

// marshalCoordinate appends the Coordinate message body to b.
func marshalCoordinate(b []byte, c maze.Coordinate) []byte {
	b = protowire.AppendTag(b, coordinateXField, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(c.X)))
	b = protowire.AppendTag(b, coordinateYField, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(c.Y)))
}

func unmarshalCoordinate(b []byte) (maze.Coordinate, error) {
	var c maze.Coordinate
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, decodeError(n)
		}
		b = b[n:]

		if typ != protowire.VarintType {
			if num == coordinateXField || num == coordinateYField {
				return c, fmt.Errorf("%w: coordinate field %d has wire type %d", ErrDecode, num, typ)
			}
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return c, decodeError(n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return c, decodeError(n)
		}
		b = b[n:]

		value, err := toInt(protowire.DecodeZigZag(v))
		if err != nil {
			return c, err
		}
		switch num {
		case coordinateXField:
			c.X = value
		case coordinateYField:
			c.Y = value
		}
	}
	return c, nil
}

// toInt rejects values that do not fit the platform int.
func toInt(v int64) (int, error) {
	if v < math.MinInt || v > math.MaxInt {
		return 0, fmt.Errorf("%w: coordinate %d overflows int", ErrDecode, v)
	}
	return int(v), nil
}

func decodeError(n int) error {
	return fmt.Errorf("%w: %s", ErrDecode, protowire.ParseError(n))
}
