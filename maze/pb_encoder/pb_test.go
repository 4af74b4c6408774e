package pb

import (
	"encoding/base64"
	"math"
	"regexp"
	"testing"

	"github.com/beka-birhanu/vinom-labyrinth/maze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

var base64Line = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

func TestProtobuf(t *testing.T) {
	enc := &Protobuf{}

	generated, err := maze.NewGenerator(maze.WithRandSource(maze.FixedSource(5))).Generate(40, 25)
	require.NoError(t, err)

	t.Run("Round trip", func(t *testing.T) {
		cases := map[string]maze.WallSequence{
			"empty":     {},
			"single":    {{X: 3, Y: 4}},
			"markers":   {{X: 2, Y: 1}, {X: 6, Y: 5}},
			"negatives": {{X: -1, Y: -2}, {X: 0, Y: 0}, {X: -300, Y: 7}},
			"extremes":  {{X: math.MaxInt, Y: math.MinInt}, {X: math.MinInt, Y: math.MaxInt}, {X: 0, Y: 0}},
			"generated": generated,
		}

		for name, seq := range cases {
			t.Run(name, func(t *testing.T) {
				encoded, err := enc.Encode(seq)
				require.NoError(t, err)
				assert.Regexp(t, base64Line, encoded)

				decoded, err := enc.Decode(encoded)
				require.NoError(t, err)
				assert.Equal(t, len(seq), len(decoded))
				if len(seq) > 0 {
					assert.Equal(t, seq, decoded)
				}
			})
		}
	})

	t.Run("Empty sequence still carries its count", func(t *testing.T) {
		encoded, err := enc.Encode(maze.WallSequence{})
		require.NoError(t, err)
		assert.Equal(t, "CAA=", encoded)
	})

	t.Run("Unknown fields are skipped", func(t *testing.T) {
		raw := protowire.AppendTag(nil, 7, protowire.VarintType)
		raw = protowire.AppendVarint(raw, 99)
		raw = protowire.AppendTag(raw, sequenceCountField, protowire.VarintType)
		raw = protowire.AppendVarint(raw, 1)
		raw = protowire.AppendTag(raw, sequenceCoordinatesField, protowire.BytesType)
		raw = protowire.AppendBytes(raw, marshalCoordinate(nil, maze.Coordinate{X: 4, Y: 9}))

		decoded, err := enc.Decode(base64.StdEncoding.EncodeToString(raw))
		require.NoError(t, err)
		assert.Equal(t, maze.WallSequence{{X: 4, Y: 9}}, decoded)
	})

	t.Run("Malformed payloads", func(t *testing.T) {
		valid, err := enc.Encode(maze.WallSequence{{X: 2, Y: 1}, {X: 1, Y: 1}, {X: 4, Y: 5}})
		require.NoError(t, err)
		validRaw, err := base64.StdEncoding.DecodeString(valid)
		require.NoError(t, err)

		countMismatch := protowire.AppendTag(nil, sequenceCountField, protowire.VarintType)
		countMismatch = protowire.AppendVarint(countMismatch, 3)
		countMismatch = protowire.AppendTag(countMismatch, sequenceCoordinatesField, protowire.BytesType)
		countMismatch = protowire.AppendBytes(countMismatch, marshalCoordinate(nil, maze.Coordinate{X: 1, Y: 1}))

		wrongType := protowire.AppendTag(nil, sequenceCountField, protowire.VarintType)
		wrongType = protowire.AppendVarint(wrongType, 1)
		wrongType = protowire.AppendTag(wrongType, sequenceCoordinatesField, protowire.VarintType)
		wrongType = protowire.AppendVarint(wrongType, 1)

		noCount := protowire.AppendTag(nil, sequenceCoordinatesField, protowire.BytesType)
		noCount = protowire.AppendBytes(noCount, marshalCoordinate(nil, maze.Coordinate{X: 1, Y: 1}))

		cases := map[string]string{
			"not base64":     "not base64 !!",
			"empty":          "",
			"truncated":      base64.StdEncoding.EncodeToString(validRaw[:len(validRaw)-1]),
			"count mismatch": base64.StdEncoding.EncodeToString(countMismatch),
			"wrong type":     base64.StdEncoding.EncodeToString(wrongType),
			"missing count":  base64.StdEncoding.EncodeToString(noCount),
			"garbage":        base64.StdEncoding.EncodeToString([]byte{0xff, 0xff, 0xff}),
		}

		for name, payload := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := enc.Decode(payload)
				assert.ErrorIs(t, err, ErrDecode)
			})
		}
	})
}
