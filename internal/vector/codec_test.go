// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package vector_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/docdex-dev/docdex/internal/vector"
	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]float32{
		{1.0, 2.0, 3.0},
		{0.123456, -42.5, 0, 1e-7},
		{-0.0001, 99999.5},
		{3.1415927},
	}

	for _, v := range cases {
		decoded, err := vector.Decode(vector.Encode(v))
		require.NoError(t, err)
		require.Len(t, decoded, len(v))
		for i := range v {
			assert.InDelta(t, v[i], decoded[i], 1e-5)
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "[]", vector.Encode(nil))
	assert.Equal(t, "[]", vector.Encode([]float32{}))
}

func TestDecodeAbsentValue(t *testing.T) {
	// Absence decodes to an empty vector, never an error, so ingestion
	// code can check length to tell "no embedding yet" from corruption.
	decoded, err := vector.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)

	decoded, err = vector.Decode([]byte{})
	require.NoError(t, err)
	assert.Empty(t, decoded)

	decoded, err = vector.Decode("[]")
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeNativeSlice(t *testing.T) {
	v := []float32{1, 2, 3}
	decoded, err := vector.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
}

func TestDecodeLiteralWithSpaces(t *testing.T) {
	decoded, err := vector.Decode("[ 1.5, -2 , 0.25 ]")
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2, 0.25}, decoded)
}

func TestDecodeBlob(t *testing.T) {
	want := []float32{0.5, -1.25, 7}
	blob := make([]byte, 4*len(want))
	for i, f := range want {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(f))
	}

	decoded, err := vector.Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, want, decoded)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := vector.Decode("1,2,3")
	require.Error(t, err)
	assert.True(t, docdexerr.HasCode(err, docdexerr.CodeVectorDecodeInvalid))

	_, err = vector.Decode("[1,abc]")
	require.Error(t, err)
	assert.True(t, docdexerr.IsInvalidInput(err))

	_, err = vector.Decode([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)

	_, err = vector.Decode(42)
	require.Error(t, err)
}
