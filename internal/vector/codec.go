// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

// Package vector converts between in-memory embeddings and the literal
// form the store's vector-similarity extension expects. The literal is
// always constructed explicitly; it is never left to the persistence
// layer to infer a type for a bare float slice.
package vector

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

// Encode renders an embedding as a bracketed comma-separated literal,
// e.g. "[0.25,1,-3.5]". The form is accepted verbatim by sqlite-vec and
// pgvector. An empty or nil vector encodes to "[]".
func Encode(v []float32) string {
	if len(v) == 0 {
		return "[]"
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// Decode converts a stored value back into an embedding. It accepts the
// shapes a vector column can come back as:
//
//   - nil: no embedding stored yet; decodes to an empty vector, never an
//     error, so callers can distinguish "absent" (length zero) from a
//     decode failure.
//   - []float32: already native, returned as-is.
//   - []byte: either a little-endian float32 blob (sqlite-vec's packed
//     form) or a textual literal stored as bytes.
//   - string: a bracketed comma-separated literal.
func Decode(value any) ([]float32, error) {
	switch v := value.(type) {
	case nil:
		return []float32{}, nil
	case []float32:
		return v, nil
	case []byte:
		if len(v) == 0 {
			return []float32{}, nil
		}
		if v[0] == '[' {
			return decodeLiteral(string(v))
		}
		return decodeBlob(v)
	case string:
		return decodeLiteral(v)
	default:
		return nil, docdexerr.Errorf(docdexerr.CodeVectorDecodeInvalid, "unsupported vector representation %T", value)
	}
}

func decodeLiteral(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []float32{}, nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, docdexerr.Errorf(docdexerr.CodeVectorDecodeInvalid, "vector literal must be bracketed, got %q", s)
	}

	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []float32{}, nil
	}

	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, docdexerr.Errorf(docdexerr.CodeVectorDecodeInvalid, "parsing vector element %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// decodeBlob unpacks a little-endian float32 blob, the packed form
// sqlite-vec stores and matches against.
func decodeBlob(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, docdexerr.Errorf(docdexerr.CodeVectorDecodeInvalid, "vector blob length %d is not a multiple of 4", len(b))
	}

	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
