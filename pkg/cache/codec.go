// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultCompressionThreshold is the entry size, in bytes, above which
// encode gzip-compresses the msgpack payload.
const DefaultCompressionThreshold = 1024

const (
	flagRaw        byte = 0
	flagCompressed byte = 1
)

// encode serializes v with msgpack and gzip-compresses it when the
// encoded form exceeds threshold bytes. Enum-typed fields on v (Node's
// NodeType, Relationship's RelationshipType, CDCEvent's EventType) are
// backed by Go string types, so msgpack already emits their canonical
// string form without any extra projection step.
func encode(v any, threshold int) ([]byte, error) {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	if len(raw) <= threshold {
		return append([]byte{flagRaw}, raw...), nil
	}

	var buf bytes.Buffer
	buf.WriteByte(flagCompressed)
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// decode reverses encode, populating target.
func decode(data []byte, target any) error {
	if len(data) == 0 {
		return fmt.Errorf("decode: empty payload")
	}
	flag, body := data[0], data[1:]

	if flag == flagCompressed {
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		decompressed, err := io.ReadAll(gz)
		if err != nil {
			return fmt.Errorf("gzip decompress: %w", err)
		}
		body = decompressed
	}

	if err := msgpack.Unmarshal(body, target); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	return nil
}
