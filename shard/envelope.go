// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package shard

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/tree"
)

const (
	envelopeVersion byte = 1
	envelopeHeader       = 6

	envelopeFlagDurable byte = 0x01
)

// commitKey derives the pipeline key of a modification: its full canonical
// encoding. Equal modifications collide by construction, distinct ones never
// do, and the key is stable no matter how many times an envelope is replayed.
func commitKey(modification *tree.Modification) (string, error) {
	encoded, err := modification.MarshalBinary()
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// keyFingerprint compresses a commit key for log lines and typed errors.
// The raw key is the full modification encoding and never belongs in a log.
func keyFingerprint(key string) uint64 {
	return xxh3.HashString(key)
}

// encodeEnvelope renders the journaled form of a forwarded commit:
// version byte, flags byte, big-endian key length, key bytes, payload bytes.
func encodeEnvelope(key string, payload []byte, durable bool) []byte {
	var flags byte
	if durable {
		flags |= envelopeFlagDurable
	}
	encoded := make([]byte, envelopeHeader+len(key)+len(payload))
	encoded[0] = envelopeVersion
	encoded[1] = flags
	binary.BigEndian.PutUint32(encoded[2:6], uint32(len(key)))
	copy(encoded[envelopeHeader:], key)
	copy(encoded[envelopeHeader+len(key):], payload)
	return encoded
}

// decodeEnvelope parses a journaled envelope back into its commit key and
// modification payload. Unknown versions and truncated input are corruption:
// the caller escalates, it does not skip.
func decodeEnvelope(encoded []byte) (key string, payload []byte, durable bool, err error) {
	if len(encoded) < envelopeHeader {
		return "", nil, false, fmt.Errorf("envelope too short (%d bytes): %w", len(encoded), gerrors.ErrCorruptedEnvelope)
	}
	if encoded[0] != envelopeVersion {
		return "", nil, false, fmt.Errorf("unknown envelope version (%d): %w", encoded[0], gerrors.ErrCorruptedEnvelope)
	}
	durable = encoded[1]&envelopeFlagDurable != 0
	keyLength := int(binary.BigEndian.Uint32(encoded[2:6]))
	if envelopeHeader+keyLength > len(encoded) {
		return "", nil, false, fmt.Errorf("envelope key truncated: %w", gerrors.ErrCorruptedEnvelope)
	}
	key = string(encoded[envelopeHeader : envelopeHeader+keyLength])
	payload = make([]byte, len(encoded)-envelopeHeader-keyLength)
	copy(payload, encoded[envelopeHeader+keyLength:])
	return key, payload, durable, nil
}
