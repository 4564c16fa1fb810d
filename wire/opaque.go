// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"github.com/fxamacker/cbor/v2"
)

// opaqueMode pins a single, explicit binary encoding for everything that
// travels inside an "o" frame (or nested inside R/Q/r records): canonical
// CBOR (RFC 8949 core deterministic encoding). This plays the role of the
// source's version-pinned consts.PICKLE_PROTOCOL — one fixed format, never
// silently upgraded out from under a running pair of peers — but unlike
// pickle it is a portable wire format, not a Go-specific (or Python-
// specific) object graph dump, so a future non-Go peer implementation can
// still interoperate.
var opaqueMode cbor.EncMode

// opaqueDecMode decodes every CBOR integer landing in an interface{} as
// int64, positive or negative, so a round-tripped integer has one
// concrete type on the receiving side.
var opaqueDecMode cbor.DecMode

func init() {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		// CanonicalEncOptions() is a fixed, valid configuration; EncMode()
		// can only fail on invalid options.
		panic("wire: building canonical cbor EncMode: " + err.Error())
	}
	opaqueMode = mode

	dec, err := cbor.DecOptions{IntDec: cbor.IntDecConvertSigned}.DecMode()
	if err != nil {
		panic("wire: building cbor DecMode: " + err.Error())
	}
	opaqueDecMode = dec
}

// EncodeOpaque serialises v using the pinned opaque format.
func EncodeOpaque(v any) ([]byte, error) {
	return opaqueMode.Marshal(v)
}

// DecodeOpaque deserialises payload into v using the pinned opaque format.
func DecodeOpaque(payload []byte, v any) error {
	return opaqueDecMode.Unmarshal(payload, v)
}
