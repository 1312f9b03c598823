// Package tsip implements the subset of the Trimble Standard Interface
// Protocol needed to watch a Thunderbolt GPS-disciplined oscillator.
//
// It is intentionally small and geared toward status monitoring:
//   - Reassemble DLE/ETX framed packets from the serial byte stream
//   - Decode 0x8F-AB (primary timing), 0x8F-AC (secondary timing),
//     0x84 (double-precision position) and 0x6D (satellite selection)
//   - Everything else surfaces as Unrecognized, which is routine, not an error
package tsip
