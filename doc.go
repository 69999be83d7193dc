// Package hashmirror keeps an in-process mirror of one remote hash (a namespace)
// and writes through to it. The remote hash is the durable copy; the mirror
// answers reads without a round trip whenever it can.
//
// Components:
//   - hashstore.Store: remote hash operations (redis, bigcache, local).
//   - clientpool.Provider: hands out and takes back store handles per endpoint.
//   - Codec[V]: (de)serializes V <-> field text; a payload that does not decode
//     is corrupt.
//
// Population:
//
//	eager (default)  Open fetches every field, decodes it into the mirror and
//	                 deletes fields that do not decode
//	lazy             the mirror fills on Get misses and on writes
//
// Writes update the mirror before the remote call starts and are not rolled back
// when it fails. Get and Load delete corrupt fields; Values skips them silently.
package hashmirror
