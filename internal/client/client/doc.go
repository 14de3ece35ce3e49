// Package client talks to a zkvault server.
//
// VaultClient covers the public HTTP API (/upload, /download, /poseidon)
// and maps response codes to the sentinel errors in internal/common, so
// callers can match them with errors.Is. AdminClient covers the gRPC ops
// surface and sends an admin token with every call.
//
// Payloads passed to VaultClient are expected to be encrypted already; see
// package envelope.
package client
