// Package app assembles the relay process: configuration, the status store
// selected by STATUS_STORE, the broker topology, both queue consumers and
// the HTTP API.
package app
