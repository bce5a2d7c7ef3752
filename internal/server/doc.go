// Package server implements the HTTP side of LAN File Drop: the upload
// endpoint, the listing page, downloads from the storage directory, and
// the health and metrics endpoints. It wires the storage handle and the
// optional mirror and audit trail into the handlers and provides the
// lifecycle helpers used by tests and the production binary.
package server
