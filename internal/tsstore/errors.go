package tsstore

import "errors"

// ErrConnection is returned when connect() exhausts its retry budget
// without establishing a session.
var ErrConnection = errors.New("tsstore: could not establish connection")

// ErrNotConnected is returned by any operation attempted before connect()
// succeeds, or after the connection has been torn down.
var ErrNotConnected = errors.New("tsstore: client is not connected")

// ErrStoreRejected marks a permanent failure (auth, schema) that retrying
// will not fix.
var ErrStoreRejected = errors.New("tsstore: store rejected the request")
