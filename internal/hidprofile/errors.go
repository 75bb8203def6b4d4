package hidprofile

import "errors"

// ErrNotConnected is returned by Emitter.Send when no host attaches both
// channels within the wait-for-host timeout, or the engine is shutting
// down while a send is waiting.
var ErrNotConnected = errors.New("hidprofile: not connected")

// ErrTransportFailure is returned by Emitter.Send when the underlying
// transport write fails. The connection is reset before this error is
// returned to the caller.
var ErrTransportFailure = errors.New("hidprofile: transport failure")
