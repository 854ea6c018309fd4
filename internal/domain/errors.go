package domain

import "errors"

// ErrProviderUnavailable marks network or authentication failures reaching
// the imagery catalog. Fatal for the discovery step: the run aborts before
// any candidate is processed. An empty scene list is NOT this error; daily
// checks finding nothing new is the common case.
var ErrProviderUnavailable = errors.New("imagery provider unavailable")
