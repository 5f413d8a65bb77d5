// Package fetch performs every outbound request of an audit.
//
// Pages are read through a read-through proxy that wraps the target's body
// in a JSON envelope ({"contents": ..., "status": {...}}). Provider APIs are
// called directly with GetJSON and PostJSON. Failures surface as typed
// errors from the model package: *model.NetworkError for transport errors
// and non-2xx responses, *model.ParseError for malformed or incomplete
// bodies. Network errors that may succeed on a second attempt are retried
// with exponential backoff.
//
// All requests honor the caller's context and are additionally bounded by a
// per-request timeout, so a hung upstream cannot stall an audit.
package fetch
