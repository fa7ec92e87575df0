// Package foundation provides the public types of the Foundation API client.
//
// The Foundation API describes its own resources: a discovery call returns,
// for every resource type, the getters, setters and actions it supports and
// the parameters each action takes. A client built with fdclient.New fetches
// that schema once, and Client.Resource returns a handle whose methods map
// one to one onto the declared metadata.
//
// # Calls
//
//	widget, err := client.Resource(ctx, "Widget", "42")
//	res, err := widget.Call(ctx, "doThing", "a", 2)
//
// Actions with no parameters send no argument, actions with one parameter
// send it as arg0, and actions with more send a JSON array as args0. String
// values are sent as is; anything else is JSON-encoded. Attachment values are
// never encoded: they are sent as multipart file fields.
//
// # Multi actions
//
// StartMultiAction opens a batch on a handle. Every call made while it is
// open is staged and returns its slot index; CommitMultiAction sends all of
// them in a single POST and RollbackMultiAction discards them.
//
// # Results
//
// With meta enabled (the default) a call returns the decoded document, or the
// raw body when it is not JSON. With meta suppressed, a data envelope whose
// type is "<Type><Function>Response" unwraps to data.attributes.result, other
// data envelopes unwrap to data, and error envelopes become *APIError.
//
// # Schema cache
//
// The discovered schema lives for the life of the client. CacheConfig adds a
// shared backend (memory, NATS KV or Redis) so processes can skip discovery.
package foundation
