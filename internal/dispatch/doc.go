// Package dispatch hands a resolved plan to the data-processing backend over
// socket.io and waits for the backend to report completion.
//
// The request is emitted as the "flow" event. The backend answers with
// "flow:done" carrying the elapsed time, or "flow:error" carrying a message.
// Events are correlated by name only, so a Dispatcher sends one request at a
// time.
package dispatch
