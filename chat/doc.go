// Package chat owns one connection to the Twitch IRC relay and everything
// derived from its message stream.
//
// The Client dials the websocket relay, performs the anonymous login and
// capability handshake, joins a single channel, and processes lines strictly
// in arrival order. Each parsed message updates the Session (per-user role
// and ban state), feeds the LiveDetector (a vocabulary heuristic guessing
// that the channel just went live), and fans out synchronously to observers
// registered on the Dispatcher. When an archive dump is active, every chat
// message is also appended to the dump recorder before the next line is
// processed.
//
// One Client serves one channel; independent channels get independent
// Clients with no shared mutable state. Observers run synchronously and
// must not block: a stalled observer stalls the whole connection.
package chat
