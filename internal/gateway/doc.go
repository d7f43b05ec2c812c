// Package gateway composes the HTTP surface of the F1 tool gateway: the
// tool invocation endpoint, health and schema endpoints, token issuance,
// the dispatch audit listing, and the heartbeat stream.
//
// The stream endpoint does not require a token. Tokens are issued for a
// fixed identity and can be verified out of band (f1-gateway verify), but
// no handler gates on them.
package gateway
