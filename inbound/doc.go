// Package inbound exposes the relay over HTTP.
//
// Job and negotiation writes are bearer gated when a token is configured.
// Load listing, negotiation polling and health are open.
package inbound
