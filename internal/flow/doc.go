// Package flow implements the conversation state machine of the bot.
//
// Every user has at most one active flow, persisted as a (state tag, JSON
// payload) pair. Inbound updates are stateless; the dispatcher routes each
// one either by an explicit action token carried in a callback or by the
// user's persisted state tag, applies a transition, and returns a render
// instruction for the transport layer. Entering any flow replaces whatever
// flow was active before.
package flow
