// Package runtime is the conversation engine.
//
// A Session owns one conversation: the Navigator tracks the current block and
// the stack of entered groups, the Matcher selects connectors from utterances
// and the Variables store holds values bound by connector events. Everything
// runs on the session's own goroutine.
package runtime
