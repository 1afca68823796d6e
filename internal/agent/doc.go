// Package agent contains the fallback dispatcher that hands unmatched chat
// messages to a large language model. The model acts through a closed set of
// wallet tools; this package maps its tool calls onto resolved commands,
// feeds execution results back into the transcript, and caps the number of
// tool-calling rounds per message.
package agent
