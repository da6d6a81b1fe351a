// Package llm defines the chat-completion contract shared by the smoke
// suite: conversation messages, requests, responses, usage counters and the
// provider error taxonomy. It has no dependencies on other agentsmoke
// packages.
package llm
