// Package compat bridges the chat-completion contract of the model
// endpoint and the structured next-browser-action contract the smoke agent
// consumes.
//
// Two recovery policies coexist, selected by entry point:
//
//   - Client.Chat().Completions().Create is lenient: a choice whose content
//     does not parse gets the configured fallback action and the call never
//     fails on malformed output.
//   - Client.Invoke is strict: malformed output goes through the Validator,
//     which issues up to two corrective re-prompts of narrowing specificity
//     before giving up.
package compat
