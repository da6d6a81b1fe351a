// Package testutil hosts shared test doubles for the smoke suite. The
// mocks subpackage provides a scripted model endpoint and a scripted
// browser driver so the agent loop and the compat layer can be tested
// without a live Ollama server or a Chrome process.
package testutil
