// Package llm generates post text from a prompt using a language model.
package llm
