// Package bot decides what the account posts: generated posts about a
// random topic, and generated quotes of a favourite creator's latest post.
package bot
