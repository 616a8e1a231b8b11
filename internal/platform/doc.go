// Package platform contains OS integration and external tooling glue: the
// workspace directory layout and run lock, filesystem helpers, the external
// binaries preflight, and the playlist candidate source backed by ytdlp.
package platform
