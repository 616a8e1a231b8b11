// Package download implements the acquisition stage built on top of yt-dlp
// (via github.com/lrstanley/go-ytdlp). It manages the task lifecycle, bounded
// retries, request pacing and the dense numbering of downloaded files.
package download
