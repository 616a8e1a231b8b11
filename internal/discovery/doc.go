// Package discovery finds candidate videos for a performer and samples the
// run's selection from them.
package discovery
