// Package pipeline runs the mashup stages in order against one workspace and
// decides which failures end the run.
package pipeline
