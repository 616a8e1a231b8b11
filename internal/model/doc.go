// Package model defines domain data structures shared by the pipeline stages:
// search results and selections, download tasks, audio clips, status enums
// and the stage error type. Structures carry no behaviour beyond explicit
// state transitions and formatting helpers.
package model
