// Package progress renders terminal progress bars for a pipeline run.
//
// Bars implements pipeline.Observer. It draws one bar for fetched inputs and
// one for finished items, and completes both when the run reports Finished.
package progress
