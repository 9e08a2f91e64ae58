// Package services holds cross-cutting service plumbing: the error taxonomy
// shared by pipeline components and the context annotations used to thread
// recording/window identity into structured logs.
package services
