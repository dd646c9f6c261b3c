package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrNoBeats  = errors.New("no beats")

	// Remote video job lifecycle. None of these are retried automatically;
	// the orchestrating run aborts and reports which beat failed.
	ErrRemoteSubmission     = errors.New("remote submission rejected")
	ErrRemoteJobFailed      = errors.New("remote job failed")
	ErrRemoteJobTimeout     = errors.New("remote job timed out")
	ErrRemoteJobEmptyResult = errors.New("remote job returned no media")

	// Local assembly and mixing.
	ErrSegmentRead = errors.New("segment unreadable")
	ErrAudioSource = errors.New("audio source unavailable")
	ErrMediaEncode = errors.New("media encode failed")
)
