package ports

// VideoRecorder accumulates JPEG frames into a video container.
type VideoRecorder interface {
	// Begin prepares a recording with the given frame size. fps is used for
	// the duration of the last frame.
	Begin(width, height int, fps float64) error

	// AddFrame appends a JPEG frame captured at timestampMs on the session
	// clock. The recording starts at the first frame added.
	AddFrame(data []byte, timestampMs int) error

	// End finalizes the recording and returns the encoded file.
	End() ([]byte, error)
}
