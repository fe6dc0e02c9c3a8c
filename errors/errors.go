package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrMeetingActive    = fmt.Errorf("a meeting is already active in this chat")
	ErrMeetingNotFound  = fmt.Errorf("meeting not found")
	ErrEmptyTopic       = fmt.Errorf("meeting topic is empty")
	ErrPersonaNotFound  = fmt.Errorf("persona is not configured")
	ErrDeliveryFailed   = fmt.Errorf("message delivery failed")
	ErrGenerationFailed = fmt.Errorf("model generation failed")
)
