package errors

import "fmt"

var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrInvalidPayload      = fmt.Errorf("invalid payload")
	ErrNameTaken           = fmt.Errorf("participant name already in use")
	ErrParticipantNotFound = fmt.Errorf("participant not found")
	ErrMessageNotFound     = fmt.Errorf("message not found")
	ErrNotAuthor           = fmt.Errorf("requester is not the message author")
	ErrUnknownSender       = fmt.Errorf("sender is not an active participant")
	ErrInvalidLimit        = fmt.Errorf("limit must be a positive integer")
	ErrEmptyWords          = fmt.Errorf("no words have been found")
)
