package service

type ErrRunQueueFull struct{}

func (e ErrRunQueueFull) Error() string {
	return "run queue is full"
}

func NewErrRunQueueFull() *ErrRunQueueFull {
	return &ErrRunQueueFull{}
}

type InvalidConfigVersionError struct {
	Message string
}

func (e InvalidConfigVersionError) Error() string {
	return e.Message
}
