package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Start     func() (Result, error)
	Pause     func() (Result, error)
	Reset     func() (Result, error)
	Mode      func(ModeArgs) (Result, error)
	Task      func(TaskArgs) (Result, error)
	Add       func(AddArgs) (Result, error)
	Duration  func(DurationArgs) (Result, error)
	Autostart func(AutostartArgs) (Result, error)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeStart:
		if handlers.Start == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Start()
	case TypePause:
		if handlers.Pause == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Pause()
	case TypeReset:
		if handlers.Reset == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Reset()
	case TypeMode:
		if handlers.Mode == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Mode(*cmd.Mode)
	case TypeTask:
		if handlers.Task == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Task(*cmd.Task)
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeDuration:
		if handlers.Duration == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Duration(*cmd.Duration)
	case TypeAutostart:
		if handlers.Autostart == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Autostart(*cmd.Autostart)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
