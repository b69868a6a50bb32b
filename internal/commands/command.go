// Package commands parses and dispatches the dashboard's command palette.
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/focusd/internal/pomodoro"
)

type Type string

const (
	TypeStart     Type = "start"
	TypePause     Type = "pause"
	TypeReset     Type = "reset"
	TypeMode      Type = "mode"
	TypeTask      Type = "task"
	TypeAdd       Type = "add"
	TypeDuration  Type = "duration"
	TypeAutostart Type = "autostart"
)

// Names lists the palette commands in help order.
var Names = []Type{TypeStart, TypePause, TypeReset, TypeMode, TypeTask, TypeAdd, TypeDuration, TypeAutostart}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) *CommandError {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// ModeArgs switches the timer. Force resets a running timer first.
type ModeArgs struct {
	Mode  pomodoro.Mode
	Force bool
}

// TaskArgs selects a task by id or title. Clear deselects.
type TaskArgs struct {
	Query string
	Clear bool
}

type AddArgs struct {
	Title string
}

type DurationArgs struct {
	Mode    pomodoro.Mode
	Minutes int
}

// AutostartArgs sets auto-start breaks; Toggle flips the current value.
type AutostartArgs struct {
	On     bool
	Toggle bool
}

type Command struct {
	Type      Type
	Raw       string
	Mode      *ModeArgs
	Task      *TaskArgs
	Add       *AddArgs
	Duration  *DurationArgs
	Autostart *AutostartArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeStart, TypePause, TypeReset:
		if len(args) > 0 {
			return Command{}, invalid("%s takes no arguments", head)
		}
		return Command{Type: Type(head), Raw: input}, nil
	case TypeMode:
		return parseMode(input, args)
	case TypeTask:
		return parseTask(input, args)
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDuration:
		return parseDuration(input, args)
	case TypeAutostart:
		return parseAutostart(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseMode(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, invalid("usage: mode <focus|short|long> [force]")
	}
	mode, ok := pomodoro.ParseMode(args[0])
	if !ok {
		return Command{}, invalid("unknown mode %q", args[0])
	}
	force := false
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "force", "-f", "!":
			force = true
		default:
			return Command{}, invalid("unexpected argument %q", args[1])
		}
	}
	return Command{Type: TypeMode, Raw: raw, Mode: &ModeArgs{Mode: mode, Force: force}}, nil
}

func parseTask(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("usage: task <id-or-title|none>")
	}
	query := strings.TrimSpace(strings.Join(args, " "))
	switch strings.ToLower(query) {
	case "none", "clear", "-":
		return Command{Type: TypeTask, Raw: raw, Task: &TaskArgs{Clear: true}}, nil
	}
	return Command{Type: TypeTask, Raw: raw, Task: &TaskArgs{Query: query}}, nil
}

func parseAdd(raw string, args []string) (Command, error) {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return Command{}, invalid("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Title: title}}, nil
}

func parseDuration(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("usage: duration <focus|short|long> <minutes>")
	}
	mode, ok := pomodoro.ParseMode(args[0])
	if !ok {
		return Command{}, invalid("unknown mode %q", args[0])
	}
	minutes, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(args[1]), "m"))
	if err != nil || minutes < 1 || minutes > 24*60 {
		return Command{}, invalid("minutes must be a whole number between 1 and 1440")
	}
	return Command{Type: TypeDuration, Raw: raw, Duration: &DurationArgs{Mode: mode, Minutes: minutes}}, nil
}

func parseAutostart(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{Type: TypeAutostart, Raw: raw, Autostart: &AutostartArgs{Toggle: true}}, nil
	}
	if len(args) > 1 {
		return Command{}, invalid("usage: autostart [on|off]")
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "yes", "1":
		return Command{Type: TypeAutostart, Raw: raw, Autostart: &AutostartArgs{On: true}}, nil
	case "off", "false", "no", "0":
		return Command{Type: TypeAutostart, Raw: raw, Autostart: &AutostartArgs{On: false}}, nil
	case "toggle":
		return Command{Type: TypeAutostart, Raw: raw, Autostart: &AutostartArgs{Toggle: true}}, nil
	default:
		return Command{}, invalid("autostart expects on or off, got %q", args[0])
	}
}
