package pomodoro

import "strings"

type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short-break"
	ModeLongBreak  Mode = "long-break"
)

// StepCount is the length of one cycle:
// focus, short break, focus, short break, long break.
const StepCount = 5

var stepModes = [StepCount]Mode{
	ModeFocus,
	ModeShortBreak,
	ModeFocus,
	ModeShortBreak,
	ModeLongBreak,
}

var stepNames = [StepCount]string{
	"focus-1",
	"short-break-1",
	"focus-2",
	"short-break-2",
	"long-break",
}

func (m Mode) IsValid() bool {
	switch m {
	case ModeFocus, ModeShortBreak, ModeLongBreak:
		return true
	default:
		return false
	}
}

func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// ModeForStep maps a cycle step to its mode. Out of range steps wrap.
func ModeForStep(step int) Mode {
	return stepModes[normalizeStep(step)]
}

func StepName(step int) string {
	return stepNames[normalizeStep(step)]
}

// StepForMode picks the step a user-selected mode lands on. While in the
// second half of the cycle (steps 2 and 3) focus and short break stay there.
func StepForMode(mode Mode, current int) int {
	secondHalf := current == 2 || current == 3
	switch mode {
	case ModeFocus:
		if secondHalf {
			return 2
		}
		return 0
	case ModeShortBreak:
		if secondHalf {
			return 3
		}
		return 1
	case ModeLongBreak:
		return 4
	default:
		return normalizeStep(current)
	}
}

// ParseMode accepts the canonical names plus the short forms used by the
// command palette.
func ParseMode(raw string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "focus", "f", "work":
		return ModeFocus, true
	case "short-break", "short_break", "short", "s", "break":
		return ModeShortBreak, true
	case "long-break", "long_break", "long", "l":
		return ModeLongBreak, true
	default:
		return "", false
	}
}

func normalizeStep(step int) int {
	step %= StepCount
	if step < 0 {
		step += StepCount
	}
	return step
}
