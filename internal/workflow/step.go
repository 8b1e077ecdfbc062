package workflow

import (
	"fmt"
	"strings"
)

// Step names a stage of the verification workflow.
type Step int

const (
	StepWallet Step = iota
	StepExtraction
	StepLiveness
	StepPublish
)

// Steps lists every step in workflow order.
var Steps = []Step{StepWallet, StepExtraction, StepLiveness, StepPublish}

const stepCount = 4

var stepNames = [stepCount]string{"wallet", "extraction", "liveness", "publish"}

func (s Step) String() string {
	if s.valid() {
		return stepNames[s]
	}
	return fmt.Sprintf("step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, int(s))
	}
	return []byte(stepNames[s]), nil
}

func (s *Step) UnmarshalText(text []byte) error {
	parsed, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStep resolves a step by name.
func ParseStep(name string) (Step, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}

func (s Step) valid() bool {
	return s >= 0 && int(s) < stepCount
}
