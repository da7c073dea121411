// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fakedut

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"go.chromium.org/dutconsole/errors"
)

// Step is the scripted behavior of one run of a test. It is one of "pass",
// "fail", "reboot", "hang" or "custom:<text>". A custom step prints text and
// then reports success.
type Step string

// Steps understood by the emulator.
const (
	StepPass   Step = "pass"
	StepFail   Step = "fail"
	StepReboot Step = "reboot"
	StepHang   Step = "hang"

	customPrefix = "custom:"
)

func (s Step) validate() error {
	switch s {
	case StepPass, StepFail, StepReboot, StepHang:
		return nil
	}
	if strings.HasPrefix(string(s), customPrefix) {
		return nil
	}
	return errors.Errorf("unknown step %q", s)
}

// Test describes an emulated test.
type Test struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`
	Group string `yaml:"group"`
	// Steps are used by successive runs of the test. The last step repeats
	// once they are exhausted. An empty list always passes.
	Steps []Step `yaml:"steps"`
}

func (t *Test) displayName() string {
	if t.Name == "" {
		return fmt.Sprintf("test %d", t.Index)
	}
	return t.Name
}

// Scenario describes an emulated device.
type Scenario struct {
	Tests []*Test `yaml:"tests"`
	// LineDelay is inserted before every line the device prints.
	LineDelay time.Duration `yaml:"lineDelay"`
}

// ParseScenario parses a YAML scenario.
func ParseScenario(b []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.UnmarshalStrict(b, &sc); err != nil {
		return nil, errors.Wrap(err, "failed to parse scenario")
	}
	seen := make(map[int]bool)
	for _, t := range sc.Tests {
		if t.Index < 1 {
			return nil, errors.Errorf("test %q has invalid index %d", t.Name, t.Index)
		}
		if seen[t.Index] {
			return nil, errors.Errorf("duplicate test index %d", t.Index)
		}
		seen[t.Index] = true
		for _, s := range t.Steps {
			if err := s.validate(); err != nil {
				return nil, errors.Wrapf(err, "test %d", t.Index)
			}
		}
	}
	if sc.LineDelay < 0 {
		return nil, errors.New("lineDelay must not be negative")
	}
	return &sc, nil
}

// LoadScenario reads a YAML scenario from path.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(b)
}

// PassingScenario returns a scenario with n tests that always pass.
func PassingScenario(n int) *Scenario {
	sc := &Scenario{}
	for i := 1; i <= n; i++ {
		sc.Tests = append(sc.Tests, &Test{Index: i})
	}
	return sc
}
