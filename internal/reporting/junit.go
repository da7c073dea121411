// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.chromium.org/dutconsole/errors"
)

// JUnitFilename is the name of the JUnit XML results file under the output
// directory.
const JUnitFilename = "results.xml"

// TestSuites is the top level XML element of JUnit result.
type TestSuites struct {
	XMLName   xml.Name
	TestSuite TestSuite `xml:"testsuite"`
}

// TestSuite is an XML element in JUnit result.
// Errors are not generated: every outcome other than a pass is a failure.
type TestSuite struct {
	Name     string      `xml:"name,attr"`
	ID       string      `xml:"id,attr,omitempty"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Skipped  int         `xml:"skipped,attr"`
	TestCase []*TestCase `xml:"testcase"`
}

// TestCase is an element in JUnit XML test result.
type TestCase struct {
	Name      string `xml:"name,attr"`
	Status    string `xml:"status,attr"`         // run or notrun
	Result    string `xml:"result,attr"`         // more detailed result
	Timestamp string `xml:"timestamp,attr"`      // start time, in ISO8601
	Time      string `xml:"time,attr,omitempty"` // duration, in seconds (with a decimal point)

	Failure *Failure `xml:"failure,omitempty"`
	Skipped *Skipped `xml:"skipped,omitempty"`
}

// Failure is an element in JUnit XML test result, representing a test case failure.
type Failure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
}

// Skipped is an element in JUnit XML test result, representing a test that
// was never started.
type Skipped struct {
	Message string `xml:"message,attr,omitempty"`
}

func caseName(id int, name string) string {
	if name == "" {
		return strconv.Itoa(id)
	}
	return fmt.Sprintf("%d %s", id, name)
}

// ToJUnitResults marshals res into JUnit XML format. Tests in the requested
// range that never started are reported as skipped.
func ToJUnitResults(res *Results, name func(id int) string) ([]byte, error) {
	suites := TestSuites{
		XMLName: xml.Name{Local: "testsuites"},
		TestSuite: TestSuite{
			Name: res.Endpoint,
			ID:   res.RunID,
		},
	}
	suite := &suites.TestSuite
	seen := make(map[int]bool)
	for _, t := range res.Tests {
		seen[t.ID] = true
		tc := &TestCase{
			Name:      caseName(t.ID, t.Name),
			Status:    "run",
			Result:    "completed",
			Timestamp: t.Start.UTC().Format("2006-01-02Z15:04:05"),
			// Decimal point is needed for distinguishing it from nanoseconds notation.
			// e.g. "1.0" for one second.
			Time: fmt.Sprintf("%.1f", t.End.Sub(t.Start).Seconds()),
		}
		if t.Outcome != "passed" {
			tc.Failure = &Failure{
				Message: fmt.Sprintf("%s after %d attempt(s)", t.Outcome, t.Attempts),
				Type:    t.Outcome,
			}
			suite.Failures++
		}
		suite.TestCase = append(suite.TestCase, tc)
	}
	for id := res.First; id >= 1 && id <= res.Last; id++ {
		if seen[id] {
			continue
		}
		var n string
		if name != nil {
			n = name(id)
		}
		suite.TestCase = append(suite.TestCase, &TestCase{
			Name:    caseName(id, n),
			Status:  "notrun",
			Result:  "skipped",
			Skipped: &Skipped{Message: "run stopped before this test"},
		})
		suite.Skipped++
	}
	suite.Tests = len(suite.TestCase)
	return xml.MarshalIndent(suites, "", "  ")
}

// WriteJUnit writes res to JUnitFilename in dir.
func WriteJUnit(dir string, res *Results, name func(id int) string) error {
	b, err := ToJUnitResults(res, name)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JUnit results")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	return os.WriteFile(filepath.Join(dir, JUnitFilename), b, 0644)
}
