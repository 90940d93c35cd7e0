package reporting

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spboyer/hirebench/internal/models"
	"github.com/spboyer/hirebench/internal/scoring"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one module.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one check.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a check that did not clear its bar.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a validator that failed while grading.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a test as skipped.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

const errorCheckPrefix = "Validator error ("

// ConvertToJUnit converts an EvaluationResult to JUnit XML format: one suite
// per module and one test case per check. A module that did not run is a
// suite with a single skipped case.
func ConvertToJUnit(res *models.EvaluationResult, info models.RunInfo) *JUnitTestSuites {
	suites := &JUnitTestSuites{
		Name: "hirebench",
		Time: float64(info.DurationMs) / 1000.0,
	}
	timestamp := info.Timestamp.Format(time.RFC3339)

	for _, m := range res.Modules {
		cfg, _ := scoring.Lookup(m.Name)
		suite := JUnitTestSuite{
			Name:      m.Name,
			Timestamp: timestamp,
			Properties: []JUnitProperty{
				{Name: "score", Value: fmt.Sprintf("%d", m.Score)},
				{Name: "max", Value: fmt.Sprintf("%d", m.Max)},
				{Name: "weight", Value: fmt.Sprintf("%.2f", cfg.Weight)},
			},
		}

		if len(m.Checks) == 0 {
			suite.Tests = 1
			suite.Skipped = 1
			suite.TestCases = []JUnitTestCase{{
				Name:      m.Name,
				Classname: classname(m.Name),
				Skipped:   &JUnitSkipped{Message: "module not evaluated"},
			}}
		}

		for _, c := range m.Checks {
			tc := JUnitTestCase{
				Name:      c.Name,
				Classname: classname(m.Name),
			}
			switch {
			case strings.HasPrefix(c.Name, errorCheckPrefix):
				tc.Error = &JUnitError{Message: c.Details, Type: "ValidatorError"}
				suite.Errors++
			case !c.Passed:
				tc.Failure = &JUnitFailure{
					Message: fmt.Sprintf("%s: %d/%d pts", c.Name, c.PointsAwarded, c.MaxPoints),
					Type:    "CheckFailure",
					Body:    c.Details,
				}
				suite.Failures++
			}
			suite.Tests++
			suite.TestCases = append(suite.TestCases, tc)
		}

		suites.Tests += suite.Tests
		suites.Failures += suite.Failures
		suites.Errors += suite.Errors
		suites.TestSuites = append(suites.TestSuites, suite)
	}

	return suites
}

func classname(module string) string {
	return "hirebench." + module
}

// EncodeJUnit writes the JUnit XML document for res to w.
func EncodeJUnit(w io.Writer, res *models.EvaluationResult, info models.RunInfo) error {
	data, err := xml.MarshalIndent(ConvertToJUnit(res, info), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
