package reporting

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
)

// JUnit collects results and writes a JUnit XML document on Close. Journeys
// are grouped into one testsuite per name prefix ("login", "checkout").
type JUnit struct {
	mu      sync.Mutex
	w       io.Writer
	name    string
	env     Environment
	groups  []string
	results map[string][]Result
	closed  bool
}

var _ Sink = (*JUnit)(nil)

func NewJUnit(w io.Writer, name string, env Environment) *JUnit {
	return &JUnit{w: w, name: name, env: env, results: make(map[string][]Result)}
}

func (j *JUnit) Record(_ context.Context, r Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return fmt.Errorf("junit report %s is closed", j.name)
	}
	group := groupOf(r.Journey)
	if _, ok := j.results[group]; !ok {
		j.groups = append(j.groups, group)
	}
	j.results[group] = append(j.results[group], r)
	return nil
}

func (j *JUnit) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true

	doc := j.document()
	if _, err := doc.WriteTo(j.w); err != nil {
		return fmt.Errorf("failed to write junit report: %w", err)
	}
	return nil
}

func (j *JUnit) document() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("testsuites")
	root.CreateAttr("name", j.name)

	var total counts
	for _, group := range j.groups {
		c := j.suite(root, group, j.results[group])
		total.add(c)
	}
	total.attrs(root)

	doc.Indent(2)
	return doc
}

func (j *JUnit) suite(parent *etree.Element, group string, results []Result) counts {
	suite := parent.CreateElement("testsuite")
	suite.CreateAttr("name", group)

	var c counts
	var started time.Time
	for _, r := range results {
		if started.IsZero() || (!r.StartedAt.IsZero() && r.StartedAt.Before(started)) {
			started = r.StartedAt
		}
	}
	if !started.IsZero() {
		suite.CreateAttr("timestamp", started.UTC().Format(time.RFC3339))
	}

	props := suite.CreateElement("properties")
	for _, p := range j.env.Properties() {
		prop := props.CreateElement("property")
		prop.CreateAttr("name", p.Name)
		prop.CreateAttr("value", p.Value)
	}

	for _, r := range results {
		c.observe(r)
		testCase(suite, group, r)
	}
	c.attrs(suite)
	return c
}

func testCase(suite *etree.Element, group string, r Result) {
	tc := suite.CreateElement("testcase")
	tc.CreateAttr("name", r.Journey)
	tc.CreateAttr("classname", group)
	tc.CreateAttr("time", seconds(r.Duration))

	switch r.Status {
	case StatusFailed:
		f := tc.CreateElement("failure")
		f.CreateAttr("message", r.Message)
		f.CreateAttr("type", "AssertionError")
		f.SetText(details(r))
	case StatusError:
		f := tc.CreateElement("error")
		f.CreateAttr("message", r.Message)
		f.CreateAttr("type", "InteractionError")
		f.SetText(details(r))
	case StatusSkipped:
		s := tc.CreateElement("skipped")
		s.CreateAttr("message", r.Message)
	}

	if len(r.Steps) > 0 || r.Description != "" {
		out := tc.CreateElement("system-out")
		out.SetText(transcript(r))
	}
	if r.Screenshot != "" {
		// Understood by the Jenkins and GitLab JUnit attachment conventions.
		tc.CreateElement("system-err").SetText("[[ATTACHMENT|" + r.Screenshot + "]]")
	}
}

func details(r Result) string {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, kv := range [][2]string{{"page", r.Page}, {"op", r.Op}, {"locator", r.Locator}, {"url", r.URL}, {"screenshot", r.Screenshot}} {
		if kv[1] != "" {
			fmt.Fprintf(&b, "\n%s: %s", kv[0], kv[1])
		}
	}
	return b.String()
}

func transcript(r Result) string {
	var b strings.Builder
	if r.Description != "" {
		b.WriteString(r.Description)
		b.WriteByte('\n')
	}
	for _, s := range r.Steps {
		if s.Rejected {
			fmt.Fprintf(&b, "%s --%s--x (%s)\n", s.From, s.Action, s.Message)
			continue
		}
		fmt.Fprintf(&b, "%s --%s--> %s\n", s.From, s.Action, s.To)
	}
	return b.String()
}

type counts struct {
	tests, failures, errors, skipped int
	elapsed                          time.Duration
}

func (c *counts) observe(r Result) {
	c.tests++
	c.elapsed += r.Duration
	switch r.Status {
	case StatusFailed:
		c.failures++
	case StatusError:
		c.errors++
	case StatusSkipped:
		c.skipped++
	}
}

func (c *counts) add(o counts) {
	c.tests += o.tests
	c.failures += o.failures
	c.errors += o.errors
	c.skipped += o.skipped
	c.elapsed += o.elapsed
}

func (c counts) attrs(el *etree.Element) {
	el.CreateAttr("tests", strconv.Itoa(c.tests))
	el.CreateAttr("failures", strconv.Itoa(c.failures))
	el.CreateAttr("errors", strconv.Itoa(c.errors))
	el.CreateAttr("skipped", strconv.Itoa(c.skipped))
	el.CreateAttr("time", seconds(c.elapsed))
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func groupOf(journey string) string {
	group, _, _ := strings.Cut(journey, "/")
	return group
}
