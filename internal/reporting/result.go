package reporting

import (
	"runtime"
	"time"

	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

// Status is the verdict of one journey run.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Step is one recorded page transition.
type Step struct {
	From     string    `json:"from"`
	Action   string    `json:"action"`
	To       string    `json:"to"`
	Rejected bool      `json:"rejected,omitempty"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

// Result is the outcome of a single journey.
type Result struct {
	ID          string        `json:"id"`
	RunID       string        `json:"run_id"`
	Journey     string        `json:"journey"`
	Description string        `json:"description,omitempty"`
	Browser     string        `json:"browser"`
	SessionID   string        `json:"session_id,omitempty"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`

	// Where a failing journey broke.
	Page    string `json:"page,omitempty"`
	Op      string `json:"op,omitempty"`
	Locator string `json:"locator,omitempty"`
	URL     string `json:"url,omitempty"`

	Steps []Step `json:"steps,omitempty"`

	// Screenshot is the saved artifact path. ScreenshotPNG carries the raw
	// capture until the reporter writes it out.
	Screenshot    string `json:"screenshot,omitempty"`
	ScreenshotPNG []byte `json:"-"`
}

// Failed reports whether the journey counts against the run.
func (r Result) Failed() bool {
	return r.Status == StatusFailed || r.Status == StatusError
}

// Environment describes where a run happened. It becomes the JUnit
// properties block.
type Environment struct {
	Application string
	Environment string
	Browser     string
	Headless    bool
	BaseURL     string
	OS          string
	GoVersion   string
}

// EnvironmentFrom collects the run environment from the configuration and
// the runtime.
func EnvironmentFrom(cfg config.Interface) Environment {
	return Environment{
		Application: cfg.App().Name,
		Environment: cfg.App().Environment,
		Browser:     cfg.Browser().Name,
		Headless:    cfg.Browser().Headless,
		BaseURL:     cfg.App().BaseURL,
		OS:          runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion:   runtime.Version(),
	}
}

// Property is a name/value pair in report order.
type Property struct{ Name, Value string }

func (e Environment) Properties() []Property {
	headless := "false"
	if e.Headless {
		headless = "true"
	}
	return []Property{
		{"application", e.Application},
		{"environment", e.Environment},
		{"browser", e.Browser},
		{"headless", headless},
		{"base_url", e.BaseURL},
		{"os", e.OS},
		{"go_version", e.GoVersion},
	}
}
