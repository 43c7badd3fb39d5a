package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/jsamuelsen/quote-session/internal/platform/config"
)

// featureContext holds state shared across step definitions within a scenario.
type featureContext struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
	user   string

	status int
	body   []byte
}

func (fc *featureContext) reset() {
	if fc.server != nil {
		fc.server.Close()
	}

	fc.server = nil
	fc.user = ""
	fc.status = 0
	fc.body = nil
}

// theServiceIsRunning starts a fresh in-process service for the scenario.
func (fc *featureContext) theServiceIsRunning() error {
	engine := newTestRouter(fc.t, discardLogger(), config.IdentityConfig{UserHeader: "X-User-ID"})
	fc.server = httptest.NewServer(engine)

	return fc.request(http.MethodGet, "/-/live", "")
}

func (fc *featureContext) iAmSignedInAs(user string) error {
	fc.user = user
	return nil
}

func (fc *featureContext) iRequest(method, path string) error {
	return fc.request(method, path, "")
}

func (fc *featureContext) iRequestWithBody(method, path string, body *godog.DocString) error {
	return fc.request(method, path, body.Content)
}

func (fc *featureContext) request(method, path, body string) error {
	if fc.server == nil {
		return fmt.Errorf("service is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fc.server.URL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if fc.user != "" {
		req.Header.Set("X-User-ID", fc.user)
	}

	resp, err := fc.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	fc.status = resp.StatusCode

	fc.body, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

func (fc *featureContext) theResponseStatusShouldBe(want int) error {
	if fc.status != want {
		return fmt.Errorf("expected status %d, got %d. Body: %s", want, fc.status, fc.body)
	}

	return nil
}

func (fc *featureContext) theResponseShouldContain(text string) error {
	if !strings.Contains(string(fc.body), text) {
		return fmt.Errorf("response body does not contain %q.\nBody: %s", text, fc.body)
	}

	return nil
}

// theJSONFieldShouldBe compares a top-level field in its JSON text form.
func (fc *featureContext) theJSONFieldShouldBe(field, want string) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(fc.body, &doc); err != nil {
		return fmt.Errorf("response is not a JSON object: %w. Body: %s", err, fc.body)
	}

	raw, ok := doc[field]
	if !ok {
		return fmt.Errorf("field %q missing. Body: %s", field, fc.body)
	}

	got := strings.Trim(string(raw), `"`)
	if got != want {
		return fmt.Errorf("field %q is %s, want %s", field, got, want)
	}

	return nil
}

func initializeScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(sc *godog.ScenarioContext) {
		fc := &featureContext{t: t, client: &http.Client{Timeout: 10 * time.Second}}

		sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
			fc.reset()
			return ctx, err
		})

		sc.Step(`^the service is running$`, fc.theServiceIsRunning)
		sc.Step(`^I am signed in as "([^"]*)"$`, fc.iAmSignedInAs)
		sc.Step(`^I request (GET|POST|PUT|DELETE) "([^"]*)"$`, fc.iRequest)
		sc.Step(`^I request (GET|POST|PUT|DELETE) "([^"]*)" with body:$`, fc.iRequestWithBody)
		sc.Step(`^the response status should be (\d+)$`, fc.theResponseStatusShouldBe)
		sc.Step(`^the response should contain "([^"]*)"$`, fc.theResponseShouldContain)
		sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, fc.theJSONFieldShouldBe)
	}
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
