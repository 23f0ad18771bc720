package e2e

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the podium auth service is running$`, tc.serviceIsRunning)
	ctx.Step(`^I start a new browser$`, tc.startNewBrowser)

	ctx.Step(`^I open "([^"]*)"$`, tc.open)
	ctx.Step(`^I sign up as "([^"]*)" with password "([^"]*)"$`, tc.signUp)
	ctx.Step(`^I sign in as "([^"]*)" with password "([^"]*)"$`, tc.signIn)
	ctx.Step(`^I sign out$`, tc.signOut)
	ctx.Step(`^I POST to "([^"]*)" with body:$`, tc.postWithBody)

	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^I should be redirected to "([^"]*)"$`, tc.redirectedTo)
	ctx.Step(`^I should be redirected to a page starting with "([^"]*)"$`, tc.redirectedToPrefix)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should start with "([^"]*)"$`, tc.fieldShouldStartWith)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, tc.fieldShouldBeBool)
	ctx.Step(`^the response should not contain "([^"]*)"$`, tc.responseShouldNotContain)
}

func (tc *TestContext) serviceIsRunning(context.Context) error {
	if err := tc.GET("/health/live"); err != nil {
		return err
	}
	if tc.Status() != http.StatusOK {
		return fmt.Errorf("service not live: status %d", tc.Status())
	}
	return nil
}

func (tc *TestContext) startNewBrowser(context.Context) error {
	runID := tc.RunID
	tc.Reset()
	tc.RunID = runID
	return nil
}

func (tc *TestContext) open(_ context.Context, path string) error {
	return tc.GET(tc.Expand(path))
}

func (tc *TestContext) signUp(_ context.Context, email, password string) error {
	return tc.POST("/auth/signup", map[string]string{"email": tc.Expand(email), "password": password})
}

func (tc *TestContext) signIn(_ context.Context, email, password string) error {
	return tc.POST("/auth/login", map[string]string{"email": tc.Expand(email), "password": password})
}

func (tc *TestContext) signOut(context.Context) error {
	return tc.POST("/auth/logout", map[string]string{})
}

func (tc *TestContext) postWithBody(_ context.Context, path string, body *godog.DocString) error {
	return tc.POSTRaw(path, body.Content)
}

func (tc *TestContext) responseStatusShouldBe(_ context.Context, expected int) error {
	if tc.Status() != expected {
		return fmt.Errorf("expected status %d but got %d", expected, tc.Status())
	}
	return nil
}

func (tc *TestContext) redirectedTo(_ context.Context, target string) error {
	if tc.Status() != http.StatusFound {
		return fmt.Errorf("expected a 302 but got %d", tc.Status())
	}
	if tc.Location() != target {
		return fmt.Errorf("expected redirect to %q but got %q", target, tc.Location())
	}
	return nil
}

func (tc *TestContext) redirectedToPrefix(_ context.Context, prefix string) error {
	if tc.Status() != http.StatusFound {
		return fmt.Errorf("expected a 302 but got %d", tc.Status())
	}
	if !strings.HasPrefix(tc.Location(), prefix) {
		return fmt.Errorf("expected redirect starting with %q but got %q", prefix, tc.Location())
	}
	return nil
}

func (tc *TestContext) fieldShouldEqual(_ context.Context, field, expected string) error {
	v, err := tc.Field(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(v) != tc.Expand(expected) {
		return fmt.Errorf("expected %s to be %q but got %q", field, tc.Expand(expected), fmt.Sprint(v))
	}
	return nil
}

func (tc *TestContext) fieldShouldStartWith(_ context.Context, field, prefix string) error {
	v, err := tc.Field(field)
	if err != nil {
		return err
	}
	if s, _ := v.(string); !strings.HasPrefix(s, prefix) {
		return fmt.Errorf("expected %s to start with %q but got %v", field, prefix, v)
	}
	return nil
}

func (tc *TestContext) fieldShouldBeBool(_ context.Context, field, expected string) error {
	v, err := tc.Field(field)
	if err != nil {
		return err
	}
	if b, ok := v.(bool); !ok || fmt.Sprint(b) != expected {
		return fmt.Errorf("expected %s to be %s but got %v", field, expected, v)
	}
	return nil
}

func (tc *TestContext) responseShouldNotContain(_ context.Context, text string) error {
	if strings.Contains(string(tc.LastResponseBody), text) {
		return fmt.Errorf("response unexpectedly contains %q", text)
	}
	return nil
}
