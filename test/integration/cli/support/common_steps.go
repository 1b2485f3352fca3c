package support

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/imgstats/cmd/imgstats/cmd"
)

// iRunCommand executes an imgstats command line in process. The first word
// must be "imgstats"; {tmp} expands to the scenario directory.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] != "imgstats" {
		return fmt.Errorf("unsupported command %q", parts[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(testCtx.Stdin))
	root.SetArgs(parts[1:])

	err := root.ExecuteContext(ctx)
	testCtx.LastOutput = stdout.String()
	testCtx.LastLogs = stderr.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)
	testCtx.Stdin = ""

	if err != nil {
		testCtx.LastExitCode = 1
	} else {
		testCtx.LastExitCode = 0
	}
	return nil
}

// iRunCommandWithStdin feeds the content of a scenario file to the command.
func (testCtx *TestContext) iRunCommandWithStdin(command, file string) error {
	data, err := os.ReadFile(testCtx.Path(file))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	testCtx.Stdin = string(data)
	return testCtx.iRunCommand(command)
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nLogs: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastLogs)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theErrorShouldMention verifies the error message contains text.
func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if testCtx.LastError == nil {
		return errors.New("expected an error, got none")
	}
	if !strings.Contains(testCtx.LastError.Error(), text) {
		return fmt.Errorf("error %q does not mention %q", testCtx.LastError, text)
	}
	return nil
}

// theOutputShouldContain verifies stdout contains text.
func (testCtx *TestContext) theOutputShouldContain(text string) error {
	if !strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output does not contain %q\nOutput: %s", text, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContainText is theOutputShouldContain for text with quotes.
func (testCtx *TestContext) theOutputShouldContainText(text *godog.DocString) error {
	return testCtx.theOutputShouldContain(text.Content)
}

// theOutputShouldNotContain verifies stdout lacks text.
func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains %q\nOutput: %s", text, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBeEmpty verifies nothing was written to stdout.
func (testCtx *TestContext) theOutputShouldBeEmpty() error {
	if testCtx.LastOutput != "" {
		return fmt.Errorf("expected empty output, got: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBe compares stdout with a doc string.
func (testCtx *TestContext) theOutputShouldBe(expected *godog.DocString) error {
	want := expected.Content + "\n"
	if testCtx.LastOutput != want {
		return fmt.Errorf("output mismatch\nwant:\n%s\ngot:\n%s", want, testCtx.LastOutput)
	}
	return nil
}

// theLogsShouldContain verifies stderr contains text.
func (testCtx *TestContext) theLogsShouldContain(text string) error {
	if !strings.Contains(testCtx.LastLogs, text) {
		return fmt.Errorf("logs do not contain %q\nLogs: %s", text, testCtx.LastLogs)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies stdout parses as JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var js json.RawMessage
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &js); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBeValidCSVWithRows verifies stdout parses as CSV with n rows
// below the header.
func (testCtx *TestContext) theOutputShouldBeValidCSVWithRows(n int) error {
	records, err := csv.NewReader(strings.NewReader(testCtx.LastOutput)).ReadAll()
	if err != nil {
		return fmt.Errorf("output is not valid CSV: %w", err)
	}
	if len(records)-1 != n {
		return fmt.Errorf("expected %d CSV rows, got %d\nOutput: %s", n, len(records)-1, testCtx.LastOutput)
	}
	return nil
}

// theFileShouldExist verifies a scenario file exists.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(testCtx.Path(name)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", name, err)
	}
	return nil
}

// theFileShouldContain verifies a scenario file contains text.
func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain %q\nContent: %s", name, text, data)
	}
	return nil
}

// theFileShouldContainText is theFileShouldContain for text with quotes.
func (testCtx *TestContext) theFileShouldContainText(name string, text *godog.DocString) error {
	return testCtx.theFileShouldContain(name, text.Content)
}

// iSaveTheOutputAs remembers stdout under a name.
func (testCtx *TestContext) iSaveTheOutputAs(name string) error {
	testCtx.SavedOutputs[name] = testCtx.LastOutput
	return nil
}

// theOutputShouldEqualSaved compares stdout with a remembered output.
func (testCtx *TestContext) theOutputShouldEqualSaved(name string) error {
	saved, ok := testCtx.SavedOutputs[name]
	if !ok {
		return fmt.Errorf("no output saved as %q", name)
	}
	if saved != testCtx.LastOutput {
		return fmt.Errorf("output differs from %q\nsaved:\n%s\ngot:\n%s", name, saved, testCtx.LastOutput)
	}
	return nil
}

// RegisterCommonSteps registers the command and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^I run "([^"]*)" with "([^"]*)" on stdin$`, testCtx.iRunCommandWithStdin)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should contain:$`, testCtx.theOutputShouldContainText)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be empty$`, testCtx.theOutputShouldBeEmpty)
	sc.Step(`^the output should be:$`, testCtx.theOutputShouldBe)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the output should be valid CSV with (\d+) rows?$`, testCtx.theOutputShouldBeValidCSVWithRows)
	sc.Step(`^the logs should contain "([^"]*)"$`, testCtx.theLogsShouldContain)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the file "([^"]*)" should contain:$`, testCtx.theFileShouldContainText)

	sc.Step(`^I save the output as "([^"]*)"$`, testCtx.iSaveTheOutputAs)
	sc.Step(`^the output should equal the saved "([^"]*)"$`, testCtx.theOutputShouldEqualSaved)
}
