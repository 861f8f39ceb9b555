package exec

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockCommander records command calls and returns preset responses.
type MockCommander struct {
	mu sync.Mutex

	// Responses is keyed by "command arg1 arg2 ...".
	Responses map[string]CommandResponse

	Calls []CommandCall
}

// CommandCall records a single command execution.
type CommandCall struct {
	Dir     string
	Command string
	Args    []string
}

// String returns the call as it would be typed in a shell, without quoting.
func (c CommandCall) String() string {
	return buildCommandKey(c.Command, c.Args)
}

// CommandResponse is the preset result of one command.
type CommandResponse struct {
	Output []byte
	Err    error
}

// NewMockCommander creates an empty MockCommander.
func NewMockCommander() *MockCommander {
	return &MockCommander{
		Responses: make(map[string]CommandResponse),
		Calls:     make([]CommandCall, 0),
	}
}

// Run records the call and returns the preset response. Commands without a
// preset response succeed with no output.
func (m *MockCommander) Run(ctx context.Context, dir string, command string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, CommandCall{Dir: dir, Command: command, Args: args})

	if resp, ok := m.Responses[buildCommandKey(command, args)]; ok {
		return resp.Output, resp.Err
	}
	return nil, nil
}

// SetResponse configures the response for command with exactly args.
func (m *MockCommander) SetResponse(command string, args []string, output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[buildCommandKey(command, args)] = CommandResponse{Output: output, Err: err}
}

// SetGitResponse is SetResponse for git.
func (m *MockCommander) SetGitResponse(output string, err error, args ...string) {
	m.SetResponse("git", args, []byte(output), err)
}

// LastCall returns the most recent call, or nil.
func (m *MockCommander) LastCall() *CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	return &m.Calls[len(m.Calls)-1]
}

// CallCount returns the number of recorded calls.
func (m *MockCommander) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// WasCalled reports whether command ran with exactly args.
func (m *MockCommander) WasCalled(command string, args ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := buildCommandKey(command, args)
	for _, call := range m.Calls {
		if call.String() == key {
			return true
		}
	}
	return false
}

// CallLog returns every recorded call in order, one string per call.
func (m *MockCommander) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := make([]string, len(m.Calls))
	for i, call := range m.Calls {
		log[i] = call.String()
	}
	return log
}

// Reset clears all recorded calls and responses.
func (m *MockCommander) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]CommandCall, 0)
	m.Responses = make(map[string]CommandResponse)
}

func buildCommandKey(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return fmt.Sprintf("%s %s", command, strings.Join(args, " "))
}
