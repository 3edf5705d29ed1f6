package command

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a polling
// test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testApp runs records-cli invocations against one temporary data path.
type testApp struct {
	dir        string
	dataPath   string
	configPath string
}

type result struct {
	out string
	err string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	return &testApp{
		dir:        dir,
		dataPath:   filepath.Join(dir, "records.db"),
		configPath: filepath.Join(dir, "cli.yaml"),
	}
}

func (ta *testApp) args(args ...string) []string {
	return append([]string{"records-cli", "--config", ta.configPath, "--data", ta.dataPath}, args...)
}

// run executes one invocation with stdin.
func (ta *testApp) runInput(ctx context.Context, stdin string, args ...string) (result, error) {
	app := App()
	out, errOut := &syncBuffer{}, &syncBuffer{}
	app.Writer = out
	app.ErrWriter = errOut
	app.Reader = strings.NewReader(stdin)

	err := app.RunContext(ctx, ta.args(args...))
	return result{out: out.String(), err: errOut.String()}, err
}

func (ta *testApp) run(args ...string) (result, error) {
	return ta.runInput(context.Background(), "", args...)
}

// mustRun fails the test when the invocation fails.
func (ta *testApp) mustRun(t *testing.T, args ...string) result {
	t.Helper()
	res, err := ta.run(args...)
	if err != nil {
		t.Fatalf("records-cli %s: %v\nstderr: %s", strings.Join(args, " "), err, res.err)
	}
	return res
}
