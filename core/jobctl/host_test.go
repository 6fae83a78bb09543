package jobctl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/josephlewis42/jobsh/core/cmdlist"
	"github.com/josephlewis42/jobsh/core/logger"
	"github.com/josephlewis42/jobsh/core/vos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain doubles as the entry point of detached jobs, which re-execute the
// test binary.
func TestMain(m *testing.M) {
	if encoded, ok := os.LookupEnv(JobEnv); ok {
		os.Unsetenv(JobEnv)
		os.Exit(RunDetachedJob(encoded, vos.NewHostOS(nil), os.Stderr, logger.NopRecorder{}))
	}

	os.Exit(m.Run())
}

type hostRunner struct {
	*Runner
	host    *vos.HostOS
	dir     string
	outPath string
	diag    *bytes.Buffer
}

func newHostRunner(t *testing.T) *hostRunner {
	t.Helper()

	dir := t.TempDir()
	devNull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	t.Cleanup(func() { devNull.Close() })

	outPath := filepath.Join(dir, "stdout")
	out, err := os.Create(outPath)
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })

	host := vos.NewHostOS(vos.NewStdio(devNull, out, out))
	diag := &bytes.Buffer{}
	return &hostRunner{
		Runner: &Runner{
			Launcher:   &Launcher{OS: host, Diag: diag},
			Detacher:   &SelfExec{OS: host},
			Foreground: true,
		},
		host:    host,
		dir:     dir,
		outPath: outPath,
		diag:    diag,
	}
}

func (hr *hostRunner) run(t *testing.T, format string, args ...interface{}) {
	t.Helper()

	list, err := cmdlist.Parse(fmt.Sprintf(format, args...), hr.diag)
	require.NoError(t, err)
	defer list.Release()

	require.NoError(t, hr.Run(list))
}

func (hr *hostRunner) path(name string) string {
	return filepath.Join(hr.dir, name)
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func openFds(t *testing.T) int {
	t.Helper()

	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("no /proc/self/fd:", err)
	}
	return len(entries)
}

func TestHost_pipeline(t *testing.T) {
	hr := newHostRunner(t)

	hr.run(t, `printf 'b\na\nb\n' | sort | uniq -c | wc -l`)

	assert.Equal(t, "2", trimSpace(readFile(t, hr.outPath)))
	assert.Equal(t, vos.ExitedWith(0), hr.Last)
}

func TestHost_pipelineStatusIsLast(t *testing.T) {
	hr := newHostRunner(t)

	hr.run(t, "false | true")
	assert.Equal(t, vos.ExitedWith(0), hr.Last)

	hr.run(t, "true | false")
	assert.Equal(t, vos.ExitedWith(1), hr.Last)
}

func TestHost_pipelineBytes(t *testing.T) {
	hr := newHostRunner(t)
	input := hr.path("input")
	require.NoError(t, os.WriteFile(input, []byte("line one\nline two\n\x00binary\n"), 0644))

	hr.run(t, "cat %s | cat | cat > %s", input, hr.path("copy"))

	assert.Equal(t, readFile(t, input), readFile(t, hr.path("copy")))
}

func TestHost_redirection(t *testing.T) {
	hr := newHostRunner(t)
	f := hr.path("f.txt")
	require.NoError(t, os.WriteFile(f, []byte("previous contents that are longer\n"), 0644))

	hr.run(t, "echo hi > %s", f)
	assert.Equal(t, "hi\n", readFile(t, f), "target is truncated")
	assert.Empty(t, readFile(t, hr.outPath), "shell stdout is untouched")

	hr.run(t, "cat < %s > %s", f, hr.path("g.txt"))
	assert.Equal(t, "hi\n", readFile(t, hr.path("g.txt")))

	hr.run(t, "ls %s 2> %s", hr.path("nothing-here"), hr.path("err.txt"))
	assert.NotEmpty(t, readFile(t, hr.path("err.txt")))
	assert.False(t, hr.Last.Success())
}

func TestHost_redirectionMissingDirectory(t *testing.T) {
	hr := newHostRunner(t)
	target := hr.path("no/such/dir/out")

	hr.run(t, "echo hi > %s", target)

	assert.Equal(t, target+": no such file or directory\n", hr.diag.String())
	assert.Equal(t, vos.ExitedWith(1), hr.Last)
	assert.NoFileExists(t, target)
}

func TestHost_commandNotFound(t *testing.T) {
	hr := newHostRunner(t)

	hr.run(t, "jobsh-no-such-program || echo recovered")

	assert.Equal(t, "jobsh-no-such-program: command not found\n", hr.diag.String())
	assert.Equal(t, "recovered\n", readFile(t, hr.outPath))
}

func TestHost_chdir(t *testing.T) {
	t.Chdir(t.TempDir())
	hr := newHostRunner(t)
	want, err := filepath.EvalSymlinks(hr.dir)
	require.NoError(t, err)

	hr.run(t, "cd %s ; pwd > %s", hr.dir, hr.path("pwd"))
	assert.Equal(t, want+"\n", readFile(t, hr.path("pwd")))

	hr.run(t, "cd %s && pwd > %s", hr.path("missing"), hr.path("pwd2"))
	assert.Equal(t, want+"\n", readFile(t, hr.path("pwd2")), "a failed cd leaves the directory alone")
	assert.Empty(t, hr.diag.String())
}

func TestHost_noDescriptorLeaks(t *testing.T) {
	hr := newHostRunner(t)

	// The first pipe starts the runtime poller, which holds descriptors of
	// its own.
	hr.run(t, "echo warm | cat")
	before := openFds(t)

	hr.run(t, "echo x | cat | cat > %s ; cat < %s | wc -c", hr.path("x"), hr.path("x"))
	hr.run(t, "cat %s > %s | cat", hr.path("missing"), hr.path("y"))
	hr.run(t, "jobsh-no-such-program | cat")

	assert.Equal(t, before, openFds(t))
}

func TestHost_background(t *testing.T) {
	hr := newHostRunner(t)
	done := hr.path("done")

	start := time.Now()
	hr.run(t, "sleep 0.5 ; echo finished > %s &", done)
	hr.run(t, "echo foreground")
	elapsed := time.Since(start)

	assert.Less(t, int64(elapsed), int64(500*time.Millisecond), "shell didn't wait for the job")
	assert.Equal(t, "foreground\n", readFile(t, hr.outPath))

	require.Eventually(t, func() bool {
		content, err := os.ReadFile(done)
		return err == nil && string(content) == "finished\n"
	}, 10*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return hr.host.ReapZombies() > 0
	}, 10*time.Second, 20*time.Millisecond, "job process is reaped by the sweep")
}

func trimSpace(s string) string {
	return string(bytes.TrimSpace([]byte(s)))
}
