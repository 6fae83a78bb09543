package core

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/josephlewis42/jobsh/core/config"
	"github.com/josephlewis42/jobsh/core/jobctl"
	"github.com/josephlewis42/jobsh/core/logger"
	"github.com/josephlewis42/jobsh/core/vos"
	"github.com/josephlewis42/jobsh/core/vos/vostest"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain doubles as the entry point of background jobs, which re-execute
// the test binary.
func TestMain(m *testing.M) {
	if encoded, ok := os.LookupEnv(jobctl.JobEnv); ok {
		os.Unsetenv(jobctl.JobEnv)
		os.Exit(jobctl.RunDetachedJob(encoded, vos.NewHostOS(nil), os.Stderr, logger.NopRecorder{}))
	}

	os.Exit(m.Run())
}

func testConfig() *config.Configuration {
	cfg := config.Default(afero.NewMemMapFs())
	cfg.Color = config.ColorNever
	return cfg
}

// newHostShell runs a quiet shell in a fresh working directory with stdout
// and stderr captured in the returned file.
func newHostShell(t *testing.T) (*Shell, string) {
	t.Helper()

	t.Chdir(t.TempDir())

	devNull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	t.Cleanup(func() { devNull.Close() })

	transcript := filepath.Join(t.TempDir(), "transcript")
	out, err := os.Create(transcript)
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })

	sh := NewShell(vos.NewHostOS(vos.NewStdio(devNull, out, out)), testConfig(), nil)
	sh.Quiet = true
	return sh, transcript
}

func TestShell_golden(t *testing.T) {
	cases := map[string]string{
		"sequence": `echo one ; echo two
false ; echo three
`,
		"conditionals": `false && echo no || echo yes
true && echo and || echo or
false || false && echo skipped
`,
		"pipeline": `printf 'c\nb\na\n' | sort | head -n 2
`,
		"redirection": `echo hello > f.txt
cat < f.txt
echo x > missing-dir/y
cat < missing-file && echo unreachable
`,
		"errors": `jobsh-missing-program
echo 'unterminated
echo a ; ; echo b
echo ok >> log
`,
		"chdir": `mkdir sub ; echo inside > sub/marker
cd sub
cat marker
cd nowhere && cat marker
cd ..
cat sub/marker
`,
		"comments_and_blanks": `# nothing here

   ; echo skipped
; ; && ||
echo shown # trailing comment
`,
		"unterminated_last_line": "echo first\necho last",
	}

	// Subtests chdir into a temp dir, so the fixture dir must be absolute.
	fixtureDir, err := filepath.Abs(filepath.Join("testdata", "golden"))
	require.NoError(t, err)

	g := goldie.New(
		t,
		goldie.WithFixtureDir(fixtureDir),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for tn, script := range cases {
		t.Run(tn, func(t *testing.T) {
			sh, transcript := newHostShell(t)

			require.NoError(t, sh.Run(NewScriptReader(strings.NewReader(script), nil)))

			out, err := os.ReadFile(transcript)
			require.NoError(t, err)
			g.Assert(t, tn, out)
		})
	}
}

func TestShell_backgroundReturnsImmediately(t *testing.T) {
	sh, transcript := newHostShell(t)

	require.NoError(t, sh.EvalLine("sleep 1 &"))
	require.NoError(t, sh.EvalLine("echo after"))

	out, err := os.ReadFile(transcript)
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(out))
}

func TestShell_prompt(t *testing.T) {
	fake := vostest.NewFakeOS(t)
	require.NoError(t, fake.Chdir("/home/user/src"))

	var out bytes.Buffer
	sh := NewShell(fake, testConfig(), nil)
	sh.PromptTemplate = `\u@\h:\w\$ `
	sh.PromptInfo = PromptInfo{User: "user", Host: "box", Home: "/home/user"}

	require.NoError(t, sh.Run(NewScriptReader(strings.NewReader("a\n"), &out)))
	assert.Equal(t, "user@box:~/src$ user@box:~/src$ ", out.String())

	sh.Quiet = true
	assert.Empty(t, sh.Prompt())
}

func TestExpandPrompt(t *testing.T) {
	info := PromptInfo{User: "ada", Host: "engine", Home: "/home/ada"}

	cases := map[string]struct {
		tmpl string
		wd   string
		root bool
		want string
	}{
		"default":     {`jobsh[\p]\$ `, "/", false, "jobsh[42]$ "},
		"root":        {`\$ `, "/", true, "# "},
		"home":        {`\w`, "/home/ada", false, "~"},
		"under home":  {`\w`, "/home/ada/notes", false, "~/notes"},
		"home prefix": {`\w`, "/home/adam", false, "/home/adam"},
		"user host":   {`\u@\h`, "/", false, "ada@engine"},
		"literal":     {`plain > `, "/", false, "plain > "},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			info := info
			info.Root = tc.root
			assert.Equal(t, tc.want, ExpandPrompt(tc.tmpl, info, tc.wd, 42))
		})
	}
}

type recordedEvents []logger.LogType

func (r *recordedEvents) Record(event logger.LogType) error {
	*r = append(*r, event)
	return nil
}

func TestShell_EvalLine(t *testing.T) {
	fake := vostest.NewFakeOS(t)
	fake.Statuses["false"] = vos.ExitedWith(1)
	events := &recordedEvents{}
	sh := NewShell(fake, testConfig(), events)

	require.NoError(t, sh.EvalLine("true && false || echo recovered"))
	assert.Equal(t, []string{"true", "false", "echo recovered"}, fake.Started())
	assert.Equal(t, vos.ExitedWith(0), sh.LastStatus())

	require.NoError(t, sh.EvalLine("a ; ; b"))
	require.NoError(t, sh.EvalLine("a >> b"))
	assert.Contains(t, *events, &logger.ParseAnomaly{Line: "a ; ; b", Error: `syntax error: empty command near ";"`})
	assert.Contains(t, *events, &logger.ParseAnomaly{Line: "a >> b", Error: ">>: invalid redirection"})
}

func TestShell_fatal(t *testing.T) {
	fake := vostest.NewFakeOS(t)
	fake.ForkErr = vos.ErrFork
	sh := NewShell(fake, testConfig(), nil)

	err := sh.Run(NewScriptReader(strings.NewReader("a\nb\n"), nil))
	assert.Equal(t, vos.ErrFork, err)
}

// interruptingReader raises an interrupt while the given line is read.
type interruptingReader struct {
	sh    *Shell
	lines []string
	at    int
}

func (r *interruptingReader) ReadLine(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	if r.at == 0 {
		r.sh.Interrupt()
		r.lines = r.lines[1:]
		r.at--
		return "", io.EOF
	}
	r.at--
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func TestShell_interrupt(t *testing.T) {
	fake := vostest.NewFakeOS(t)
	events := &recordedEvents{}
	sh := NewShell(fake, testConfig(), events)

	reader := &interruptingReader{sh: sh, lines: []string{"a", "abandoned", "b"}, at: 1}
	require.NoError(t, sh.Run(reader))

	assert.Equal(t, []string{"a", "b"}, fake.Started())
	assert.Contains(t, *events, &logger.Interrupt{})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(vos.ProcStatus{}))
	assert.Equal(t, 3, ExitCode(vos.ExitedWith(3)))
	assert.Equal(t, 130, ExitCode(vos.KilledBy(syscall.SIGINT)))
}
