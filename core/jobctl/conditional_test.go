package jobctl

import (
	"bytes"
	"syscall"
	"testing"

	"github.com/josephlewis42/jobsh/core/cmdlist"
	"github.com/josephlewis42/jobsh/core/vos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextAfter(t *testing.T) {
	cases := map[string]struct {
		line   string
		status vos.ProcStatus
		// want is the index of the next node, -1 for none.
		want int
	}{
		"sequence after failure": {"a ; b", vos.ExitedWith(1), 1},
		"and after success":      {"a && b", vos.ExitedWith(0), 1},
		"and after failure":      {"a && b", vos.ExitedWith(1), -1},
		"or after success":       {"a || b", vos.ExitedWith(0), -1},
		"or after failure":       {"a || b", vos.ExitedWith(1), 1},
		"and collapses into or":  {"a && b || c", vos.ExitedWith(1), 2},
		"or collapses into and":  {"a || b && c", vos.ExitedWith(0), 2},
		"collapse to the end":    {"a && b && c", vos.ExitedWith(1), -1},
		"last node":              {"a", vos.ExitedWith(0), -1},
		"signaled":               {"a ; b", vos.KilledBy(syscall.SIGKILL), -1},
		"cd ignores status":      {"cd && b", vos.ExitedWith(1), 1},
		"cd ignores signals":     {"cd ; b", vos.KilledBy(syscall.SIGKILL), 1},
		"collapse stops at cd":   {"a && cd /x && c", vos.ExitedWith(1), 2},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			list, err := cmdlist.Parse(tc.line, nil)
			require.NoError(t, err)
			ids := list.IDs()

			list.Node(ids[0]).Status = tc.status
			var diag bytes.Buffer
			got := NextAfter(list, ids[0], &diag)

			if tc.want < 0 {
				assert.Equal(t, cmdlist.None, got)
			} else {
				assert.Equal(t, ids[tc.want], got)
			}
		})
	}
}

func TestNextAfter_skippedInheritStatus(t *testing.T) {
	list, err := cmdlist.Parse("a && b && c || d", nil)
	require.NoError(t, err)
	ids := list.IDs()

	list.Node(ids[0]).Status = vos.ExitedWith(4)
	assert.Equal(t, ids[3], NextAfter(list, ids[0], nil))
	assert.Equal(t, vos.ExitedWith(4), list.Node(ids[1]).Status)
	assert.Equal(t, vos.ExitedWith(4), list.Node(ids[2]).Status)
}

func TestNextAfter_reportsSignal(t *testing.T) {
	list, err := cmdlist.Parse("a", nil)
	require.NoError(t, err)
	node := list.Node(list.Head())
	node.Pid = 42
	node.Status = vos.KilledBy(syscall.SIGTERM)

	var diag bytes.Buffer
	NextAfter(list, list.Head(), &diag)
	assert.Equal(t, "42: signal: terminated\n", diag.String())
}

func TestFindBackground(t *testing.T) {
	list, err := cmdlist.Parse("a ; b & c | d &", nil)
	require.NoError(t, err)
	ids := list.IDs()

	assert.Equal(t, ids[1], findBackground(list, ids[0]))
	assert.Equal(t, ids[1], findBackground(list, ids[1]))
	assert.Equal(t, ids[3], findBackground(list, ids[2]))

	list, err = cmdlist.Parse("a ; b", nil)
	require.NoError(t, err)
	assert.Equal(t, cmdlist.None, findBackground(list, list.Head()))
}
