package jobctl

import (
	"fmt"
	"io"

	"github.com/josephlewis42/jobsh/core/cmdlist"
)

// NextAfter returns the node to run after id finished with its recorded
// Status, or None if the chain stops.
//
// A failed command skips the commands it joins with &&, a successful one those
// it joins with ||; skipped commands take on the status that skipped them, so
// in "false && b || c" c runs. A skipped pipeline producer is never started,
// so in "false && a | b" b runs alone and reads the shell's stdin. The cd
// builtin never gates what follows it. A command killed by a signal stops the
// chain.
func NextAfter(list *cmdlist.List, id cmdlist.NodeID, diag io.Writer) cmdlist.NodeID {
	node := list.Node(id)
	if node.IsChdir() {
		return node.Next
	}

	status := node.Status
	if !status.Exited {
		fmt.Fprintf(diag, "%d: %s\n", node.Pid, status)
		return cmdlist.None
	}

	failed := status.Code != 0
	for {
		skip := (failed && node.Control.Has(cmdlist.And)) ||
			(!failed && node.Control.Has(cmdlist.Or))
		if !skip || node.Next == cmdlist.None {
			return node.Next
		}

		node = list.Node(node.Next)
		node.Status = status
		if node.IsChdir() {
			return node.Next
		}
	}
}

// findBackground returns the first node at or after from that ends a
// background segment, or None.
func findBackground(list *cmdlist.List, from cmdlist.NodeID) cmdlist.NodeID {
	for id := from; id != cmdlist.None; id = list.Node(id).Next {
		if list.Node(id).Control.Has(cmdlist.Background) {
			return id
		}
	}
	return cmdlist.None
}
