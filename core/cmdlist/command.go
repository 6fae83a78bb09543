// Package cmdlist holds the parsed form of one input line: a doubly linked
// list of commands, each annotated with the operator that ended it.
//
// Nodes live in an arena owned by the List and link to each other by index,
// so removing the trailing placeholder and freeing the whole line are both
// trivial.
package cmdlist

import (
	"os"
	"strings"

	"github.com/josephlewis42/jobsh/core/vos"
)

// ChangeDirectory is the reserved name of the only builtin, which runs in the
// shell's own process.
const ChangeDirectory = "cd"

// Control records the operator that terminated a command. Exactly one of the
// terminator bits is set on a finished node; Redirected may accompany it.
type Control uint8

const (
	Normal Control = 1 << iota
	Redirected
	Sequence
	Background
	Piped
	And
	Or
)

const terminators = Normal | Sequence | Background | Piped | And | Or

var controlSpellings = []struct {
	bit  Control
	text string
}{
	{Sequence, ";"},
	{Background, "&"},
	{Piped, "|"},
	{And, "&&"},
	{Or, "||"},
}

// Has is true if all bits in bit are set.
func (c Control) Has(bit Control) bool {
	return c&bit == bit
}

// Terminator strips everything but the terminator bits.
func (c Control) Terminator() Control {
	return c & terminators
}

// Operator is the shell spelling of the terminator, "" for Normal.
func (c Control) Operator() string {
	for _, s := range controlSpellings {
		if c.Has(s.bit) {
			return s.text
		}
	}
	return ""
}

// NodeID addresses a Node within its List.
type NodeID int

// None is the absent node.
const None NodeID = -1

// Node is one executable unit of a command list.
type Node struct {
	// Argv holds the program name followed by its arguments.
	Argv    []string
	Control Control
	Redir   Redirection

	// Pid of the started process, 0 until started or if no process was
	// created for the node.
	Pid int
	// Status is valid once the node has finished.
	Status vos.ProcStatus
	// PipeIn is the read end of the pipe from the previous node.
	PipeIn *os.File
	// PipeOut is the write end of the pipe into the next node.
	PipeOut *os.File

	Prev, Next NodeID
}

// Empty is true for a placeholder that never received a word.
func (n *Node) Empty() bool {
	return len(n.Argv) == 0
}

// Name is the program name, "" for an empty node.
func (n *Node) Name() string {
	if n.Empty() {
		return ""
	}
	return n.Argv[0]
}

// IsChdir is true for the change-directory builtin.
func (n *Node) IsChdir() bool {
	return n.Name() == ChangeDirectory
}

// ClosePipes closes any pipe ends still held by the node.
func (n *Node) ClosePipes() {
	if n.PipeIn != nil {
		n.PipeIn.Close()
		n.PipeIn = nil
	}
	if n.PipeOut != nil {
		n.PipeOut.Close()
		n.PipeOut = nil
	}
}

// String renders the command (without its terminator) as shell text.
func (n *Node) String() string {
	parts := append([]string(nil), n.Argv...)
	for _, kind := range ApplyOrder {
		if n.Redir.Has(kind) {
			parts = append(parts, kind.String(), n.Redir.Path(kind))
		}
	}
	return strings.Join(parts, " ")
}

// List is the chain of nodes built from one input line.
type List struct {
	nodes []Node
	head  NodeID

	// Warnings holds the non-fatal problems found while building.
	Warnings []*ParseError
}

// New creates a list with a single empty head node.
func New() *List {
	l := &List{head: None}
	l.head = l.append()
	return l
}

// Head is the first node, None if there are none.
func (l *List) Head() NodeID {
	return l.head
}

// Node returns the node with the given id.
func (l *List) Node(id NodeID) *Node {
	return &l.nodes[id]
}

// Len is the number of linked nodes.
func (l *List) Len() int {
	return len(l.IDs())
}

// Empty is true if there is nothing to run: no nodes or a head without words.
func (l *List) Empty() bool {
	return l.head == None || l.Node(l.head).Empty()
}

// IDs returns the node ids in list order.
func (l *List) IDs() []NodeID {
	var out []NodeID
	for id := l.head; id != None; id = l.nodes[id].Next {
		out = append(out, id)
	}
	return out
}

// last is the tail of the list.
func (l *List) last() NodeID {
	if len(l.nodes) == 0 {
		return None
	}
	return NodeID(len(l.nodes) - 1)
}

// append links a fresh empty node after the tail and returns it.
func (l *List) append() NodeID {
	prev := l.last()
	l.nodes = append(l.nodes, Node{Prev: prev, Next: None})
	id := l.last()
	if prev != None {
		l.nodes[prev].Next = id
	}
	return id
}

// removeLast unlinks and discards the tail.
func (l *List) removeLast() {
	id := l.last()
	if id == None {
		return
	}
	l.nodes[id].ClosePipes()
	if prev := l.nodes[id].Prev; prev != None {
		l.nodes[prev].Next = None
	} else {
		l.head = None
	}
	l.nodes = l.nodes[:id]
}

// Slice copies the nodes from..to (inclusive) into a new list. Runtime state
// isn't copied.
func (l *List) Slice(from, to NodeID) *List {
	out := &List{head: None}
	for id := from; id != None; id = l.nodes[id].Next {
		src := l.nodes[id]
		newID := out.append()
		if out.head == None {
			out.head = newID
		}
		dst := out.Node(newID)
		dst.Argv = append([]string(nil), src.Argv...)
		dst.Control = src.Control
		dst.Redir = src.Redir

		if id == to {
			break
		}
	}
	return out
}

// Release closes any pipes left open by the nodes and drops them.
func (l *List) Release() {
	for i := range l.nodes {
		l.nodes[i].ClosePipes()
	}
	l.nodes = nil
	l.head = None
}

// String renders the list as shell text.
func (l *List) String() string {
	var sb strings.Builder
	for _, id := range l.IDs() {
		node := l.Node(id)
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(node.String())
		if op := node.Control.Operator(); op != "" {
			sb.WriteString(" ")
			sb.WriteString(op)
		}
	}
	return sb.String()
}
