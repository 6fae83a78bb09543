package cmdlist

import (
	"encoding/json"
	"errors"
)

// nodeRecord is the serialized form of a node; runtime state is never encoded.
type nodeRecord struct {
	Argv    []string    `json:"argv"`
	Control Control     `json:"control"`
	Redir   Redirection `json:"redir"`
}

// MarshalJSON encodes the list as an array of commands in list order.
func (l *List) MarshalJSON() ([]byte, error) {
	records := []nodeRecord{}
	for _, id := range l.IDs() {
		node := l.Node(id)
		records = append(records, nodeRecord{
			Argv:    node.Argv,
			Control: node.Control,
			Redir:   node.Redir,
		})
	}
	return json.Marshal(records)
}

// UnmarshalJSON replaces the list with the decoded commands.
func (l *List) UnmarshalJSON(data []byte) error {
	var records []nodeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New("cmdlist: no commands")
	}

	l.Release()
	for _, rec := range records {
		id := l.append()
		if l.head == None {
			l.head = id
		}
		node := l.Node(id)
		node.Argv = rec.Argv
		node.Control = rec.Control
		node.Redir = rec.Redir
	}
	return nil
}
