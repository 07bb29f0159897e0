package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Turn is one utterance in a dialogue.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// MemoryUpdate is the mid-dialogue correction extracted by the upstream
// memory pipeline. Reliability is the trust signal attached to the memory
// source, in [0,1].
type MemoryUpdate struct {
	Text        string  `json:"text"`
	Timestamp   string  `json:"timestamp,omitempty"`
	Reliability float64 `json:"reliability"`
}

// DialogueRow is one line of the dialogue file (dialogs.jsonl).
type DialogueRow struct {
	DialogID    string        `json:"dialog_id"`
	Subject     string        `json:"subject"`
	Turns       []Turn        `json:"turns"`
	Update      *MemoryUpdate `json:"update,omitempty"`
	Question    string        `json:"question"`
	GroundTruth string        `json:"ground_truth"`
	Scenario    string        `json:"scenario"`
}

// LoadDialogues reads line-delimited JSON dialogue rows. Blank lines are
// ignored; unparseable lines are returned as skips, not errors.
func LoadDialogues(path string) ([]DialogueRow, []SkippedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dialogues file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var rows []DialogueRow
	var skipped []SkippedRow

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var row DialogueRow
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			skipped = append(skipped, SkippedRow{
				RowID:  fmt.Sprintf("%s:%d", path, line),
				Reason: fmt.Sprintf("unparseable json line: %v", err),
			})
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read dialogues file: %w", err)
	}

	return rows, skipped, nil
}
