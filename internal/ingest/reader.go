package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// ReadResult holds the events parsed from one spool file.
type ReadResult struct {
	Events      []Event
	ParseErrors int
}

// ReadFile parses a JSONL spool file, one event per line. Blank lines are
// ignored; malformed lines are counted and skipped so one bad line never
// poisons the file. Re-reading a file is harmless because the store upserts
// by receipt id.
func ReadFile(path string) (ReadResult, error) {
	f, err := os.Open(path) //nolint:gosec // spool path is operator-supplied
	if err != nil {
		return ReadResult{}, fmt.Errorf("opening spool file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	var res ReadResult
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			res.ParseErrors++
			continue
		}
		res.Events = append(res.Events, ev)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("reading spool file: %w", err)
	}
	return res, nil
}
