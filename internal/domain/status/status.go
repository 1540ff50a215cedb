// Package status generates status data for dakota.
//
// Watch mode writes a JSON status file after every preprocessing run, so
// editors and status bars can show whether the last run succeeded and which
// files it read.
package status

import (
	"encoding/json"
	"os"
	"time"
)

// StatusFile is the filename within the .dakota directory where status JSON is written.
const StatusFile = "status.json"

// Run describes one finished preprocessing run.
type Run struct {
	Input    string
	Files    []string
	Defines  int
	Bytes    int64
	Err      error
	Started  time.Time
	Finished time.Time
}

// StatusData is the JSON payload written after each run.
type StatusData struct {
	Input      string   `json:"input"`
	Files      []string `json:"files"`
	Defines    int      `json:"defines"`
	Bytes      int64    `json:"bytes"`
	OK         bool     `json:"ok"`
	Error      string   `json:"error,omitempty"`
	DurationMs int64    `json:"duration_ms"`
	Finished   string   `json:"finished"`
	Runs       int      `json:"runs"`
}

// Generate produces a StatusData from a run. runs is the number of runs so
// far in this session, including this one.
func Generate(run Run, runs int) *StatusData {
	sd := &StatusData{
		Input:      run.Input,
		Files:      run.Files,
		Defines:    run.Defines,
		Bytes:      run.Bytes,
		OK:         run.Err == nil,
		DurationMs: run.Finished.Sub(run.Started).Milliseconds(),
		Finished:   run.Finished.UTC().Format(time.RFC3339),
		Runs:       runs,
	}
	if sd.Files == nil {
		sd.Files = []string{}
	}
	if run.Err != nil {
		sd.Error = run.Err.Error()
	}
	return sd
}

// WriteJSON writes the status data as JSON to a file.
func WriteJSON(path string, data *StatusData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ReadJSON reads a status file written by WriteJSON.
func ReadJSON(path string) (*StatusData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sd StatusData
	if err := json.Unmarshal(b, &sd); err != nil {
		return nil, err
	}
	return &sd, nil
}
