package simulation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// decisionLogEntry is one decision record, mirrored between slog output and
// the JSONL file.
type decisionLogEntry struct {
	Timestamp    string `json:"timestamp"`
	Round        int    `json:"round"`
	AgentID      string `json:"agent_id"`
	Trigger      string `json:"trigger"`
	FromState    string `json:"from_state"`
	ToState      string `json:"to_state"`
	ActionType   string `json:"action_type"`
	ReasonerUsed bool   `json:"reasoner_used"`
}

// LoggingExecutor records every decision through slog and, when a log file
// is configured, appends the same entry as a JSON line for post-hoc
// analysis.
type LoggingExecutor struct {
	file *os.File
}

// NewLoggingExecutor creates a logging executor. An empty path disables the
// JSONL file; parent directories are created as needed.
func NewLoggingExecutor(logFile string) (*LoggingExecutor, error) {
	e := &LoggingExecutor{}
	if logFile == "" {
		return e, nil
	}

	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating decision log directory: %w", err)
		}
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening decision log: %w", err)
	}
	e.file = file
	return e, nil
}

// Execute logs one decision.
func (e *LoggingExecutor) Execute(state *State, decision *DecisionResult) error {
	var actionType string
	if decision.Action != nil {
		actionType = decision.Action.Action
	}

	entry := decisionLogEntry{
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		Round:        state.RoundNumber,
		AgentID:      decision.AgentID,
		Trigger:      decision.Trigger,
		FromState:    decision.FromState.String(),
		ToState:      decision.ToState.String(),
		ActionType:   actionType,
		ReasonerUsed: decision.ReasonerUsed,
	}

	slog.Info("agent decision",
		"round", entry.Round,
		"agent", entry.AgentID,
		"trigger", entry.Trigger,
		"from_state", entry.FromState,
		"to_state", entry.ToState,
		"action", entry.ActionType,
		"reasoner_used", entry.ReasonerUsed)

	if e.file == nil {
		return nil
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding decision log entry: %w", err)
	}
	if _, err := e.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing decision log: %w", err)
	}
	return nil
}

// Close releases the log file. Safe to call more than once.
func (e *LoggingExecutor) Close() error {
	if e.file == nil {
		return nil
	}
	err := e.file.Close()
	e.file = nil
	return err
}
