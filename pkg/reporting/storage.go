package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Storage handles persistence of run summaries, one JSON file per run,
// pruned to the last N on every save.
type Storage struct {
	outputDir string
	keepLastN int
	logger    *Logger
}

// NewStorage creates a new storage instance.
func NewStorage(outputDir string, keepLastN int, logger *Logger) (*Storage, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Storage{
		outputDir: outputDir,
		keepLastN: keepLastN,
		logger:    logger,
	}, nil
}

// SaveRunSummary saves a run summary to a JSON file.
func (s *Storage) SaveRunSummary(summary *RunSummary) (string, error) {
	timestamp := summary.StartTime.Format("20060102-150405")
	filename := fmt.Sprintf("run-%s-%s.json", timestamp, summary.RunID)
	path := filepath.Join(s.outputDir, filename)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run summary file: %w", err)
	}

	s.logger.Info("run summary saved", "path", path)

	if s.keepLastN > 0 {
		if err := s.cleanupOldRunSummaries(); err != nil {
			s.logger.Warn("failed to cleanup old run summaries", "error", err)
		}
	}

	return path, nil
}

// LoadRunSummary loads a run summary from a JSON file.
func (s *Storage) LoadRunSummary(path string) (*RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run summary file: %w", err)
	}

	var summary RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}

	return &summary, nil
}

// ListRunSummaries lists all run summaries in the output directory,
// newest first.
func (s *Storage) ListRunSummaries() ([]RunSummaryRef, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	refs := make([]RunSummaryRef, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.outputDir, entry.Name())
		summary, err := s.LoadRunSummary(path)
		if err != nil {
			s.logger.Warn("failed to load run summary", "path", path, "error", err)
			continue
		}

		refs = append(refs, RunSummaryRef{
			RunID:     summary.RunID,
			StartTime: summary.StartTime,
			Duration:  summary.Duration,
			Status:    summary.Status,
			Success:   summary.Success,
			Filepath:  path,
		})
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].StartTime.After(refs[j].StartTime)
	})

	return refs, nil
}

// FindRunSummaryByID finds a run summary by run ID.
func (s *Storage) FindRunSummaryByID(runID string) (*RunSummary, error) {
	refs, err := s.ListRunSummaries()
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		if ref.RunID == runID {
			return s.LoadRunSummary(ref.Filepath)
		}
	}

	return nil, fmt.Errorf("run summary not found for run ID: %s", runID)
}

// cleanupOldRunSummaries removes old run summary files, keeping only the
// last N.
func (s *Storage) cleanupOldRunSummaries() error {
	refs, err := s.ListRunSummaries()
	if err != nil {
		return err
	}

	if len(refs) <= s.keepLastN {
		return nil
	}

	toDelete := refs[s.keepLastN:]
	for _, ref := range toDelete {
		if err := os.Remove(ref.Filepath); err != nil {
			s.logger.Warn("failed to delete old run summary", "path", ref.Filepath, "error", err)
		} else {
			s.logger.Debug("deleted old run summary", "path", ref.Filepath)
		}
	}

	return nil
}

// GetOutputDir returns the output directory path.
func (s *Storage) GetOutputDir() string {
	return s.outputDir
}

// RunSummaryRef is a lightweight index entry pointing at a persisted
// RunSummary file.
type RunSummaryRef struct {
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	Duration  string    `json:"duration"`
	Status    RunStatus `json:"status"`
	Success   bool      `json:"success"`
	Filepath  string    `json:"filepath"`
}
