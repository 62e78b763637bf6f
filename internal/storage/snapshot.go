package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

// PortfolioSnapshot is a point-in-time capture of the paper portfolio.
// TradeCount orders snapshots; a restart restores from the highest one
// instead of replaying the whole journal.
type PortfolioSnapshot struct {
	TradeCount int                            `json:"trade_count"`
	TsUnix     int64                          `json:"ts"`
	Cash       float64                        `json:"cash"`
	Books      map[string]domain.PositionBook `json:"books"`
}

// SnapshotManager saves and loads portfolio snapshots in dir.
type SnapshotManager struct {
	dir string
}

// NewSnapshotManager creates a manager over dir.
func NewSnapshotManager(dir string) *SnapshotManager {
	return &SnapshotManager{dir: dir}
}

// CreateSnapshot captures cash and deep-copied books.
func CreateSnapshot(tradeCount int, cash float64, books map[string]domain.PositionBook) *PortfolioSnapshot {
	booksCopy := make(map[string]domain.PositionBook, len(books))
	for sym, b := range books {
		cp := domain.PositionBook{Symbol: b.Symbol, Legs: make([]domain.Leg, len(b.Legs))}
		copy(cp.Legs, b.Legs)
		booksCopy[sym] = cp
	}
	return &PortfolioSnapshot{
		TradeCount: tradeCount,
		TsUnix:     time.Now().Unix(),
		Cash:       cash,
		Books:      booksCopy,
	}
}

// Save writes a snapshot to disk.
func (sm *SnapshotManager) Save(snap *PortfolioSnapshot) error {
	if err := os.MkdirAll(sm.dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	filename := fmt.Sprintf("snapshot_%d_%d.json", snap.TradeCount, snap.TsUnix)
	path := filepath.Join(sm.dir, filename)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("Snapshot saved",
		slog.Int("trade_count", snap.TradeCount),
		slog.String("path", path))
	return nil
}

// LoadLatest loads the snapshot with the highest trade count, or nil
// when none exist.
func (sm *SnapshotManager) LoadLatest() (*PortfolioSnapshot, error) {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	var latestPath string
	latestCount := -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var count int
		var ts int64
		if _, err := fmt.Sscanf(entry.Name(), "snapshot_%d_%d.json", &count, &ts); err != nil {
			continue
		}
		if count > latestCount {
			latestCount = count
			latestPath = filepath.Join(sm.dir, entry.Name())
		}
	}
	if latestPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(latestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap PortfolioSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	slog.Info("Snapshot loaded",
		slog.Int("trade_count", snap.TradeCount),
		slog.String("path", latestPath))
	return &snap, nil
}

// Cleanup removes old snapshots, keeping only the newest keepCount.
func (sm *SnapshotManager) Cleanup(keepCount int) error {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	type snapFile struct {
		path  string
		count int
	}
	var files []snapFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var count int
		var ts int64
		if _, err := fmt.Sscanf(entry.Name(), "snapshot_%d_%d.json", &count, &ts); err == nil {
			files = append(files, snapFile{path: filepath.Join(sm.dir, entry.Name()), count: count})
		}
	}
	if len(files) <= keepCount {
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].count > files[j].count })
	for _, f := range files[keepCount:] {
		if err := os.Remove(f.path); err != nil {
			return fmt.Errorf("failed to remove old snapshot %s: %w", f.path, err)
		}
	}
	return nil
}
