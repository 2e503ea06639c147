package main

import (
	"testing"
	"time"

	"github.com/cwbudde/bayopt/internal/store"
)

func checkpointInfo(jobID string, age time.Duration) store.CheckpointInfo {
	return store.CheckpointInfo{
		JobID:     jobID,
		BestValue: -1,
		Iteration: 100,
		Timestamp: time.Now().Add(-age),
		Benchmark: "sphere",
		Dim:       2,
	}
}

func TestSelectCheckpointsForDeletion_KeepLast(t *testing.T) {
	infos := []store.CheckpointInfo{
		checkpointInfo("old", 72*time.Hour),
		checkpointInfo("mid", 48*time.Hour),
		checkpointInfo("new", 1*time.Hour),
	}

	toDelete := selectCheckpointsForDeletion(infos, 2, 0)

	if len(toDelete) != 1 {
		t.Fatalf("Expected 1 checkpoint to delete, got %d", len(toDelete))
	}
	if toDelete[0].JobID != "old" {
		t.Errorf("Expected oldest checkpoint to be deleted, got %s", toDelete[0].JobID)
	}
}

func TestSelectCheckpointsForDeletion_OlderThan(t *testing.T) {
	infos := []store.CheckpointInfo{
		checkpointInfo("ancient", 10*24*time.Hour),
		checkpointInfo("recent", 1*time.Hour),
	}

	toDelete := selectCheckpointsForDeletion(infos, 0, 7)

	if len(toDelete) != 1 {
		t.Fatalf("Expected 1 checkpoint to delete, got %d", len(toDelete))
	}
	if toDelete[0].JobID != "ancient" {
		t.Errorf("Expected ancient checkpoint to be deleted, got %s", toDelete[0].JobID)
	}
}

func TestSelectCheckpointsForDeletion_NoDuplicates(t *testing.T) {
	infos := []store.CheckpointInfo{
		checkpointInfo("a", 10*24*time.Hour),
		checkpointInfo("b", 9*24*time.Hour),
		checkpointInfo("c", 1*time.Hour),
	}

	// Both policies select "a"; it must appear only once.
	toDelete := selectCheckpointsForDeletion(infos, 1, 7)

	seen := map[string]int{}
	for _, info := range toDelete {
		seen[info.JobID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("Checkpoint %s selected %d times", id, n)
		}
	}
	if seen["c"] != 0 {
		t.Error("Most recent checkpoint should be kept")
	}
}

func TestSelectCheckpointsForDeletion_KeepAll(t *testing.T) {
	infos := []store.CheckpointInfo{
		checkpointInfo("a", time.Hour),
		checkpointInfo("b", 2*time.Hour),
	}

	if toDelete := selectCheckpointsForDeletion(infos, 5, 0); len(toDelete) != 0 {
		t.Errorf("Keeping more than exist should delete nothing, got %d", len(toDelete))
	}
}

func TestFormatBytes(t *testing.T) {
	testCases := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tc := range testCases {
		if got := formatBytes(tc.bytes); got != tc.expected {
			t.Errorf("formatBytes(%d) = %q, expected %q", tc.bytes, got, tc.expected)
		}
	}
}
