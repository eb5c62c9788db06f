package snapshot

import (
	"testing"

	"spectrabrainz/internal/storcycle"
)

func TestSplitJobName(t *testing.T) {
	tests := []struct {
		job     string
		dataset string
		backup  int
		ok      bool
	}{
		{"bil-0001-3", "bil-0001", 3, true},
		{"ace-mouse-12", "ace-mouse", 12, true},
		{"noindex", "", 0, false},
		{"trailing-dash-", "", 0, false},
	}

	for _, tt := range tests {
		dataset, backup, ok := SplitJobName(tt.job)
		if ok != tt.ok || dataset != tt.dataset || backup != tt.backup {
			t.Errorf("SplitJobName(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tt.job, dataset, backup, ok, tt.dataset, tt.backup, tt.ok)
		}
	}
}

func TestReduceLatest(t *testing.T) {
	entries := []storcycle.JobStatusEntry{
		{Job: "bil-0001-1", State: "Completed"},
		{Job: "bil-0001-3", State: "Failed"},
		{Job: "bil-0001-2", State: "Completed"},
		{Job: "bil-0002-1", State: "Active"},
		{Job: "Daily-Storcycle-Database-Backup-4", State: "Completed"},
		{Job: "my-test-run-2", State: "Completed"},
		{Job: "Restore-bil-0003-1", State: "Completed"},
		{Job: "nameWithoutIndex", State: "Completed"},
	}

	records := ReduceLatest(entries)

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}
	// Failed ranks before Active, so bil-0001 (backup 3, Failed) comes first.
	if records[0].Dataset != "bil-0001" || records[0].BackupIndex != 3 {
		t.Errorf("records[0] = %+v, want latest bil-0001 backup 3", records[0])
	}
	if records[0].State != "Failed" {
		t.Errorf("records[0].State = %q, want Failed", records[0].State)
	}
	if records[1].Dataset != "bil-0002" {
		t.Errorf("records[1] = %+v, want bil-0002", records[1])
	}
}

func TestSortRecordsKey(t *testing.T) {
	records := []JobRecord{
		{Dataset: "zeta", State: "Completed"},
		{Dataset: "alpha", State: "Completed"},
		{Dataset: "mid", State: "Active"},
		{Dataset: "beta", State: "Failed"},
		{Dataset: "gamma", State: "Canceled"},
		{Dataset: "delta", State: StateError},
		{Dataset: "omega", State: "SomethingNew"},
	}

	SortRecords(records)

	wantOrder := []string{"beta", "gamma", "delta", "alpha", "zeta", "mid", "omega"}
	for i, want := range wantOrder {
		if records[i].Dataset != want {
			t.Errorf("records[%d].Dataset = %q, want %q (full order: %+v)",
				i, records[i].Dataset, want, records)
			break
		}
	}
}

func TestSortRecordsStateThenDataset(t *testing.T) {
	// Spec scenario: one Completed and one Failed row on the same day must
	// order by state rank, with the failure first.
	records := []JobRecord{
		{Dataset: "job1", State: "Completed"},
		{Dataset: "job2", State: "Failed"},
	}
	SortRecords(records)

	if records[0].Dataset != "job2" {
		t.Errorf("failed row should sort first, got %+v", records)
	}
}
