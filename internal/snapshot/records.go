// Package snapshot builds daily TSV snapshots of StorCycle ScanAndArchive
// job status: reducing raw job listings to the latest backup per dataset,
// fetching fresh per-job status across a worker pool, and encoding the
// result as date-named TSV files.
package snapshot

import (
	"regexp"
	"sort"
	"strconv"

	"spectrabrainz/internal/storcycle"
)

// JobRecord is one row of a daily snapshot: the latest backup job for one
// BIL dataset.
type JobRecord struct {
	Dataset         string  // job name minus the trailing backup index
	BackupIndex     int     // trailing -N of the job name
	Job             string  // full StorCycle job name
	State           string  // Completed, Failed, Canceled, Active, Error, ...
	PercentComplete float64
	Start           string // timestamps as reported by the API
	Completion      string
	TotalFiles      int64
}

// excludedJobs matches maintenance and scratch jobs that never belong in a
// dataset report.
var excludedJobs = regexp.MustCompile(`(?i)Daily-Storcycle-Database-Backup|test|Scan|Daily|Restore`)

// jobName splits "<dataset>-<n>" job names.
var jobName = regexp.MustCompile(`^(.+)-(\d+)$`)

// StateError marks a row whose per-job fetch failed after retries.
const StateError = "Error"

// SplitJobName parses a job name into dataset and backup index. Names
// without a trailing numeric suffix report ok=false.
func SplitJobName(job string) (dataset string, backup int, ok bool) {
	m := jobName.FindStringSubmatch(job)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

// RecordFromEntry converts an API entry to a JobRecord. Entries whose name
// does not parse keep the full job name as the dataset.
func RecordFromEntry(entry *storcycle.JobStatusEntry) JobRecord {
	rec := JobRecord{
		Job:             entry.Job,
		State:           entry.State,
		PercentComplete: entry.PercentComplete,
		Start:           entry.Start,
		Completion:      entry.Completion,
		TotalFiles:      entry.TotalFiles,
	}
	if dataset, backup, ok := SplitJobName(entry.Job); ok {
		rec.Dataset = dataset
		rec.BackupIndex = backup
	} else {
		rec.Dataset = entry.Job
	}
	return rec
}

// ReduceLatest filters out excluded jobs and keeps only the highest backup
// index per dataset. Jobs whose names lack a backup suffix are dropped. The
// result is in report sort order.
func ReduceLatest(entries []storcycle.JobStatusEntry) []JobRecord {
	latest := make(map[string]JobRecord)
	for i := range entries {
		entry := &entries[i]
		if excludedJobs.MatchString(entry.Job) {
			continue
		}
		dataset, backup, ok := SplitJobName(entry.Job)
		if !ok {
			continue
		}
		rec := RecordFromEntry(entry)
		rec.Dataset = dataset
		rec.BackupIndex = backup
		if prev, seen := latest[dataset]; !seen || backup > prev.BackupIndex {
			latest[dataset] = rec
		}
	}

	records := make([]JobRecord, 0, len(latest))
	for _, rec := range latest {
		records = append(records, rec)
	}
	SortRecords(records)
	return records
}

// stateRank orders job states so that attention-worthy rows sort first.
// Unknown states sort last.
var stateRank = map[string]int{
	"Failed":    0,
	"Canceled":  1,
	StateError:  2,
	"Completed": 3,
	"Active":    4,
}

const unknownStateRank = 5

// rankState returns the sort rank for a state string.
func rankState(state string) int {
	if r, ok := stateRank[state]; ok {
		return r
	}
	return unknownStateRank
}

// Less reports whether a sorts before b under the report sort key: state
// rank first, then dataset name. The key is fixed so successive snapshots
// and workbook sheets diff cleanly.
func Less(a, b JobRecord) bool {
	ra, rb := rankState(a.State), rankState(b.State)
	if ra != rb {
		return ra < rb
	}
	if a.Dataset != b.Dataset {
		return a.Dataset < b.Dataset
	}
	return a.BackupIndex < b.BackupIndex
}

// SortRecords sorts records in place by the report sort key.
func SortRecords(records []JobRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return Less(records[i], records[j])
	})
}
