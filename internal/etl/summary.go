package etl

import "time"

// Summary is the outcome of one pipeline run.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	DryRun    bool

	// Stages holds one result per stage that ran, in execution order.
	Stages []StageResult

	// Completed is false when a stage failed.
	Completed bool

	// FactsLoaded counts fact rows in committed chunks, including rows the
	// database already held. It is compared against MinFactRecords.
	FactsLoaded    int64
	MinFactRecords int64
	Passed         bool
}

// Stage returns the result of the named stage, if it ran.
func (s *Summary) Stage(name string) (StageResult, bool) {
	for _, r := range s.Stages {
		if r.Stage == name {
			return r, true
		}
	}
	return StageResult{}, false
}

// Inserted returns the number of new rows the named stage wrote.
func (s *Summary) Inserted(name string) int64 {
	r, _ := s.Stage(name)
	return r.Inserted
}
