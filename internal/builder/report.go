package builder

import "sync"

// Stage identifies where in the pipeline a failure happened.
type Stage string

const (
	StageImage      Stage = "pyramid"
	StageCollection Stage = "collection"
)

// Failure is one reportable problem: the file (or collection name) it
// concerns, the stage, and the underlying error.
type Failure struct {
	Path  string
	Stage Stage
	Err   error
}

// Report summarises a run. A run is successful only when every image
// pyramid and the collection were written.
type Report struct {
	mu sync.Mutex

	Total           int // source images found
	Built           int // pyramids fully written
	CollectionBuilt bool
	Failures        []Failure
}

// AddFailure records a failure. Safe for concurrent use.
func (r *Report) AddFailure(path string, stage Stage, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, Failure{Path: path, Stage: stage, Err: err})
}

// OK reports whether the run succeeded completely.
func (r *Report) OK() bool {
	return r.CollectionBuilt && len(r.Failures) == 0 && r.Built == r.Total
}
