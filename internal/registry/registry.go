// Package registry tracks download tasks and their progress in memory.
//
// The registry is the single source of truth polled by the progress endpoint.
// Entries are never evicted: the process is a local companion service and the
// working set stays small.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/audiograb/audiograb/internal/model"
)

type entry struct {
	mu       sync.Mutex
	progress model.Progress
	filename string
}

// Registry is a concurrency-safe task table keyed by opaque task ids.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{tasks: make(map[string]*entry)}
}

// Create registers a new task at the initial percent and returns its id.
func (r *Registry) Create() string {
	id := uuid.New().String()

	r.mu.Lock()
	r.tasks[id] = &entry{progress: model.Simple(model.StartedPercent)}
	r.mu.Unlock()

	return id
}

func (r *Registry) lookup(id string) *entry {
	r.mu.RLock()
	e := r.tasks[id]
	r.mu.RUnlock()
	return e
}

// Progress returns a snapshot of the task's progress. Unknown ids yield the
// zero Progress, which marshals as 0.
func (r *Registry) Progress(id string) model.Progress {
	e := r.lookup(id)
	if e == nil {
		return model.Progress{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress.Clone()
}

// SetProgress replaces the task's progress wholesale.
func (r *Registry) SetProgress(id string, p model.Progress) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.progress = p
	e.mu.Unlock()
}

// SetPercent sets simple progress at the given percent.
func (r *Registry) SetPercent(id string, percent int) {
	r.SetProgress(id, model.Simple(percent))
}

// Fail marks the task as failed. Composite tasks keep their item detail with
// the aggregate pinned at the failure sentinel.
func (r *Registry) Fail(id string) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	if e.progress.Kind() == model.KindComposite {
		e.progress = e.progress.Finalize(model.FailedPercent)
	} else {
		e.progress = model.Failed()
	}
	e.mu.Unlock()
}

// InitComposite switches the task to composite progress with one zeroed slot
// per title.
func (r *Registry) InitComposite(id string, titles []string) {
	items := make([]model.Item, len(titles))
	for i, title := range titles {
		items[i] = model.Item{Title: title}
	}
	r.SetProgress(id, model.Composite(items))
}

// SetItemPercent applies a monotonic per-item update on a composite task.
func (r *Registry) SetItemPercent(id string, idx, percent int) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.progress.SetItemPercent(idx, percent)
	e.mu.Unlock()
}

// SetItemFilename records the produced file for one composite item.
func (r *Registry) SetItemFilename(id string, idx int, name string) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.progress.SetItemFilename(idx, name)
	e.mu.Unlock()
}

// FinalizeComposite pins the composite aggregate. A task already finalized,
// for example failed, is left untouched.
func (r *Registry) FinalizeComposite(id string, percent int) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	if !e.progress.Finalized() {
		e.progress = e.progress.Finalize(percent)
	}
	e.mu.Unlock()
}

// SetFilename records the task's result artifact name.
func (r *Registry) SetFilename(id, name string) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.filename = name
	e.mu.Unlock()
}

// Filename returns the task's result artifact name, if any.
func (r *Registry) Filename(id string) (string, bool) {
	e := r.lookup(id)
	if e == nil {
		return "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filename, e.filename != ""
}
