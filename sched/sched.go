// Package sched defines the task-scheduling capability consumed by emitter
// scopes, plus ready-made schedulers: an unbounded goroutine-per-task
// scheduler, a bounded worker [Pool], and a rate/concurrency [Limiter]
// wrapper.
//
// The dispatch core treats a scheduler purely as "run this task
// asynchronously"; tracking until completion is layered on top by
// the scope package.
package sched

// Scheduler accepts units of work for asynchronous execution.
type Scheduler interface {
	// Go schedules task for execution and reports whether it was
	// accepted. A stopped or shut-down scheduler rejects tasks.
	Go(task func()) bool
}

// goroutines runs every task on its own goroutine.
type goroutines struct{}

func (goroutines) Go(task func()) bool {
	go task()
	return true
}

// Goroutines returns the unbounded scheduler: one goroutine per task.
// It never rejects work and is the default for new emitters.
func Goroutines() Scheduler { return goroutines{} }
