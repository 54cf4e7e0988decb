// Package queue implements the job database and single-threaded
// cooperative attack loop (C11): hold live jobs, dispatch each
// candidate word to every job in turn, drop jobs on success, and
// report the rest as negative when the run ends.
package queue

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ehulse/jstego/internal/breaker"
	"github.com/ehulse/jstego/internal/ux"
)

// Entry pairs a job with the breaker that owns it.
type Entry struct {
	Job     breaker.Job
	Breaker breaker.Breaker
}

// Comparator orders two entries; Queue.Insert uses it to find the
// first insertion point whose comparator yields >= 0, so jobs that
// share an initialisation vector (jphide) sort adjacent and can reuse
// each other's key-schedule caches.
type Comparator func(a, b breaker.Job) int

// Queue is the live job database for one attack run.
type Queue struct {
	entries    []Entry
	tried      int
	found      int
	onSuccess  func(Entry, string)
	onNegative func(Entry)
}

// New builds an empty queue. onSuccess is called (in Crack) the moment
// a job's password is found; onNegative is called once per remaining
// job when Flush runs.
func New(onSuccess func(Entry, string), onNegative func(Entry)) *Queue {
	return &Queue{onSuccess: onSuccess, onNegative: onNegative}
}

// Insert appends e to the tail, or — when cmp is non-nil — inserts it
// at the first position whose comparator yields a result >= 0 against
// the existing entry's job, keeping the insertion stable.
func (q *Queue) Insert(e Entry, cmp Comparator) {
	if cmp == nil {
		q.entries = append(q.entries, e)
		return
	}
	for i, existing := range q.entries {
		if cmp(existing.Job, e.Job) >= 0 {
			q.entries = append(q.entries, Entry{})
			copy(q.entries[i+1:], q.entries[i:])
			q.entries[i] = e
			return
		}
	}
	q.entries = append(q.entries, e)
}

// Remove drops the job at index i.
func (q *Queue) Remove(i int) {
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
}

// Len reports how many jobs remain live.
func (q *Queue) Len() int { return len(q.entries) }

// Crack dispatches one candidate word to every live job, removing each
// job that cracks and invoking onSuccess for it. It returns true
// ("queue empty") once no jobs remain.
func (q *Queue) Crack(word string) bool {
	q.tried++
	for i := 0; i < len(q.entries); {
		e := &q.entries[i]
		if e.Breaker.Crack(e.Job.Filename(), word, e.Job) {
			q.found++
			if q.onSuccess != nil {
				q.onSuccess(*e, word)
			}
			q.Remove(i)
			continue
		}
		i++
	}
	return len(q.entries) == 0
}

// Flush drops every remaining job, reporting each through onNegative.
func (q *Queue) Flush() int {
	n := len(q.entries)
	for _, e := range q.entries {
		if q.onNegative != nil {
			q.onNegative(e)
		}
	}
	q.entries = nil
	return n
}

// Stats reports the running word and success counters.
func (q *Queue) Stats() (tried, found int) { return q.tried, q.found }

// WordSource is the minimal shape the attack loop needs from C10.
type WordSource interface {
	Next() (string, bool)
}

// RunOptions controls the attack loop's status/cancellation behaviour.
type RunOptions struct {
	Printer      ux.Printer
	StatusPeriod time.Duration // 0 disables the SIGALRM status tick
}

// Run drains words from src against q until the queue empties, the
// word source is exhausted, or SIGINT arrives. SIGALRM (driven by a
// real alarm(2) timer when StatusPeriod > 0) ticks a status line
// between words; both signals are observed and cleared here rather
// than in the handler, so cancellation is cooperative and never
// interrupts a word already in flight.
func Run(q *Queue, src WordSource, opts RunOptions) (queueEmptied bool) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGALRM)
	defer signal.Stop(sigCh)

	if opts.StatusPeriod > 0 {
		unix.Alarm(uint(opts.StatusPeriod.Seconds()))
	}

	start := time.Now()
	signaled := false
	alarmed := false

	word, ok := src.Next()
	for ok {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGINT:
				signaled = true
			case syscall.SIGALRM:
				alarmed = true
			}
		default:
		}

		if signaled {
			break
		}

		empty := q.Crack(word)
		if alarmed {
			tried, _ := q.Stats()
			elapsed := time.Since(start).Seconds()
			rate := 0.0
			if elapsed > 0 {
				rate = float64(tried) / elapsed
			}
			opts.Printer.Status(word, rate, 0)
			alarmed = false
			if opts.StatusPeriod > 0 {
				unix.Alarm(uint(opts.StatusPeriod.Seconds()))
			}
		}
		if empty {
			return true
		}

		word, ok = src.Next()
	}
	return false
}

// ReportNegative formats the end-of-run summary the cracker prints
// when words ran out with jobs still unresolved.
func ReportNegative(remaining int) string {
	return fmt.Sprintf("queue flushed with %d images unresolved", remaining)
}
