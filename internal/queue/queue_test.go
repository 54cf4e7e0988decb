package queue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehulse/jstego/internal/breaker"
)

type fakeJob struct {
	filename string
	secret   string
}

func (j *fakeJob) Filename() string     { return j.filename }
func (j *fakeJob) SetFilename(s string) { j.filename = s }

type fakeBreaker struct{}

func (fakeBreaker) Name() string { return "fake" }
func (fakeBreaker) Crack(filename, word string, jb breaker.Job) bool {
	j := jb.(*fakeJob)
	return word == j.secret
}
func (fakeBreaker) Compare(a, b breaker.Job) int { return 0 }
func (fakeBreaker) Serialize(breaker.Job) []byte { return nil }
func (fakeBreaker) Deserialize([]byte) (breaker.Job, error) { return nil, nil }

func TestQueueCracksAndRemoves(t *testing.T) {
	var successes []string
	q := New(func(e Entry, word string) {
		successes = append(successes, e.Job.Filename()+":"+word)
	}, nil)

	q.Insert(Entry{Job: &fakeJob{filename: "a.jpg", secret: "swordfish"}, Breaker: fakeBreaker{}}, nil)
	q.Insert(Entry{Job: &fakeJob{filename: "b.jpg", secret: "letmein"}, Breaker: fakeBreaker{}}, nil)

	require.Equal(t, 2, q.Len())
	empty := q.Crack("password")
	require.False(t, empty)
	require.Equal(t, 2, q.Len())

	empty = q.Crack("swordfish")
	require.False(t, empty)
	require.Equal(t, 1, q.Len())
	require.Equal(t, []string{"a.jpg:swordfish"}, successes)

	empty = q.Crack("letmein")
	require.True(t, empty)
	require.Equal(t, []string{"a.jpg:swordfish", "b.jpg:letmein"}, successes)
}

func TestQueueFlushReportsRemaining(t *testing.T) {
	var negatives []string
	q := New(nil, func(e Entry) {
		negatives = append(negatives, e.Job.Filename())
	})
	q.Insert(Entry{Job: &fakeJob{filename: "a.jpg", secret: "x"}, Breaker: fakeBreaker{}}, nil)
	q.Insert(Entry{Job: &fakeJob{filename: "b.jpg", secret: "y"}, Breaker: fakeBreaker{}}, nil)

	n := q.Flush()
	require.Equal(t, 2, n)
	require.Equal(t, 0, q.Len())
	require.ElementsMatch(t, []string{"a.jpg", "b.jpg"}, negatives)
}

func TestQueueInsertWithComparatorOrders(t *testing.T) {
	cmp := func(a, b breaker.Job) int {
		aj := a.(*fakeJob)
		bj := b.(*fakeJob)
		if aj.secret < bj.secret {
			return -1
		}
		if aj.secret > bj.secret {
			return 1
		}
		return 0
	}
	q := New(nil, nil)
	q.Insert(Entry{Job: &fakeJob{filename: "b", secret: "bbb"}, Breaker: fakeBreaker{}}, cmp)
	q.Insert(Entry{Job: &fakeJob{filename: "a", secret: "aaa"}, Breaker: fakeBreaker{}}, cmp)
	q.Insert(Entry{Job: &fakeJob{filename: "c", secret: "ccc"}, Breaker: fakeBreaker{}}, cmp)

	require.Equal(t, "a", q.entries[0].Job.Filename())
	require.Equal(t, "b", q.entries[1].Job.Filename())
	require.Equal(t, "c", q.entries[2].Job.Filename())
}
