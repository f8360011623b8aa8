package pipeline

import "sync"

// Dispatcher runs tasks for different document ids in parallel while
// keeping tasks for the same id strictly serial and in enqueue order.
// At most one task per id is in flight at any time, which is what
// makes a stage's read-modify-write safe against a concurrently
// triggered re-extract or comparison for the same document.
type Dispatcher struct {
	mu     sync.Mutex
	queues map[string]*docQueue
	wg     sync.WaitGroup
}

type docQueue struct {
	tasks []func()
}

// NewDispatcher constructs an idle dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{queues: make(map[string]*docQueue)}
}

// Enqueue appends task to the id's queue, starting a drain goroutine
// if none is running for that id.
func (d *Dispatcher) Enqueue(id string, task func()) {
	d.mu.Lock()
	q, ok := d.queues[id]
	if ok {
		q.tasks = append(q.tasks, task)
		d.mu.Unlock()
		return
	}
	q = &docQueue{tasks: []func(){task}}
	d.queues[id] = q
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(id, q)
}

func (d *Dispatcher) drain(id string, q *docQueue) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(q.tasks) == 0 {
			delete(d.queues, id)
			d.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		d.mu.Unlock()

		task()
	}
}

// Wait blocks until every queue has drained.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
