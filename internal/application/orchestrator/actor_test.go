package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aescanero/dagsys/pkg/domain"
)

// journal records lifecycle calls across all test actors.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

// with returns the entries that start with prefix.
func (j *journal) with(prefix string) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []string
	for _, e := range j.entries {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// testActor has value semantics: every call returns a modified copy.
type testActor struct {
	name    string
	log     *journal
	deps    domain.Dependencies
	version int
	running bool

	injectErr  error
	startErr   error
	stopErr    error
	nilOnStart bool
	startDelay time.Duration
}

func newTestActor(name string, log *journal) testActor {
	return testActor{name: name, log: log}
}

func (a testActor) Inject(role domain.Role, dep domain.Component) (domain.Actor, error) {
	if a.injectErr != nil {
		return nil, a.injectErr
	}
	a.log.add("inject %s <- %s", a.name, role)
	a.deps = a.deps.With(role, dep)
	a.version++
	return a, nil
}

func (a testActor) Start(ctx context.Context) (domain.Actor, error) {
	if a.startDelay > 0 {
		time.Sleep(a.startDelay)
	}
	if a.startErr != nil {
		return nil, a.startErr
	}
	if a.nilOnStart {
		return nil, nil
	}
	a.log.add("start %s", a.name)
	a.running = true
	a.version++
	return a, nil
}

func (a testActor) Stop(ctx context.Context) (domain.Actor, error) {
	if a.stopErr != nil {
		return nil, a.stopErr
	}
	a.log.add("stop %s", a.name)
	a.running = false
	a.version++
	return a, nil
}

// recordingMetrics captures what the System reports.
type recordingMetrics struct {
	mu          sync.Mutex
	transitions []string
	operations  []string
}

func (m *recordingMetrics) RecordTransition(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, from+"->"+to)
}

func (m *recordingMetrics) RecordRoleOperation(role, op, result string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = append(m.operations, role+":"+op+":"+result)
}

func (m *recordingMetrics) RecordWorkerPoolStatus(idle, busy, stopped int) {}

func (m *recordingMetrics) snapshot() ([]string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.transitions...), append([]string(nil), m.operations...)
}

// ptrActor is a pointer-receiver actor whose calls can hand back a typed nil
// or panic.
type ptrActor struct {
	name        string
	log         *journal
	nilOnStart  bool
	panicOnStop bool
}

func (a *ptrActor) Inject(domain.Role, domain.Component) (domain.Actor, error) {
	return a, nil
}

func (a *ptrActor) Start(context.Context) (domain.Actor, error) {
	if a.nilOnStart {
		var none *ptrActor
		return none, nil
	}
	a.log.add("start %s", a.name)
	return a, nil
}

func (a *ptrActor) Stop(context.Context) (domain.Actor, error) {
	if a.panicOnStop {
		panic("stop exploded")
	}
	a.log.add("stop %s", a.name)
	return a, nil
}

// panicActor panics on Start.
type panicActor struct{ testActor }

func (a panicActor) Start(context.Context) (domain.Actor, error) {
	panic("start exploded")
}
