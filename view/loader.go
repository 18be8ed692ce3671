package view

import (
	"context"
	"sync"

	"github.com/innovatetogether/go-innovate/core"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// Resolver is satisfied by *core.Service.
type Resolver interface {
	Resolve(ctx context.Context) core.ResolutionResult
}

type Snapshot struct {
	State      State
	Generation uint64
	Strategy   core.Strategy
	Profile    *core.Profile
	Err        *core.ResolutionError
	Message    string
	Stats      DashboardStats
}

// ProfileLoader runs resolutions on demand and keeps the outcome of the most
// recently started one. Results from older generations are discarded.
type ProfileLoader struct {
	resolver Resolver

	mu          sync.Mutex
	generation  uint64
	snapshot    Snapshot
	closed      bool
	unsubscribe func()
	onChange    func(Snapshot)
	pending     []Snapshot
	delivering  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type LoaderOption func(*ProfileLoader)

// WithOnChange registers a callback invoked after every applied transition.
// Callbacks run outside the loader lock, one at a time, in the order the
// transitions were applied. A transition applied while a callback is running
// is delivered by that same goroutine once the callback returns.
func WithOnChange(fn func(Snapshot)) LoaderOption {
	return func(l *ProfileLoader) {
		l.onChange = fn
	}
}

func NewProfileLoader(resolver Resolver, opts ...LoaderOption) *ProfileLoader {
	ctx, cancel := context.WithCancel(context.Background())
	loader := &ProfileLoader{
		resolver: resolver,
		snapshot: Snapshot{State: StateIdle},
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(loader)
		}
	}
	return loader
}

func (l *ProfileLoader) Snapshot() Snapshot {
	if l == nil {
		return Snapshot{State: StateIdle}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

// Load resolves once and returns the snapshot after the attempt. If a newer
// load started meanwhile, the returned snapshot reflects that load instead.
func (l *ProfileLoader) Load(ctx context.Context) Snapshot {
	if l == nil {
		return Snapshot{State: StateIdle}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	generation, ok := l.begin()
	if !ok {
		return l.Snapshot()
	}
	var result core.ResolutionResult
	if l.resolver == nil {
		result = core.ResolutionResult{
			Strategy: core.StrategyNone,
			Err:      core.NewResolutionError(core.ErrorKindNoIdentifierConfigured, core.StrategyNone, nil),
		}
	} else {
		result = l.resolver.Resolve(ctx)
	}
	l.commit(generation, result)
	return l.Snapshot()
}

// Watch triggers a background load for the current session state and for
// every later transition. Only one watch is active; a second call replaces it.
func (l *ProfileLoader) Watch(provider core.SessionProvider) {
	if l == nil || provider == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	previous := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()
	if previous != nil {
		previous()
	}

	unsubscribe := provider.Subscribe(func(core.Session, bool) {
		l.spawnLoad()
	})

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		unsubscribe()
		return
	}
	l.unsubscribe = unsubscribe
	l.mu.Unlock()
}

// Close stops watching, cancels in-flight loads and waits for them.
func (l *ProfileLoader) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	unsubscribe := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	l.cancel()
	l.wg.Wait()
}

func (l *ProfileLoader) spawnLoad() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()
	go func() {
		defer l.wg.Done()
		l.Load(l.ctx)
	}()
}

func (l *ProfileLoader) begin() (uint64, bool) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0, false
	}
	l.generation++
	generation := l.generation
	l.snapshot = Snapshot{
		State:      StateLoading,
		Generation: generation,
		Profile:    l.snapshot.Profile,
		Stats:      l.snapshot.Stats,
	}
	l.enqueueLocked(l.snapshot)
	l.mu.Unlock()
	l.deliver()
	return generation, true
}

func (l *ProfileLoader) enqueueLocked(snapshot Snapshot) {
	if l.onChange != nil {
		l.pending = append(l.pending, snapshot)
	}
}

// deliver drains pending transitions. Only one goroutine drains at a time.
func (l *ProfileLoader) deliver() {
	l.mu.Lock()
	if l.delivering {
		l.mu.Unlock()
		return
	}
	l.delivering = true
	for len(l.pending) > 0 {
		next := l.pending[0]
		l.pending = l.pending[1:]
		onChange := l.onChange
		l.mu.Unlock()
		onChange(next)
		l.mu.Lock()
	}
	l.delivering = false
	l.mu.Unlock()
}

func (l *ProfileLoader) commit(generation uint64, result core.ResolutionResult) bool {
	result.Generation = generation
	next := Snapshot{
		Generation: generation,
		Strategy:   result.Strategy,
	}
	if result.OK() {
		next.State = StateLoaded
		next.Profile = result.Profile
		next.Stats = StatsFor(result.Profile)
	} else {
		err := result.Err
		if err == nil {
			err = core.NewResolutionError(core.ErrorKindNotFound, result.Strategy, nil)
		}
		next.State = StateFailed
		next.Err = err
		next.Message = UserMessage(err)
	}

	l.mu.Lock()
	if generation != l.generation {
		l.mu.Unlock()
		return false
	}
	l.snapshot = next
	l.enqueueLocked(next)
	l.mu.Unlock()
	l.deliver()
	return true
}
