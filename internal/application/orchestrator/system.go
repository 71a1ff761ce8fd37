package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/dagsys/internal/application/workers"
	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// errNilInstance is reported when an actor call succeeds but hands back no
// instance to continue with.
var errNilInstance = errors.New("returned a nil instance")

// errActorPanic wraps a panic raised inside an actor call.
var errActorPanic = errors.New("actor panicked")

// System owns the role->component mapping of one blueprint and drives its
// start and stop protocol.
type System struct {
	blueprint *domain.Blueprint
	graph     *DependencyGraph
	order     []domain.Role
	levels    [][]domain.Role

	logger      *zap.Logger
	metrics     ports.MetricsCollector
	eventBus    ports.EventBus
	eventTopic  string
	rollback    bool
	concurrency int
	pool        *workers.Pool

	mu         sync.RWMutex
	state      domain.State
	components map[domain.Role]domain.Component
	producers  map[domain.Role]domain.Producer
	phases     map[domain.Role]domain.RolePhase
	started    []domain.Role
}

// NewSystem validates bp, builds its dependency graph and computes the
// processing order. No actor and no producer is invoked.
func NewSystem(bp *domain.Blueprint, opts ...Option) (*System, error) {
	if err := NewValidator().Validate(bp); err != nil {
		return nil, err
	}

	s := &System{
		blueprint:  bp,
		logger:     zap.NewNop(),
		metrics:    ports.NopMetrics{},
		eventTopic: DefaultEventTopic,
		state:      domain.StateNotStarted,
		components: make(map[domain.Role]domain.Component),
		producers:  make(map[domain.Role]domain.Producer),
		phases:     make(map[domain.Role]domain.RolePhase),
	}
	for _, opt := range opts {
		opt(s)
	}

	g := NewDependencyGraph()
	for _, role := range bp.Roles() {
		g.AddNode(role)
	}
	for _, role := range bp.Roles() {
		for _, dep := range bp.DependenciesOf(role) {
			if !g.HasNode(dep) {
				return nil, &domain.ValidationError{
					Missing: []domain.MissingDependency{{Role: role, Dependency: dep}},
				}
			}
			if err := g.AddEdge(dep, role); err != nil {
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w", dep, role, err)
			}
		}
	}

	order, err := g.LinearOrder()
	if err != nil {
		s.logger.Error("blueprint rejected", zap.Error(err))
		return nil, err
	}
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}

	s.graph = g
	s.order = order
	s.levels = levels

	for _, role := range order {
		spec, _ := bp.Spec(role)
		if spec.Producer != nil {
			s.producers[role] = spec.Producer
		} else {
			s.components[role] = spec.Initial
		}
		s.phases[role] = domain.RolePhasePending
	}

	if s.concurrency > 1 {
		s.pool = workers.NewPool(s.concurrency, s.metrics, s.logger)
	}

	s.logger.Info("system constructed",
		zap.Int("roles", len(order)),
		zap.Int("levels", len(levels)),
		zap.Strings("order", roleStrings(order)))

	return s, nil
}

// Start injects and starts every role in dependency order.
//
// It fails with *domain.LifecycleOrderError unless the system is NotStarted.
// Producers are all invoked and their results checked before any actor is
// called. Any role failure aborts the walk, moves the system to Failed and is
// returned as a *domain.StartupFailure (combined with the other failures of
// the same level in concurrent mode).
func (s *System) Start(ctx context.Context) error {
	if err := s.transition("start", domain.StateNotStarted, domain.StateStarting); err != nil {
		return err
	}
	s.publish(ctx, domain.EventTypeSystemStarting, "", nil)
	s.logger.Info("starting system", zap.Int("roles", len(s.order)))
	began := time.Now()

	if err := s.resolveProducers(ctx); err != nil {
		s.fail(ctx, "start", err)
		return err
	}

	var err error
	if s.pool != nil {
		err = s.runLevels(ctx, s.levels, s.startRole)
	} else {
		err = s.runSequential(ctx, s.order, s.startRole)
	}

	if err != nil {
		if s.rollback {
			if rbErr := s.rollbackStarted(ctx); rbErr != nil {
				err = multierr.Append(err, rbErr)
			}
		}
		s.fail(ctx, "start", err)
		return err
	}

	if err := s.transition("start", domain.StateStarting, domain.StateStarted); err != nil {
		return err
	}
	s.publish(ctx, domain.EventTypeSystemStarted, "", map[string]interface{}{
		"duration_ms": time.Since(began).Milliseconds(),
	})
	s.logger.Info("system started", zap.Duration("duration", time.Since(began)))
	return nil
}

// Stop stops every role in the reverse of the start order.
//
// It fails with *domain.LifecycleOrderError unless the system is Started.
// A role failure aborts the walk, moves the system to Failed and is returned
// as a *domain.ShutdownFailure.
func (s *System) Stop(ctx context.Context) error {
	if err := s.transition("stop", domain.StateStarted, domain.StateStopping); err != nil {
		return err
	}
	s.publish(ctx, domain.EventTypeSystemStopping, "", nil)
	s.logger.Info("stopping system", zap.Int("roles", len(s.order)))
	began := time.Now()

	var err error
	if s.pool != nil {
		err = s.runLevels(ctx, reverseLevels(s.levels), s.stopRole)
	} else {
		err = s.runSequential(ctx, reverseRoles(s.StartOrder()), s.stopRole)
	}

	if err != nil {
		s.fail(ctx, "stop", err)
		return err
	}

	if err := s.transition("stop", domain.StateStopping, domain.StateStopped); err != nil {
		return err
	}
	s.publish(ctx, domain.EventTypeSystemStopped, "", nil)
	s.logger.Info("system stopped", zap.Duration("duration", time.Since(began)))
	return nil
}

// State returns the current lifecycle state.
func (s *System) State() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Component returns the current component of role.
func (s *System) Component(role domain.Role) (domain.Component, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.components[role]
	return c, ok
}

// Order returns the processing order computed at construction.
func (s *System) Order() []domain.Role {
	out := make([]domain.Role, len(s.order))
	copy(out, s.order)
	return out
}

// Levels returns the dependency levels computed at construction.
func (s *System) Levels() [][]domain.Role {
	out := make([][]domain.Role, len(s.levels))
	for i, level := range s.levels {
		out[i] = append([]domain.Role(nil), level...)
	}
	return out
}

// StartOrder returns the roles in the order their start completed.
func (s *System) StartOrder() []domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Role, len(s.started))
	copy(out, s.started)
	return out
}

// Pool returns the worker pool used in concurrent mode, or nil.
func (s *System) Pool() *workers.Pool {
	return s.pool
}

// Status returns a snapshot of the system and all of its roles.
func (s *System) Status() domain.SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]domain.RoleStatus, 0, len(s.order))
	for _, role := range s.order {
		capability := domain.Classify(s.components[role]).String()
		if _, unresolved := s.producers[role]; unresolved {
			capability = "unresolved"
		}
		roles = append(roles, domain.RoleStatus{
			Role:        role,
			Description: s.blueprint.Description(role),
			Capability:  capability,
			Phase:       s.phases[role],
			DependsOn:   s.blueprint.DependenciesOf(role),
		})
	}

	return domain.SystemStatus{
		State: s.state.String(),
		Roles: roles,
	}
}

// startRole resolves, injects and starts a single role
func (s *System) startRole(ctx context.Context, role domain.Role) error {
	comp, _ := s.Component(role)

	deps := s.blueprint.DependenciesOf(role)
	actor, ok := domain.AsActor(comp)
	if !ok {
		s.markStarted(role, comp)
		s.logger.Debug("passive role ready", zap.String("role", string(role)))
		return nil
	}

	for _, dep := range deps {
		depComp, _ := s.Component(dep)

		began := time.Now()
		next, err := callActor(func() (domain.Actor, error) {
			return actor.Inject(dep, depComp)
		})
		if err != nil {
			s.metrics.RecordRoleOperation(string(role), "inject", "failure", time.Since(began))
			return s.startFailure(ctx, role, domain.PhaseInject, fmt.Errorf("inject %s: %w", dep, err))
		}
		s.metrics.RecordRoleOperation(string(role), "inject", "success", time.Since(began))

		actor = next
		s.setComponent(role, actor)
		s.publish(ctx, domain.EventTypeRoleInjected, role, map[string]interface{}{
			"dependency": string(dep),
		})
	}

	began := time.Now()
	next, err := callActor(func() (domain.Actor, error) {
		return actor.Start(ctx)
	})
	if err != nil {
		s.metrics.RecordRoleOperation(string(role), "start", "failure", time.Since(began))
		return s.startFailure(ctx, role, domain.PhaseStart, err)
	}
	s.metrics.RecordRoleOperation(string(role), "start", "success", time.Since(began))

	s.markStarted(role, next)
	s.publish(ctx, domain.EventTypeRoleStarted, role, nil)
	s.logger.Info("role started",
		zap.String("role", string(role)),
		zap.Int("dependencies", len(deps)),
		zap.Duration("duration", time.Since(began)))

	return nil
}

// stopRole stops a single role if it holds an actor
func (s *System) stopRole(ctx context.Context, role domain.Role) error {
	comp, _ := s.Component(role)
	actor, ok := domain.AsActor(comp)
	if !ok {
		s.setPhase(role, domain.RolePhaseStopped)
		return nil
	}

	began := time.Now()
	next, err := callActor(func() (domain.Actor, error) {
		return actor.Stop(ctx)
	})
	if err != nil {
		s.metrics.RecordRoleOperation(string(role), "stop", "failure", time.Since(began))
		s.setPhase(role, domain.RolePhaseFailed)
		s.logger.Error("role stop failed", zap.String("role", string(role)), zap.Error(err))
		s.publish(ctx, domain.EventTypeRoleFailed, role, map[string]interface{}{
			"error": err.Error(),
		})
		return &domain.ShutdownFailure{Role: role, Err: err}
	}
	s.metrics.RecordRoleOperation(string(role), "stop", "success", time.Since(began))

	s.setComponent(role, next)
	s.setPhase(role, domain.RolePhaseStopped)
	s.publish(ctx, domain.EventTypeRoleStopped, role, nil)
	s.logger.Info("role stopped",
		zap.String("role", string(role)),
		zap.Duration("duration", time.Since(began)))

	return nil
}

// rollbackStarted stops every already-started role in reverse. It keeps
// going past failures and returns them combined.
func (s *System) rollbackStarted(ctx context.Context) error {
	started := s.StartOrder()
	s.logger.Warn("rolling back started roles", zap.Int("roles", len(started)))

	var errs error
	for _, role := range reverseRoles(started) {
		errs = multierr.Append(errs, s.stopRole(ctx, role))
	}
	return errs
}

func (s *System) runSequential(ctx context.Context, roles []domain.Role, fn func(context.Context, domain.Role) error) error {
	for _, role := range roles {
		if err := fn(ctx, role); err != nil {
			return err
		}
	}
	return nil
}

func (s *System) runLevels(ctx context.Context, levels [][]domain.Role, fn func(context.Context, domain.Role) error) error {
	if err := s.pool.Start(); err != nil {
		return err
	}
	defer func() {
		if err := s.pool.Shutdown(context.Background()); err != nil {
			s.logger.Warn("worker pool shutdown failed", zap.Error(err))
		}
	}()

	for i, level := range levels {
		jobs := make([]workers.Job, 0, len(level))
		for _, role := range level {
			role := role
			jobs = append(jobs, workers.Job{
				Name: string(role),
				Run: func(ctx context.Context) error {
					return fn(ctx, role)
				},
			})
		}

		s.logger.Debug("running level",
			zap.Int("level", i),
			zap.Strings("roles", roleStrings(level)))

		if err := s.pool.RunBatch(ctx, jobs); err != nil {
			return err
		}
	}
	return nil
}

// resolveProducers invokes every pending producer in processing order and
// re-checks the composition against the produced values. No actor is called.
func (s *System) resolveProducers(ctx context.Context) error {
	for _, role := range s.order {
		if _, err := s.resolve(role); err != nil {
			return s.startFailure(ctx, role, domain.PhaseProduce, err)
		}
	}

	var offending []domain.Role
	for _, role := range s.order {
		comp, _ := s.Component(role)
		if len(s.blueprint.DependenciesOf(role)) > 0 && domain.Classify(comp) != domain.CapabilityActor {
			offending = append(offending, role)
		}
	}
	if len(offending) > 0 {
		return s.startFailure(ctx, offending[0], domain.PhaseProduce,
			&domain.CompositionError{Roles: offending})
	}
	return nil
}

// resolve returns the role's component, invoking its producer the first
// time.
func (s *System) resolve(role domain.Role) (domain.Component, error) {
	s.mu.RLock()
	producer, pending := s.producers[role]
	comp := s.components[role]
	s.mu.RUnlock()

	if !pending {
		return comp, nil
	}

	comp, err := producer()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.producers, role)
	s.components[role] = comp
	s.mu.Unlock()

	return comp, nil
}

// callActor runs one lifecycle call. A panic or an unusable returned instance
// becomes an error.
func callActor(call func() (domain.Actor, error)) (next domain.Actor, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, err = nil, fmt.Errorf("%w: %v", errActorPanic, r)
		}
	}()

	next, err = call()
	if err != nil {
		return nil, err
	}
	if domain.IsNilInstance(next) {
		return nil, errNilInstance
	}
	return next, nil
}

func (s *System) startFailure(ctx context.Context, role domain.Role, phase domain.StartupPhase, err error) error {
	s.setPhase(role, domain.RolePhaseFailed)
	s.logger.Error("role start failed",
		zap.String("role", string(role)),
		zap.String("phase", string(phase)),
		zap.Error(err))
	s.publish(ctx, domain.EventTypeRoleFailed, role, map[string]interface{}{
		"phase": string(phase),
		"error": err.Error(),
	})
	return &domain.StartupFailure{Role: role, Phase: phase, Err: err}
}

func (s *System) transition(op string, from, to domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != from {
		return &domain.LifecycleOrderError{Op: op, State: s.state}
	}
	s.state = to
	s.metrics.RecordTransition(from.String(), to.String())
	return nil
}

func (s *System) fail(ctx context.Context, op string, err error) {
	s.mu.Lock()
	from := s.state
	s.state = domain.StateFailed
	s.mu.Unlock()

	s.metrics.RecordTransition(from.String(), domain.StateFailed.String())
	s.logger.Error("system failed",
		zap.String("op", op),
		zap.String("from", from.String()),
		zap.Error(err))
	s.publish(ctx, domain.EventTypeSystemFailed, "", map[string]interface{}{
		"op":    op,
		"error": err.Error(),
	})
}

func (s *System) markStarted(role domain.Role, comp domain.Component) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components[role] = comp
	s.phases[role] = domain.RolePhaseStarted
	s.started = append(s.started, role)
}

func (s *System) setComponent(role domain.Role, comp domain.Component) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components[role] = comp
}

func (s *System) setPhase(role domain.Role, phase domain.RolePhase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases[role] = phase
}

// publish sends a lifecycle event when an event bus is configured
func (s *System) publish(ctx context.Context, eventType domain.EventType, role domain.Role, data map[string]interface{}) {
	if s.eventBus == nil {
		return
	}

	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Role:      role,
		Data:      data,
	}

	if err := s.eventBus.Publish(ctx, s.eventTopic, event); err != nil {
		s.logger.Warn("failed to publish lifecycle event",
			zap.String("event_type", string(eventType)),
			zap.String("role", string(role)),
			zap.Error(err))
	}
}

func reverseRoles(roles []domain.Role) []domain.Role {
	out := make([]domain.Role, len(roles))
	for i, r := range roles {
		out[len(roles)-1-i] = r
	}
	return out
}

func reverseLevels(levels [][]domain.Role) [][]domain.Role {
	out := make([][]domain.Role, len(levels))
	for i, level := range levels {
		out[len(levels)-1-i] = level
	}
	return out
}

func roleStrings(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
