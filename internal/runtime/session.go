package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/tilbot/internal/logging"
	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/ports"
)

// DefaultSettleDelay is the pause between an Auto block's emission and its advance.
const DefaultSettleDelay = 500 * time.Millisecond

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProvider sets the External Data Provider used by tag lookups and random rows.
func WithProvider(p ports.DataProvider) Option {
	return func(s *Session) {
		s.lookups.provider = p
	}
}

// WithLifecycleHooks registers observability callbacks. Repeated options add
// to the hooks already registered.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = domain.MergeHooks(s.hooks, hooks)
	}
}

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.settle = d
		}
	}
}

// Outcome describes how one utterance was handled.
// Matched is false for a stall: the session stays where it was.
type Outcome struct {
	Matched  bool
	Label    string
	Target   domain.BlockID
	Captured string
	Trigger  bool
	Else     bool
}

type pending struct {
	ctx       context.Context
	utterance string
	reply     chan result
}

type result struct {
	outcome Outcome
	err     error
}

// Session runs one conversation against a project.
//
// All state is owned by a single goroutine. Receive, timers and Close talk
// to it through an inbox, so inputs are processed strictly one at a time.
type Session struct {
	id        string
	project   *domain.Project
	deliverer ports.Deliverer
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	settle    time.Duration

	nav      *Navigator
	vars     *Variables
	lookups  *lookups
	matcher  *Matcher
	triggers []Trigger

	status   domain.Status
	failure  error
	gen      uint64
	timer    *time.Timer
	deferred []pending
	last     *domain.State

	snapshot atomic.Pointer[domain.State]

	inbox  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Start creates a session positioned on the project's starting block and
// schedules its emission. The project must already be validated.
func Start(id string, p *domain.Project, d ports.Deliverer, opts ...Option) (*Session, error) {
	if p == nil {
		return nil, errors.New("project is nil")
	}
	if d == nil {
		return nil, errors.New("deliverer is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		project:   p,
		deliverer: d,
		logger:    logging.NewNop(),
		settle:    DefaultSettleDelay,
		nav:       NewNavigator(&p.Graph),
		vars:      NewVariables(),
		lookups:   &lookups{sessionID: id},
		triggers:  CollectTriggers(&p.Graph),
		status:    domain.StatusAwaitingEmission,
		inbox:     make(chan func(), 16),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", id)
	s.lookups.logger = s.logger
	s.lookups.hooks = s.hooks
	s.matcher = &Matcher{vars: s.vars, lookups: s.lookups}

	if _, err := s.nav.CurrentBlock(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	s.scheduleCurrent(nil)
	s.publish()

	go s.loop()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the latest snapshot. It is safe to call from any goroutine.
func (s *Session) State() *domain.State {
	return s.snapshot.Load()
}

// Receive hands an utterance to the session and waits until it is processed.
// Input that arrives while a message is still pending emission is queued and
// handled once the session waits for input again.
func (s *Session) Receive(ctx context.Context, utterance string) (Outcome, error) {
	reply := make(chan result, 1)
	p := pending{ctx: ctx, utterance: utterance, reply: reply}

	select {
	case s.inbox <- func() { s.accept(p) }:
	case <-s.ctx.Done():
		return Outcome{}, domain.ErrSessionClosed
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.outcome, r.err
	case <-s.done:
		select {
		case r := <-reply:
			return r.outcome, r.err
		default:
			return Outcome{}, domain.ErrSessionClosed
		}
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Close tears the session down: pending timers and in-flight lookups are
// canceled and queued inputs are rejected. It blocks until the session
// goroutine has exited.
func (s *Session) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return
		case op := <-s.inbox:
			op()
			s.publish()
		}
	}
}

func (s *Session) shutdown() {
	if s.timer != nil {
		s.timer.Stop()
	}
	for _, p := range s.deferred {
		p.reply <- result{err: domain.ErrSessionClosed}
	}
	s.deferred = nil
	s.logger.Debug("session closed")
}

// post queues op for the session goroutine. It gives up once the session is closed.
func (s *Session) post(op func()) bool {
	select {
	case s.inbox <- op:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// schedule runs fn on the session goroutine after delay.
// Scheduling again, or failing, invalidates the previous task.
func (s *Session) schedule(delay time.Duration, fn func()) {
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, func() {
		s.post(func() {
			if s.gen == gen && s.failure == nil {
				fn()
			}
		})
	})
}

func (s *Session) accept(p pending) {
	switch {
	case s.failure != nil:
		p.reply <- result{err: fmt.Errorf("%w: %w", domain.ErrSessionFailed, s.failure)}
	case s.status == domain.StatusAwaitingEmission:
		s.deferred = append(s.deferred, p)
	default:
		s.process(p)
	}
}

func (s *Session) process(p pending) {
	if err := p.ctx.Err(); err != nil {
		p.reply <- result{err: err}
		return
	}

	// Lookups stop on either session teardown or caller cancellation.
	ctx, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(p.ctx, cancel)
	defer func() {
		stop()
		cancel()
	}()

	outcome, err := s.handle(ctx, p.utterance)
	if err == nil && s.ctx.Err() != nil {
		err = domain.ErrSessionClosed
	}
	s.publish()
	p.reply <- result{outcome: outcome, err: err}
}

// drainDeferred processes queued inputs while the session waits for input.
func (s *Session) drainDeferred() {
	for len(s.deferred) > 0 && s.status != domain.StatusAwaitingEmission && s.failure == nil {
		p := s.deferred[0]
		s.deferred = s.deferred[1:]
		s.process(p)
	}
}

func (s *Session) handle(ctx context.Context, utterance string) (Outcome, error) {
	block, err := s.nav.CurrentBlock()
	if err != nil {
		s.fail(err)
		return Outcome{}, fmt.Errorf("%w: %w", domain.ErrSessionFailed, err)
	}

	mark := s.nav.Mark()
	m := s.matcher.Match(ctx, block, utterance)
	if m == nil && block.Type != domain.BlockMC {
		m = s.matcher.MatchTriggers(ctx, s.triggers, utterance)
		if m != nil {
			if err := s.nav.Seek(m.Scope, m.Block.ID); err != nil {
				s.fail(err)
				return Outcome{}, fmt.Errorf("%w: %w", domain.ErrSessionFailed, err)
			}
		}
	}

	if m == nil {
		s.logger.Debug("no transition", "block_id", block.ID, "utterance", utterance)
		s.stall(ctx, block.ID, utterance)
		return Outcome{}, nil
	}

	target, _ := m.Connector.Target()
	outcome := Outcome{
		Matched:  true,
		Label:    m.Connector.Label,
		Target:   target,
		Captured: m.Captured,
		Trigger:  m.Trigger,
		Else:     m.Else,
	}

	// An exit with nowhere to go is not a transition: nothing moves and no
	// events run.
	boundary, ok := s.follow(target)
	if !ok {
		s.nav.Restore(mark)
		s.logger.Warn("unresolved group exit, staying put", "block_id", block.ID, "label", m.Connector.Label)
		s.stall(ctx, block.ID, utterance)
		return Outcome{}, nil
	}

	if s.hooks.OnMatch != nil {
		s.hooks.OnMatch(ctx, &domain.MatchEvent{
			EventBase: s.eventBase(domain.EventMatch),
			BlockID:   m.Block.ID,
			Label:     m.Connector.Label,
			Target:    target,
			Captured:  m.Captured,
			Trigger:   m.Trigger,
			Else:      m.Else,
		})
	}

	applyEvents(ctx, m.Connector.Events, s.vars, s.lookups, s.logger)
	for _, c := range boundary {
		applyEvents(ctx, c.Events, s.vars, s.lookups, s.logger)
	}

	s.scheduleCurrent(m.Captured)
	if s.failure != nil {
		return outcome, fmt.Errorf("%w: %w", domain.ErrSessionFailed, s.failure)
	}
	return outcome, nil
}

func (s *Session) stall(ctx context.Context, id domain.BlockID, utterance string) {
	if s.hooks.OnStall != nil {
		s.hooks.OnStall(ctx, &domain.StallEvent{
			EventBase: s.eventBase(domain.EventStall),
			BlockID:   id,
			Utterance: utterance,
		})
	}
}

// follow moves to target. The exit sentinel ascends out of the current group
// and continues along the group's boundary connector whose from_id names the
// block being left; that target may exit again. It returns the boundary
// connectors taken, or false when an exit cannot be resolved.
func (s *Session) follow(target domain.BlockID) ([]*domain.Connector, bool) {
	var taken []*domain.Connector
	from := s.nav.Current()

	for target == domain.ExitSentinel {
		group, ok := s.nav.Exit()
		if !ok {
			return nil, false
		}
		c := boundaryConnector(group, from)
		if c == nil {
			return nil, false
		}
		next, ok := c.Target()
		if !ok {
			return nil, false
		}
		taken = append(taken, c)
		from = group.ID
		target = next
	}

	s.nav.MoveTo(target)
	return taken, true
}

func boundaryConnector(group *domain.Block, from domain.BlockID) *domain.Connector {
	for i := range group.Connectors {
		if group.Connectors[i].FromID == from {
			return &group.Connectors[i]
		}
	}
	return nil
}

// scheduleCurrent arranges the emission of the current block after its delay.
func (s *Session) scheduleCurrent(input any) {
	block, err := s.nav.CurrentBlock()
	if err != nil {
		s.fail(err)
		return
	}
	s.status = domain.StatusAwaitingEmission
	s.schedule(seconds(block.Delay), func() { s.emit(input) })
}

// emit delivers the current block. Groups are entered and their starting
// block is delivered right away.
func (s *Session) emit(input any) {
	block, err := s.nav.CurrentBlock()
	for err == nil && block.IsGroup() {
		if err = s.nav.Enter(block); err == nil {
			block, err = s.nav.CurrentBlock()
			input = nil
		}
	}
	if err != nil {
		s.fail(err)
		return
	}

	msg := BuildMessage(block, Render(block.Content, input, s.vars))
	if err := s.deliverer.Deliver(s.ctx, s.id, msg); err != nil {
		s.logger.Error("failed to deliver message", "block_id", block.ID, "err", err)
	}
	if s.hooks.OnEmit != nil {
		s.hooks.OnEmit(s.ctx, &domain.EmitEvent{
			EventBase: s.eventBase(domain.EventEmit),
			BlockID:   block.ID,
			Path:      s.nav.Path(),
			Message:   msg,
		})
	}

	if block.Type == domain.BlockAuto && len(block.Connectors) > 0 {
		c := &block.Connectors[0]
		if _, ok := c.Target(); ok {
			s.schedule(s.settle, func() { s.advance(c) })
			return
		}
	}

	s.status = domain.StatusAwaitingInput
	if len(block.Connectors) == 0 && len(s.triggers) == 0 {
		s.status = domain.StatusTerminal
	}
	s.drainDeferred()
}

// advance follows an Auto block's connector without user input.
func (s *Session) advance(c *domain.Connector) {
	target, _ := c.Target()
	mark := s.nav.Mark()

	boundary, ok := s.follow(target)
	if !ok {
		s.nav.Restore(mark)
		s.logger.Warn("unresolved group exit, staying put", "block_id", s.nav.Current())
		s.status = domain.StatusAwaitingInput
		s.drainDeferred()
		return
	}

	applyEvents(s.ctx, c.Events, s.vars, s.lookups, s.logger)
	for _, bc := range boundary {
		applyEvents(s.ctx, bc.Events, s.vars, s.lookups, s.logger)
	}
	s.scheduleCurrent(nil)
}

// fail ends the session because the graph could not be resolved.
func (s *Session) fail(err error) {
	if s.failure != nil {
		return
	}
	s.failure = err
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	s.status = domain.StatusTerminal

	s.logger.Error("session failed", "block_id", s.nav.Current(), "path", s.nav.Path(), "err", err)
	if s.hooks.OnFailure != nil {
		s.hooks.OnFailure(s.ctx, &domain.FailureEvent{
			EventBase: s.eventBase(domain.EventFailure),
			Err:       err,
		})
	}
	if r, ok := s.deliverer.(ports.FailureReporter); ok {
		r.ReportFailure(s.ctx, s.id, err)
	}

	rejected := fmt.Errorf("%w: %w", domain.ErrSessionFailed, err)
	for _, p := range s.deferred {
		p.reply <- result{err: rejected}
	}
	s.deferred = nil
}

// publish stores a fresh snapshot and reports it when it changed.
func (s *Session) publish() {
	next := &domain.State{
		SessionID:      s.id,
		CurrentBlockID: s.nav.Current(),
		Path:           s.nav.Path(),
		Variables:      s.vars.Snapshot(),
		Status:         s.status,
	}
	if s.failure != nil {
		next.Err = s.failure.Error()
	}

	prev := s.last
	if prev != nil && domain.Diff(prev, next) == nil {
		return
	}
	s.last = next
	s.snapshot.Store(next)

	if s.hooks.OnChange != nil && prev != nil {
		s.hooks.OnChange(s.ctx, &domain.ChangeEvent{
			EventBase: s.eventBase(domain.EventChange),
			Old:       prev,
			New:       next,
		})
	}
}

func (s *Session) eventBase(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, SessionID: s.id}
}

func seconds(v float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}
