package session

import (
	"context"
	"time"

	"github.com/jwebster45206/npc-engine/pkg/world"
)

// StartWatchdog launches the periodic session scan. Call Shutdown to
// stop it.
func (r *Registry) StartWatchdog(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.watchdogCancel = cancel
	r.watchdogDone = make(chan struct{})

	go func() {
		defer close(r.watchdogDone)
		ticker := time.NewTicker(r.settings.WatchdogInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.scan(now)
			}
		}
	}()
}

// Shutdown stops the watchdog and drops all sessions.
func (r *Registry) Shutdown() {
	if r.watchdogCancel != nil {
		r.watchdogCancel()
		<-r.watchdogDone
	}
	r.mu.Lock()
	r.sessions = make(map[world.ActorID]*Session)
	r.mu.Unlock()
}

// scan examines every active session once. Checks run in a fixed
// order - actor gone, entity invalid, too far, inactive - and the
// first true check wins for that session this tick, so each teardown
// notifies at most once.
func (r *Registry) scan(now time.Time) {
	r.mu.Lock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.Unlock()

	for _, s := range snapshot {
		r.checkSession(s, now)
	}
}

func (r *Registry) checkSession(s *Session, now time.Time) {
	actor, ok := r.dir.Actor(s.Actor)
	if !ok || !actor.Online() {
		if r.remove(s) {
			r.logger.Info("Session removed, actor gone", "actor", s.Actor)
		}
		return
	}

	entity, ok := r.dir.Entity(s.Entity)
	if !ok || !entity.Valid() {
		if r.remove(s) {
			r.logger.Info("Session removed, entity invalid", "actor", s.Actor, "entity", s.Entity)
			r.notifier.Notify(s.Actor, msgEntityGone)
		}
		return
	}

	if world.Distance(actor.Position(), entity.Position()) > r.settings.MaxDistance {
		if r.remove(s) {
			r.logger.Info("Session removed, too far", "actor", s.Actor, "entity", s.Entity)
			r.notifier.Notify(s.Actor, msgTooFar)
		}
		return
	}

	r.mu.Lock()
	lastActivity := s.LastActivity
	r.mu.Unlock()
	if now.Sub(lastActivity) > r.settings.Timeout {
		if r.remove(s) {
			r.logger.Info("Session removed, timed out", "actor", s.Actor, "entity", s.Entity)
			r.notifier.Notify(s.Actor, msgTimedOut)
		}
		return
	}
}

// remove deletes s only if it is still the actor's current session,
// so a session recreated between scan and removal is untouched.
func (r *Registry) remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[s.Actor]
	if !ok || current.ID != s.ID {
		return false
	}
	delete(r.sessions, s.Actor)
	return true
}
