// Package admin implements the admin role: the all-parcels projection,
// agent and user directories, assignment and user-management commands, and
// the client-side reporting reduction with CSV/PDF export.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"courierflow/auth"
	"courierflow/parcel"
)

var (
	// ErrProtectedUser rejects deletion of admin-role users before any
	// request is issued.
	ErrProtectedUser = errors.New("admin: admin users cannot be deleted")
	// ErrUnknownAgent signals an assignment to an agent not in the loaded
	// directory.
	ErrUnknownAgent = errors.New("admin: unknown agent")
	// ErrNotPending signals an assignment to a parcel that is no longer
	// awaiting one; the action is only exposed for pending parcels.
	ErrNotPending = errors.New("admin: parcel is not pending assignment")
)

// API is the slice of the backend transport the admin role uses.
type API interface {
	AdminParcels(ctx context.Context) ([]parcel.Parcel, error)
	AdminAgents(ctx context.Context) ([]auth.User, error)
	AdminUsers(ctx context.Context) ([]auth.User, error)
	AssignAgent(ctx context.Context, parcelID, agentID string) error
	DeleteUser(ctx context.Context, userID string) error
	ExportReport(ctx context.Context, format string) ([]byte, error)
}

// Service owns the admin view's data: the parcel registry plus the agent
// and user directories.
type Service struct {
	api      API
	registry *parcel.Registry

	mu     sync.Mutex
	agents []auth.User
	users  []auth.User
	loaded bool
}

// NewService builds a Service over the transport and the parcels registry.
func NewService(api API, registry *parcel.Registry) *Service {
	return &Service{api: api, registry: registry}
}

// Registry exposes the all-parcels projection for rendering.
func (s *Service) Registry() *parcel.Registry { return s.registry }

// Load fetches parcels, agents and users in parallel and waits for all
// three to settle. Any single failure fails the whole batch; partial results
// are discarded, matching the view's all-or-nothing loading contract.
func (s *Service) Load(ctx context.Context) error {
	var (
		parcels []parcel.Parcel
		agents  []auth.User
		users   []auth.User
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		parcels, err = s.api.AdminParcels(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		agents, err = s.api.AdminAgents(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.api.AdminUsers(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("admin: load dashboard data: %w", err)
	}

	s.registry.Seed(parcels)

	s.mu.Lock()
	s.agents = agents
	s.users = users
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Loaded reports whether a Load has succeeded.
func (s *Service) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Agents returns the assignable agent directory.
func (s *Service) Agents() []auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.User(nil), s.agents...)
}

// Users returns the registered user directory.
func (s *Service) Users() []auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.User(nil), s.users...)
}

// AssignAgent assigns an agent to a pending parcel and applies the local
// confirmation patch: status assigned, agent reference attached.
func (s *Service) AssignAgent(ctx context.Context, parcelID, agentID string) error {
	p, ok := s.registry.Get(parcelID)
	if !ok {
		return fmt.Errorf("admin: assign agent: unknown parcel %q", parcelID)
	}
	if p.Status != parcel.StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrNotPending, parcelID, p.Status)
	}

	agent, ok := s.findAgent(agentID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, agentID)
	}

	if err := s.api.AssignAgent(ctx, parcelID, agentID); err != nil {
		return fmt.Errorf("admin: assign agent: %w", err)
	}

	s.registry.AssignAgent(parcelID, parcel.AgentRef{
		ID:        agent.ID,
		FirstName: agent.FirstName,
		LastName:  agent.LastName,
	})
	return nil
}

// DeleteUser removes a user account. Admin-role users are protected
// client-side: the command is rejected before any request is issued. On
// success exactly that identifier is removed from the local directory.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	var target *auth.User
	for i := range s.users {
		if s.users[i].ID == userID {
			target = &s.users[i]
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return fmt.Errorf("admin: delete user: unknown user %q", userID)
	}
	if target.Role == auth.RoleAdmin {
		return ErrProtectedUser
	}

	if err := s.api.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("admin: delete user: %w", err)
	}

	s.mu.Lock()
	kept := s.users[:0]
	for _, u := range s.users {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	s.users = kept
	s.mu.Unlock()
	return nil
}

func (s *Service) findAgent(agentID string) (auth.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.ID == agentID {
			return a, true
		}
	}
	return auth.User{}, false
}
