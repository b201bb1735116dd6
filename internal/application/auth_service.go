package application

import (
	"fmt"
	"strings"
	"sync"

	"playlink/internal/models"
	"playlink/internal/repository"
)

// AuthServiceImpl classifies callers into roles. Owner is fixed at startup,
// support staff is an owner-managed in-process set, and linked-user is
// recomputed from the record store on every check.
type AuthServiceImpl struct {
	store   repository.LinkStore
	ownerID string
	logger  Logger

	mu      sync.RWMutex
	support map[string]struct{}
}

func NewAuthServiceImpl(store repository.LinkStore, ownerID string, supportIDs []string, logger Logger) *AuthServiceImpl {
	support := make(map[string]struct{})
	for _, id := range supportIDs {
		cleanID := strings.TrimSpace(id)
		if cleanID != "" {
			support[cleanID] = struct{}{}
		}
	}

	return &AuthServiceImpl{
		store:   store,
		ownerID: ownerID,
		support: support,
		logger:  logger,
	}
}

func (s *AuthServiceImpl) RoleOf(callerID string) models.Role {
	if callerID == "" {
		return models.RoleAnonymous
	}
	if s.ownerID != "" && callerID == s.ownerID {
		return models.RoleOwner
	}

	s.mu.RLock()
	_, isSupport := s.support[callerID]
	s.mu.RUnlock()
	if isSupport {
		return models.RoleSupport
	}

	recs, err := s.store.FindByCaller(callerID)
	if err != nil {
		// Fail closed: an unreadable store grants nothing.
		s.logger.Warn("Role lookup failed for %s: %v", callerID, err)
		return models.RoleAnonymous
	}
	for _, r := range recs {
		if r.State == models.StateLinked {
			return models.RoleLinked
		}
	}
	return models.RoleAnonymous
}

func (s *AuthServiceImpl) Authorize(callerID string, required models.Role) bool {
	return s.RoleOf(callerID).AtLeast(required)
}

func (s *AuthServiceImpl) AddSupport(requesterID, userID string) error {
	if s.RoleOf(requesterID) != models.RoleOwner {
		return fmt.Errorf("%w: owner role required", ErrForbidden)
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	s.support[userID] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("Added support staff %s", userID)
	return nil
}

func (s *AuthServiceImpl) RemoveSupport(requesterID, userID string) error {
	if s.RoleOf(requesterID) != models.RoleOwner {
		return fmt.Errorf("%w: owner role required", ErrForbidden)
	}

	s.mu.Lock()
	_, ok := s.support[userID]
	if ok {
		delete(s.support, userID)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s is not support staff", ErrNotFound, userID)
	}

	s.logger.Info("Removed support staff %s", userID)
	return nil
}
