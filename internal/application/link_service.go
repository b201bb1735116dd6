package application

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"playlink/internal/models"
	"playlink/internal/repository"
)

const (
	codeDigits       = 6
	codeGenAttempts  = 32
	auditEventLinked = "linked"
	auditEventUnlink = "unlinked"
	auditEventDelete = "deleted"
)

type LinkServiceImpl struct {
	store  repository.LinkStore
	auth   AuthService
	audit  AuditNotifier
	logger Logger

	// mu serializes the compound read-then-write sequences so no caller ever
	// observes a state between "read old record" and "write new record".
	mu sync.Mutex
}

func NewLinkServiceImpl(store repository.LinkStore, auth AuthService, audit AuditNotifier, logger Logger) *LinkServiceImpl {
	return &LinkServiceImpl{
		store:  store,
		auth:   auth,
		audit:  audit,
		logger: logger,
	}
}

// Issue hands out a link code for a game account. A game account that already
// has an unredeemed code gets that same code back with its fingerprint
// refreshed, so a player restarting the client does not churn through codes.
func (s *LinkServiceImpl) Issue(gameAccountID, hardwareID, networkAddress string) (string, error) {
	if gameAccountID == "" {
		return "", fmt.Errorf("%w: game account id is required", ErrInvalidInput)
	}

	s.mu.Lock()

	existing, err := s.store.FindByGameAccount(gameAccountID)
	if err != nil {
		s.mu.Unlock()
		return "", persistenceError("find by game account", err)
	}

	var rec models.LinkRecord
	reused := false
	for _, r := range existing {
		if r.State == models.StateUnlinked {
			rec = r
			rec.HardwareID = hardwareID
			rec.NetworkAddress = networkAddress
			reused = true
			break
		}
	}

	if !reused {
		code, err := s.generateCodeLocked()
		if err != nil {
			s.mu.Unlock()
			return "", err
		}
		rec = models.LinkRecord{
			Code:           code,
			GameAccountID:  gameAccountID,
			HardwareID:     hardwareID,
			NetworkAddress: networkAddress,
			State:          models.StateUnlinked,
			CreatedAt:      time.Now().UTC(),
		}
	}

	if err := s.store.Put(rec); err != nil {
		s.mu.Unlock()
		return "", persistenceError("put link record", err)
	}

	snapshot, err := s.store.All()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Skipping issuance audit, snapshot failed: %v", err)
	} else if s.audit != nil {
		go s.audit.CodeIssued(snapshot)
	}

	s.logger.Info("Issued link code %s for game account %s", rec.Code, gameAccountID)
	return rec.Code, nil
}

func (s *LinkServiceImpl) Lookup(code string) (*models.LinkRecord, error) {
	rec, err := s.store.Get(code)
	if err != nil {
		return nil, persistenceError("get link record", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: no record for code %s", ErrNotFound, code)
	}
	return rec, nil
}

// Redeem consumes a code on behalf of a caller. A spent code stays in the
// store as a Linked record but no longer matches here, so a second redeem of
// the same code reports not-found rather than silently re-linking.
func (s *LinkServiceImpl) Redeem(code, callerID string) (*models.LinkRecord, error) {
	if code == "" || callerID == "" {
		return nil, fmt.Errorf("%w: code and caller id are required", ErrInvalidInput)
	}

	s.mu.Lock()

	rec, err := s.store.Get(code)
	if err != nil {
		s.mu.Unlock()
		return nil, persistenceError("get link record", err)
	}
	if rec == nil || rec.State != models.StateUnlinked {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no active code %s", ErrNotFound, code)
	}

	callerRecs, err := s.store.FindByCaller(callerID)
	if err != nil {
		s.mu.Unlock()
		return nil, persistenceError("find by caller", err)
	}
	for _, r := range callerRecs {
		if r.State == models.StateLinked && r.GameAccountID == rec.GameAccountID {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: game account %s is already linked to this caller", ErrConflict, rec.GameAccountID)
		}
	}

	now := time.Now().UTC()
	rec.CallerID = callerID
	rec.State = models.StateLinked
	rec.LinkedAt = &now

	if err := s.store.Put(*rec); err != nil {
		s.mu.Unlock()
		return nil, persistenceError("put link record", err)
	}
	s.mu.Unlock()

	if s.audit != nil {
		go s.audit.LinkChanged(auditEventLinked, *rec)
	}

	s.logger.Info("Linked game account %s to caller %s via code %s", rec.GameAccountID, callerID, code)
	return rec, nil
}

func (s *LinkServiceImpl) IsLinked(callerID string) (bool, error) {
	recs, err := s.LinkedRecords(callerID)
	if err != nil {
		return false, err
	}
	return len(recs) > 0, nil
}

func (s *LinkServiceImpl) LinkedRecords(callerID string) ([]models.LinkRecord, error) {
	if callerID == "" {
		return nil, fmt.Errorf("%w: caller id is required", ErrInvalidInput)
	}

	recs, err := s.store.FindByCaller(callerID)
	if err != nil {
		return nil, persistenceError("find by caller", err)
	}

	var linked []models.LinkRecord
	for _, r := range recs {
		if r.State == models.StateLinked {
			linked = append(linked, r)
		}
	}
	return linked, nil
}

// Unlink returns every Linked record of the caller to the Unlinked state and
// reports how many were affected; zero means the caller was not linked.
func (s *LinkServiceImpl) Unlink(callerID string) (int, error) {
	if callerID == "" {
		return 0, fmt.Errorf("%w: caller id is required", ErrInvalidInput)
	}

	s.mu.Lock()

	recs, err := s.store.FindByCaller(callerID)
	if err != nil {
		s.mu.Unlock()
		return 0, persistenceError("find by caller", err)
	}

	var changed []models.LinkRecord
	for _, r := range recs {
		if r.State != models.StateLinked {
			continue
		}
		r.State = models.StateUnlinked
		r.CallerID = ""
		r.LinkedAt = nil
		if err := s.store.Put(r); err != nil {
			s.mu.Unlock()
			return len(changed), persistenceError("put link record", err)
		}
		changed = append(changed, r)
	}
	s.mu.Unlock()

	if s.audit != nil && len(changed) > 0 {
		go func() {
			for _, rec := range changed {
				s.audit.LinkChanged(auditEventUnlink, rec)
			}
		}()
	}

	if len(changed) > 0 {
		s.logger.Info("Unlinked %d record(s) for caller %s", len(changed), callerID)
	}
	return len(changed), nil
}

func (s *LinkServiceImpl) DeleteCode(code, requesterID string) error {
	if !s.auth.Authorize(requesterID, models.RoleSupport) {
		return fmt.Errorf("%w: support role required", ErrForbidden)
	}
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	s.mu.Lock()

	rec, err := s.store.Get(code)
	if err != nil {
		s.mu.Unlock()
		return persistenceError("get link record", err)
	}
	if rec == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: no record for code %s", ErrNotFound, code)
	}

	if err := s.store.Delete(code); err != nil {
		s.mu.Unlock()
		return persistenceError("delete link record", err)
	}
	s.mu.Unlock()

	if s.audit != nil {
		go s.audit.LinkChanged(auditEventDelete, *rec)
	}

	s.logger.Info("Deleted link record %s (requested by %s)", code, requesterID)
	return nil
}

func (s *LinkServiceImpl) ListAll(requesterID string) ([]models.LinkRecord, error) {
	if !s.auth.Authorize(requesterID, models.RoleSupport) {
		return nil, fmt.Errorf("%w: support role required", ErrForbidden)
	}

	recs, err := s.store.All()
	if err != nil {
		return nil, persistenceError("list link records", err)
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	return recs, nil
}

// generateCodeLocked draws a fixed-width numeric code uniformly over its full
// range and re-checks for collisions against live records. Must be called
// with s.mu held so the check and the eventual write are one atomic step.
func (s *LinkServiceImpl) generateCodeLocked() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate link code: %w", err)
		}
		code := fmt.Sprintf("%0*d", codeDigits, n)

		existing, err := s.store.Get(code)
		if err != nil {
			return "", persistenceError("get link record", err)
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: link code space exhausted", ErrConflict)
}
