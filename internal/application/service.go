package application

import (
	"playlink/internal/models"
	"playlink/internal/repository"
)

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// AuditNotifier receives best-effort notifications after a store mutation has
// been committed. Implementations swallow delivery failures; they must never
// affect the outcome of the operation that triggered them.
type AuditNotifier interface {
	CodeIssued(all []models.LinkRecord)
	LinkChanged(event string, rec models.LinkRecord)
}

type LinkService interface {
	Issue(gameAccountID, hardwareID, networkAddress string) (string, error)
	Lookup(code string) (*models.LinkRecord, error)
	Redeem(code, callerID string) (*models.LinkRecord, error)
	IsLinked(callerID string) (bool, error)
	LinkedRecords(callerID string) ([]models.LinkRecord, error)
	Unlink(callerID string) (int, error)
	DeleteCode(code, requesterID string) error
	ListAll(requesterID string) ([]models.LinkRecord, error)
	ExportReport(requesterID string) ([]byte, error)
}

type AuthService interface {
	RoleOf(callerID string) models.Role
	Authorize(callerID string, required models.Role) bool
	AddSupport(requesterID, userID string) error
	RemoveSupport(requesterID, userID string) error
}

type Service struct {
	Links LinkService
	Auth  AuthService
}

func NewService(repos *repository.Repository, ownerID string, supportIDs []string, audit AuditNotifier, logger Logger) *Service {
	auth := NewAuthServiceImpl(repos.Links, ownerID, supportIDs, logger)
	return &Service{
		Auth:  auth,
		Links: NewLinkServiceImpl(repos.Links, auth, audit, logger),
	}
}
