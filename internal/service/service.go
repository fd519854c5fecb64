package service

import (
	"log/slog"
	"time"

	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/internal/security/audit"
	"github.com/yourorg/tastebook/pkg/database"
)

// Deps are the collaborators shared by every service
type Deps struct {
	Pool   *database.ConnectionPool
	Store  *repository.Store
	Audit  *audit.Logger
	Logger *slog.Logger
	// Now is the service clock; nil means time.Now
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Store == nil {
		d.Store = repository.NewStore(d.Now)
	}
	if d.Audit == nil {
		d.Audit = audit.NewLogger(d.Logger)
	}
	return d
}

// today is the current UTC date at midnight
func (d Deps) today() time.Time {
	now := d.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
