package services

import (
	"errors"
	"fmt"
	"resto_manager/internal/broadcast"
	"resto_manager/internal/models"
	"resto_manager/internal/redis"
	"resto_manager/internal/repository"
	"time"

	"gorm.io/gorm"
)

// TableService manages floor tables and the QR sessions bound to them.
type TableService interface {
	StartSession(tableID uint) (*redis.TableSession, error)
	EndSession(token string) error
	GetTables() ([]models.Table, error)
	FreeTable(tableID uint) (*models.Table, error)
}

// SessionStore is the backend the table service mints and revokes
// session tokens against.
type SessionStore interface {
	StartTableSession(tableID uint, ttl time.Duration) (*redis.TableSession, error)
	GetTableSession(token string) (*redis.TableSession, error)
	EndTableSession(token string) error
}

type tableService struct {
	tableRepo  repository.TableRepository
	sessions   SessionStore
	publisher  broadcast.Publisher
	sessionTTL time.Duration
}

func NewTableService(tableRepo repository.TableRepository, sessions SessionStore, publisher broadcast.Publisher, sessionTTL time.Duration) TableService {
	return &tableService{
		tableRepo:  tableRepo,
		sessions:   sessions,
		publisher:  publisher,
		sessionTTL: sessionTTL,
	}
}

// StartSession mints a session token for a table and marks it occupied.
// A second scan on an occupied table issues a fresh token for the same
// sitting.
func (s *tableService) StartSession(tableID uint) (*redis.TableSession, error) {
	table, err := s.tableRepo.GetByID(tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "table"}
		}
		return nil, err
	}
	if table.Status == string(models.TableCleaning) {
		return nil, newStateConflictError("table %d is being cleaned", table.Number)
	}

	session, err := s.sessions.StartTableSession(tableID, s.sessionTTL)
	if err != nil {
		return nil, err
	}

	if table.Status == string(models.TableFree) {
		if err := s.tableRepo.UpdateStatus(tableID, string(models.TableOccupied)); err != nil {
			return nil, err
		}
		table.Status = string(models.TableOccupied)
		s.publisher.Publish(broadcast.ChannelTables, table)
	}

	return session, nil
}

// EndSession revokes a session token, used when staff closes out a
// table before the TTL expires.
func (s *tableService) EndSession(token string) error {
	if _, err := s.sessions.GetTableSession(token); err != nil {
		if errors.Is(err, redis.ErrSessionNotFound) {
			return &NotFoundError{Entity: "session"}
		}
		return err
	}
	return s.sessions.EndTableSession(token)
}

func (s *tableService) GetTables() ([]models.Table, error) {
	return s.tableRepo.GetAll()
}

// FreeTable is the staff action returning a cleaned table to service.
func (s *tableService) FreeTable(tableID uint) (*models.Table, error) {
	table, err := s.tableRepo.GetByID(tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "table"}
		}
		return nil, err
	}

	if err := s.tableRepo.UpdateStatus(tableID, string(models.TableFree)); err != nil {
		return nil, err
	}
	table.Status = string(models.TableFree)

	s.publisher.Publish(broadcast.ChannelTables, table)
	s.publisher.Publish(broadcast.ChannelNotifications, fmt.Sprintf("Table %d is free", table.Number))
	return table, nil
}
