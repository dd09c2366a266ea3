package infrastructure

import (
	"raffle/application"
	"raffle/domain/interfaces"
)

// UnitOfWorkFactory implements application.UnitOfWorkFactory. Each unit of
// work pairs a storage transaction with a transactional event publisher.
type UnitOfWorkFactory struct {
	repoFactory    application.TransactionFactory
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(repoFactory application.TransactionFactory, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	if eventPublisher == nil {
		eventPublisher = NewNoopEventPublisher()
	}
	return &UnitOfWorkFactory{
		repoFactory:    repoFactory,
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork with a transactional event publisher
func (f *UnitOfWorkFactory) Create() application.UnitOfWork {
	return &unitOfWork{
		inner:                  f.repoFactory.Create(),
		transactionalPublisher: NewNATSTransactionalPublisher(f.eventPublisher),
	}
}
