package entity

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// checkRequestTransition — общее правило для заявок на вывод и ручных пополнений:
// переводить может только администратор и только из pending.
func checkRequestTransition(actor Actor, from, to valueobject.RequestStatus) error {
	if !actor.IsAdmin() {
		return apperror.ErrAdminRequired
	}
	if !to.IsValid() || !from.CanTransitionTo(to) {
		return apperror.InvalidTransition(string(from), string(to))
	}
	return nil
}

// checkRequestDeletion запрещает удаление одобренных заявок.
// Администратор удаляет pending и rejected, владелец — только свою pending.
func checkRequestDeletion(actor Actor, ownerID uuid.UUID, status valueobject.RequestStatus) error {
	if status == valueobject.RequestStatusApproved {
		return apperror.InvalidOperation("одобренную заявку нельзя удалить")
	}
	if actor.IsAdmin() {
		return nil
	}
	if !actor.Owns(ownerID) {
		return apperror.ErrForbidden
	}
	if status != valueobject.RequestStatusPending {
		return apperror.InvalidOperation("отменить можно только заявку в ожидании")
	}
	return nil
}
