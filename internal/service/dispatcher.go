package service

import (
	"context"
	"time"

	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/mbazhenoff/trainings_bot/internal/timewindow"
	"go.uber.org/zap"
)

// Горизонт, в котором рассыльщик ищет тренировки с только что открывшейся
// записью. Запись открывается за дни до начала, двух недель хватает с запасом.
const openScanHorizon = 14 * 24 * time.Hour

// DispatchStore срез хранилища, нужный рассыльщику уведомлений
type DispatchStore interface {
	SlotsStartingWithin(ctx context.Context, from, until time.Time) ([]*model.TrainingSlot, error)
	NotifyRecipients(ctx context.Context, groupID int64) ([]*model.User, error)
	BookedUserIDs(ctx context.Context, entityType model.EntityType, entityID int64) ([]int64, error)
	ClaimSlotNotice(ctx context.Context, userID, slotID int64) (bool, error)
}

// Dispatcher решает, когда слать уведомления об открытии записи и о подъёме
// из списка ожидания. Саму доставку делает шлюз; её сбой никогда не
// откатывает уже совершённые изменения.
type Dispatcher struct {
	store   DispatchStore
	gateway Gateway
	logger  *zap.Logger
}

func NewDispatcher(store DispatchStore, gateway Gateway, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:   store,
		gateway: gateway,
		logger:  logger,
	}
}

// NotifyPromoted сообщает пользователю, что его бронь поднята из списка
// ожидания. Гость без аккаунта уведомления не получает.
func (d *Dispatcher) NotifyPromoted(ctx context.Context, booking *model.Booking, title string, startsAt time.Time) {
	if booking.User.IsGuest() {
		return
	}

	err := d.gateway.Notify(ctx, booking.User.ID, Notification{
		Kind:       NotifyWaitlistPromoted,
		EntityType: booking.EntityType,
		EntityID:   booking.EntityID,
		Title:      title,
		StartsAt:   startsAt,
	})
	if err != nil {
		d.logger.Error("Failed to deliver promotion notice",
			zap.Int64("user_id", booking.User.ID),
			zap.Int64("booking_id", booking.ID),
			zap.Error(err))
	}
}

// ScanSlotOpenings находит тренировки, запись на которые открылась в последнюю
// минуту, и уведомляет подписанных участников их групп. Отметка об отправке
// ставится до доставки: пропущенный тик ничего не продублирует.
func (d *Dispatcher) ScanSlotOpenings(ctx context.Context, now time.Time) error {
	slots, err := d.store.SlotsStartingWithin(ctx, now, now.Add(openScanHorizon))
	if err != nil {
		return err
	}

	for _, slot := range slots {
		windows, err := timewindow.ForPolicy(slot.Policy())
		if err != nil {
			d.logger.Error("Bad slot window config",
				zap.Int64("slot_id", slot.ID),
				zap.Error(err))
			continue
		}
		if !windows.JustOpened(now) {
			continue
		}

		if err := d.announceOpening(ctx, slot); err != nil {
			return err
		}
	}

	return nil
}

func (d *Dispatcher) announceOpening(ctx context.Context, slot *model.TrainingSlot) error {
	recipients, err := d.store.NotifyRecipients(ctx, slot.GroupID)
	if err != nil {
		return err
	}

	booked, err := d.store.BookedUserIDs(ctx, model.EntityTraining, slot.ID)
	if err != nil {
		return err
	}
	alreadyIn := make(map[int64]bool, len(booked))
	for _, id := range booked {
		alreadyIn[id] = true
	}

	for _, user := range recipients {
		if alreadyIn[user.ID] {
			continue
		}

		claimed, err := d.store.ClaimSlotNotice(ctx, user.ID, slot.ID)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}

		err = d.gateway.Notify(ctx, user.ID, Notification{
			Kind:       NotifySlotOpened,
			EntityType: model.EntityTraining,
			EntityID:   slot.ID,
			Title:      slot.Note,
			StartsAt:   slot.StartsAt,
		})
		if err != nil {
			d.logger.Error("Failed to deliver opening notice",
				zap.Int64("user_id", user.ID),
				zap.Int64("slot_id", slot.ID),
				zap.Error(err))
		}
	}

	return nil
}
