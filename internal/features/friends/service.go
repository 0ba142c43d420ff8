// Package friends — service.go: приём приглашений и список друзей.
package friends

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fitmates-bot/internal/common"
	"serotonyl.ru/fitmates-bot/internal/features/profile"
)

// Store — хранилище дружбы.
type Store interface {
	AcceptFriend(ctx context.Context, userA, userB int64) error
	GetFriends(ctx context.Context, userID int64) ([]profile.Entry, error)
}

// Service управляет дружбой и реферальными ссылками.
type Service struct {
	store Store
	codec *Codec
}

// NewService создаёт новый сервис друзей.
func NewService(store Store, codec *Codec) *Service {
	return &Service{store: store, codec: codec}
}

// AcceptInvite обрабатывает /start <код>.
// Возвращает ID пригласившего; приглашение самого себя игнорируется.
func (s *Service) AcceptInvite(ctx context.Context, code string, userID int64) (int64, error) {
	inviterID, err := s.codec.Decode(code)
	if err != nil {
		return 0, err
	}
	if inviterID == userID {
		return 0, nil
	}
	if err := s.store.AcceptFriend(ctx, inviterID, userID); err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"inviter_id": inviterID,
		"user_id":    userID,
	}).Info("Приглашение принято")
	return inviterID, nil
}

// Friends возвращает друзей пользователя, упорядоченных как в лидерборде.
// Порядок задаёт хранилище.
func (s *Service) Friends(ctx context.Context, userID int64) ([]profile.Entry, error) {
	return s.store.GetFriends(ctx, userID)
}

// ReferralLink возвращает ссылку-приглашение пользователя.
func (s *Service) ReferralLink(botUsername string, userID int64) string {
	return s.codec.Link(botUsername, userID)
}

// IsInvalidInvite — код не расшифровался (битая или чужая ссылка).
func IsInvalidInvite(err error) bool {
	return errors.Is(err, common.ErrInvalidReferral)
}
