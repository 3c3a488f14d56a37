// Package chat implements the chat lifecycle for both kinds: one-to-one
// chats between two users and named chats owned by a group. Messages are
// append-only and removed only by the deletion cascades.
package chat

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
	"github.com/ulternae/kcchat/service/membership"
	"gorm.io/gorm"
)

type Manager struct {
	queries *db.Queries
	engine  *membership.Engine
	logger  *slog.Logger
}

func NewManager(queries *db.Queries, engine *membership.Engine, logger *slog.Logger) *Manager {
	return &Manager{
		queries: queries,
		engine:  engine,
		logger:  logger,
	}
}

type Participant struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// Summary is a chat with its display name resolved: a direct chat shows
// the counterpart's nickname, a group chat its own name.
type Summary struct {
	ChatID  string        `json:"chat_id"`
	Name    string        `json:"name"`
	IsGroup bool          `json:"is_group"`
	Users   []Participant `json:"users"`
}

// Overview partitions the chats a user participates in by kind.
type Overview struct {
	Chats  []Summary `json:"chats"`
	Groups []Summary `json:"groups"`
}

type MessageView struct {
	MessageID uint           `json:"message_id"`
	ChatID    string         `json:"room"`
	SenderID  string         `json:"user_id"`
	Nickname  string         `json:"nickname"`
	AvatarURL string         `json:"avatar_url"`
	Content   string         `json:"content"`
	Type      db.MessageType `json:"type"`
	SentAt    time.Time      `json:"sent_at"`
}

// pairKey builds the sorted participant pair used by the unique index on
// direct chats.
func pairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// CreateDirect creates the unique 1:1 chat between the actor and a friend.
// The pre-check catches the common duplicate path; the unique pair index
// closes the race between two concurrent first requests.
func (manager *Manager) CreateDirect(actorID, friendID string) (*db.Chat, error) {
	if actorID == friendID {
		return nil, apperr.Validation("cannot create a chat with yourself", "friend_id")
	}

	var friend db.User
	result := manager.queries.DB.Where("user_id = ?", friendID).First(&friend)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("the friend for creating the chat does not exist", "friend_id")
		}
		return nil, apperr.Database("users", result.Error)
	}

	key := pairKey(actorID, friendID)

	var count int64
	result = manager.queries.DB.
		Model(&db.Chat{}).
		Where("pair_key = ? AND is_group = ?", key, false).
		Count(&count)
	if result.Error != nil {
		return nil, apperr.Database("chats", result.Error)
	}
	if count > 0 {
		return nil, apperr.Conflict("a chat already exists between these users", "chat_id")
	}

	chat := db.Chat{
		ID:        uuid.NewString(),
		IsGroup:   false,
		PairKey:   &key,
		CreatedAt: time.Now(),
	}

	err := manager.queries.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}
		participants := []db.ChatParticipant{
			{ChatID: chat.ID, UserID: actorID},
			{ChatID: chat.ID, UserID: friendID},
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("a chat already exists between these users", "chat_id")
		}
		return nil, apperr.Database("chats, chat_participants", err)
	}

	return &chat, nil
}

// ListForUser fetches every chat the actor participates in, partitioned
// into direct chats and group chats.
func (manager *Manager) ListForUser(actorID, actorNickname string) (*Overview, error) {
	var chatIDs []string
	result := manager.queries.DB.
		Model(&db.ChatParticipant{}).
		Where("user_id = ?", actorID).
		Pluck("chat_id", &chatIDs)
	if result.Error != nil {
		return nil, apperr.Database("chat_participants", result.Error)
	}

	overview := &Overview{Chats: []Summary{}, Groups: []Summary{}}

	for _, chatID := range chatIDs {
		summary, err := manager.summarize(chatID, actorNickname)
		if err != nil {
			return nil, err
		}
		if summary.IsGroup {
			overview.Groups = append(overview.Groups, *summary)
		} else {
			overview.Chats = append(overview.Chats, *summary)
		}
	}

	return overview, nil
}

// GetByID returns a single chat summary for a participant-facing view.
func (manager *Manager) GetByID(actorNickname, chatID string) (*Summary, error) {
	if _, _, err := manager.engine.ResolveChat(chatID); err != nil {
		return nil, err
	}
	return manager.summarize(chatID, actorNickname)
}

func (manager *Manager) summarize(chatID, actorNickname string) (*Summary, error) {
	var chat db.Chat
	result := manager.queries.DB.Where("chat_id = ?", chatID).First(&chat)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("the chat was not found", "chat_id")
		}
		return nil, apperr.Database("chats", result.Error)
	}

	var users []Participant
	queryResult := manager.queries.DB.
		Table("chat_participants").
		Select("users.user_id, users.nickname, users.email").
		Joins("JOIN users ON users.user_id = chat_participants.user_id").
		Where("chat_participants.chat_id = ?", chatID).
		Scan(&users)
	if queryResult.Error != nil {
		return nil, apperr.Database("chat_participants", queryResult.Error)
	}

	summary := &Summary{
		ChatID:  chat.ID,
		IsGroup: chat.IsGroup,
		Users:   users,
	}

	if chat.Name != nil {
		summary.Name = *chat.Name
	}
	if !chat.IsGroup {
		// Direct chats display the other participant's nickname
		for _, user := range users {
			if user.Nickname != actorNickname {
				summary.Name = user.Nickname
				break
			}
		}
	}

	return summary, nil
}

// SendMessage appends a message to a chat. The sender must be a current
// participant; the original service skipped that check, this one enforces
// it deliberately.
func (manager *Manager) SendMessage(actorID, chatID, content string, msgType db.MessageType) (*db.Message, error) {
	switch msgType {
	case "":
		msgType = db.TextMessage
	case db.TextMessage, db.MarkdownMessage, db.ImageMessage:
	default:
		return nil, apperr.Validation("invalid message type", "type")
	}

	_, participantIDs, err := manager.engine.ResolveChat(chatID)
	if err != nil {
		return nil, err
	}

	isParticipant := false
	for _, id := range participantIDs {
		if id == actorID {
			isParticipant = true
			break
		}
	}
	if !isParticipant {
		return nil, apperr.Unauthorized("the sender is not a participant of this chat", "chat_id")
	}

	message := db.Message{
		ChatID:   chatID,
		SenderID: actorID,
		Content:  content,
		Type:     msgType,
		SentAt:   time.Now(),
	}
	if err := manager.queries.DB.Create(&message).Error; err != nil {
		return nil, apperr.Database("messages", err)
	}

	return &message, nil
}

// Messages returns the full history of a chat in insertion order, joined
// with the sender's nickname and avatar URL. No pagination: history grows
// unbounded, a known scaling limitation.
func (manager *Manager) Messages(chatID string) ([]MessageView, error) {
	if _, _, err := manager.engine.ResolveChat(chatID); err != nil {
		return nil, err
	}

	var views []MessageView
	result := manager.queries.DB.
		Table("messages").
		Select("messages.message_id, messages.chat_id, messages.sender_id, messages.content, messages.type, messages.sent_at, users.nickname, avatars.url AS avatar_url").
		Joins("LEFT JOIN users ON users.user_id = messages.sender_id").
		Joins("LEFT JOIN avatars ON avatars.avatar_id = users.avatar_id").
		Where("messages.chat_id = ?", chatID).
		Order("messages.message_id").
		Scan(&views)
	if result.Error != nil {
		return nil, apperr.Database("messages", result.Error)
	}

	return views, nil
}
