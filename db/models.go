package db

import "time"

type FriendshipStatus string

type MessageType string

type NotificationStatus string

const (
	Pending  FriendshipStatus = "pending"
	Accepted FriendshipStatus = "accepted"
	Rejected FriendshipStatus = "rejected"

	TextMessage     MessageType = "text"
	MarkdownMessage MessageType = "markdown"
	ImageMessage    MessageType = "img"

	Unread NotificationStatus = "unread"
	Read   NotificationStatus = "read"
)

type User struct {
	ID        string `json:"user_id" gorm:"column:user_id;primaryKey"`
	Nickname  string `json:"nickname" gorm:"uniqueIndex;not null"`
	Username  string `json:"username" gorm:"uniqueIndex;not null"`
	Email     string `json:"email" gorm:"uniqueIndex;not null"`
	Password  string `json:"-" gorm:"not null"`
	AvatarID  uint   `json:"avatar_id"`
	CreatedAt time.Time
}

type Avatar struct {
	ID  uint   `json:"avatar_id" gorm:"column:avatar_id;primaryKey"`
	URL string `json:"url" gorm:"not null"`
}

// Settings is one-to-one with User, created lazily on first update
type Settings struct {
	UserID   string `json:"user_id" gorm:"column:user_id;primaryKey"`
	Language string `json:"language" gorm:"default:en"`
	Theme    string `json:"theme" gorm:"default:darkMode"`
}

// Friendship is stored directionally but looked up as an unordered pair
type Friendship struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    string           `json:"user_id" gorm:"index;not null"`
	FriendID  string           `json:"friend_id" gorm:"index;not null"`
	Status    FriendshipStatus `json:"status" gorm:"not null"`
	CreatedAt time.Time        `json:"created_at"`
}

type Group struct {
	ID          string    `json:"group_id" gorm:"column:group_id;primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	CreatorID   string    `json:"creator_id" gorm:"index;not null"`
	Category    string    `json:"category"`
	Color       string    `json:"color"`
	AvatarID    uint      `json:"avatar_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupMember is unique per (group_id, user_id). The creator always has
// moderation authority even without a row.
type GroupMember struct {
	GroupID     string `json:"group_id" gorm:"primaryKey"`
	UserID      string `json:"user_id" gorm:"primaryKey"`
	IsModerator bool   `json:"is_moderator"`
}

// Chat covers both kinds: a direct chat has no name and carries a PairKey,
// a group chat has a name and a GroupChat link. PairKey is the sorted
// "a:b" participant pair, unique so two concurrent creations of the same
// 1:1 chat collapse into a constraint violation.
type Chat struct {
	ID        string    `json:"chat_id" gorm:"column:chat_id;primaryKey"`
	Name      *string   `json:"name"`
	IsGroup   bool      `json:"is_group"`
	PairKey   *string   `json:"-" gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatParticipant struct {
	ChatID string `json:"chat_id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"primaryKey"`
}

// GroupChat links a chat to the group that owns it
type GroupChat struct {
	GroupID string `json:"group_id" gorm:"primaryKey"`
	ChatID  string `json:"chat_id" gorm:"primaryKey"`
}

// Message is append-only, removed only by cascade
type Message struct {
	ID       uint        `json:"message_id" gorm:"column:message_id;primaryKey"`
	ChatID   string      `json:"chat_id" gorm:"index;not null"`
	SenderID string      `json:"sender_id" gorm:"not null"`
	Content  string      `json:"content"`
	Type     MessageType `json:"type" gorm:"default:text"`
	SentAt   time.Time   `json:"sent_at"`
}

type Notification struct {
	ID        uint               `json:"id" gorm:"primaryKey"`
	SourceID  string             `json:"source_id"`
	DestID    string             `json:"dest_id" gorm:"index"`
	Content   string             `json:"content"`
	Status    NotificationStatus `json:"status" gorm:"default:unread"`
	CreatedAt time.Time          `json:"created_at"`
}
