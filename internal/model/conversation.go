package model

import "time"

// Role is the label a participant carries inside one conversation. The same
// user can be the buyer in one thread and the seller in another.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleBuyer, RoleSeller:
		return Role(s), true
	}
	return "", false
}

// Slot identifies one side of the canonical participant pair.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

func (s Slot) Other() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

// UnreadColumn is the counter column owned by the slot.
func (s Slot) UnreadColumn() string {
	if s == SlotA {
		return "unread_a"
	}
	return "unread_b"
}

// Conversation pairs two users. ParticipantA < ParticipantB always holds, so
// the unique index covers the unordered pair; BuyerSlot records which side
// was labelled buyer by whoever opened the thread.
type Conversation struct {
	ID                 uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ParticipantA       string     `gorm:"column:participant_a;size:128;not null;uniqueIndex:uk_conversation_pair,priority:1" json:"participantA"`
	ParticipantB       string     `gorm:"column:participant_b;size:128;not null;uniqueIndex:uk_conversation_pair,priority:2;index" json:"participantB"`
	BuyerSlot          Slot       `gorm:"column:buyer_slot;size:1;not null" json:"buyerSlot"`
	LastMessageID      *uint64    `gorm:"column:last_message_id" json:"lastMessageId"`
	LastMessageAt      *time.Time `gorm:"column:last_message_at;index" json:"lastMessageAt"`
	LastMessagePreview string     `gorm:"column:last_message_preview;size:280" json:"lastMessagePreview"`
	UnreadA            int        `gorm:"column:unread_a;not null;default:0" json:"unreadA"`
	UnreadB            int        `gorm:"column:unread_b;not null;default:0" json:"unreadB"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// CanonicalPair orders two user ids so that the first is the smaller.
func CanonicalPair(x, y string) (string, string) {
	if y < x {
		return y, x
	}
	return x, y
}

// NewConversation builds an unsaved conversation with buyerUID holding the
// buyer label.
func NewConversation(buyerUID, sellerUID string) *Conversation {
	a, b := CanonicalPair(buyerUID, sellerUID)
	cv := &Conversation{ParticipantA: a, ParticipantB: b, BuyerSlot: SlotA}
	if b == buyerUID {
		cv.BuyerSlot = SlotB
	}
	return cv
}

func (c *Conversation) participant(s Slot) string {
	if s == SlotA {
		return c.ParticipantA
	}
	return c.ParticipantB
}

func (c *Conversation) BuyerUID() string {
	return c.participant(c.BuyerSlot)
}

func (c *Conversation) SellerUID() string {
	return c.participant(c.BuyerSlot.Other())
}

// SlotOf returns the slot uid occupies, or false for outsiders.
func (c *Conversation) SlotOf(uid string) (Slot, bool) {
	switch uid {
	case "":
		return "", false
	case c.ParticipantA:
		return SlotA, true
	case c.ParticipantB:
		return SlotB, true
	}
	return "", false
}

func (c *Conversation) HasParticipant(uid string) bool {
	_, ok := c.SlotOf(uid)
	return ok
}

func (c *Conversation) RoleOf(uid string) (Role, bool) {
	s, ok := c.SlotOf(uid)
	if !ok {
		return "", false
	}
	if s == c.BuyerSlot {
		return RoleBuyer, true
	}
	return RoleSeller, true
}

// Counterpart returns the other participant, or "" when uid is not one.
func (c *Conversation) Counterpart(uid string) string {
	s, ok := c.SlotOf(uid)
	if !ok {
		return ""
	}
	return c.participant(s.Other())
}

func (c *Conversation) UnreadFor(uid string) int {
	s, ok := c.SlotOf(uid)
	if !ok {
		return 0
	}
	if s == SlotA {
		return c.UnreadA
	}
	return c.UnreadB
}
