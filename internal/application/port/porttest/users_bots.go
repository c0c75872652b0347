package porttest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
)

// UserRepository is an in-memory port.UserRepository
type UserRepository struct {
	*Store
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return r.CreateErr
	}
	u.ID = r.id()
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FindErr != nil {
		return nil, r.FindErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FindErr != nil {
		return nil, r.FindErr
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

// BotRepository is an in-memory port.BotRepository
type BotRepository struct {
	*Store
}

func (r *BotRepository) Create(ctx context.Context, b *entity.BotConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return r.CreateErr
	}
	b.ID = r.id()
	r.bots[b.ID] = *b
	return nil
}

func (r *BotRepository) Update(ctx context.Context, b *entity.BotConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	r.bots[b.ID] = *b
	return nil
}

func (r *BotRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bots, id)
	return nil
}

func (r *BotRepository) FindByID(ctx context.Context, id int64) (*entity.BotConfiguration, error) {
	found, err := r.findMany(func(b *entity.BotConfiguration) bool { return b.ID == id })
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *BotRepository) FindAll(ctx context.Context) ([]*entity.BotConfiguration, error) {
	return r.findMany(func(*entity.BotConfiguration) bool { return true })
}

func (r *BotRepository) FindByStatus(ctx context.Context, status entity.BotStatus) ([]*entity.BotConfiguration, error) {
	return r.findMany(func(b *entity.BotConfiguration) bool { return b.Status == status })
}

func (r *BotRepository) FindByType(ctx context.Context, botType entity.BotType) ([]*entity.BotConfiguration, error) {
	return r.findMany(func(b *entity.BotConfiguration) bool { return b.Type == botType })
}

func (r *BotRepository) findMany(match func(*entity.BotConfiguration) bool) ([]*entity.BotConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FindErr != nil {
		return nil, r.FindErr
	}
	var out []*entity.BotConfiguration
	for _, stored := range r.bots {
		b := stored
		if match(&b) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MessageRepository is an in-memory port.MessageRepository
type MessageRepository struct {
	*Store
}

func (r *MessageRepository) Create(ctx context.Context, m *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return r.CreateErr
	}
	m.ID = r.id()
	r.messages[m.ID] = *m
	return nil
}

func (r *MessageRepository) FindByChatID(ctx context.Context, chatID string) ([]*entity.Message, error) {
	return r.findMany(func(m *entity.Message) bool { return m.ChatID == chatID })
}

func (r *MessageRepository) FindByBotID(ctx context.Context, botID int64) ([]*entity.Message, error) {
	return r.findMany(func(m *entity.Message) bool { return m.BotID == botID })
}

// findMany returns newest first
func (r *MessageRepository) findMany(match func(*entity.Message) bool) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FindErr != nil {
		return nil, r.FindErr
	}
	var out []*entity.Message
	for _, stored := range r.messages {
		m := stored
		if match(&m) {
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Sender records outbound chat messages
type Sender struct {
	BotType entity.BotType
	Err     error

	mu   sync.Mutex
	Sent []SentMessage
}

// SentMessage is one recorded outbound message
type SentMessage struct {
	BotID  int64
	ChatID string
	Text   string
}

func (s *Sender) Type() entity.BotType {
	return s.BotType
}

func (s *Sender) SendMessage(ctx context.Context, bot *entity.BotConfiguration, chatID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, SentMessage{BotID: bot.ID, ChatID: chatID, Text: text})
	return nil
}

// Messages returns a copy of everything sent so far
func (s *Sender) Messages() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMessage, len(s.Sent))
	copy(out, s.Sent)
	return out
}

// Cipher prefixes plaintext with "enc:" so tests can tell stored values apart
type Cipher struct {
	EncryptErr error
	DecryptErr error
}

func (c Cipher) Encrypt(plaintext string) (string, error) {
	if c.EncryptErr != nil {
		return "", c.EncryptErr
	}
	return "enc:" + plaintext, nil
}

func (c Cipher) Decrypt(ciphertext string) (string, error) {
	if c.DecryptErr != nil {
		return "", c.DecryptErr
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}
