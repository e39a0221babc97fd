package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	mu sync.Mutex

	users      map[uuid.UUID]*entity.User
	members    map[uuid.UUID]map[uuid.UUID]bool
	messages   map[uuid.UUID][]*entity.Message
	lastRead   map[uuid.UUID]map[uuid.UUID]uuid.UUID
	statuses   map[uuid.UUID][]entity.UserStatus
	failCreate bool
	failRead   bool

	clock time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uuid.UUID]*entity.User),
		members:  make(map[uuid.UUID]map[uuid.UUID]bool),
		messages: make(map[uuid.UUID][]*entity.Message),
		lastRead: make(map[uuid.UUID]map[uuid.UUID]uuid.UUID),
		statuses: make(map[uuid.UUID][]entity.UserStatus),
		clock:    time.Now(),
	}
}

func (f *fakeStore) addUser(name string) *entity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &entity.User{Id: uuid.New(), DisplayName: name, Status: entity.UserStatusOffline}
	f.users[u.Id] = u
	return u
}

func (f *fakeStore) addConversation(userIds ...uuid.UUID) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.members[id] = make(map[uuid.UUID]bool)
	for _, uid := range userIds {
		f.members[id][uid] = true
	}
	return id
}

func (f *fakeStore) seedMessage(conversationId, authorId uuid.UUID, content string) *entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendMessage(conversationId, authorId, content)
}

func (f *fakeStore) appendMessage(conversationId, authorId uuid.UUID, content string) *entity.Message {
	f.clock = f.clock.Add(time.Second)
	m := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversationId,
		AuthorId:       authorId,
		Content:        content,
		CreatedAt:      f.clock,
	}
	if u, ok := f.users[authorId]; ok {
		m.AuthorName = u.DisplayName
	}
	f.messages[conversationId] = append(f.messages[conversationId], m)
	return m
}

func (f *fakeStore) GetUserByID(_ context.Context, userId uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userId]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (f *fakeStore) IsUserInConversation(_ context.Context, conversationId, userId uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[conversationId][userId], nil
}

func (f *fakeStore) CreateMessage(_ context.Context, conversationId, authorId uuid.UUID, content string) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return nil, errors.New("insert failed")
	}
	return f.appendMessage(conversationId, authorId, content), nil
}

func (f *fakeStore) GetMessagesForConversation(_ context.Context, conversationId uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return nil, errors.New("select failed")
	}
	all := f.messages[conversationId]
	// Newest first, like the real repository.
	out := make([]*entity.Message, len(all))
	copy(out, all)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) GetLastReadMessage(_ context.Context, conversationId, userId uuid.UUID) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pointers, ok := f.lastRead[conversationId]
	if !ok {
		return nil, nil
	}
	id, ok := pointers[userId]
	if !ok {
		return nil, nil
	}
	return f.findMessage(conversationId, id), nil
}

func (f *fakeStore) UpdateLastReadMessage(_ context.Context, conversationId, userId, messageId uuid.UUID) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.findMessage(conversationId, messageId)
	if target == nil {
		return nil, errors.New("message not found")
	}

	pointers, ok := f.lastRead[conversationId]
	if !ok {
		pointers = make(map[uuid.UUID]uuid.UUID)
		f.lastRead[conversationId] = pointers
	}

	if currentId, ok := pointers[userId]; ok {
		current := f.findMessage(conversationId, currentId)
		if current != nil && target.CreatedAt.Before(current.CreatedAt) {
			return current, nil
		}
	}

	pointers[userId] = messageId
	return target, nil
}

func (f *fakeStore) GetParticipantsForConversation(_ context.Context, conversationId uuid.UUID) ([]*entity.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Participant
	for uid := range f.members[conversationId] {
		out = append(out, &entity.Participant{ConversationId: conversationId, UserId: uid})
	}
	return out, nil
}

func (f *fakeStore) GetUnreadCounts(_ context.Context, conversationId uuid.UUID, userIds []uuid.UUID) (map[uuid.UUID]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[uuid.UUID]int64, len(userIds))
	for _, uid := range userIds {
		out[uid] = 0
		var after time.Time
		if pointers, ok := f.lastRead[conversationId]; ok {
			if id, ok := pointers[uid]; ok {
				if m := f.findMessage(conversationId, id); m != nil {
					after = m.CreatedAt
				}
			}
		}
		for _, m := range f.messages[conversationId] {
			if m.AuthorId != uid && m.CreatedAt.After(after) {
				out[uid]++
			}
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateUserStatus(_ context.Context, userId uuid.UUID, status entity.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[userId] = append(f.statuses[userId], status)
	return nil
}

func (f *fakeStore) findMessage(conversationId, id uuid.UUID) *entity.Message {
	for _, m := range f.messages[conversationId] {
		if m.Id == id {
			return m
		}
	}
	return nil
}

func newTestHub(store *fakeStore) *Hub {
	return NewHub(store, nil, 50, nopLogger{})
}

func connect(t *testing.T, hub *Hub, user *entity.User) *Client {
	t.Helper()
	c := &Client{Id: uuid.New(), Hub: hub, Send: make(chan []byte, 64)}
	hub.Register(c, user)
	requireEvent(t, c, EventAuthenticated)
	return c
}

// nextEvent pops one queued envelope. Fails the test when nothing is queued.
func nextEvent(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	default:
		t.Fatal("no event queued")
		return Envelope{}
	}
}

func requireEvent(t *testing.T, c *Client, event string) Envelope {
	t.Helper()
	env := nextEvent(t, c)
	require.Equal(t, event, env.Event)
	return env
}

func requireNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env Envelope
		_ = json.Unmarshal(raw, &env)
		t.Fatalf("unexpected event queued: %s", env.Event)
	default:
	}
}

func joinFrame(conversationId uuid.UUID) []byte {
	raw, _ := json.Marshal(map[string]interface{}{
		"event": EventJoinConversation,
		"data":  map[string]string{"conversationId": conversationId.String()},
	})
	return raw
}

func sendFrame(conversationId uuid.UUID, content string) []byte {
	raw, _ := json.Marshal(map[string]interface{}{
		"event": EventSendMessage,
		"data":  map[string]string{"conversationId": conversationId.String(), "content": content},
	})
	return raw
}

func TestRegisterPresence(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")

	c1 := connect(t, hub, alice)
	c2 := connect(t, hub, alice)

	// Only the first connection flips the durable status.
	assert.Equal(t, []entity.UserStatus{entity.UserStatusOnline}, store.statuses[alice.Id])
	assert.True(t, hub.Presence().IsOnline(alice.Id))
	assert.True(t, hub.Rooms().IsMember(c1, UserGroup(alice.Id)))
	assert.True(t, hub.Rooms().IsMember(c2, UserGroup(alice.Id)))
	assert.Equal(t, 2, hub.Registry().ConnectionsForUser(alice.Id))
}

func TestJoinDeniedForNonMember(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	conv := store.addConversation(bob.Id)

	c := connect(t, hub, alice)
	hub.Dispatch(c, joinFrame(conv))

	env := requireEvent(t, c, EventError)
	var p errorPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "NOT_A_MEMBER", p.Message)
	assert.False(t, hub.Rooms().IsMember(c, ConversationGroup(conv)))
}

func TestJoinDeliversHistory(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	conv := store.addConversation(alice.Id, bob.Id)

	first := store.seedMessage(conv, bob.Id, "hello")
	second := store.seedMessage(conv, bob.Id, "anyone here?")

	cBob := connect(t, hub, bob)
	hub.Dispatch(cBob, joinFrame(conv))
	requireEvent(t, cBob, EventConversationHistory)

	cAlice := connect(t, hub, alice)
	hub.Dispatch(cAlice, joinFrame(conv))

	// Bob, already in the room, is told Alice joined.
	env := requireEvent(t, cBob, EventUserJoinedConversation)
	var joined userJoinedPayload
	require.NoError(t, json.Unmarshal(env.Data, &joined))
	assert.Equal(t, alice.Id, joined.UserId)
	assert.Equal(t, "Alice", joined.UserName)

	// Alice receives history in chronological order, no join echo first.
	env = requireEvent(t, cAlice, EventConversationHistory)
	var history conversationHistoryPayload
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history.Messages, 2)
	assert.Equal(t, first.Id, history.Messages[0].Id)
	assert.Equal(t, second.Id, history.Messages[1].Id)
	assert.Equal(t, "Bob", history.Messages[0].Author.DisplayName)
	assert.Nil(t, history.LastReadMessage)
}

func TestHistoryIncludesLastReadPointer(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	conv := store.addConversation(alice.Id, bob.Id)

	m1 := store.seedMessage(conv, bob.Id, "one")
	store.seedMessage(conv, bob.Id, "two")
	_, err := store.UpdateLastReadMessage(context.Background(), conv, alice.Id, m1.Id)
	require.NoError(t, err)

	c := connect(t, hub, alice)
	hub.Dispatch(c, joinFrame(conv))

	env := requireEvent(t, c, EventConversationHistory)
	var history conversationHistoryPayload
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.NotNil(t, history.LastReadMessage)
	assert.Equal(t, m1.Id, history.LastReadMessage.Id)
}

func TestSendMessageFanout(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	carol := store.addUser("Carol")
	conv := store.addConversation(alice.Id, bob.Id, carol.Id)

	cAlice := connect(t, hub, alice)
	cBob := connect(t, hub, bob)
	cCarol := connect(t, hub, carol) // online, not viewing the conversation

	hub.Dispatch(cAlice, joinFrame(conv))
	requireEvent(t, cAlice, EventConversationHistory)
	hub.Dispatch(cBob, joinFrame(conv))
	requireEvent(t, cAlice, EventUserJoinedConversation)
	requireEvent(t, cBob, EventConversationHistory)

	hub.Dispatch(cAlice, sendFrame(conv, "hi all"))

	// Both room members get the message, sender included.
	for _, c := range []*Client{cAlice, cBob} {
		env := requireEvent(t, c, EventNewMessage)
		var p newMessagePayload
		require.NoError(t, json.Unmarshal(env.Data, &p))
		assert.Equal(t, "hi all", p.Message.Content)
		assert.Equal(t, alice.Id, p.Message.Author.Id)
	}

	// Every participant gets a meta update on their user group.
	metas := map[uuid.UUID]conversationMetaPayload{}
	for uid, c := range map[uuid.UUID]*Client{alice.Id: cAlice, bob.Id: cBob, carol.Id: cCarol} {
		env := requireEvent(t, c, EventConversationMetaUpdated)
		var p conversationMetaPayload
		require.NoError(t, json.Unmarshal(env.Data, &p))
		metas[uid] = p
	}

	assert.Equal(t, int64(0), metas[alice.Id].UnreadCount)
	assert.Equal(t, int64(1), metas[bob.Id].UnreadCount)
	assert.Equal(t, int64(1), metas[carol.Id].UnreadCount)
	assert.Equal(t, "hi all", metas[carol.Id].LastMessage.Content)

	// Carol never saw the room broadcast.
	requireNoEvent(t, cCarol)
}

func TestSendMessagePersistFailure(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	conv := store.addConversation(alice.Id, bob.Id)

	cAlice := connect(t, hub, alice)
	cBob := connect(t, hub, bob)
	hub.Dispatch(cAlice, joinFrame(conv))
	requireEvent(t, cAlice, EventConversationHistory)
	hub.Dispatch(cBob, joinFrame(conv))
	requireEvent(t, cAlice, EventUserJoinedConversation)
	requireEvent(t, cBob, EventConversationHistory)

	store.failCreate = true
	hub.Dispatch(cAlice, sendFrame(conv, "lost"))

	requireEvent(t, cAlice, EventError)
	requireNoEvent(t, cBob)
	assert.Empty(t, store.messages[conv])
}

func TestTypingExcludesSender(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	conv := store.addConversation(alice.Id, bob.Id)

	cAlice := connect(t, hub, alice)
	cBob := connect(t, hub, bob)
	hub.Dispatch(cAlice, joinFrame(conv))
	requireEvent(t, cAlice, EventConversationHistory)
	hub.Dispatch(cBob, joinFrame(conv))
	requireEvent(t, cAlice, EventUserJoinedConversation)
	requireEvent(t, cBob, EventConversationHistory)

	raw, _ := json.Marshal(map[string]interface{}{
		"event": EventTyping,
		"data":  map[string]interface{}{"conversationId": conv.String(), "isTyping": true},
	})
	hub.Dispatch(cAlice, raw)

	env := requireEvent(t, cBob, EventUserTyping)
	var p userTypingPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, alice.Id, p.UserId)
	assert.True(t, p.IsTyping)

	requireNoEvent(t, cAlice)
}

func TestMessageReadFlow(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	conv := store.addConversation(alice.Id, bob.Id)
	m1 := store.seedMessage(conv, bob.Id, "one")
	m2 := store.seedMessage(conv, bob.Id, "two")

	cAlice := connect(t, hub, alice)
	cBob := connect(t, hub, bob)
	hub.Dispatch(cAlice, joinFrame(conv))
	requireEvent(t, cAlice, EventConversationHistory)
	hub.Dispatch(cBob, joinFrame(conv))
	requireEvent(t, cAlice, EventUserJoinedConversation)
	requireEvent(t, cBob, EventConversationHistory)

	readFrame := func(messageId uuid.UUID) []byte {
		raw, _ := json.Marshal(map[string]interface{}{
			"event": EventMessageRead,
			"data":  map[string]string{"conversationId": conv.String(), "messageId": messageId.String()},
		})
		return raw
	}

	hub.Dispatch(cAlice, readFrame(m2.Id))

	env := requireEvent(t, cAlice, EventMessageReadUpdated)
	var updated messageReadUpdatedPayload
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	require.NotNil(t, updated.LastReadMessage)
	assert.Equal(t, m2.Id, updated.LastReadMessage.Id)

	env = requireEvent(t, cAlice, EventConversationMetaUpdated)
	var meta conversationMetaPayload
	require.NoError(t, json.Unmarshal(env.Data, &meta))
	assert.Equal(t, int64(0), meta.UnreadCount)

	// Bob sees the receipt, id only.
	env = requireEvent(t, cBob, EventUserReadMessage)
	var receipt userReadMessagePayload
	require.NoError(t, json.Unmarshal(env.Data, &receipt))
	assert.Equal(t, m2.Id, receipt.MessageId)
	assert.Equal(t, alice.Id, receipt.UserId)

	// Regressing the pointer resolves to the current one.
	hub.Dispatch(cAlice, readFrame(m1.Id))
	env = requireEvent(t, cAlice, EventMessageReadUpdated)
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, m2.Id, updated.LastReadMessage.Id)
}

func TestLeaveConversation(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	conv := store.addConversation(alice.Id, bob.Id)

	cAlice := connect(t, hub, alice)
	cBob := connect(t, hub, bob)
	hub.Dispatch(cAlice, joinFrame(conv))
	requireEvent(t, cAlice, EventConversationHistory)
	hub.Dispatch(cBob, joinFrame(conv))
	requireEvent(t, cAlice, EventUserJoinedConversation)
	requireEvent(t, cBob, EventConversationHistory)

	leave, _ := json.Marshal(map[string]interface{}{
		"event": EventLeaveConversation,
		"data":  map[string]string{"conversationId": conv.String()},
	})
	hub.Dispatch(cAlice, leave)

	env := requireEvent(t, cBob, EventUserLeftConversation)
	var p userLeftPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, alice.Id, p.UserId)

	assert.False(t, hub.Rooms().IsMember(cAlice, ConversationGroup(conv)))
	session, ok := hub.Registry().Get(cAlice.Id)
	require.True(t, ok)
	assert.Nil(t, session.ActiveConversation)

	// Leaving a conversation that isn't active is a no-op.
	hub.Dispatch(cAlice, leave)
	requireNoEvent(t, cAlice)
	requireNoEvent(t, cBob)
}

func TestJoinSwitchesConversation(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	convA := store.addConversation(alice.Id, bob.Id)
	convB := store.addConversation(alice.Id, bob.Id)

	cAlice := connect(t, hub, alice)
	cBob := connect(t, hub, bob)
	hub.Dispatch(cBob, joinFrame(convA))
	requireEvent(t, cBob, EventConversationHistory)
	hub.Dispatch(cAlice, joinFrame(convA))
	requireEvent(t, cBob, EventUserJoinedConversation)
	requireEvent(t, cAlice, EventConversationHistory)

	// Switching rooms leaves the old one implicitly.
	hub.Dispatch(cAlice, joinFrame(convB))

	env := requireEvent(t, cBob, EventUserLeftConversation)
	var left userLeftPayload
	require.NoError(t, json.Unmarshal(env.Data, &left))
	assert.Equal(t, convA, left.ConversationId)

	requireEvent(t, cAlice, EventConversationHistory)
	assert.False(t, hub.Rooms().IsMember(cAlice, ConversationGroup(convA)))
	assert.True(t, hub.Rooms().IsMember(cAlice, ConversationGroup(convB)))
}

func TestRejoinSameConversationRefreshesHistory(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	conv := store.addConversation(alice.Id, bob.Id)

	cAlice := connect(t, hub, alice)
	cBob := connect(t, hub, bob)
	hub.Dispatch(cBob, joinFrame(conv))
	requireEvent(t, cBob, EventConversationHistory)
	hub.Dispatch(cAlice, joinFrame(conv))
	requireEvent(t, cBob, EventUserJoinedConversation)
	requireEvent(t, cAlice, EventConversationHistory)

	hub.Dispatch(cAlice, joinFrame(conv))

	// Fresh history only; no churn visible to Bob.
	requireEvent(t, cAlice, EventConversationHistory)
	requireNoEvent(t, cBob)
	assert.True(t, hub.Rooms().IsMember(cAlice, ConversationGroup(conv)))
}

func TestDisconnectCleanup(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	conv := store.addConversation(alice.Id, bob.Id)

	cAlice1 := connect(t, hub, alice)
	cAlice2 := connect(t, hub, alice)
	cBob := connect(t, hub, bob)
	hub.Dispatch(cBob, joinFrame(conv))
	requireEvent(t, cBob, EventConversationHistory)
	hub.Dispatch(cAlice1, joinFrame(conv))
	requireEvent(t, cBob, EventUserJoinedConversation)
	requireEvent(t, cAlice1, EventConversationHistory)

	hub.HandleDisconnect(cAlice1)

	// The room hears the implicit leave.
	env := requireEvent(t, cBob, EventUserLeftConversation)
	var left userLeftPayload
	require.NoError(t, json.Unmarshal(env.Data, &left))
	assert.Equal(t, alice.Id, left.UserId)

	// Second device keeps the user online.
	assert.True(t, hub.Presence().IsOnline(alice.Id))
	assert.Equal(t, []entity.UserStatus{entity.UserStatusOnline}, store.statuses[alice.Id])

	hub.HandleDisconnect(cAlice2)
	assert.False(t, hub.Presence().IsOnline(alice.Id))
	assert.Equal(t, []entity.UserStatus{entity.UserStatusOnline, entity.UserStatusOffline}, store.statuses[alice.Id])

	_, ok := hub.Registry().Get(cAlice1.Id)
	assert.False(t, ok)
}

func TestMalformedFrames(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	c := connect(t, hub, alice)

	hub.Dispatch(c, []byte("{not json"))
	requireEvent(t, c, EventError)

	raw, _ := json.Marshal(map[string]interface{}{"event": "no_such_event", "data": map[string]string{}})
	hub.Dispatch(c, raw)
	requireEvent(t, c, EventError)

	raw, _ = json.Marshal(map[string]interface{}{"event": EventSendMessage, "data": map[string]string{"content": ""}})
	hub.Dispatch(c, raw)
	requireEvent(t, c, EventError)
}

func TestRestFanoutMatchesSocketPath(t *testing.T) {
	store := newFakeStore()
	hub := newTestHub(store)
	alice := store.addUser("Alice")
	bob := store.addUser("Bob")
	conv := store.addConversation(alice.Id, bob.Id)

	cBob := connect(t, hub, bob)
	hub.Dispatch(cBob, joinFrame(conv))
	requireEvent(t, cBob, EventConversationHistory)

	m, err := store.CreateMessage(context.Background(), conv, alice.Id, "from rest")
	require.NoError(t, err)
	hub.NotifyNewMessage(context.Background(), conv, m)

	env := requireEvent(t, cBob, EventNewMessage)
	var p newMessagePayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "from rest", p.Message.Content)

	env = requireEvent(t, cBob, EventConversationMetaUpdated)
	var meta conversationMetaPayload
	require.NoError(t, json.Unmarshal(env.Data, &meta))
	assert.Equal(t, int64(1), meta.UnreadCount)
}
