package service

import (
	"testing"
	"time"

	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMessageCreate_ChannelMessage(t *testing.T) {
	env := newChatEnv(t)

	id := env.postToGeneral(t, env.aliceUser, "hello")

	msg, err := env.messageRepo.FindByID(env.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, env.aliceMemberID, msg.MemberID)
	assert.Equal(t, env.generalID, *msg.ChannelID)
	assert.Nil(t, msg.ConversationID)
	assert.Nil(t, msg.ParentMessageID)
	assert.Equal(t, msg.CreatedAt.Unix(), msg.UpdatedAt.Unix())

	created := env.publisher.events(domain.EventMessageCreated)
	require.Len(t, created, 1)
	assert.Equal(t, domain.Scope{ChannelID: &env.generalID}, created[0].Arguments.Get(0))
	view := created[0].Arguments.Get(2).(*domain.MessageView)
	assert.Equal(t, id, view.ID)
	assert.Equal(t, "Alice", view.Author.Name)
}

func TestMessageCreate_NonMemberUnauthorized(t *testing.T) {
	env := newChatEnv(t)

	_, err := env.messages.Create(env.ctx, env.carolUser, domain.CreateMessageInput{
		Body: "hi", WorkspaceID: env.workspaceID, ChannelID: &env.generalID,
	})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestMessageCreate_Validation(t *testing.T) {
	env := newChatEnv(t)

	_, err := env.messages.Create(env.ctx, env.aliceUser, domain.CreateMessageInput{Body: "  ", WorkspaceID: env.workspaceID, ChannelID: &env.generalID})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = env.messages.Create(env.ctx, env.aliceUser, domain.CreateMessageInput{Body: "hi", WorkspaceID: env.workspaceID})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = env.messages.Create(env.ctx, env.aliceUser, domain.CreateMessageInput{Body: "hi", WorkspaceID: env.workspaceID, ChannelID: ptr(999)})
	assert.ErrorIs(t, err, common.ErrScopeUnresolvable)
}

func TestMessageCreate_MissingParent(t *testing.T) {
	env := newChatEnv(t)

	_, err := env.messages.Create(env.ctx, env.aliceUser, domain.CreateMessageInput{
		Body: "reply", WorkspaceID: env.workspaceID, ParentMessageID: ptr(404),
	})
	assert.ErrorIs(t, err, common.ErrParentMessageNotFound)
}

func TestMessageCreate_ReplyInheritsConversation(t *testing.T) {
	env := newChatEnv(t)

	convID, err := env.conversation.FindOrCreate(env.ctx, env.aliceUser, env.workspaceID, env.bobMemberID)
	require.NoError(t, err)
	parentID := env.post(t, env.aliceUser, domain.CreateMessageInput{ConversationID: &convID})

	replyID := env.post(t, env.bobUser, domain.CreateMessageInput{ParentMessageID: &parentID})

	reply, err := env.messageRepo.FindByID(env.ctx, replyID)
	require.NoError(t, err)
	require.NotNil(t, reply.ConversationID)
	assert.Equal(t, convID, *reply.ConversationID)
	assert.Nil(t, reply.ChannelID)

	threads := env.publisher.events(domain.EventThreadUpdated)
	require.Len(t, threads, 1)
	assert.Equal(t, domain.Scope{ConversationID: &convID}, threads[0].Arguments.Get(0))
	payload := threads[0].Arguments.Get(2).(domain.ThreadUpdatedPayload)
	assert.Equal(t, parentID, payload.MessageID)
	assert.Equal(t, int64(1), payload.Thread.Count)
	assert.Equal(t, "Bob", *payload.Thread.Name)
}

func TestMessageCreate_ReplyMustShareParentContainer(t *testing.T) {
	env := newChatEnv(t)
	randomID, err := env.channelSvc.Create(env.ctx, env.aliceUser, env.workspaceID, "random")
	require.NoError(t, err)
	convID, err := env.conversation.FindOrCreate(env.ctx, env.aliceUser, env.workspaceID, env.bobMemberID)
	require.NoError(t, err)
	parent := env.postToGeneral(t, env.aliceUser, "root")

	_, err = env.messages.Create(env.ctx, env.bobUser, domain.CreateMessageInput{
		Body: "wrong room", WorkspaceID: env.workspaceID, ChannelID: &randomID, ParentMessageID: &parent,
	})
	assert.ErrorIs(t, err, common.ErrScopeUnresolvable)

	_, err = env.messages.Create(env.ctx, env.bobUser, domain.CreateMessageInput{
		Body: "wrong room", WorkspaceID: env.workspaceID, ConversationID: &convID, ParentMessageID: &parent,
	})
	assert.ErrorIs(t, err, common.ErrScopeUnresolvable)

	// naming the parent's own channel is fine
	reply := env.post(t, env.bobUser, domain.CreateMessageInput{ChannelID: &env.generalID, ParentMessageID: &parent})

	_, err = env.messages.Create(env.ctx, env.aliceUser, domain.CreateMessageInput{
		Body: "nested", WorkspaceID: env.workspaceID, ParentMessageID: &reply,
	})
	assert.ErrorIs(t, err, common.ErrScopeUnresolvable)

	// every counted reply is listable in the thread
	page, err := env.feed.List(env.ctx, env.aliceUser, domain.ListMessagesInput{ChannelID: &env.generalID})
	require.NoError(t, err)
	require.Len(t, page.Page, 1)
	thread, err := env.feed.List(env.ctx, env.aliceUser, domain.ListMessagesInput{ParentMessageID: &parent})
	require.NoError(t, err)
	assert.Equal(t, page.Page[0].Thread.Count, int64(len(thread.Page)))
	assert.Equal(t, reply, thread.Page[0].ID)
}

func TestMessageUpdate_NonAuthorLeavesBodyUnchanged(t *testing.T) {
	env := newChatEnv(t)
	id := env.postToGeneral(t, env.aliceUser, "original")

	_, err := env.messages.Update(env.ctx, env.bobUser, id, "hijacked")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	// admins have no override either
	bobMsg := env.postToGeneral(t, env.bobUser, "bob's")
	_, err = env.messages.Update(env.ctx, env.aliceUser, bobMsg, "edited by admin")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	msg, err := env.messageRepo.FindByID(env.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "original", msg.Body)
	assert.Empty(t, env.publisher.events(domain.EventMessageUpdated))
}

func TestMessageUpdate_AuthorRefreshesUpdatedAt(t *testing.T) {
	env := newChatEnv(t)
	id := env.postToGeneral(t, env.aliceUser, "first")
	later := time.Now().Add(time.Hour)
	env.messages.(*messageService).now = func() time.Time { return later }

	got, err := env.messages.Update(env.ctx, env.aliceUser, id, "second")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	msg, err := env.messageRepo.FindByID(env.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "second", msg.Body)
	assert.Equal(t, later.Unix(), msg.UpdatedAt.Unix())
	assert.True(t, msg.UpdatedAt.After(msg.CreatedAt))

	updated := env.publisher.events(domain.EventMessageUpdated)
	require.Len(t, updated, 1)
	assert.Equal(t, "second", updated[0].Arguments.Get(2).(*domain.MessageView).Body)
}

func TestMessageUpdate_NotFound(t *testing.T) {
	env := newChatEnv(t)

	_, err := env.messages.Update(env.ctx, env.aliceUser, 12345, "x")
	assert.ErrorIs(t, err, common.ErrMessageNotFound)
	_, err = env.messages.Remove(env.ctx, env.aliceUser, 12345)
	assert.ErrorIs(t, err, common.ErrMessageNotFound)
}

func TestMessageRemove(t *testing.T) {
	env := newChatEnv(t, withStorage)
	image := "workspaces/1/images/a.png"
	env.storage.On("URL", image).Return("https://signed/a.png", nil)
	env.storage.On("Delete", image).Return(nil)
	id := env.post(t, env.aliceUser, domain.CreateMessageInput{Body: "bye", ChannelID: &env.generalID, Image: &image})

	_, err := env.messages.Remove(env.ctx, env.bobUser, id)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = env.reactions.Toggle(env.ctx, env.bobUser, id, "👍")
	require.NoError(t, err)

	got, err := env.messages.Remove(env.ctx, env.aliceUser, id)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	view, err := env.feed.Get(env.ctx, env.aliceUser, id)
	require.NoError(t, err)
	assert.Nil(t, view)

	summaries, err := env.reactionRepo.SummariesFor(env.ctx, []uint64{id})
	require.NoError(t, err)
	assert.Empty(t, summaries[id])

	deleted := env.publisher.events(domain.EventMessageDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, domain.MessageDeletedPayload{ID: id}, deleted[0].Arguments.Get(2))
	env.storage.AssertCalled(t, "Delete", image)
}

func TestMessageCreate_RejectsImagesFromOtherWorkspaces(t *testing.T) {
	env := newChatEnv(t, withStorage)

	for _, key := range []string{
		"workspaces/999/images/secret.png",
		"workspaces/1/images/../../999/images/secret.png",
		"workspaces/1/imagesx/secret.png",
		"secret.png",
	} {
		key := key
		_, err := env.messages.Create(env.ctx, env.bobUser, domain.CreateMessageInput{
			Body: "look", WorkspaceID: env.workspaceID, ChannelID: &env.generalID, Image: &key,
		})
		assert.ErrorIs(t, err, common.ErrInvalidInput, key)
	}
	env.storage.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestMessageRemove_LeavesForeignImageKeysAlone(t *testing.T) {
	env := newChatEnv(t, withStorage)
	foreign := "workspaces/999/images/secret.png"
	msg := &domain.Message{
		Body: "legacy", Image: &foreign, MemberID: env.bobMemberID,
		WorkspaceID: env.workspaceID, ChannelID: &env.generalID,
	}
	require.NoError(t, env.messageRepo.Create(env.ctx, msg))

	view, err := env.feed.Get(env.ctx, env.bobUser, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Nil(t, view.Image)

	_, err = env.messages.Remove(env.ctx, env.bobUser, msg.ID)
	require.NoError(t, err)
	env.storage.AssertNotCalled(t, "URL", foreign)
	env.storage.AssertNotCalled(t, "Delete", foreign)
}

func TestMessageRemove_ReplyRefreshesParentThread(t *testing.T) {
	env := newChatEnv(t)
	parentID := env.postToGeneral(t, env.aliceUser, "parent")
	replyID := env.post(t, env.bobUser, domain.CreateMessageInput{ParentMessageID: &parentID})

	_, err := env.messages.Remove(env.ctx, env.bobUser, replyID)
	require.NoError(t, err)

	threads := env.publisher.events(domain.EventThreadUpdated)
	require.Len(t, threads, 2)
	payload := threads[1].Arguments.Get(2).(domain.ThreadUpdatedPayload)
	assert.Equal(t, int64(0), payload.Thread.Count)
	assert.Nil(t, payload.Thread.Name)
}

func TestMessageCreate_IndexesForSearch(t *testing.T) {
	backend := &MockSearchBackend{}
	backend.On("IndexDocument", MessagesIndex, mock.Anything, mock.Anything).Return(nil)

	var search *SearchService
	env := newChatEnv(t, func(env *chatEnv, deps *MessageDeps) {
		search = NewSearchService(backend, nil, nil)
		deps.Indexer = search
	})

	id := env.postToGeneral(t, env.aliceUser, `{"ops":[{"insert":"launch plan\n"}]}`)

	backend.AssertNumberOfCalls(t, "IndexDocument", 1)
	doc := backend.Calls[0].Arguments.Get(2).(MessageDocument)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "launch plan", doc.Body)
	assert.Equal(t, env.workspaceID, doc.WorkspaceID)
}
