package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/platform/llm"
	"codeprep/internal/platform/session"
	"codeprep/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const interviewID = "66666666-6666-6666-6666-666666666666"

type fakeProvider struct {
	GenerateFn func(prompt string) (string, error)
	prompts    []string
}

func (f *fakeProvider) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.GenerateFn == nil {
		return "", errors.New("provider offline")
	}
	return f.GenerateFn(prompt)
}

func (f *fakeProvider) Name() string { return "fake" }

func newInterviewService(t *testing.T, repo *testhelpers.MockInterviewRepo, provider llm.Provider) (*InterviewService, *session.Store) {
	t.Helper()
	_, rdb := testhelpers.SetupTestRedis(t)
	store := session.NewStore(rdb, time.Hour, 20)
	prompts, err := llm.LoadPrompts()
	require.NoError(t, err)
	svc := NewInterviewService(repo, store, provider, prompts, time.Second, zap.NewNop())
	svc.now = fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return svc, store
}

func storedInterview(status model.InterviewStatus) *model.Interview {
	return &model.Interview{
		ID:              interviewID,
		UserID:          alice.UserID,
		Position:        "Backend Engineer",
		InterviewType:   "technical",
		InterviewerName: "Alex",
		Questions:       []string{"Q1?", "Q2?"},
		Status:          status,
	}
}

func TestCreateInterviewQuestionsFromModel(t *testing.T) {
	provider := &fakeProvider{GenerateFn: func(string) (string, error) {
		return "1. What is a goroutine?\n2) How do channels block?\n- Explain context cancellation.\n", nil
	}}
	svc, _ := newInterviewService(t, &testhelpers.MockInterviewRepo{}, provider)

	iv, err := svc.Create(context.Background(), alice, CreateInterviewRequest{Position: "Go Developer", CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, []string{"What is a goroutine?", "How do channels block?", "Explain context cancellation."}, iv.Questions)
	assert.Equal(t, model.InterviewScheduled, iv.Status)
	assert.Equal(t, "technical", iv.InterviewType)
	assert.Equal(t, 30, iv.DurationMinutes)
	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "Go Developer at Acme")
}

func TestCreateInterviewFallsBackWhenModelFails(t *testing.T) {
	var stored *model.Interview
	repo := &testhelpers.MockInterviewRepo{CreateFn: func(iv *model.Interview) error {
		stored = iv
		return nil
	}}
	svc, _ := newInterviewService(t, repo, &fakeProvider{})

	future := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	iv, err := svc.Create(context.Background(), alice, CreateInterviewRequest{Position: "PM", InterviewType: "Behavioral", ScheduledAt: &future})
	require.NoError(t, err)
	assert.Equal(t, defaultQuestions["behavioral"], iv.Questions)
	assert.Equal(t, model.InterviewScheduled, iv.Status)
	assert.Equal(t, alice.UserID, stored.UserID)
}

func TestCreateInterviewValidation(t *testing.T) {
	svc, _ := newInterviewService(t, &testhelpers.MockInterviewRepo{}, &fakeProvider{})

	_, err := svc.Create(context.Background(), alice, CreateInterviewRequest{Position: "  "})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Create(context.Background(), alice, CreateInterviewRequest{Position: "SRE", DurationMinutes: 500})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGetInterviewOwnerOnly(t *testing.T) {
	repo := &testhelpers.MockInterviewRepo{FindByIDFn: func(string) (*model.Interview, error) {
		return storedInterview(model.InterviewPending), nil
	}}
	svc, _ := newInterviewService(t, repo, &fakeProvider{})

	_, err := svc.Get(context.Background(), bob, interviewID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	iv, err := svc.Get(context.Background(), alice, interviewID)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", iv.Position)
}

func TestCompleteInterviewGeneratesFeedbackOnce(t *testing.T) {
	current := storedInterview(model.InterviewInProgress)
	updates := 0
	repo := &testhelpers.MockInterviewRepo{
		FindByIDFn: func(string) (*model.Interview, error) {
			cp := *current
			return &cp, nil
		},
		UpdateFn: func(_ string, patch model.InterviewPatch) (*model.Interview, error) {
			updates++
			if patch.Status != nil {
				current.Status = *patch.Status
			}
			if patch.Feedback != nil {
				current.Feedback = patch.Feedback
			}
			cp := *current
			return &cp, nil
		},
	}
	provider := &fakeProvider{GenerateFn: func(string) (string, error) { return "Strong answers overall.", nil }}
	svc, store := newInterviewService(t, repo, provider)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, interviewID, model.Turn{Role: model.TurnCandidate, Content: "hi"}))

	completed := model.InterviewCompleted
	iv, err := svc.Update(ctx, alice, interviewID, UpdateInterviewRequest{Status: &completed})
	require.NoError(t, err)
	require.NotNil(t, iv.Feedback)
	assert.Equal(t, "Strong answers overall.", *iv.Feedback)
	assert.Equal(t, 1, updates)
	assert.Len(t, provider.prompts, 1)

	history, err := store.History(ctx, interviewID)
	require.NoError(t, err)
	assert.Empty(t, history)

	again, err := svc.Update(ctx, alice, interviewID, UpdateInterviewRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, "Strong answers overall.", *again.Feedback)
	assert.Equal(t, 1, updates)
	assert.Len(t, provider.prompts, 1)
}

func TestCompleteInterviewFallbackFeedback(t *testing.T) {
	repo := &testhelpers.MockInterviewRepo{
		FindByIDFn: func(string) (*model.Interview, error) { return storedInterview(model.InterviewInProgress), nil },
		UpdateFn: func(_ string, patch model.InterviewPatch) (*model.Interview, error) {
			iv := storedInterview(*patch.Status)
			iv.Feedback = patch.Feedback
			return iv, nil
		},
	}
	svc, _ := newInterviewService(t, repo, &fakeProvider{})

	completed := model.InterviewCompleted
	iv, err := svc.Update(context.Background(), alice, interviewID, UpdateInterviewRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, fallbackFeedback, *iv.Feedback)
}

func TestUpdateInterviewRejectsUnknownStatus(t *testing.T) {
	repo := &testhelpers.MockInterviewRepo{FindByIDFn: func(string) (*model.Interview, error) {
		return storedInterview(model.InterviewPending), nil
	}}
	svc, _ := newInterviewService(t, repo, &fakeProvider{})

	bogus := model.InterviewStatus("archived")
	_, err := svc.Update(context.Background(), alice, interviewID, UpdateInterviewRequest{Status: &bogus})
	assert.ErrorIs(t, err, common.ErrValidation)

	rating := 9
	_, err = svc.Update(context.Background(), alice, interviewID, UpdateInterviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSendMessageRecordsTurns(t *testing.T) {
	updates := 0
	repo := &testhelpers.MockInterviewRepo{
		FindByIDFn: func(string) (*model.Interview, error) { return storedInterview(model.InterviewInProgress), nil },
		UpdateFn: func(string, model.InterviewPatch) (*model.Interview, error) {
			updates++
			return nil, nil
		},
	}
	provider := &fakeProvider{GenerateFn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "I like Go") {
			return "Why Go?", nil
		}
		return "", errors.New("unexpected prompt")
	}}
	svc, store := newInterviewService(t, repo, provider)
	ctx := context.Background()

	reply, err := svc.SendMessage(ctx, alice, interviewID, MessageRequest{Content: " I like Go "})
	require.NoError(t, err)
	assert.Zero(t, updates)
	assert.Equal(t, "Why Go?", reply.Reply)
	assert.False(t, reply.Degraded)
	require.Len(t, reply.History, 2)
	assert.Equal(t, model.TurnCandidate, reply.History[0].Role)
	assert.Equal(t, "I like Go", reply.History[0].Content)

	history, err := store.History(ctx, interviewID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSendMessageDegradesOnProviderFailure(t *testing.T) {
	repo := &testhelpers.MockInterviewRepo{FindByIDFn: func(string) (*model.Interview, error) {
		return storedInterview(model.InterviewInProgress), nil
	}}
	svc, store := newInterviewService(t, repo, &fakeProvider{})

	reply, err := svc.SendMessage(context.Background(), alice, interviewID, MessageRequest{Content: "hello"})
	require.NoError(t, err)
	assert.True(t, reply.Degraded)
	assert.Equal(t, fallbackReply, reply.Reply)

	history, err := store.History(context.Background(), interviewID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, fallbackReply, history[1].Content)
}

func TestSendMessageRequiresInProgress(t *testing.T) {
	for _, status := range []model.InterviewStatus{model.InterviewScheduled, model.InterviewPending, model.InterviewCompleted} {
		t.Run(string(status), func(t *testing.T) {
			updates := 0
			repo := &testhelpers.MockInterviewRepo{
				FindByIDFn: func(string) (*model.Interview, error) { return storedInterview(status), nil },
				UpdateFn: func(string, model.InterviewPatch) (*model.Interview, error) {
					updates++
					return nil, nil
				},
			}
			provider := &fakeProvider{}
			svc, store := newInterviewService(t, repo, provider)

			_, err := svc.SendMessage(context.Background(), alice, interviewID, MessageRequest{Content: "hi"})
			assert.ErrorIs(t, err, common.ErrBadRequest)
			assert.Zero(t, updates)
			assert.Empty(t, provider.prompts)

			history, err := store.History(context.Background(), interviewID)
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}
