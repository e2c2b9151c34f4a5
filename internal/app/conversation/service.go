package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PabloGalante/vetra-proxy/internal/app/catalog"
	"github.com/PabloGalante/vetra-proxy/internal/app/moderation"
	"github.com/PabloGalante/vetra-proxy/internal/app/policy"
	"github.com/PabloGalante/vetra-proxy/internal/domain"
	"github.com/PabloGalante/vetra-proxy/internal/observability"
)

const DefaultDispatchTimeout = 60 * time.Second

// Service runs chat turns and the administrative operations that reshape
// every conversation at once.
type Service struct {
	llm           domain.CompletionClient
	rules         domain.RuleStore
	conversations domain.ConversationStore
	models        *catalog.Selector
	journal       *moderation.Journal

	dispatchTimeout time.Duration

	// policyMu is held for writing across rule mutation, recompilation and
	// the rewrite of every conversation, and for reading while a turn
	// creates its conversation or screens and records the user message.
	policyMu    sync.RWMutex
	instruction string
}

type Option func(*Service)

// WithDispatchTimeout bounds each upstream call.
func WithDispatchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.dispatchTimeout = d
		}
	}
}

func NewService(
	llm domain.CompletionClient,
	rules domain.RuleStore,
	conversations domain.ConversationStore,
	models *catalog.Selector,
	journal *moderation.Journal,
	opts ...Option,
) *Service {
	s := &Service{
		llm:             llm,
		rules:           rules,
		conversations:   conversations,
		models:          models,
		journal:         journal,
		dispatchTimeout: DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.instruction = policy.Compile(rules.List())
	s.conversations.RewriteSystemMessage(s.instruction)

	return s
}

type SendMessageInput struct {
	// ConversationID is optional; empty or unknown starts a new conversation.
	ConversationID domain.ConversationID
	Text           string
}

type SendMessageOutput struct {
	ConversationID domain.ConversationID
	Reply          string
	Model          string
	IsNew          bool
	Blocked        bool
}

// SendMessage runs one chat turn. Whatever happens upstream, the caller
// gets a reply and the conversation gets a matching assistant message.
// The returned error is only set when the turn could not start.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, domain.ErrEmptyMessage
	}

	s.policyMu.RLock()
	id, isNew := s.conversations.GetOrCreate(in.ConversationID, s.instruction)
	s.policyMu.RUnlock()

	log := observability.LoggerFromContext(ctx).With(
		"chat_id", id,
		"new_chat", isNew,
	)
	log.Info("sending message")

	unlock, err := s.conversations.LockTurn(id)
	if err != nil {
		log.Error("failed to lock conversation", "error", err)
		return nil, err
	}
	defer unlock()

	verdict, history, err := s.prepareTurn(id, in.Text)
	if err != nil {
		log.Error("failed to record turn", "error", err)
		return nil, err
	}

	model := s.models.Current()
	out := &SendMessageOutput{
		ConversationID: id,
		Model:          model,
		IsNew:          isNew,
	}

	if verdict.Blocked() {
		s.journal.Record(ctx, id, in.Text, verdict)
		log.Info("message blocked", "rule", verdict.Rule.Text)

		out.Reply = domain.RefusalText
		out.Blocked = true
		return out, nil
	}

	// The turn is committed even if the client goes away mid-call.
	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dispatchTimeout)
	defer cancel()

	start := time.Now()
	text, dispatchErr := s.llm.Complete(dispatchCtx, domain.CompletionRequest{
		Model:    model,
		Messages: history,
	})
	if dispatchErr != nil {
		log.Warn("dispatch failed, answering with synthesized reply", "model", model, "error", dispatchErr)
	}

	out.Reply = domain.ReplyFor(text, dispatchErr)
	if err := s.conversations.Append(id, domain.AssistantMessage(out.Reply)); err != nil {
		log.Error("failed to append assistant message", "error", err)
		return nil, err
	}

	log.Info("send message completed",
		"model", model,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return out, nil
}

// prepareTurn screens text and records the first half of the turn under
// the policy read lock. A blocked message only leaves the refusal behind;
// an allowed one appends the user turn and returns the history to send.
func (s *Service) prepareTurn(id domain.ConversationID, text string) (moderation.Verdict, []domain.Message, error) {
	s.policyMu.RLock()
	defer s.policyMu.RUnlock()

	verdict := moderation.Screen(text, s.rules.List())
	if verdict.Blocked() {
		return verdict, nil, s.conversations.Append(id, domain.AssistantMessage(domain.RefusalText))
	}

	if err := s.conversations.Append(id, domain.UserMessage(text)); err != nil {
		return verdict, nil, err
	}

	history, err := s.conversations.Get(id)
	return verdict, history, err
}

// Instruction returns the compiled system instruction for the current rules.
func (s *Service) Instruction() string {
	s.policyMu.RLock()
	defer s.policyMu.RUnlock()
	return s.instruction
}

func (s *Service) ListRules(ctx context.Context) []string {
	return domain.RuleTexts(s.rules.List())
}

// AddRule appends a rule and brings every conversation's system message
// up to date before returning.
func (s *Service) AddRule(ctx context.Context, text string) ([]string, error) {
	return s.mutateRules(ctx, "add", func() ([]domain.Rule, error) {
		return s.rules.Append(text), nil
	})
}

// RemoveRule deletes the rule at index. Indices of later rules shift.
func (s *Service) RemoveRule(ctx context.Context, index int) ([]string, error) {
	return s.mutateRules(ctx, "remove", func() ([]domain.Rule, error) {
		return s.rules.RemoveAt(index)
	})
}

func (s *Service) mutateRules(ctx context.Context, op string, mutate func() ([]domain.Rule, error)) ([]string, error) {
	log := observability.LoggerFromContext(ctx).With("op", op)

	s.policyMu.Lock()
	defer s.policyMu.Unlock()

	rules, err := mutate()
	if err != nil {
		log.Warn("rule mutation rejected", "error", err)
		return nil, err
	}

	s.instruction = policy.Compile(rules)
	s.conversations.RewriteSystemMessage(s.instruction)

	log.Info("rules updated", "rule_count", len(rules))
	return domain.RuleTexts(rules), nil
}

func (s *Service) CurrentModel() string {
	return s.models.Current()
}

func (s *Service) Models() []string {
	return s.models.Catalog()
}

// SetModel switches the model for every conversation's next turn.
func (s *Service) SetModel(ctx context.Context, model string) error {
	log := observability.LoggerFromContext(ctx)

	previous := s.models.Current()
	if err := s.models.Set(model); err != nil {
		log.Warn("model change rejected", "model", model, "error", err)
		return err
	}

	log.Info("model changed", "from", previous, "to", model)
	return nil
}

func (s *Service) ListConversations(ctx context.Context) []domain.ConversationID {
	return s.conversations.List()
}

func (s *Service) GetConversation(ctx context.Context, id domain.ConversationID) ([]domain.Message, error) {
	msgs, err := s.conversations.Get(id)
	if err != nil {
		observability.LoggerFromContext(ctx).Info("conversation lookup failed", "chat_id", id, "error", err)
		return nil, err
	}
	return msgs, nil
}

// BlockedAttempts returns the most recent moderation refusals.
func (s *Service) BlockedAttempts(ctx context.Context, limit int) ([]*domain.BlockedAttempt, error) {
	return s.journal.Recent(ctx, limit)
}
