package support

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"safefeed/internal/domain"
)

const (
	SourceTemplate = "template"
	SourceCounsel  = "counsel"

	defaultCounselTimeout = 3 * time.Second
	escalationTimeout     = 10 * time.Second
	anonymousUser         = "anonymous"
)

// Counselor is an optional conversational backend.
type Counselor interface {
	Counsel(ctx context.Context, userID, message string) (string, error)
}

// CrisisEscalator alerts humans about crisis conversations.
type CrisisEscalator interface {
	EscalateCrisis(ctx context.Context, userID string, category domain.IntentCategory) error
}

type ConversationLog interface {
	LogConversation(ctx context.Context, c domain.Conversation) (int64, error)
}

type Options struct {
	Counselor      Counselor
	CounselTimeout time.Duration
	Memory         Memory
	Escalator      CrisisEscalator
	Log            ConversationLog
	Seed           int64
	Now            func() time.Time
}

type Reply struct {
	Category      domain.IntentCategory `json:"category"`
	Text          string                `json:"response"`
	SuggestReport bool                  `json:"suggestReport"`
	Crisis        bool                  `json:"crisis"`
	Hotline       string                `json:"hotline,omitempty"`
	Source        string                `json:"source"`
}

// Responder answers support messages. It always produces a reply.
type Responder struct {
	router         *Router
	picker         *picker
	counselor      Counselor
	counselTimeout time.Duration
	memory         Memory
	escalator      CrisisEscalator
	log            ConversationLog
	logger         *zap.Logger
	now            func() time.Time
	wg             sync.WaitGroup
}

func NewResponder(router *Router, logger *zap.Logger, opts Options) *Responder {
	if router == nil {
		router = NewRouter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CounselTimeout <= 0 {
		opts.CounselTimeout = defaultCounselTimeout
	}
	if opts.Memory == nil {
		opts.Memory = NewLocalMemory(0)
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Responder{
		router:         router,
		picker:         newPicker(opts.Seed),
		counselor:      opts.Counselor,
		counselTimeout: opts.CounselTimeout,
		memory:         opts.Memory,
		escalator:      opts.Escalator,
		log:            opts.Log,
		logger:         logger,
		now:            opts.Now,
	}
}

func (r *Responder) Respond(ctx context.Context, userID, message string) Reply {
	if strings.TrimSpace(userID) == "" {
		userID = anonymousUser
	}
	category := r.router.Route(message)

	mem, err := r.memory.Get(ctx, userID)
	if err != nil {
		r.logger.Warn("support memory read failed", zap.String("user", userID), zap.Error(err))
	}
	mem = mem.Observe(message, category, r.now())

	text, source := r.compose(ctx, userID, message, category)
	if source == SourceTemplate && mem.Name != "" {
		text = mem.Name + ", " + text
	}
	if category.IsCrisis() {
		text = ensureHotline(category, text)
	}

	if err := r.memory.Put(ctx, userID, mem); err != nil {
		r.logger.Warn("support memory write failed", zap.String("user", userID), zap.Error(err))
	}

	reply := Reply{
		Category:      category,
		Text:          text,
		SuggestReport: category.SuggestsReport(),
		Crisis:        category.IsCrisis(),
		Hotline:       Hotline(category),
		Source:        source,
	}
	replyCount.WithLabelValues(string(category), source).Inc()
	if reply.Crisis {
		r.logger.Warn("crisis support message",
			zap.String("user", userID),
			zap.String("category", string(category)),
			zap.Int("messages", mem.MessageCount),
		)
		r.escalate(userID, category)
	}
	r.record(ctx, userID, message, reply)
	return reply
}

func (r *Responder) compose(ctx context.Context, userID, message string, category domain.IntentCategory) (string, string) {
	if r.counselor != nil {
		cctx, cancel := context.WithTimeout(ctx, r.counselTimeout)
		defer cancel()
		text, err := r.counselor.Counsel(cctx, userID, message)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), SourceCounsel
		}
		counselFailureCount.Inc()
		r.logger.Warn("counsel backend unavailable, using templates", zap.Error(err))
	}
	return r.picker.templateReply(category), SourceTemplate
}

func (r *Responder) escalate(userID string, category domain.IntentCategory) {
	if r.escalator == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), escalationTimeout)
		defer cancel()
		if err := r.escalator.EscalateCrisis(ctx, userID, category); err != nil {
			r.logger.Warn("crisis escalation failed", zap.String("user", userID), zap.Error(err))
		}
	}()
}

func (r *Responder) record(ctx context.Context, userID, message string, reply Reply) {
	if r.log == nil {
		return
	}
	_, err := r.log.LogConversation(ctx, domain.Conversation{
		UserID:    userID,
		Message:   message,
		Response:  reply.Text,
		Category:  reply.Category,
		Source:    reply.Source,
		CreatedAt: r.now(),
	})
	if err != nil {
		r.logger.Warn("support conversation log failed", zap.Error(err))
	}
}

// Wait blocks until detached escalations finish.
func (r *Responder) Wait() {
	r.wg.Wait()
}
