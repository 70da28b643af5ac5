package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bizit/internal/chat/domain"
	sharedinfra "bizit/internal/shared/infrastructure"
	solutiondomain "bizit/internal/solution/domain"
)

// contextSolutions nombre de recommandations injectées dans le prompt système
const contextSolutions = 5

const consultantPrompt = `당신은 소상공인 경영 효율화와 매출 증대를 돕는 비즈니스 전략 컨설턴트입니다.
사장님의 매출 추이와 상권 상황을 근거로 바로 실행할 수 있는 조언을 하세요.
전문 용어 대신 쉬운 말을 쓰고, 권유에는 반드시 근거를 붙이세요.
모든 답변은 3문장 안에 끝내세요.`

// Generator produit la réponse du modèle
type Generator interface {
	Generate(ctx context.Context, req sharedinfra.LLMRequest) (string, error)
}

// SolutionLister liste les recommandations du commerçant, les plus récentes d'abord
type SolutionLister interface {
	List(ctx context.Context, userID string, limit int) ([]solutiondomain.Solution, error)
}

// Reply réponse envoyée au client
type Reply struct {
	Answer    string `json:"answer"`
	User      string `json:"user"`
	SessionID string `json:"session_id"`
}

// ChatService gère les conversations, une session par commerçant avec expiration
type ChatService struct {
	sessions  sharedinfra.Cache
	ttl       time.Duration
	maxTurns  int
	generator Generator
	solutions SolutionLister
	locks     *sharedinfra.KeyedMutex
	logger    *zap.Logger
	now       func() time.Time
}

// NewChatService crée le service. sessions doit purger les entrées expirées.
func NewChatService(
	sessions sharedinfra.Cache,
	ttl time.Duration,
	maxTurns int,
	generator Generator,
	solutions SolutionLister,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		sessions:  sessions,
		ttl:       ttl,
		maxTurns:  maxTurns,
		generator: generator,
		solutions: solutions,
		locks:     sharedinfra.NewKeyedMutex(),
		logger:    logger,
		now:       time.Now,
	}
}

// Send envoie un message dans la session du commerçant, créée au besoin.
// Une erreur du modèle supprime la session.
func (c *ChatService) Send(ctx context.Context, userID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}

	unlock := c.locks.Lock(userID)
	defer unlock()

	session, err := c.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	answer, err := c.generator.Generate(ctx, sharedinfra.LLMRequest{
		System: session.System,
		Turns:  session.Turns(message),
	})
	if err != nil {
		c.sessions.Delete(c.key(userID))
		c.logger.Warn("chat session dropped after llm error",
			zap.String("user_id", userID), zap.Error(err))
		return nil, eris.Wrap(err, "chat generation")
	}

	session.Append(message, answer, c.maxTurns)
	c.sessions.Set(c.key(userID), session, c.ttl)

	return &Reply{Answer: answer, User: userID, SessionID: session.ID}, nil
}

// Reset supprime la conversation du commerçant
func (c *ChatService) Reset(userID string) {
	c.sessions.Delete(c.key(userID))
}

// session retourne la session en cours ou en ouvre une avec les recommandations récentes
func (c *ChatService) session(ctx context.Context, userID string) (*domain.Session, error) {
	if cached, ok := c.sessions.Get(c.key(userID)); ok {
		return cached.(*domain.Session), nil
	}

	solutions, err := c.solutions.List(ctx, userID, contextSolutions)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(consultantPrompt)
	if len(solutions) > 0 {
		b.WriteString("\n\n현재 사장님께 제안된 핵심 전략은 다음과 같습니다:\n")
		for _, s := range solutions {
			fmt.Fprintf(&b, "- 전략: %s\n  상세내용: %s\n", s.Title, s.Solution)
		}
	}

	return &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		System:    b.String(),
		StartedAt: c.now(),
	}, nil
}

func (c *ChatService) key(userID string) string {
	return sharedinfra.NewCacheKeyBuilder().Add("chat").Add(userID).Build()
}
