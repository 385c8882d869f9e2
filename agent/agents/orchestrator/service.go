package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	nodex "github.com/tanpawarit/storage-chat-agent/agent/nodes/orchestrator"
	schemax "github.com/tanpawarit/storage-chat-agent/agent/schema"
	statex "github.com/tanpawarit/storage-chat-agent/agent/state"
	toolx "github.com/tanpawarit/storage-chat-agent/agent/tool"
)

const DefaultMaxChainLength = 8

type Config struct {
	MaxChainLength int    `envconfig:"MAX_CHAIN_LENGTH" split_words:"true" default:"8"`
	SessionFile    string `envconfig:"SESSION_FILE" split_words:"true"`
}

// Orchestrator owns one conversation. Submit runs a whole turn, follow-up
// completions included; only one turn runs at a time.
type Orchestrator struct {
	session     *statex.Session
	gateway     contractx.Gateway
	executor    contractx.ToolExecutor
	credentials contractx.CredentialSource
	tools       []contractx.ToolDefinition

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	turnMu         sync.Mutex
	status         atomic.Value // contractx.Status
	maxChainLength int

	logger zerolog.Logger
	now    func() time.Time
}

type Option func(*Orchestrator)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(
	session *statex.Session,
	gateway contractx.Gateway,
	executor contractx.ToolExecutor,
	credentials contractx.CredentialSource,
	registry *schemax.Registry,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}
	if gateway == nil {
		return nil, errors.New("completion gateway is required")
	}
	if executor == nil {
		return nil, errors.New("tool executor is required")
	}
	if credentials == nil {
		return nil, errors.New("credential source is required")
	}
	if registry == nil {
		registry = schemax.Default
	}

	maxChain := cfg.MaxChainLength
	if maxChain <= 0 {
		maxChain = DefaultMaxChainLength
	}

	o := &Orchestrator{
		session:        session,
		gateway:        gateway,
		executor:       executor,
		credentials:    credentials,
		tools:          toolx.Catalog(registry),
		maxChainLength: maxChain,
		logger:         log.Logger.With().Str("component", "orchestrator").Logger(),
		now:            time.Now,
	}
	o.status.Store(contractx.StatusIdle)
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	graphRunner, err := o.compileSubmitGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Submit runs one user turn. On a gateway failure the returned Turn carries
// the error reply and the error wraps contractx.ErrGateway.
func (o *Orchestrator) Submit(ctx context.Context, text string) (contractx.Turn, error) {
	if !o.turnMu.TryLock() {
		return contractx.Turn{}, contractx.ErrBusy
	}
	defer o.turnMu.Unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		Text:    text,
		Epoch:   o.session.Epoch(),
		Session: o.session,
	})
	o.setStatus(contractx.StatusIdle)
	if err != nil {
		return contractx.Turn{}, err
	}
	return out.Turn, out.Err
}

// Clear resets the conversation. A turn still running keeps going but its
// results are discarded.
func (o *Orchestrator) Clear() {
	epoch := o.session.Reset()
	o.logger.Info().Uint64("epoch", epoch).Msg("conversation cleared")
}

func (o *Orchestrator) Status() contractx.Status {
	return o.status.Load().(contractx.Status)
}

func (o *Orchestrator) Transcript() []contractx.Message {
	return o.session.Transcript()
}

func (o *Orchestrator) Messages() []contractx.DisplayMessage {
	return o.session.Display()
}

func (o *Orchestrator) Session() *statex.Session {
	return o.session
}

func (o *Orchestrator) setStatus(s contractx.Status) {
	o.status.Store(s)
}
