package contract

import (
	"fmt"

	"github.com/DE-labtory/erc20peggy/internal/log"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// NotificationSink receives the notifications and bid results of
// committed commands. Delivery happens after each commit, in the
// order the effects were recorded.
type NotificationSink interface {
	Notify(receipt *Receipt, n Notify)
	BidResult(receipt *Receipt, r BidResult)
}

// logSink writes notifications to the contract log.
type logSink struct{}

func (logSink) Notify(receipt *Receipt, n Notify) {
	log.Contract.Info().
		Str("receipt", receipt.ID.String()).
		Str("account", string(n.Account)).
		Str("event", n.Event).
		Str("detail", n.Detail).
		Msg("notify")
}

func (logSink) BidResult(receipt *Receipt, r BidResult) {
	log.Contract.Info().
		Str("receipt", receipt.ID.String()).
		Str("account", string(r.Account)).
		Str("code", r.Code).
		Uint64("token_id", r.TokenID).
		Bool("won", r.Won).
		Str("amount", r.Amount.String()).
		Msg("bid result")
}

// maxChainDepth bounds the commands one external command can spawn.
// The deepest real chain is claim: settlement transfer plus item
// delivery, neither of which chains further.
const maxChainDepth = 8

// Runner applies a command and then drains the chained commands it
// spawned, each under the contract's own authority. Every command in
// the chain commits independently; a chained failure is reported but
// cannot undo the commands already committed, so chained commands are
// constructed only from state the triggering command just verified.
type Runner struct {
	engine *Engine
	sink   NotificationSink
}

// NewRunner wires a runner over the engine. A nil sink logs
// notifications instead of delivering them.
func NewRunner(engine *Engine, sink NotificationSink) *Runner {
	if sink == nil {
		sink = logSink{}
	}
	return &Runner{engine: engine, sink: sink}
}

// Run applies cmd and every command it chains, in FIFO order.
// Returns the receipts of all committed commands, the triggering one
// first.
func (r *Runner) Run(cmd Command, signers SignerSet) ([]*Receipt, error) {
	receipt, err := r.engine.Apply(cmd, signers)
	if err != nil {
		return nil, err
	}

	receipts := []*Receipt{receipt}
	contractAuth := NewSignerSet(r.engine.opts.Contract)

	queue := r.deliver(receipt, nil)
	for depth := 0; len(queue) > 0; depth++ {
		if depth >= maxChainDepth {
			return receipts, fmt.Errorf("chained command depth exceeded: %w", types.ErrPreconditionFailed)
		}
		next := queue[0]
		queue = queue[1:]

		chained, err := r.engine.Apply(next, contractAuth)
		if err != nil {
			return receipts, fmt.Errorf("chained %s: %w", next.Kind(), err)
		}
		receipts = append(receipts, chained)
		queue = r.deliver(chained, queue)
	}
	return receipts, nil
}

// deliver pushes a receipt's notifications to the sink and appends
// its chained commands to the queue.
func (r *Runner) deliver(receipt *Receipt, queue []Command) []Command {
	for _, e := range receipt.Effects {
		switch eff := e.(type) {
		case Notify:
			r.sink.Notify(receipt, eff)
		case BidResult:
			r.sink.BidResult(receipt, eff)
		case Chained:
			queue = append(queue, eff.Cmd)
		}
	}
	return queue
}
