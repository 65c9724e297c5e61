package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
)

type routeState struct {
	message string
	result  contractx.RoutingResult
}

// compileProcessGraph wires the routing pipeline: validate the message,
// branch between the context shortcut and fresh intent scoring, record the
// interaction, and emit the final result. The interaction must be recorded
// after the winning handler's call completes and before the reply is
// returned.
func (r *Router) compileProcessGraph(
	ctx context.Context,
) (compose.Runnable[string, contractx.RoutingResult], error) {
	graph := compose.NewGraph[string, contractx.RoutingResult]()

	if err := graph.AddLambdaNode("validate_message",
		compose.InvokableLambda(func(ctx context.Context, message string) (*routeState, error) {
			if strings.TrimSpace(message) == "" {
				return nil, fmt.Errorf("%w: message is empty", contractx.ErrValidation)
			}
			return &routeState{message: message}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_message: %w", err)
	}

	if err := graph.AddLambdaNode("context_route",
		compose.InvokableLambda(func(ctx context.Context, in *routeState) (*routeState, error) {
			return r.routeByContext(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node context_route: %w", err)
	}

	if err := graph.AddLambdaNode("score_route",
		compose.InvokableLambda(func(ctx context.Context, in *routeState) (*routeState, error) {
			return r.routeByScoring(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node score_route: %w", err)
	}

	if err := graph.AddLambdaNode("record_interaction",
		compose.InvokableLambda(func(ctx context.Context, in *routeState) (*routeState, error) {
			r.tracker.Record(in.message, in.result)
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_interaction: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *routeState) (contractx.RoutingResult, error) {
			return in.result, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *routeState) (string, error) {
			if _, ok := r.tracker.SuggestFollowUp(in.message); ok {
				return "context_route", nil
			}
			return "score_route", nil
		},
		map[string]bool{
			"context_route": true,
			"score_route":   true,
		},
	)

	if err := graph.AddBranch("validate_message", branch); err != nil {
		return nil, fmt.Errorf("add routing branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_message"},
		{"context_route", "record_interaction"},
		{"score_route", "record_interaction"},
		{"record_interaction", "finalize_reply"},
		{"finalize_reply", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.process"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}

// routeByContext serves a follow-up turn: the tracker already identified the
// handler from recent history, so scoring is skipped entirely.
func (r *Router) routeByContext(ctx context.Context, in *routeState) (*routeState, error) {
	name, ok := r.tracker.SuggestFollowUp(in.message)
	if !ok {
		// The branch saw a follow-up that is gone now; score instead.
		return r.routeByScoring(ctx, in)
	}

	handler, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", contractx.ErrUnknownHandler, name)
	}

	log.Info().Str("handler", string(name)).Msg("context routing follow-up")

	in.result = handler.Process(ctx, in.message)
	in.result.Handler = handler.Name()
	in.result.Reason = contractx.ReasonContext
	return in, nil
}

// routeByScoring scores every handler, picks the winner by policy, and
// invokes it.
func (r *Router) routeByScoring(ctx context.Context, in *routeState) (*routeState, error) {
	scores := r.weights.scoreIntents(in.message)

	log.Info().
		Float64("refund", scores.Refund).
		Float64("order", scores.Order).
		Float64("support", scores.Support).
		Msg("intent scores")

	handler, score := r.selectHandler(in.message, scores)
	if handler == nil {
		in.result = unroutableResult()
		return in, nil
	}

	log.Info().Str("handler", string(handler.Name())).Float64("score", score).Msg("selected handler")

	in.result = handler.Process(ctx, in.message)
	in.result.Handler = handler.Name()
	in.result.Reason = contractx.ReasonIntentScoring
	in.result.Confidence = score
	return in, nil
}
