package dag

import (
	"context"
	"time"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/observability"
)

// Node wrappers keep the inner node's Kind and input merge policy.

// WithTracing runs node inside a workflow.node span.
func WithTracing(node Node) Node {
	return &tracingNode{inner: node}
}

type tracingNode struct{ inner Node }

func (n *tracingNode) Name() string { return n.inner.Name() }
func (n *tracingNode) Kind() string { return KindOf(n.inner) }
func (n *tracingNode) MergeInput(h string, existing, incoming any) any {
	return mergeInput(n.inner, h, existing, incoming)
}

func (n *tracingNode) Run(ctx context.Context, in Inputs) (any, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanNode)
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrNodeID, n.inner.Name())
	if kind := KindOf(n.inner); kind != "" {
		observability.SetSpanAttribute(ctx, observability.AttrNodeType, kind)
	}

	result, err := n.inner.Run(ctx, in)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return result, err
}

// WithMetrics records the node counter and duration histogram. A nil
// metrics set returns node unchanged.
func WithMetrics(node Node, metrics *observability.Metrics) Node {
	if metrics == nil {
		return node
	}
	return &metricsNode{inner: node, metrics: metrics}
}

type metricsNode struct {
	inner   Node
	metrics *observability.Metrics
}

func (n *metricsNode) Name() string { return n.inner.Name() }
func (n *metricsNode) Kind() string { return KindOf(n.inner) }
func (n *metricsNode) MergeInput(h string, existing, incoming any) any {
	return mergeInput(n.inner, h, existing, incoming)
}

func (n *metricsNode) Run(ctx context.Context, in Inputs) (any, error) {
	start := time.Now()
	result, err := n.inner.Run(ctx, in)

	status := string(StatusComplete)
	if err != nil {
		status = string(StatusError)
		n.metrics.RecordError(ctx, "node", n.Kind())
	}
	n.metrics.RecordNode(ctx, n.Kind(), status, time.Since(start))
	return result, err
}

// WithLogging logs each node run with its run id, duration and outcome.
func WithLogging(node Node, log *logger.Logger) Node {
	return &loggingNode{inner: node, log: log}
}

type loggingNode struct {
	inner Node
	log   *logger.Logger
}

func (n *loggingNode) Name() string { return n.inner.Name() }
func (n *loggingNode) Kind() string { return KindOf(n.inner) }
func (n *loggingNode) MergeInput(h string, existing, incoming any) any {
	return mergeInput(n.inner, h, existing, incoming)
}

func (n *loggingNode) Run(ctx context.Context, in Inputs) (any, error) {
	start := time.Now()
	result, err := n.inner.Run(ctx, in)

	fields := logger.NodeFields(logger.RunIDFromContext(ctx), n.inner.Name(), n.Kind())
	fields[logger.FieldDuration] = time.Since(start).Milliseconds()
	if err != nil {
		fields[logger.FieldError] = apperrors.Message(err)
		n.log.Warn("node run failed", fields)
	} else {
		n.log.Debug("node run ok", fields)
	}
	return result, err
}
