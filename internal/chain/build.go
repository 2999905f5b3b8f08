package chain

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// build orders the connections and derives the feedback subchains.
// Callers hold c.mu.
func (c *Chain) build() (*plan, error) {
	if c.start < 0 {
		return nil, ErrNoStartComponent
	}

	order, err := c.orderConnections()
	if err != nil {
		return nil, err
	}
	feedback, err := c.feedbackSubchains(order)
	if err != nil {
		return nil, err
	}

	c.builds++
	p := &plan{
		gen:        c.builds,
		start:      c.start,
		order:      order,
		feedback:   feedback,
		components: slices.Clone(c.components),
	}
	if c.opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logPlan(p)
	}
	return p, nil
}

// orderConnections walks the graph breadth-first from the start component.
// Each layer takes every not yet visited outgoing connection of the current
// frontier, in registration order, and the distinct targets of those
// connections form the next frontier.
func (c *Chain) orderConnections() ([]connection, error) {
	visited := make([]bool, len(c.connections))
	order := make([]connection, 0, len(c.connections))

	frontier := []int{c.start}
	for len(frontier) > 0 {
		var next []int
		inNext := make(map[int]bool)
		for _, from := range frontier {
			for i, conn := range c.connections {
				if visited[i] || conn.pull != from {
					continue
				}
				visited[i] = true
				order = append(order, conn)
				if !inNext[conn.push] {
					inNext[conn.push] = true
					next = append(next, conn.push)
				}
			}
		}
		frontier = next
	}

	for i, ok := range visited {
		if !ok {
			return nil, fmt.Errorf("%w: %s is not reachable from '%s'",
				ErrUnusedConnection, c.describe(c.connections[i]), c.components[c.start].Name())
		}
	}
	return order, nil
}

// feedbackSubchains groups the ordered feedback connections into linear
// subchains. A subchain may neither fork nor join another one. The result
// lists each subchain from its last component back to its head, and the
// subchains themselves in reverse discovery order.
func (c *Chain) feedbackSubchains(order []connection) ([][]int, error) {
	marked := make([]bool, len(order))
	var subchains [][]int

	for i, head := range order {
		if !head.feedback || marked[i] {
			continue
		}
		marked[i] = true
		seq := []int{head.pull, head.push}

		cur := i
		for {
			tail := seq[len(seq)-1]
			next := -1
			for j := cur + 1; j < len(order); j++ {
				cand := order[j]
				if !cand.feedback || cand.pull != tail {
					continue
				}
				if next >= 0 {
					return nil, fmt.Errorf("%w: '%s' has more than one outgoing feedback connection",
						ErrFeedbackMerge, c.components[tail].Name())
				}
				next = j
			}
			if next < 0 {
				break
			}
			if marked[next] {
				return nil, fmt.Errorf("%w: %s already belongs to another subchain",
					ErrFeedbackMerge, c.describe(order[next]))
			}
			marked[next] = true
			seq = append(seq, order[next].push)
			cur = next
		}

		slices.Reverse(seq)
		subchains = append(subchains, seq)
	}

	slices.Reverse(subchains)
	return subchains, nil
}

func (c *Chain) logPlan(p *plan) {
	order := make([]string, len(p.order))
	for i, conn := range p.order {
		order[i] = c.describe(conn)
	}
	feedback := make([][]string, len(p.feedback))
	for i, sub := range p.feedback {
		for _, idx := range sub {
			feedback[i] = append(feedback[i], p.components[idx].Name())
		}
	}
	c.opts.Logger.Debug("Chain built.", "connections", order, "feedback_subchains", feedback)
}
