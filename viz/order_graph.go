// ABOUTME: Graphviz rendering of a purchase order's status chain
// ABOUTME: Visited statuses are filled, the current one is outlined, cancellation hangs off where it happened
package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/tracking"
)

// ParseFormat maps a user-facing name to a graphviz output format.
func ParseFormat(name string) (graphviz.Format, error) {
	switch strings.ToLower(name) {
	case "", "dot":
		return graphviz.XDOT, nil
	case "svg":
		return graphviz.SVG, nil
	case "png":
		return graphviz.PNG, nil
	default:
		return "", errors.Errorf("unsupported graph format %q (use dot, svg or png)", name)
	}
}

// OrderGraph renders the status chain of an order in format.
func OrderGraph(ctx context.Context, info *tracking.Info, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "create graphviz instance")
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return nil, errors.Wrap(err, "create graph")
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)
	graph.SetLabel(fmt.Sprintf("Order %s", info.OrderID.String()[:8]))

	visited := make(map[models.POStatus]bool, len(info.Timeline))
	for _, e := range info.Timeline {
		visited[e.Status] = true
	}

	// the last chain status reached before a cancellation
	var lastReached models.POStatus
	nodes := make(map[models.POStatus]*cgraph.Node)
	for _, status := range models.POStatusChain() {
		node, err := graph.CreateNodeByName(string(status))
		if err != nil {
			return nil, errors.Wrapf(err, "create node %s", status)
		}
		node.SetShape("box")
		node.SetStyle("rounded,filled")
		switch {
		case status == info.CurrentStatus:
			node.SetFillColor("gold")
			node.SetPenWidth(2)
		case visited[status]:
			node.SetFillColor("palegreen")
		default:
			node.SetFillColor("whitesmoke")
			node.SetFontColor("gray50")
		}
		if visited[status] {
			lastReached = status
		}
		nodes[status] = node
	}

	chain := models.POStatusChain()
	for i := 0; i+1 < len(chain); i++ {
		from, to := chain[i], chain[i+1]
		edge, err := graph.CreateEdgeByName(fmt.Sprintf("%s_%s", from, to), nodes[from], nodes[to])
		if err != nil {
			return nil, errors.Wrap(err, "create edge")
		}
		if visited[from] && visited[to] {
			edge.SetColor("darkgreen")
			edge.SetPenWidth(2)
		} else {
			edge.SetColor("gray70")
		}
	}

	if info.CurrentStatus == models.POCancelled {
		node, err := graph.CreateNodeByName(string(models.POCancelled))
		if err != nil {
			return nil, errors.Wrap(err, "create cancelled node")
		}
		node.SetShape("octagon")
		node.SetStyle("filled")
		node.SetFillColor("salmon")
		if from, ok := nodes[lastReached]; ok {
			edge, err := graph.CreateEdgeByName("cancel", from, node)
			if err != nil {
				return nil, errors.Wrap(err, "create cancel edge")
			}
			edge.SetStyle("dashed")
			edge.SetColor("red")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return nil, errors.Wrap(err, "render graph")
	}
	return buf.Bytes(), nil
}
