package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks bundles the graph, node and model observers into one handler.
// Attach it with compose.WithCallbacks when invoking a graph.
func NewAllCallbacks() einocb.Handler {
	nodes := newNodeHandler()

	return callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler()).
		Graph(nodes).
		Lambda(nodes).
		Handler()
}
