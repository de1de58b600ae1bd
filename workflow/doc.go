// Package workflow defines the graph model executed by canvasflow: nodes with
// typed input/output ports and parameters, port-addressed edges, the node
// template catalog, and the persisted workflow document.
//
// Nodes and edges use the JSON shape produced by the editor canvas, so a
// document saved by the editor can be executed without translation:
//
//	{"id": "t1", "type": "textInput", "position": {"x": 0, "y": 0},
//	 "data": {"label": "Text Input", "result": "a cat", ...}}
package workflow
