package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/canvas"
	"github.com/meikuraledutech/workflow/editor"
	"github.com/meikuraledutech/workflow/sqlite"
)

func main() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "workflow-example")
	if err != nil {
		log.Fatalf("temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	db, err := sqlite.Open(filepath.Join(dir, "workflows.db"))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer db.Close()

	// Wire up the sqlite implementation behind the Store interface.
	var store workflow.Store = db

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Build on an empty canvas ──────────────────────────────────────
	g := workflow.NewGraph()
	c := canvas.New(g)
	geo := c.Geometry()

	// Drop three nodes from the palette (screen space, no pan yet).
	start, _ := c.Drop(workflow.NodeStart, canvas.Position{X: 40, Y: 100})
	ask, _ := c.Drop(workflow.NodeLLM, canvas.Position{X: 280, Y: 100})
	end, _ := c.Drop(workflow.NodeEnd, canvas.Position{X: 520, Y: 100})
	fmt.Println("dropped start, llm and end nodes")

	// Drag from Start's output anchor and release over the LLM node.
	s, _ := g.Node(start)
	a, _ := g.Node(ask)
	c.PointerDown(geo.OutputAnchor(s.Position))
	c.PointerMove(canvas.Position{X: 200, Y: 150})
	c.PointerUp(a.Position.Add(canvas.Position{X: 80, Y: 30}))

	// Same for LLM -> End.
	e, _ := g.Node(end)
	c.PointerDown(geo.OutputAnchor(a.Position))
	c.PointerUp(geo.InputAnchor(e.Position))

	_, edges := g.Len()
	fmt.Printf("connected %d edges by dragging between anchors\n", edges)

	// Connecting into Start is rejected: it has no input anchor.
	if _, err := g.AddEdge(ask, start); err != nil {
		fmt.Println("rejected:", err)
	}

	// Move the LLM node down by dragging its body.
	grab := a.Position.Add(canvas.Position{X: 80, Y: 30})
	c.PointerDown(grab)
	c.PointerUp(grab.Add(canvas.Position{X: 0, Y: 120}))
	a, _ = g.Node(ask)
	fmt.Printf("llm node moved to (%.0f, %.0f)\n", a.Position.X, a.Position.Y)

	// ── Configure the LLM node ────────────────────────────────────────
	c.SelectNode(ask)
	ed, err := editor.Open(g, ask, workflow.NewCatalog(workflow.DefaultTools()))
	if err != nil {
		log.Fatalf("editor: %v", err)
	}
	if err := ed.SetPrompt("Greet the customer by name."); err != nil {
		log.Fatalf("prompt: %v", err)
	}
	if err := ed.Blur(); err != nil {
		log.Fatalf("blur: %v", err)
	}
	fmt.Println("prompt committed on blur")

	w := g.Snapshot("greeter", "Greeter")
	printJSON(w)

	// ── Validate and save ─────────────────────────────────────────────
	issues := workflow.Validate(w, workflow.NewCatalog(workflow.DefaultTools()))
	fmt.Printf("validation: %d issues, errors=%v\n", len(issues), issues.HasErrors())

	if err := store.SaveWorkflow(ctx, w); err != nil {
		log.Fatalf("save: %v", err)
	}
	if err := store.MarkPublished(ctx, w.ID); err != nil {
		log.Fatalf("publish: %v", err)
	}
	fmt.Println("workflow saved and published")

	// ── Retrieve ──────────────────────────────────────────────────────
	loaded, err := store.GetWorkflow(ctx, "greeter")
	if err != nil {
		log.Fatalf("get: %v", err)
	}
	fmt.Println("workflow retrieved")
	printJSON(loaded)

	// ── Delete the LLM node with the keyboard ─────────────────────────
	c.SelectNode(ask)
	c.KeyDown(canvas.KeyDelete, false)
	nodes, edges := g.Len()
	fmt.Printf("after delete: %d nodes, %d edges\n", nodes, edges)

	// ── Start from the template ───────────────────────────────────────
	tmpl := workflow.DefaultTemplate("sales")
	issues = workflow.Validate(tmpl, workflow.NewCatalog(workflow.DefaultTools()))
	fmt.Printf("template %q: %d nodes, %d edges, errors=%v\n", tmpl.Name, len(tmpl.Nodes), len(tmpl.Edges), issues.HasErrors())

	list, err := store.ListWorkflows(ctx)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	fmt.Printf("%d stored workflows\n", len(list))
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
