package main

import (
	"errors"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/builder"
	"github.com/meikuraledutech/workflow/canvas"
	"github.com/meikuraledutech/workflow/editor"
)

var (
	errInvalidBody  = errors.New("invalid body")
	errNoEditor     = errors.New("no node selected")
	errPointerEvent = errors.New("pointer event type must be down, move or up")
)

// status maps an error to the HTTP status it is reported with.
func status(err error) int {
	switch {
	case errors.Is(err, builder.ErrSessionNotFound),
		errors.Is(err, workflow.ErrWorkflowNotFound),
		errors.Is(err, workflow.ErrNodeNotFound),
		errors.Is(err, workflow.ErrEdgeNotFound):
		return fiber.StatusNotFound
	case workflow.IsEdgeRejected(err), errors.Is(err, errNoEditor):
		return fiber.StatusConflict
	case errors.Is(err, workflow.ErrInvalidWorkflow):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, builder.ErrNoStore):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, errInvalidBody),
		errors.Is(err, errPointerEvent),
		errors.Is(err, workflow.ErrUnknownNodeType),
		errors.Is(err, editor.ErrNotEditable),
		errors.Is(err, editor.ErrWrongField),
		errors.Is(err, editor.ErrUnknownTool),
		errors.Is(err, editor.ErrUnknownParameter),
		errors.Is(err, editor.ErrNoToolSelected),
		errors.Is(err, editor.ErrBadOperation):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func fail(c fiber.Ctx, err error) error {
	return c.Status(status(err)).JSON(fiber.Map{"error": err.Error()})
}

func badBody(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errInvalidBody.Error()})
}

type nodeRequest struct {
	Type     workflow.NodeType `json:"type"`
	Position workflow.Position `json:"position"`
	Config   json.RawMessage   `json:"config"`
}

type detailsRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type edgeRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type labelRequest struct {
	Label string `json:"label"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type pointerRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type keyRequest struct {
	Key         canvas.Key `json:"key"`
	InTextInput bool       `json:"inTextInput"`
}

type dropRequest struct {
	Type workflow.NodeType `json:"type"`
	X    float64           `json:"x"`
	Y    float64           `json:"y"`
}

type selectRequest struct {
	Node string `json:"node"`
	Edge string `json:"edge"`
}

type fieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
	// Commit blurs the field after setting it.
	Commit bool `json:"commit"`
}

// newApp wires the HTTP routes. store may be nil, in which case the
// persistence routes answer 503.
func newApp(m *builder.Manager, store workflow.Store, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:     "workflow-builder",
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	app.Use(recoverer.New())

	session := func(c fiber.Ctx) (*builder.Session, error) {
		s, ok := m.Get(c.Params("id"))
		if !ok {
			return nil, builder.ErrSessionNotFound
		}
		return s, nil
	}

	// do runs fn inside the session and answers with the new session state.
	do := func(c fiber.Ctx, fn func(v builder.View) error) error {
		s, err := session(c)
		if err != nil {
			return fail(c, err)
		}
		if err := s.Do(fn); err != nil {
			return fail(c, err)
		}
		return c.JSON(s.State())
	}

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if store == nil {
			return fail(c, builder.ErrNoStore)
		}
		if err := store.CreateSchema(c.Context()); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if store == nil {
			return fail(c, builder.ErrNoStore)
		}
		if err := store.DropSchema(c.Context()); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Catalog ───────────────────────────────────────────────────────
	app.Get("/tools", func(c fiber.Ctx) error {
		return c.JSON(m.Tools())
	})

	app.Get("/palette", func(c fiber.Ctx) error {
		return c.JSON(workflow.Palette())
	})

	app.Get("/template", func(c fiber.Ctx) error {
		return c.JSON(workflow.DefaultTemplate(c.Query("id", "template")))
	})

	app.Post("/validate", func(c fiber.Ctx) error {
		var w workflow.Workflow
		if err := c.Bind().JSON(&w); err != nil {
			return badBody(c)
		}
		issues := workflow.Validate(&w, workflow.NewCatalog(m.Tools()))
		return c.JSON(fiber.Map{"valid": !issues.HasErrors(), "issues": issues})
	})

	// ── Stored workflows ──────────────────────────────────────────────
	app.Get("/workflows", func(c fiber.Ctx) error {
		if store == nil {
			return fail(c, builder.ErrNoStore)
		}
		list, err := store.ListWorkflows(c.Context())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(list)
	})

	app.Get("/workflows/:id", func(c fiber.Ctx) error {
		if store == nil {
			return fail(c, builder.ErrNoStore)
		}
		w, err := store.GetWorkflow(c.Context(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		if w == nil {
			return fail(c, workflow.ErrWorkflowNotFound)
		}
		return c.JSON(w)
	})

	app.Put("/workflows/:id", func(c fiber.Ctx) error {
		if store == nil {
			return fail(c, builder.ErrNoStore)
		}
		var w workflow.Workflow
		if err := c.Bind().JSON(&w); err != nil {
			return badBody(c)
		}
		w.ID = c.Params("id")
		if err := store.SaveWorkflow(c.Context(), &w); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Delete("/workflows/:id", func(c fiber.Ctx) error {
		if store == nil {
			return fail(c, builder.ErrNoStore)
		}
		if err := store.DeleteWorkflow(c.Context(), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// ── Sessions ──────────────────────────────────────────────────────
	app.Post("/sessions/:id", func(c fiber.Ctx) error {
		s, err := m.Open(c.Context(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(s.State())
	})

	app.Get("/sessions/:id", func(c fiber.Ctx) error {
		s, err := session(c)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(s.State())
	})

	app.Delete("/sessions/:id", func(c fiber.Ctx) error {
		if !m.Close(c.Params("id")) {
			return fail(c, builder.ErrSessionNotFound)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Put("/sessions/:id/name", func(c fiber.Ctx) error {
		var req nameRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		s, err := session(c)
		if err != nil {
			return fail(c, err)
		}
		s.Rename(req.Name)
		return c.JSON(s.State())
	})

	app.Get("/sessions/:id/validate", func(c fiber.Ctx) error {
		s, err := session(c)
		if err != nil {
			return fail(c, err)
		}
		issues := s.Validate()
		return c.JSON(fiber.Map{"valid": !issues.HasErrors(), "issues": issues})
	})

	app.Post("/sessions/:id/save", func(c fiber.Ctx) error {
		s, err := session(c)
		if err != nil {
			return fail(c, err)
		}
		if err := s.Save(c.Context()); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/sessions/:id/publish", func(c fiber.Ctx) error {
		s, err := session(c)
		if err != nil {
			return fail(c, err)
		}
		issues, err := s.Publish(c.Context())
		if err != nil {
			logger.Debug("publish failed", "workflow", s.ID(), "error", err)
			return c.Status(status(err)).JSON(fiber.Map{"error": err.Error(), "issues": issues})
		}
		return c.JSON(fiber.Map{"published": true, "issues": issues})
	})

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/sessions/:id/nodes", func(c fiber.Ctx) error {
		var req nodeRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		var id string
		s, err := session(c)
		if err != nil {
			return fail(c, err)
		}
		err = s.Do(func(v builder.View) error {
			var cfg workflow.Config
			if len(req.Config) > 0 {
				var err error
				if cfg, err = workflow.DecodeConfig(req.Type, req.Config); err != nil {
					if errors.Is(err, workflow.ErrUnknownNodeType) {
						return err
					}
					return fmt.Errorf("%w: %v", errInvalidBody, err)
				}
			}
			id, err = v.Graph.AddNode(req.Type, req.Position, cfg)
			return err
		})
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	})

	app.Put("/sessions/:id/nodes/:node/position", func(c fiber.Ctx) error {
		var pos workflow.Position
		if err := c.Bind().JSON(&pos); err != nil {
			return badBody(c)
		}
		return do(c, func(v builder.View) error {
			return v.Graph.MoveNode(c.Params("node"), pos)
		})
	})

	app.Put("/sessions/:id/nodes/:node/config", func(c fiber.Ctx) error {
		body := c.Body()
		return do(c, func(v builder.View) error {
			n, ok := v.Graph.Node(c.Params("node"))
			if !ok {
				return workflow.ErrNodeNotFound
			}
			cfg, err := workflow.DecodeConfig(n.Type, body)
			if err != nil {
				return fmt.Errorf("%w: %v", errInvalidBody, err)
			}
			return v.Graph.UpdateNodeConfig(n.ID, cfg)
		})
	})

	app.Put("/sessions/:id/nodes/:node/details", func(c fiber.Ctx) error {
		var req detailsRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		return do(c, func(v builder.View) error {
			return v.Graph.UpdateNodeDetails(c.Params("node"), req.Title, req.Description)
		})
	})

	app.Delete("/sessions/:id/nodes/:node", func(c fiber.Ctx) error {
		return do(c, func(v builder.View) error {
			if !v.Graph.DeleteNode(c.Params("node")) {
				return workflow.ErrNodeNotFound
			}
			return nil
		})
	})

	// ── Edges ─────────────────────────────────────────────────────────
	app.Post("/sessions/:id/edges", func(c fiber.Ctx) error {
		var req edgeRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		var id string
		s, err := session(c)
		if err != nil {
			return fail(c, err)
		}
		err = s.Do(func(v builder.View) error {
			id, err = v.Graph.AddEdge(req.Source, req.Target)
			return err
		})
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	})

	app.Put("/sessions/:id/edges/:edge/label", func(c fiber.Ctx) error {
		var req labelRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		return do(c, func(v builder.View) error {
			return v.Graph.SetEdgeLabel(c.Params("edge"), req.Label)
		})
	})

	app.Delete("/sessions/:id/edges/:edge", func(c fiber.Ctx) error {
		return do(c, func(v builder.View) error {
			if !v.Graph.DeleteEdge(c.Params("edge")) {
				return workflow.ErrEdgeNotFound
			}
			return nil
		})
	})

	// ── Canvas events ─────────────────────────────────────────────────
	app.Post("/sessions/:id/pointer", func(c fiber.Ctx) error {
		var req pointerRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		p := workflow.Position{X: req.X, Y: req.Y}
		return do(c, func(v builder.View) error {
			switch req.Type {
			case "down":
				v.Canvas.PointerDown(p)
			case "move":
				v.Canvas.PointerMove(p)
			case "up":
				v.Canvas.PointerUp(p)
			default:
				return fmt.Errorf("%w: %q", errPointerEvent, req.Type)
			}
			return nil
		})
	})

	app.Post("/sessions/:id/key", func(c fiber.Ctx) error {
		var req keyRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		return do(c, func(v builder.View) error {
			v.Canvas.KeyDown(req.Key, req.InTextInput)
			return nil
		})
	})

	app.Post("/sessions/:id/cancel", func(c fiber.Ctx) error {
		return do(c, func(v builder.View) error {
			v.Canvas.Cancel()
			return nil
		})
	})

	app.Post("/sessions/:id/drop", func(c fiber.Ctx) error {
		var req dropRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		return do(c, func(v builder.View) error {
			_, err := v.Canvas.Drop(req.Type, workflow.Position{X: req.X, Y: req.Y})
			return err
		})
	})

	app.Post("/sessions/:id/select", func(c fiber.Ctx) error {
		var req selectRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		return do(c, func(v builder.View) error {
			switch {
			case req.Node != "":
				if _, ok := v.Graph.Node(req.Node); !ok {
					return workflow.ErrNodeNotFound
				}
				v.Canvas.SelectNode(req.Node)
			case req.Edge != "":
				if _, ok := v.Graph.Edge(req.Edge); !ok {
					return workflow.ErrEdgeNotFound
				}
				v.Canvas.SelectEdge(req.Edge)
			default:
				v.Canvas.ClearSelection()
			}
			return nil
		})
	})

	// ── Config editor ─────────────────────────────────────────────────
	app.Put("/sessions/:id/editor", func(c fiber.Ctx) error {
		var req fieldRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		return do(c, func(v builder.View) error {
			if v.Editor == nil {
				return errNoEditor
			}
			if err := v.Editor.Set(req.Field, req.Value); err != nil {
				return err
			}
			if req.Commit {
				return v.Editor.Blur()
			}
			return nil
		})
	})

	app.Post("/sessions/:id/editor/blur", func(c fiber.Ctx) error {
		return do(c, func(v builder.View) error {
			if v.Editor == nil {
				return errNoEditor
			}
			return v.Editor.Blur()
		})
	})

	return app
}
