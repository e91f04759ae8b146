package routes

import (
	"strconv"
	"sync"

	"github.com/bohemiyan/permtree"
	"github.com/bohemiyan/permtree/zapLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// editorSession pairs an open editor with an opaque session token the admin
// UI echoes back for diagnostics.
type editorSession struct {
	Token  string
	Editor *permtree.Editor
}

type handler struct {
	manager *permtree.Manager
	gateway *permtree.GormGateway

	mu       sync.Mutex
	sessions map[int]*editorSession
}

// Setup wires the admin permission-manager endpoints. All selection logic
// lives in the engine; these handlers are request/response glue.
func Setup(app *fiber.App, manager *permtree.Manager, gateway *permtree.GormGateway) {
	h := &handler{
		manager:  manager,
		gateway:  gateway,
		sessions: make(map[int]*editorSession),
	}

	api := app.Group("/api/v1")
	api.Get("/roles", h.listRoles)
	api.Get("/roles/:id/tree", h.getTree)
	api.Get("/roles/:id/summary", h.getSummary)
	api.Post("/roles/:id/toggle", h.applyToggle)
	api.Post("/roles/:id/bulk", h.applyBulkOp)
	api.Post("/roles/:id/save", h.save)
	api.Post("/roles/:id/reset", h.reset)
	api.Get("/audit", h.listAudit)
}

// session returns the open editor for a role, opening one on first use.
func (h *handler) session(c *fiber.Ctx) (*editorSession, error) {
	roleID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid role id")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if sess, ok := h.sessions[roleID]; ok {
		return sess, nil
	}

	editor, err := h.manager.OpenEditor(c.Context(), roleID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	sess := &editorSession{Token: uuid.NewString(), Editor: editor}
	h.sessions[roleID] = sess
	zapLogger.Log.Infof("opened editor session %s for role %d", sess.Token, roleID)
	return sess, nil
}

func (h *handler) listRoles(c *fiber.Ctx) error {
	return c.JSON(h.manager.Roles())
}

func (h *handler) getTree(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	tree := sess.Editor.Tree()
	if q := c.Query("q"); q != "" {
		tree = permtree.FilterTree(tree, q)
	}
	return c.JSON(tree)
}

func (h *handler) getSummary(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"session":        sess.Token,
		"role":           sess.Editor.Role(),
		"selectedCount":  sess.Editor.SelectedCount(),
		"inheritedCount": sess.Editor.InheritedCount(),
	})
}

func (h *handler) applyToggle(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var body struct {
		Path []string `json:"path"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid toggle request")
	}
	if err := sess.Editor.ApplyToggle(body.Path); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.JSON(sess.Editor.Tree())
}

func (h *handler) applyBulkOp(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var body struct {
		Op   permtree.BulkOp     `json:"op"`
		Args permtree.BulkOpArgs `json:"args"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid bulk request")
	}
	if err := sess.Editor.ApplyBulkOp(c.Context(), body.Op, body.Args); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(sess.Editor.Tree())
}

func (h *handler) save(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	if err := sess.Editor.Save(c.Context()); err != nil {
		zapLogger.Log.Errorf("save failed for role %d: %v", sess.Editor.Role().ID, err)
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{
		"saved":         true,
		"selectedCount": sess.Editor.SelectedCount(),
	})
}

func (h *handler) reset(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	if err := sess.Editor.Reset(c.Context()); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(sess.Editor.Tree())
}

func (h *handler) listAudit(c *fiber.Ctx) error {
	var roleID *int
	if q := c.Query("roleId"); q != "" {
		id, err := strconv.Atoi(q)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid roleId")
		}
		roleID = &id
	}
	entries, err := h.gateway.ListAuditEntries(c.Context(), roleID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(entries)
}
