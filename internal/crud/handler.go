// Package crud serves every entity collection through one generic handler
// set. Audit stamping is applied here, in the shared mutation pipeline, so no
// per-entity controller can forget it.
package crud

import (
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"github.com/fanalyst/trading-api/internal/auth"
	"github.com/fanalyst/trading-api/internal/database"
	"github.com/fanalyst/trading-api/internal/filter"
	"github.com/fanalyst/trading-api/internal/models"
	"github.com/fanalyst/trading-api/internal/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Handler serves the standard collection operations for entity type T.
type Handler[T any] struct {
	// Name is used in error messages ("Supplier not found").
	Name string

	// Decode overrides the default body decoding for create and replace.
	// Collections with write-only fields use it to accept input the model's
	// JSON tags hide on output.
	Decode func(c *fiber.Ctx) (*T, error)
	// BeforeCreate runs on the decoded entity before insertion.
	BeforeCreate func(*T) error
	// BeforeUpdate runs on the column-update map before patch operations.
	BeforeUpdate func(map[string]interface{}) error
}

func NewHandler[T any](name string) *Handler[T] {
	return &Handler[T]{Name: name}
}

// Register mounts the collection routes. Literal segments are registered
// before the :id parameter so /count and /pagination resolve first.
func (h *Handler[T]) Register(r fiber.Router) {
	r.Post("/", h.Create)
	r.Get("/count", h.Count)
	r.Get("/pagination", h.Pagination)
	r.Get("/", h.Find)
	r.Get("/:id", h.FindByID)
	r.Patch("/", h.UpdateAll)
	r.Patch("/:id", h.UpdateByID)
	r.Put("/:id", h.ReplaceByID)
	r.Delete("/:id", h.DeleteByID)
}

func (h *Handler[T]) Create(c *fiber.Ctx) error {
	ent, err := h.decodeBody(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	zeroID(ent)

	if snapshot, ok := auth.SnapshotFromContext(c); ok {
		if auditable, ok := any(ent).(models.Auditable); ok {
			auditable.StampCreated(snapshot)
		}
	}

	if h.BeforeCreate != nil {
		if err := h.BeforeCreate(ent); err != nil {
			return response.InternalError(c, err.Error())
		}
	}

	if err := database.DB.Create(ent).Error; err != nil {
		return response.InternalError(c, "Failed to create "+h.Name)
	}
	return c.JSON(ent)
}

func (h *Handler[T]) decodeBody(c *fiber.Ctx) (*T, error) {
	if h.Decode != nil {
		return h.Decode(c)
	}
	var ent T
	if err := c.BodyParser(&ent); err != nil {
		return nil, err
	}
	return &ent, nil
}

func (h *Handler[T]) Count(c *fiber.Ctx) error {
	where, err := filter.ParseWhere(c)
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}

	db, err := filter.ApplyWhere(database.DB.Model(new(T)), where)
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return response.InternalError(c, "Failed to count "+h.Name)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *Handler[T]) Find(c *fiber.Ctx) error {
	f, err := filter.Parse(c)
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}

	db, err := f.Apply(database.DB.Model(new(T)))
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}

	records := []T{}
	if err := db.Find(&records).Error; err != nil {
		return response.InternalError(c, "Failed to fetch "+h.Name)
	}
	return c.JSON(records)
}

// Pagination returns one filtered page plus the total matching the filter's
// where clause; the filter's limit never caps the total.
func (h *Handler[T]) Pagination(c *fiber.Ctx) error {
	f, err := filter.Parse(c)
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}

	db, err := f.Apply(database.DB.Model(new(T)))
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}

	records := []T{}
	if err := db.Find(&records).Error; err != nil {
		return response.InternalError(c, "Failed to fetch "+h.Name)
	}

	countDB, err := filter.ApplyWhere(database.DB.Model(new(T)), f.Where)
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}
	var total int64
	if err := countDB.Count(&total).Error; err != nil {
		return response.InternalError(c, "Failed to count "+h.Name)
	}

	return c.JSON(fiber.Map{"records": records, "totalCount": total})
}

func (h *Handler[T]) FindByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid id", nil)
	}

	var ent T
	if err := database.DB.First(&ent, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, h.Name+" not found")
		}
		return response.InternalError(c, "Failed to fetch "+h.Name)
	}
	return c.JSON(ent)
}

// UpdateAll patches every record matching the where query parameter and
// returns the affected count.
func (h *Handler[T]) UpdateAll(c *fiber.Ctx) error {
	where, err := filter.ParseWhere(c)
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}

	updates, err := h.updatesFromBody(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if len(updates) == 0 {
		return c.JSON(fiber.Map{"count": 0})
	}

	db := database.DB.Model(new(T))
	if len(where) == 0 {
		db = db.Session(&gorm.Session{AllowGlobalUpdate: true})
	} else if db, err = filter.ApplyWhere(db, where); err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}

	res := db.Updates(updates)
	if res.Error != nil {
		return response.InternalError(c, "Failed to update "+h.Name)
	}
	return c.JSON(fiber.Map{"count": res.RowsAffected})
}

func (h *Handler[T]) UpdateByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid id", nil)
	}

	var ent T
	if err := database.DB.First(&ent, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, h.Name+" not found")
		}
		return response.InternalError(c, "Failed to fetch "+h.Name)
	}

	updates, err := h.updatesFromBody(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if len(updates) == 0 {
		return response.NoContent(c)
	}

	if err := database.DB.Model(&ent).Updates(updates).Error; err != nil {
		return response.InternalError(c, "Failed to update "+h.Name)
	}
	return response.NoContent(c)
}

func (h *Handler[T]) ReplaceByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid id", nil)
	}

	var existing T
	if err := database.DB.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, h.Name+" not found")
		}
		return response.InternalError(c, "Failed to fetch "+h.Name)
	}

	ent, err := h.decodeBody(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	setID(ent, uint(id))

	if snapshot, ok := auth.SnapshotFromContext(c); ok {
		if auditable, ok := any(ent).(models.Auditable); ok {
			auditable.StampUpdated(snapshot)
		}
	}

	if h.BeforeCreate != nil {
		if err := h.BeforeCreate(ent); err != nil {
			return response.InternalError(c, err.Error())
		}
	}

	if err := database.DB.Save(ent).Error; err != nil {
		return response.InternalError(c, "Failed to replace "+h.Name)
	}
	return response.NoContent(c)
}

func (h *Handler[T]) DeleteByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid id", nil)
	}

	res := database.DB.Delete(new(T), id)
	if res.Error != nil {
		return response.InternalError(c, "Failed to delete "+h.Name)
	}
	if res.RowsAffected == 0 {
		return response.NotFound(c, h.Name+" not found")
	}
	return response.NoContent(c)
}

// updatesFromBody converts the request body into a column-update map, stamps
// the acting user, and runs the BeforeUpdate hook.
func (h *Handler[T]) updatesFromBody(c *fiber.Ctx) (map[string]interface{}, error) {
	var body map[string]interface{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return nil, err
		}
	}

	updates := make(map[string]interface{}, len(body)+2)
	for key, value := range body {
		if key == "id" {
			continue
		}
		col := filter.ColumnName(key)
		switch value.(type) {
		case map[string]interface{}, []interface{}:
			raw, err := json.Marshal(value)
			if err != nil {
				return nil, err
			}
			updates[col] = datatypes.JSON(raw)
		default:
			updates[col] = value
		}
	}

	if h.BeforeUpdate != nil {
		if err := h.BeforeUpdate(updates); err != nil {
			return nil, err
		}
	}

	if len(updates) > 0 {
		if snapshot, ok := auth.SnapshotFromContext(c); ok {
			updates["updated_at"] = time.Now()
			updates["user_updated"] = datatypes.NewJSONType(snapshot)
		}
	}

	return updates, nil
}

func zeroID(ent interface{}) {
	setIDValue(ent, 0)
}

func setID(ent interface{}, id uint) {
	setIDValue(ent, uint64(id))
}

func setIDValue(ent interface{}, id uint64) {
	v := reflect.ValueOf(ent).Elem()
	f := v.FieldByName("ID")
	if f.IsValid() && f.CanSet() && f.Kind() == reflect.Uint {
		f.SetUint(id)
	}
}
