package filter

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type product struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	UnitPrice int    `json:"unitPrice"`
	Status    int    `json:"status"`
}

func testDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&product{}))

	seed := []product{
		{Name: "bolt", UnitPrice: 5, Status: 1},
		{Name: "nut", UnitPrice: 3, Status: 1},
		{Name: "washer", UnitPrice: 1, Status: 0},
		{Name: "bracket", UnitPrice: 40, Status: 1},
	}
	assert.NoError(t, db.Create(&seed).Error)
	return db
}

func parseFrom(t *testing.T, rawFilter string) *Filter {
	app := fiber.New()
	var f *Filter
	var parseErr error
	app.Get("/", func(c *fiber.Ctx) error {
		f, parseErr = Parse(c)
		return nil
	})

	target := "/"
	if rawFilter != "" {
		target += "?filter=" + url.QueryEscape(rawFilter)
	}
	req := httptest.NewRequest("GET", target, nil)
	_, err := app.Test(req)
	assert.NoError(t, err)
	assert.NoError(t, parseErr)
	return f
}

func find(t *testing.T, db *gorm.DB, f *Filter) []product {
	q, err := f.Apply(db.Model(&product{}))
	assert.NoError(t, err)

	var out []product
	assert.NoError(t, q.Find(&out).Error)
	return out
}

func TestApplyWhere(t *testing.T) {
	db := testDB(t)

	t.Run("Equality", func(t *testing.T) {
		q, err := ApplyWhere(db.Model(&product{}), map[string]interface{}{"name": "bolt"})
		assert.NoError(t, err)
		var out []product
		assert.NoError(t, q.Find(&out).Error)
		assert.Len(t, out, 1)
		assert.Equal(t, "bolt", out[0].Name)
	})

	t.Run("Comparison operators", func(t *testing.T) {
		q, err := ApplyWhere(db.Model(&product{}), map[string]interface{}{
			"unitPrice": map[string]interface{}{"gt": 2, "lt": 10},
		})
		assert.NoError(t, err)
		var out []product
		assert.NoError(t, q.Find(&out).Error)
		assert.Len(t, out, 2)
	})

	t.Run("inq", func(t *testing.T) {
		q, err := ApplyWhere(db.Model(&product{}), map[string]interface{}{
			"name": map[string]interface{}{"inq": []interface{}{"bolt", "washer"}},
		})
		assert.NoError(t, err)
		var out []product
		assert.NoError(t, q.Find(&out).Error)
		assert.Len(t, out, 2)
	})

	t.Run("or group", func(t *testing.T) {
		q, err := ApplyWhere(db.Model(&product{}), map[string]interface{}{
			"or": []interface{}{
				map[string]interface{}{"name": "bolt"},
				map[string]interface{}{"unitPrice": map[string]interface{}{"gte": 40}},
			},
		})
		assert.NoError(t, err)
		var out []product
		assert.NoError(t, q.Find(&out).Error)
		assert.Len(t, out, 2)
	})

	t.Run("Field names are validated", func(t *testing.T) {
		_, err := ApplyWhere(db.Model(&product{}), map[string]interface{}{
			"name; DROP TABLE products": "x",
		})
		assert.Error(t, err)
	})

	t.Run("Unknown operator is rejected", func(t *testing.T) {
		_, err := ApplyWhere(db.Model(&product{}), map[string]interface{}{
			"unitPrice": map[string]interface{}{"between": []interface{}{1, 2}},
		})
		assert.Error(t, err)
	})
}

func TestFilterApply(t *testing.T) {
	db := testDB(t)

	t.Run("Order limit and skip", func(t *testing.T) {
		f := &Filter{Order: "unitPrice DESC", Limit: 2, Skip: 1}
		out := find(t, db, f)
		assert.Len(t, out, 2)
		assert.Equal(t, "bolt", out[0].Name)
		assert.Equal(t, "nut", out[1].Name)
	})

	t.Run("Order rejects injection", func(t *testing.T) {
		f := &Filter{Order: "unitPrice; DROP TABLE products"}
		_, err := f.Apply(db.Model(&product{}))
		assert.Error(t, err)
	})

	t.Run("Fields as map selects columns", func(t *testing.T) {
		f := &Filter{Fields: map[string]interface{}{"name": true, "unitPrice": false}}
		out := find(t, db, f)
		assert.Len(t, out, 4)
		for _, p := range out {
			assert.NotEmpty(t, p.Name)
			assert.Zero(t, p.UnitPrice)
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("Missing parameter yields empty filter", func(t *testing.T) {
		f := parseFrom(t, "")
		assert.Empty(t, f.Where)
		assert.Zero(t, f.Limit)
	})

	t.Run("Full document", func(t *testing.T) {
		f := parseFrom(t, `{"where":{"status":1},"order":"name ASC","limit":5,"skip":2}`)
		assert.Equal(t, float64(1), f.Where["status"])
		assert.Equal(t, "name ASC", f.Order)
		assert.Equal(t, 5, f.Limit)
		assert.Equal(t, 2, f.Skip)
	})
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "unit_price", ColumnName("unitPrice"))
	assert.Equal(t, "name", ColumnName("name"))
	assert.Equal(t, "image_url", ColumnName("imageURL"))
}
