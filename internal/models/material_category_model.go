package models

type MaterialCategory struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100" json:"name"`
	Code string `gorm:"size:50" json:"code"`

	Audit
}

func (MaterialCategory) TableName() string { return "material_categories" }
