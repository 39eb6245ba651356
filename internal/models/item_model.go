package models

import "gorm.io/datatypes"

// Item is the traded good. The nested document-style attributes (names per
// language, dimensions, packing breakdown, multi-currency prices, embedded
// supplier/hscode copies) are stored as JSON columns.
type Item struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Picture          datatypes.JSON `json:"picture,omitempty"`
	Name             datatypes.JSON `json:"name"`
	Type             string         `gorm:"size:100" json:"type"`
	Color            string         `gorm:"size:50" json:"color,omitempty"`
	Remark           string         `gorm:"size:500" json:"remark,omitempty"`
	Dimension        datatypes.JSON `json:"dimension"`
	OriginArea       string         `gorm:"size:50;default:NORTH" json:"originArea"`
	Supplier         datatypes.JSON `json:"supplier"`
	PackingQty       float64        `json:"packingQty"`
	PackingDetail    datatypes.JSON `json:"packingDetail,omitempty"`
	QtyPerPacking    float64        `json:"qtyPerPacking"`
	UnitName         string         `gorm:"size:50;default:pcs" json:"unitName"`
	PackingVolume    float64        `json:"packingVolume"`
	Volume           float64        `json:"volume"`
	NetWeight        float64        `json:"netWeight"`
	GrossWeight      float64        `json:"grossWeight"`
	Hscode           datatypes.JSON `json:"hscode,omitempty"`
	MaterialCategory string         `gorm:"size:100" json:"materialCategory,omitempty"`
	Material         string         `gorm:"size:100" json:"material,omitempty"`
	Price            datatypes.JSON `json:"price,omitempty"`

	Audit
}
