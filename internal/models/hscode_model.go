package models

// Hscode carries the harmonized-system tariff classification and its
// associated duty/permit rates.
type Hscode struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Code        string  `gorm:"uniqueIndex;size:50" json:"code"`
	Name        string  `gorm:"size:200" json:"name"`
	Description string  `gorm:"size:500" json:"description,omitempty"`
	BM          float64 `gorm:"column:bm" json:"bm"`
	PPN         float64 `gorm:"column:ppn" json:"ppn"`
	PPH         float64 `gorm:"column:pph" json:"pph"`
	Lartas      float64 `json:"lartas"`
	SPIPermit   float64 `gorm:"column:spi_permit" json:"spiPermit"`
	SNI         float64 `gorm:"column:sni" json:"sni"`

	Audit
}
