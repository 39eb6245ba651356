package models

type Customer struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:200" json:"name"`
	Code        string `gorm:"uniqueIndex;size:50" json:"code"`
	PhoneNumber string `gorm:"size:50" json:"phoneNumber"`
	PIC         string `gorm:"size:100" json:"pic"`
	TaxNumber   string `gorm:"size:50" json:"taxNumber,omitempty"`
	Address     string `gorm:"size:500" json:"address"`
	Email       string `gorm:"size:100" json:"email,omitempty"`
	ImageURL    string `gorm:"size:500" json:"imageUrl,omitempty"`

	Audit
}
