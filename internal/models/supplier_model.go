package models

import "gorm.io/datatypes"

type Supplier struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200" json:"name"`
	Country     datatypes.JSON `json:"country,omitempty"`
	OriginArea  datatypes.JSON `json:"originArea,omitempty"`
	Initial     string         `gorm:"size:20" json:"initial,omitempty"`
	Code        string         `gorm:"uniqueIndex;size:50" json:"code"`
	PhoneNumber string         `gorm:"size:50" json:"phoneNumber"`
	Alias       string         `gorm:"size:100" json:"alias,omitempty"`
	PIC         string         `gorm:"size:100" json:"pic"`
	TaxNumber   string         `gorm:"size:50" json:"taxNumber,omitempty"`
	Address     string         `gorm:"size:500" json:"address"`
	Email       string         `gorm:"size:100" json:"email,omitempty"`
	ImageURL    string         `gorm:"size:500" json:"imageUrl,omitempty"`
	BankAccount datatypes.JSON `json:"bankAccount,omitempty"`

	Audit
}
