package model

import (
	"time"

	"gorm.io/datatypes"
)

type Submission struct {
	SubmissionID   uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Category       string         `gorm:"column:category;type:text;not null"`
	Payload        datatypes.JSON `gorm:"column:payload;not null"`
	SourceAddress  string         `gorm:"column:source_address;type:text;not null"`
	ClientAgent    *string        `gorm:"column:client_agent;type:text"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null;index"`
	RelayDelivered bool           `gorm:"column:relay_delivered;not null;default:false"`
	RelayResponse  *string        `gorm:"column:relay_response;type:text"`
}

func (Submission) TableName() string {
	return "contact_form_submissions"
}
