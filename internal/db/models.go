package db

import (
	"time"
)

// Notice maps public.notices, one row per collected public notice or policy
// announcement after normalization.
type Notice struct {
	ID                     int64      `gorm:"column:id;primaryKey;autoIncrement"`
	PolicyNumber           *string    `gorm:"column:policy_number;type:text"`
	Title                  string     `gorm:"column:title;type:text;not null"`
	Category               *string    `gorm:"column:category;type:text"`
	Source                 *string    `gorm:"column:source;type:text"`
	OriginalURL            *string    `gorm:"column:original_url;type:text"`
	StartDate              *time.Time `gorm:"column:start_date;type:date"`
	EndDate                *time.Time `gorm:"column:end_date;type:date"`
	ContentSummary         *string    `gorm:"column:content_summary;type:text"`
	Description            *string    `gorm:"column:description;type:text"`
	SupportContent         *string    `gorm:"column:support_content;type:text"`
	AdditionalInfo         *string    `gorm:"column:additional_info;type:text"`
	SupervisingInstitution *string    `gorm:"column:supervising_institution;type:text"`
	RegisteringInstitution *string    `gorm:"column:registering_institution;type:text"`
	OperatingInstitution   *string    `gorm:"column:operating_institution;type:text"`
	RegionalInstitution    *string    `gorm:"column:regional_institution;type:text"`
	ApplicationMethod      *string    `gorm:"column:application_method;type:text"`
	ScreeningMethod        *string    `gorm:"column:screening_method;type:text"`
	RequiredDocuments      *string    `gorm:"column:required_documents;type:text"`
	ReferenceURL           *string    `gorm:"column:reference_url;type:text"`
	Vector                 *string    `gorm:"column:vector;type:vector(768)"`
	CreatedAt              time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt              time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Notice) TableName() string { return "notices" }

// Policy maps public.policies, the curated reference policies that similarity
// queries start from.
type Policy struct {
	ID                 int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title              string    `gorm:"column:title;type:text;not null"`
	Category           *string   `gorm:"column:category;type:text"`
	SubCategory        *string   `gorm:"column:sub_category;type:text"`
	Source             *string   `gorm:"column:source;type:text"`
	Description        *string   `gorm:"column:description;type:text"`
	TargetGroup        *string   `gorm:"column:target_group;type:text"`
	ApplicationProcess *string   `gorm:"column:application_process;type:text"`
	Vector             *string   `gorm:"column:vector;type:vector(768)"`
	CreatedAt          time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt          time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Policy) TableName() string { return "policies" }

func autoMigrateModels() []any {
	return []any{
		&Notice{},
		&Policy{},
	}
}
